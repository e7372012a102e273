package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/neuromat/amparo/internal/model"
)

func TestLoginCarriesBackendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Credenciais inválidas"})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = c.Login(context.Background(), "x", "y")
	if err == nil {
		t.Fatal("expected login error")
	}
	if err.Error() != "Credenciais inválidas" {
		t.Fatalf("error = %q, want backend message", err.Error())
	}
}

func TestLoginFallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = c.Login(context.Background(), "x", "y")
	if err == nil || err.Error() != "Login falhou" {
		t.Fatalf("error = %v, want Login falhou", err)
	}
}

func TestSessionCookieSurvivesCalls(t *testing.T) {
	var sawCookie bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "amparo_session", Value: "tok", Path: "/"})
			json.NewEncoder(w).Encode(model.Identity{ID: 1, Username: "editor", Role: model.RoleEditor})
		case "/api/auth/me":
			if cookie, err := r.Cookie("amparo_session"); err == nil && cookie.Value == "tok" {
				sawCookie = true
				json.NewEncoder(w).Encode(model.Identity{ID: 1, Username: "editor", Role: model.RoleEditor})
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Not authenticated"})
		}
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.Login(context.Background(), "editor", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	id, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if !sawCookie || id.Username != "editor" {
		t.Fatalf("session cookie not carried: sawCookie=%v id=%v", sawCookie, id)
	}
}

func TestBulkFetchRequestsFullPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("per_page"); got != "100" {
			t.Errorf("per_page = %q, want 100", got)
		}
		if got := r.URL.Query().Get("subcategory"); got != "boletins" {
			t.Errorf("subcategory = %q, want boletins", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"palestras": []model.Palestra{{ID: 1, Title: "Abertura"}},
			"total":     1,
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	palestras, err := c.Palestras(context.Background(), "boletins")
	if err != nil {
		t.Fatalf("palestras: %v", err)
	}
	if len(palestras) != 1 || palestras[0].Title != "Abertura" {
		t.Fatalf("palestras = %v", palestras)
	}
}
