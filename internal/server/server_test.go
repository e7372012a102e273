package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/neuromat/amparo/internal/config"
	"github.com/neuromat/amparo/internal/database"
	"github.com/neuromat/amparo/internal/model"
	"github.com/neuromat/amparo/internal/session"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	srv    *httptest.Server
	client *http.Client
	db     database.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := database.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sessions, err := session.NewStore(filepath.Join(dir, "sessions.db"), time.Hour, false)
	if err != nil {
		t.Fatalf("open session store: %v", err)
	}
	t.Cleanup(func() { sessions.Close() })

	cfg := &config.Config{Environment: "development", StaticDir: dir}
	srv := httptest.NewServer(New(db, sessions, cfg).Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &testEnv{srv: srv, client: &http.Client{Jar: jar}, db: db}
}

func (e *testEnv) seedUser(t *testing.T, username, password string, role model.Role) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	id, err := e.db.CreateUser(&model.User{
		Username:     username,
		Email:        username + "@example.org",
		PasswordHash: string(hash),
		Role:         role,
		Nome:         username,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return id
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode %s %s response: %v", method, path, err)
	}
	return resp.StatusCode, decoded
}

func (e *testEnv) login(t *testing.T, username, password string) {
	t.Helper()
	status, body := e.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": username, "password": password,
	})
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d, body %v", username, status, body)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.request(t, http.MethodGet, "/api/health", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body["status"] != "ok" {
		t.Fatalf("status field = %v, want ok", body["status"])
	}
	if body["db"] != "SQLite" {
		t.Fatalf("db field = %v, want SQLite", body["db"])
	}
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "editor", "secret", model.RoleEditor)

	status, body := env.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "editor", "password": "nope",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d, want 401", status)
	}
	if body["error"] != "Credenciais inválidas" {
		t.Fatalf("bad password error = %v", body["error"])
	}

	status, body = env.request(t, http.MethodGet, "/api/auth/me", nil)
	if status != http.StatusUnauthorized || body["error"] != "Not authenticated" {
		t.Fatalf("anonymous me = %d %v", status, body)
	}

	env.login(t, "editor", "secret")

	status, body = env.request(t, http.MethodGet, "/api/auth/me", nil)
	if status != http.StatusOK {
		t.Fatalf("me status = %d, want 200", status)
	}
	if body["username"] != "editor" || body["role"] != "editor" {
		t.Fatalf("me body = %v", body)
	}

	status, body = env.request(t, http.MethodPost, "/api/auth/logout", nil)
	if status != http.StatusOK || body["message"] != "Logout realizado" {
		t.Fatalf("logout = %d %v", status, body)
	}

	status, _ = env.request(t, http.MethodGet, "/api/auth/me", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("me after logout = %d, want 401", status)
	}
}

func TestPendingUserCannotLogin(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "waiting", "secret", model.RolePending)

	status, body := env.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "waiting", "password": "secret",
	})
	if status != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", status)
	}
	if body["error"] != "Usuário aguardando aprovação" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestRegistrationAndApproval(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin", "secret", model.RoleAdmin)

	status, body := env.request(t, http.MethodPost, "/api/contact", map[string]string{
		"nome": "Maria", "email": "",
	})
	if status != http.StatusBadRequest || body["error"] != "Campos obrigatórios faltando" {
		t.Fatalf("missing fields = %d %v", status, body)
	}

	status, body = env.request(t, http.MethodPost, "/api/contact", map[string]string{
		"nome": "Maria Silva", "telefone": "11987654321", "email": "maria@example.org",
	})
	if status != http.StatusCreated {
		t.Fatalf("register = %d %v", status, body)
	}
	if body["message"] != "Cadastro realizado! Aguarde aprovação." {
		t.Fatalf("register message = %v", body["message"])
	}

	status, body = env.request(t, http.MethodPost, "/api/contact", map[string]string{
		"nome": "Maria Outra", "telefone": "11911112222", "email": "maria@example.org",
	})
	if status != http.StatusBadRequest || body["error"] != "Email já cadastrado" {
		t.Fatalf("duplicate email = %d %v", status, body)
	}

	// Approval endpoints are admin-only.
	status, _ = env.request(t, http.MethodGet, "/api/auth/pending-users", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("pending-users anonymous = %d, want 401", status)
	}

	env.login(t, "admin", "secret")

	user, err := env.db.GetUserByEmail("maria@example.org")
	if err != nil || user == nil {
		t.Fatalf("pending user lookup: %v %v", user, err)
	}
	if user.Username != "maria" {
		t.Fatalf("username = %q, want maria", user.Username)
	}
	if user.Telefone != "(11) 98765-4321" {
		t.Fatalf("telefone = %q", user.Telefone)
	}

	status, body = env.request(t, http.MethodPost, "/api/auth/approve-user", map[string]interface{}{
		"user_id": user.ID,
	})
	if status != http.StatusOK {
		t.Fatalf("approve = %d %v", status, body)
	}
	if body["message"] != "Usuário aprovado" || body["username"] != "maria" {
		t.Fatalf("approve body = %v", body)
	}
	temp, _ := body["temp_password"].(string)
	if temp == "" {
		t.Fatalf("approve returned no temp_password")
	}

	status, _ = env.request(t, http.MethodPost, "/api/auth/approve-user", map[string]interface{}{
		"user_id": user.ID,
	})
	if status != http.StatusNotFound {
		t.Fatalf("re-approve = %d, want 404", status)
	}

	// The approved editor can log in with the issued password.
	other := newTestEnvClient(t, env)
	status, body = other.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "maria", "password": temp,
	})
	if status != http.StatusOK || body["role"] != "editor" {
		t.Fatalf("approved login = %d %v", status, body)
	}
}

// newTestEnvClient shares the server but uses a fresh cookie jar.
func newTestEnvClient(t *testing.T, env *testEnv) *testEnv {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &testEnv{srv: env.srv, client: &http.Client{Jar: jar}, db: env.db}
}

func TestRejectUser(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin", "secret", model.RoleAdmin)
	id := env.seedUser(t, "spam", "x", model.RolePending)
	env.login(t, "admin", "secret")

	status, body := env.request(t, http.MethodPost, "/api/auth/reject-user", map[string]interface{}{
		"user_id": id,
	})
	if status != http.StatusOK || body["message"] != "Usuário rejeitado e removido" {
		t.Fatalf("reject = %d %v", status, body)
	}
	user, err := env.db.GetUserByID(id)
	if err != nil {
		t.Fatalf("lookup after reject: %v", err)
	}
	if user != nil {
		t.Fatalf("user still present after reject")
	}
}

func TestExercicioCRUD(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "editor", "secret", model.RoleEditor)

	payload := map[string]interface{}{
		"title":      "Alongamento matinal",
		"instructor": "Ana",
		"category":   "mobilidade",
		"video_url":  "https://youtu.be/abc123",
		"tags":       []string{"manhã", "leve"},
	}

	status, _ := env.request(t, http.MethodPost, "/api/conteudos/exercicios", payload)
	if status != http.StatusUnauthorized {
		t.Fatalf("anonymous create = %d, want 401", status)
	}

	env.login(t, "editor", "secret")

	status, body := env.request(t, http.MethodPost, "/api/conteudos/exercicios", payload)
	if status != http.StatusCreated || body["message"] != "Exercício criado" {
		t.Fatalf("create = %d %v", status, body)
	}
	id := int64(body["id"].(float64))

	status, body = env.request(t, http.MethodGet, "/api/conteudos/exercicios", nil)
	if status != http.StatusOK {
		t.Fatalf("list = %d", status)
	}
	if body["total"].(float64) != 1 || body["total_pages"].(float64) != 1 {
		t.Fatalf("list counters = %v", body)
	}
	items := body["exercicios"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("list items = %d, want 1", len(items))
	}

	// The editor console alias serves the same record.
	status, body = env.request(t, http.MethodGet, "/api/exercicios/"+itoa(id), nil)
	if status != http.StatusOK || body["title"] != "Alongamento matinal" {
		t.Fatalf("alias get = %d %v", status, body)
	}

	payload["title"] = "Alongamento noturno"
	status, body = env.request(t, http.MethodPut, "/api/conteudos/exercicios/"+itoa(id), payload)
	if status != http.StatusOK || body["message"] != "Exercício atualizado" {
		t.Fatalf("update = %d %v", status, body)
	}

	status, body = env.request(t, http.MethodGet, "/api/conteudos/exercicios/"+itoa(id), nil)
	if status != http.StatusOK || body["title"] != "Alongamento noturno" {
		t.Fatalf("get after update = %d %v", status, body)
	}

	status, body = env.request(t, http.MethodDelete, "/api/conteudos/exercicios/"+itoa(id), nil)
	if status != http.StatusOK || body["message"] != "Exercício deletado" {
		t.Fatalf("delete = %d %v", status, body)
	}

	status, body = env.request(t, http.MethodGet, "/api/conteudos/exercicios/"+itoa(id), nil)
	if status != http.StatusNotFound || body["error"] != "Exercício não encontrado" {
		t.Fatalf("get after delete = %d %v", status, body)
	}
}

func TestPalestraLifecycleAndLegacyRoute(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "editor", "secret", model.RoleEditor)
	env.login(t, "editor", "secret")

	status, body := env.request(t, http.MethodPost, "/api/conteudos/palestras", map[string]interface{}{
		"title":     "Viver bem com Parkinson",
		"speaker":   "Dra. Ana",
		"date_time": "2024-05-10T14:00",
		"videos":    []string{"https://youtu.be/abc", "https://youtu.be/def"},
	})
	if status != http.StatusCreated || body["message"] != "Palestra criada" {
		t.Fatalf("create = %d %v", status, body)
	}
	id := int64(body["id"].(float64))

	// Legacy route kept for the published frontend.
	status, body = env.request(t, http.MethodGet, "/api/palestras", nil)
	if status != http.StatusOK {
		t.Fatalf("legacy list = %d", status)
	}
	items := body["palestras"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("legacy list items = %d, want 1", len(items))
	}
	first := items[0].(map[string]interface{})
	if first["slug"] != "viver-bem-com-parkinson" {
		t.Fatalf("generated slug = %v", first["slug"])
	}
	if len(first["videos"].([]interface{})) != 2 {
		t.Fatalf("videos = %v", first["videos"])
	}

	status, body = env.request(t, http.MethodGet, "/api/conteudos/palestras/"+itoa(id), nil)
	if status != http.StatusOK || body["speaker"] != "Dra. Ana" {
		t.Fatalf("get = %d %v", status, body)
	}

	status, body = env.request(t, http.MethodDelete, "/api/conteudos/palestras/"+itoa(id), nil)
	if status != http.StatusOK || body["message"] != "Palestra deletada" {
		t.Fatalf("delete = %d %v", status, body)
	}

	status, body = env.request(t, http.MethodGet, "/api/palestras/"+itoa(id), nil)
	if status != http.StatusNotFound || body["error"] != "Palestra não encontrada" {
		t.Fatalf("get after delete = %d %v", status, body)
	}
}

func TestListPagination(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "editor", "secret", model.RoleEditor)
	env.login(t, "editor", "secret")

	for i := 0; i < 5; i++ {
		status, body := env.request(t, http.MethodPost, "/api/conteudos/estudos", map[string]interface{}{
			"title":  "Estudo " + itoa(int64(i)),
			"author": "Equipe",
		})
		if status != http.StatusCreated {
			t.Fatalf("seed estudo %d = %d %v", i, status, body)
		}
	}

	status, body := env.request(t, http.MethodGet, "/api/conteudos/estudos?page=2&per_page=2", nil)
	if status != http.StatusOK {
		t.Fatalf("list = %d", status)
	}
	if body["total"].(float64) != 5 || body["total_pages"].(float64) != 3 {
		t.Fatalf("counters = total %v pages %v", body["total"], body["total_pages"])
	}
	if body["page"].(float64) != 2 || body["per_page"].(float64) != 2 {
		t.Fatalf("echo = page %v per_page %v", body["page"], body["per_page"])
	}
	if items := body["estudos"].([]interface{}); len(items) != 2 {
		t.Fatalf("page 2 items = %d, want 2", len(items))
	}

	// A page past the end is empty but keeps the totals.
	status, body = env.request(t, http.MethodGet, "/api/conteudos/estudos?page=9&per_page=2", nil)
	if status != http.StatusOK {
		t.Fatalf("list past end = %d", status)
	}
	if items := body["estudos"].([]interface{}); len(items) != 0 {
		t.Fatalf("past-end items = %d, want 0", len(items))
	}
	if body["total"].(float64) != 5 {
		t.Fatalf("past-end total = %v, want 5", body["total"])
	}
}

func TestDisplaySpeaker(t *testing.T) {
	cases := []struct {
		resume      string
		affiliation string
		want        string
	}{
		{"", "", "Palestrante"},
		{"", "USP", "USP"},
		{"É professora doutora na área", "USP", "Professora Doutora - USP"},
		{"Fisioterapeuta com 10 anos de experiência", "", "Fisioterapeuta"},
		{"Pesquisador independente", "UNIFESP", "UNIFESP"},
		{"Pesquisador independente", "", "Palestrante"},
	}
	for _, c := range cases {
		if got := displaySpeaker(c.resume, c.affiliation); got != c.want {
			t.Fatalf("displaySpeaker(%q, %q) = %q, want %q", c.resume, c.affiliation, got, c.want)
		}
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
