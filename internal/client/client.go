// Package client is the Go API client for the AMPARO backend. It keeps
// the session cookie across calls, satisfies gate.Backend for the auth
// flow, and feeds ListController with bulk content fetches.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"github.com/neuromat/amparo/internal/gate"
	"github.com/neuromat/amparo/internal/listquery"
	"github.com/neuromat/amparo/internal/model"
)

var _ gate.Backend = (*Client)(nil)

// APIError carries the status and backend-provided message of a failed
// call. Message is empty when the body carried no error field.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("api error: status %d", e.Status)
}

// Client talks to one AMPARO backend. Safe for concurrent use.
type Client struct {
	base string
	http *http.Client
}

// New returns a client for the backend at baseURL. The client holds a
// cookie jar so the session survives across calls.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &Client{
		base: baseURL,
		http: &http.Client{Jar: jar, Timeout: 30 * time.Second},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return &APIError{Status: resp.StatusCode, Message: failure.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// --- gate.Backend ---

// Me returns the identity bound to the session cookie.
func (c *Client) Me(ctx context.Context) (*model.Identity, error) {
	var id model.Identity
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// Login exchanges credentials for an identity. A rejected login returns
// the backend's message; anything without one collapses to the generic
// login failure the form displays.
func (c *Client) Login(ctx context.Context, username, password string) (*model.Identity, error) {
	var id model.Identity
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &id)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return nil, apiErr
		}
		return nil, errors.New("Login falhou")
	}
	return &id, nil
}

// Logout invalidates the backend session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// --- Bulk content fetches ---

func bulkQuery(subcategory string) string {
	q := url.Values{"per_page": {strconv.Itoa(listquery.BulkPageSize)}}
	if subcategory != "" {
		q.Set("subcategory", subcategory)
	}
	return "?" + q.Encode()
}

// Palestras fetches one bulk page of palestras, optionally filtered by
// subcategory.
func (c *Client) Palestras(ctx context.Context, subcategory string) ([]model.Palestra, error) {
	var envelope struct {
		Palestras []model.Palestra `json:"palestras"`
	}
	err := c.do(ctx, http.MethodGet, "/api/conteudos/palestras"+bulkQuery(subcategory), nil, &envelope)
	return envelope.Palestras, err
}

// Exercicios fetches one bulk page of exercícios, optionally filtered
// by subcategory.
func (c *Client) Exercicios(ctx context.Context, subcategory string) ([]model.Exercicio, error) {
	var envelope struct {
		Exercicios []model.Exercicio `json:"exercicios"`
	}
	err := c.do(ctx, http.MethodGet, "/api/conteudos/exercicios"+bulkQuery(subcategory), nil, &envelope)
	return envelope.Exercicios, err
}

// Estudos fetches one bulk page of estudos.
func (c *Client) Estudos(ctx context.Context) ([]model.Estudo, error) {
	var envelope struct {
		Estudos []model.Estudo `json:"estudos"`
	}
	err := c.do(ctx, http.MethodGet, "/api/conteudos/estudos"+bulkQuery(""), nil, &envelope)
	return envelope.Estudos, err
}

// Cartilhas fetches one bulk page of cartilhas.
func (c *Client) Cartilhas(ctx context.Context) ([]model.Cartilha, error) {
	var envelope struct {
		Cartilhas []model.Cartilha `json:"cartilhas"`
	}
	err := c.do(ctx, http.MethodGet, "/api/conteudos/cartilhas"+bulkQuery(""), nil, &envelope)
	return envelope.Cartilhas, err
}

// PalestraList returns a list controller over the palestra collection.
func (c *Client) PalestraList() *ListController[model.Palestra] {
	return NewListController(c.Palestras, model.Palestra.SearchFields)
}

// ExercicioList returns a list controller over the exercício collection.
func (c *Client) ExercicioList() *ListController[model.Exercicio] {
	return NewListController(c.Exercicios, model.Exercicio.SearchFields)
}

// EstudoList returns a list controller over the estudo collection.
func (c *Client) EstudoList() *ListController[model.Estudo] {
	return NewListController(func(ctx context.Context, _ string) ([]model.Estudo, error) {
		return c.Estudos(ctx)
	}, model.Estudo.SearchFields)
}

// CartilhaList returns a list controller over the cartilha collection.
func (c *Client) CartilhaList() *ListController[model.Cartilha] {
	return NewListController(func(ctx context.Context, _ string) ([]model.Cartilha, error) {
		return c.Cartilhas(ctx)
	}, model.Cartilha.SearchFields)
}
