// Package server provides the HTTP server and JSON API handlers.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/neuromat/amparo/internal/config"
	"github.com/neuromat/amparo/internal/database"
	"github.com/neuromat/amparo/internal/model"
	"github.com/neuromat/amparo/internal/session"
)

type contextKey string

const userContextKey contextKey = "user"

// Server is the main HTTP server.
type Server struct {
	db       database.Store
	sessions *session.Store
	cfg      *config.Config
	router   chi.Router
}

// New creates a new server.
func New(db database.Store, sessions *session.Store, cfg *config.Config) *Server {
	s := &Server{
		db:       db,
		sessions: sessions,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(s.originCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		r.Get("/latest-videos", s.handleLatestVideos)
		r.Get("/pages", s.handlePages)

		// Legacy palestra routes kept for older clients.
		r.Get("/palestras", s.handleListPalestras)
		r.Get("/palestras/{id}", s.handleGetPalestra)
		// Editor console aliases without the /conteudos prefix.
		r.Get("/exercicios/{id}", s.handleGetExercicio)
		r.Get("/estudos/{id}", s.handleGetEstudo)

		r.Route("/conteudos", func(r chi.Router) {
			r.Get("/stats", s.handleConteudosStats)

			r.Get("/palestras", s.handleListPalestras)
			r.Get("/palestras/{id}", s.handleGetPalestra)
			r.Get("/exercicios", s.handleListExercicios)
			r.Get("/exercicios/{id}", s.handleGetExercicio)
			r.Get("/estudos", s.handleListEstudos)
			r.Get("/estudos/{id}", s.handleGetEstudo)
			r.Get("/cartilhas", s.handleListCartilhas)
			r.Get("/cartilhas/{id}", s.handleGetCartilha)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth(model.RoleEditor))
				r.Post("/palestras", s.handleCreatePalestra)
				r.Put("/palestras/{id}", s.handleUpdatePalestra)
				r.Delete("/palestras/{id}", s.handleDeletePalestra)
				r.Post("/exercicios", s.handleCreateExercicio)
				r.Put("/exercicios/{id}", s.handleUpdateExercicio)
				r.Delete("/exercicios/{id}", s.handleDeleteExercicio)
				r.Post("/estudos", s.handleCreateEstudo)
				r.Put("/estudos/{id}", s.handleUpdateEstudo)
				r.Delete("/estudos/{id}", s.handleDeleteEstudo)
				r.Post("/cartilhas", s.handleCreateCartilha)
				r.Put("/cartilhas/{id}", s.handleUpdateCartilha)
				r.Delete("/cartilhas/{id}", s.handleDeleteCartilha)
			})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.Get("/me", s.handleMe)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth(model.RoleAdmin))
				r.Get("/pending-users", s.handlePendingUsers)
				r.Post("/approve-user", s.handleApproveUser)
				r.Post("/reject-user", s.handleRejectUser)
			})
		})

		r.Post("/contact", s.handleContact)
		r.Post("/contact/pesquisador", s.handleContactPesquisador)
	})

	// Everything else serves the built frontend.
	r.NotFound(s.handleFrontend)

	s.router = r
}

// Start starts the server.
func (s *Server) Start() error {
	log.Printf("Server starting on %s (db: %s)", s.cfg.Addr, s.db.DatabaseType())
	return http.ListenAndServe(s.cfg.Addr, s.router)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// --- Middleware ---

// originCheck validates the Origin header on state-changing requests
// against the configured whitelist. In production a missing Origin and
// Referer is rejected outright.
func (s *Server) originCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			origin := r.Header.Get("Origin")
			if origin != "" {
				if len(s.cfg.AllowedOrigins) > 0 && !containsString(s.cfg.AllowedOrigins, origin) {
					s.respondError(w, http.StatusForbidden, "Origin not allowed")
					return
				}
			} else if s.cfg.IsProduction() && r.Header.Get("Referer") == "" {
				s.respondError(w, http.StatusForbidden, "Missing Origin header")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth guards a route group. Any authenticated user with the
// required role passes; admins pass every gate.
func (s *Server) requireAuth(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := s.currentUser(r)
			if err != nil {
				log.Printf("Auth lookup error: %v", err)
			}
			if user == nil {
				s.respondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if user.Role != role && user.Role != model.RoleAdmin {
				s.respondError(w, http.StatusForbidden, "Forbidden")
				return
			}
			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// currentUser resolves the request's session cookie to a user row, or
// nil when anonymous.
func (s *Server) currentUser(r *http.Request) (*model.User, error) {
	if u, ok := r.Context().Value(userContextKey).(*model.User); ok {
		return u, nil
	}
	userID, err := s.sessions.FromRequest(r)
	if err == session.ErrNoSession {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.db.GetUserByID(userID)
}

// --- Misc handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"message": "AMPARO API is running",
		"db":      s.db.DatabaseType(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.Stats(true)
	if err != nil {
		log.Printf("Stats error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro ao carregar estatísticas")
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleConteudosStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.Stats(false)
	if err != nil {
		log.Printf("Stats error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro ao carregar estatísticas")
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleLatestVideos(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 6)
	videos, err := s.db.LatestVideos(limit)
	if err != nil {
		log.Printf("Latest videos error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro ao carregar vídeos")
		return
	}
	if videos == nil {
		videos = []model.LatestVideo{}
	}
	s.respondJSON(w, http.StatusOK, videos)
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.db.GetPages()
	if err != nil {
		log.Printf("Pages error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro ao carregar páginas")
		return
	}
	if pages == nil {
		pages = []model.Page{}
	}
	s.respondJSON(w, http.StatusOK, pages)
}

// handleFrontend serves the built SPA: real files as-is, everything else
// falls back to index.html so client-side routing works. API paths never
// fall through to the frontend.
func (s *Server) handleFrontend(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/api" {
		s.respondError(w, http.StatusNotFound, "Not found")
		return
	}
	path := filepath.Join(s.cfg.StaticDir, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		http.ServeFile(w, r, path)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.cfg.StaticDir, "index.html"))
}

// --- Helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Encode response error: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
