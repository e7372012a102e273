package server

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/neuromat/amparo/internal/model"
	"github.com/neuromat/amparo/internal/session"
	"github.com/neuromat/amparo/internal/text"
	"golang.org/x/crypto/bcrypt"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}

	user, err := s.db.GetUserByUsername(req.Username)
	if err != nil {
		log.Printf("Login lookup error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.respondError(w, http.StatusUnauthorized, "Credenciais inválidas")
		return
	}
	if user.Role == model.RolePending {
		s.respondError(w, http.StatusForbidden, "Usuário aguardando aprovação")
		return
	}

	token, err := s.sessions.Create(user.ID)
	if err != nil {
		log.Printf("Session create error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	s.sessions.SetCookie(w, token)
	s.respondJSON(w, http.StatusOK, user.Identity())
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		if err := s.sessions.Delete(cookie.Value); err != nil {
			log.Printf("Session delete error: %v", err)
		}
	}
	s.sessions.ClearCookie(w)
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Logout realizado"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		log.Printf("Me lookup error: %v", err)
	}
	if user == nil {
		s.respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	s.respondJSON(w, http.StatusOK, user.Identity())
}

func (s *Server) handlePendingUsers(w http.ResponseWriter, r *http.Request) {
	pending, err := s.db.PendingUsers()
	if err != nil {
		log.Printf("Pending users error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	if pending == nil {
		pending = []model.User{}
	}
	s.respondJSON(w, http.StatusOK, pending)
}

func (s *Server) handleApproveUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64  `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	role := model.Role(req.Role)
	if req.Role == "" {
		role = model.RoleEditor
	}
	if !role.Valid() || role == model.RolePending {
		s.respondError(w, http.StatusBadRequest, "Papel inválido")
		return
	}

	user, err := s.db.GetUserByID(req.UserID)
	if err != nil {
		log.Printf("Approve lookup error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	if user == nil || user.Role != model.RolePending {
		s.respondError(w, http.StatusNotFound, "Usuário não encontrado ou já aprovado")
		return
	}

	tempPassword, err := randomPassword()
	if err != nil {
		log.Printf("Password generation error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}

	var approvedBy int64
	if approver, _ := s.currentUser(r); approver != nil {
		approvedBy = approver.ID
	}
	ok, err := s.db.ApproveUser(req.UserID, role, string(hash), approvedBy)
	if err != nil {
		log.Printf("Approve error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, "Usuário não encontrado ou já aprovado")
		return
	}

	// The temporary password is returned exactly once, for the admin to
	// hand to the approved user out of band.
	s.respondJSON(w, http.StatusOK, map[string]string{
		"message":       "Usuário aprovado",
		"username":      user.Username,
		"temp_password": tempPassword,
	})
}

func (s *Server) handleRejectUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if err := s.db.DeleteUser(req.UserID); err != nil {
		log.Printf("Reject error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Usuário rejeitado e removido"})
}

// --- Registration forms ---

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nome     string `json:"nome"`
		Telefone string `json:"telefone"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if req.Nome == "" || req.Email == "" || req.Telefone == "" {
		s.respondError(w, http.StatusBadRequest, "Campos obrigatórios faltando")
		return
	}

	if !s.emailAvailable(w, req.Email) {
		return
	}
	user := &model.User{
		Username: usernameFromEmail(req.Email),
		Email:    req.Email,
		Role:     model.RolePending,
		Nome:     req.Nome,
		Telefone: text.FormatPhone(req.Telefone),
	}
	if !s.createPending(w, user) {
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"message": "Cadastro realizado! Aguarde aprovação."})
}

func (s *Server) handleContactPesquisador(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nome         string `json:"nome"`
		Telefone     string `json:"telefone"`
		Email        string `json:"email"`
		Instituicao  string `json:"instituicao"`
		AreaPesquisa string `json:"area_pesquisa"`
		Lattes       string `json:"lattes"`
		TipoVinculo  string `json:"tipo_vinculo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if req.Nome == "" || req.Email == "" || req.Telefone == "" ||
		req.Instituicao == "" || req.AreaPesquisa == "" || req.TipoVinculo == "" {
		s.respondError(w, http.StatusBadRequest, "Campos obrigatórios faltando")
		return
	}

	if !s.emailAvailable(w, req.Email) {
		return
	}
	user := &model.User{
		Username:     usernameFromEmail(req.Email),
		Email:        req.Email,
		Role:         model.RolePending,
		UserType:     "pesquisador",
		Nome:         req.Nome,
		Telefone:     text.FormatPhone(req.Telefone),
		Instituicao:  req.Instituicao,
		AreaPesquisa: req.AreaPesquisa,
		Lattes:       req.Lattes,
		TipoVinculo:  req.TipoVinculo,
	}
	if !s.createPending(w, user) {
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"message": "Cadastro de pesquisador realizado! Aguarde aprovação."})
}

func (s *Server) emailAvailable(w http.ResponseWriter, email string) bool {
	existing, err := s.db.GetUserByEmail(email)
	if err != nil {
		log.Printf("Contact lookup error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return false
	}
	if existing != nil {
		s.respondError(w, http.StatusBadRequest, "Email já cadastrado")
		return false
	}
	return true
}

// createPending stores a new pending account with an unguessable
// placeholder password; a usable one is only set on approval.
func (s *Server) createPending(w http.ResponseWriter, user *model.User) bool {
	placeholder, err := randomPassword()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return false
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(placeholder), bcrypt.DefaultCost)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return false
	}
	user.PasswordHash = string(hash)
	if _, err := s.db.CreateUser(user); err != nil {
		log.Printf("Create pending user error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return false
	}
	return true
}

func usernameFromEmail(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}

func randomPassword() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
