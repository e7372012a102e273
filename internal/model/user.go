package model

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleEditor  Role = "editor"
	RolePending Role = "pending"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEditor || r == RolePending
}

// User is an account row. PasswordHash never leaves the database layer.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Nome         string     `json:"nome"`
	Telefone     string     `json:"telefone,omitempty"`
	UserType     string     `json:"user_type,omitempty"`
	Instituicao  string     `json:"instituicao,omitempty"`
	AreaPesquisa string     `json:"area_pesquisa,omitempty"`
	Lattes       string     `json:"lattes,omitempty"`
	TipoVinculo  string     `json:"tipo_vinculo,omitempty"`
	CreatedAt    time.Time  `json:"created_at,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	ApprovedBy   *int64     `json:"approved_by,omitempty"`
}

// Identity is the wire shape of an authenticated user, as returned by
// /api/auth/me and /api/auth/login.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Nome     string `json:"nome"`
}

// Identity projects the user onto its session wire shape.
func (u *User) Identity() Identity {
	return Identity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Nome:     u.Nome,
	}
}
