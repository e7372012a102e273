// Package database provides storage backends for the AMPARO content API.
package database

import "github.com/neuromat/amparo/internal/model"

// Store defines the interface for database operations.
// Both SQLite and PostgreSQL implementations satisfy this interface.
// Getters return (nil, nil) when the row does not exist; updaters return
// false when there was nothing to update.
type Store interface {
	Close() error

	// DatabaseType returns the name of the database backend ("SQLite" or "PostgreSQL").
	DatabaseType() string

	// User operations
	CreateUser(u *model.User) (int64, error)
	GetUserByID(id int64) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	PendingUsers() ([]model.User, error)
	ApproveUser(userID int64, role model.Role, passwordHash string, approvedBy int64) (bool, error)
	DeleteUser(userID int64) error
	CountUsersByType() (map[string]int, error)

	// Palestra operations
	GetPalestras(subcategory string) ([]model.Palestra, error)
	GetPalestra(id int64) (*model.Palestra, error)
	CreatePalestra(p *model.Palestra) (int64, error)
	UpdatePalestra(p *model.Palestra) (bool, error)
	DeletePalestra(id int64) error

	// Exercicio operations
	GetExercicios(subcategory string) ([]model.Exercicio, error)
	GetExercicio(id int64) (*model.Exercicio, error)
	CreateExercicio(e *model.Exercicio) (int64, error)
	UpdateExercicio(e *model.Exercicio) (bool, error)
	DeleteExercicio(id int64) error

	// Estudo operations
	GetEstudos() ([]model.Estudo, error)
	GetEstudo(id int64) (*model.Estudo, error)
	CreateEstudo(e *model.Estudo) (int64, error)
	UpdateEstudo(e *model.Estudo) (bool, error)
	DeleteEstudo(id int64) error

	// Cartilha operations
	GetCartilhas() ([]model.Cartilha, error)
	GetCartilha(id int64) (*model.Cartilha, error)
	CreateCartilha(c *model.Cartilha) (int64, error)
	UpdateCartilha(c *model.Cartilha) (bool, error)
	DeleteCartilha(id int64) error

	// Pages and aggregates
	GetPages() ([]model.Page, error)
	Stats(withUserTypes bool) (*model.Stats, error)
	LatestVideos(limit int) ([]model.LatestVideo, error)
}
