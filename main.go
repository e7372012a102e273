package main

import (
	"log"
	"time"

	"github.com/neuromat/amparo/internal/config"
	"github.com/neuromat/amparo/internal/database"
	"github.com/neuromat/amparo/internal/model"
	"github.com/neuromat/amparo/internal/server"
	"github.com/neuromat/amparo/internal/session"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	var db database.Store
	switch cfg.Database.Driver {
	case "postgres":
		db, err = database.NewPostgres(cfg.Database.URL)
	default:
		db, err = database.New(cfg.Database.Path)
	}
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	defer db.Close()
	log.Printf("Using %s database", db.DatabaseType())

	sessions, err := session.NewStore(
		cfg.Session.Path,
		time.Duration(cfg.Session.TTLHours)*time.Hour,
		cfg.IsProduction(),
	)
	if err != nil {
		log.Fatalf("Session store error: %v", err)
	}
	defer sessions.Close()
	sessions.StartSweeper(time.Duration(cfg.Session.SweepMinutes) * time.Minute)

	if err := seedAdmin(db, cfg.Admin); err != nil {
		log.Fatalf("Admin seed error: %v", err)
	}

	srv := server.New(db, sessions, cfg)
	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// seedAdmin creates the configured admin account on first start so a
// fresh deployment can log in and approve editors.
func seedAdmin(db database.Store, admin config.AdminConfig) error {
	if admin.Username == "" || admin.Password == "" {
		return nil
	}
	existing, err := db.GetUserByUsername(admin.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.CreateUser(&model.User{
		Username:     admin.Username,
		Email:        admin.Email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		Nome:         admin.Nome,
	})
	if err == nil {
		log.Printf("Seeded admin account %q", admin.Username)
	}
	return err
}
