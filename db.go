package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"acquittals/models"
	"acquittals/pkg/account"
	"acquittals/pkg/database"

	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() error {
	var err error
	db, err = database.Open(cfg.DB)
	if err != nil {
		return err
	}
	if cfg.DB.AutoMigrate {
		// per-model failures are logged as warnings inside Migrate
		if err := database.Migrate(db); err != nil {
			slog.Warn("migration incomplete", "error", err)
		}
	}
	if err := database.SeedRoles(db); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	return seedDB()
}

// seedDB creates the configured administrator account when ADMIN_EMAIL and
// ADMIN_PASSWORD are set, and makes sure the upload directory exists.
func seedDB() error {
	defer ensureUploadBase()
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	ctx := context.Background()
	store := account.NewStore(db, cfg.BcryptCost)
	admin, err := store.FindByEmail(ctx, cfg.AdminEmail)
	if errors.Is(err, account.ErrNotFound) {
		admin, err = store.Register(ctx, "Administrator", cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		slog.Info("seeded admin user", "email", admin.Email, "id", admin.ID)
	} else if err != nil {
		return fmt.Errorf("lookup admin: %w", err)
	}
	if admin.Role.Name != models.RoleAdministrator {
		if err := store.SetRole(ctx, admin.ID, models.RoleAdministrator); err != nil {
			return fmt.Errorf("promote admin: %w", err)
		}
	}
	return nil
}

func closeDB() {
	if db == nil {
		return
	}
	if err := database.Close(db); err != nil {
		slog.Warn("close database", "error", err)
	}
}

// ensureUploadBase creates the base uploads directory.
func ensureUploadBase() {
	base := uploadBaseDir()
	if err := os.MkdirAll(base, 0o755); err != nil {
		slog.Warn("failed to create upload base dir", "dir", base, "error", err)
	}
}

// uploadBaseDir returns the base directory for stored spreadsheets (UPLOAD_BASE).
func uploadBaseDir() string {
	if cfg != nil && cfg.UploadBase != "" {
		return cfg.UploadBase
	}
	return "uploads"
}
