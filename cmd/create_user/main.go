package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"acquittals/models"
	"acquittals/pkg/account"
	"acquittals/pkg/config"
	"acquittals/pkg/database"
)

func main() {
	admin := flag.Bool("admin", false, "grant the administrator role")
	flag.Parse()
	if flag.NArg() < 2 {
		fmt.Println("usage: go run ./cmd/create_user [--admin] <email> <password> [name]")
		os.Exit(2)
	}
	email := flag.Arg(0)
	password := flag.Arg(1)
	name := flag.Arg(2)
	if name == "" {
		name = email
	}
	if len(password) < 6 {
		log.Fatal("password too short (min 6)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer database.Close(db)
	if err := database.SeedRoles(db); err != nil {
		log.Fatalf("seed roles: %v", err)
	}

	ctx := context.Background()
	store := account.NewStore(db, cfg.BcryptCost)
	user, err := store.Register(ctx, name, email, password)
	if errors.Is(err, account.ErrDuplicateEmail) {
		existing, ferr := store.FindByEmail(ctx, email)
		if ferr != nil {
			log.Fatalf("lookup existing user: %v", ferr)
		}
		fmt.Printf("user %s already exists (id=%d)\n", existing.Email, existing.ID)
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	if *admin {
		if err := store.SetRole(ctx, user.ID, models.RoleAdministrator); err != nil {
			log.Fatalf("failed to grant administrator role: %v", err)
		}
	}
	fmt.Printf("created user %s id=%d admin=%v\n", user.Email, user.ID, *admin)
}
