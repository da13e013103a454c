package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"acquittals/pkg/account"
	"acquittals/pkg/config"
	"acquittals/pkg/database"
)

func main() {
	email := flag.String("email", "", "email of the account to reset")
	password := flag.String("password", "", "new plaintext password (min 6 chars)")
	flag.Parse()
	if *email == "" || *password == "" {
		log.Fatal("--email and --password are required")
	}
	if len(*password) < 6 {
		log.Fatal("password too short (min 6)")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close(db)

	ctx := context.Background()
	store := account.NewStore(db, cfg.BcryptCost)
	user, err := store.FindByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("user not found: %v", err)
	}
	if err := store.SetPassword(ctx, user.ID, *password); err != nil {
		log.Fatalf("update failed: %v", err)
	}
	fmt.Printf("Password reset for user %s\n", user.Email)
}
