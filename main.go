package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"acquittals/pkg/account"
	"acquittals/pkg/config"
	"acquittals/pkg/token"

	"github.com/gin-gonic/gin"
)

var (
	cfg       *config.Config
	tokens    *token.Issuer
	accounts  *account.Store
	startedAt = time.Now()
)

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)
	if cfg.UsingDevSecret() {
		slog.Warn("JWT_SECRET not set, using development secret")
	}

	// `./acquittals migrate` runs AutoMigrate and seeding then exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		cfg.DB.AutoMigrate = true
		if err := initDB(); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}
		fmt.Println("migration and seeding completed")
		return
	}

	if err := initDB(); err != nil {
		slog.Error("database init failed", "error", err)
		os.Exit(1)
	}
	initServices()

	gin.SetMode(cfg.GinMode)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr, "db", cfg.DB.Type)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	closeDB()
}

// initServices builds the token issuer and credential store from cfg and db.
func initServices() {
	tokens = token.NewIssuer([]byte(cfg.JWTSecret), cfg.JWTTTL)
	accounts = account.NewStore(db, cfg.BcryptCost)
}

func setupLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}
