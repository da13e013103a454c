package database

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"acquittals/models"
	"acquittals/pkg/config"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector picks the GORM driver for cfg.Type. DSN, when set, is passed through as-is.
func Dialector(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Type {
	case "mysql", "mariadb":
		dsn := cfg.DSN
		if dsn == "" {
			mc := gomysql.NewConfig()
			mc.User = cfg.User
			mc.Passwd = cfg.Password
			mc.Net = "tcp"
			mc.Addr = cfg.Host + ":" + portOr(cfg.Port, "3306")
			mc.DBName = cfg.Name
			mc.ParseTime = true
			mc.Loc = time.UTC
			mc.Params = map[string]string{"charset": "utf8mb4"}
			dsn = mc.FormatDSN()
		}
		return mysql.Open(dsn), nil

	case "postgres", "postgresql":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
				cfg.Host, cfg.User, cfg.Password, cfg.Name, portOr(cfg.Port, "5432"))
		}
		return postgres.Open(dsn), nil

	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = cfg.Name
		}
		return sqlite.Open(dsn), nil

	case "sqlserver", "mssql":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s",
				cfg.User, cfg.Password, cfg.Host, portOr(cfg.Port, "1433"), cfg.Name)
		}
		return sqlserver.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
}

// Open connects and sizes the connection pool to cfg.ConnectionLimit.
func Open(cfg config.Database) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  newLogger(cfg.LogLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	limit := cfg.ConnectionLimit
	if limit <= 0 {
		limit = 10
	}
	sqlDB.SetMaxOpenConns(limit)
	sqlDB.SetMaxIdleConns(max(limit/2, 1))
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// MustOpenFromEnv is the shared initializer for the command line tools.
func MustOpenFromEnv() *gorm.DB {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := Open(cfg.DB)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return db
}

// Migrate creates or updates every table. Models are migrated one at a time so
// a failure on one (for example a permission error) does not block the rest;
// failures are logged and returned together.
func Migrate(db *gorm.DB) error {
	var failed []string
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			name := strings.TrimPrefix(fmt.Sprintf("%T", m), "*models.")
			slog.Warn("migration warning", "table", name, "err", err)
			failed = append(failed, name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("migration failed for: %s", strings.Join(failed, ", "))
	}
	return nil
}

// SeedRoles makes sure the master roles exist.
func SeedRoles(db *gorm.DB) error {
	for _, r := range models.DefaultRoles() {
		if err := db.Where("name = ?", r.Name).FirstOrCreate(&r).Error; err != nil {
			return fmt.Errorf("failed to ensure role %s: %w", r.Name, err)
		}
	}
	return nil
}

// Ping checks connectivity of the underlying pool.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close releases the pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func portOr(port, def string) string {
	if port == "" {
		return def
	}
	return port
}

func newLogger(level string) logger.Interface {
	lvl := logger.Warn
	switch strings.ToLower(level) {
	case "silent":
		lvl = logger.Silent
	case "error":
		lvl = logger.Error
	case "info", "debug":
		lvl = logger.Info
	}
	return logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  lvl,
		IgnoreRecordNotFoundError: true,
	})
}
