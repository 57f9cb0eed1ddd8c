// Package db opens the GORM connection used by the repositories.
package db

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	gmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Supported values of DB_DRIVER.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	// DefaultConnectTimeout bounds the retry loop of Open.
	DefaultConnectTimeout = 60 * time.Second
	retryInterval         = 3 * time.Second
	defaultSQLitePath     = "company_analyzer.db"
)

// Config holds the connection settings read from the environment.
type Config struct {
	Driver        string
	User          string
	Password      string
	Name          string
	Host          string
	Port          string
	InstanceName  string // Cloud SQL instance connection name; takes precedence over Host/Port
	Path          string // SQLite file path
	RunMigrations bool
}

// LoadConfigFromEnv reads the database settings. DB_DRIVER defaults to mysql.
func LoadConfigFromEnv() Config {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("DB_DRIVER")))
	if driver == "" {
		driver = DriverMySQL
	}
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = defaultSQLitePath
	}
	return Config{
		Driver:        driver,
		User:          os.Getenv("DB_USER"),
		Password:      os.Getenv("DB_PASSWORD"),
		Name:          os.Getenv("DB_NAME"),
		Host:          os.Getenv("DB_HOST"),
		Port:          os.Getenv("DB_PORT"),
		InstanceName:  os.Getenv("INSTANCE_CONNECTION_NAME"),
		Path:          path,
		RunMigrations: os.Getenv("RUN_MIGRATIONS") == "true",
	}
}

// BuildDSN returns the MySQL DSN for cfg. A Cloud SQL instance name selects
// the unix socket form.
func BuildDSN(cfg Config) string {
	if cfg.InstanceName != "" {
		return fmt.Sprintf("%s:%s@unix(/cloudsql/%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			cfg.User, cfg.Password, cfg.InstanceName, cfg.Name)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
}

// BuildPostgresDSN returns the key/value DSN understood by pgx. A Cloud SQL
// instance name selects the unix socket directory.
func BuildPostgresDSN(cfg Config) string {
	host, port := cfg.Host, cfg.Port
	if cfg.InstanceName != "" {
		host, port = "/cloudsql/"+cfg.InstanceName, ""
	}
	parts := []string{
		"host=" + host,
		"user=" + cfg.User,
		"password=" + cfg.Password,
		"dbname=" + cfg.Name,
	}
	if port != "" {
		parts = append(parts, "port="+port)
	}
	parts = append(parts, "sslmode=disable", "TimeZone=UTC")
	return strings.Join(parts, " ")
}

// Opener opens a gorm connection for a DSN. It is swapped in tests.
type Opener func(dsn string) (*gorm.DB, error)

// OpenerFor returns the DSN and Opener matching cfg.Driver.
func OpenerFor(cfg Config) (string, Opener, error) {
	gcfg := &gorm.Config{}
	switch cfg.Driver {
	case DriverMySQL:
		return BuildDSN(cfg), func(dsn string) (*gorm.DB, error) {
			return gorm.Open(gmysql.Open(dsn), gcfg)
		}, nil
	case DriverPostgres:
		return BuildPostgresDSN(cfg), func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gcfg)
		}, nil
	case DriverSQLite:
		return cfg.Path, func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), gcfg)
		}, nil
	}
	return "", nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
}

// ConnectWithRetry calls open until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying...", "error", err, "interval", retryInterval)
		time.Sleep(retryInterval)
	}
}

// Open connects using cfg and runs the migrations of models when
// cfg.RunMigrations is set.
func Open(cfg Config, models ...any) (*gorm.DB, error) {
	dsn, open, err := OpenerFor(cfg)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(dsn, DefaultConnectTimeout, open)
	if err != nil {
		return nil, err
	}
	if cfg.RunMigrations && len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
		slog.Info("database migrated", "driver", cfg.Driver, "models", len(models))
	}
	return db, nil
}
