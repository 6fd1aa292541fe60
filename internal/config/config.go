package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/go-homedir"
)

// Store drivers.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	// Persistence
	StoreDriver string
	DataDir     string // Directory of .piuma files for the file store
	SQLitePath  string
	DatabaseURL string
	TablePrefix string
	// Document model
	Locale     string // BCP 47 tag or Accept-Language list for default names
	UndoLevels int    // 0 keeps the whole history
	Autosave   bool   // Save after every successful mutation
	// Auth is enabled only when a JWKS URL is configured
	AuthJWKSURL string
	// Logging
	LogDir      string
	LogMaxFiles int
	// Debug flags
	Debug bool // Debug log level
}

func Load() (*Config, error) {
	env := getEnv("ENVIRONMENT", "dev")

	dataDir, err := homedir.Expand(getEnv("DATA_DIR", "~/.piuma"))
	if err != nil {
		return nil, fmt.Errorf("expand DATA_DIR: %w", err)
	}
	undoLevels, err := getEnvInt("UNDO_LEVELS", DefaultUndoLevels)
	if err != nil {
		return nil, err
	}
	logMaxFiles, err := getEnvInt("LOG_MAX_FILES", 10)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		StoreDriver: getEnv("STORE_DRIVER", StoreFile),
		DataDir:     dataDir,
		SQLitePath:  getEnv("SQLITE_PATH", filepath.Join(dataDir, "piuma.db")),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		TablePrefix: getTablePrefix(env),
		Locale:      getEnv("LOCALE", "en"),
		UndoLevels:  undoLevels,
		Autosave:    getEnv("AUTOSAVE", "true") == "true",
		AuthJWKSURL: getEnv("AUTH_JWKS_URL", ""),
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: logMaxFiles,
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the selected store has what it needs.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.StoreDriver, validation.Required, validation.In(StoreFile, StoreSQLite, StorePostgres)),
		validation.Field(&c.DataDir, validation.When(c.StoreDriver == StoreFile, validation.Required)),
		validation.Field(&c.SQLitePath, validation.When(c.StoreDriver == StoreSQLite, validation.Required)),
		validation.Field(&c.DatabaseURL, validation.When(c.StoreDriver == StorePostgres, validation.Required)),
		validation.Field(&c.UndoLevels, validation.Min(0)),
		validation.Field(&c.LogMaxFiles, validation.Min(1)),
	)
}

// IsProduction reports whether the server runs with production defaults.
func (c *Config) IsProduction() bool { return c.Environment == "prod" }

// Origins splits CORSOrigins on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
