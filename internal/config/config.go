package config

import (
	"fmt"
	"os"
	"time"
)

// Store backends selectable via STORE_BACKEND.
const (
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
	BackendXLSX     = "xlsx"
	BackendMemory   = "memory"
)

type Config struct {
	ListenAddr string

	// Table store
	StoreBackend      string
	SpreadsheetID     string
	CredentialsFile   string // Google service-account JSON
	SheetsSettleDelay time.Duration
	XLSXPath          string
	DatabaseDSN       string

	// Auth
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTExpiry   time.Duration
	UsersFile   string // YAML credential list
	AuthUser    string // single-account fallback
	AuthPass    string

	// Reconciler
	AliasFile string // optional extra header aliases
}

func Load() *Config {
	config := &Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		StoreBackend:    getEnv("STORE_BACKEND", BackendXLSX),
		SpreadsheetID:   os.Getenv("SHEETS_SPREADSHEET_ID"),
		CredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		XLSXPath:        getEnv("XLSX_PATH", "data/plant.xlsx"),
		DatabaseDSN:     os.Getenv("DB_DSN"),
		JWTSecret:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTIssuer:       getEnv("JWT_ISS", "plant-maint-api"),
		JWTAudience:     getEnv("JWT_AUD", "plant-maint-api"),
		JWTExpiry:       24 * time.Hour,
		UsersFile:       os.Getenv("AUTH_USERS_FILE"),
		AuthUser:        getEnv("AUTH_USER", "admin"),
		AuthPass:        os.Getenv("AUTH_PASSWORD"),
		AliasFile:       os.Getenv("SCHEMA_ALIAS_FILE"),
	}

	if expiryStr := os.Getenv("JWT_EXPIRY"); expiryStr != "" {
		if expiry, err := time.ParseDuration(expiryStr); err == nil {
			config.JWTExpiry = expiry
		}
	}
	if delayStr := os.Getenv("SHEETS_SETTLE_DELAY"); delayStr != "" {
		if delay, err := time.ParseDuration(delayStr); err == nil && delay >= 0 {
			config.SheetsSettleDelay = delay
		}
	}

	return config
}

// LoadAndValidate loads the configuration and checks the selected backend
// has what it needs to start.
func LoadAndValidate() (*Config, error) {
	cfg := Load()
	switch cfg.StoreBackend {
	case BackendSheets:
		if cfg.SpreadsheetID == "" {
			return nil, fmt.Errorf("STORE_BACKEND=sheets requires SHEETS_SPREADSHEET_ID")
		}
	case BackendPostgres:
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("STORE_BACKEND=postgres requires DB_DSN")
		}
	case BackendXLSX:
		if cfg.XLSXPath == "" {
			return nil, fmt.Errorf("STORE_BACKEND=xlsx requires XLSX_PATH")
		}
	case BackendMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	if cfg.UsersFile == "" && cfg.AuthPass == "" {
		return nil, fmt.Errorf("either AUTH_USERS_FILE or AUTH_PASSWORD must be set")
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
