// Package config loads application configuration from environment
// variables.  A .env file in the working directory is read first when
// present; real environment variables win over it.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Ledger backends selectable through LEDGER_BACKEND.
const (
	BackendSheets = "sheets"
	BackendMySQL  = "mysql"
	BackendMemory = "memory"
)

// Config holds all runtime configuration values.
type Config struct {
	Env  string `envconfig:"APP_ENV" default:"dev"`  // application environment (dev/test/prod)
	Port string `envconfig:"APP_PORT" default:"8080"` // HTTP port to listen on

	LedgerBackend string `envconfig:"LEDGER_BACKEND" default:"sheets"`

	// Google Sheets backend
	SheetsSpreadsheetID   string `envconfig:"SHEETS_SPREADSHEET_ID"`
	SheetsSheetName       string `envconfig:"SHEETS_SHEET_NAME" default:"Bookings"`
	SheetsCredentialsFile string `envconfig:"SHEETS_CREDENTIALS_FILE"`

	// MySQL backend
	DBUser string `envconfig:"DB_USER"`
	DBPass string `envconfig:"DB_PASS"`
	DBHost string `envconfig:"DB_HOST" default:"localhost"`
	DBPort string `envconfig:"DB_PORT" default:"3306"`
	DBName string `envconfig:"DB_NAME"`

	// Admin authentication
	JWTSecret         string `envconfig:"JWT_SECRET" required:"true"`
	AccessTTLMin      int    `envconfig:"ACCESS_TOKEN_TTL_MIN" default:"60"`
	AdminEmail        string `envconfig:"ADMIN_EMAIL"`
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"` // bcrypt hash

	RabbitMQURL string `envconfig:"RABBITMQ_URL"` // empty disables booking events

	// Backing-store write retries
	WriteRetryAttempts int           `envconfig:"WRITE_RETRY_ATTEMPTS" default:"4"`
	WriteRetryBase     time.Duration `envconfig:"WRITE_RETRY_BASE" default:"500ms"`
	WriteRetryMax      time.Duration `envconfig:"WRITE_RETRY_MAX" default:"8s"`

	ReconcileInterval  time.Duration `envconfig:"RECONCILE_INTERVAL" default:"15m"` // 0 disables
	PricingCatalogFile string        `envconfig:"PRICING_CATALOG_FILE"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
}

// Load reads .env (if any) and the environment into a Config and checks
// that the selected backend has what it needs.
func Load() (Config, error) {
	_ = godotenv.Load() // a missing .env file is fine
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, err
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	switch c.LedgerBackend {
	case BackendSheets:
		if c.SheetsSpreadsheetID == "" {
			return fmt.Errorf("missing required env var: SHEETS_SPREADSHEET_ID")
		}
	case BackendMySQL:
		if c.DBUser == "" || c.DBName == "" {
			return fmt.Errorf("missing required env vars: DB_USER and DB_NAME")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid LEDGER_BACKEND %q", c.LedgerBackend)
	}
	return nil
}

// IsProduction reports whether the service runs with production defaults.
func (c Config) IsProduction() bool { return c.Env == "prod" || c.Env == "production" }
