// Package config loads process configuration from the environment. A .env file
// in the working directory is read first when present; real environment
// variables take precedence over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable name, e.g. FINANCE_STORE_BACKEND.
const Prefix = "FINANCE"

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendBigQuery = "bigquery"

	DestinationLocal = "local"
	DestinationGCS   = "gcs"
)

type Store struct {
	Backend    string `envconfig:"BACKEND" default:"memory"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"finance.db"`
}

type Backup struct {
	Destination string `envconfig:"DESTINATION" default:"local"`
	Dir         string `envconfig:"DIR" default:"backups"`
	Bucket      string `envconfig:"BUCKET"`
	Prefix      string `envconfig:"PREFIX" default:"finance-backups"`
	// Automatic backups are enqueued after every write when enabled.
	Automatic bool `envconfig:"AUTOMATIC" default:"true"`
}

type Gemini struct {
	Model       string        `envconfig:"MODEL" default:"gemini-2.5-flash"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"60s"`
	Temperature float32       `envconfig:"TEMPERATURE" default:"0.4"`
}

type Notion struct {
	Token          string `envconfig:"TOKEN"`
	TransactionsDB string `envconfig:"TRANSACTIONS_DB"`
	CardsDB        string `envconfig:"CARDS_DB"`
	AccountsDB     string `envconfig:"ACCOUNTS_DB"`
}

type HTTP struct {
	Port          string        `envconfig:"PORT" default:"8080"`
	ReadTimeout   time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout  time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout   time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	AllowedOrigin string        `envconfig:"ALLOWED_ORIGIN" default:"*"`
}

type Jobs struct {
	QueueSize  int `envconfig:"QUEUE_SIZE" default:"100"`
	Workers    int `envconfig:"WORKERS" default:"5"`
	MaxRetries int `envconfig:"MAX_RETRIES" default:"3"`
}

// Config is the full application configuration.
type Config struct {
	Env      string `envconfig:"ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	GCPProjectID    string `envconfig:"GCP_PROJECT_ID"`
	BigQueryDataset string `envconfig:"BIGQUERY_DATASET" default:"finance"`

	Store  Store  `envconfig:"STORE"`
	Backup Backup `envconfig:"BACKUP"`
	Gemini Gemini `envconfig:"GEMINI"`
	Notion Notion `envconfig:"NOTION"`
	HTTP   HTTP   `envconfig:"HTTP"`
	Jobs   Jobs   `envconfig:"JOBS"`
}

// Load reads the given .env files (default ".env"), then the environment.
// Missing .env files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("Load: reading %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv processes the environment without consulting any .env file.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("FromEnv: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendSQLite:
	case BackendBigQuery:
		if c.GCPProjectID == "" {
			return fmt.Errorf("Validate: %s_GCP_PROJECT_ID is required for the bigquery store", Prefix)
		}
	default:
		return fmt.Errorf("Validate: unknown store backend %q", c.Store.Backend)
	}

	switch c.Backup.Destination {
	case DestinationLocal:
	case DestinationGCS:
		if c.Backup.Bucket == "" {
			return fmt.Errorf("Validate: %s_BACKUP_BUCKET is required for gcs backups", Prefix)
		}
	default:
		return fmt.Errorf("Validate: unknown backup destination %q", c.Backup.Destination)
	}

	if c.Jobs.Workers < 1 || c.Jobs.QueueSize < 1 {
		return fmt.Errorf("Validate: job queue size and workers must be positive")
	}
	return nil
}
