package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}

	if cfg.Store.Backend != BackendMemory {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
	if cfg.HTTP.Port != "8080" || cfg.HTTP.ReadTimeout != 15*time.Second {
		t.Errorf("HTTP = %+v", cfg.HTTP)
	}
	if cfg.Jobs.Workers != 5 || cfg.Jobs.QueueSize != 100 {
		t.Errorf("Jobs = %+v", cfg.Jobs)
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("Gemini.Model = %q", cfg.Gemini.Model)
	}
	if cfg.BigQueryDataset != "finance" {
		t.Errorf("BigQueryDataset = %q", cfg.BigQueryDataset)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("FINANCE_STORE_BACKEND", "sqlite")
	t.Setenv("FINANCE_STORE_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("FINANCE_HTTP_PORT", "9090")
	t.Setenv("FINANCE_JOBS_WORKERS", "2")
	t.Setenv("FINANCE_BACKUP_AUTOMATIC", "false")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.Store.Backend != BackendSQLite || cfg.Store.SQLitePath != "/tmp/x.db" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.HTTP.Port != "9090" || cfg.Jobs.Workers != 2 || cfg.Backup.Automatic {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestFromEnv_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"FINANCE_STORE_BACKEND": "mongo"}},
		{"bigquery without project", map[string]string{"FINANCE_STORE_BACKEND": "bigquery"}},
		{"gcs without bucket", map[string]string{"FINANCE_BACKUP_DESTINATION": "gcs"}},
		{"zero workers", map[string]string{"FINANCE_JOBS_WORKERS": "0"}},
		{"bad duration", map[string]string{"FINANCE_HTTP_READ_TIMEOUT": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := FromEnv(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("FINANCE_GCP_PROJECT_ID=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Register cleanup for the variable godotenv is about to set.
	t.Setenv("FINANCE_GCP_PROJECT_ID", "")
	os.Unsetenv("FINANCE_GCP_PROJECT_ID")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GCPProjectID != "from-file" {
		t.Errorf("GCPProjectID = %q, want from-file", cfg.GCPProjectID)
	}
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("Load() error = %v", err)
	}
}
