package config

import (
	"os"
	"path/filepath"
	"testing"

	"flightbook/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("FLIGHTBOOK_DATA", "/srv/flightbook")

	yamlContent := `
app:
  name: "flightbook-test"
storage:
  flights_file: "${FLIGHTBOOK_DATA}/flights.csv"
  passengers_file: "${FLIGHTBOOK_DATA}/passengers.csv"
api:
  enabled: true
  rate_limit:
    rps: 5
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "flightbook-test" {
		t.Errorf("expected app name flightbook-test, got %s", cfg.App.Name)
	}
	if cfg.Storage.FlightsFile != "/srv/flightbook/flights.csv" {
		t.Errorf("expected env expansion in flights_file, got %s", cfg.Storage.FlightsFile)
	}
	if cfg.Storage.BookingsFile != models.DefaultBookingsFile {
		t.Errorf("expected default bookings file, got %s", cfg.Storage.BookingsFile)
	}
	if !cfg.API.HTTP.Enabled {
		t.Errorf("expected http enabled when api enabled")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidateConfig(t *testing.T) {
	valid := StorageConfig{
		FlightsFile:    "f.csv",
		PassengersFile: "p.csv",
		BookingsFile:   "b.csv",
		AuditFile:      "a.csv",
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     Config{Storage: valid},
			wantErr: false,
		},
		{
			name: "missing audit path",
			cfg: Config{Storage: StorageConfig{
				FlightsFile:    "f.csv",
				PassengersFile: "p.csv",
				BookingsFile:   "b.csv",
			}},
			wantErr: true,
		},
		{
			name: "shared path",
			cfg: Config{Storage: StorageConfig{
				FlightsFile:    "data/f.csv",
				PassengersFile: "data/./f.csv",
				BookingsFile:   "b.csv",
				AuditFile:      "a.csv",
			}},
			wantErr: true,
		},
		{
			name: "backup path is the data directory",
			cfg: Config{
				Storage: StorageConfig{
					FlightsFile:    "data/f.csv",
					PassengersFile: "data/p.csv",
					BookingsFile:   "data/b.csv",
					AuditFile:      "data/a.csv",
				},
				Backup: BackupConfig{StoragePath: "./data/"},
			},
			wantErr: true,
		},
		{
			name: "backup path next to data",
			cfg: Config{
				Storage: valid,
				Backup:  BackupConfig{StoragePath: "backups"},
			},
			wantErr: false,
		},
		{
			name:    "negative rps",
			cfg:     Config{Storage: valid, API: APIConfig{RateLimit: APIRateLimitConfig{RPS: -1}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Storage.FlightsFile != models.DefaultFlightsFile {
		t.Errorf("expected default flights file %s, got %s", models.DefaultFlightsFile, cfg.Storage.FlightsFile)
	}
	if cfg.Storage.AuditFile != models.DefaultAuditFile {
		t.Errorf("expected default audit file %s, got %s", models.DefaultAuditFile, cfg.Storage.AuditFile)
	}
	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default http port 8080, got %d", cfg.API.HTTP.Port)
	}
	if cfg.Backup.StoragePath != filepath.Join("data", "backups") {
		t.Errorf("expected backups next to data files, got %s", cfg.Backup.StoragePath)
	}
	if cfg.Journal.Stream != models.DefaultTransactionsStream {
		t.Errorf("expected default stream %s, got %s", models.DefaultTransactionsStream, cfg.Journal.Stream)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}
