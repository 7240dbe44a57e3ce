package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"flightbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Backup     BackupConfig     `yaml:"backup"`
	Redis      RedisConfig      `yaml:"redis"`
	Journal    JournalConfig    `yaml:"journal"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

// StorageConfig holds the paths of the CSV tables.
type StorageConfig struct {
	FlightsFile    string `yaml:"flights_file"`
	PassengersFile string `yaml:"passengers_file"`
	BookingsFile   string `yaml:"bookings_file"`
	AuditFile      string `yaml:"audit_file"`
}

// Files returns every storage path, audit log included.
func (s StorageConfig) Files() []string {
	return []string{s.FlightsFile, s.PassengersFile, s.BookingsFile, s.AuditFile}
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// JournalConfig configures the transaction mirrors fed by booking events.
type JournalConfig struct {
	Path   string `yaml:"path"`
	Stream string `yaml:"stream"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for _, path := range c.Storage.Files() {
		if path == "" {
			return errors.New("all storage file paths are required")
		}
		clean := filepath.Clean(path)
		if seen[clean] {
			return fmt.Errorf("storage file %s is used more than once", path)
		}
		seen[clean] = true
	}

	if c.Backup.StoragePath != "" {
		backupDir := filepath.Clean(c.Backup.StoragePath)
		for _, path := range c.Storage.Files() {
			if filepath.Clean(filepath.Dir(path)) == backupDir {
				return fmt.Errorf("backup storage_path %s must not be the directory of %s", c.Backup.StoragePath, path)
			}
		}
	}

	if c.API.RateLimit.RPS < 0 {
		return errors.New("api rate_limit.rps must not be negative")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "flightbook"
	}
	if c.Storage.FlightsFile == "" {
		c.Storage.FlightsFile = models.DefaultFlightsFile
	}
	if c.Storage.PassengersFile == "" {
		c.Storage.PassengersFile = models.DefaultPassengersFile
	}
	if c.Storage.BookingsFile == "" {
		c.Storage.BookingsFile = models.DefaultBookingsFile
	}
	if c.Storage.AuditFile == "" {
		c.Storage.AuditFile = models.DefaultAuditFile
	}

	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Backup.Schedule == "" {
		c.Backup.Schedule = models.DefaultBackupInterval
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = filepath.Join(filepath.Dir(c.Storage.FlightsFile), "backups")
	}

	if c.Journal.Stream == "" {
		c.Journal.Stream = models.DefaultTransactionsStream
	}
	if c.Exports.Path == "" {
		c.Exports.Path = models.DefaultExportPath
	}
}
