package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"flightbook/internal/config"

	"github.com/rs/zerolog"
)

const backupPrefix = "backup_"

type BackupService struct {
	files  []string
	config config.BackupConfig
	logger *zerolog.Logger
	now    func() time.Time
}

// NewBackupService copies files into cfg.StoragePath. Missing source files
// are skipped.
func NewBackupService(files []string, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{
		files:  files,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (s *BackupService) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info().Msg("Backup service is disabled")
		return
	}

	s.logger.Info().Str("schedule", s.config.Schedule).Msg("Backup service started")

	interval := 24 * time.Hour
	if s.config.Schedule != "" {
		if d, err := time.ParseDuration(s.config.Schedule); err == nil && d > 0 {
			interval = d
		} else {
			s.logger.Warn().Err(err).Str("schedule", s.config.Schedule).Msg("Failed to parse backup schedule, using default 24h")
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run first backup immediately
	if _, err := s.PerformBackup(); err != nil {
		s.logger.Error().Err(err).Msg("Initial backup failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PerformBackup(); err != nil {
				s.logger.Error().Err(err).Msg("Scheduled backup failed")
			}
			s.CleanupOldBackups()
		}
	}
}

// PerformBackup copies the data files into a new backup_<timestamp>
// directory and returns its path.
func (s *BackupService) PerformBackup() (string, error) {
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	timestamp := s.now().Format("20060102_150405")
	backupDir, err := os.MkdirTemp(s.config.StoragePath, fmt.Sprintf("%s%s_", backupPrefix, timestamp))
	if err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	s.logger.Info().Str("path", backupDir).Msg("Performing data files backup")

	copied := 0
	for _, src := range s.files {
		dst := filepath.Join(backupDir, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				s.logger.Debug().Str("file", src).Msg("Skipping missing file")
				continue
			}
			return backupDir, fmt.Errorf("backup %s: %w", src, err)
		}
		copied++
	}

	s.logger.Info().Int("files", copied).Msg("Backup completed successfully")
	return backupDir, nil
}

func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destination, source); err != nil {
		destination.Close()
		return err
	}
	return destination.Close()
}

// CleanupOldBackups removes backup_* directories older than RetentionDays.
// Anything else in StoragePath is left alone.
func (s *BackupService) CleanupOldBackups() {
	if s.config.RetentionDays <= 0 {
		return
	}

	entries, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read backup directory for cleanup")
		return
	}

	cutoff := s.now().AddDate(0, 0, -s.config.RetentionDays)

	for _, entry := range entries {
		// Только каталоги, созданные PerformBackup
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), backupPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			s.logger.Info().Str("backup", entry.Name()).Msg("Deleting old backup")
			if err := os.RemoveAll(filepath.Join(s.config.StoragePath, entry.Name())); err != nil {
				s.logger.Warn().Err(err).Str("backup", entry.Name()).Msg("Failed to delete old backup")
			}
		}
	}
}
