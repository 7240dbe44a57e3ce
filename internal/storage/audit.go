package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"flightbook/internal/models"
)

// AppendAudit adds one line to the audit log. The header is written only
// when the file is created.
func (s *CSVStorage) AppendAudit(ctx context.Context, entry models.AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.AuditPath), 0o755); err != nil {
		return fmt.Errorf("append audit: create directory: %w", err)
	}

	_, statErr := os.Stat(s.AuditPath)
	isNew := errors.Is(statErr, fs.ErrNotExist)

	file, err := os.OpenFile(s.AuditPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if isNew {
		if err := writer.Write(models.AuditColumns); err != nil {
			return fmt.Errorf("append audit: header: %w", err)
		}
	}
	if err := writer.Write(entry.Row()); err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("append audit: %w", err)
	}

	return nil
}
