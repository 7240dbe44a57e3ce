package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"flightbook/internal/events"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Journal keeps a queryable copy of committed transactions in SQLite.
// The CSV files stay the source of truth.
type Journal struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewJournal(path string, logger *zerolog.Logger) (*Journal, error) {
	// Создаем директорию для БД, если её нет
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// :memory: is per connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("transaction journal initialized")
	return &Journal{DB: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            event_id TEXT NOT NULL UNIQUE,
            type TEXT NOT NULL,
            flight_id TEXT NOT NULL,
            passenger_id TEXT NOT NULL,
            flight_date TEXT NOT NULL,
            seats_available INTEGER NOT NULL,
            occurred_at TEXT NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_flight_id ON transactions(flight_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_passenger_id ON transactions(passenger_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// Record stores one transaction. A repeated event ID is ignored.
func (j *Journal) Record(ctx context.Context, p events.TransactionEventPayload) error {
	query := `
        INSERT OR IGNORE INTO transactions
            (event_id, type, flight_id, passenger_id, flight_date, seats_available, occurred_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := j.ExecContext(ctx, query,
		p.EventID, p.Type, p.FlightID, p.PassengerID, p.FlightDate, p.SeatsAvailable,
		p.OccurredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record transaction %s: %w", p.EventID, err)
	}
	return nil
}

// Handle decodes a bus event and records it. It matches events.EventHandler.
func (j *Journal) Handle(event *events.Event) error {
	payload, err := event.Decode()
	if err != nil {
		return fmt.Errorf("decode %s event: %w", event.Type, err)
	}
	return j.Record(context.Background(), payload)
}

// ListByPassenger returns the passenger's transactions, oldest first.
func (j *Journal) ListByPassenger(ctx context.Context, passengerID string) ([]events.TransactionEventPayload, error) {
	return j.list(ctx, "passenger_id = ?", passengerID)
}

// ListByFlight returns the flight's transactions, oldest first.
func (j *Journal) ListByFlight(ctx context.Context, flightID string) ([]events.TransactionEventPayload, error) {
	return j.list(ctx, "flight_id = ?", flightID)
}

// Count returns the number of recorded transactions.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var count int
	if err := j.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (j *Journal) list(ctx context.Context, where string, arg string) ([]events.TransactionEventPayload, error) {
	query := `
        SELECT event_id, type, flight_id, passenger_id, flight_date, seats_available, occurred_at
        FROM transactions
        WHERE ` + where + `
        ORDER BY id
    `
	rows, err := j.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []events.TransactionEventPayload{}
	for rows.Next() {
		var (
			p          events.TransactionEventPayload
			occurredAt string
		)
		if err := rows.Scan(&p.EventID, &p.Type, &p.FlightID, &p.PassengerID, &p.FlightDate, &p.SeatsAvailable, &occurredAt); err != nil {
			return nil, err
		}
		p.OccurredAt, err = time.Parse(time.RFC3339Nano, occurredAt)
		if err != nil {
			return nil, fmt.Errorf("parse occurred_at of %s: %w", p.EventID, err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
