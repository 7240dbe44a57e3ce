package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"flightbook/internal/models"
)

// CSVStorage keeps the booking tables in comma-separated files with a header row.
type CSVStorage struct {
	FlightsPath    string
	PassengersPath string
	BookingsPath   string
	AuditPath      string
}

func NewCSVStorage(flightsPath, passengersPath, bookingsPath, auditPath string) *CSVStorage {
	return &CSVStorage{
		FlightsPath:    flightsPath,
		PassengersPath: passengersPath,
		BookingsPath:   bookingsPath,
		AuditPath:      auditPath,
	}
}

// Files returns the paths of every file the storage owns.
func (s *CSVStorage) Files() []string {
	return []string{s.FlightsPath, s.PassengersPath, s.BookingsPath, s.AuditPath}
}

func (s *CSVStorage) LoadFlights(ctx context.Context) ([]models.Flight, error) {
	rows, err := readTable(ctx, s.FlightsPath)
	if err != nil {
		return nil, fmt.Errorf("load flights: %w", err)
	}

	flights := make([]models.Flight, 0, len(rows))
	for i, row := range rows {
		f, err := models.ParseFlightRow(row)
		if err != nil {
			return nil, fmt.Errorf("load flights: line %d: %w", i+2, err)
		}
		flights = append(flights, f)
	}
	return flights, nil
}

func (s *CSVStorage) LoadPassengers(ctx context.Context) ([]models.Passenger, error) {
	rows, err := readTable(ctx, s.PassengersPath)
	if err != nil {
		return nil, fmt.Errorf("load passengers: %w", err)
	}

	passengers := make([]models.Passenger, 0, len(rows))
	for i, row := range rows {
		p, err := models.ParsePassengerRow(row)
		if err != nil {
			return nil, fmt.Errorf("load passengers: line %d: %w", i+2, err)
		}
		passengers = append(passengers, p)
	}
	return passengers, nil
}

func (s *CSVStorage) LoadBookings(ctx context.Context) ([]models.BookingRecord, error) {
	rows, err := readTable(ctx, s.BookingsPath)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	records := make([]models.BookingRecord, 0, len(rows))
	for i, row := range rows {
		r, err := models.ParseBookingRow(row)
		if err != nil {
			return nil, fmt.Errorf("load bookings: line %d: %w", i+2, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func (s *CSVStorage) SaveFlights(ctx context.Context, flights []models.Flight) error {
	rows := make([][]string, 0, len(flights))
	for _, f := range flights {
		rows = append(rows, f.Row())
	}
	if err := writeTable(ctx, s.FlightsPath, models.FlightColumns, rows); err != nil {
		return fmt.Errorf("save flights: %w", err)
	}
	return nil
}

func (s *CSVStorage) SavePassengers(ctx context.Context, passengers []models.Passenger) error {
	rows := make([][]string, 0, len(passengers))
	for _, p := range passengers {
		rows = append(rows, p.Row())
	}
	if err := writeTable(ctx, s.PassengersPath, models.PassengerColumns, rows); err != nil {
		return fmt.Errorf("save passengers: %w", err)
	}
	return nil
}

func (s *CSVStorage) SaveBookings(ctx context.Context, records []models.BookingRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	if err := writeTable(ctx, s.BookingsPath, models.BookingColumns, rows); err != nil {
		return fmt.Errorf("save bookings: %w", err)
	}
	return nil
}

// readTable returns every row after the header. Blank lines are skipped by
// the csv reader; rows may have differing field counts.
func readTable(ctx context.Context, path string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// writeTable replaces path with header+rows. Data goes to a temp file in the
// same directory first and is renamed over the target.
func writeTable(ctx context.Context, path string, header []string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	writer := csv.NewWriter(tmp)
	if err := writer.Write(header); err != nil {
		tmp.Close()
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
