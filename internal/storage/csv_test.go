package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"flightbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *CSVStorage {
	t.Helper()
	dir := t.TempDir()
	return NewCSVStorage(
		filepath.Join(dir, "flights.csv"),
		filepath.Join(dir, "passengers.csv"),
		filepath.Join(dir, "bookings.csv"),
		filepath.Join(dir, "updateLog.csv"),
	)
}

func TestCSVStorage_MissingFiles(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.LoadFlights(ctx)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = s.LoadPassengers(ctx)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = s.LoadBookings(ctx)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestCSVStorage_FlightsRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	flights := []models.Flight{
		{ID: "F2", Departure: "Oslo", Arrival: "Rome", Date: "2024-06-02", Time: "07:15", SeatsAvailable: 0},
		{ID: "F1", Departure: "New York, JFK", Arrival: "Paris", Date: "2024-06-01", Time: "10:00", SeatsAvailable: 120},
	}
	require.NoError(t, s.SaveFlights(ctx, flights))

	data, err := os.ReadFile(s.FlightsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Flight ID,Departure,Arrival,Date,Time,Seats Available\n")
	assert.Contains(t, string(data), `"New York, JFK"`)

	got, err := s.LoadFlights(ctx)
	require.NoError(t, err)
	assert.Equal(t, flights, got)
}

func TestCSVStorage_PassengersRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	passengers := []models.Passenger{
		{ID: "P1", Name: "Ann", ContactDetails: "ann@example.com", BookedFlights: []string{"F1", "F2"}},
		{ID: "P2", Name: "Bob", ContactDetails: "+44 20 7946 0000", BookedFlights: []string{}},
	}
	require.NoError(t, s.SavePassengers(ctx, passengers))

	data, err := os.ReadFile(s.PassengersPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `P1,Ann,ann@example.com,"F1,F2"`)

	got, err := s.LoadPassengers(ctx)
	require.NoError(t, err)
	assert.Equal(t, passengers, got)
}

func TestCSVStorage_BookingsRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	records := []models.BookingRecord{
		{Type: models.TransactionBook, FlightID: "F1", PassengerID: "P1", Date: "2024-06-01"},
		{Type: models.TransactionCancel, FlightID: "F1", PassengerID: "P1", Date: "2024-06-01"},
	}
	require.NoError(t, s.SaveBookings(ctx, records))

	got, err := s.LoadBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestCSVStorage_HeaderOnly(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, os.WriteFile(s.FlightsPath, []byte("Flight ID,Departure,Arrival,Date,Time,Seats Available\n"), 0o644))

	got, err := s.LoadFlights(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCSVStorage_EmptyFile(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, os.WriteFile(s.PassengersPath, nil, 0o644))

	got, err := s.LoadPassengers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCSVStorage_MalformedFlight(t *testing.T) {
	s := newTestStorage(t)
	content := "Flight ID,Departure,Arrival,Date,Time,Seats Available\nF1,A,B,d,t,lots\n"
	require.NoError(t, os.WriteFile(s.FlightsPath, []byte(content), 0o644))

	_, err := s.LoadFlights(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "line 2")
}

func TestCSVStorage_SaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s := NewCSVStorage(filepath.Join(dir, "f.csv"), filepath.Join(dir, "p.csv"), filepath.Join(dir, "b.csv"), filepath.Join(dir, "a.csv"))

	require.NoError(t, s.SaveFlights(context.Background(), nil))
	assert.FileExists(t, s.FlightsPath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestCSVStorage_CanceledContext(t *testing.T) {
	s := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.SaveFlights(ctx, nil), context.Canceled)
	_, err := s.LoadFlights(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
