package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FlightColumns is the header row of the flights table.
var FlightColumns = []string{"Flight ID", "Departure", "Arrival", "Date", "Time", "Seats Available"}

type Flight struct {
	ID             string `json:"flight_id" yaml:"id"`
	Departure      string `json:"departure" yaml:"departure"`
	Arrival        string `json:"arrival" yaml:"arrival"`
	Date           string `json:"date" yaml:"date"`
	Time           string `json:"time" yaml:"time"`
	SeatsAvailable int    `json:"seats_available" yaml:"seats_available"`
}

// Row returns the flight as a positional table row.
func (f Flight) Row() []string {
	return []string{f.ID, f.Departure, f.Arrival, f.Date, f.Time, strconv.Itoa(f.SeatsAvailable)}
}

// SearchKey is the text matched by flight searches.
func (f Flight) SearchKey() string {
	return strings.ToLower(f.ID + f.Departure + f.Arrival)
}

// ErrFlightIDComma rejects flight IDs that cannot survive the comma-joined
// Booked Flights column.
var ErrFlightIDComma = errors.New("flight id must not contain a comma")

// ValidateFlightID checks that id can be stored in a passenger's booked list.
func ValidateFlightID(id string) error {
	if strings.Contains(id, BookedFlightsSeparator) {
		return fmt.Errorf("flight %q: %w", id, ErrFlightIDComma)
	}
	return nil
}

// ParseFlightRow builds a Flight from a positional table row.
func ParseFlightRow(row []string) (Flight, error) {
	if len(row) < len(FlightColumns) {
		return Flight{}, fmt.Errorf("flight row has %d fields, want %d", len(row), len(FlightColumns))
	}

	if err := ValidateFlightID(row[0]); err != nil {
		return Flight{}, err
	}

	seats, err := strconv.Atoi(strings.TrimSpace(row[5]))
	if err != nil {
		return Flight{}, fmt.Errorf("flight %s: invalid seats available %q: %w", row[0], row[5], err)
	}
	if seats < 0 {
		return Flight{}, fmt.Errorf("flight %s: negative seats available %d", row[0], seats)
	}

	return Flight{
		ID:             row[0],
		Departure:      row[1],
		Arrival:        row[2],
		Date:           row[3],
		Time:           row[4],
		SeatsAvailable: seats,
	}, nil
}
