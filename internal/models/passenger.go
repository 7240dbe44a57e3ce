package models

import (
	"fmt"
	"slices"
	"strings"
)

// BookedFlightsSeparator joins flight IDs in the Booked Flights column.
const BookedFlightsSeparator = ","

// PassengerColumns is the header row of the passengers table.
var PassengerColumns = []string{"Passenger ID", "Name", "Contact Details", "Booked Flights"}

type Passenger struct {
	ID             string   `json:"passenger_id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	ContactDetails string   `json:"contact_details" yaml:"contact_details"`
	BookedFlights  []string `json:"booked_flights" yaml:"booked_flights"`
}

// HasFlight reports whether the passenger is booked on flightID.
func (p *Passenger) HasFlight(flightID string) bool {
	return slices.Contains(p.BookedFlights, flightID)
}

// AddFlight appends flightID unless it is already booked.
func (p *Passenger) AddFlight(flightID string) bool {
	if p.HasFlight(flightID) {
		return false
	}
	p.BookedFlights = append(p.BookedFlights, flightID)
	return true
}

// RemoveFlight drops flightID from the booked set.
func (p *Passenger) RemoveFlight(flightID string) bool {
	idx := slices.Index(p.BookedFlights, flightID)
	if idx < 0 {
		return false
	}
	p.BookedFlights = slices.Delete(p.BookedFlights, idx, idx+1)
	return true
}

// Clone returns a deep copy, so callers cannot alias the booked set.
func (p Passenger) Clone() Passenger {
	p.BookedFlights = slices.Clone(p.BookedFlights)
	if p.BookedFlights == nil {
		p.BookedFlights = []string{}
	}
	return p
}

// Row returns the passenger as a positional table row.
func (p Passenger) Row() []string {
	return []string{p.ID, p.Name, p.ContactDetails, strings.Join(p.BookedFlights, BookedFlightsSeparator)}
}

// SearchKey is the text matched by passenger searches.
func (p Passenger) SearchKey() string {
	return strings.ToLower(p.ID + p.Name + p.ContactDetails)
}

// ParseBookedFlights splits a comma-joined list, dropping empty entries and duplicates.
func ParseBookedFlights(raw string) []string {
	out := []string{}
	if raw == "" {
		return out
	}
	for _, id := range strings.Split(raw, BookedFlightsSeparator) {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// ParsePassengerRow builds a Passenger from a positional table row.
// A missing Booked Flights column is treated as no bookings.
func ParsePassengerRow(row []string) (Passenger, error) {
	if len(row) < len(PassengerColumns)-1 {
		return Passenger{}, fmt.Errorf("passenger row has %d fields, want %d", len(row), len(PassengerColumns))
	}

	var booked string
	if len(row) >= len(PassengerColumns) {
		booked = row[3]
	}

	return Passenger{
		ID:             row[0],
		Name:           row[1],
		ContactDetails: row[2],
		BookedFlights:  ParseBookedFlights(booked),
	}, nil
}
