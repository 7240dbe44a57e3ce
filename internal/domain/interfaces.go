package domain

import (
	"context"

	"flightbook/internal/models"
)

// Storage persists the three booking tables and the audit log.
// Load* return an error wrapping fs.ErrNotExist when the table is absent.
type Storage interface {
	LoadFlights(ctx context.Context) ([]models.Flight, error)
	LoadPassengers(ctx context.Context) ([]models.Passenger, error)
	LoadBookings(ctx context.Context) ([]models.BookingRecord, error)
	SaveFlights(ctx context.Context, flights []models.Flight) error
	SavePassengers(ctx context.Context, passengers []models.Passenger) error
	SaveBookings(ctx context.Context, records []models.BookingRecord) error
	AppendAudit(ctx context.Context, entry models.AuditEntry) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// BookingStore is what presentation layers need from the booking service.
type BookingStore interface {
	SearchFlights(query string) []models.Flight
	ViewSchedule() []models.Flight
	SearchPassengers(query string) []models.Passenger
	BookFlight(ctx context.Context, flightID, passengerID string) string
	CancelBooking(ctx context.Context, flightID, passengerID string) string
	Book(ctx context.Context, flightID, passengerID string) (models.BookingRecord, error)
	Cancel(ctx context.Context, flightID, passengerID string) (models.BookingRecord, error)
}
