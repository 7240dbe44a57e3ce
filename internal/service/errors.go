package service

import (
	"errors"
	"fmt"
)

// Failures of Book and Cancel. They are returned wrapped, so match them
// with errors.Is.
var (
	// ErrNotFound means the flight or the passenger ID is unknown.
	ErrNotFound = errors.New("flight or passenger not found")

	// ErrUnavailable means the flight has no seats left.
	ErrUnavailable = errors.New("no seats available")

	// ErrDuplicateBooking means the passenger is already booked on the flight.
	ErrDuplicateBooking = errors.New("duplicate booking")

	// ErrNoBookingFound means a cancel was requested for a flight the
	// passenger is not booked on.
	ErrNoBookingFound = errors.New("booking not found")

	// ErrPersist means the change could not be written to storage and was
	// rolled back in memory.
	ErrPersist = errors.New("failed to save changes")
)

// BookMessage renders the outcome of a booking for the user. No seats and
// duplicate booking share one message.
func BookMessage(flightID, passengerID string, err error) string {
	switch {
	case err == nil:
		return fmt.Sprintf("Flight %s booked successfully for passenger %s.", flightID, passengerID)
	case errors.Is(err, ErrNotFound):
		return "Booking failed: Flight or passenger not found."
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrDuplicateBooking):
		return "Booking failed: No seats available or duplicate booking."
	default:
		return "Booking failed: could not save changes."
	}
}

// CancelMessage renders the outcome of a cancellation for the user.
func CancelMessage(flightID, passengerID string, err error) string {
	switch {
	case err == nil:
		return fmt.Sprintf("Booking for flight %s canceled for passenger %s.", flightID, passengerID)
	case errors.Is(err, ErrNotFound):
		return "Cancellation failed: Flight or passenger not found."
	case errors.Is(err, ErrNoBookingFound):
		return "Cancellation failed: Booking not found."
	default:
		return "Cancellation failed: could not save changes."
	}
}
