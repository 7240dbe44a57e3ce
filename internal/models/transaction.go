package models

import (
	"fmt"
	"time"
)

// TransactionType is the kind of a booking log entry.
type TransactionType string

const (
	TransactionBook   TransactionType = "BOOK"
	TransactionCancel TransactionType = "CANCEL"
)

// BookingColumns is the header row of the bookings log.
var BookingColumns = []string{"Transaction Type", "Flight ID", "Passenger ID", "Date"}

// AuditColumns is the header row of the audit log.
var AuditColumns = []string{"Transaction Type", "Flight ID", "Passenger ID", "Timestamp"}

// AuditTimestampFormat is the layout of AuditEntry timestamps on disk.
const AuditTimestampFormat = "2006-01-02 15:04:05"

// BookingRecord is one entry of the bookings log. Date is the flight's date
// at the time of the transaction.
type BookingRecord struct {
	Type        TransactionType `json:"type"`
	FlightID    string          `json:"flight_id"`
	PassengerID string          `json:"passenger_id"`
	Date        string          `json:"date"`
}

func (r BookingRecord) Row() []string {
	return []string{string(r.Type), r.FlightID, r.PassengerID, r.Date}
}

func ParseBookingRow(row []string) (BookingRecord, error) {
	if len(row) < len(BookingColumns) {
		return BookingRecord{}, fmt.Errorf("booking row has %d fields, want %d", len(row), len(BookingColumns))
	}
	return BookingRecord{
		Type:        TransactionType(row[0]),
		FlightID:    row[1],
		PassengerID: row[2],
		Date:        row[3],
	}, nil
}

// AuditEntry is one line of the append-only audit log.
type AuditEntry struct {
	Type        TransactionType
	FlightID    string
	PassengerID string
	Timestamp   time.Time
}

func (e AuditEntry) Row() []string {
	return []string{string(e.Type), e.FlightID, e.PassengerID, e.Timestamp.Format(AuditTimestampFormat)}
}
