package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"sync"
	"time"

	"flightbook/internal/domain"
	"flightbook/internal/events"
	"flightbook/internal/metrics"
	"flightbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingService owns the in-memory flights, passengers and bookings log.
// Every successful mutation rewrites the three tables and appends to the
// audit log.
type BookingService struct {
	storage  domain.Storage
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
	newID    func() string

	mu             sync.Mutex
	flights        []*models.Flight
	flightIndex    map[string]*models.Flight
	passengers     []*models.Passenger
	passengerIndex map[string]*models.Passenger
	bookings       []models.BookingRecord
}

func NewBookingService(storage domain.Storage, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		storage:        storage,
		eventBus:       eventBus,
		logger:         logger,
		now:            time.Now,
		newID:          uuid.NewString,
		flightIndex:    make(map[string]*models.Flight),
		passengerIndex: make(map[string]*models.Passenger),
	}
}

// Load replaces the in-memory state with the stored tables. A missing
// table starts empty; any other read error is returned.
func (s *BookingService) Load(ctx context.Context) error {
	flights, err := s.storage.LoadFlights(ctx)
	if err != nil && !s.tolerateMissing(err, "flights") {
		return err
	}
	passengers, err := s.storage.LoadPassengers(ctx)
	if err != nil && !s.tolerateMissing(err, "passengers") {
		return err
	}
	bookings, err := s.storage.LoadBookings(ctx)
	if err != nil && !s.tolerateMissing(err, "bookings") {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.flights, s.flightIndex = indexFlights(flights)
	s.passengers, s.passengerIndex = indexPassengers(passengers)
	s.bookings = bookings

	s.logger.Info().
		Int("flights", len(s.flights)).
		Int("passengers", len(s.passengers)).
		Int("bookings", len(s.bookings)).
		Msg("booking data loaded")
	return nil
}

func (s *BookingService) tolerateMissing(err error, table string) bool {
	if !errors.Is(err, fs.ErrNotExist) {
		return false
	}
	s.logger.Warn().Str("table", table).Msg("data file not found, starting fresh")
	return true
}

// A repeated ID overwrites the earlier record in place.
func indexFlights(list []models.Flight) ([]*models.Flight, map[string]*models.Flight) {
	ordered := make([]*models.Flight, 0, len(list))
	index := make(map[string]*models.Flight, len(list))
	for _, f := range list {
		if existing, ok := index[f.ID]; ok {
			*existing = f
			continue
		}
		flight := f
		ordered = append(ordered, &flight)
		index[f.ID] = &flight
	}
	return ordered, index
}

func indexPassengers(list []models.Passenger) ([]*models.Passenger, map[string]*models.Passenger) {
	ordered := make([]*models.Passenger, 0, len(list))
	index := make(map[string]*models.Passenger, len(list))
	for _, p := range list {
		passenger := p.Clone()
		if existing, ok := index[p.ID]; ok {
			*existing = passenger
			continue
		}
		ordered = append(ordered, &passenger)
		index[p.ID] = &passenger
	}
	return ordered, index
}

// SearchFlights returns flights whose ID, departure and arrival, joined,
// contain query ignoring case. An empty query matches every flight.
func (s *BookingService) SearchFlights(query string) []models.Flight {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(query)
	result := []models.Flight{}
	for _, f := range s.flights {
		if strings.Contains(f.SearchKey(), q) {
			result = append(result, *f)
		}
	}
	return result
}

// ViewSchedule returns every flight in file order.
func (s *BookingService) ViewSchedule() []models.Flight {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flightRows()
}

// SearchPassengers matches query against ID, name and contact details.
func (s *BookingService) SearchPassengers(query string) []models.Passenger {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(query)
	result := []models.Passenger{}
	for _, p := range s.passengers {
		if strings.Contains(p.SearchKey(), q) {
			result = append(result, p.Clone())
		}
	}
	return result
}

// Flight returns a copy of the flight with the given ID.
func (s *BookingService) Flight(id string) (models.Flight, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flightIndex[id]
	if !ok {
		return models.Flight{}, false
	}
	return *f, true
}

// Passenger returns a copy of the passenger with the given ID.
func (s *BookingService) Passenger(id string) (models.Passenger, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.passengerIndex[id]
	if !ok {
		return models.Passenger{}, false
	}
	return p.Clone(), true
}

// Transactions returns a copy of the bookings log.
func (s *BookingService) Transactions() []models.BookingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.bookings)
}

// Book reserves a seat on flightID for passengerID.
func (s *BookingService) Book(ctx context.Context, flightID, passengerID string) (models.BookingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flight, passenger, err := s.lookup(flightID, passengerID)
	if err != nil {
		metrics.IncTransaction(metrics.OperationBook, metrics.ResultNotFound)
		return models.BookingRecord{}, err
	}
	if flight.SeatsAvailable <= 0 {
		metrics.IncTransaction(metrics.OperationBook, metrics.ResultRejected)
		return models.BookingRecord{}, fmt.Errorf("flight %s: %w", flightID, ErrUnavailable)
	}
	if passenger.HasFlight(flightID) {
		metrics.IncTransaction(metrics.OperationBook, metrics.ResultRejected)
		return models.BookingRecord{}, fmt.Errorf("passenger %s on flight %s: %w", passengerID, flightID, ErrDuplicateBooking)
	}

	record := models.BookingRecord{
		Type:        models.TransactionBook,
		FlightID:    flightID,
		PassengerID: passengerID,
		Date:        flight.Date,
	}
	prevBooked := slices.Clone(passenger.BookedFlights)

	flight.SeatsAvailable--
	passenger.AddFlight(flightID)
	s.bookings = append(s.bookings, record)

	if err := s.persist(ctx); err != nil {
		// Откатываем изменения в памяти
		flight.SeatsAvailable++
		passenger.BookedFlights = prevBooked
		s.bookings = s.bookings[:len(s.bookings)-1]
		metrics.IncTransaction(metrics.OperationBook, metrics.ResultPersist)
		s.logger.Error().Err(err).Str("flight_id", flightID).Str("passenger_id", passengerID).Msg("booking rolled back")
		return models.BookingRecord{}, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s.appendAudit(ctx, record)
	s.publishEvent(events.EventFlightBooked, record, flight.SeatsAvailable)
	metrics.IncTransaction(metrics.OperationBook, metrics.ResultSuccess)

	s.logger.Info().
		Str("flight_id", flightID).
		Str("passenger_id", passengerID).
		Int("seats_available", flight.SeatsAvailable).
		Msg("flight booked")
	return record, nil
}

// Cancel releases passengerID's seat on flightID.
func (s *BookingService) Cancel(ctx context.Context, flightID, passengerID string) (models.BookingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flight, passenger, err := s.lookup(flightID, passengerID)
	if err != nil {
		metrics.IncTransaction(metrics.OperationCancel, metrics.ResultNotFound)
		return models.BookingRecord{}, err
	}
	if !passenger.HasFlight(flightID) {
		metrics.IncTransaction(metrics.OperationCancel, metrics.ResultNoBooking)
		return models.BookingRecord{}, fmt.Errorf("passenger %s on flight %s: %w", passengerID, flightID, ErrNoBookingFound)
	}

	record := models.BookingRecord{
		Type:        models.TransactionCancel,
		FlightID:    flightID,
		PassengerID: passengerID,
		Date:        flight.Date,
	}
	prevBooked := slices.Clone(passenger.BookedFlights)

	flight.SeatsAvailable++
	passenger.RemoveFlight(flightID)
	s.bookings = append(s.bookings, record)

	if err := s.persist(ctx); err != nil {
		flight.SeatsAvailable--
		passenger.BookedFlights = prevBooked
		s.bookings = s.bookings[:len(s.bookings)-1]
		metrics.IncTransaction(metrics.OperationCancel, metrics.ResultPersist)
		s.logger.Error().Err(err).Str("flight_id", flightID).Str("passenger_id", passengerID).Msg("cancellation rolled back")
		return models.BookingRecord{}, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s.appendAudit(ctx, record)
	s.publishEvent(events.EventBookingCanceled, record, flight.SeatsAvailable)
	metrics.IncTransaction(metrics.OperationCancel, metrics.ResultSuccess)

	s.logger.Info().
		Str("flight_id", flightID).
		Str("passenger_id", passengerID).
		Int("seats_available", flight.SeatsAvailable).
		Msg("booking canceled")
	return record, nil
}

// BookFlight is Book with the outcome rendered as a user message.
func (s *BookingService) BookFlight(ctx context.Context, flightID, passengerID string) string {
	_, err := s.Book(ctx, flightID, passengerID)
	return BookMessage(flightID, passengerID, err)
}

// CancelBooking is Cancel with the outcome rendered as a user message.
func (s *BookingService) CancelBooking(ctx context.Context, flightID, passengerID string) string {
	_, err := s.Cancel(ctx, flightID, passengerID)
	return CancelMessage(flightID, passengerID, err)
}

func (s *BookingService) lookup(flightID, passengerID string) (*models.Flight, *models.Passenger, error) {
	flight, okFlight := s.flightIndex[flightID]
	passenger, okPassenger := s.passengerIndex[passengerID]
	if !okFlight || !okPassenger {
		return nil, nil, fmt.Errorf("flight %q, passenger %q: %w", flightID, passengerID, ErrNotFound)
	}
	return flight, passenger, nil
}

// persist rewrites flights, bookings and passengers, in that order.
func (s *BookingService) persist(ctx context.Context) error {
	if err := s.storage.SaveFlights(ctx, s.flightRows()); err != nil {
		return err
	}
	if err := s.storage.SaveBookings(ctx, slices.Clone(s.bookings)); err != nil {
		return err
	}
	return s.storage.SavePassengers(ctx, s.passengerRows())
}

func (s *BookingService) flightRows() []models.Flight {
	rows := make([]models.Flight, 0, len(s.flights))
	for _, f := range s.flights {
		rows = append(rows, *f)
	}
	return rows
}

func (s *BookingService) passengerRows() []models.Passenger {
	rows := make([]models.Passenger, 0, len(s.passengers))
	for _, p := range s.passengers {
		rows = append(rows, p.Clone())
	}
	return rows
}

func (s *BookingService) appendAudit(ctx context.Context, record models.BookingRecord) {
	entry := models.AuditEntry{
		Type:        record.Type,
		FlightID:    record.FlightID,
		PassengerID: record.PassengerID,
		Timestamp:   s.now(),
	}
	if err := s.storage.AppendAudit(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("type", string(record.Type)).Str("flight_id", record.FlightID).Msg("audit append error")
	}
}

func (s *BookingService) publishEvent(eventType string, record models.BookingRecord, seats int) {
	if s.eventBus == nil {
		return
	}

	payload := events.TransactionEventPayload{
		EventID:        s.newID(),
		Type:           string(record.Type),
		FlightID:       record.FlightID,
		PassengerID:    record.PassengerID,
		FlightDate:     record.Date,
		SeatsAvailable: seats,
		OccurredAt:     s.now(),
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("flight_id", record.FlightID).Msg("publish event error")
	}
}
