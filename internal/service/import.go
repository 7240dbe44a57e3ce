package service

import (
	"context"
	"errors"
	"fmt"

	"flightbook/internal/models"
)

// ImportFlights upserts flights by ID and saves the flights table once.
// Existing flights keep their position; new ones are appended.
func (s *BookingService) ImportFlights(ctx context.Context, flights []models.Flight) (created, updated int, err error) {
	for _, f := range flights {
		if f.ID == "" {
			return 0, 0, errors.New("import flights: flight without id")
		}
		if err := models.ValidateFlightID(f.ID); err != nil {
			return 0, 0, fmt.Errorf("import flights: %w", err)
		}
		if f.SeatsAvailable < 0 {
			return 0, 0, fmt.Errorf("import flights: flight %s has negative seats", f.ID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.flightRows()
	pos := make(map[string]int, len(next))
	for i, f := range next {
		pos[f.ID] = i
	}
	for _, f := range flights {
		if i, ok := pos[f.ID]; ok {
			next[i] = f
			updated++
			continue
		}
		pos[f.ID] = len(next)
		next = append(next, f)
		created++
	}

	if err := s.storage.SaveFlights(ctx, next); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.flights, s.flightIndex = indexFlights(next)

	s.logger.Info().Int("created", created).Int("updated", updated).Msg("flights imported")
	return created, updated, nil
}

// ImportPassengers upserts passengers by ID and saves the passengers table
// once. Booked flights are taken as given, duplicates dropped.
func (s *BookingService) ImportPassengers(ctx context.Context, passengers []models.Passenger) (created, updated int, err error) {
	for _, p := range passengers {
		if p.ID == "" {
			return 0, 0, errors.New("import passengers: passenger without id")
		}
		for _, id := range p.BookedFlights {
			if err := models.ValidateFlightID(id); err != nil {
				return 0, 0, fmt.Errorf("import passengers: passenger %s: %w", p.ID, err)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.passengerRows()
	pos := make(map[string]int, len(next))
	for i, p := range next {
		pos[p.ID] = i
	}
	for _, p := range passengers {
		p = p.Clone()
		p.BookedFlights = dedupe(p.BookedFlights)
		if i, ok := pos[p.ID]; ok {
			next[i] = p
			updated++
			continue
		}
		pos[p.ID] = len(next)
		next = append(next, p)
		created++
	}

	if err := s.storage.SavePassengers(ctx, next); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.passengers, s.passengerIndex = indexPassengers(next)

	s.logger.Info().Int("created", created).Int("updated", updated).Msg("passengers imported")
	return created, updated, nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
