package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"flightbook/internal/config"
	"flightbook/internal/domain"
	"flightbook/internal/metrics"
	"flightbook/internal/models"
	"flightbook/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// HTTPServer exposes the booking store over a small JSON API.
type HTTPServer struct {
	cfg      *config.APIConfig
	store    domain.BookingStore
	server   *http.Server
	auth     *HTTPAuth
	validate *validator.Validate
	logger   *zerolog.Logger
}

// transactionRequest is the body of bookings and cancellations.
type transactionRequest struct {
	FlightID    string `json:"flight_id" validate:"required"`
	PassengerID string `json:"passenger_id" validate:"required"`
}

type transactionResponse struct {
	Message string               `json:"message"`
	Booking models.BookingRecord `json:"booking"`
}

func NewHTTPServer(cfg *config.APIConfig, store domain.BookingStore, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		store:    store,
		auth:     NewHTTPAuth(cfg),
		validate: validator.New(),
		logger:   logger,
	}

	api := http.NewServeMux()
	api.HandleFunc("/api/v1/flights", srv.handleFlights)
	api.HandleFunc("/api/v1/schedule", srv.handleSchedule)
	api.HandleFunc("/api/v1/passengers", srv.handlePassengers)
	api.HandleFunc("/api/v1/bookings", srv.handleBook)
	api.HandleFunc("/api/v1/cancellations", srv.handleCancel)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/api/", srv.auth.Wrap(api))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.loggingMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler returns the root handler, middleware included.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleFlights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("flights")

	// q goes to the store as sent
	writeJSON(w, http.StatusOK, map[string]any{"flights": s.store.SearchFlights(r.URL.Query().Get("q"))})
}

func (s *HTTPServer) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("schedule")

	writeJSON(w, http.StatusOK, map[string]any{"flights": s.store.ViewSchedule()})
}

func (s *HTTPServer) handlePassengers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("passengers")

	writeJSON(w, http.StatusOK, map[string]any{"passengers": s.store.SearchPassengers(r.URL.Query().Get("q"))})
}

func (s *HTTPServer) handleBook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("bookings")

	req, ok := s.decodeTransaction(w, r)
	if !ok {
		return
	}

	// Клиент может отключиться между записями файлов
	record, err := s.store.Book(context.WithoutCancel(r.Context()), req.FlightID, req.PassengerID)
	message := service.BookMessage(req.FlightID, req.PassengerID, err)
	if err != nil {
		writeError(w, statusFor(err), message)
		return
	}
	writeJSON(w, http.StatusCreated, transactionResponse{Message: message, Booking: record})
}

func (s *HTTPServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("cancellations")

	req, ok := s.decodeTransaction(w, r)
	if !ok {
		return
	}

	record, err := s.store.Cancel(context.WithoutCancel(r.Context()), req.FlightID, req.PassengerID)
	message := service.CancelMessage(req.FlightID, req.PassengerID, err)
	if err != nil {
		writeError(w, statusFor(err), message)
		return
	}
	writeJSON(w, http.StatusOK, transactionResponse{Message: message, Booking: record})
}

func (s *HTTPServer) decodeTransaction(w http.ResponseWriter, r *http.Request) (transactionRequest, bool) {
	var req transactionRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}

	req.FlightID = strings.TrimSpace(req.FlightID)
	req.PassengerID = strings.TrimSpace(req.PassengerID)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "flight_id and passenger_id are required")
		return req, false
	}
	return req, true
}

// statusFor maps booking errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrNoBookingFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnavailable), errors.Is(err, service.ErrDuplicateBooking):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
