package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flightbook/internal/config"
	"flightbook/internal/models"
	"flightbook/internal/service"
	"flightbook/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *service.BookingService {
	t.Helper()
	dir := t.TempDir()
	st := storage.NewCSVStorage(
		filepath.Join(dir, "flights.csv"),
		filepath.Join(dir, "passengers.csv"),
		filepath.Join(dir, "bookings.csv"),
		filepath.Join(dir, "updateLog.csv"),
	)
	require.NoError(t, os.WriteFile(st.FlightsPath, []byte(
		"Flight ID,Departure,Arrival,Date,Time,Seats Available\n"+
			"F1,London,Paris,2024-06-01,10:00,1\n"+
			"F2,Oslo,Rome,2024-06-02,11:30,0\n"), 0o644))
	require.NoError(t, os.WriteFile(st.PassengersPath, []byte(
		"Passenger ID,Name,Contact Details,Booked Flights\n"+
			"P1,Ann,ann@example.com,\n"+
			"P2,Bob,bob@example.com,\n"), 0o644))

	logger := zerolog.Nop()
	svc := service.NewBookingService(st, nil, &logger)
	require.NoError(t, svc.Load(context.Background()))
	return svc
}

func newTestHTTPServer(t *testing.T, cfg config.APIConfig) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()
	server := NewHTTPServer(&cfg, newTestService(t), &logger)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, method, url, body string, headers map[string]string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func TestHealthz(t *testing.T) {
	ts := newTestHTTPServer(t, config.APIConfig{Auth: config.APIAuthConfig{Enabled: true}})

	status, body := doRequest(t, http.MethodGet, ts.URL+"/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)
}

func TestFlightsEndpoints(t *testing.T) {
	ts := newTestHTTPServer(t, config.APIConfig{})

	status, body := doRequest(t, http.MethodGet, ts.URL+"/api/v1/flights?q=paris", "", nil)
	require.Equal(t, http.StatusOK, status)

	var resp struct {
		Flights []models.Flight `json:"flights"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	require.Len(t, resp.Flights, 1)
	assert.Equal(t, "F1", resp.Flights[0].ID)

	status, body = doRequest(t, http.MethodGet, ts.URL+"/api/v1/schedule", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Len(t, resp.Flights, 2)

	status, body = doRequest(t, http.MethodGet, ts.URL+"/api/v1/flights?q=tokyo", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"flights":[]}`, body)

	status, _ = doRequest(t, http.MethodPost, ts.URL+"/api/v1/schedule", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestSearchQueryNotTrimmed(t *testing.T) {
	ts := newTestHTTPServer(t, config.APIConfig{})

	status, body := doRequest(t, http.MethodGet, ts.URL+"/api/v1/flights?q=%20", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"flights":[]}`, body)

	status, body = doRequest(t, http.MethodGet, ts.URL+"/api/v1/passengers?q=%20ann", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"passengers":[]}`, body)
}

func TestPassengersEndpoint(t *testing.T) {
	ts := newTestHTTPServer(t, config.APIConfig{})

	status, body := doRequest(t, http.MethodGet, ts.URL+"/api/v1/passengers?q=BOB", "", nil)
	require.Equal(t, http.StatusOK, status)

	var resp struct {
		Passengers []models.Passenger `json:"passengers"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	require.Len(t, resp.Passengers, 1)
	assert.Equal(t, "P2", resp.Passengers[0].ID)
}

func TestBookAndCancel(t *testing.T) {
	ts := newTestHTTPServer(t, config.APIConfig{})
	bookURL := ts.URL + "/api/v1/bookings"
	cancelURL := ts.URL + "/api/v1/cancellations"

	tests := []struct {
		name       string
		url        string
		body       string
		wantStatus int
		wantText   string
	}{
		{"book", bookURL, `{"flight_id":"F1","passenger_id":"P1"}`, http.StatusCreated, "Flight F1 booked successfully for passenger P1."},
		{"duplicate", bookURL, `{"flight_id":"F1","passenger_id":"P1"}`, http.StatusConflict, "Booking failed: No seats available or duplicate booking."},
		{"no seats", bookURL, `{"flight_id":"F2","passenger_id":"P2"}`, http.StatusConflict, "Booking failed: No seats available or duplicate booking."},
		{"unknown flight", bookURL, `{"flight_id":"F9","passenger_id":"P1"}`, http.StatusNotFound, "Booking failed: Flight or passenger not found."},
		{"missing field", bookURL, `{"flight_id":"F1"}`, http.StatusBadRequest, "flight_id and passenger_id are required"},
		{"blank field", bookURL, `{"flight_id":" ","passenger_id":"P1"}`, http.StatusBadRequest, "flight_id and passenger_id are required"},
		{"bad json", bookURL, `{`, http.StatusBadRequest, "invalid JSON body"},
		{"unknown field", bookURL, `{"flight_id":"F1","passenger_id":"P1","seat":"1A"}`, http.StatusBadRequest, "invalid JSON body"},
		{"cancel no booking", cancelURL, `{"flight_id":"F1","passenger_id":"P2"}`, http.StatusNotFound, "Cancellation failed: Booking not found."},
		{"cancel", cancelURL, `{"flight_id":"F1","passenger_id":"P1"}`, http.StatusOK, "Booking for flight F1 canceled for passenger P1."},
		{"cancel unknown passenger", cancelURL, `{"flight_id":"F1","passenger_id":"P9"}`, http.StatusNotFound, "Cancellation failed: Flight or passenger not found."},
	}

	// cases share one server and run in order
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doRequest(t, http.MethodPost, tt.url, tt.body, nil)
			assert.Equal(t, tt.wantStatus, status)
			assert.Contains(t, body, tt.wantText)
		})
	}
}

func TestBookResponseCarriesRecord(t *testing.T) {
	ts := newTestHTTPServer(t, config.APIConfig{})

	status, body := doRequest(t, http.MethodPost, ts.URL+"/api/v1/bookings", `{"flight_id":"F1","passenger_id":"P2"}`, nil)
	require.Equal(t, http.StatusCreated, status)

	var resp transactionResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, models.BookingRecord{Type: models.TransactionBook, FlightID: "F1", PassengerID: "P2", Date: "2024-06-01"}, resp.Booking)
}

func TestBook_SurvivesClientCancel(t *testing.T) {
	svc := newTestService(t)
	logger := zerolog.Nop()
	server := NewHTTPServer(&config.APIConfig{}, svc, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{"flight_id":"F1","passenger_id":"P1"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	p1, ok := svc.Passenger("P1")
	require.True(t, ok)
	assert.Equal(t, []string{"F1"}, p1.BookedFlights)
	assert.Len(t, svc.Transactions(), 1)

	ctx, cancel = context.WithCancel(context.Background())
	cancel()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/cancellations", strings.NewReader(`{"flight_id":"F1","passenger_id":"P1"}`)).WithContext(ctx)
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, svc.Transactions(), 2)
}

func TestAuth(t *testing.T) {
	cfg := config.APIConfig{
		Auth: config.APIAuthConfig{
			Enabled: true,
			APIKeys: []config.APIClientKey{
				{Key: "reader", Name: "kiosk", Permissions: []string{"read:flights"}},
				{Key: "admin", Name: "ops"},
			},
		},
	}
	ts := newTestHTTPServer(t, cfg)

	status, _ := doRequest(t, http.MethodGet, ts.URL+"/api/v1/schedule", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(t, http.MethodGet, ts.URL+"/api/v1/schedule", "", map[string]string{"x-api-key": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(t, http.MethodGet, ts.URL+"/api/v1/schedule", "", map[string]string{"x-api-key": "reader"})
	assert.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, http.MethodGet, ts.URL+"/api/v1/passengers", "", map[string]string{"x-api-key": "reader"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doRequest(t, http.MethodPost, ts.URL+"/api/v1/bookings", `{"flight_id":"F1","passenger_id":"P1"}`, map[string]string{"x-api-key": "reader"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doRequest(t, http.MethodPost, ts.URL+"/api/v1/bookings", `{"flight_id":"F1","passenger_id":"P1"}`, map[string]string{"x-api-key": "admin"})
	assert.Equal(t, http.StatusCreated, status)
}

func TestRateLimit(t *testing.T) {
	ts := newTestHTTPServer(t, config.APIConfig{
		Auth: config.APIAuthConfig{
			Enabled: true,
			APIKeys: []config.APIClientKey{{Key: "client-a"}, {Key: "client-b"}},
		},
		RateLimit: config.APIRateLimitConfig{RPS: 0.001, Burst: 2},
	})

	headers := map[string]string{"x-api-key": "client-a"}
	for i := 0; i < 2; i++ {
		status, _ := doRequest(t, http.MethodGet, ts.URL+"/api/v1/schedule", "", headers)
		require.Equal(t, http.StatusOK, status)
	}
	status, _ := doRequest(t, http.MethodGet, ts.URL+"/api/v1/schedule", "", headers)
	assert.Equal(t, http.StatusTooManyRequests, status)

	// limits are per client
	status, _ = doRequest(t, http.MethodGet, ts.URL+"/api/v1/schedule", "", map[string]string{"x-api-key": "client-b"})
	assert.Equal(t, http.StatusOK, status)
}

func TestRateLimit_AuthDisabledIgnoresKeyHeader(t *testing.T) {
	ts := newTestHTTPServer(t, config.APIConfig{RateLimit: config.APIRateLimitConfig{RPS: 0.001, Burst: 2}})

	codes := make([]int, 0, 3)
	for _, key := range []string{"k1", "k2", "k3"} {
		status, _ := doRequest(t, http.MethodGet, ts.URL+"/api/v1/schedule", "", map[string]string{"x-api-key": key})
		codes = append(codes, status)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
