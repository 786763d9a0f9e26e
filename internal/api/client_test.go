package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tourism/internal/models"
)

// TestClient drives a running API server over HTTP
type TestClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewTestClient starts a memory-backed server and returns a client for it
func NewTestClient(t *testing.T) *TestClient {
	t.Helper()

	server, err := NewServer(memoryConfig(t))
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	ts := httptest.NewServer(server.GetRouter())
	t.Cleanup(func() {
		ts.Close()
		server.Cleanup()
	})

	return &TestClient{
		BaseURL:    ts.URL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// makeRequest makes an HTTP request and returns the response
func (c *TestClient) makeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	return resp
}

// expect decodes the response into out after checking the status code
func (c *TestClient) expect(t *testing.T, resp *http.Response, status int, out interface{}) {
	t.Helper()
	defer resp.Body.Close()

	if resp.StatusCode != status {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status %d, got %d. Body: %s", status, resp.StatusCode, string(body))
	}
	if out == nil {
		return
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

// CreatePackage creates a package with the given capacity and unit price
func (c *TestClient) CreatePackage(t *testing.T, seats int, price string) int64 {
	t.Helper()

	req := map[string]interface{}{
		"name":       "Kolsai Lakes Trek",
		"location":   "Almaty",
		"price":      price,
		"seats":      seats,
		"start_date": "2026-07-01",
		"end_date":   "2026-07-05",
	}

	var created models.CreatePackageResponse
	c.expect(t, c.makeRequest(t, http.MethodPost, "/api/packages", req), http.StatusCreated, &created)
	return created.ID
}

// GetPackage returns a package by id
func (c *TestClient) GetPackage(t *testing.T, id int64) models.Package {
	t.Helper()

	var pkg models.Package
	c.expect(t, c.makeRequest(t, http.MethodGet, fmt.Sprintf("/api/packages/%d", id), nil), http.StatusOK, &pkg)
	return pkg
}

// CreateBooking books seats and expects the given status
func (c *TestClient) CreateBooking(t *testing.T, packageID int64, seats int, status int) *models.CreateBookingResponse {
	t.Helper()

	req := models.CreateBookingRequest{
		PackageID:    packageID,
		SeatCount:    seats,
		CustomerName: "Yerlan Sadykov",
		Email:        "yerlan@example.com",
		Phone:        "+77017654321",
	}

	if status != http.StatusCreated {
		c.expect(t, c.makeRequest(t, http.MethodPost, "/api/bookings", req), status, nil)
		return nil
	}

	var booking models.CreateBookingResponse
	c.expect(t, c.makeRequest(t, http.MethodPost, "/api/bookings", req), status, &booking)
	return &booking
}

// CancelBooking cancels a booking and expects the given status
func (c *TestClient) CancelBooking(t *testing.T, bookingID int64, status int) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	req := models.CancelBookingRequest{BookingID: bookingID}
	c.expect(t, c.makeRequest(t, http.MethodPatch, "/api/bookings/cancel", req), status, &out)
	return out
}

// PaymentForBooking returns the payment made for a booking
func (c *TestClient) PaymentForBooking(t *testing.T, bookingID int64) models.Payment {
	t.Helper()

	var payment models.Payment
	path := fmt.Sprintf("/api/payments?booking_id=%d", bookingID)
	c.expect(t, c.makeRequest(t, http.MethodGet, path, nil), http.StatusOK, &payment)
	return payment
}

// ListBookings lists the booking history of the test customer
func (c *TestClient) ListBookings(t *testing.T) models.ListBookingsResponse {
	t.Helper()

	var bookings models.ListBookingsResponse
	c.expect(t, c.makeRequest(t, http.MethodGet, "/api/bookings?email=yerlan@example.com", nil), http.StatusOK, &bookings)
	return bookings
}

// LogTestStep logs a test step
func LogTestStep(t *testing.T, step string, args ...interface{}) {
	t.Logf("🔹 "+step, args...)
}

// LogTestResult logs a test result
func LogTestResult(t *testing.T, result string, args ...interface{}) {
	t.Logf("✅ "+result, args...)
}
