package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourism/internal/models"
)

// TestFlow_BookCancelRebook walks a package through booking, cancellation and rebooking
func TestFlow_BookCancelRebook(t *testing.T) {
	client := NewTestClient(t)

	LogTestStep(t, "Step 1: create package with 4 seats")
	pkgID := client.CreatePackage(t, 4, "250.00")

	LogTestStep(t, "Step 2: book 3 seats")
	booking := client.CreateBooking(t, pkgID, 3, http.StatusCreated)
	assert.Equal(t, models.BookingStatusBooked, booking.Status)
	assert.Equal(t, "750.00", booking.Amount.String())
	assert.Equal(t, 1, booking.AvailableSeats)
	LogTestResult(t, "Booking %d created", booking.ID)

	LogTestStep(t, "Step 3: second booking for 2 seats is rejected")
	client.CreateBooking(t, pkgID, 2, http.StatusConflict)
	assert.Equal(t, 1, client.GetPackage(t, pkgID).AvailableSeats)

	LogTestStep(t, "Step 4: payment recorded")
	payment := client.PaymentForBooking(t, booking.ID)
	assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
	assert.Equal(t, booking.PaymentID, payment.ID)

	LogTestStep(t, "Step 5: cancel and refund 85%%")
	out := client.CancelBooking(t, booking.ID, http.StatusOK)
	assert.Equal(t, "637.50", out["refund_amount"])
	assert.Equal(t, 4, client.GetPackage(t, pkgID).AvailableSeats)

	payment = client.PaymentForBooking(t, booking.ID)
	assert.Equal(t, models.PaymentStatusRefunded, payment.Status)
	require.NotNil(t, payment.RefundAmount)
	assert.Equal(t, "637.50", payment.RefundAmount.String())

	LogTestStep(t, "Step 6: second cancel reports already cancelled")
	out = client.CancelBooking(t, booking.ID, http.StatusConflict)
	assert.Equal(t, "already_cancelled", out["status"])
	assert.Equal(t, 4, client.GetPackage(t, pkgID).AvailableSeats)

	LogTestStep(t, "Step 7: released seats can be booked again")
	client.CreateBooking(t, pkgID, 4, http.StatusCreated)
	assert.Equal(t, 0, client.GetPackage(t, pkgID).AvailableSeats)

	history := client.ListBookings(t)
	require.Len(t, history, 2)
	assert.Equal(t, models.BookingStatusBooked, history[0].Status)
	assert.Equal(t, models.BookingStatusCancelled, history[1].Status)
	assert.Equal(t, models.PaymentStatusRefunded, history[1].PaymentStatus)
	LogTestResult(t, "History lists %d bookings newest first", len(history))
}

// TestFlow_ConcurrentBookingsNeverOversell races clients for the last seats
func TestFlow_ConcurrentBookingsNeverOversell(t *testing.T) {
	client := NewTestClient(t)
	pkgID := client.CreatePackage(t, 6, "10.00")

	body, err := json.Marshal(models.CreateBookingRequest{
		PackageID:    pkgID,
		SeatCount:    1,
		CustomerName: "Concurrent Customer",
		Email:        "race@example.com",
		Phone:        "+77010000000",
	})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.HTTPClient.Post(client.BaseURL+"/api/bookings", "application/json", bytes.NewReader(body))
			if err != nil {
				return
			}
			resp.Body.Close()
			if resp.StatusCode == http.StatusCreated {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 6, created)
	assert.Equal(t, 0, client.GetPackage(t, pkgID).AvailableSeats)
}
