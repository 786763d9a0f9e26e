package models

import (
	"time"

	"tourism/internal/money"
)

// NATS Event Types
const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventPaymentRefunded  = "payment.refunded"
	EventPackageChanged   = "package.changed"
)

// BookingCreatedEvent represents a booking creation event
type BookingCreatedEvent struct {
	BookingID      int64        `json:"booking_id"`
	PackageID      int64        `json:"package_id"`
	SeatCount      int          `json:"seat_count"`
	PaymentID      int64        `json:"payment_id"`
	Amount         money.Amount `json:"amount"`
	AvailableSeats int          `json:"available_seats"`
	Timestamp      time.Time    `json:"timestamp"`
}

// BookingCancelledEvent represents a booking cancellation event
type BookingCancelledEvent struct {
	BookingID      int64         `json:"booking_id"`
	PackageID      int64         `json:"package_id"`
	SeatsReleased  int           `json:"seats_released"`
	AvailableSeats int           `json:"available_seats"`
	RefundAmount   *money.Amount `json:"refund_amount,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}

// PaymentRefundedEvent represents a processed refund
type PaymentRefundedEvent struct {
	PaymentID    int64        `json:"payment_id"`
	BookingID    int64        `json:"booking_id"`
	Amount       money.Amount `json:"amount"`
	RefundAmount money.Amount `json:"refund_amount"`
	Timestamp    time.Time    `json:"timestamp"`
}

// PackageChangedEvent is published when a package is created, edited or deleted
type PackageChangedEvent struct {
	PackageID int64     `json:"package_id"`
	Deleted   bool      `json:"deleted"`
	Timestamp time.Time `json:"timestamp"`
}
