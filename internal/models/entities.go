package models

import (
	"time"

	"tourism/internal/money"
)

// Booking statuses
const (
	BookingStatusPending   = "Pending"
	BookingStatusBooked    = "Booked"
	BookingStatusCancelled = "Cancelled"
)

// Payment statuses
const (
	PaymentStatusSuccess  = "Success"
	PaymentStatusFailed   = "Failed"
	PaymentStatusRefunded = "Refunded"
)

// RefundPercent is the share of the paid amount returned on cancellation (15% fee).
const RefundPercent = 85

// Package represents a purchasable travel offering with a seat inventory
type Package struct {
	ID             int64        `json:"id" db:"id"`
	Name           string       `json:"name" db:"name"`
	Description    string       `json:"description" db:"description"`
	Location       string       `json:"location" db:"location"`
	Price          money.Amount `json:"price" db:"price"`
	TotalSeats     int          `json:"total_seats" db:"total_seats"`
	AvailableSeats int          `json:"available_seats" db:"available_seats"`
	StartDate      time.Time    `json:"start_date" db:"start_date"`
	EndDate        time.Time    `json:"end_date" db:"end_date"`
	ImageURL       *string      `json:"image_url,omitempty" db:"image_url"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
}

// DurationDays returns the length of the trip in days
func (p *Package) DurationDays() int {
	return int(p.EndDate.Sub(p.StartDate).Hours() / 24)
}

// Booking represents a customer's reservation of seats against one package
type Booking struct {
	ID           int64     `json:"id" db:"id"`
	PackageID    int64     `json:"package_id" db:"package_id"`
	SeatCount    int       `json:"seat_count" db:"seat_count"`
	Status       string    `json:"status" db:"status"`
	CustomerName string    `json:"customer_name" db:"customer_name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone" db:"phone"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Payment represents the monetary record tied to a booking
type Payment struct {
	ID           int64         `json:"id" db:"id"`
	BookingID    int64         `json:"booking_id" db:"booking_id"`
	Amount       money.Amount  `json:"amount" db:"amount"`
	Status       string        `json:"status" db:"status"`
	RefundAmount *money.Amount `json:"refund_amount,omitempty" db:"refund_amount"`
	Reference    string        `json:"reference" db:"reference"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	RefundedAt   *time.Time    `json:"refunded_at,omitempty" db:"refunded_at"`
}
