package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tourism/internal/money"
)

// FlexibleDate - дата, принимающая как "2006-01-02", так и RFC3339
type FlexibleDate struct {
	time.Time
}

// UnmarshalJSON поддерживает парсинг даты в обоих форматах
func (fd *FlexibleDate) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)
	if str == "" || str == "null" {
		return nil
	}

	if t, err := time.Parse("2006-01-02", str); err == nil {
		fd.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return fmt.Errorf("invalid date value: %s", str)
	}
	fd.Time = t
	return nil
}

// MarshalJSON отдает дату в формате "2006-01-02"
func (fd FlexibleDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(fd.Format("2006-01-02"))
}

// CreatePackageRequest - модель для создания туристического пакета
type CreatePackageRequest struct {
	Name        string       `json:"name" binding:"required,max=100"`
	Description string       `json:"description" binding:"max=500"`
	Location    string       `json:"location" binding:"required"`
	Price       money.Amount `json:"price" binding:"gte=0"`
	Seats       int          `json:"seats"`
	StartDate   FlexibleDate `json:"start_date"`
	EndDate     FlexibleDate `json:"end_date"`
	ImageURL    *string      `json:"image_url,omitempty"`
}

// UpdatePackageRequest - редактирование пакета; места меняются только бронированиями
type UpdatePackageRequest struct {
	Name        string       `json:"name" binding:"required,max=100"`
	Description string       `json:"description" binding:"max=500"`
	Location    string       `json:"location" binding:"required"`
	Price       money.Amount `json:"price" binding:"gte=0"`
	StartDate   FlexibleDate `json:"start_date"`
	EndDate     FlexibleDate `json:"end_date"`
	ImageURL    *string      `json:"image_url,omitempty"`
}

// CreatePackageResponse - модель ответа при создании пакета
type CreatePackageResponse struct {
	ID int64 `json:"id"`
}

// PackageFilter - параметры поиска пакетов
type PackageFilter struct {
	Query    string
	Location string
	MinPrice *money.Amount
	MaxPrice *money.Amount
	Page     int
	PageSize int
}

// ListPackagesResponseItem - элемент списка пакетов
type ListPackagesResponseItem struct {
	ID             int64        `json:"id"`
	Name           string       `json:"name"`
	Location       string       `json:"location"`
	Price          money.Amount `json:"price"`
	AvailableSeats int          `json:"available_seats"`
	StartDate      FlexibleDate `json:"start_date"`
	EndDate        FlexibleDate `json:"end_date"`
	DurationDays   int          `json:"duration_days"`
}

// ListPackagesResponse - список пакетов
type ListPackagesResponse []ListPackagesResponseItem

// CreateBookingRequest - модель для создания бронирования.
// Поля проверяются движком бронирования, чтобы вернуть все ошибки сразу.
type CreateBookingRequest struct {
	PackageID    int64  `json:"package_id"`
	SeatCount    int    `json:"seat_count"`
	CustomerName string `json:"customer_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
}

// CreateBookingResponse - модель ответа при создании бронирования
type CreateBookingResponse struct {
	ID             int64        `json:"id"`
	Status         string       `json:"status"`
	PaymentID      int64        `json:"payment_id"`
	Amount         money.Amount `json:"amount"`
	AvailableSeats int          `json:"available_seats"`
}

// BookingFilter - фильтр истории бронирований
type BookingFilter struct {
	Email     string
	PackageID int64
	Status    string
}

// CancelBookingRequest - модель для отмены бронирования
type CancelBookingRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
}

// CancelOutcome - результат отмены
type CancelOutcome string

const (
	CancelOutcomeCancelled        CancelOutcome = "ok"
	CancelOutcomeAlreadyCancelled CancelOutcome = "already_cancelled"
)

// CancelBookingResponse - модель ответа при отмене бронирования
type CancelBookingResponse struct {
	Status         CancelOutcome `json:"status"`
	BookingID      int64         `json:"booking_id"`
	SeatsReleased  int           `json:"seats_released,omitempty"`
	RefundAmount   *money.Amount `json:"refund_amount,omitempty"`
	AvailableSeats int           `json:"available_seats,omitempty"`
}

// BookingDetails - бронирование вместе с пакетом и платежом (страница подтверждения)
type BookingDetails struct {
	Booking
	PackageName   string        `json:"package_name"`
	Location      string        `json:"location"`
	Price         money.Amount  `json:"price"`
	PaymentStatus string        `json:"payment_status"`
	Amount        money.Amount  `json:"amount"`
	RefundAmount  *money.Amount `json:"refund_amount,omitempty"`
}

// ListBookingsResponse - история бронирований
type ListBookingsResponse []BookingDetails

// PaymentNotPaid is reported when a booking has no payment record
const PaymentNotPaid = "Not Paid"
