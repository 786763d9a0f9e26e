package repository

import (
	"context"
	"errors"

	"tourism/internal/models"
	"tourism/internal/money"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientSeats = errors.New("insufficient seats")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyRefunded   = errors.New("payment already refunded")
	ErrPackageInUse      = errors.New("package has bookings")
)

// PackageRepository is the inventory store. Seat counts change only
// through ReserveSeats and ReleaseSeats.
type PackageRepository interface {
	Create(ctx context.Context, pkg *models.Package) error
	GetByID(ctx context.Context, id int64) (*models.Package, error)
	Update(ctx context.Context, pkg *models.Package) error
	List(ctx context.Context, filter models.PackageFilter) ([]models.Package, error)
	Delete(ctx context.Context, id int64) error

	// ReserveSeats atomically decrements availability when at least n seats
	// remain. On ErrInsufficientSeats the returned count is the current
	// availability.
	ReserveSeats(ctx context.Context, id int64, n int) (int, error)
	// ReleaseSeats increments availability and returns the new count.
	ReleaseSeats(ctx context.Context, id int64, n int) (int, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	// SetStatus moves a booking from one status to another and fails with
	// ErrInvalidTransition when the stored status is not from.
	SetStatus(ctx context.Context, id int64, from, to string) error
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	CountByPackage(ctx context.Context, packageID int64) (int, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id int64) (*models.Payment, error)
	GetByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error)
	// Refund records a refund once; a second call returns ErrAlreadyRefunded.
	Refund(ctx context.Context, id int64, amount money.Amount) (*models.Payment, error)
}

// Tx groups the repositories bound to one unit of work.
type Tx interface {
	Packages() PackageRepository
	Bookings() BookingRepository
	Payments() PaymentRepository
}

// Store is a Tx outside any transaction plus the ability to open one.
// When fn returns an error every write made through its Tx is discarded.
type Store interface {
	Tx
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
