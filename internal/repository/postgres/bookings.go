package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tourism/internal/models"
	"tourism/internal/repository"
)

const bookingColumns = `id, package_id, seat_count, status, customer_name, email, phone, created_at, updated_at`

type BookingRepository struct {
	q sqlx.ExtContext
}

// Create stores the booking as Booked with server-side timestamps.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (package_id, seat_count, status, customer_name, email, phone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	booking.Status = models.BookingStatusBooked
	err := r.q.QueryRowxContext(ctx, query,
		booking.PackageID,
		booking.SeatCount,
		booking.Status,
		booking.CustomerName,
		booking.Email,
		booking.Phone,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	if err := sqlx.GetContext(ctx, r.q, &booking, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("booking %d: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *BookingRepository) SetStatus(ctx context.Context, id int64, from, to string) error {
	query := `
		UPDATE bookings
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`

	res, err := r.q.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var current string
	err = r.q.QueryRowxContext(ctx, `SELECT status FROM bookings WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("booking %d: %w", id, repository.ErrNotFound)
		}
		return fmt.Errorf("failed to read booking status: %w", err)
	}
	return fmt.Errorf("booking %d is %s: %w", id, current, repository.ErrInvalidTransition)
}

func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	var w whereClause
	if filter.Email != "" {
		w.add("LOWER(email) = LOWER($%d)", filter.Email)
	}
	if filter.PackageID != 0 {
		w.add("package_id = $%d", filter.PackageID)
	}
	if filter.Status != "" {
		w.add("status = $%d", filter.Status)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings` + w.String() + ` ORDER BY created_at DESC, id DESC`

	bookings := []models.Booking{}
	if err := sqlx.SelectContext(ctx, r.q, &bookings, query, w.args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (r *BookingRepository) CountByPackage(ctx context.Context, packageID int64) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, r.q, &count, `SELECT COUNT(*) FROM bookings WHERE package_id = $1`, packageID)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}
