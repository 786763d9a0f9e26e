package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tourism/internal/models"
	"tourism/internal/money"
	"tourism/internal/repository"
)

const paymentColumns = `id, booking_id, amount, status, refund_amount, reference, created_at, refunded_at`

type PaymentRepository struct {
	q sqlx.ExtContext
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (booking_id, amount, status, reference)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	if payment.Status == "" {
		payment.Status = models.PaymentStatusSuccess
	}
	err := r.q.QueryRowxContext(ctx, query,
		payment.BookingID,
		payment.Amount,
		payment.Status,
		payment.Reference,
	).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id, "payment")
}

func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1`, bookingID, "payment for booking")
}

func (r *PaymentRepository) getOne(ctx context.Context, query string, id int64, what string) (*models.Payment, error) {
	var payment models.Payment
	if err := sqlx.GetContext(ctx, r.q, &payment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %d: %w", what, id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

func (r *PaymentRepository) Refund(ctx context.Context, id int64, amount money.Amount) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = $3, refund_amount = $2, refunded_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING ` + paymentColumns

	var payment models.Payment
	err := sqlx.GetContext(ctx, r.q, &payment, query,
		id, amount, models.PaymentStatusRefunded, models.PaymentStatusSuccess)
	if err == nil {
		return &payment, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to refund payment: %w", err)
	}

	var current string
	err = r.q.QueryRowxContext(ctx, `SELECT status FROM payments WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment %d: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read payment status: %w", err)
	}
	if current == models.PaymentStatusRefunded {
		return nil, fmt.Errorf("payment %d: %w", id, repository.ErrAlreadyRefunded)
	}
	return nil, fmt.Errorf("payment %d is %s: %w", id, current, repository.ErrInvalidTransition)
}
