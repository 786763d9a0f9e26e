package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourism/internal/cache"
	apperrors "tourism/internal/errors"
	"tourism/internal/external"
	"tourism/internal/logger"
	"tourism/internal/messaging"
	"tourism/internal/metrics"
	"tourism/internal/models"
	"tourism/internal/repository"
	"tourism/internal/validation"
)

// BookingService is the booking engine: it creates and cancels bookings,
// keeping package inventory, the booking ledger and the payment ledger
// consistent within one unit of work.
type BookingService struct {
	store     repository.Store
	processor external.PaymentProcessor
	publisher messaging.Publisher
	cache     cache.PackageCache
}

func NewBookingService(store repository.Store, processor external.PaymentProcessor, publisher messaging.Publisher, packageCache cache.PackageCache) *BookingService {
	return &BookingService{
		store:     store,
		processor: processor,
		publisher: publisher,
		cache:     packageCache,
	}
}

func (s *BookingService) Create(ctx context.Context, req *models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	draft := validation.BookingDraft{
		PackageID:    req.PackageID,
		SeatCount:    req.SeatCount,
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Phone:        req.Phone,
	}
	if err := validation.ValidateBooking(draft); err != nil {
		metrics.BookingRejected(metrics.ReasonValidation)
		return nil, err
	}
	draft.Normalize()

	var (
		booking   models.Booking
		payment   models.Payment
		remaining int
	)

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		pkg, err := tx.Packages().GetByID(ctx, draft.PackageID)
		if err != nil {
			return translate(err, "package", "get package")
		}

		remaining, err = tx.Packages().ReserveSeats(ctx, pkg.ID, draft.SeatCount)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientSeats) {
				return apperrors.ConflictError{
					Reason: apperrors.ReasonInsufficientSeats,
					Msg:    fmt.Sprintf("only %d seats available", remaining),
					Err:    err,
				}
			}
			return translate(err, "package", "reserve seats")
		}

		booking = models.Booking{
			PackageID:    pkg.ID,
			SeatCount:    draft.SeatCount,
			CustomerName: draft.CustomerName,
			Email:        draft.Email,
			Phone:        draft.Phone,
		}
		if err := tx.Bookings().Create(ctx, &booking); err != nil {
			return translate(err, "package", "create booking")
		}

		amount := pkg.Price.Mul(draft.SeatCount)
		reference, err := s.processor.Charge(ctx, booking.ID, amount)
		if err != nil {
			return apperrors.PersistenceError{Op: "process payment", Err: err}
		}

		payment = models.Payment{
			BookingID: booking.ID,
			Amount:    amount,
			Status:    models.PaymentStatusSuccess,
			Reference: reference,
		}
		if err := tx.Payments().Create(ctx, &payment); err != nil {
			return translate(err, "booking", "create payment")
		}
		return nil
	})
	if err != nil {
		s.recordRejection(ctx, err)
		return nil, err
	}

	metrics.BookingCreated(booking.SeatCount, payment.Amount)
	s.invalidatePackages(ctx)
	s.publish(ctx, models.EventBookingCreated, models.BookingCreatedEvent{
		BookingID:      booking.ID,
		PackageID:      booking.PackageID,
		SeatCount:      booking.SeatCount,
		PaymentID:      payment.ID,
		Amount:         payment.Amount,
		AvailableSeats: remaining,
		Timestamp:      time.Now(),
	})

	logger.WithContext(ctx).Info("Booking created",
		"booking_id", booking.ID,
		"package_id", booking.PackageID,
		"seat_count", booking.SeatCount,
		"amount", payment.Amount.String())

	return &models.CreateBookingResponse{
		ID:             booking.ID,
		Status:         booking.Status,
		PaymentID:      payment.ID,
		Amount:         payment.Amount,
		AvailableSeats: remaining,
	}, nil
}

// Cancel cancels a booked reservation, returns its seats to the package and
// refunds the payment. Cancelling twice is reported as an outcome, not an error.
func (s *BookingService) Cancel(ctx context.Context, bookingID int64) (*models.CancelBookingResponse, error) {
	resp := &models.CancelBookingResponse{BookingID: bookingID}

	var (
		booking  *models.Booking
		refunded *models.Payment
	)

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		booking, err = tx.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return translate(err, "booking", "get booking")
		}

		if booking.Status == models.BookingStatusCancelled {
			resp.Status = models.CancelOutcomeAlreadyCancelled
			return nil
		}

		err = tx.Bookings().SetStatus(ctx, bookingID, models.BookingStatusBooked, models.BookingStatusCancelled)
		if err != nil {
			if errors.Is(err, repository.ErrInvalidTransition) {
				// lost a race with another cancel
				resp.Status = models.CancelOutcomeAlreadyCancelled
				return nil
			}
			return translate(err, "booking", "cancel booking")
		}

		available, err := tx.Packages().ReleaseSeats(ctx, booking.PackageID, booking.SeatCount)
		if err != nil {
			return translate(err, "package", "release seats")
		}

		payment, err := tx.Payments().GetByBookingID(ctx, bookingID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			payment = nil
		case err != nil:
			return translate(err, "payment", "get payment")
		}

		if payment != nil && payment.Status == models.PaymentStatusSuccess {
			refund := payment.Amount.Percent(models.RefundPercent)
			refunded, err = tx.Payments().Refund(ctx, payment.ID, refund)
			if err != nil && !errors.Is(err, repository.ErrAlreadyRefunded) {
				return translate(err, "payment", "refund payment")
			}
		}

		resp.Status = models.CancelOutcomeCancelled
		resp.SeatsReleased = booking.SeatCount
		resp.AvailableSeats = available
		if refunded != nil {
			resp.RefundAmount = refunded.RefundAmount
		}
		return nil
	})
	if err != nil {
		if !apperrors.IsNotFound(err) {
			logger.WithContext(ctx).Error("Failed to cancel booking", "booking_id", bookingID, "error", err)
		}
		return nil, err
	}

	if resp.Status == models.CancelOutcomeAlreadyCancelled {
		logger.WithContext(ctx).Info("Booking already cancelled", "booking_id", bookingID)
		return resp, nil
	}

	metrics.BookingCancelled(resp.SeatsReleased, resp.RefundAmount)
	s.invalidatePackages(ctx)
	s.publish(ctx, models.EventBookingCancelled, models.BookingCancelledEvent{
		BookingID:      bookingID,
		PackageID:      booking.PackageID,
		SeatsReleased:  resp.SeatsReleased,
		AvailableSeats: resp.AvailableSeats,
		RefundAmount:   resp.RefundAmount,
		Timestamp:      time.Now(),
	})
	if refunded != nil && refunded.RefundAmount != nil {
		s.publish(ctx, models.EventPaymentRefunded, models.PaymentRefundedEvent{
			PaymentID:    refunded.ID,
			BookingID:    bookingID,
			Amount:       refunded.Amount,
			RefundAmount: *refunded.RefundAmount,
			Timestamp:    time.Now(),
		})
	}

	logger.WithContext(ctx).Info("Booking cancelled",
		"booking_id", bookingID,
		"seats_released", resp.SeatsReleased,
		"refunded", refunded != nil)

	return resp, nil
}

// Get returns a booking together with its package and payment.
func (s *BookingService) Get(ctx context.Context, bookingID int64) (*models.BookingDetails, error) {
	booking, err := s.store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, translate(err, "booking", "get booking")
	}

	details, err := s.details(ctx, *booking, map[int64]*models.Package{})
	if err != nil {
		return nil, err
	}
	return &details, nil
}

// List returns booking history, newest first.
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) (models.ListBookingsResponse, error) {
	switch filter.Status {
	case "", models.BookingStatusBooked, models.BookingStatusCancelled:
	default:
		return nil, apperrors.ValidationError{Fields: []apperrors.FieldError{{
			Field:   "status",
			Message: fmt.Sprintf("status must be %s or %s", models.BookingStatusBooked, models.BookingStatusCancelled),
		}}}
	}

	bookings, err := s.store.Bookings().List(ctx, filter)
	if err != nil {
		return nil, apperrors.PersistenceError{Op: "list bookings", Err: err}
	}

	packages := make(map[int64]*models.Package)
	result := make(models.ListBookingsResponse, 0, len(bookings))
	for _, b := range bookings {
		details, err := s.details(ctx, b, packages)
		if err != nil {
			return nil, err
		}
		result = append(result, details)
	}
	return result, nil
}

func (s *BookingService) details(ctx context.Context, b models.Booking, packages map[int64]*models.Package) (models.BookingDetails, error) {
	details := models.BookingDetails{Booking: b, PaymentStatus: models.PaymentNotPaid}

	pkg, ok := packages[b.PackageID]
	if !ok {
		p, err := s.store.Packages().GetByID(ctx, b.PackageID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return details, apperrors.PersistenceError{Op: "get package", Err: err}
		}
		pkg = p
		packages[b.PackageID] = p
	}
	if pkg != nil {
		details.PackageName = pkg.Name
		details.Location = pkg.Location
		details.Price = pkg.Price
	}

	payment, err := s.store.Payments().GetByBookingID(ctx, b.ID)
	switch {
	case err == nil:
		details.PaymentStatus = payment.Status
		details.Amount = payment.Amount
		details.RefundAmount = payment.RefundAmount
	case !errors.Is(err, repository.ErrNotFound):
		return details, apperrors.PersistenceError{Op: "get payment", Err: err}
	}
	return details, nil
}

func (s *BookingService) recordRejection(ctx context.Context, err error) {
	switch {
	case apperrors.IsNotFound(err):
		metrics.BookingRejected(metrics.ReasonNotFound)
	case apperrors.IsConflict(err):
		metrics.BookingRejected(metrics.ReasonInsufficientSeats)
	default:
		metrics.BookingRejected(metrics.ReasonError)
		logger.WithContext(ctx).Error("Failed to create booking", "error", err)
	}
}

func (s *BookingService) invalidatePackages(ctx context.Context) {
	if err := s.cache.InvalidatePackages(ctx); err != nil {
		logger.WithContext(ctx).Warn("Failed to invalidate package cache", "error", err)
	}
}

func (s *BookingService) publish(ctx context.Context, subject string, event interface{}) {
	if err := s.publisher.Publish(subject, event); err != nil {
		// Log error but don't fail the operation
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"event_type", subject)
	}
}
