package service

import (
	"context"

	"tourism/internal/models"
	"tourism/internal/repository"
)

type PaymentService struct {
	store repository.Store
}

func NewPaymentService(store repository.Store) *PaymentService {
	return &PaymentService{store: store}
}

func (s *PaymentService) Get(ctx context.Context, id int64) (*models.Payment, error) {
	payment, err := s.store.Payments().GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "payment", "get payment")
	}
	return payment, nil
}

func (s *PaymentService) GetByBooking(ctx context.Context, bookingID int64) (*models.Payment, error) {
	payment, err := s.store.Payments().GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, translate(err, "payment", "get payment")
	}
	return payment, nil
}
