package external

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"tourism/internal/money"
)

// PaymentProcessor charges a customer for a booking and returns the
// processor's transaction reference.
type PaymentProcessor interface {
	Charge(ctx context.Context, bookingID int64, amount money.Amount) (string, error)
}

// SimulatedProcessor approves every charge without contacting a gateway.
type SimulatedProcessor struct{}

func NewSimulatedProcessor() *SimulatedProcessor {
	return &SimulatedProcessor{}
}

func (p *SimulatedProcessor) Charge(ctx context.Context, bookingID int64, amount money.Amount) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	reference := "PAY-" + uuid.New().String()
	slog.Debug("Simulated payment approved",
		"booking_id", bookingID, "amount", amount.String(), "reference", reference)
	return reference, nil
}
