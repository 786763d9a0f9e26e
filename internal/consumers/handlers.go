package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/stan.go"

	"tourism/internal/models"
)

// IndexSyncer refreshes the search document of a package.
type IndexSyncer interface {
	SyncIndex(ctx context.Context, packageID int64) error
}

var errMalformed = errors.New("malformed event")

type Handlers struct {
	packages IndexSyncer
}

func NewHandlers(packages IndexSyncer) *Handlers {
	return &Handlers{packages: packages}
}

func (h *Handlers) HandleBookingCreated(m *stan.Msg) {
	h.process(m, models.EventBookingCreated, h.bookingCreated)
}

func (h *Handlers) HandleBookingCancelled(m *stan.Msg) {
	h.process(m, models.EventBookingCancelled, h.bookingCancelled)
}

func (h *Handlers) HandlePackageChanged(m *stan.Msg) {
	h.process(m, models.EventPackageChanged, h.packageChanged)
}

func (h *Handlers) HandlePaymentRefunded(m *stan.Msg) {
	h.process(m, models.EventPaymentRefunded, h.paymentRefunded)
}

// process acks the message unless handling failed for a reason that a
// redelivery could fix.
func (h *Handlers) process(m *stan.Msg, subject string, handle func(context.Context, []byte) error) {
	err := handle(context.Background(), m.Data)
	switch {
	case errors.Is(err, errMalformed):
		slog.Error("Dropping malformed event", "subject", subject, "sequence", m.Sequence, "error", err)
	case err != nil:
		slog.Error("Failed to process event, awaiting redelivery", "subject", subject, "sequence", m.Sequence, "error", err)
		return
	}

	if err := m.Ack(); err != nil {
		slog.Error("Failed to ack event", "subject", subject, "sequence", m.Sequence, "error", err)
	}
}

func (h *Handlers) bookingCreated(ctx context.Context, data []byte) error {
	var event models.BookingCreatedEvent
	if err := decode(data, &event); err != nil {
		return err
	}

	slog.Info("Processing booking created event",
		"booking_id", event.BookingID, "package_id", event.PackageID, "available_seats", event.AvailableSeats)
	return h.packages.SyncIndex(ctx, event.PackageID)
}

func (h *Handlers) bookingCancelled(ctx context.Context, data []byte) error {
	var event models.BookingCancelledEvent
	if err := decode(data, &event); err != nil {
		return err
	}

	slog.Info("Processing booking cancelled event",
		"booking_id", event.BookingID, "package_id", event.PackageID, "seats_released", event.SeatsReleased)
	return h.packages.SyncIndex(ctx, event.PackageID)
}

func (h *Handlers) packageChanged(ctx context.Context, data []byte) error {
	var event models.PackageChangedEvent
	if err := decode(data, &event); err != nil {
		return err
	}

	slog.Info("Processing package changed event", "package_id", event.PackageID, "deleted", event.Deleted)
	return h.packages.SyncIndex(ctx, event.PackageID)
}

func (h *Handlers) paymentRefunded(_ context.Context, data []byte) error {
	var event models.PaymentRefundedEvent
	if err := decode(data, &event); err != nil {
		return err
	}

	slog.Info("Payment refunded",
		"payment_id", event.PaymentID,
		"booking_id", event.BookingID,
		"amount", event.Amount.String(),
		"refund_amount", event.RefundAmount.String())
	return nil
}

func decode(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return nil
}
