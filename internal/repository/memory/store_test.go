package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tourism/internal/models"
	"tourism/internal/money"
	"tourism/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPackage(t *testing.T, s *Store, seats int) *models.Package {
	t.Helper()
	pkg := &models.Package{
		Name:           "Charyn Canyon Trek",
		Location:       "Almaty",
		Price:          money.MustParse("100.00"),
		TotalSeats:     seats,
		AvailableSeats: seats,
		StartDate:      time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Packages().Create(context.Background(), pkg))
	return pkg
}

func TestReserveSeats(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	pkg := seedPackage(t, s, 5)

	remaining, err := s.Packages().ReserveSeats(ctx, pkg.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)

	remaining, err = s.Packages().ReserveSeats(ctx, pkg.ID, 3)
	assert.ErrorIs(t, err, repository.ErrInsufficientSeats)
	assert.Equal(t, 2, remaining)

	_, err = s.Packages().ReserveSeats(ctx, 999, 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReleaseSeats(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	pkg := seedPackage(t, s, 5)

	_, err := s.Packages().ReserveSeats(ctx, pkg.ID, 4)
	require.NoError(t, err)

	available, err := s.Packages().ReleaseSeats(ctx, pkg.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, available)
}

func TestConcurrentReserveNeverOversubscribes(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	pkg := seedPackage(t, s, 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Packages().ReserveSeats(ctx, pkg.ID, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	got, err := s.Packages().GetByID(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableSeats)
}

func TestWithinTxRollback(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	pkg := seedPackage(t, s, 5)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.Packages().ReserveSeats(ctx, pkg.ID, 2); err != nil {
			return err
		}
		b := &models.Booking{PackageID: pkg.ID, SeatCount: 2, CustomerName: "Test", Email: "a@b.kz", Phone: "1234567890"}
		if err := tx.Bookings().Create(ctx, b); err != nil {
			return err
		}
		if err := tx.Payments().Create(ctx, &models.Payment{BookingID: b.ID, Amount: 200_00, Reference: "PAY-1"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Packages().GetByID(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.AvailableSeats)

	bookings, err := s.Bookings().List(ctx, models.BookingFilter{})
	require.NoError(t, err)
	assert.Empty(t, bookings)

	_, err = s.Payments().GetByBookingID(ctx, 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// ids are reused after rollback
	b := &models.Booking{PackageID: pkg.ID, SeatCount: 1}
	require.NoError(t, s.Bookings().Create(ctx, b))
	assert.Equal(t, int64(1), b.ID)
}

func TestWithinTxRollback_UndoesCancelSteps(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	pkg := seedPackage(t, s, 5)

	_, err := s.Packages().ReserveSeats(ctx, pkg.ID, 3)
	require.NoError(t, err)
	b := &models.Booking{PackageID: pkg.ID, SeatCount: 3, CustomerName: "Test", Email: "a@b.kz", Phone: "1234567890"}
	require.NoError(t, s.Bookings().Create(ctx, b))
	p := &models.Payment{BookingID: b.ID, Amount: 300_00, Reference: "PAY-1"}
	require.NoError(t, s.Payments().Create(ctx, p))

	boom := errors.New("boom")
	err = s.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.Bookings().SetStatus(ctx, b.ID, models.BookingStatusBooked, models.BookingStatusCancelled); err != nil {
			return err
		}
		if _, err := tx.Packages().ReleaseSeats(ctx, pkg.ID, 3); err != nil {
			return err
		}
		if _, err := tx.Payments().Refund(ctx, p.ID, money.MustParse("255.00")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Packages().GetByID(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvailableSeats)

	booking, err := s.Bookings().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusBooked, booking.Status)

	payment, err := s.Payments().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
	assert.Nil(t, payment.RefundAmount)
	assert.Nil(t, payment.RefundedAt)
}

func TestWithinTxCommit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	pkg := seedPackage(t, s, 5)

	var bookingID int64
	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.Packages().ReserveSeats(ctx, pkg.ID, 2); err != nil {
			return err
		}
		b := &models.Booking{PackageID: pkg.ID, SeatCount: 2}
		if err := tx.Bookings().Create(ctx, b); err != nil {
			return err
		}
		bookingID = b.ID
		return nil
	})
	require.NoError(t, err)

	b, err := s.Bookings().GetByID(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusBooked, b.Status)
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	pkg := seedPackage(t, s, 5)

	b := &models.Booking{PackageID: pkg.ID, SeatCount: 1}
	require.NoError(t, s.Bookings().Create(ctx, b))

	require.NoError(t, s.Bookings().SetStatus(ctx, b.ID, models.BookingStatusBooked, models.BookingStatusCancelled))

	err := s.Bookings().SetStatus(ctx, b.ID, models.BookingStatusBooked, models.BookingStatusCancelled)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)

	err = s.Bookings().SetStatus(ctx, 42, models.BookingStatusBooked, models.BookingStatusCancelled)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRefundOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	pkg := seedPackage(t, s, 5)

	b := &models.Booking{PackageID: pkg.ID, SeatCount: 1}
	require.NoError(t, s.Bookings().Create(ctx, b))
	p := &models.Payment{BookingID: b.ID, Amount: money.MustParse("100.00"), Reference: "PAY-1"}
	require.NoError(t, s.Payments().Create(ctx, p))
	assert.Equal(t, models.PaymentStatusSuccess, p.Status)

	refunded, err := s.Payments().Refund(ctx, p.ID, money.MustParse("85.00"))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, refunded.Status)
	require.NotNil(t, refunded.RefundAmount)
	assert.Equal(t, "85.00", refunded.RefundAmount.String())
	assert.NotNil(t, refunded.RefundedAt)

	_, err = s.Payments().Refund(ctx, p.ID, money.MustParse("85.00"))
	assert.ErrorIs(t, err, repository.ErrAlreadyRefunded)
}

func TestDeleteRestrictedWhenReferenced(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	used := seedPackage(t, s, 5)
	unused := seedPackage(t, s, 5)

	require.NoError(t, s.Bookings().Create(ctx, &models.Booking{PackageID: used.ID, SeatCount: 1}))

	assert.ErrorIs(t, s.Packages().Delete(ctx, used.ID), repository.ErrPackageInUse)
	assert.NoError(t, s.Packages().Delete(ctx, unused.ID))
	assert.ErrorIs(t, s.Packages().Delete(ctx, unused.ID), repository.ErrNotFound)

	count, err := s.Bookings().CountByPackage(ctx, used.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPackageListFilters(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	for _, p := range []struct {
		name, location, price string
	}{
		{"Kolsai Lakes", "Almaty", "150.00"},
		{"Burabay Weekend", "Akmola", "90.00"},
		{"Big Almaty Lake", "Almaty", "60.00"},
	} {
		require.NoError(t, s.Packages().Create(ctx, &models.Package{
			Name: p.name, Location: p.location, Price: money.MustParse(p.price),
			TotalSeats: 10, AvailableSeats: 10,
		}))
	}

	all, err := s.Packages().List(ctx, models.PackageFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	almaty, err := s.Packages().List(ctx, models.PackageFilter{Location: "almaty"})
	require.NoError(t, err)
	assert.Len(t, almaty, 2)

	lo := money.MustParse("80.00")
	hi := money.MustParse("120.00")
	ranged, err := s.Packages().List(ctx, models.PackageFilter{MinPrice: &lo, MaxPrice: &hi})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "Burabay Weekend", ranged[0].Name)

	byText, err := s.Packages().List(ctx, models.PackageFilter{Query: "lake"})
	require.NoError(t, err)
	assert.Len(t, byText, 2)

	page2, err := s.Packages().List(ctx, models.PackageFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page2, 1)
}

func TestBookingListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	pkg := seedPackage(t, s, 10)

	clock := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	for _, email := range []string{"a@example.com", "b@example.com", "a@example.com"} {
		require.NoError(t, s.Bookings().Create(ctx, &models.Booking{PackageID: pkg.ID, SeatCount: 1, Email: email}))
	}

	list, err := s.Bookings().List(ctx, models.BookingFilter{Email: "A@example.com"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(3), list[0].ID)
	assert.Equal(t, int64(1), list[1].ID)
}
