// Package memory implements the repositories in process memory. A single
// mutex serializes every operation and a unit of work holds it from start to
// finish, so WithinTx is serializable. Rollback replays an undo log.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"tourism/internal/models"
	"tourism/internal/money"
	"tourism/internal/repository"
)

type Store struct {
	mu sync.Mutex

	packages map[int64]models.Package
	bookings map[int64]models.Booking
	payments map[int64]models.Payment

	nextPackageID int64
	nextBookingID int64
	nextPaymentID int64

	now func() time.Time
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		packages: make(map[int64]models.Package),
		bookings: make(map[int64]models.Booking),
		payments: make(map[int64]models.Payment),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// unit is a view of the store. Outside a transaction every call takes the
// lock itself; inside WithinTx the lock is already held and writes append
// to undo.
type unit struct {
	s    *Store
	inTx bool
	undo []func()
}

func (u *unit) lock() {
	if !u.inTx {
		u.s.mu.Lock()
	}
}

func (u *unit) unlock() {
	if !u.inTx {
		u.s.mu.Unlock()
	}
}

func (u *unit) record(fn func()) {
	if u.inTx {
		u.undo = append(u.undo, fn)
	}
}

func (u *unit) rollback() {
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.undo = nil
}

func (u *unit) Packages() repository.PackageRepository { return packageRepo{u} }
func (u *unit) Bookings() repository.BookingRepository { return bookingRepo{u} }
func (u *unit) Payments() repository.PaymentRepository { return paymentRepo{u} }

func (s *Store) Packages() repository.PackageRepository { return packageRepo{&unit{s: s}} }
func (s *Store) Bookings() repository.BookingRepository { return bookingRepo{&unit{s: s}} }
func (s *Store) Payments() repository.PaymentRepository { return paymentRepo{&unit{s: s}} }

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := &unit{s: s, inTx: true}
	defer func() {
		if p := recover(); p != nil {
			u.rollback()
			panic(p)
		}
	}()

	if err := fn(u); err != nil {
		u.rollback()
		return err
	}
	return nil
}

// packages

type packageRepo struct{ u *unit }

func (r packageRepo) Create(ctx context.Context, pkg *models.Package) error {
	r.u.lock()
	defer r.u.unlock()
	s := r.u.s

	s.nextPackageID++
	pkg.ID = s.nextPackageID
	pkg.CreatedAt = s.now()
	pkg.UpdatedAt = pkg.CreatedAt
	s.packages[pkg.ID] = *pkg

	id := pkg.ID
	r.u.record(func() {
		delete(s.packages, id)
		s.nextPackageID--
	})
	return nil
}

func (r packageRepo) GetByID(ctx context.Context, id int64) (*models.Package, error) {
	r.u.lock()
	defer r.u.unlock()

	pkg, ok := r.u.s.packages[id]
	if !ok {
		return nil, fmt.Errorf("package %d: %w", id, repository.ErrNotFound)
	}
	return &pkg, nil
}

func (r packageRepo) Update(ctx context.Context, pkg *models.Package) error {
	r.u.lock()
	defer r.u.unlock()
	s := r.u.s

	prev, ok := s.packages[pkg.ID]
	if !ok {
		return fmt.Errorf("package %d: %w", pkg.ID, repository.ErrNotFound)
	}

	next := prev
	next.Name = pkg.Name
	next.Description = pkg.Description
	next.Location = pkg.Location
	next.Price = pkg.Price
	next.StartDate = pkg.StartDate
	next.EndDate = pkg.EndDate
	next.ImageURL = pkg.ImageURL
	next.UpdatedAt = s.now()
	s.packages[pkg.ID] = next
	*pkg = next

	r.u.record(func() { s.packages[prev.ID] = prev })
	return nil
}

func (r packageRepo) List(ctx context.Context, filter models.PackageFilter) ([]models.Package, error) {
	r.u.lock()
	defer r.u.unlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	location := strings.ToLower(strings.TrimSpace(filter.Location))

	result := make([]models.Package, 0, len(r.u.s.packages))
	for _, p := range r.u.s.packages {
		if location != "" && !strings.Contains(strings.ToLower(p.Location), location) {
			continue
		}
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		if filter.MinPrice != nil && p.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && p.Price > *filter.MaxPrice {
			continue
		}
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].StartDate.Before(result[j].StartDate)
		}
		return result[i].ID < result[j].ID
	})

	return paginate(result, filter.Page, filter.PageSize), nil
}

func matchesQuery(p models.Package, query string) bool {
	return strings.Contains(strings.ToLower(p.Name), query) ||
		strings.Contains(strings.ToLower(p.Description), query) ||
		strings.Contains(strings.ToLower(p.Location), query)
}

func paginate(items []models.Package, page, pageSize int) []models.Package {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	from := (page - 1) * pageSize
	if from >= len(items) {
		return []models.Package{}
	}
	to := from + pageSize
	if to > len(items) {
		to = len(items)
	}
	return items[from:to]
}

func (r packageRepo) Delete(ctx context.Context, id int64) error {
	r.u.lock()
	defer r.u.unlock()
	s := r.u.s

	prev, ok := s.packages[id]
	if !ok {
		return fmt.Errorf("package %d: %w", id, repository.ErrNotFound)
	}
	for _, b := range s.bookings {
		if b.PackageID == id {
			return fmt.Errorf("package %d: %w", id, repository.ErrPackageInUse)
		}
	}

	delete(s.packages, id)
	r.u.record(func() { s.packages[id] = prev })
	return nil
}

func (r packageRepo) ReserveSeats(ctx context.Context, id int64, n int) (int, error) {
	r.u.lock()
	defer r.u.unlock()
	s := r.u.s

	p, ok := s.packages[id]
	if !ok {
		return 0, fmt.Errorf("package %d: %w", id, repository.ErrNotFound)
	}
	if p.AvailableSeats < n {
		return p.AvailableSeats, fmt.Errorf("package %d: %w", id, repository.ErrInsufficientSeats)
	}

	prev := p
	p.AvailableSeats -= n
	p.UpdatedAt = s.now()
	s.packages[id] = p

	r.u.record(func() { s.packages[id] = prev })
	return p.AvailableSeats, nil
}

func (r packageRepo) ReleaseSeats(ctx context.Context, id int64, n int) (int, error) {
	r.u.lock()
	defer r.u.unlock()
	s := r.u.s

	p, ok := s.packages[id]
	if !ok {
		return 0, fmt.Errorf("package %d: %w", id, repository.ErrNotFound)
	}

	prev := p
	p.AvailableSeats += n
	p.UpdatedAt = s.now()
	s.packages[id] = p

	r.u.record(func() { s.packages[id] = prev })
	return p.AvailableSeats, nil
}

// bookings

type bookingRepo struct{ u *unit }

func (r bookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	r.u.lock()
	defer r.u.unlock()
	s := r.u.s

	if _, ok := s.packages[booking.PackageID]; !ok {
		return fmt.Errorf("package %d: %w", booking.PackageID, repository.ErrNotFound)
	}

	s.nextBookingID++
	booking.ID = s.nextBookingID
	booking.Status = models.BookingStatusBooked
	booking.CreatedAt = s.now()
	booking.UpdatedAt = booking.CreatedAt
	s.bookings[booking.ID] = *booking

	id := booking.ID
	r.u.record(func() {
		delete(s.bookings, id)
		s.nextBookingID--
	})
	return nil
}

func (r bookingRepo) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	r.u.lock()
	defer r.u.unlock()

	b, ok := r.u.s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %d: %w", id, repository.ErrNotFound)
	}
	return &b, nil
}

func (r bookingRepo) SetStatus(ctx context.Context, id int64, from, to string) error {
	r.u.lock()
	defer r.u.unlock()
	s := r.u.s

	b, ok := s.bookings[id]
	if !ok {
		return fmt.Errorf("booking %d: %w", id, repository.ErrNotFound)
	}
	if b.Status != from {
		return fmt.Errorf("booking %d is %s: %w", id, b.Status, repository.ErrInvalidTransition)
	}

	prev := b
	b.Status = to
	b.UpdatedAt = s.now()
	s.bookings[id] = b

	r.u.record(func() { s.bookings[id] = prev })
	return nil
}

func (r bookingRepo) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	r.u.lock()
	defer r.u.unlock()

	result := make([]models.Booking, 0)
	for _, b := range r.u.s.bookings {
		if filter.Email != "" && !strings.EqualFold(b.Email, filter.Email) {
			continue
		}
		if filter.PackageID != 0 && b.PackageID != filter.PackageID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		result = append(result, b)
	}

	// newest first
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r bookingRepo) CountByPackage(ctx context.Context, packageID int64) (int, error) {
	r.u.lock()
	defer r.u.unlock()

	count := 0
	for _, b := range r.u.s.bookings {
		if b.PackageID == packageID {
			count++
		}
	}
	return count, nil
}

// payments

type paymentRepo struct{ u *unit }

func (r paymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	r.u.lock()
	defer r.u.unlock()
	s := r.u.s

	if _, ok := s.bookings[payment.BookingID]; !ok {
		return fmt.Errorf("booking %d: %w", payment.BookingID, repository.ErrNotFound)
	}

	s.nextPaymentID++
	payment.ID = s.nextPaymentID
	if payment.Status == "" {
		payment.Status = models.PaymentStatusSuccess
	}
	payment.CreatedAt = s.now()
	s.payments[payment.ID] = *payment

	id := payment.ID
	r.u.record(func() {
		delete(s.payments, id)
		s.nextPaymentID--
	})
	return nil
}

func (r paymentRepo) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	r.u.lock()
	defer r.u.unlock()

	p, ok := r.u.s.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment %d: %w", id, repository.ErrNotFound)
	}
	return &p, nil
}

func (r paymentRepo) GetByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error) {
	r.u.lock()
	defer r.u.unlock()

	for _, p := range r.u.s.payments {
		if p.BookingID == bookingID {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("payment for booking %d: %w", bookingID, repository.ErrNotFound)
}

func (r paymentRepo) Refund(ctx context.Context, id int64, amount money.Amount) (*models.Payment, error) {
	r.u.lock()
	defer r.u.unlock()
	s := r.u.s

	p, ok := s.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment %d: %w", id, repository.ErrNotFound)
	}
	switch p.Status {
	case models.PaymentStatusSuccess:
	case models.PaymentStatusRefunded:
		return nil, fmt.Errorf("payment %d: %w", id, repository.ErrAlreadyRefunded)
	default:
		return nil, fmt.Errorf("payment %d is %s: %w", id, p.Status, repository.ErrInvalidTransition)
	}

	prev := p
	now := s.now()
	p.Status = models.PaymentStatusRefunded
	p.RefundAmount = &amount
	p.RefundedAt = &now
	s.payments[id] = p

	r.u.record(func() { s.payments[id] = prev })
	return &p, nil
}
