// Package postgres implements the repositories on PostgreSQL via sqlx.
// Seat reservation relies on a conditional UPDATE so concurrent bookings
// for one package never oversubscribe it.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"tourism/internal/database"
	"tourism/internal/repository"
)

type Store struct {
	db *database.DB
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Packages() repository.PackageRepository { return &PackageRepository{q: s.db} }
func (s *Store) Bookings() repository.BookingRepository { return &BookingRepository{q: s.db} }
func (s *Store) Payments() repository.PaymentRepository { return &PaymentRepository{q: s.db} }

type txView struct {
	tx *sqlx.Tx
}

func (t txView) Packages() repository.PackageRepository { return &PackageRepository{q: t.tx} }
func (t txView) Bookings() repository.BookingRepository { return &BookingRepository{q: t.tx} }
func (t txView) Payments() repository.PaymentRepository { return &PaymentRepository{q: t.tx} }

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txView{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// whereClause accumulates numbered placeholders for dynamic filters.
type whereClause struct {
	conds []string
	args  []any
}

// add appends a condition; every %[1]d in cond becomes the new placeholder index.
func (w *whereClause) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
