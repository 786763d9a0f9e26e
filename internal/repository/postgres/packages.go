package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tourism/internal/models"
	"tourism/internal/repository"
)

const packageColumns = `id, name, description, location, price, total_seats, available_seats,
	start_date, end_date, image_url, created_at, updated_at`

// foreign_key_violation
const pqForeignKeyViolation = "23503"

type PackageRepository struct {
	q sqlx.ExtContext
}

func (r *PackageRepository) Create(ctx context.Context, pkg *models.Package) error {
	query := `
		INSERT INTO packages (name, description, location, price, total_seats, available_seats,
		                      start_date, end_date, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.q.QueryRowxContext(ctx, query,
		pkg.Name,
		pkg.Description,
		pkg.Location,
		pkg.Price,
		pkg.TotalSeats,
		pkg.AvailableSeats,
		pkg.StartDate,
		pkg.EndDate,
		pkg.ImageURL,
	).Scan(&pkg.ID, &pkg.CreatedAt, &pkg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert package: %w", err)
	}
	return nil
}

func (r *PackageRepository) GetByID(ctx context.Context, id int64) (*models.Package, error) {
	var pkg models.Package
	query := `SELECT ` + packageColumns + ` FROM packages WHERE id = $1`

	if err := sqlx.GetContext(ctx, r.q, &pkg, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("package %d: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return &pkg, nil
}

// Update changes descriptive fields and price; seat counts are left alone.
func (r *PackageRepository) Update(ctx context.Context, pkg *models.Package) error {
	query := `
		UPDATE packages
		SET name = $2, description = $3, location = $4, price = $5,
		    start_date = $6, end_date = $7, image_url = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + packageColumns

	err := sqlx.GetContext(ctx, r.q, pkg, query,
		pkg.ID,
		pkg.Name,
		pkg.Description,
		pkg.Location,
		pkg.Price,
		pkg.StartDate,
		pkg.EndDate,
		pkg.ImageURL,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("package %d: %w", pkg.ID, repository.ErrNotFound)
		}
		return fmt.Errorf("failed to update package: %w", err)
	}
	return nil
}

func (r *PackageRepository) List(ctx context.Context, filter models.PackageFilter) ([]models.Package, error) {
	var w whereClause
	if filter.Query != "" {
		w.add("(name ILIKE $%[1]d OR description ILIKE $%[1]d OR location ILIKE $%[1]d)", "%"+filter.Query+"%")
	}
	if filter.Location != "" {
		w.add("location ILIKE $%d", "%"+filter.Location+"%")
	}
	if filter.MinPrice != nil {
		w.add("price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		w.add("price <= $%d", *filter.MaxPrice)
	}

	query := `SELECT ` + packageColumns + ` FROM packages` + w.String() + ` ORDER BY start_date, id`
	args := w.args
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filter.PageSize, (page-1)*filter.PageSize)
	}

	packages := []models.Package{}
	if err := sqlx.SelectContext(ctx, r.q, &packages, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	return packages, nil
}

func (r *PackageRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM packages WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return fmt.Errorf("package %d: %w", id, repository.ErrPackageInUse)
		}
		return fmt.Errorf("failed to delete package: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("package %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *PackageRepository) ReserveSeats(ctx context.Context, id int64, n int) (int, error) {
	query := `
		UPDATE packages
		SET available_seats = available_seats - $2, updated_at = NOW()
		WHERE id = $1 AND available_seats >= $2
		RETURNING available_seats`

	var remaining int
	err := r.q.QueryRowxContext(ctx, query, id, n).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to reserve seats: %w", err)
	}

	// Nothing updated: either the package is gone or there are not enough seats.
	var available int
	err = r.q.QueryRowxContext(ctx, `SELECT available_seats FROM packages WHERE id = $1`, id).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("package %d: %w", id, repository.ErrNotFound)
		}
		return 0, fmt.Errorf("failed to read available seats: %w", err)
	}
	return available, fmt.Errorf("package %d: %w", id, repository.ErrInsufficientSeats)
}

func (r *PackageRepository) ReleaseSeats(ctx context.Context, id int64, n int) (int, error) {
	query := `
		UPDATE packages
		SET available_seats = available_seats + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING available_seats`

	var available int
	if err := r.q.QueryRowxContext(ctx, query, id, n).Scan(&available); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("package %d: %w", id, repository.ErrNotFound)
		}
		return 0, fmt.Errorf("failed to release seats: %w", err)
	}
	return available, nil
}
