package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"tourism/internal/cache"
	apperrors "tourism/internal/errors"
	"tourism/internal/logger"
	"tourism/internal/messaging"
	"tourism/internal/models"
	"tourism/internal/repository"
)

const reindexBatchSize = 100

type PackageService struct {
	store     repository.Store
	index     PackageIndex
	cache     cache.PackageCache
	publisher messaging.Publisher
}

func NewPackageService(store repository.Store, index PackageIndex, packageCache cache.PackageCache, publisher messaging.Publisher) *PackageService {
	return &PackageService{
		store:     store,
		index:     index,
		cache:     packageCache,
		publisher: publisher,
	}
}

func (s *PackageService) Create(ctx context.Context, req *models.CreatePackageRequest) (*models.CreatePackageResponse, error) {
	fields := validateDates(req.StartDate, req.EndDate)
	if req.Seats < 1 {
		fields = append(fields, apperrors.FieldError{Field: "seats", Message: "package must have at least one seat"})
	}
	if req.Price.IsNegative() {
		fields = append(fields, apperrors.FieldError{Field: "price", Message: "price must not be negative"})
	}
	if len(fields) > 0 {
		return nil, apperrors.ValidationError{Fields: fields}
	}

	pkg := &models.Package{
		Name:           strings.TrimSpace(req.Name),
		Description:    strings.TrimSpace(req.Description),
		Location:       strings.TrimSpace(req.Location),
		Price:          req.Price,
		TotalSeats:     req.Seats,
		AvailableSeats: req.Seats,
		StartDate:      req.StartDate.Time,
		EndDate:        req.EndDate.Time,
		ImageURL:       req.ImageURL,
	}

	if err := s.store.Packages().Create(ctx, pkg); err != nil {
		return nil, apperrors.PersistenceError{Op: "create package", Err: err}
	}

	s.changed(ctx, pkg, false)
	return &models.CreatePackageResponse{ID: pkg.ID}, nil
}

// Update edits descriptive fields and price. Seat counts only change through bookings.
func (s *PackageService) Update(ctx context.Context, id int64, req *models.UpdatePackageRequest) (*models.Package, error) {
	fields := validateDates(req.StartDate, req.EndDate)
	if req.Price.IsNegative() {
		fields = append(fields, apperrors.FieldError{Field: "price", Message: "price must not be negative"})
	}
	if len(fields) > 0 {
		return nil, apperrors.ValidationError{Fields: fields}
	}

	pkg := &models.Package{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		Price:       req.Price,
		StartDate:   req.StartDate.Time,
		EndDate:     req.EndDate.Time,
		ImageURL:    req.ImageURL,
	}

	if err := s.store.Packages().Update(ctx, pkg); err != nil {
		return nil, translate(err, "package", "update package")
	}

	s.changed(ctx, pkg, false)
	return pkg, nil
}

func (s *PackageService) Get(ctx context.Context, id int64) (*models.Package, error) {
	pkg, err := s.store.Packages().GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "package", "get package")
	}
	return pkg, nil
}

// Delete removes a package that no booking references.
func (s *PackageService) Delete(ctx context.Context, id int64) error {
	err := s.store.Packages().Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPackageInUse) {
			return apperrors.ConflictError{
				Reason: apperrors.ReasonPackageInUse,
				Msg:    "package has bookings and cannot be deleted",
				Err:    err,
			}
		}
		return translate(err, "package", "delete package")
	}

	s.changed(ctx, &models.Package{ID: id}, true)
	return nil
}

// Search lists packages from the cache, the search index or the repository, in that order.
func (s *PackageService) Search(ctx context.Context, filter models.PackageFilter) (models.ListPackagesResponse, error) {
	cached, version, ok := s.cache.GetPackages(ctx, filter)
	if ok {
		logger.WithContext(ctx).Debug("Cache hit for packages list", "page", filter.Page, "pageSize", filter.PageSize)
		return toListResponse(cached), nil
	}

	var packages []models.Package
	var err error

	if s.index != nil {
		packages, err = s.index.Search(ctx, filter)
		if err != nil {
			logger.WithContext(ctx).Warn("Search index unavailable, falling back to database", "error", err)
		}
	}
	if s.index == nil || err != nil {
		packages, err = s.store.Packages().List(ctx, filter)
		if err != nil {
			return nil, apperrors.PersistenceError{Op: "list packages", Err: err}
		}
	}

	s.cache.SetPackages(ctx, version, filter, packages)
	return toListResponse(packages), nil
}

// SyncIndex refreshes the search document of one package, removing it when
// the package no longer exists.
func (s *PackageService) SyncIndex(ctx context.Context, id int64) error {
	if s.index == nil {
		return nil
	}

	pkg, err := s.store.Packages().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.index.DeletePackage(ctx, id)
		}
		return apperrors.PersistenceError{Op: "get package", Err: err}
	}
	return s.index.IndexPackage(ctx, pkg)
}

// ReindexAll pushes every package into the search index and returns the count.
func (s *PackageService) ReindexAll(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, errors.New("search index is not configured")
	}

	total := 0
	for page := 1; ; page++ {
		batch, err := s.store.Packages().List(ctx, models.PackageFilter{Page: page, PageSize: reindexBatchSize})
		if err != nil {
			return total, apperrors.PersistenceError{Op: "list packages", Err: err}
		}
		for i := range batch {
			if err := s.index.IndexPackage(ctx, &batch[i]); err != nil {
				return total, err
			}
			total++
		}
		if len(batch) < reindexBatchSize {
			return total, nil
		}
	}
}

func (s *PackageService) changed(ctx context.Context, pkg *models.Package, deleted bool) {
	log := logger.WithContext(ctx)

	if s.index != nil {
		var err error
		if deleted {
			err = s.index.DeletePackage(ctx, pkg.ID)
		} else {
			err = s.index.IndexPackage(ctx, pkg)
		}
		if err != nil {
			log.Warn("Failed to update search index", "package_id", pkg.ID, "error", err)
		}
	}

	if err := s.cache.InvalidatePackages(ctx); err != nil {
		log.Warn("Failed to invalidate package cache", "error", err)
	}

	event := models.PackageChangedEvent{PackageID: pkg.ID, Deleted: deleted, Timestamp: time.Now()}
	if err := s.publisher.Publish(models.EventPackageChanged, event); err != nil {
		log.Error("Failed to publish event", "error", err, "event_type", models.EventPackageChanged)
	}
}

func validateDates(start, end models.FlexibleDate) []apperrors.FieldError {
	var fields []apperrors.FieldError
	if start.IsZero() {
		fields = append(fields, apperrors.FieldError{Field: "start_date", Message: "start date is required"})
	}
	if end.IsZero() {
		fields = append(fields, apperrors.FieldError{Field: "end_date", Message: "end date is required"})
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start.Time) {
		fields = append(fields, apperrors.FieldError{Field: "end_date", Message: "end date must not be before start date"})
	}
	return fields
}

func toListResponse(packages []models.Package) models.ListPackagesResponse {
	result := make(models.ListPackagesResponse, len(packages))
	for i, p := range packages {
		result[i] = models.ListPackagesResponseItem{
			ID:             p.ID,
			Name:           p.Name,
			Location:       p.Location,
			Price:          p.Price,
			AvailableSeats: p.AvailableSeats,
			StartDate:      models.FlexibleDate{Time: p.StartDate},
			EndDate:        models.FlexibleDate{Time: p.EndDate},
			DurationDays:   p.DurationDays(),
		}
	}
	return result
}
