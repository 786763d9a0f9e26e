package service

import (
	"context"
	"errors"

	"tourism/internal/cache"
	apperrors "tourism/internal/errors"
	"tourism/internal/external"
	"tourism/internal/messaging"
	"tourism/internal/models"
	"tourism/internal/repository"
)

// PackageIndex is the full-text package index. A nil index means search
// is served from the repository.
type PackageIndex interface {
	Search(ctx context.Context, filter models.PackageFilter) ([]models.Package, error)
	IndexPackage(ctx context.Context, pkg *models.Package) error
	DeletePackage(ctx context.Context, id int64) error
}

type Services struct {
	Packages *PackageService
	Bookings *BookingService
	Payments *PaymentService
}

// Dependencies holds the optional collaborators; zero values are replaced
// by no-op implementations.
type Dependencies struct {
	Index     PackageIndex
	Cache     cache.PackageCache
	Publisher messaging.Publisher
	Processor external.PaymentProcessor
}

func NewServices(store repository.Store, deps Dependencies) *Services {
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}
	if deps.Publisher == nil {
		deps.Publisher = messaging.NoopPublisher{}
	}
	if deps.Processor == nil {
		deps.Processor = external.NewSimulatedProcessor()
	}

	return &Services{
		Packages: NewPackageService(store, deps.Index, deps.Cache, deps.Publisher),
		Bookings: NewBookingService(store, deps.Processor, deps.Publisher, deps.Cache),
		Payments: NewPaymentService(store),
	}
}

// translate maps repository sentinels to the application error taxonomy.
func translate(err error, resource, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFoundError{Resource: resource, Err: err}
	}
	return apperrors.PersistenceError{Op: op, Err: err}
}
