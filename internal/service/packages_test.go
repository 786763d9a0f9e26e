package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourism/internal/cache"
	apperrors "tourism/internal/errors"
	"tourism/internal/models"
	"tourism/internal/money"
	"tourism/internal/repository/memory"
)

type fakeIndex struct {
	mu        sync.Mutex
	docs      map[int64]models.Package
	searchErr error
	searches  int
	// onSearch runs after the documents were read, before results return
	onSearch func()
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: make(map[int64]models.Package)}
}

func (f *fakeIndex) Search(ctx context.Context, filter models.PackageFilter) ([]models.Package, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []models.Package
	for _, p := range f.docs {
		out = append(out, p)
	}
	if f.onSearch != nil {
		f.onSearch()
	}
	return out, nil
}

func (f *fakeIndex) IndexPackage(ctx context.Context, pkg *models.Package) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[pkg.ID] = *pkg
	return nil
}

func (f *fakeIndex) DeletePackage(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

// mapCache mirrors the Valkey cache: listings are keyed by a version counter
// that invalidation bumps.
type mapCache struct {
	mu          sync.Mutex
	version     int
	entries     map[string][]models.Package
	invalidated int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]models.Package)}
}

func (c *mapCache) GetPackages(ctx context.Context, filter models.PackageFilter) ([]models.Package, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	version := strconv.Itoa(c.version)
	p, ok := c.entries[cache.ListKey(version, filter)]
	return p, version, ok
}

func (c *mapCache) SetPackages(ctx context.Context, version string, filter models.PackageFilter, packages []models.Package) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cache.ListKey(version, filter)] = packages
}

func (c *mapCache) InvalidatePackages(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	c.invalidated++
	return nil
}

func date(s string) models.FlexibleDate {
	t, _ := time.Parse("2006-01-02", s)
	return models.FlexibleDate{Time: t}
}

func createRequest() *models.CreatePackageRequest {
	return &models.CreatePackageRequest{
		Name:      "Shymbulak Ski Week",
		Location:  "Almaty",
		Price:     money.MustParse("899.00"),
		Seats:     12,
		StartDate: date("2026-12-20"),
		EndDate:   date("2026-12-27"),
	}
}

func TestPackageCreate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	index := newFakeIndex()
	pub := &recordingPublisher{}
	svc := NewServices(store, Dependencies{Index: index, Publisher: pub})

	resp, err := svc.Packages.Create(ctx, createRequest())
	require.NoError(t, err)

	pkg, err := svc.Packages.Get(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, pkg.TotalSeats)
	assert.Equal(t, 12, pkg.AvailableSeats)
	assert.Equal(t, 7, pkg.DurationDays())

	assert.Contains(t, index.docs, resp.ID)
	assert.Equal(t, []string{models.EventPackageChanged}, pub.Subjects())
}

func TestPackageCreate_Validation(t *testing.T) {
	svc := NewServices(memory.NewStore(), Dependencies{})

	req := createRequest()
	req.Seats = 0
	req.StartDate = date("2027-01-10")
	req.EndDate = date("2027-01-01")

	_, err := svc.Packages.Create(context.Background(), req)
	verr, ok := apperrors.AsValidation(err)
	require.True(t, ok)
	assert.True(t, verr.HasField("seats"))
	assert.True(t, verr.HasField("end_date"))

	req = createRequest()
	req.StartDate = models.FlexibleDate{}
	_, err = svc.Packages.Create(context.Background(), req)
	verr, ok = apperrors.AsValidation(err)
	require.True(t, ok)
	assert.True(t, verr.HasField("start_date"))
}

func TestPackageUpdate_KeepsSeats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pkg := f.addPackage(t, 8, "100.00")

	_, err := f.services.Bookings.Create(ctx, validRequest(pkg.ID, 3))
	require.NoError(t, err)

	updated, err := f.services.Packages.Update(ctx, pkg.ID, &models.UpdatePackageRequest{
		Name:      "Kaindy Lake Tour (extended)",
		Location:  "Almaty",
		Price:     money.MustParse("130.00"),
		StartDate: date("2026-09-01"),
		EndDate:   date("2026-09-04"),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.AvailableSeats)
	assert.Equal(t, 8, updated.TotalSeats)
	assert.Equal(t, "130.00", updated.Price.String())

	_, err = f.services.Packages.Update(ctx, 999, &models.UpdatePackageRequest{
		Name: "x", Location: "y", StartDate: date("2026-09-01"), EndDate: date("2026-09-02"),
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPackageDelete_RestrictedWhenBooked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	booked := f.addPackage(t, 5, "10.00")
	free := f.addPackage(t, 5, "10.00")

	created, err := f.services.Bookings.Create(ctx, validRequest(booked.ID, 1))
	require.NoError(t, err)
	_, err = f.services.Bookings.Cancel(ctx, created.ID)
	require.NoError(t, err)

	err = f.services.Packages.Delete(ctx, booked.ID)
	conflict, ok := apperrors.AsConflict(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ReasonPackageInUse, conflict.Reason)

	require.NoError(t, f.services.Packages.Delete(ctx, free.ID))
	_, err = f.services.Packages.Get(ctx, free.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPackageSearch_FallsBackToRepository(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	index := newFakeIndex()
	index.searchErr = errors.New("connection refused")
	svc := NewServices(store, Dependencies{Index: index})

	_, err := svc.Packages.Create(ctx, createRequest())
	require.NoError(t, err)

	list, err := svc.Packages.Search(ctx, models.PackageFilter{Location: "almaty", Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Shymbulak Ski Week", list[0].Name)
	assert.Equal(t, 7, list[0].DurationDays)
	assert.Equal(t, 1, index.searches)
}

func TestPackageSearch_UsesCacheUntilBooking(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	index := newFakeIndex()
	c := newMapCache()
	svc := NewServices(store, Dependencies{Index: index, Cache: c})

	resp, err := svc.Packages.Create(ctx, createRequest())
	require.NoError(t, err)

	filter := models.PackageFilter{Page: 1, PageSize: 20}
	_, err = svc.Packages.Search(ctx, filter)
	require.NoError(t, err)
	_, err = svc.Packages.Search(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, index.searches)

	_, err = svc.Bookings.Create(ctx, validRequest(resp.ID, 2))
	require.NoError(t, err)

	_, err = svc.Packages.Search(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 2, index.searches)
}

func TestSyncIndexAndReindex(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	index := newFakeIndex()
	svc := NewServices(store, Dependencies{Index: index})

	for i := 0; i < 3; i++ {
		_, err := svc.Packages.Create(ctx, createRequest())
		require.NoError(t, err)
	}
	index.docs = make(map[int64]models.Package)

	n, err := svc.Packages.ReindexAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, index.docs, 3)

	_, err = svc.Bookings.Create(ctx, validRequest(1, 4))
	require.NoError(t, err)
	require.NoError(t, svc.Packages.SyncIndex(ctx, 1))
	assert.Equal(t, 8, index.docs[1].AvailableSeats)

	require.NoError(t, svc.Packages.SyncIndex(ctx, 42))
	assert.Len(t, index.docs, 3)
}

func TestPackageSearch_InvalidationDuringFetchIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	index := newFakeIndex()
	c := newMapCache()
	svc := NewServices(store, Dependencies{Index: index, Cache: c})

	resp, err := svc.Packages.Create(ctx, createRequest())
	require.NoError(t, err)
	require.NoError(t, svc.Packages.SyncIndex(ctx, resp.ID))

	// a booking commits while the listing is being fetched
	index.onSearch = func() {
		require.NoError(t, c.InvalidatePackages(ctx))
	}

	filter := models.PackageFilter{Page: 1, PageSize: 20}
	_, err = svc.Packages.Search(ctx, filter)
	require.NoError(t, err)

	index.onSearch = nil
	_, err = svc.Packages.Search(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 2, index.searches, "listing fetched before the invalidation must not be served")

	_, err = svc.Packages.Search(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 2, index.searches)
}
