package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"tourism/internal/models"
)

const (
	packagesVersionKey = "packages:version"
	packagesKeyPrefix  = "packages:list"
)

type Config struct {
	Enabled  bool
	Addr     string
	Password string
	TTL      time.Duration
}

// PackageCache caches package search results. Entries are keyed by a
// version counter, so bumping the counter invalidates every listing at once.
// GetPackages reports the version it looked under even on a miss; a listing
// fetched after that miss must be stored under the same version, so a
// concurrent invalidation makes the stored entry unreachable.
type PackageCache interface {
	GetPackages(ctx context.Context, filter models.PackageFilter) (packages []models.Package, version string, hit bool)
	SetPackages(ctx context.Context, version string, filter models.PackageFilter, packages []models.Package)
	InvalidatePackages(ctx context.Context) error
}

type ValkeyClient struct {
	client rueidis.Client
	ttl    time.Duration
}

var _ PackageCache = (*ValkeyClient)(nil)

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{cfg.Addr},
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Valkey: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &ValkeyClient{client: client, ttl: ttl}, nil
}

func (v *ValkeyClient) version(ctx context.Context) (string, error) {
	ver, err := v.client.Do(ctx, v.client.B().Get().Key(packagesVersionKey).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "0", nil
		}
		return "", err
	}
	return ver, nil
}

func (v *ValkeyClient) GetPackages(ctx context.Context, filter models.PackageFilter) ([]models.Package, string, bool) {
	ver, err := v.version(ctx)
	if err != nil {
		return nil, "", false
	}

	raw, err := v.client.Do(ctx, v.client.B().Get().Key(ListKey(ver, filter)).Build()).AsBytes()
	if err != nil {
		return nil, ver, false
	}

	var packages []models.Package
	if err := json.Unmarshal(raw, &packages); err != nil {
		return nil, ver, false
	}
	return packages, ver, true
}

// SetPackages stores a listing under the version returned by GetPackages.
// An empty version means the version could not be read and nothing is stored.
func (v *ValkeyClient) SetPackages(ctx context.Context, version string, filter models.PackageFilter, packages []models.Package) {
	if version == "" {
		return
	}

	data, err := json.Marshal(packages)
	if err != nil {
		return
	}

	cmd := v.client.B().Setex().Key(ListKey(version, filter)).Seconds(int64(v.ttl.Seconds())).Value(string(data)).Build()
	v.client.Do(ctx, cmd)
}

func (v *ValkeyClient) InvalidatePackages(ctx context.Context) error {
	if err := v.client.Do(ctx, v.client.B().Incr().Key(packagesVersionKey).Build()).Error(); err != nil {
		return fmt.Errorf("failed to invalidate package cache: %w", err)
	}
	return nil
}

func (v *ValkeyClient) Close() error {
	v.client.Close()
	return nil
}

// ListKey returns the cache key of one listing under the given version.
func ListKey(version string, f models.PackageFilter) string {
	lo, hi := "", ""
	if f.MinPrice != nil {
		lo = strconv.FormatInt(f.MinPrice.Minor(), 10)
	}
	if f.MaxPrice != nil {
		hi = strconv.FormatInt(f.MaxPrice.Minor(), 10)
	}
	return fmt.Sprintf("%s:v%s:q=%s:loc=%s:min=%s:max=%s:p=%d:s=%d",
		packagesKeyPrefix, version, f.Query, f.Location, lo, hi, f.Page, f.PageSize)
}

// Noop is used when caching is disabled.
type Noop struct{}

func (Noop) GetPackages(context.Context, models.PackageFilter) ([]models.Package, string, bool) {
	return nil, "", false
}
func (Noop) SetPackages(context.Context, string, models.PackageFilter, []models.Package) {}
func (Noop) InvalidatePackages(context.Context) error                                    { return nil }
