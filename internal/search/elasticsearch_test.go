package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourism/internal/models"
	"tourism/internal/money"
)

func TestBuildSearchQuery_MatchAll(t *testing.T) {
	q := buildSearchQuery(models.PackageFilter{Query: "   "})
	assert.Contains(t, q, "match_all")
}

func TestBuildSearchQuery_Combined(t *testing.T) {
	lo := money.MustParse("10.00")
	hi := money.MustParse("99.99")

	q := buildSearchQuery(models.PackageFilter{
		Query:    "lake",
		Location: "Almaty",
		MinPrice: &lo,
		MaxPrice: &hi,
	})

	boolQuery, ok := q["bool"].(map[string]interface{})
	require.True(t, ok)

	must, ok := boolQuery["must"].([]map[string]interface{})
	require.True(t, ok)
	assert.Len(t, must, 2)
	assert.Contains(t, must[0], "multi_match")
	assert.Contains(t, must[1], "match")

	filters, ok := boolQuery["filter"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, filters, 1)

	rng := filters[0]["range"].(map[string]interface{})["price_minor"].(map[string]interface{})
	assert.Equal(t, int64(1000), rng["gte"])
	assert.Equal(t, int64(9999), rng["lte"])
}

func TestBuildSearchRequest_Paging(t *testing.T) {
	req := buildSearchRequest(models.PackageFilter{Page: 3, PageSize: 20})
	assert.Equal(t, 40, req["from"])
	assert.Equal(t, 20, req["size"])

	req = buildSearchRequest(models.PackageFilter{})
	assert.Equal(t, 0, req["from"])
	assert.Equal(t, 10, req["size"])
}

func TestBuildSortQuery(t *testing.T) {
	assert.Contains(t, buildSortQuery("altai")[0], "_score")
	assert.Contains(t, buildSortQuery("")[0], "start_date")
}

func TestPackageDocumentRoundTrip(t *testing.T) {
	start := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	pkg := &models.Package{
		ID:             4,
		Name:           "Mangystau Desert",
		Location:       "Aktau",
		Price:          money.MustParse("420.75"),
		TotalSeats:     12,
		AvailableSeats: 7,
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, 3),
	}

	doc := NewPackageDocument(pkg)
	assert.Equal(t, int64(42075), doc.PriceMinor)

	back := doc.Package()
	assert.Equal(t, pkg.Price, back.Price)
	assert.Equal(t, 7, back.AvailableSeats)
	assert.Equal(t, 3, back.DurationDays())
}
