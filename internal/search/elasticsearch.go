package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"tourism/internal/models"
	"tourism/internal/money"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Config - подключение к Elasticsearch и имя индекса пакетов
type Config struct {
	Enabled    bool
	URL        string
	Index      string
	Username   string
	Password   string
	MaxRetries int
	Timeout    time.Duration
}

// ElasticsearchClient представляет клиент для работы с индексом пакетов
type ElasticsearchClient struct {
	client *elasticsearch.Client
	config Config
}

// PackageDocument - документ пакета в индексе; цена хранится в минимальных единицах
type PackageDocument struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	PriceMinor     int64     `json:"price_minor"`
	TotalSeats     int       `json:"total_seats"`
	AvailableSeats int       `json:"available_seats"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	ImageURL       *string   `json:"image_url,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewPackageDocument(p *models.Package) PackageDocument {
	return PackageDocument{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Location:       p.Location,
		PriceMinor:     p.Price.Minor(),
		TotalSeats:     p.TotalSeats,
		AvailableSeats: p.AvailableSeats,
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
		ImageURL:       p.ImageURL,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (d PackageDocument) Package() models.Package {
	return models.Package{
		ID:             d.ID,
		Name:           d.Name,
		Description:    d.Description,
		Location:       d.Location,
		Price:          money.FromMinor(d.PriceMinor),
		TotalSeats:     d.TotalSeats,
		AvailableSeats: d.AvailableSeats,
		StartDate:      d.StartDate,
		EndDate:        d.EndDate,
		ImageURL:       d.ImageURL,
		UpdatedAt:      d.UpdatedAt,
	}
}

// NewElasticsearchClient создает новый клиент Elasticsearch
func NewElasticsearchClient(cfg Config) (*ElasticsearchClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &ElasticsearchClient{
		client: es,
		config: cfg,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	// Check connection and create index if needed
	if err := client.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return client, nil
}

// EnsureIndex создает индекс если он не существует
func (c *ElasticsearchClient) EnsureIndex(ctx context.Context) error {
	req := esapi.IndicesExistsRequest{
		Index: []string{c.config.Index},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		slog.Info("Elasticsearch index already exists", "index", c.config.Index)
		return nil
	}

	mappingJSON, err := json.Marshal(indexMapping())
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	createReq := esapi.IndicesCreateRequest{
		Index: c.config.Index,
		Body:  bytes.NewReader(mappingJSON),
	}

	createRes, err := createReq.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}

	slog.Info("Created Elasticsearch index", "index", c.config.Index)
	return nil
}

// DropIndex удаляет индекс целиком (используется при переиндексации)
func (c *ElasticsearchClient) DropIndex(ctx context.Context) error {
	req := esapi.IndicesDeleteRequest{
		Index: []string{c.config.Index},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete index error: %s", res.String())
	}
	return nil
}

func indexMapping() map[string]interface{} {
	return map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
			"analysis": map[string]interface{}{
				"analyzer": map[string]interface{}{
					"package_analyzer": map[string]interface{}{
						"type":      "custom",
						"tokenizer": "standard",
						"filter":    []string{"lowercase", "asciifolding"},
					},
				},
			},
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id": map[string]interface{}{"type": "long"},
				"name": map[string]interface{}{
					"type":     "text",
					"analyzer": "package_analyzer",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{
							"type":         "keyword",
							"ignore_above": 256,
						},
					},
				},
				"description": map[string]interface{}{
					"type":     "text",
					"analyzer": "package_analyzer",
				},
				"location": map[string]interface{}{
					"type":     "text",
					"analyzer": "package_analyzer",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{"type": "keyword"},
					},
				},
				"price_minor":     map[string]interface{}{"type": "long"},
				"total_seats":     map[string]interface{}{"type": "integer"},
				"available_seats": map[string]interface{}{"type": "integer"},
				"start_date":      map[string]interface{}{"type": "date"},
				"end_date":        map[string]interface{}{"type": "date"},
				"image_url":       map[string]interface{}{"type": "keyword", "index": false},
				"updated_at":      map[string]interface{}{"type": "date"},
			},
		},
	}
}

// Search выполняет поиск пакетов
func (c *ElasticsearchClient) Search(ctx context.Context, filter models.PackageFilter) ([]models.Package, error) {
	searchJSON, err := json.Marshal(buildSearchRequest(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{c.config.Index},
		Body:  bytes.NewReader(searchJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var response struct {
		Hits struct {
			Hits []struct {
				Source PackageDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	packages := make([]models.Package, len(response.Hits.Hits))
	for i, hit := range response.Hits.Hits {
		packages[i] = hit.Source.Package()
	}

	return packages, nil
}

func buildSearchRequest(filter models.PackageFilter) map[string]interface{} {
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	from := 0
	if filter.Page > 0 {
		from = (filter.Page - 1) * pageSize
	}

	return map[string]interface{}{
		"query": buildSearchQuery(filter),
		"sort":  buildSortQuery(filter.Query),
		"from":  from,
		"size":  pageSize,
	}
}

// buildSearchQuery строит поисковый запрос
func buildSearchQuery(filter models.PackageFilter) map[string]interface{} {
	must := []map[string]interface{}{}
	var filters []map[string]interface{}

	if q := strings.TrimSpace(filter.Query); q != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     q,
				"fields":    []string{"name^2", "description", "location"},
				"fuzziness": "AUTO",
			},
		})
	}

	if loc := strings.TrimSpace(filter.Location); loc != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{
				"location": map[string]interface{}{
					"query":    loc,
					"operator": "and",
				},
			},
		})
	}

	if filter.MinPrice != nil || filter.MaxPrice != nil {
		rng := map[string]interface{}{}
		if filter.MinPrice != nil {
			rng["gte"] = filter.MinPrice.Minor()
		}
		if filter.MaxPrice != nil {
			rng["lte"] = filter.MaxPrice.Minor()
		}
		filters = append(filters, map[string]interface{}{
			"range": map[string]interface{}{"price_minor": rng},
		})
	}

	if len(must) == 0 && len(filters) == 0 {
		return map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	}

	boolQuery := map[string]interface{}{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}
	return map[string]interface{}{"bool": boolQuery}
}

// buildSortQuery строит сортировку
func buildSortQuery(query string) []map[string]interface{} {
	if strings.TrimSpace(query) != "" {
		// Sort by relevance when searching
		return []map[string]interface{}{
			{"_score": map[string]interface{}{"order": "desc"}},
			{"id": map[string]interface{}{"order": "asc"}},
		}
	}

	return []map[string]interface{}{
		{"start_date": map[string]interface{}{"order": "asc"}},
		{"id": map[string]interface{}{"order": "asc"}},
	}
}

// IndexPackage индексирует пакет
func (c *ElasticsearchClient) IndexPackage(ctx context.Context, pkg *models.Package) error {
	doc := NewPackageDocument(pkg)
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now()
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal package: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.config.Index,
		DocumentID: strconv.FormatInt(pkg.ID, 10),
		Body:       bytes.NewReader(docJSON),
		Refresh:    "wait_for",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to index package: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing error: %s", res.String())
	}

	return nil
}

// DeletePackage удаляет пакет из индекса
func (c *ElasticsearchClient) DeletePackage(ctx context.Context, id int64) error {
	req := esapi.DeleteRequest{
		Index:      c.config.Index,
		DocumentID: strconv.FormatInt(id, 10),
		Refresh:    "wait_for",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete error: %s", res.String())
	}

	return nil
}

// HealthCheck проверяет состояние Elasticsearch
func (c *ElasticsearchClient) HealthCheck(ctx context.Context) error {
	req := esapi.ClusterHealthRequest{
		WaitForStatus: "yellow",
		Timeout:       10 * time.Second,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("health check error: %s", res.String())
	}

	return nil
}
