package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"tourism/internal/config"
	"tourism/internal/database"
	"tourism/internal/logger"
	"tourism/internal/models"
	"tourism/internal/money"
	"tourism/internal/repository/postgres"
	"tourism/internal/search"
	"tourism/internal/service"
)

var (
	count         = flag.Int("count", 20, "Number of packages to generate")
	clearExisting = flag.Bool("clear", false, "Delete packages without bookings before seeding")
	dryRun        = flag.Bool("dry-run", false, "Show what would be generated without making changes")
)

type destination struct {
	location string
	names    []string
	minPrice int64
	maxPrice int64
}

var destinations = []destination{
	{"Almaty", []string{"Big Almaty Lake Hike", "Shymbulak Ski Weekend", "Charyn Canyon Trip"}, 40, 900},
	{"Astana", []string{"Capital City Tour", "Burabay Lakes Escape"}, 60, 700},
	{"Turkistan", []string{"Silk Road Heritage", "Mausoleum of Khoja Ahmed Yasawi"}, 80, 650},
	{"Mangystau", []string{"Bozzhyra Desert Expedition", "Caspian Coast Camping"}, 150, 1200},
	{"Katon-Karagay", []string{"Altai Mountains Trek", "Rakhmanov Springs Retreat"}, 200, 1500},
}

func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	slog.Info("Starting package seeder...", "count", *count, "dry_run", *dryRun)

	requests := generatePackages(rand.New(rand.NewSource(time.Now().UnixNano())), *count, time.Now())

	if *dryRun {
		for _, req := range requests {
			slog.Info("[DRY RUN] Would create package",
				"name", req.Name,
				"location", req.Location,
				"price", req.Price.String(),
				"seats", req.Seats,
				"start_date", req.StartDate.Format("2006-01-02"))
		}
		return
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	ctx := context.Background()

	if *clearExisting {
		removed, err := clearUnbooked(ctx, db)
		if err != nil {
			logger.Fatal("Failed to clear packages", "error", err)
		}
		slog.Info("Cleared packages without bookings", "count", removed)
	}

	deps := service.Dependencies{}
	if cfg.Elasticsearch.Enabled {
		es, err := search.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			slog.Warn("Elasticsearch unavailable, packages will not be indexed", "error", err)
		} else {
			deps.Index = es
		}
	}
	services := service.NewServices(postgres.NewStore(db), deps)

	created := 0
	for i := range requests {
		resp, err := services.Packages.Create(ctx, &requests[i])
		if err != nil {
			slog.Error("Failed to create package", "name", requests[i].Name, "error", err)
			continue
		}
		created++
		slog.Debug("Created package", "id", resp.ID, "name", requests[i].Name)
	}

	slog.Info("Package seeding completed", "created", created, "requested", len(requests))
}

// generatePackages builds count package requests starting after now.
func generatePackages(rng *rand.Rand, count int, now time.Time) []models.CreatePackageRequest {
	requests := make([]models.CreatePackageRequest, 0, count)
	base := now.Truncate(24 * time.Hour)

	for i := 0; i < count; i++ {
		d := destinations[rng.Intn(len(destinations))]
		name := d.names[rng.Intn(len(d.names))]

		start := base.AddDate(0, 0, 7+rng.Intn(180))
		end := start.AddDate(0, 0, 1+rng.Intn(10))

		// whole currency units with an occasional .50
		price := money.FromMinor((d.minPrice + rng.Int63n(d.maxPrice-d.minPrice+1)) * 100)
		if rng.Intn(2) == 0 {
			price += money.FromMinor(50)
		}

		requests = append(requests, models.CreatePackageRequest{
			Name:        fmt.Sprintf("%s #%d", name, i+1),
			Description: fmt.Sprintf("%d-day tour in %s", int(end.Sub(start).Hours()/24), d.location),
			Location:    d.location,
			Price:       price,
			Seats:       5 + rng.Intn(46),
			StartDate:   models.FlexibleDate{Time: start},
			EndDate:     models.FlexibleDate{Time: end},
		})
	}

	return requests
}

func clearUnbooked(ctx context.Context, db *database.DB) (int64, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM packages WHERE NOT EXISTS (SELECT 1 FROM bookings WHERE bookings.package_id = packages.id)`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
