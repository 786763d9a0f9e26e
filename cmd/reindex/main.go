package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"tourism/internal/config"
	"tourism/internal/database"
	"tourism/internal/logger"
	"tourism/internal/repository/postgres"
	"tourism/internal/search"
	"tourism/internal/service"
)

func main() {
	recreate := flag.Bool("recreate", false, "Drop and recreate the index before loading packages")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	slog.Info("Starting package reindex", "index", cfg.Elasticsearch.Index, "recreate", *recreate)

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	es, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		logger.Fatal("Failed to connect to Elasticsearch", "error", err)
	}

	ctx := context.Background()

	if *recreate {
		if err := es.DropIndex(ctx); err != nil {
			logger.Fatal("Failed to drop index", "error", err)
		}
		if err := es.EnsureIndex(ctx); err != nil {
			logger.Fatal("Failed to create index", "error", err)
		}
	}

	services := service.NewServices(postgres.NewStore(db), service.Dependencies{Index: es})

	start := time.Now()
	n, err := services.Packages.ReindexAll(ctx)
	if err != nil {
		logger.Fatal("Package reindex failed", "indexed", n, "error", err)
	}

	slog.Info("Package reindex completed", "indexed", n, "duration", time.Since(start))
}
