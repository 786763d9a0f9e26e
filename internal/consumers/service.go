package consumers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tourism/internal/config"
	"tourism/internal/database"
	"tourism/internal/messaging"
	"tourism/internal/models"
	"tourism/internal/repository/postgres"
	"tourism/internal/search"
	"tourism/internal/service"

	"github.com/nats-io/stan.go"
)

const queueGroup = "consumers"

// ConsumerService keeps the package search index in step with booking activity.
type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	if cfg.Storage != config.StoragePostgres {
		return nil, fmt.Errorf("consumers require %s storage, got %q", config.StoragePostgres, cfg.Storage)
	}
	if !cfg.Elasticsearch.Enabled {
		return nil, errors.New("consumers require ELASTICSEARCH_ENABLED=true")
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	es, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		db.Close()
		return nil, err
	}

	// Connect to NATS
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		db.Close()
		return nil, err
	}

	services := service.NewServices(postgres.NewStore(db), service.Dependencies{Index: es})

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		handlers: NewHandlers(services.Packages),
	}, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	subscriptions := []struct {
		subject string
		handle  func(m *stan.Msg)
	}{
		{models.EventBookingCreated, cs.handlers.HandleBookingCreated},
		{models.EventBookingCancelled, cs.handlers.HandleBookingCancelled},
		{models.EventPackageChanged, cs.handlers.HandlePackageChanged},
		{models.EventPaymentRefunded, cs.handlers.HandlePaymentRefunded},
	}

	for _, s := range subscriptions {
		if _, err := cs.nats.SubscribeQueue(s.subject, queueGroup, s.handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", s.subject, err)
		}
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
