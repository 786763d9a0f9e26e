package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tourism/internal/cache"
	"tourism/internal/config"
	"tourism/internal/database"
	"tourism/internal/external"
	"tourism/internal/handlers"
	"tourism/internal/messaging"
	"tourism/internal/metrics"
	"tourism/internal/middleware"
	"tourism/internal/repository"
	"tourism/internal/repository/memory"
	"tourism/internal/repository/postgres"
	"tourism/internal/search"
	"tourism/internal/service"

	"github.com/gin-gonic/gin"
)

// Server представляет HTTP сервер API
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	es       *search.ElasticsearchClient
	services *service.Services

	stopWatch context.CancelFunc
}

// NewServer создает новый экземпляр сервера
func NewServer(cfg *config.Config) (*Server, error) {
	// Устанавливаем режим Gin
	gin.SetMode(cfg.GinMode)

	s := &Server{config: cfg}

	store, err := s.openStore()
	if err != nil {
		s.Cleanup()
		return nil, err
	}

	deps := service.Dependencies{Processor: external.NewSimulatedProcessor()}

	if cfg.NATS.Enabled {
		natsClient, err := messaging.NewNATSClient(cfg.NATS)
		if err != nil {
			s.Cleanup()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		s.nats = natsClient
		deps.Publisher = natsClient
	}

	if cfg.Elasticsearch.Enabled {
		es, err := search.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			slog.Warn("Elasticsearch unavailable, package search served from database", "error", err)
		} else {
			s.es = es
			deps.Index = es
		}
	}

	if cfg.Cache.Enabled {
		valkey, err := cache.NewValkeyClient(cfg.Cache)
		if err != nil {
			slog.Warn("Valkey unavailable, package cache disabled", "error", err)
		} else {
			s.valkey = valkey
			deps.Cache = valkey
		}
	}

	s.services = service.NewServices(store, deps)
	s.router = NewRouter(cfg, s.services, s.healthCheck)

	return s, nil
}

func (s *Server) openStore() (repository.Store, error) {
	if s.config.Storage == config.StorageMemory {
		slog.Warn("Using in-memory storage; data is lost on restart")
		return memory.NewStore(), nil
	}

	// Подключаемся к базе данных
	db, err := database.Connect(s.config.Database)
	if err != nil {
		return nil, err
	}
	s.db = db

	// Запускаем миграции
	if err := db.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopWatch = cancel
	go db.WatchPool(ctx, time.Minute)

	return postgres.NewStore(db), nil
}

// NewRouter создает роутер со всеми API роутами
func NewRouter(cfg *config.Config, services *service.Services, health gin.HandlerFunc) *gin.Engine {
	router := gin.New()

	// Применяем middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())
	router.Use(middleware.Timeout(cfg.RequestTimeout))
	if cfg.MetricsEnabled {
		router.Use(metrics.Middleware())
		router.GET("/metrics", metrics.Handler())
	}

	h := handlers.NewHandlers(services)

	api := router.Group("/api")
	{
		// Packages endpoints
		packages := api.Group("/packages")
		{
			packages.POST("", h.CreatePackage)
			packages.GET("", h.ListPackages)
			packages.GET("/:id", h.GetPackage)
			packages.PUT("/:id", h.UpdatePackage)
			packages.DELETE("/:id", h.DeletePackage)
		}

		// Bookings endpoints
		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.CreateBooking)
			bookings.GET("", h.ListBookings)
			bookings.GET("/:id", h.GetBooking)
			bookings.PATCH("/cancel", h.CancelBooking)
		}

		// Payments endpoints
		payments := api.Group("/payments")
		{
			payments.GET("", h.GetPaymentByBooking)
			payments.GET("/:id", h.GetPayment)
		}
	}

	// Health check endpoint
	router.GET("/health", health)

	return router
}

// healthCheck обрабатывает health check запросы
func (s *Server) healthCheck(c *gin.Context) {
	response := gin.H{
		"status":  "ok",
		"service": "tourism-api",
		"storage": s.config.Storage,
	}

	if s.db != nil {
		dbHealth := s.db.HealthCheck(c.Request.Context())
		response["database"] = dbHealth
		if dbHealth.Status != "healthy" {
			response["status"] = "degraded"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
	}

	if s.es != nil {
		if err := s.es.HealthCheck(c.Request.Context()); err != nil {
			response["elasticsearch"] = err.Error()
		} else {
			response["elasticsearch"] = "healthy"
		}
	}

	c.JSON(http.StatusOK, response)
}

// GetRouter возвращает роутер для тестирования
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup закрывает соединения
func (s *Server) Cleanup() error {
	if s.stopWatch != nil {
		s.stopWatch()
	}

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.valkey != nil {
		s.valkey.Close()
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
