package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"staybook/internal/app/reservations"
	"staybook/internal/domain/availability"
	"staybook/internal/domain/catalog"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/money"
	"staybook/internal/infra/broker/kafka"
	redisstore "staybook/internal/infra/cache/redis"
	"staybook/internal/infra/config"
	mongostore "staybook/internal/infra/db/mongo"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/obs"
	"staybook/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	deps, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer deps.close(logger)

	opts := []reservations.Option{
		reservations.WithLogger(logger),
		reservations.WithDecisionWindow(cfg.DecisionWindow),
	}
	if deps.producer != nil {
		opts = append(opts, reservations.WithProducer(deps.producer, cfg.KafkaTopic))
	}
	svc := reservations.NewService(
		deps.properties,
		deps.reservations,
		deps.index,
		pricing.NewCalculator(cfg.ServiceFeeBps, cfg.TaxBps),
		opts...,
	)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Ready: deps.ready}, ginserver.Handlers{
		Reservation: ginserver.ReservationHandler{
			Service:        svc,
			Idempotency:    deps.idempotency,
			IdempotencyTTL: cfg.IdempotencyTTL,
			Logger:         logger,
		},
		Availability: ginserver.AvailabilityHandler{Service: svc},
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", deps.storage)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type dependencies struct {
	storage      string
	properties   catalog.Repository
	reservations reservation.Repository
	index        availability.Index
	idempotency  ginserver.IdempotencyStore
	producer     *kafka.Producer
	ready        func() error
	mongoClient  *driver.Client
	redisClient  *goredis.Client
}

func buildDependencies(ctx context.Context, cfg config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{storage: "memory", ready: func() error { return nil }}

	if cfg.MongoURI != "" {
		client, err := mongostore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDB)
		deps.storage = "mongo"
		deps.mongoClient = client
		deps.properties = mongostore.NewPropertyRepository(db)
		deps.reservations = mongostore.NewReservationRepository(db)
		deps.index = mongostore.NewAvailabilityIndex(db)
		deps.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx, readpref.Primary())
		}
	} else {
		properties := memory.NewPropertyRepository()
		if err := seedProperties(properties, os.Getenv("PROPERTY_FIXTURES"), cfg.Currency, logger); err != nil {
			return nil, err
		}
		deps.properties = properties
		deps.reservations = memory.NewReservationRepository()
		deps.index = memory.NewAvailabilityIndex()
	}

	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := redisstore.Ping(ctx, client); err != nil {
			return nil, err
		}
		deps.redisClient = client
		deps.idempotency = redisstore.NewIdempotencyStore(client, "staybook")
	} else {
		deps.idempotency = memory.NewIdempotencyStore()
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return nil, err
		}
		deps.producer = producer
	} else {
		logger.Warn("kafka brokers not configured, reservation events will not be published")
	}

	return deps, nil
}

func (d *dependencies) close(logger *slog.Logger) {
	if d.producer != nil {
		if err := d.producer.Close(); err != nil {
			logger.Error("kafka producer close failed", "error", err)
		}
	}
	if d.redisClient != nil {
		_ = d.redisClient.Close()
	}
	if d.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = d.mongoClient.Disconnect(ctx)
	}
}

type propertyFixture struct {
	ID                 string `json:"id"`
	HostID             string `json:"host_id"`
	Title              string `json:"title"`
	NightlyRate        int64  `json:"nightly_rate"`
	Currency           string `json:"currency"`
	MaxGuests          int    `json:"max_guests"`
	Active             *bool  `json:"active"`
	CancellationPolicy string `json:"cancellation_policy"`
}

// seedProperties fills the in-memory catalog from a fixtures file, or with a
// small built-in set so a dev instance is usable out of the box.
func seedProperties(repo *memory.PropertyRepository, path, currency string, logger *slog.Logger) error {
	if path == "" {
		repo.Put(catalog.Property{
			ID: "demo-loft", Host: "demo-host", Title: "Downtown loft",
			NightlyRate: money.Must(12000, currency), MaxGuests: 4, Active: true,
			CancellationPolicy: "moderate",
		})
		repo.Put(catalog.Property{
			ID: "demo-cabin", Host: "demo-host", Title: "Lakeside cabin",
			NightlyRate: money.Must(8500, currency), MaxGuests: 6, Active: true,
			CancellationPolicy: "strict",
		})
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fixtures []propertyFixture
	if err := json.Unmarshal(raw, &fixtures); err != nil {
		return err
	}
	for _, f := range fixtures {
		cur := f.Currency
		if cur == "" {
			cur = currency
		}
		active := true
		if f.Active != nil {
			active = *f.Active
		}
		repo.Put(catalog.Property{
			ID:                 catalog.PropertyID(f.ID),
			Host:               catalog.HostID(f.HostID),
			Title:              f.Title,
			NightlyRate:        money.Must(f.NightlyRate, cur),
			MaxGuests:          f.MaxGuests,
			Active:             active,
			CancellationPolicy: f.CancellationPolicy,
		})
	}
	logger.Info("property fixtures loaded", "path", path, "count", len(fixtures))
	return nil
}
