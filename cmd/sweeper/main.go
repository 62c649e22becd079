// Command sweeper runs the pending-decision sweep: reservations that waited
// longer than the decision window without a host answer are rejected and
// their dates reopened. It also tails the reservation event topic so rejected
// guests get notified.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"staybook/internal/app/reservations"
	"staybook/internal/domain/pricing"
	"staybook/internal/infra/broker/kafka"
	"staybook/internal/infra/config"
	mongostore "staybook/internal/infra/db/mongo"
	"staybook/internal/infra/obs"
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

	if cfg.MongoURI == "" {
		logger.Error("MONGO_URI is required, the sweep needs the shared reservation store")
		os.Exit(1)
	}
	client, err := mongostore.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Error("mongo connect failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = client.Disconnect(closeCtx)
	}()
	db := client.Database(cfg.MongoDB)

	opts := []reservations.Option{
		reservations.WithLogger(logger),
		reservations.WithDecisionWindow(cfg.DecisionWindow),
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			logger.Error("kafka producer failed", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		opts = append(opts, reservations.WithProducer(producer, cfg.KafkaTopic))
	}

	svc := reservations.NewService(
		mongostore.NewPropertyRepository(db),
		mongostore.NewReservationRepository(db),
		mongostore.NewAvailabilityIndex(db),
		pricing.NewCalculator(cfg.ServiceFeeBps, cfg.TaxBps),
		opts...,
	)

	if len(cfg.KafkaBrokers) > 0 {
		consumer, err := kafka.NewEventConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, notificationHandler{logger: logger}, logger)
		if err != nil {
			logger.Error("kafka consumer failed", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx, []string{cfg.KafkaTopic}); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("notification consumer stopped", "error", err)
			}
		}()
	}

	logger.Info("sweeper starting", "interval", cfg.SweepInterval, "window", cfg.DecisionWindow)
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			swept, err := svc.ExpireOverdue(ctx)
			if err != nil {
				logger.Error("sweep failed", "error", err)
				continue
			}
			if len(swept) > 0 {
				logger.Info("sweep pass complete", "rejected", len(swept))
			}
		}
	}
}

// notificationHandler stands in for the notification service: it logs who
// should be told what for each reservation event.
type notificationHandler struct {
	logger *slog.Logger
}

func (h notificationHandler) HandleReservationEvent(_ context.Context, evt reservations.Event) error {
	h.logger.Info("reservation notification",
		"type", evt.Type, "reservation_id", evt.ReservationID,
		"guest_id", evt.GuestID, "host_id", evt.HostID, "state", evt.State)
	return nil
}
