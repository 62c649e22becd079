package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"

	"staybook/internal/app/reservations"
)

// EventHandler reacts to decoded reservation events.
type EventHandler interface {
	HandleReservationEvent(ctx context.Context, evt reservations.Event) error
}

// EventConsumer tails the reservation event topic and hands each decoded
// event to the handler. Decoding happens here so handlers never touch wire
// bytes; messages that do not parse are logged and skipped rather than
// poisoning the partition.
type EventConsumer struct {
	group   sarama.ConsumerGroup
	handler EventHandler
	logger  *slog.Logger
}

func NewEventConsumer(brokers []string, groupID string, cfg *sarama.Config, handler EventHandler, logger *slog.Logger) (*EventConsumer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Version = sarama.V2_5_0_0
	g, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	return &EventConsumer{group: g, handler: handler, logger: logger}, nil
}

func (c *EventConsumer) Run(ctx context.Context, topics []string) error {
	for {
		if err := c.group.Consume(ctx, topics, groupHandler{handler: c.handler, logger: c.logger}); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *EventConsumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	handler EventHandler
	logger  *slog.Logger
}

func (h groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var evt reservations.Event
		if err := json.Unmarshal(message.Value, &evt); err != nil {
			if h.logger != nil {
				h.logger.Warn("undecodable reservation event", "topic", message.Topic, "offset", message.Offset, "error", err)
			}
			sess.MarkMessage(message, "")
			continue
		}
		if err := h.handler.HandleReservationEvent(sess.Context(), evt); err != nil {
			// Not marked; the message is redelivered after rebalance.
			continue
		}
		sess.MarkMessage(message, "")
	}
	return nil
}
