package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ordercore/notification-orchestrator/internal/domain"
	"github.com/ordercore/notification-orchestrator/internal/observability"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	readBackoff    = time.Second
	maxReadBackoff = 30 * time.Second
)

// Dispatcher is the orchestrator boundary the adapter feeds into.
type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.NotificationRequest) (*domain.Notification, error)
}

// ReaderConfig wires the adapter to the broker.
type ReaderConfig struct {
	Brokers           []string
	GroupID           string
	OrderTopic        string
	NotificationTopic string
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer translates externally-arriving order and notification events
// into dispatch calls. Malformed or incomplete messages are dropped with
// a warning, never retried; all resilience behavior lives downstream in
// the orchestrator.
type Consumer struct {
	dispatcher Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics

	orderReader        messageReader
	notificationReader messageReader
	orderTopic         string
	notificationTopic  string
}

func NewConsumer(cfg ReaderConfig, dispatcher Dispatcher, logger *zap.Logger) (*Consumer, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if cfg.OrderTopic == "" || cfg.NotificationTopic == "" {
		return nil, fmt.Errorf("order and notification topics are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Consumer{
		dispatcher:         dispatcher,
		logger:             logger,
		orderReader:        newReader(cfg, cfg.OrderTopic),
		notificationReader: newReader(cfg, cfg.NotificationTopic),
		orderTopic:         cfg.OrderTopic,
		notificationTopic:  cfg.NotificationTopic,
	}, nil
}

func newReader(cfg ReaderConfig, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          topic,
		GroupID:        cfg.GroupID,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
		MaxBytes:       10e6,
	})
}

func (c *Consumer) SetMetrics(metrics *observability.Metrics) {
	if c == nil {
		return
	}
	c.metrics = metrics
}

// Start consumes both topics until context cancellation.
func (c *Consumer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.consume(groupCtx, c.orderReader, c.orderTopic, c.handleOrderMessage)
	})
	g.Go(func() error {
		return c.consume(groupCtx, c.notificationReader, c.notificationTopic, c.handleNotificationMessage)
	})

	return g.Wait()
}

func (c *Consumer) Close() error {
	var firstErr error
	for _, reader := range []messageReader{c.orderReader, c.notificationReader} {
		if reader == nil {
			continue
		}
		if err := reader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *Consumer) consume(ctx context.Context, reader messageReader, topic string, handle func(ctx context.Context, value []byte)) error {
	c.logger.Info("ingest consumer started", zap.String("topic", topic))

	backoff := readBackoff
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("ingest consumer stopped", zap.String("topic", topic))
				return nil
			}

			c.logger.Error("failed to read message",
				zap.String("topic", topic),
				zap.Error(err),
			)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxReadBackoff {
				backoff = maxReadBackoff
			}
			continue
		}

		backoff = readBackoff
		handle(ctx, msg.Value)
	}
}

func (c *Consumer) handleOrderMessage(ctx context.Context, value []byte) {
	var event OrderPlacedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		c.drop(c.orderTopic, "invalid JSON", err)
		return
	}

	c.dispatch(ctx, c.orderTopic, event.ToRequest())
}

func (c *Consumer) handleNotificationMessage(ctx context.Context, value []byte) {
	var req domain.NotificationRequest
	if err := json.Unmarshal(value, &req); err != nil {
		c.drop(c.notificationTopic, "invalid JSON", err)
		return
	}
	if req.Channel == "" {
		req.Channel = domain.ChannelEmail
	}

	c.dispatch(ctx, c.notificationTopic, req)
}

func (c *Consumer) dispatch(ctx context.Context, topic string, req domain.NotificationRequest) {
	if err := validateRequest(req); err != nil {
		c.drop(topic, "missing required fields", err)
		return
	}

	if _, err := c.dispatcher.Dispatch(ctx, req); err != nil {
		// Dispatch owns retries and fallback; a typed error here is
		// terminal for this message.
		c.logger.Error("failed to dispatch ingested notification",
			zap.String("topic", topic),
			zap.Int64("customerId", req.CustomerID),
			zap.Int64("orderId", req.OrderID),
			zap.Error(err),
		)
		if c.metrics != nil {
			c.metrics.IncIngestMessage(topic, "dispatch_failed")
		}
		return
	}

	if c.metrics != nil {
		c.metrics.IncIngestMessage(topic, "dispatched")
	}
}

func (c *Consumer) drop(topic string, reason string, err error) {
	c.logger.Warn("dropping message",
		zap.String("topic", topic),
		zap.String("reason", reason),
		zap.Error(err),
	)
	if c.metrics != nil {
		c.metrics.IncIngestMessage(topic, "dropped")
	}
}
