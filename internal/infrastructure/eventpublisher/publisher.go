// Package eventpublisher delivers notifications after the mutation that caused
// them has committed. Delivery is best effort: a slow or failing transport never
// blocks or rolls back a money movement.
package eventpublisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// Publisher defines the interface for publishing notifications to external systems.
type Publisher interface {
	Publish(ctx context.Context, n *domain.Notification) error
}

// Config for Dispatcher.
type Config struct {
	Publisher      Publisher
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	QueueSize      int           // Notifications buffered before new ones are dropped
	PublishTimeout time.Duration // Upper bound for a single Publish call
}

// Dispatcher implements usecase.Notifier. Notify only enqueues; a single worker
// started with Start hands queued notifications to the publisher.
type Dispatcher struct {
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	timeout   time.Duration
	queue     chan *domain.Notification
	done      chan struct{}
	once      sync.Once
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Dispatcher{
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		timeout:   cfg.PublishTimeout,
		queue:     make(chan *domain.Notification, cfg.QueueSize),
		done:      make(chan struct{}),
	}
}

// Notify enqueues n without blocking. It never returns an error for a full queue;
// the notification is dropped and counted instead.
func (d *Dispatcher) Notify(_ context.Context, n *domain.Notification) error {
	select {
	case d.queue <- n:
	default:
		d.metrics.NotificationDropped()
		d.logger.Warn("notification queue full, dropping",
			slog.String("notification_id", n.ID),
			slog.String("type", n.Type))
	}
	return nil
}

// Start runs the delivery worker until ctx is cancelled, then drains what is
// already queued and returns.
func (d *Dispatcher) Start(ctx context.Context) error {
	defer d.once.Do(func() { close(d.done) })

	d.logger.Info("notification dispatcher started", slog.Int("queue_size", cap(d.queue)))

	for {
		select {
		case <-ctx.Done():
			d.drain()
			d.logger.Info("notification dispatcher shutting down")
			return ctx.Err()
		case n := <-d.queue:
			d.deliver(context.Background(), n)
		}
	}
}

// Done is closed once Start has returned.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) drain() {
	for {
		select {
		case n := <-d.queue:
			d.deliver(context.Background(), n)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n *domain.Notification) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.publisher.Publish(ctx, n); err != nil {
		d.metrics.NotificationPublished("failed")
		d.logger.Error("failed to publish notification",
			slog.String("notification_id", n.ID),
			slog.String("type", n.Type),
			slog.String("error", err.Error()))
		return
	}

	d.metrics.NotificationPublished("ok")
	d.logger.Debug("notification published",
		slog.String("notification_id", n.ID),
		slog.String("type", n.Type))
}

// RedisPublisher publishes notifications as JSON on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a new RedisPublisher.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Publish sends n to the channel.
func (p *RedisPublisher) Publish(ctx context.Context, n *domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}

// LogPublisher is a simple publisher that logs notifications.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs the notification.
func (p *LogPublisher) Publish(_ context.Context, n *domain.Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}

	p.logger.Info("NOTIFICATION",
		slog.String("notification_id", n.ID),
		slog.String("type", n.Type),
		slog.String("user_id", n.UserID),
		slog.String("payload", string(payload)))

	return nil
}
