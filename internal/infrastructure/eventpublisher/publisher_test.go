package eventpublisher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iho/gobank/internal/domain"
)

func TestDispatcherDeliversQueuedNotifications(t *testing.T) {
	pub := &stubPublisher{}
	d := newTestDispatcher(pub, 8)

	ctx, cancel := context.WithCancel(context.Background())
	go d.Start(ctx)

	for _, id := range []string{"n-1", "n-2"} {
		if err := d.Notify(context.Background(), &domain.Notification{ID: id, Type: domain.NotificationLoanPaid}); err != nil {
			t.Fatalf("notify failed: %v", err)
		}
	}

	waitFor(t, func() bool { return pub.count() == 2 })

	cancel()
	<-d.Done()
}

func TestDispatcherContinuesAfterPublishError(t *testing.T) {
	pub := &stubPublisher{errorsByID: map[string]error{"n-1": errors.New("fail")}}
	d := newTestDispatcher(pub, 8)

	_ = d.Notify(context.Background(), &domain.Notification{ID: "n-1"})
	_ = d.Notify(context.Background(), &domain.Notification{ID: "n-2"})

	ctx, cancel := context.WithCancel(context.Background())
	go d.Start(ctx)

	waitFor(t, func() bool { return pub.count() == 1 })
	cancel()
	<-d.Done()

	if got := pub.ids(); len(got) != 1 || got[0] != "n-2" {
		t.Fatalf("expected only n-2 to be published, got %v", got)
	}
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	pub := &stubPublisher{}
	d := newTestDispatcher(pub, 1)

	_ = d.Notify(context.Background(), &domain.Notification{ID: "kept"})
	if err := d.Notify(context.Background(), &domain.Notification{ID: "dropped"}); err != nil {
		t.Fatalf("full queue must not fail the caller: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if got := pub.ids(); len(got) != 1 || got[0] != "kept" {
		t.Fatalf("expected drained queue to publish only kept, got %v", got)
	}
}

func TestRedisPublisherPublishesJSON(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, "gobank:notifications")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	pub := NewRedisPublisher(client, "gobank:notifications")
	n := &domain.Notification{ID: "n-1", Type: domain.NotificationDepositClosed, UserID: "user-1"}
	if err := pub.Publish(ctx, n); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var got domain.Notification
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("invalid payload %q: %v", msg.Payload, err)
		}
		if got.ID != "n-1" || got.Type != domain.NotificationDepositClosed || got.UserID != "user-1" {
			t.Fatalf("unexpected notification %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestLogPublisher(t *testing.T) {
	p := NewLogPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := p.Publish(context.Background(), &domain.Notification{ID: "n-1", Payload: map[string]any{"amount": "10"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func newTestDispatcher(pub Publisher, size int) *Dispatcher {
	return NewDispatcher(Config{
		Publisher: pub,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		QueueSize: size,
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

type stubPublisher struct {
	mu         sync.Mutex
	published  []*domain.Notification
	errorsByID map[string]error
}

func (s *stubPublisher) Publish(_ context.Context, n *domain.Notification) error {
	if err := s.errorsByID[n.ID]; err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, n)
	return nil
}

func (s *stubPublisher) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.published)
}

func (s *stubPublisher) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.published))
	for _, n := range s.published {
		ids = append(ids, n.ID)
	}
	return ids
}
