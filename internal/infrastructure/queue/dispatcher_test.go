package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/securedoc/account-service/internal/core/domain"
	"github.com/securedoc/account-service/internal/core/ports"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []domain.UserEvent
	err    error
	delay  time.Duration
}

func (h *recordingHandler) Handle(_ context.Context, ev domain.UserEvent) error {
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return h.err
}

func (h *recordingHandler) received() []domain.UserEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.UserEvent(nil), h.events...)
}

func userEvent(email, id string) domain.UserEvent {
	return domain.UserEvent{ID: id, Type: domain.EventRegistration, User: domain.User{Email: email}}
}

func TestDispatcher_DeliversToAllHandlers(t *testing.T) {
	first := &recordingHandler{}
	second := &recordingHandler{}
	d := NewDispatcher(2, zerolog.Nop(), first, second)
	d.Start(context.Background())

	if err := d.Publish(context.Background(), userEvent("ada@x.com", "e1")); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	d.Stop()

	if len(first.received()) != 1 || len(second.received()) != 1 {
		t.Fatalf("expected both handlers to run once, got %d/%d", len(first.received()), len(second.received()))
	}
}

func TestDispatcher_PreservesPerUserOrder(t *testing.T) {
	h := &recordingHandler{}
	d := NewDispatcher(4, zerolog.Nop(), h)
	d.Start(context.Background())

	ids := []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	for _, id := range ids {
		if err := d.Publish(context.Background(), userEvent("same@x.com", id)); err != nil {
			t.Fatalf("Publish returned error: %v", err)
		}
	}
	d.Stop()

	got := h.received()
	if len(got) != len(ids) {
		t.Fatalf("expected %d events, got %d", len(ids), len(got))
	}
	for i, ev := range got {
		if ev.ID != ids[i] {
			t.Fatalf("event %d out of order: got %s want %s", i, ev.ID, ids[i])
		}
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, zerolog.Nop())
	a := d.shardIndex("ada@x.com")
	for i := 0; i < 10; i++ {
		if d.shardIndex("ada@x.com") != a {
			t.Fatalf("shard index changed between calls")
		}
	}
	if a < 0 || a >= 8 {
		t.Fatalf("shard index out of range: %d", a)
	}
}

func TestDispatcher_HandlerErrorDoesNotStopOthers(t *testing.T) {
	failing := &recordingHandler{err: errors.New("smtp down")}
	after := &recordingHandler{}
	d := NewDispatcher(1, zerolog.Nop(), failing, after)
	d.Start(context.Background())

	_ = d.Publish(context.Background(), userEvent("a@x.com", "e1"))
	_ = d.Publish(context.Background(), userEvent("a@x.com", "e2"))
	d.Stop()

	if len(after.received()) != 2 {
		t.Fatalf("expected later handler to see both events, got %d", len(after.received()))
	}
}

func TestDispatcher_RecoversFromPanic(t *testing.T) {
	panicking := ports.EventHandlerFunc(func(context.Context, domain.UserEvent) error {
		panic("boom")
	})
	after := &recordingHandler{}
	d := NewDispatcher(1, zerolog.Nop(), panicking, after)
	d.Start(context.Background())

	_ = d.Publish(context.Background(), userEvent("a@x.com", "e1"))
	d.Stop()

	if len(after.received()) != 1 {
		t.Fatalf("expected worker to survive the panic")
	}
}

func TestDispatcher_StopDrainsQueue(t *testing.T) {
	h := &recordingHandler{delay: 5 * time.Millisecond}
	d := NewDispatcher(1, zerolog.Nop(), h)
	d.Start(context.Background())

	for i := 0; i < 10; i++ {
		_ = d.Publish(context.Background(), userEvent("a@x.com", "e"))
	}
	d.Stop()

	if n := len(h.received()); n != 10 {
		t.Fatalf("expected all 10 queued events to be handled, got %d", n)
	}
}

func TestDispatcher_PublishAfterStop(t *testing.T) {
	d := NewDispatcher(1, zerolog.Nop())
	d.Start(context.Background())
	d.Stop()
	d.Stop()

	if err := d.Publish(context.Background(), userEvent("a@x.com", "e1")); !errors.Is(err, ErrDispatcherStopped) {
		t.Fatalf("expected ErrDispatcherStopped, got %v", err)
	}
}

func TestDispatcher_PublishHonoursContext(t *testing.T) {
	// No workers are started, so the single slot fills up.
	d := newDispatcher(1, 1, zerolog.Nop())

	if err := d.Publish(context.Background(), userEvent("a@x.com", "e1")); err != nil {
		t.Fatalf("first publish should fit in the buffer: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Publish(ctx, userEvent("a@x.com", "e2")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestDispatcher_StopReleasesBlockedPublisher(t *testing.T) {
	// Without running workers the shard stays full, as after the Start
	// context has been cancelled.
	d := newDispatcher(1, 1, zerolog.Nop())
	if err := d.Publish(context.Background(), userEvent("a@x.com", "e1")); err != nil {
		t.Fatalf("first publish should fit in the buffer: %v", err)
	}

	published := make(chan error, 1)
	go func() {
		published <- d.Publish(context.Background(), userEvent("a@x.com", "e2"))
	}()
	time.Sleep(20 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		d.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked behind a publisher waiting on a full shard")
	}
	select {
	case err := <-published:
		if !errors.Is(err, ErrDispatcherStopped) {
			t.Fatalf("expected ErrDispatcherStopped, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("publisher never returned")
	}
}
