package event

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus(testLogger())
	var received Event

	bus.Subscribe("favorites.changed", func(ctx context.Context, e Event) {
		received = e
	})

	ev := Event{
		Topic:     "favorites.changed",
		Source:    "test",
		Timestamp: time.Now(),
		Payload:   3,
	}

	if err := bus.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if received.Topic != "favorites.changed" {
		t.Errorf("received.Topic = %q, want %q", received.Topic, "favorites.changed")
	}
	if received.Payload != 3 {
		t.Errorf("received.Payload = %v, want 3", received.Payload)
	}
}

func TestPublishFillsTimestamp(t *testing.T) {
	bus := NewBus(nil)
	var received Event
	bus.Subscribe("t", func(ctx context.Context, e Event) { received = e })

	_ = bus.Publish(context.Background(), Event{Topic: "t"})
	if received.Timestamp.IsZero() {
		t.Error("expected Publish to stamp the event")
	}
}

func TestSubscribeAll(t *testing.T) {
	bus := NewBus(testLogger())
	var count int32

	bus.SubscribeAll(func(ctx context.Context, e Event) {
		atomic.AddInt32(&count, 1)
	})

	bus.Publish(context.Background(), Event{Topic: "a"})
	bus.Publish(context.Background(), Event{Topic: "b"})

	if got := atomic.LoadInt32(&count); got != 2 {
		t.Errorf("SubscribeAll handler called %d times, want 2", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus(testLogger())
	var count int32

	unsub := bus.Subscribe("test", func(ctx context.Context, e Event) {
		atomic.AddInt32(&count, 1)
	})

	bus.Publish(context.Background(), Event{Topic: "test"})
	unsub()
	bus.Publish(context.Background(), Event{Topic: "test"})

	if got := atomic.LoadInt32(&count); got != 1 {
		t.Errorf("handler called %d times after unsubscribe, want 1", got)
	}
}

func TestUnsubscribeKeepsOthers(t *testing.T) {
	bus := NewBus(testLogger())
	var a, b int32

	unsubA := bus.Subscribe("test", func(ctx context.Context, e Event) { atomic.AddInt32(&a, 1) })
	bus.Subscribe("test", func(ctx context.Context, e Event) { atomic.AddInt32(&b, 1) })
	unsubA()

	bus.Publish(context.Background(), Event{Topic: "test"})
	if atomic.LoadInt32(&a) != 0 || atomic.LoadInt32(&b) != 1 {
		t.Errorf("a=%d b=%d, want a=0 b=1", a, b)
	}
}

func TestUnsubscribeAll(t *testing.T) {
	bus := NewBus(testLogger())
	var count int32

	unsub := bus.SubscribeAll(func(ctx context.Context, e Event) {
		atomic.AddInt32(&count, 1)
	})

	bus.Publish(context.Background(), Event{Topic: "test"})
	unsub()
	bus.Publish(context.Background(), Event{Topic: "test"})

	if got := atomic.LoadInt32(&count); got != 1 {
		t.Errorf("handler called %d times after unsubscribe, want 1", got)
	}
}

func TestHandlerPanicRecovery(t *testing.T) {
	bus := NewBus(testLogger())
	var count int32

	bus.Subscribe("panic.test", func(ctx context.Context, e Event) {
		panic("test panic")
	})
	bus.Subscribe("panic.test", func(ctx context.Context, e Event) {
		atomic.AddInt32(&count, 1)
	})

	// Should not panic, and second handler should still run.
	bus.Publish(context.Background(), Event{Topic: "panic.test"})

	if got := atomic.LoadInt32(&count); got != 1 {
		t.Errorf("second handler called %d times, want 1", got)
	}
}

func TestNoSubscribersOK(t *testing.T) {
	bus := NewBus(testLogger())

	if err := bus.Publish(context.Background(), Event{Topic: "empty"}); err != nil {
		t.Fatalf("Publish() with no subscribers error = %v", err)
	}
}
