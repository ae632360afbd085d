package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/HerbHall/shopfront/internal/event"
	"github.com/HerbHall/shopfront/pkg/models"
)

func TestLogger_NotNil(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewStore_Usable(t *testing.T) {
	db := NewStore(t)
	if db == nil {
		t.Fatal("expected non-nil store")
	}
	if err := db.DB().PingContext(context.Background()); err != nil {
		t.Fatalf("PingContext: %v", err)
	}
}

func TestMockBus_RecordsEvents(t *testing.T) {
	bus := NewMockBus()

	if err := bus.Publish(context.Background(), event.Event{Topic: "test.topic", Source: "test"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	_ = bus.Publish(context.Background(), event.Event{Topic: "test.other", Source: "test"})

	topics := bus.Topics()
	if len(topics) != 2 || topics[0] != "test.topic" || topics[1] != "test.other" {
		t.Errorf("Topics = %v, want [test.topic test.other]", topics)
	}
	bus.Reset()
	if len(bus.Events()) != 0 {
		t.Error("expected empty events after Reset")
	}
}

func TestClock_Advance(t *testing.T) {
	c := NewClock()
	start := c.Now()
	c.Advance(5 * time.Minute)
	if got := c.Now().Sub(start); got != 5*time.Minute {
		t.Errorf("Advance: elapsed = %v, want 5m", got)
	}
}

func TestClock_Set(t *testing.T) {
	c := NewClock()
	target := time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)
	c.Set(target)
	if !c.Now().Equal(target) {
		t.Errorf("Set: got %v, want %v", c.Now(), target)
	}
}

func TestClock_AfterFuncFiresInOrder(t *testing.T) {
	c := NewClock()
	var order []string
	c.AfterFunc(20*time.Millisecond, func() { order = append(order, "b") })
	c.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	stop := c.AfterFunc(15*time.Millisecond, func() { order = append(order, "stopped") })

	if !stop() {
		t.Error("stop() on pending timer = false, want true")
	}
	c.Advance(5 * time.Millisecond)
	if len(order) != 0 {
		t.Fatalf("fired early: %v", order)
	}
	c.Advance(time.Second)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("order = %v, want [a b]", order)
	}
	if c.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", c.Pending())
	}
}

func TestClock_TimerSeesDeadlineTime(t *testing.T) {
	c := NewClock()
	start := c.Now()
	var at time.Time
	c.AfterFunc(300*time.Millisecond, func() { at = c.Now() })
	c.Advance(time.Second)
	if got := at.Sub(start); got != 300*time.Millisecond {
		t.Errorf("callback saw elapsed %v, want 300ms", got)
	}
}

func TestNewProduct_WithOptions(t *testing.T) {
	p := NewProduct(4,
		WithTitle("Bag"),
		WithPrice(3.5),
		WithCategory(models.CategoryJewelery),
	)
	if p.ID != 4 || p.Title != "Bag" || p.Price != 3.5 || p.Category != "jewelery" {
		t.Errorf("unexpected product: %+v", p)
	}
	if got := IDs(Products(3)); len(got) != 3 || got[2] != 3 {
		t.Errorf("IDs(Products(3)) = %v", got)
	}
}
