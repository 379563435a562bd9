package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"food-storefront/models"

	"github.com/rs/zerolog"
)

type gatedNotifier struct {
	gate   chan struct{}
	mu     sync.Mutex
	events []string
	ctxErr []error
	hasDL  []bool
}

func (g *gatedNotifier) record(ctx context.Context, ev string) {
	<-g.gate
	_, ok := ctx.Deadline()
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, ev)
	g.ctxErr = append(g.ctxErr, ctx.Err())
	g.hasDL = append(g.hasDL, ok)
}

func (g *gatedNotifier) OrderCreated(ctx context.Context, o *models.Order) {
	g.record(ctx, "created:"+o.OrderNumber)
}

func (g *gatedNotifier) OrderStatusChanged(ctx context.Context, o *models.Order, from string) {
	g.record(ctx, from+"->"+o.Status)
}

func TestAsyncNotifierDoesNotBlockCaller(t *testing.T) {
	next := &gatedNotifier{gate: make(chan struct{})}
	a := NewAsyncNotifier(next, time.Minute, 8, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	o := &models.Order{OrderNumber: "250307-001", Status: OrderStatusReceived}

	returned := make(chan struct{})
	go func() {
		a.OrderCreated(ctx, o)
		o.Status = OrderStatusPreparing
		a.OrderStatusChanged(ctx, o, OrderStatusReceived)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("notifier blocked the caller")
	}

	// The request finishing must not cancel delivery.
	cancel()
	close(next.gate)
	a.Close()

	want := []string{"created:250307-001", "received->preparing"}
	if len(next.events) != len(want) {
		t.Fatalf("events = %v, want %v", next.events, want)
	}
	for i := range want {
		if next.events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, next.events[i], want[i])
		}
		if next.ctxErr[i] != nil {
			t.Errorf("event %d delivered with cancelled context: %v", i, next.ctxErr[i])
		}
		if !next.hasDL[i] {
			t.Errorf("event %d delivered without a deadline", i)
		}
	}
}

func TestAsyncNotifierCopiesOrder(t *testing.T) {
	next := &gatedNotifier{gate: make(chan struct{})}
	a := NewAsyncNotifier(next, time.Minute, 8, zerolog.Nop())

	o := &models.Order{OrderNumber: "250307-002"}
	a.OrderCreated(context.Background(), o)
	o.OrderNumber = "changed"
	close(next.gate)
	a.Close()

	if len(next.events) != 1 || next.events[0] != "created:250307-002" {
		t.Errorf("events = %v, want the order as it was when raised", next.events)
	}
}

func TestAsyncNotifierAfterCloseDeliversInline(t *testing.T) {
	next := &gatedNotifier{gate: make(chan struct{})}
	close(next.gate)
	a := NewAsyncNotifier(next, time.Minute, 1, zerolog.Nop())
	a.Close()
	a.Close()

	a.OrderCreated(context.Background(), &models.Order{OrderNumber: "250307-003"})
	if len(next.events) != 1 {
		t.Errorf("events = %v, want one inline delivery", next.events)
	}
}
