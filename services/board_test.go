package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"food-storefront/models"

	"github.com/rs/zerolog"
)

type failingMover struct{ err error }

func (f failingMover) Transition(context.Context, string, string, string) (*models.Order, bool, error) {
	return nil, false, f.err
}

func TestBoardColumns(t *testing.T) {
	now := time.Now()
	b := NewBoard([]models.Order{
		sampleOrder("o1", "1", OrderStatusReceived, now),
		sampleOrder("o2", "2", OrderStatusReady, now),
		sampleOrder("o3", "3", OrderStatusReceived, now),
	}, nil)
	cols := b.Columns()
	if len(cols) != len(BoardStatuses) {
		t.Fatalf("got %d columns, want %d", len(cols), len(BoardStatuses))
	}
	if len(cols[OrderStatusReceived]) != 2 || cols[OrderStatusReceived][0].ID != "o1" {
		t.Errorf("received column = %v", cols[OrderStatusReceived])
	}
	if cols[OrderStatusCancelled] == nil {
		t.Error("empty columns should be empty slices")
	}
	if b.Counts()[OrderStatusReady] != 1 {
		t.Errorf("counts = %v", b.Counts())
	}
}

func TestBoardMovePersists(t *testing.T) {
	store := NewMemoryStore()
	o := sampleOrder("o1", "1", OrderStatusReceived, time.Now())
	store.PutOrder(o)
	b := NewBoard([]models.Order{o}, NewOrderService(store, nil, zerolog.Nop()))

	if err := b.Move(context.Background(), "o1", OrderStatusPreparing, "admin"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	got, _ := b.Get("o1")
	stored, _ := store.GetOrder(context.Background(), "o1")
	if got.Status != OrderStatusPreparing || stored.Status != OrderStatusPreparing {
		t.Errorf("board = %s, store = %s, want preparing", got.Status, stored.Status)
	}
}

func TestBoardMoveRevertsOnFailure(t *testing.T) {
	o := sampleOrder("o1", "1", OrderStatusReceived, time.Now())
	b := NewBoard([]models.Order{o}, failingMover{err: errors.New("network down")})

	if err := b.Move(context.Background(), "o1", OrderStatusPreparing, "admin"); err == nil {
		t.Fatal("expected error")
	}
	got, _ := b.Get("o1")
	if got.Status != OrderStatusReceived {
		t.Errorf("status after failed move = %s, want received", got.Status)
	}
	if err := b.Move(context.Background(), "nope", OrderStatusPreparing, "admin"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("unknown order err = %v", err)
	}
}

func TestBoardMoveRejectsInvalidTransition(t *testing.T) {
	store := NewMemoryStore()
	o := sampleOrder("o1", "1", OrderStatusReceived, time.Now())
	store.PutOrder(o)
	b := NewBoard([]models.Order{o}, NewOrderService(store, nil, zerolog.Nop()))

	err := b.Move(context.Background(), "o1", OrderStatusCompleted, "admin")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if got, _ := b.Get("o1"); got.Status != OrderStatusReceived {
		t.Errorf("status = %s, want received after rejected move", got.Status)
	}
}

type moverFunc func(ctx context.Context, id, to, by string) (*models.Order, bool, error)

func (f moverFunc) Transition(ctx context.Context, id, to, by string) (*models.Order, bool, error) {
	return f(ctx, id, to, by)
}

func TestBoardRemove(t *testing.T) {
	now := time.Now()
	b := NewBoard([]models.Order{
		sampleOrder("o1", "1", OrderStatusReceived, now),
		sampleOrder("o2", "2", OrderStatusReceived, now),
	}, nil)
	b.Remove("o1")
	b.Remove("missing")
	if b.Len() != 1 {
		t.Fatalf("Len = %d, want 1", b.Len())
	}
	if _, ok := b.Get("o1"); ok {
		t.Error("removed order still on the board")
	}
	if col := b.Columns()[OrderStatusReceived]; len(col) != 1 || col[0].ID != "o2" {
		t.Errorf("received column = %v", col)
	}
}

// An order taken off the board while its move is in flight stays off.
func TestBoardMoveDoesNotResurrectRemovedOrder(t *testing.T) {
	o := sampleOrder("o1", "1", OrderStatusReady, time.Now())
	var b *Board
	b = NewBoard([]models.Order{o}, moverFunc(func(_ context.Context, id, to, _ string) (*models.Order, bool, error) {
		b.Remove(id)
		done := o
		done.Status = to
		return &done, true, nil
	}))
	if err := b.Move(context.Background(), "o1", OrderStatusCompleted, "admin"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if b.Len() != 0 {
		t.Errorf("Len = %d, want 0", b.Len())
	}
}
