package services

import (
	"context"
	"sync"

	"food-storefront/models"
)

// StatusMover performs a persisted status change.
type StatusMover interface {
	Transition(ctx context.Context, id, to, changedBy string) (*models.Order, bool, error)
}

// Board is the admin's view of orders grouped by status. Moves are applied
// locally first and reverted if the store rejects them, so the view never
// silently drifts from what is stored.
type Board struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	seq    []string
	mover  StatusMover
}

func NewBoard(orders []models.Order, mover StatusMover) *Board {
	b := &Board{orders: make(map[string]*models.Order), mover: mover}
	for _, o := range orders {
		b.Add(o)
	}
	return b
}

// Add inserts or replaces an order.
func (b *Board) Add(o models.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.orders[o.ID]; !ok {
		b.seq = append(b.seq, o.ID)
	}
	cp := o
	b.orders[o.ID] = &cp
}

// Remove drops an order from the board.
func (b *Board) Remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.orders[id]; !ok {
		return
	}
	delete(b.orders, id)
	for i, x := range b.seq {
		if x == id {
			b.seq = append(b.seq[:i], b.seq[i+1:]...)
			break
		}
	}
}

// Len is the number of orders on the board.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.orders)
}

func (b *Board) Get(id string) (models.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[id]
	if !ok {
		return models.Order{}, false
	}
	return *o, true
}

// Columns groups orders by status; every board status has an entry.
func (b *Board) Columns() map[string][]models.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	cols := make(map[string][]models.Order, len(BoardStatuses))
	for _, s := range BoardStatuses {
		cols[s] = []models.Order{}
	}
	for _, id := range b.seq {
		o := b.orders[id]
		cols[o.Status] = append(cols[o.Status], *o)
	}
	return cols
}

// Counts returns the number of orders per status.
func (b *Board) Counts() map[string]int {
	cols := b.Columns()
	counts := make(map[string]int, len(cols))
	for s, list := range cols {
		counts[s] = len(list)
	}
	return counts
}

// Move sets the order's status right away, then persists it. On failure
// the previous status is put back, unless someone else changed it meanwhile.
func (b *Board) Move(ctx context.Context, id, to, changedBy string) error {
	b.mu.Lock()
	o, ok := b.orders[id]
	if !ok {
		b.mu.Unlock()
		return ErrOrderNotFound
	}
	prior := o.Status
	if prior == to {
		b.mu.Unlock()
		return nil
	}
	o.Status = to
	b.mu.Unlock()

	stored, _, err := b.mover.Transition(ctx, id, to, changedBy)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		if o.Status == to {
			o.Status = prior
		}
		return err
	}
	if _, still := b.orders[id]; stored != nil && still {
		cp := *stored
		b.orders[id] = &cp
	}
	return nil
}
