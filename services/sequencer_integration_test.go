package services

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"food-storefront/db"
	"food-storefront/models"

	"github.com/go-redis/redis/v8"
)

// Days far in the past so the tests never touch real orders.
var (
	seqSeededDay     = time.Date(2001, 2, 3, 12, 0, 0, 0, time.UTC)
	seqNextDay       = time.Date(2001, 2, 4, 12, 0, 0, 0, time.UTC)
	seqConcurrentDay = time.Date(2001, 2, 5, 12, 0, 0, 0, time.UTC)
)

func seqTestOrder(day time.Time, n int) *models.Order {
	return &models.Order{
		ID:            "seq-test-" + FormatOrderNumber(day, n),
		OrderNumber:   FormatOrderNumber(day, n),
		Customer:      models.CustomerInfo{Name: "Sequence Test", Phone: "79000000"},
		Items:         []models.LineItem{},
		Status:        OrderStatusCompleted,
		PaymentMethod: PaymentMethodCash,
		PaymentStatus: "paid",
		OrderDate:     day,
	}
}

func cleanSequenceDays(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	from, _ := DayBounds(seqSeededDay)
	_, to := DayBounds(seqConcurrentDay)
	if _, err := db.Pool.Exec(ctx, `DELETE FROM orders WHERE order_date >= $1 AND order_date <= $2`, from, to); err != nil {
		t.Fatalf("clean orders: %v", err)
	}
	if _, err := db.Pool.Exec(ctx, `DELETE FROM order_sequences WHERE day BETWEEN $1::date AND $2::date`,
		seqSeededDay.Format("2006-01-02"), seqConcurrentDay.Format("2006-01-02")); err != nil {
		t.Fatalf("clean sequences: %v", err)
	}
}

// distinctNext calls Next n times concurrently and fails on any repeat.
func distinctNext(t *testing.T, seq Sequencer, day time.Time, n int) map[int]bool {
	t.Helper()
	ctx := context.Background()
	var wg sync.WaitGroup
	results := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := seq.Next(ctx, day)
			if err != nil {
				t.Error(err)
				return
			}
			results <- v
		}()
	}
	wg.Wait()
	close(results)
	seen := make(map[int]bool)
	for v := range results {
		if seen[v] {
			t.Errorf("sequence %d handed out twice", v)
		}
		seen[v] = true
	}
	return seen
}

func TestPgSequencer_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping sequencer integration test in short mode")
	}
	if db.Pool == nil {
		t.Skip("skipping sequencer integration test: no DB pool")
	}
	ctx := context.Background()
	store := NewPgStore(db.Pool)
	cleanSequenceDays(t)
	defer cleanSequenceDays(t)

	for i := 1; i <= 3; i++ {
		if err := store.CreateOrder(ctx, seqTestOrder(seqSeededDay, i)); err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
	}
	seq := NewPgSequencer(db.Pool)

	tests := []struct {
		name string
		day  time.Time
		want int
	}{
		{"day with 3 orders starts at 4", seqSeededDay, 4},
		{"then increments", seqSeededDay, 5},
		{"next day starts at 1", seqNextDay, 1},
	}
	for _, tt := range tests {
		got, err := seq.Next(ctx, tt.day)
		if err != nil {
			t.Fatalf("%s: Next: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: Next = %d, want %d", tt.name, got, tt.want)
		}
	}

	seen := distinctNext(t, seq, seqConcurrentDay, 20)
	for want := 1; want <= 20; want++ {
		if !seen[want] {
			t.Errorf("concurrent allocations missing %d", want)
		}
	}
}

func TestRedisSequencer_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis sequencer test in short mode")
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("skipping redis sequencer test: REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("skipping redis sequencer test: %v", err)
	}
	keys := []string{redisSequenceKey(seqSeededDay), redisSequenceKey(seqNextDay), redisSequenceKey(seqConcurrentDay)}
	rdb.Del(ctx, keys...)
	defer rdb.Del(ctx, keys...)

	counter := NewMemoryStore()
	for i := 1; i <= 3; i++ {
		counter.PutOrder(*seqTestOrder(seqSeededDay, i))
	}
	seq := NewRedisSequencer(rdb, counter)

	tests := []struct {
		name string
		day  time.Time
		want int
	}{
		{"day with 3 orders starts at 4", seqSeededDay, 4},
		{"then increments", seqSeededDay, 5},
		{"next day starts at 1", seqNextDay, 1},
	}
	for _, tt := range tests {
		got, err := seq.Next(ctx, tt.day)
		if err != nil {
			t.Fatalf("%s: Next: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: Next = %d, want %d", tt.name, got, tt.want)
		}
	}
	if ttl := rdb.TTL(ctx, keys[0]).Val(); ttl <= 0 || ttl > 48*time.Hour {
		t.Errorf("sequence key TTL = %v, want within 48h", ttl)
	}

	seen := distinctNext(t, seq, seqConcurrentDay, 20)
	if len(seen) != 20 {
		t.Errorf("got %d distinct numbers, want 20", len(seen))
	}
}
