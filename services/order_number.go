package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
)

const maxOrderNumberAttempts = 3

// FormatOrderNumber renders the human order number YYMMDD-NNN.
func FormatOrderNumber(day time.Time, seq int) string {
	return fmt.Sprintf("%s-%03d", day.Format("060102"), seq)
}

// DayBounds returns the first and last instant of t's calendar day in t's location.
func DayBounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// Sequencer hands out the next sequence number for a calendar day.
type Sequencer interface {
	Next(ctx context.Context, day time.Time) (int, error)
}

// OrderCounter counts orders placed in [start, end].
type OrderCounter interface {
	CountOrdersBetween(ctx context.Context, start, end time.Time) (int, error)
}

// OrderNumberAllocator turns a sequencer into formatted order numbers in the shop's timezone.
type OrderNumberAllocator struct {
	seq Sequencer
	loc *time.Location
}

func NewOrderNumberAllocator(seq Sequencer, loc *time.Location) *OrderNumberAllocator {
	if loc == nil {
		loc = time.Local
	}
	return &OrderNumberAllocator{seq: seq, loc: loc}
}

// Allocate returns the order number for an order placed at t.
func (a *OrderNumberAllocator) Allocate(ctx context.Context, t time.Time) (string, error) {
	day := t.In(a.loc)
	n, err := a.seq.Next(ctx, day)
	if err != nil {
		return "", fmt.Errorf("next order sequence: %w", err)
	}
	return FormatOrderNumber(day, n), nil
}

// CountSequencer is count-then-increment: it reads how many orders exist
// today and returns one more. Two callers that read the same count get the
// same number; the unique index on order_number and the retry in checkout
// are what keep it from producing duplicates.
type CountSequencer struct {
	counter OrderCounter
}

func NewCountSequencer(counter OrderCounter) *CountSequencer {
	return &CountSequencer{counter: counter}
}

func (s *CountSequencer) Next(ctx context.Context, day time.Time) (int, error) {
	start, end := DayBounds(day)
	n, err := s.counter.CountOrdersBetween(ctx, start, end)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// MemorySequencer is an atomic per-day counter for a single process. With a
// counter it starts each day after the orders already stored for it, so a
// restart does not hand out numbers that are taken.
type MemorySequencer struct {
	mu      sync.Mutex
	last    map[string]int
	counter OrderCounter
}

// NewMemorySequencer takes an optional counter used to seed unseen days.
func NewMemorySequencer(counter OrderCounter) *MemorySequencer {
	return &MemorySequencer{last: make(map[string]int), counter: counter}
}

// Seed sets the last used number for a day.
func (s *MemorySequencer) Seed(day time.Time, last int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[day.Format("2006-01-02")] = last
}

func (s *MemorySequencer) Next(ctx context.Context, day time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := day.Format("2006-01-02")
	if _, seen := s.last[key]; !seen && s.counter != nil {
		start, end := DayBounds(day)
		n, err := s.counter.CountOrdersBetween(ctx, start, end)
		if err != nil {
			return 0, fmt.Errorf("seed sequence for %s: %w", key, err)
		}
		s.last[key] = n
	}
	s.last[key]++
	return s.last[key], nil
}

// PgSequencer keeps one counter row per day. The upsert is a single
// statement, so concurrent checkouts serialize on the row lock. A day's row
// is seeded from the orders already stored for it.
type PgSequencer struct {
	pool *pgxpool.Pool
}

func NewPgSequencer(pool *pgxpool.Pool) *PgSequencer {
	return &PgSequencer{pool: pool}
}

func (s *PgSequencer) Next(ctx context.Context, day time.Time) (int, error) {
	start, end := DayBounds(day)
	var n int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO order_sequences (day, last_value, updated_at)
		VALUES ($1::date, (SELECT COUNT(*) FROM orders WHERE order_date >= $2 AND order_date <= $3) + 1, now())
		ON CONFLICT (day) DO UPDATE SET
			last_value = order_sequences.last_value + 1,
			updated_at = now()
		RETURNING last_value`,
		day.Format("2006-01-02"), start, end,
	).Scan(&n)
	return n, err
}

// RedisSequencer uses INCR on a per-day key, for deployments running several
// storefront instances against one Redis.
type RedisSequencer struct {
	rdb     *redis.Client
	counter OrderCounter
	ttl     time.Duration
}

func NewRedisSequencer(rdb *redis.Client, counter OrderCounter) *RedisSequencer {
	return &RedisSequencer{rdb: rdb, counter: counter, ttl: 48 * time.Hour}
}

func redisSequenceKey(day time.Time) string {
	return "order_seq:" + day.Format("060102")
}

func (s *RedisSequencer) Next(ctx context.Context, day time.Time) (int, error) {
	key := redisSequenceKey(day)
	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		seed := 0
		if s.counter != nil {
			start, end := DayBounds(day)
			if seed, err = s.counter.CountOrdersBetween(ctx, start, end); err != nil {
				return 0, err
			}
		}
		// Only the first writer seeds; everyone else increments the seeded value.
		if _, err := s.rdb.SetNX(ctx, key, seed, s.ttl).Result(); err != nil {
			return 0, err
		}
	}
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, fmt.Errorf("sequence key %s vanished", key)
		}
		return 0, err
	}
	return int(n), nil
}
