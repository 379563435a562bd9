package services

import (
	"context"
	"sync"
	"time"

	"food-storefront/models"

	"github.com/rs/zerolog"
)

// AsyncNotifier hands events to a single background worker so chat, email
// and broker calls stay off the request path. Events are delivered in the
// order they were raised. Each delivery gets a context that survives the
// request but expires after timeout.
type AsyncNotifier struct {
	next    OrderNotifier
	timeout time.Duration
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan func()
	done   chan struct{}
}

func NewAsyncNotifier(next OrderNotifier, timeout time.Duration, buffer int, log zerolog.Logger) *AsyncNotifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if buffer < 1 {
		buffer = 1
	}
	a := &AsyncNotifier{
		next:    next,
		timeout: timeout,
		log:     log,
		queue:   make(chan func(), buffer),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncNotifier) run() {
	defer close(a.done)
	for job := range a.queue {
		job()
	}
}

func (a *AsyncNotifier) enqueue(ctx context.Context, deliver func(ctx context.Context)) {
	detached := context.WithoutCancel(ctx)
	job := func() {
		c, cancel := context.WithTimeout(detached, a.timeout)
		defer cancel()
		deliver(c)
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		job()
		return
	}
	select {
	case a.queue <- job:
	default:
		// Queue full: deliver inline rather than lose the event.
		a.log.Warn().Msg("notification queue full, delivering inline")
		job()
	}
}

func (a *AsyncNotifier) OrderCreated(ctx context.Context, o *models.Order) {
	cp := cloneOrder(*o)
	a.enqueue(ctx, func(c context.Context) { a.next.OrderCreated(c, &cp) })
}

func (a *AsyncNotifier) OrderStatusChanged(ctx context.Context, o *models.Order, from string) {
	cp := cloneOrder(*o)
	a.enqueue(ctx, func(c context.Context) { a.next.OrderStatusChanged(c, &cp, from) })
}

// Close delivers what is queued and stops the worker. Later events are
// delivered inline.
func (a *AsyncNotifier) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()
	<-a.done
}
