package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// outboxAttemptTimeout bounds each best-effort persistence attempt.
const outboxAttemptTimeout = 5 * time.Second

// Outbox is the best-effort persistence queue. Each submitted intent is
// attempted exactly once and discarded; failures are logged and never
// surfaced, retried, or allowed to block a state transition. This keeps
// the reducer pure and the engine responsive while the durable store is
// updated opportunistically.
type Outbox struct {
	log *slog.Logger

	mu     sync.Mutex
	closed bool

	jobs chan outboxJob
	done chan struct{}
}

type outboxJob struct {
	name string
	fn   func(context.Context) error
}

// NewOutbox starts the single worker goroutine.
func NewOutbox(log *slog.Logger) *Outbox {
	o := &Outbox{
		log:  log,
		jobs: make(chan outboxJob, 64),
		done: make(chan struct{}),
	}
	go o.run()
	return o
}

func (o *Outbox) run() {
	defer close(o.done)
	for j := range o.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), outboxAttemptTimeout)
		if err := j.fn(ctx); err != nil {
			o.log.Error("best-effort write failed", "op", j.name, "error", err)
		} else {
			o.log.Debug("best-effort write ok", "op", j.name)
		}
		cancel()
	}
}

// Submit enqueues an intent without blocking. A full queue drops the
// intent, which is an accepted data-loss tradeoff of the best-effort
// policy. Submitting after Close drops the intent as well.
func (o *Outbox) Submit(name string, fn func(context.Context) error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		o.log.Error("outbox closed, dropping intent", "op", name)
		return
	}
	select {
	case o.jobs <- outboxJob{name: name, fn: fn}:
	default:
		o.log.Error("outbox full, dropping intent", "op", name)
	}
}

// Flush blocks until every intent submitted before the call has been
// attempted.
func (o *Outbox) Flush() {
	fence := make(chan struct{})
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		<-o.done
		return
	}
	o.jobs <- outboxJob{name: "flush", fn: func(context.Context) error {
		close(fence)
		return nil
	}}
	o.mu.Unlock()
	<-fence
}

// Close drains the queue and stops the worker. Idempotent.
func (o *Outbox) Close() {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.jobs)
	}
	o.mu.Unlock()
	<-o.done
}
