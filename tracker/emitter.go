package tracker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultMaxInFlight = 32
	DefaultSendTimeout = 10 * time.Second
)

// Event is one outbound telemetry call.
type Event interface {
	Name() string
	Deliver(ctx context.Context, remote Remote) error
}

// discarder is implemented by events that must observe being dropped.
type discarder interface {
	Discard()
}

// Emitter accepts events without reporting their outcome. Implementations
// must not block the caller on network I/O.
type Emitter interface {
	Emit(ev Event)
}

// AsyncEmitter delivers each event on its own goroutine. At most maxInFlight
// deliveries run at once; events arriving beyond that are dropped. Failures
// are logged and never retried.
type AsyncEmitter struct {
	remote  Remote
	logger  *zap.Logger
	sem     *semaphore.Weighted
	timeout time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsyncEmitter(remote Remote, logger *zap.Logger, maxInFlight int64, timeout time.Duration) *AsyncEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AsyncEmitter{
		remote:  remote,
		logger:  logger,
		sem:     semaphore.NewWeighted(maxInFlight),
		timeout: timeout,
		baseCtx: ctx,
		cancel:  cancel,
	}
}

func (e *AsyncEmitter) Emit(ev Event) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.drop(ev, "emitter closed")
		return
	}
	if !e.sem.TryAcquire(1) {
		e.mu.Unlock()
		e.drop(ev, "too many in-flight events")
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer e.sem.Release(1)

		ctx, cancel := context.WithTimeout(e.baseCtx, e.timeout)
		defer cancel()

		if err := ev.Deliver(ctx, e.remote); err != nil {
			e.logger.Warn("telemetry event failed", zap.String("event", ev.Name()), zap.Error(err))
		}
	}()
}

func (e *AsyncEmitter) drop(ev Event, reason string) {
	if d, ok := ev.(discarder); ok {
		d.Discard()
	}
	e.logger.Debug("telemetry event dropped", zap.String("event", ev.Name()), zap.String("reason", reason))
}

// Close stops accepting events and waits for in-flight deliveries. When ctx
// expires first the remaining deliveries are cancelled.
func (e *AsyncEmitter) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.cancel()
		return nil
	case <-ctx.Done():
		e.cancel()
		<-done
		return ctx.Err()
	}
}
