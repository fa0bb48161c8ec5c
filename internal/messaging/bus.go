// Package messaging provides the in-process event bus that decouples
// mutating operations from the aggregate recomputation they trigger.
package messaging

import (
	"sync"

	"go.uber.org/zap"

	"study-match/internal/domain"
)

// Handler processes one event. Errors are logged and swallowed; they never
// reach the operation that published the event.
type Handler func(event domain.Event) error

// Bus is the publish/subscribe contract used by services.
type Bus interface {
	Subscribe(eventType domain.EventType, handler Handler)
	Publish(event domain.Event)
	Close()
}

// InMemoryBus dispatches events asynchronously through a bounded worker
// pool. Handlers run in their own failure domain: panics are recovered and
// errors only logged, so a recomputation failure cannot roll back the
// join/leave/submit that raised the event.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[domain.EventType][]Handler
	workers  chan struct{}
	logger   *zap.Logger
	sync     bool
	closed   bool
	closeCh  chan struct{}
	wg       sync.WaitGroup
}

// NewInMemoryBus creates an async bus with the given worker pool size.
func NewInMemoryBus(workerPoolSize int, logger *zap.Logger) *InMemoryBus {
	if workerPoolSize <= 0 {
		workerPoolSize = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryBus{
		handlers: make(map[domain.EventType][]Handler),
		workers:  make(chan struct{}, workerPoolSize),
		logger:   logger,
		closeCh:  make(chan struct{}),
	}
}

// NewSyncBus runs handlers inline on Publish. Tests use it to observe
// handler effects without draining goroutines.
func NewSyncBus(logger *zap.Logger) *InMemoryBus {
	bus := NewInMemoryBus(1, logger)
	bus.sync = true
	return bus
}

// Subscribe registers a handler for one event type.
func (b *InMemoryBus) Subscribe(eventType domain.EventType, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers the event to every subscribed handler. In async mode it
// returns immediately; callers must not assume handlers already ran.
func (b *InMemoryBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		b.logger.Warn("publish on closed bus", zap.String("event_type", string(event.EventType())))
		return
	}
	handlers := append([]Handler(nil), b.handlers[event.EventType()]...)
	// Add while still holding the lock: Close flips closed under the write
	// lock before it waits, so no Add can land after Wait started.
	if !b.sync {
		b.wg.Add(len(handlers))
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		if b.sync {
			b.run(event, handler)
			continue
		}
		go func(h Handler) {
			defer b.wg.Done()
			select {
			case b.workers <- struct{}{}:
				defer func() { <-b.workers }()
			case <-b.closeCh:
				return
			}
			b.run(event, h)
		}(handler)
	}
}

// run executes one handler with panic recovery. Failures are logged only.
func (b *InMemoryBus) run(event domain.Event, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panic",
				zap.String("event_type", string(event.EventType())),
				zap.Any("panic", r),
			)
		}
	}()

	if err := handler(event); err != nil {
		b.logger.Error("event handler failed",
			zap.String("event_type", string(event.EventType())),
			zap.Error(err),
		)
	}
}

// Close stops accepting events and waits for in-flight handlers.
func (b *InMemoryBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.closeCh)
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("event bus closed")
}

var _ Bus = (*InMemoryBus)(nil)
