package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultQueueSize is the number of notifications waiting for delivery
	// before new ones are dropped
	DefaultQueueSize = 256
	// DefaultSendTimeout bounds one delivery attempt
	DefaultSendTimeout = 5 * time.Second
)

var (
	// ErrQueueFull is returned when a notification is dropped
	ErrQueueFull = errors.New("notification queue is full")
	// ErrNotifierClosed is returned by Notify after Close
	ErrNotifierClosed = errors.New("notifier is closed")
)

// AsyncNotifier queues notifications and delivers them to the wrapped
// Notifier from a background goroutine. Notify never waits on the sink.
type AsyncNotifier struct {
	next        Notifier
	queue       chan *DecisionNotification
	sendTimeout time.Duration
	logger      *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsyncNotifier starts the delivery goroutine. Non-positive sizes and
// timeouts fall back to the defaults.
func NewAsyncNotifier(next Notifier, queueSize int, sendTimeout time.Duration, logger *zap.Logger) *AsyncNotifier {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	a := &AsyncNotifier{
		next:        next,
		queue:       make(chan *DecisionNotification, queueSize),
		sendTimeout: sendTimeout,
		logger:      logger,
		done:        make(chan struct{}),
	}
	go a.run()
	return a
}

// Notify enqueues n. A full queue drops n and returns ErrQueueFull.
func (a *AsyncNotifier) Notify(_ context.Context, n *DecisionNotification) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrNotifierClosed
	}
	select {
	case a.queue <- n:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close delivers what is already queued, then closes the wrapped notifier
func (a *AsyncNotifier) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return a.next.Close()
}

func (a *AsyncNotifier) run() {
	defer close(a.done)
	for n := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.sendTimeout)
		if err := a.next.Notify(ctx, n); err != nil {
			a.logger.Warn("decision notification not delivered",
				zap.String("order_id", n.OrderID),
				zap.String("status", n.Status),
				zap.Error(err),
			)
		}
		cancel()
	}
}

var _ Notifier = (*AsyncNotifier)(nil)
