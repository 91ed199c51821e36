package rfc

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Breaker states
const (
	BreakerClosed   = "closed"
	BreakerHalfOpen = "half-open"
	BreakerOpen     = "open"
)

// KeyCircuitOpen is the key of calls rejected by an open breaker.
const KeyCircuitOpen = "CIRCUIT_OPEN"

// BreakerCaller stops calling a backend that keeps failing at the transport
// level. After Threshold consecutive communication or logon failures it
// rejects calls for ResetTimeout, then lets one probe call through.
// Application errors such as NOT_FOUND count as successes.
type BreakerCaller struct {
	next         Caller
	threshold    int
	resetTimeout time.Duration
	logger       *zap.Logger
	now          func() time.Time

	mu          sync.Mutex
	state       string
	failures    int
	lastFailure time.Time
}

// NewBreakerCaller wraps next. A threshold below one disables the breaker.
func NewBreakerCaller(next Caller, threshold int, resetTimeout time.Duration, logger *zap.Logger) *BreakerCaller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BreakerCaller{
		next:         next,
		threshold:    threshold,
		resetTimeout: resetTimeout,
		logger:       logger,
		now:          time.Now,
		state:        BreakerClosed,
	}
}

// Call implements Caller.
func (b *BreakerCaller) Call(ctx context.Context, function string, params Params) (Result, error) {
	if b.threshold < 1 {
		return b.next.Call(ctx, function, params)
	}
	if !b.allow() {
		return nil, NewError(KindCommunication, KeyCircuitOpen, "backend unavailable, calls suspended after repeated failures")
	}

	result, err := b.next.Call(ctx, function, params)
	b.record(function, err)
	return result, err
}

// State returns the current breaker state.
func (b *BreakerCaller) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *BreakerCaller) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.lastFailure) < b.resetTimeout {
			return false
		}
		b.state = BreakerHalfOpen
		return true
	case BreakerHalfOpen:
		// one probe at a time
		return false
	}
	return true
}

func (b *BreakerCaller) record(function string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !transportFailure(err) {
		b.failures = 0
		b.state = BreakerClosed
		return
	}

	b.failures++
	b.lastFailure = b.now()
	if b.state == BreakerHalfOpen || b.failures >= b.threshold {
		if b.state != BreakerOpen {
			b.logger.Warn("backend circuit opened",
				zap.String("function", function),
				zap.Int("failures", b.failures),
				zap.Duration("reset_timeout", b.resetTimeout))
		}
		b.state = BreakerOpen
	}
}

func transportFailure(err error) bool {
	if err == nil {
		return false
	}
	kind := AsError(err).Kind
	return kind == KindCommunication || kind == KindLogon
}
