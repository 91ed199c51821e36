// Package rfc defines the boundary to the RFC transport. rfcbridge never opens
// or closes backend connections; it receives a Caller that already works.
package rfc

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Params are the named importing/tables parameters of a call.
type Params map[string]any

// Result holds the exporting and tables parameters returned by a call.
// Tables are []map[string]any, structures map[string]any.
type Result map[string]any

// Caller issues one synchronous call against a backend connection.
type Caller interface {
	Call(ctx context.Context, function string, params Params) (Result, error)
}

// CallerFunc adapts a function to the Caller interface.
type CallerFunc func(ctx context.Context, function string, params Params) (Result, error)

// Call implements Caller.
func (f CallerFunc) Call(ctx context.Context, function string, params Params) (Result, error) {
	return f(ctx, function, params)
}

// SerialCaller allows at most one call in flight on the wrapped connection.
// Connection handles of RFC libraries are not safe for concurrent use.
type SerialCaller struct {
	mu      sync.Mutex
	next    Caller
	timeout time.Duration
	logger  *zap.Logger
}

// NewSerialCaller wraps next. A positive timeout bounds every call.
func NewSerialCaller(next Caller, timeout time.Duration, logger *zap.Logger) *SerialCaller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SerialCaller{next: next, timeout: timeout, logger: logger}
}

// Call implements Caller.
func (s *SerialCaller) Call(ctx context.Context, function string, params Params) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindCommunication, Key: "CANCELLED", Message: err.Error(), cause: err}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.next.Call(ctx, function, params)
	elapsed := time.Since(start)

	if err != nil {
		s.logger.Debug("rfc call failed",
			zap.String("function", function),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return nil, AsError(err)
	}

	s.logger.Debug("rfc call completed",
		zap.String("function", function),
		zap.Duration("elapsed", elapsed))
	return result, nil
}
