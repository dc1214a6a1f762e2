package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/relay-service/internal/observability"
)

// Runner executes router continuations after the inbound request has been
// answered. Failures are logged and counted, never returned to the caller.
type Runner struct {
	logger  *zap.Logger
	metrics *observability.Metrics
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRunner creates a Runner. A positive timeout bounds each continuation.
func NewRunner(logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, metrics: metrics, timeout: timeout}
}

// Go runs fn in the background under a context detached from any request.
func (r *Runner) Go(flow string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx := context.Background()
		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		err := r.run(ctx, fn)
		if err != nil {
			r.logger.Error("flow failed", zap.String("flow", flow), zap.Error(err))
			r.metrics.RecordFlow(flow, "failed")
			return
		}
		r.metrics.RecordFlow(flow, "ok")
	}()
}

func (r *Runner) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("flow panicked", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn(ctx)
}

// Wait blocks until every started continuation has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}
