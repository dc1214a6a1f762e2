package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/relay-service/internal/observability"
)

func TestRunnerRecordsOutcomes(t *testing.T) {
	metrics := observability.NewMetrics()
	r := NewRunner(nil, metrics, time.Second)
	var ran atomic.Int32

	r.Go("chat", func(context.Context) error {
		ran.Add(1)
		return nil
	})
	r.Go("chat", func(context.Context) error {
		ran.Add(1)
		return errors.New("boom")
	})
	r.Go("chat", func(context.Context) error {
		ran.Add(1)
		panic("bad payload")
	})
	r.Wait()

	assert.Equal(t, int32(3), ran.Load())
	flows := metrics.Snapshot().Flows
	assert.Equal(t, int64(1), flows["chat|ok"])
	assert.Equal(t, int64(2), flows["chat|failed"])
}

func TestRunnerContextHasDeadline(t *testing.T) {
	r := NewRunner(nil, nil, time.Minute)
	var hasDeadline bool
	r.Go("transcript", func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})
	r.Wait()
	assert.True(t, hasDeadline)
}
