package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recserve/internal/domain/entity"
	"recserve/internal/domain/repository"
	"recserve/internal/metrics"
)

// callGuard bounds the time a single upstream call may occupy a request
// worker. We create a scoped context so one slow model or storage call
// doesn't hang the whole server; a blown deadline surfaces as a distinct
// timeout error and is flagged in telemetry. No retries: model calls are
// idempotent but expensive, and retries belong to the caller.
type callGuard struct {
	timeout time.Duration
	target  string // metric label: "model" or "storage"
}

func (g callGuard) infer(ctx context.Context, m repository.Model, inputs map[string]any) (map[string]any, error) {
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := m.Infer(cctx, inputs)
	if err != nil {
		return nil, g.wrap(fmt.Errorf("model %s: %w", m.Name(), err))
	}
	return out, nil
}

func (g callGuard) run(ctx context.Context, fn func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.wrap(fn(cctx))
}

func (g callGuard) wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		metrics.UpstreamTimeouts.WithLabelValues(g.target).Inc()
		return fmt.Errorf("%s: %w", g.target, entity.ErrUpstreamTimeout)
	}
	return err
}
