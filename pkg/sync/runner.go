package sync

import (
	"context"
	"sync"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/msplens/dirsync/pkg/health"
	"github.com/msplens/dirsync/pkg/tenant"
)

// defaultTenantConcurrency bounds how many tenants sync at once within one
// pass.
const defaultTenantConcurrency = 4

// Runner drives sync passes across a tenant fleet and feeds the health
// history with the outcome of each pass.
type Runner struct {
	syncer      *Syncer
	history     *health.History
	thresholds  health.Thresholds
	concurrency int
}

type RunnerOption func(*Runner)

func WithTenantConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func WithThresholds(t health.Thresholds) RunnerOption {
	return func(r *Runner) {
		r.thresholds = t
	}
}

func WithHistoryDepth(n int) RunnerOption {
	return func(r *Runner) {
		r.history = health.NewHistory(n)
	}
}

func NewRunner(syncer *Syncer, opts ...RunnerOption) *Runner {
	r := &Runner{
		syncer:      syncer,
		history:     health.NewHistory(health.DefaultHistoryDepth),
		concurrency: defaultTenantConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// History exposes the retained per-kind reports.
func (r *Runner) History() *health.History {
	return r.history
}

// RunKind syncs one kind across all tenants with bounded concurrency. One
// tenant's failure never aborts the others; the pass always runs to
// completion and the report captures the casualties.
func (r *Runner) RunKind(ctx context.Context, tenants []tenant.Tenant, kind Kind) health.Report {
	ctx, span := tracer.Start(ctx, "Runner.RunKind")
	defer span.End()

	l := ctxzap.Extract(ctx)
	l.Info("starting sync pass",
		zap.String("sync_kind", string(kind)),
		zap.Int("tenants", len(tenants)),
		zap.Int("concurrency", r.concurrency))

	results := make([]health.TenantResult, len(tenants))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, t := range tenants {
		g.Go(func() error {
			records, err := r.syncer.RunTenantSync(ctx, t, kind)
			mu.Lock()
			results[i] = health.TenantResult{
				TenantID: t.TenantID,
				Records:  records,
				Err:      err,
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	rep := health.Categorize(string(kind), results, r.thresholds)
	rep.Log(ctx)
	r.history.Add(rep)
	return rep
}

// RunAll syncs the given kinds in order across the fleet.
func (r *Runner) RunAll(ctx context.Context, tenants []tenant.Tenant, kinds []Kind) []health.Report {
	if len(kinds) == 0 {
		kinds = AllKinds()
	}
	reports := make([]health.Report, 0, len(kinds))
	for _, kind := range kinds {
		if ctx.Err() != nil {
			break
		}
		reports = append(reports, r.RunKind(ctx, tenants, kind))
	}
	return reports
}
