package enrich

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("dirsync/enrich")

// DefaultWorkers bounds in-flight secondary lookups. The bound doubles as
// the upstream request-rate control for enrichment at batch scale; raising it
// past ~20 starts tripping the directory API throttling.
const DefaultWorkers = 10

// LookupFunc resolves one secondary lookup for one entity.
type LookupFunc[T any] func(ctx context.Context, entityID string) (T, error)

// Results holds the merged output of one fan-out: completed values keyed by
// entity ID, and per-entity failures for callers that want to log them.
// Entities absent from both maps were abandoned by cancellation.
type Results[T any] struct {
	Values map[string]T
	Errors map[string]error
}

// Get returns the completed value for an entity, if its lookup succeeded.
func (r *Results[T]) Get(entityID string) (T, bool) {
	v, ok := r.Values[entityID]
	return v, ok
}

// FanOut resolves one lookup kind for a batch of entities over a bounded
// worker pool. Per-entity failures are recorded and logged, never fatal: a
// failed lookup degrades that one entity and leaves the rest of the batch
// untouched. Completion order is not observable in the result; each entity's
// slot is written exactly once.
//
// Cancelling ctx abandons undispatched and in-flight work; values merged
// before cancellation remain valid.
func FanOut[T any](ctx context.Context, name string, workers int, entityIDs []string, lookup LookupFunc[T]) *Results[T] {
	ctx, span := tracer.Start(ctx, "enrich.FanOut")
	defer span.End()

	if workers <= 0 {
		workers = DefaultWorkers
	}

	l := ctxzap.Extract(ctx)

	type completion struct {
		entityID string
		value    T
		err      error
	}

	completions := make(chan completion)
	out := &Results[T]{
		Values: make(map[string]T, len(entityIDs)),
		Errors: make(map[string]error),
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for c := range completions {
			if c.err != nil {
				l.Debug("enrichment lookup failed",
					zap.String("lookup", name),
					zap.String("entity_id", c.entityID),
					zap.Error(c.err))
				out.Errors[c.entityID] = c.err
				continue
			}
			out.Values[c.entityID] = c.value
		}
	}()

	var g errgroup.Group
	g.SetLimit(workers)

	for _, entityID := range entityIDs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			value, err := lookup(ctx, entityID)
			completions <- completion{entityID: entityID, value: value, err: err}
			return nil
		})
	}

	_ = g.Wait()
	close(completions)
	<-drained

	if len(out.Errors) > 0 {
		l.Info("enrichment completed with degraded entities",
			zap.String("lookup", name),
			zap.Int("total", len(entityIDs)),
			zap.Int("failed", len(out.Errors)))
	}

	return out
}
