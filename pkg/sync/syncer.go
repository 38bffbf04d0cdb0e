package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/msplens/dirsync/pkg/capability"
	"github.com/msplens/dirsync/pkg/graph"
	"github.com/msplens/dirsync/pkg/store"
	"github.com/msplens/dirsync/pkg/tenant"
)

var tracer = otel.Tracer("dirsync/sync")

const (
	// defaultTenantTimeout bounds one tenant/kind pass end to end. A stuck
	// tenant degrades, it does not stall the fleet.
	defaultTenantTimeout = 10 * time.Minute

	// defaultUserWorkers bounds concurrent per-user membership lookups.
	defaultUserWorkers = 20

	// defaultGroupWorkers bounds concurrent per-group member and owner
	// listings.
	defaultGroupWorkers = 10
)

// Syncer runs entity sync passes for individual tenants: fetch, enrich,
// transform, store.
type Syncer struct {
	tokens        graph.TokenSource
	store         *store.Store
	clientOpts    []graph.ClientOption
	userWorkers   int
	groupWorkers  int
	tenantTimeout time.Duration

	capMu    sync.Mutex
	capCache map[string]bool
}

type SyncerOption func(*Syncer)

// WithClientOptions forwards options to every upstream client the syncer
// builds, one pair per tenant.
func WithClientOptions(opts ...graph.ClientOption) SyncerOption {
	return func(s *Syncer) {
		s.clientOpts = append(s.clientOpts, opts...)
	}
}

func WithUserWorkers(n int) SyncerOption {
	return func(s *Syncer) {
		if n > 0 {
			s.userWorkers = n
		}
	}
}

func WithGroupWorkers(n int) SyncerOption {
	return func(s *Syncer) {
		if n > 0 {
			s.groupWorkers = n
		}
	}
}

func WithTenantTimeout(d time.Duration) SyncerOption {
	return func(s *Syncer) {
		if d > 0 {
			s.tenantTimeout = d
		}
	}
}

func NewSyncer(tokens graph.TokenSource, st *store.Store, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		tokens:        tokens,
		store:         st,
		userWorkers:   defaultUserWorkers,
		groupWorkers:  defaultGroupWorkers,
		tenantTimeout: defaultTenantTimeout,
		capCache:      map[string]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// writeCtx detaches store writes from an expired tenant deadline. Rows
// assembled before expiry still commit; only work that would need further
// upstream calls is abandoned.
func writeCtx(ctx context.Context) context.Context {
	if ctx.Err() == nil {
		return ctx
	}
	return context.WithoutCancel(ctx)
}

// clients builds the tenant's base and beta tier clients. They share the
// token source but keep independent retry state.
func (s *Syncer) clients(tenantID string) (*graph.Client, *graph.Client, error) {
	base, err := graph.NewClient(tenantID, graph.TierV1, s.tokens, s.clientOpts...)
	if err != nil {
		return nil, nil, err
	}
	beta, err := graph.NewClient(tenantID, graph.TierBeta, s.tokens, s.clientOpts...)
	if err != nil {
		return nil, nil, err
	}
	return base, beta, nil
}

// premium answers whether the tenant's tier exposes sign-in activity and
// the MFA registration report, probing at most once per tenant per process.
func (s *Syncer) premium(ctx context.Context, tenantID string, base, beta *graph.Client) bool {
	s.capMu.Lock()
	cached, ok := s.capCache[tenantID]
	s.capMu.Unlock()
	if ok {
		return cached
	}

	detected := capability.Detect(ctx, base, beta)

	s.capMu.Lock()
	s.capCache[tenantID] = detected
	s.capMu.Unlock()
	return detected
}

// RunTenantSync runs one sync pass for one tenant, recording a durable sync
// run row around it. It returns the number of records written; a non-nil
// error means the pass as a whole failed for this tenant.
func (s *Syncer) RunTenantSync(ctx context.Context, t tenant.Tenant, kind Kind) (int64, error) {
	ctx, span := tracer.Start(ctx, "Syncer.RunTenantSync")
	defer span.End()

	l := ctxzap.Extract(ctx).With(
		zap.String("tenant_id", t.TenantID),
		zap.String("tenant_name", t.Name()),
		zap.String("sync_kind", string(kind)),
	)
	ctx = ctxzap.ToContext(ctx, l)

	if s.tenantTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.tenantTimeout)
		defer cancel()
	}

	runID := uuid.New().String()
	if err := s.store.StartSyncRun(ctx, runID, t.TenantID, string(kind)); err != nil {
		return 0, err
	}

	start := time.Now()
	l.Info("starting tenant sync", zap.String("sync_run_id", runID))

	var synced, failed int64
	base, beta, err := s.clients(t.TenantID)
	if err == nil {
		switch kind {
		case KindUsers:
			synced, failed, err = s.syncUsers(ctx, t.TenantID, base, beta)
		case KindGroups:
			synced, failed, err = s.syncGroups(ctx, t.TenantID, base)
		case KindRoles:
			synced, failed, err = s.syncRoles(ctx, t.TenantID, base)
		case KindLicenses:
			synced, failed, err = s.syncLicenses(ctx, t.TenantID, base)
		case KindDevices:
			synced, failed, err = s.syncDevices(ctx, t.TenantID, base)
		case KindApplications:
			synced, failed, err = s.syncApplications(ctx, t.TenantID, base, beta)
		default:
			err = fmt.Errorf("unknown sync kind %q", kind)
		}
	}

	outcome := store.OutcomeCompleted
	switch {
	case err != nil:
		outcome = store.OutcomeFailed
	case failed > 0:
		outcome = store.OutcomeDegraded
	}
	if ferr := s.store.FinishSyncRun(writeCtx(ctx), runID, synced, failed, outcome); ferr != nil {
		l.Error("failed to close sync run", zap.String("sync_run_id", runID), zap.Error(ferr))
	}

	if err != nil {
		l.Error("tenant sync failed",
			zap.String("sync_run_id", runID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return synced, err
	}

	l.Info("tenant sync finished",
		zap.String("sync_run_id", runID),
		zap.String("outcome", outcome),
		zap.Int64("records_synced", synced),
		zap.Int64("records_failed", failed),
		zap.Duration("elapsed", time.Since(start)))
	return synced, nil
}
