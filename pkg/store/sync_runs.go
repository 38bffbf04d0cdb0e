package store

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
)

// Outcomes recorded for a finished sync run.
const (
	OutcomeRunning   = "running"
	OutcomeCompleted = "completed"
	OutcomeDegraded  = "degraded"
	OutcomeFailed    = "failed"
)

// SyncRun is the durable audit row for one tenant/kind sync pass.
// Timestamps are stored and scanned as text in timestampFormat; the sqlite
// driver hands datetime columns back as strings.
type SyncRun struct {
	SyncRunID     string  `db:"sync_run_id"`
	TenantID      string  `db:"tenant_id"`
	SyncKind      string  `db:"sync_kind"`
	StartedAt     string  `db:"started_at"`
	EndedAt       *string `db:"ended_at"`
	RecordsSynced int64   `db:"records_synced"`
	RecordsFailed int64   `db:"records_failed"`
	Outcome       string  `db:"outcome"`
}

// StartSyncRun records the start of a sync pass.
func (s *Store) StartSyncRun(ctx context.Context, runID, tenantID, kind string) error {
	ctx, span := tracer.Start(ctx, "Store.StartSyncRun")
	defer span.End()

	q := s.db.Insert(syncRuns.Name()).
		Prepared(true).
		Rows(goqu.Record{
			"sync_run_id": runID,
			"tenant_id":   tenantID,
			"sync_kind":   kind,
			"started_at":  time.Now().UTC().Format(timestampFormat),
			"outcome":     OutcomeRunning,
		})
	query, args, err := q.ToSQL()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store: recording sync run %s: %w", runID, err)
	}
	return nil
}

// FinishSyncRun closes out a sync pass with its counts and outcome.
func (s *Store) FinishSyncRun(ctx context.Context, runID string, synced, failed int64, outcome string) error {
	ctx, span := tracer.Start(ctx, "Store.FinishSyncRun")
	defer span.End()

	q := s.db.Update(syncRuns.Name()).
		Prepared(true).
		Set(goqu.Record{
			"ended_at":       time.Now().UTC().Format(timestampFormat),
			"records_synced": synced,
			"records_failed": failed,
			"outcome":        outcome,
		}).
		Where(goqu.C("sync_run_id").Eq(runID))
	query, args, err := q.ToSQL()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store: closing sync run %s: %w", runID, err)
	}
	return nil
}

// LatestSyncRuns returns the most recent runs for a tenant and kind, newest
// first.
func (s *Store) LatestSyncRuns(ctx context.Context, tenantID, kind string, limit uint) ([]SyncRun, error) {
	ctx, span := tracer.Start(ctx, "Store.LatestSyncRuns")
	defer span.End()

	var runs []SyncRun
	err := s.db.From(syncRuns.Name()).
		Prepared(true).
		Select("sync_run_id", "tenant_id", "sync_kind", "started_at", "ended_at", "records_synced", "records_failed", "outcome").
		Where(goqu.C("tenant_id").Eq(tenantID), goqu.C("sync_kind").Eq(kind)).
		Order(goqu.C("started_at").Desc(), goqu.C("id").Desc()).
		Limit(limit).
		ScanStructsContext(ctx, &runs)
	if err != nil {
		return nil, fmt.Errorf("store: listing sync runs for tenant %s: %w", tenantID, err)
	}
	return runs, nil
}
