package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	// NOTE: required to register the dialect for goqu.
	//
	// If you remove this import, goqu.Dialect("sqlite3") will
	// return a copy of the default dialect, which is not what we want,
	// and allocates a ton of memory.
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"

	_ "github.com/glebarez/go-sqlite"
)

var tracer = otel.Tracer("dirsync/store")

// insertChunkSize bounds the number of rows per bulk insert statement so we
// stay under sqlite's bound-parameter limit.
const insertChunkSize = 200

type pragma struct {
	name  string
	value string
}

// Store is the local sqlite snapshot of directory state across all tenants.
// All writes are tenant-scoped; a sync for one tenant never touches another
// tenant's rows.
type Store struct {
	db      *goqu.Database
	rawDB   *sql.DB
	dbPath  string
	pragmas []pragma
}

type StoreOption func(*Store)

func WithPragma(name string, value string) StoreOption {
	return func(s *Store) {
		s.pragmas = append(s.pragmas, pragma{name, value})
	}
}

// NewStore opens (creating if needed) the snapshot database at dbPath and
// ensures all tables exist.
func NewStore(ctx context.Context, dbPath string, opts ...StoreOption) (*Store, error) {
	ctx, span := tracer.Start(ctx, "NewStore")
	defer span.End()

	rawDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", dbPath, err)
	}

	s := &Store{
		db:     goqu.New("sqlite3", rawDB),
		rawDB:  rawDB,
		dbPath: dbPath,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, p := range s.pragmas {
		if _, err := rawDB.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			_ = rawDB.Close()
			return nil, fmt.Errorf("store: applying pragma %s: %w", p.name, err)
		}
	}

	if err := s.initTables(ctx); err != nil {
		_ = rawDB.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initTables(ctx context.Context) error {
	l := ctxzap.Extract(ctx)
	for _, t := range allTableDescriptors {
		stmt, args := t.Schema()
		_, err := s.db.ExecContext(ctx, fmt.Sprintf(stmt, args...))
		if err != nil {
			l.Error("failed to create table", zap.String("table", t.Name()), zap.Error(err))
			return fmt.Errorf("store: creating table %s: %w", t.Name(), err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s.rawDB == nil {
		return nil
	}
	return s.rawDB.Close()
}

// bulkUpsert inserts rows in chunks, updating in place on conflict with the
// table's natural key.
func (s *Store) bulkUpsert(ctx context.Context, table string, conflictTarget string, rows []goqu.Record) error {
	for len(rows) > 0 {
		chunk := rows
		if len(chunk) > insertChunkSize {
			chunk = chunk[:insertChunkSize]
		}
		rows = rows[len(chunk):]

		recs := make([]interface{}, 0, len(chunk))
		updates := goqu.Record{}
		for col := range chunk[0] {
			updates[col] = goqu.I("EXCLUDED." + col)
		}
		for _, r := range chunk {
			recs = append(recs, r)
		}

		q := s.db.Insert(table).
			Prepared(true).
			Rows(recs...).
			OnConflict(goqu.DoUpdate(conflictTarget, updates))
		query, args, err := q.ToSQL()
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("store: upserting into %s: %w", table, err)
		}
	}
	return nil
}

// replaceForTenant swaps a tenant's rows in a relationship table for the
// given set, atomically: delete everything the tenant had, insert the new
// rows, all in one transaction. Rows must already be assembled; no network
// calls happen inside the transaction.
func (s *Store) replaceForTenant(ctx context.Context, table string, tenantID string, rows []goqu.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	delQ, delArgs, err := tx.Delete(table).
		Prepared(true).
		Where(goqu.C("tenant_id").Eq(tenantID)).
		ToSQL()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, delQ, delArgs...); err != nil {
		return fmt.Errorf("store: clearing %s rows for tenant %s: %w", table, tenantID, err)
	}

	for len(rows) > 0 {
		chunk := rows
		if len(chunk) > insertChunkSize {
			chunk = chunk[:insertChunkSize]
		}
		rows = rows[len(chunk):]

		recs := make([]interface{}, 0, len(chunk))
		for _, r := range chunk {
			recs = append(recs, r)
		}
		insQ, insArgs, err := tx.Insert(table).Prepared(true).Rows(recs...).ToSQL()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insQ, insArgs...); err != nil {
			return fmt.Errorf("store: replacing %s rows for tenant %s: %w", table, tenantID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) countForTenant(ctx context.Context, table string, tenantID string) (int64, error) {
	count, err := s.db.From(table).
		Prepared(true).
		Where(goqu.C("tenant_id").Eq(tenantID)).
		CountContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("store: counting %s rows for tenant %s: %w", table, tenantID, err)
	}
	return count, nil
}
