package store

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/msplens/dirsync/pkg/transform"
)

// PutRoles upserts activated directory roles keyed by (role_id, tenant_id).
func (s *Store) PutRoles(ctx context.Context, recs ...transform.RoleRecord) error {
	ctx, span := tracer.Start(ctx, "Store.PutRoles")
	defer span.End()

	now := time.Now().UTC().Format(timestampFormat)
	rows := make([]goqu.Record, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, goqu.Record{
			"role_id":       r.RoleID,
			"tenant_id":     r.TenantID,
			"display_name":  r.DisplayName,
			"description":   r.Description,
			"is_privileged": boolInt(r.IsPrivileged),
			"synced_at":     now,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return s.bulkUpsert(ctx, roles.Name(), "role_id, tenant_id", rows)
}

// ReplaceRoleAssignments swaps the tenant's role assignment links for the
// given set in one transaction. Role membership shrinks as well as grows,
// so the upsert path is not enough here.
func (s *Store) ReplaceRoleAssignments(ctx context.Context, tenantID string, recs []transform.RoleAssignmentRecord) error {
	ctx, span := tracer.Start(ctx, "Store.ReplaceRoleAssignments")
	defer span.End()

	now := time.Now().UTC().Format(timestampFormat)
	rows := make([]goqu.Record, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, goqu.Record{
			"user_id":   r.UserID,
			"role_id":   r.RoleID,
			"tenant_id": tenantID,
			"synced_at": now,
		})
	}
	return s.replaceForTenant(ctx, roleAssignments.Name(), tenantID, rows)
}

func (s *Store) RoleCount(ctx context.Context, tenantID string) (int64, error) {
	return s.countForTenant(ctx, roles.Name(), tenantID)
}

func (s *Store) RoleAssignmentCount(ctx context.Context, tenantID string) (int64, error) {
	return s.countForTenant(ctx, roleAssignments.Name(), tenantID)
}
