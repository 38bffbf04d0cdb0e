package store

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/msplens/dirsync/pkg/transform"
)

// PutGroups upserts group records keyed by (group_id, tenant_id).
func (s *Store) PutGroups(ctx context.Context, recs ...transform.GroupRecord) error {
	ctx, span := tracer.Start(ctx, "Store.PutGroups")
	defer span.End()

	now := time.Now().UTC().Format(timestampFormat)
	rows := make([]goqu.Record, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, goqu.Record{
			"group_id":         r.GroupID,
			"tenant_id":        r.TenantID,
			"display_name":     r.DisplayName,
			"description":      r.Description,
			"group_type":       r.GroupType,
			"mail_enabled":     boolInt(r.MailEnabled),
			"security_enabled": boolInt(r.SecurityEnabled),
			"mail_nickname":    r.MailNickname,
			"visibility":       r.Visibility,
			"member_count":     r.MemberCount,
			"owner_count":      r.OwnerCount,
			"synced_at":        now,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return s.bulkUpsert(ctx, groups.Name(), "group_id, tenant_id", rows)
}

func (s *Store) GroupCount(ctx context.Context, tenantID string) (int64, error) {
	return s.countForTenant(ctx, groups.Name(), tenantID)
}
