package store

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/msplens/dirsync/pkg/transform"
)

// PutLicenses upserts subscribed SKUs keyed by (sku_id, tenant_id).
func (s *Store) PutLicenses(ctx context.Context, recs ...transform.LicenseRecord) error {
	ctx, span := tracer.Start(ctx, "Store.PutLicenses")
	defer span.End()

	now := time.Now().UTC().Format(timestampFormat)
	rows := make([]goqu.Record, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, goqu.Record{
			"sku_id":           r.SkuID,
			"tenant_id":        r.TenantID,
			"sku_part_number":  r.SkuPartNumber,
			"display_name":     r.DisplayName,
			"status":           r.Status,
			"total_units":      r.TotalUnits,
			"consumed_units":   r.ConsumedUnits,
			"available_units":  r.AvailableUnits,
			"suspended_units":  r.SuspendedUnits,
			"warning_units":    r.WarningUnits,
			"monthly_cost_usd": r.MonthlyCostUSD,
			"synced_at":        now,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return s.bulkUpsert(ctx, licenses.Name(), "sku_id, tenant_id", rows)
}

// ReplaceUserLicenses swaps the tenant's user/license links for the given
// set in one transaction.
func (s *Store) ReplaceUserLicenses(ctx context.Context, tenantID string, recs []transform.UserLicenseRecord) error {
	ctx, span := tracer.Start(ctx, "Store.ReplaceUserLicenses")
	defer span.End()

	now := time.Now().UTC().Format(timestampFormat)
	rows := make([]goqu.Record, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, goqu.Record{
			"user_id":   r.UserID,
			"sku_id":    r.SkuID,
			"tenant_id": tenantID,
			"synced_at": now,
		})
	}
	return s.replaceForTenant(ctx, userLicenses.Name(), tenantID, rows)
}

func (s *Store) LicenseCount(ctx context.Context, tenantID string) (int64, error) {
	return s.countForTenant(ctx, licenses.Name(), tenantID)
}

func (s *Store) UserLicenseCount(ctx context.Context, tenantID string) (int64, error) {
	return s.countForTenant(ctx, userLicenses.Name(), tenantID)
}
