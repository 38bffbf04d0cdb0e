package store

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/msplens/dirsync/pkg/transform"
)

// PutDevices upserts device records keyed by (device_id, tenant_id).
func (s *Store) PutDevices(ctx context.Context, recs ...transform.DeviceRecord) error {
	ctx, span := tracer.Start(ctx, "Store.PutDevices")
	defer span.End()

	now := time.Now().UTC().Format(timestampFormat)
	rows := make([]goqu.Record, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, goqu.Record{
			"device_id":        r.DeviceID,
			"tenant_id":        r.TenantID,
			"display_name":     r.DisplayName,
			"manufacturer":     r.Manufacturer,
			"model":            r.Model,
			"serial_number":    r.SerialNumber,
			"operating_system": r.OperatingSystem,
			"os_version":       r.OSVersion,
			"is_compliant":     nullableBoolInt(r.IsCompliant),
			"is_managed":       nullableBoolInt(r.IsManaged),
			"ownership":        r.Ownership,
			"registered_at":    r.RegisteredAt,
			"last_seen":        r.LastSeen,
			"synced_at":        now,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return s.bulkUpsert(ctx, devices.Name(), "device_id, tenant_id", rows)
}

// PutApplications upserts service principals keyed by
// (service_principal_id, tenant_id).
func (s *Store) PutApplications(ctx context.Context, recs ...transform.ApplicationRecord) error {
	ctx, span := tracer.Start(ctx, "Store.PutApplications")
	defer span.End()

	now := time.Now().UTC().Format(timestampFormat)
	rows := make([]goqu.Record, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, goqu.Record{
			"service_principal_id": r.ServicePrincipalID,
			"tenant_id":            r.TenantID,
			"app_id":               r.AppID,
			"display_name":         r.DisplayName,
			"app_type":             r.AppType,
			"account_enabled":      boolInt(r.AccountEnabled),
			"last_sign_in":         nullableString(r.LastSignIn),
			"synced_at":            now,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return s.bulkUpsert(ctx, applications.Name(), "service_principal_id, tenant_id", rows)
}

func (s *Store) DeviceCount(ctx context.Context, tenantID string) (int64, error) {
	return s.countForTenant(ctx, devices.Name(), tenantID)
}

func (s *Store) ApplicationCount(ctx context.Context, tenantID string) (int64, error) {
	return s.countForTenant(ctx, applications.Name(), tenantID)
}
