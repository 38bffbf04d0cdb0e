package store

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/msplens/dirsync/pkg/transform"
)

const timestampFormat = "2006-01-02 15:04:05.999999999"

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableBoolInt(b *bool) interface{} {
	if b == nil {
		return nil
	}
	return boolInt(*b)
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// PutUsers upserts user records keyed by (user_id, tenant_id). Re-running a
// sync updates rows in place; it never duplicates them.
func (s *Store) PutUsers(ctx context.Context, recs ...transform.UserRecord) error {
	ctx, span := tracer.Start(ctx, "Store.PutUsers")
	defer span.End()

	now := time.Now().UTC().Format(timestampFormat)
	rows := make([]goqu.Record, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, goqu.Record{
			"user_id":              r.UserID,
			"tenant_id":            r.TenantID,
			"user_principal_name":  r.UserPrincipalName,
			"display_name":         r.DisplayName,
			"primary_email":        r.PrimaryEmail,
			"department":           r.Department,
			"job_title":            r.JobTitle,
			"office_location":      r.OfficeLocation,
			"mobile_phone":         r.MobilePhone,
			"account_type":         r.AccountType,
			"account_enabled":      boolInt(r.AccountEnabled),
			"is_admin":             boolInt(r.IsAdmin),
			"mfa_state":            string(r.MFAState),
			"mfa_capable":          nullableBoolInt(r.MFACapable),
			"license_count":        r.LicenseCount,
			"group_count":          r.GroupCount,
			"created_at":           r.CreatedAt,
			"last_password_change": r.LastPasswordChange,
			"last_sign_in":         nullableString(r.LastSignIn),
			"synced_at":            now,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return s.bulkUpsert(ctx, users.Name(), "user_id, tenant_id", rows)
}

// ReplaceMemberships swaps the tenant's group membership links for the
// given set in one transaction.
func (s *Store) ReplaceMemberships(ctx context.Context, tenantID string, recs []transform.MembershipRecord) error {
	ctx, span := tracer.Start(ctx, "Store.ReplaceMemberships")
	defer span.End()

	now := time.Now().UTC().Format(timestampFormat)
	rows := make([]goqu.Record, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, goqu.Record{
			"user_id":     r.UserID,
			"group_id":    r.GroupID,
			"tenant_id":   tenantID,
			"member_role": r.Role,
			"synced_at":   now,
		})
	}
	return s.replaceForTenant(ctx, memberships.Name(), tenantID, rows)
}

func (s *Store) UserCount(ctx context.Context, tenantID string) (int64, error) {
	return s.countForTenant(ctx, users.Name(), tenantID)
}

func (s *Store) MembershipCount(ctx context.Context, tenantID string) (int64, error) {
	return s.countForTenant(ctx, memberships.Name(), tenantID)
}
