package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/msplens/dirsync/pkg/transform"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), filepath.Join(t.TempDir(), "test.db"),
		WithPragma("journal_mode", "WAL"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func userRec(userID, tenantID, name string) transform.UserRecord {
	return transform.UserRecord{
		UserID:            userID,
		TenantID:          tenantID,
		UserPrincipalName: userID + "@contoso.com",
		DisplayName:       name,
		PrimaryEmail:      userID + "@contoso.com",
		Department:        transform.NotAvailable,
		JobTitle:          transform.NotAvailable,
		OfficeLocation:    transform.NotAvailable,
		MobilePhone:       transform.NotAvailable,
		AccountType:       "Member",
		AccountEnabled:    true,
		MFAState:          transform.MFAUnknown,
	}
}

func TestPutUsersIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	require.NoError(t, s.PutUsers(ctx, userRec("u1", "t1", "First")))
	require.NoError(t, s.PutUsers(ctx, userRec("u1", "t1", "Renamed")))

	n, err := s.UserCount(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	var name string
	err = s.rawDB.QueryRowContext(ctx,
		"select display_name from v1_users where user_id = ? and tenant_id = ?", "u1", "t1").Scan(&name)
	require.NoError(t, err)
	require.Equal(t, "Renamed", name)
}

func TestPutUsersKeepsTenantsApart(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	require.NoError(t, s.PutUsers(ctx, userRec("u1", "t1", "One")))
	require.NoError(t, s.PutUsers(ctx, userRec("u1", "t2", "Two")))

	n1, err := s.UserCount(ctx, "t1")
	require.NoError(t, err)
	n2, err := s.UserCount(ctx, "t2")
	require.NoError(t, err)
	require.Equal(t, int64(1), n1)
	require.Equal(t, int64(1), n2)
}

func TestPutUsersNullableFields(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	signIn := "2026-08-01T00:00:00Z"
	capable := true
	rec := userRec("u1", "t1", "Premium")
	rec.LastSignIn = &signIn
	rec.MFACapable = &capable
	rec.MFAState = transform.MFARegistered

	require.NoError(t, s.PutUsers(ctx, rec))
	require.NoError(t, s.PutUsers(ctx, userRec("u2", "t1", "Base")))

	var got *string
	err := s.rawDB.QueryRowContext(ctx,
		"select last_sign_in from v1_users where user_id = 'u1'").Scan(&got)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, signIn, *got)

	err = s.rawDB.QueryRowContext(ctx,
		"select last_sign_in from v1_users where user_id = 'u2'").Scan(&got)
	require.NoError(t, err)
	require.Nil(t, got)
}

func membership(userID, groupID string) transform.MembershipRecord {
	return transform.MembershipRecord{
		UserID:  userID,
		GroupID: groupID,
		Role:    transform.MembershipRoleMember,
	}
}

func TestReplaceMembershipsDropsStaleLinks(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	require.NoError(t, s.ReplaceMemberships(ctx, "t1", []transform.MembershipRecord{
		membership("a", "g1"), membership("b", "g1"), membership("c", "g1"),
	}))
	require.NoError(t, s.ReplaceMemberships(ctx, "t1", []transform.MembershipRecord{
		membership("a", "g1"), membership("d", "g1"),
	}))

	n, err := s.MembershipCount(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	rows, err := s.rawDB.QueryContext(ctx,
		"select user_id from v1_user_groups where tenant_id = 't1' order by user_id")
	require.NoError(t, err)
	defer rows.Close()

	var got []string
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		got = append(got, id)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []string{"a", "d"}, got)
}

func TestReplaceMembershipsLeavesOtherTenantsAlone(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	require.NoError(t, s.ReplaceMemberships(ctx, "t1", []transform.MembershipRecord{membership("a", "g1")}))
	require.NoError(t, s.ReplaceMemberships(ctx, "t2", []transform.MembershipRecord{membership("b", "g2")}))
	require.NoError(t, s.ReplaceMemberships(ctx, "t1", nil))

	n1, err := s.MembershipCount(ctx, "t1")
	require.NoError(t, err)
	n2, err := s.MembershipCount(ctx, "t2")
	require.NoError(t, err)
	require.Equal(t, int64(0), n1)
	require.Equal(t, int64(1), n2)
}

func TestReplaceRoleAssignments(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	require.NoError(t, s.PutRoles(ctx, transform.RoleRecord{
		RoleID: "r1", TenantID: "t1", DisplayName: "Global Administrator",
		Description: transform.NotAvailable, IsPrivileged: true,
	}))
	require.NoError(t, s.ReplaceRoleAssignments(ctx, "t1", []transform.RoleAssignmentRecord{
		{UserID: "u1", RoleID: "r1"},
		{UserID: "u2", RoleID: "r1"},
	}))
	require.NoError(t, s.ReplaceRoleAssignments(ctx, "t1", []transform.RoleAssignmentRecord{
		{UserID: "u1", RoleID: "r1"},
	}))

	n, err := s.RoleAssignmentCount(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestPutLicensesAndLinks(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	require.NoError(t, s.PutLicenses(ctx, transform.LicenseRecord{
		SkuID: "sku-1", TenantID: "t1", SkuPartNumber: "ENTERPRISEPACK",
		DisplayName: "Office 365 E3", Status: "Enabled",
		TotalUnits: 100, ConsumedUnits: 80, AvailableUnits: 20,
		MonthlyCostUSD: 22.00,
	}))
	require.NoError(t, s.ReplaceUserLicenses(ctx, "t1", []transform.UserLicenseRecord{
		{UserID: "u1", SkuID: "sku-1"},
	}))

	n, err := s.LicenseCount(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = s.UserLicenseCount(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestPutDevicesAndApplications(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	compliant := true
	require.NoError(t, s.PutDevices(ctx, transform.DeviceRecord{
		DeviceID: "d1", TenantID: "t1", DisplayName: "LAPTOP-01",
		Manufacturer: transform.NotAvailable, Model: transform.NotAvailable,
		SerialNumber: transform.NotAvailable, OperatingSystem: "Windows",
		OSVersion: "11", IsCompliant: &compliant, Ownership: "Company",
	}))
	require.NoError(t, s.PutApplications(ctx, transform.ApplicationRecord{
		ServicePrincipalID: "sp1", TenantID: "t1", AppID: "app-1",
		DisplayName: "Payroll", AppType: "Application", AccountEnabled: true,
	}))

	n, err := s.DeviceCount(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = s.ApplicationCount(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestSyncRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	require.NoError(t, s.StartSyncRun(ctx, "run-1", "t1", "users"))
	require.NoError(t, s.FinishSyncRun(ctx, "run-1", 42, 3, OutcomeDegraded))
	require.NoError(t, s.StartSyncRun(ctx, "run-2", "t1", "users"))
	require.NoError(t, s.FinishSyncRun(ctx, "run-2", 45, 0, OutcomeCompleted))

	runs, err := s.LatestSyncRuns(ctx, "t1", "users", 5)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	require.Equal(t, "run-2", runs[0].SyncRunID)
	require.Equal(t, OutcomeCompleted, runs[0].Outcome)
	require.Equal(t, int64(45), runs[0].RecordsSynced)
	require.NotNil(t, runs[0].EndedAt)

	require.Equal(t, "run-1", runs[1].SyncRunID)
	require.Equal(t, OutcomeDegraded, runs[1].Outcome)
	require.Equal(t, int64(3), runs[1].RecordsFailed)
}
