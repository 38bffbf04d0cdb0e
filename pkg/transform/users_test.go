package transform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func sampleUser() User {
	return User{
		ID:                "u1",
		DisplayName:       "Ada Lovelace",
		UserPrincipalName: "ada@contoso.com",
		Mail:              "ada.lovelace@contoso.com",
		AccountEnabled:    boolPtr(true),
		UserType:          "Member",
		Department:        "Engineering",
		JobTitle:          "Engineer",
		CreatedDateTime:   "2020-01-01T00:00:00Z",
		SignInActivity:    &SignInActivity{LastSignInDateTime: "2026-08-01T12:00:00Z"},
		AssignedLicenses:  []AssignedLicense{{SkuID: "sku-1"}, {SkuID: "sku-2"}},
	}
}

func TestUserRowPremium(t *testing.T) {
	facts := &UserFacts{GroupCount: 7, AdminGroup: true}
	mfa := &MFARegistration{ID: "u1", IsMFARegistered: true, IsMFACapable: true}

	rec, links := UserRow("t1", sampleUser(), facts, mfa, true)

	require.Equal(t, "u1", rec.UserID)
	require.Equal(t, "t1", rec.TenantID)
	require.Equal(t, "ada.lovelace@contoso.com", rec.PrimaryEmail)
	require.True(t, rec.IsAdmin)
	require.Equal(t, 7, rec.GroupCount)
	require.Equal(t, 2, rec.LicenseCount)
	require.Equal(t, MFARegistered, rec.MFAState)
	require.NotNil(t, rec.MFACapable)
	require.True(t, *rec.MFACapable)
	require.NotNil(t, rec.LastSignIn)
	require.Equal(t, "2026-08-01T12:00:00Z", *rec.LastSignIn)

	require.Len(t, links, 2)
	require.Equal(t, UserLicenseRecord{UserID: "u1", SkuID: "sku-1", TenantID: "t1"}, links[0])
}

func TestUserRowNonPremiumGatesTierFields(t *testing.T) {
	// Even when the upstream happens to return premium fields, a
	// non-premium tenant's record reports them as unknown.
	mfa := &MFARegistration{ID: "u1", IsMFARegistered: true}
	rec, _ := UserRow("t1", sampleUser(), nil, mfa, false)

	require.Nil(t, rec.LastSignIn)
	require.Equal(t, MFAUnknown, rec.MFAState)
	require.Nil(t, rec.MFACapable)
}

func TestUserRowPremiumWithoutMFAReportStaysUnknown(t *testing.T) {
	rec, _ := UserRow("t1", sampleUser(), nil, nil, true)
	require.Equal(t, MFAUnknown, rec.MFAState)
}

func TestUserRowNotRegistered(t *testing.T) {
	mfa := &MFARegistration{ID: "u1", IsMFARegistered: false, IsMFACapable: false}
	rec, _ := UserRow("t1", sampleUser(), nil, mfa, true)
	require.Equal(t, MFANotRegistered, rec.MFAState)
}

func TestUserRowDegradedEnrichment(t *testing.T) {
	rec, _ := UserRow("t1", sampleUser(), nil, nil, false)
	require.Zero(t, rec.GroupCount)
	require.False(t, rec.IsAdmin)
}

func TestUserRowPlaceholders(t *testing.T) {
	u := User{ID: "u2", UserPrincipalName: "bare@contoso.com"}
	rec, links := UserRow("t1", u, nil, nil, false)

	require.Equal(t, NotAvailable, rec.DisplayName)
	require.Equal(t, NotAvailable, rec.Department)
	require.Equal(t, "bare@contoso.com", rec.PrimaryEmail)
	require.Equal(t, "Member", rec.AccountType)
	require.True(t, rec.AccountEnabled)
	require.Empty(t, links)
}

func TestPrimaryEmailFallbackChain(t *testing.T) {
	require.Equal(t, "m@x.y", PrimaryEmail(User{Mail: "m@x.y", UserPrincipalName: "u@x.y"}))
	require.Equal(t, "u@x.y", PrimaryEmail(User{UserPrincipalName: "u@x.y"}))
	require.Equal(t, "unknown@domain.com", PrimaryEmail(User{}))
}

func TestHasAdminKeyword(t *testing.T) {
	require.True(t, HasAdminKeyword("Global Administrator"))
	require.True(t, HasAdminKeyword("helpdesk-admins"))
	require.True(t, HasAdminKeyword("GLOBAL readers"))
	require.False(t, HasAdminKeyword("Engineering"))
	require.False(t, HasAdminKeyword(""))
}
