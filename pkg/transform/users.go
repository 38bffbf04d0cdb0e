package transform

import "strings"

// UserFacts carries the per-user enrichment results the group membership
// fan-out produced. A nil *UserFacts means the lookup for that user failed
// and the record is written degraded rather than dropped.
type UserFacts struct {
	GroupCount int
	AdminGroup bool
}

// adminKeywords flag group and role names that confer elevated privilege.
var adminKeywords = []string{"admin", "administrator", "global"}

// HasAdminKeyword reports whether a display name suggests elevated
// privilege. Matching is case-insensitive substring matching, which is
// deliberately loose: missing a privileged group is worse than flagging a
// harmless one.
func HasAdminKeyword(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range adminKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

// PrimaryEmail picks the best contact address for a user: the mail
// attribute when set, else the principal name, else a fixed placeholder.
func PrimaryEmail(u User) string {
	if u.Mail != "" {
		return u.Mail
	}
	if u.UserPrincipalName != "" {
		return u.UserPrincipalName
	}
	return "unknown@domain.com"
}

// UserRow maps an upstream user plus its enrichment results into a storable
// record and the user's license links. It is total: enrichment failures and
// tier restrictions degrade individual fields, never the whole record.
func UserRow(tenantID string, u User, facts *UserFacts, mfa *MFARegistration, premium bool) (UserRecord, []UserLicenseRecord) {
	rec := UserRecord{
		UserID:             u.ID,
		TenantID:           tenantID,
		UserPrincipalName:  u.UserPrincipalName,
		DisplayName:        orNA(u.DisplayName),
		PrimaryEmail:       PrimaryEmail(u),
		Department:         orNA(u.Department),
		JobTitle:           orNA(u.JobTitle),
		OfficeLocation:     orNA(u.OfficeLocation),
		MobilePhone:        orNA(u.MobilePhone),
		AccountType:        u.UserType,
		AccountEnabled:     u.AccountEnabled == nil || *u.AccountEnabled,
		MFAState:           MFAUnknown,
		LicenseCount:       len(u.AssignedLicenses),
		CreatedAt:          u.CreatedDateTime,
		LastPasswordChange: u.LastPasswordChangeDateTime,
	}
	if rec.AccountType == "" {
		rec.AccountType = "Member"
	}

	if facts != nil {
		rec.GroupCount = facts.GroupCount
		rec.IsAdmin = facts.AdminGroup
	}

	if premium {
		if u.SignInActivity != nil && u.SignInActivity.LastSignInDateTime != "" {
			ts := u.SignInActivity.LastSignInDateTime
			rec.LastSignIn = &ts
		}
		if mfa != nil {
			rec.MFAState = MFANotRegistered
			if mfa.IsMFARegistered {
				rec.MFAState = MFARegistered
			}
			capable := mfa.IsMFACapable
			rec.MFACapable = &capable
		}
	}

	links := make([]UserLicenseRecord, 0, len(u.AssignedLicenses))
	for _, lic := range u.AssignedLicenses {
		if lic.SkuID == "" {
			continue
		}
		links = append(links, UserLicenseRecord{
			UserID:   u.ID,
			SkuID:    lic.SkuID,
			TenantID: tenantID,
		})
	}
	return rec, links
}
