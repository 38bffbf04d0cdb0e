package transform

// NotAvailable is the canonical placeholder for descriptive fields the
// upstream did not populate. Identity fields (IDs, principal names) never
// use it; a record without those is dropped at decode time instead.
const NotAvailable = "N/A"

// MFAState is the tri-state MFA registration status of a user. Unknown is
// reserved for tenants whose tier does not expose the registration report
// or whose enrichment pass failed; it is never used to mean "not
// registered".
type MFAState string

const (
	MFAUnknown       MFAState = "unknown"
	MFARegistered    MFAState = "registered"
	MFANotRegistered MFAState = "not_registered"
)

type UserRecord struct {
	UserID             string
	TenantID           string
	UserPrincipalName  string
	DisplayName        string
	PrimaryEmail       string
	Department         string
	JobTitle           string
	OfficeLocation     string
	MobilePhone        string
	AccountType        string
	AccountEnabled     bool
	IsAdmin            bool
	MFAState           MFAState
	MFACapable         *bool
	LicenseCount       int
	GroupCount         int
	CreatedAt          string
	LastPasswordChange string
	// LastSignIn is nil when the tenant tier cannot report it.
	LastSignIn *string
}

type GroupRecord struct {
	GroupID         string
	TenantID        string
	DisplayName     string
	Description     string
	GroupType       string
	MailEnabled     bool
	SecurityEnabled bool
	MailNickname    string
	Visibility      string
	MemberCount     int
	OwnerCount      int
}

// MembershipRecord links a user to a group, with owners recorded as a
// distinct role that takes precedence over plain membership.
type MembershipRecord struct {
	UserID   string
	GroupID  string
	TenantID string
	Role     string
}

const (
	MembershipRoleMember = "member"
	MembershipRoleOwner  = "owner"
)

type RoleRecord struct {
	RoleID       string
	TenantID     string
	DisplayName  string
	Description  string
	IsPrivileged bool
}

type RoleAssignmentRecord struct {
	UserID   string
	RoleID   string
	TenantID string
}

type LicenseRecord struct {
	SkuID           string
	TenantID        string
	SkuPartNumber   string
	DisplayName     string
	Status          string
	TotalUnits      int
	ConsumedUnits   int
	AvailableUnits  int
	SuspendedUnits  int
	WarningUnits    int
	MonthlyCostUSD  float64
}

type UserLicenseRecord struct {
	UserID   string
	SkuID    string
	TenantID string
}

type DeviceRecord struct {
	DeviceID        string
	TenantID        string
	DisplayName     string
	Manufacturer    string
	Model           string
	SerialNumber    string
	OperatingSystem string
	OSVersion       string
	IsCompliant     *bool
	IsManaged       *bool
	Ownership       string
	RegisteredAt    string
	LastSeen        string
}

type ApplicationRecord struct {
	ServicePrincipalID string
	TenantID           string
	AppID              string
	DisplayName        string
	AppType            string
	AccountEnabled     bool
	// LastSignIn is nil when the tenant tier cannot report it.
	LastSignIn *string
}
