package transform

// Upstream record shapes as requested by the sync passes. Fields that only
// the premium tier may request stay nil/zero on base-tier tenants; the
// transforms translate that into explicit unknown sentinels rather than
// tier-specific defaults.

type SignInActivity struct {
	LastSignInDateTime string `json:"lastSignInDateTime"`
}

type AssignedLicense struct {
	SkuID string `json:"skuId"`
}

type User struct {
	ID                         string            `json:"id"`
	DisplayName                string            `json:"displayName"`
	UserPrincipalName          string            `json:"userPrincipalName"`
	Mail                       string            `json:"mail"`
	AccountEnabled             *bool             `json:"accountEnabled"`
	UserType                   string            `json:"userType"`
	Department                 string            `json:"department"`
	JobTitle                   string            `json:"jobTitle"`
	OfficeLocation             string            `json:"officeLocation"`
	MobilePhone                string            `json:"mobilePhone"`
	CreatedDateTime            string            `json:"createdDateTime"`
	LastPasswordChangeDateTime string            `json:"lastPasswordChangeDateTime"`
	SignInActivity             *SignInActivity   `json:"signInActivity"`
	AssignedLicenses           []AssignedLicense `json:"assignedLicenses"`
}

type Group struct {
	ID              string   `json:"id"`
	DisplayName     string   `json:"displayName"`
	Description     string   `json:"description"`
	GroupTypes      []string `json:"groupTypes"`
	MailEnabled     *bool    `json:"mailEnabled"`
	SecurityEnabled *bool    `json:"securityEnabled"`
	MailNickname    string   `json:"mailNickname"`
	Visibility      string   `json:"visibility"`
}

// DirectoryMember is the common shape of member/owner listings; the OData
// type discriminator separates users from service principals and devices.
type DirectoryMember struct {
	ODataType         string `json:"@odata.type"`
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// IsUser reports whether the member is a user object rather than a service
// principal or nested group.
func (m DirectoryMember) IsUser() bool {
	return m.ODataType == "#microsoft.graph.user"
}

type Role struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

type PrepaidUnits struct {
	Enabled   int `json:"enabled"`
	Suspended int `json:"suspended"`
	Warning   int `json:"warning"`
	LockedOut int `json:"lockedOut"`
}

type SubscribedSKU struct {
	SkuID            string       `json:"skuId"`
	SkuPartNumber    string       `json:"skuPartNumber"`
	CapabilityStatus string       `json:"capabilityStatus"`
	ConsumedUnits    int          `json:"consumedUnits"`
	PrepaidUnits     PrepaidUnits `json:"prepaidUnits"`
}

type LicenseDetail struct {
	SkuID         string `json:"skuId"`
	SkuPartNumber string `json:"skuPartNumber"`
}

type Device struct {
	ID                             string `json:"id"`
	DisplayName                    string `json:"displayName"`
	DeviceID                       string `json:"deviceId"`
	Manufacturer                   string `json:"manufacturer"`
	Model                          string `json:"model"`
	SerialNumber                   string `json:"serialNumber"`
	OperatingSystem                string `json:"operatingSystem"`
	OperatingSystemVersion         string `json:"operatingSystemVersion"`
	IsCompliant                    *bool  `json:"isCompliant"`
	IsManaged                      *bool  `json:"isManaged"`
	DeviceOwnership                string `json:"deviceOwnership"`
	ApproximateLastSignInDateTime  string `json:"approximateLastSignInDateTime"`
	RegistrationDateTime           string `json:"registrationDateTime"`
}

type ServicePrincipal struct {
	ID                   string          `json:"id"`
	AppID                string          `json:"appId"`
	DisplayName          string          `json:"displayName"`
	AppOwnerOrganization string          `json:"appOwnerOrganizationId"`
	AccountEnabled       *bool           `json:"accountEnabled"`
	ServicePrincipalType string          `json:"servicePrincipalType"`
	SignInActivity       *SignInActivity `json:"signInActivity"`
}

// MFARegistration is the per-user row of the authentication methods report,
// a premium-tier enrichment.
type MFARegistration struct {
	ID                string   `json:"id"`
	UserPrincipalName string   `json:"userPrincipalName"`
	IsMFARegistered   bool     `json:"isMfaRegistered"`
	IsMFACapable      bool     `json:"isMfaCapable"`
	MethodsRegistered []string `json:"methodsRegistered"`
}
