package transform

// DeviceRow maps an upstream device into a storable record. Compliance and
// management flags stay nil when the upstream omitted them; unmanaged
// tenants report neither.
func DeviceRow(tenantID string, d Device) DeviceRecord {
	ownership := d.DeviceOwnership
	if ownership == "" {
		ownership = "Unknown"
	}
	return DeviceRecord{
		DeviceID:        d.ID,
		TenantID:        tenantID,
		DisplayName:     orNA(d.DisplayName),
		Manufacturer:    orNA(d.Manufacturer),
		Model:           orNA(d.Model),
		SerialNumber:    orNA(d.SerialNumber),
		OperatingSystem: orNA(d.OperatingSystem),
		OSVersion:       orNA(d.OperatingSystemVersion),
		IsCompliant:     d.IsCompliant,
		IsManaged:       d.IsManaged,
		Ownership:       ownership,
		RegisteredAt:    d.RegistrationDateTime,
		LastSeen:        d.ApproximateLastSignInDateTime,
	}
}

// ApplicationRow maps a service principal into a storable record. Sign-in
// activity is only carried on premium tenants.
func ApplicationRow(tenantID string, sp ServicePrincipal, premium bool) ApplicationRecord {
	rec := ApplicationRecord{
		ServicePrincipalID: sp.ID,
		TenantID:           tenantID,
		AppID:              sp.AppID,
		DisplayName:        orNA(sp.DisplayName),
		AppType:            orNA(sp.ServicePrincipalType),
		AccountEnabled:     sp.AccountEnabled == nil || *sp.AccountEnabled,
	}
	if premium && sp.SignInActivity != nil && sp.SignInActivity.LastSignInDateTime != "" {
		ts := sp.SignInActivity.LastSignInDateTime
		rec.LastSignIn = &ts
	}
	return rec
}
