package sync

import "fmt"

// Kind names one entity sync pass.
type Kind string

const (
	KindUsers        Kind = "users"
	KindGroups       Kind = "groups"
	KindRoles        Kind = "roles"
	KindLicenses     Kind = "licenses"
	KindDevices      Kind = "devices"
	KindApplications Kind = "applications"
)

// AllKinds returns every sync kind in the order passes run.
func AllKinds() []Kind {
	return []Kind{KindUsers, KindGroups, KindRoles, KindLicenses, KindDevices, KindApplications}
}

// ParseKind validates an operator-supplied kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range AllKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sync kind %q", s)
}
