package tenant

import (
	"encoding/json"
	"fmt"
	"os"
)

// Tenant identifies one directory to sync. DisplayName is operator-facing
// only; TenantID is the key everywhere else.
type Tenant struct {
	TenantID    string `json:"tenant_id"`
	DisplayName string `json:"display_name"`
}

func (t Tenant) Name() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.TenantID
}

// Load reads the tenant registry file: a JSON array of tenants. Entries
// without a tenant_id and duplicate IDs are rejected rather than skipped,
// since a malformed registry usually means the wrong file.
func Load(path string) ([]Tenant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tenant: reading registry %s: %w", path, err)
	}

	var tenants []Tenant
	if err := json.Unmarshal(data, &tenants); err != nil {
		return nil, fmt.Errorf("tenant: parsing registry %s: %w", path, err)
	}
	if len(tenants) == 0 {
		return nil, fmt.Errorf("tenant: registry %s lists no tenants", path)
	}

	seen := make(map[string]struct{}, len(tenants))
	for i, t := range tenants {
		if t.TenantID == "" {
			return nil, fmt.Errorf("tenant: registry %s entry %d has no tenant_id", path, i)
		}
		if _, dup := seen[t.TenantID]; dup {
			return nil, fmt.Errorf("tenant: registry %s lists tenant %s twice", path, t.TenantID)
		}
		seen[t.TenantID] = struct{}{}
	}
	return tenants, nil
}
