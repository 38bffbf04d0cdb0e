package transform

// RoleRow maps an activated directory role into a storable record.
func RoleRow(tenantID string, r Role) RoleRecord {
	return RoleRecord{
		RoleID:       r.ID,
		TenantID:     tenantID,
		DisplayName:  orNA(r.DisplayName),
		Description:  orNA(r.Description),
		IsPrivileged: HasAdminKeyword(r.DisplayName),
	}
}

// RoleAssignments flattens a role's member listing into assignment links,
// keeping only user objects.
func RoleAssignments(tenantID, roleID string, members []DirectoryMember) []RoleAssignmentRecord {
	out := make([]RoleAssignmentRecord, 0, len(members))
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if !m.IsUser() || m.ID == "" {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, RoleAssignmentRecord{
			UserID:   m.ID,
			RoleID:   roleID,
			TenantID: tenantID,
		})
	}
	return out
}
