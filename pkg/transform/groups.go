package transform

// GroupType buckets a group by its upstream type markers. The groupTypes
// array wins over the mail/security flags: a unified group is "Microsoft
// 365" even when security-enabled.
func GroupType(g Group) string {
	for _, t := range g.GroupTypes {
		switch t {
		case "Unified":
			return "Microsoft 365"
		case "DynamicMembership":
			return "Dynamic"
		}
	}
	mail := g.MailEnabled != nil && *g.MailEnabled
	security := g.SecurityEnabled != nil && *g.SecurityEnabled
	switch {
	case mail && security:
		return "Mail-Enabled Security"
	case security:
		return "Security"
	case mail:
		return "Distribution"
	default:
		return "Other"
	}
}

// GroupRow maps an upstream group and its resolved member/owner listings
// into a storable record. Listings may be nil when enrichment failed; the
// counts then read zero and the group is still written.
func GroupRow(tenantID string, g Group, members, owners []DirectoryMember) GroupRecord {
	return GroupRecord{
		GroupID:         g.ID,
		TenantID:        tenantID,
		DisplayName:     orNA(g.DisplayName),
		Description:     orNA(g.Description),
		GroupType:       GroupType(g),
		MailEnabled:     g.MailEnabled != nil && *g.MailEnabled,
		SecurityEnabled: g.SecurityEnabled != nil && *g.SecurityEnabled,
		MailNickname:    orNA(g.MailNickname),
		Visibility:      orNA(g.Visibility),
		MemberCount:     len(members),
		OwnerCount:      len(owners),
	}
}

// Memberships flattens member and owner listings into membership links,
// keeping only user objects. A user that is both member and owner yields a
// single link with the owner role.
func Memberships(tenantID, groupID string, members, owners []DirectoryMember) []MembershipRecord {
	roles := make(map[string]string, len(members)+len(owners))
	order := make([]string, 0, len(members)+len(owners))
	for _, m := range members {
		if !m.IsUser() || m.ID == "" {
			continue
		}
		if _, seen := roles[m.ID]; !seen {
			order = append(order, m.ID)
		}
		roles[m.ID] = MembershipRoleMember
	}
	for _, o := range owners {
		if !o.IsUser() || o.ID == "" {
			continue
		}
		if _, seen := roles[o.ID]; !seen {
			order = append(order, o.ID)
		}
		roles[o.ID] = MembershipRoleOwner
	}

	out := make([]MembershipRecord, 0, len(order))
	for _, id := range order {
		out = append(out, MembershipRecord{
			UserID:   id,
			GroupID:  groupID,
			TenantID: tenantID,
			Role:     roles[id],
		})
	}
	return out
}
