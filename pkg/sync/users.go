package sync

import (
	"context"
	"encoding/json"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/msplens/dirsync/pkg/enrich"
	"github.com/msplens/dirsync/pkg/graph"
	"github.com/msplens/dirsync/pkg/transform"
)

// mfaReportPath is the premium-tier registration report, fetched once per
// tenant rather than per user.
const mfaReportPath = "/reports/authenticationMethods/userRegistrationDetails"

var baseUserSelect = []string{
	"id", "displayName", "userPrincipalName", "mail", "accountEnabled",
	"userType", "department", "jobTitle", "officeLocation", "mobilePhone",
	"createdDateTime", "lastPasswordChangeDateTime", "assignedLicenses",
}

func (s *Syncer) syncUsers(ctx context.Context, tenantID string, base, beta *graph.Client) (int64, int64, error) {
	ctx, span := tracer.Start(ctx, "Syncer.syncUsers")
	defer span.End()
	l := ctxzap.Extract(ctx)

	premium := s.premium(ctx, tenantID, base, beta)

	// Sign-in activity is a beta-tier field; the whole listing moves to the
	// beta client on premium tenants so one pass fetches everything.
	userClient := base
	sel := baseUserSelect
	if premium {
		userClient = beta
		sel = append(append([]string{}, baseUserSelect...), "signInActivity")
	}

	pages, err := userClient.Get(ctx, "/users", graph.WithSelect(sel...))
	if err != nil {
		return 0, 0, err
	}

	var decodeFailed int64
	users := make([]transform.User, 0, len(pages))
	for _, raw := range pages {
		var u transform.User
		if err := json.Unmarshal(raw, &u); err != nil || u.ID == "" {
			decodeFailed++
			l.Warn("skipping undecodable user record", zap.Error(err))
			continue
		}
		users = append(users, u)
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	facts := enrich.FanOut(ctx, "user_groups", s.userWorkers, ids,
		func(ctx context.Context, userID string) (transform.UserFacts, error) {
			members, err := base.Get(ctx, "/users/"+userID+"/memberOf",
				graph.WithSelect("id", "displayName"))
			if err != nil {
				return transform.UserFacts{}, err
			}
			var f transform.UserFacts
			for _, raw := range members {
				var m transform.DirectoryMember
				if err := json.Unmarshal(raw, &m); err != nil {
					continue
				}
				f.GroupCount++
				if transform.HasAdminKeyword(m.DisplayName) {
					f.AdminGroup = true
				}
			}
			return f, nil
		})

	mfaByUser := map[string]transform.MFARegistration{}
	if premium {
		rows, err := beta.Get(ctx, mfaReportPath)
		if err != nil {
			// The report failing leaves MFA unknown for the whole tenant;
			// the user records still sync.
			l.Warn("mfa registration report unavailable", zap.Error(err))
		} else {
			for _, raw := range rows {
				var reg transform.MFARegistration
				if err := json.Unmarshal(raw, &reg); err != nil || reg.ID == "" {
					continue
				}
				mfaByUser[reg.ID] = reg
			}
		}
	}

	records := make([]transform.UserRecord, 0, len(users))
	for _, u := range users {
		var uf *transform.UserFacts
		if f, ok := facts.Get(u.ID); ok {
			uf = &f
		}
		var mfa *transform.MFARegistration
		if reg, ok := mfaByUser[u.ID]; ok {
			mfa = &reg
		}
		rec, _ := transform.UserRow(tenantID, u, uf, mfa, premium)
		records = append(records, rec)
	}

	if err := s.store.PutUsers(writeCtx(ctx), records...); err != nil {
		return 0, 0, err
	}

	// Lookups that failed or were abandoned by the tenant deadline both
	// degrade their user record.
	degraded := decodeFailed + int64(len(ids)-len(facts.Values))
	return int64(len(records)), degraded, nil
}
