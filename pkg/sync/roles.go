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

func (s *Syncer) syncRoles(ctx context.Context, tenantID string, base *graph.Client) (int64, int64, error) {
	ctx, span := tracer.Start(ctx, "Syncer.syncRoles")
	defer span.End()
	l := ctxzap.Extract(ctx)

	// Only activated roles are listed; role templates without members do
	// not appear.
	pages, err := base.Get(ctx, "/directoryRoles")
	if err != nil {
		return 0, 0, err
	}

	var decodeFailed int64
	roles := make([]transform.Role, 0, len(pages))
	for _, raw := range pages {
		var r transform.Role
		if err := json.Unmarshal(raw, &r); err != nil || r.ID == "" {
			decodeFailed++
			l.Warn("skipping undecodable role record", zap.Error(err))
			continue
		}
		roles = append(roles, r)
	}

	ids := make([]string, 0, len(roles))
	for _, r := range roles {
		ids = append(ids, r.ID)
	}

	memberships := enrich.FanOut(ctx, "role_members", s.groupWorkers, ids,
		func(ctx context.Context, roleID string) ([]transform.DirectoryMember, error) {
			memberPages, err := base.Get(ctx, "/directoryRoles/"+roleID+"/members",
				graph.WithSelect("id", "displayName", "userPrincipalName"))
			if err != nil {
				return nil, err
			}
			return decodeMembers(memberPages), nil
		})

	records := make([]transform.RoleRecord, 0, len(roles))
	var links []transform.RoleAssignmentRecord
	for _, r := range roles {
		records = append(records, transform.RoleRow(tenantID, r))
		members, _ := memberships.Get(r.ID)
		links = append(links, transform.RoleAssignments(tenantID, r.ID, members)...)
	}

	wctx := writeCtx(ctx)
	if err := s.store.PutRoles(wctx, records...); err != nil {
		return 0, 0, err
	}
	if err := s.store.ReplaceRoleAssignments(wctx, tenantID, links); err != nil {
		return 0, 0, err
	}

	degraded := decodeFailed + int64(len(ids)-len(memberships.Values))
	return int64(len(records)), degraded, nil
}
