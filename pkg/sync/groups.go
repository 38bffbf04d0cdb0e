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

var groupSelect = []string{
	"id", "displayName", "description", "groupTypes", "mailEnabled",
	"securityEnabled", "mailNickname", "visibility",
}

// groupListings is the per-group enrichment payload: resolved member and
// owner listings.
type groupListings struct {
	members []transform.DirectoryMember
	owners  []transform.DirectoryMember
}

func decodeMembers(pages []json.RawMessage) []transform.DirectoryMember {
	out := make([]transform.DirectoryMember, 0, len(pages))
	for _, raw := range pages {
		var m transform.DirectoryMember
		if err := json.Unmarshal(raw, &m); err != nil || m.ID == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (s *Syncer) syncGroups(ctx context.Context, tenantID string, base *graph.Client) (int64, int64, error) {
	ctx, span := tracer.Start(ctx, "Syncer.syncGroups")
	defer span.End()
	l := ctxzap.Extract(ctx)

	pages, err := base.Get(ctx, "/groups", graph.WithSelect(groupSelect...))
	if err != nil {
		return 0, 0, err
	}

	var decodeFailed int64
	groups := make([]transform.Group, 0, len(pages))
	for _, raw := range pages {
		var g transform.Group
		if err := json.Unmarshal(raw, &g); err != nil || g.ID == "" {
			decodeFailed++
			l.Warn("skipping undecodable group record", zap.Error(err))
			continue
		}
		groups = append(groups, g)
	}

	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}

	listings := enrich.FanOut(ctx, "group_listings", s.groupWorkers, ids,
		func(ctx context.Context, groupID string) (groupListings, error) {
			memberPages, err := base.Get(ctx, "/groups/"+groupID+"/members",
				graph.WithSelect("id", "displayName", "userPrincipalName"))
			if err != nil {
				return groupListings{}, err
			}
			ownerPages, err := base.Get(ctx, "/groups/"+groupID+"/owners",
				graph.WithSelect("id", "displayName", "userPrincipalName"))
			if err != nil {
				return groupListings{}, err
			}
			return groupListings{
				members: decodeMembers(memberPages),
				owners:  decodeMembers(ownerPages),
			}, nil
		})

	records := make([]transform.GroupRecord, 0, len(groups))
	var links []transform.MembershipRecord
	for _, g := range groups {
		ls, _ := listings.Get(g.ID)
		records = append(records, transform.GroupRow(tenantID, g, ls.members, ls.owners))
		links = append(links, transform.Memberships(tenantID, g.ID, ls.members, ls.owners)...)
	}

	wctx := writeCtx(ctx)
	if err := s.store.PutGroups(wctx, records...); err != nil {
		return 0, 0, err
	}
	if err := s.store.ReplaceMemberships(wctx, tenantID, links); err != nil {
		return 0, 0, err
	}

	degraded := decodeFailed + int64(len(ids)-len(listings.Values))
	return int64(len(records)), degraded, nil
}
