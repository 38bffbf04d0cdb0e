package sync

import (
	"context"
	"encoding/json"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/msplens/dirsync/pkg/graph"
	"github.com/msplens/dirsync/pkg/transform"
)

var servicePrincipalSelect = []string{
	"id", "appId", "displayName", "appOwnerOrganizationId", "accountEnabled",
	"servicePrincipalType",
}

func (s *Syncer) syncApplications(ctx context.Context, tenantID string, base, beta *graph.Client) (int64, int64, error) {
	ctx, span := tracer.Start(ctx, "Syncer.syncApplications")
	defer span.End()
	l := ctxzap.Extract(ctx)

	premium := s.premium(ctx, tenantID, base, beta)

	spClient := base
	sel := servicePrincipalSelect
	if premium {
		spClient = beta
		sel = append(append([]string{}, servicePrincipalSelect...), "signInActivity")
	}

	pages, err := spClient.Get(ctx, "/servicePrincipals", graph.WithSelect(sel...))
	if err != nil {
		return 0, 0, err
	}

	var decodeFailed int64
	records := make([]transform.ApplicationRecord, 0, len(pages))
	for _, raw := range pages {
		var sp transform.ServicePrincipal
		if err := json.Unmarshal(raw, &sp); err != nil || sp.ID == "" {
			decodeFailed++
			l.Warn("skipping undecodable service principal record", zap.Error(err))
			continue
		}
		records = append(records, transform.ApplicationRow(tenantID, sp, premium))
	}

	if err := s.store.PutApplications(ctx, records...); err != nil {
		return 0, 0, err
	}
	return int64(len(records)), decodeFailed, nil
}
