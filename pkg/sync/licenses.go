package sync

import (
	"context"
	"encoding/json"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/msplens/dirsync/pkg/graph"
	"github.com/msplens/dirsync/pkg/transform"
)

func (s *Syncer) syncLicenses(ctx context.Context, tenantID string, base *graph.Client) (int64, int64, error) {
	ctx, span := tracer.Start(ctx, "Syncer.syncLicenses")
	defer span.End()
	l := ctxzap.Extract(ctx)

	pages, err := base.Get(ctx, "/subscribedSkus")
	if err != nil {
		return 0, 0, err
	}

	var decodeFailed int64
	records := make([]transform.LicenseRecord, 0, len(pages))
	for _, raw := range pages {
		var sku transform.SubscribedSKU
		if err := json.Unmarshal(raw, &sku); err != nil || sku.SkuID == "" {
			decodeFailed++
			l.Warn("skipping undecodable sku record", zap.Error(err))
			continue
		}
		records = append(records, transform.LicenseRow(tenantID, sku))
	}

	if err := s.store.PutLicenses(ctx, records...); err != nil {
		return 0, 0, err
	}

	// Assignment links come from the user listing; one tenant-wide fetch
	// replaces the per-user licenseDetails round trips.
	userPages, err := base.Get(ctx, "/users", graph.WithSelect("id", "assignedLicenses"))
	if err != nil {
		return int64(len(records)), decodeFailed, err
	}

	var links []transform.UserLicenseRecord
	for _, raw := range userPages {
		var u transform.User
		if err := json.Unmarshal(raw, &u); err != nil || u.ID == "" {
			decodeFailed++
			continue
		}
		_, userLinks := transform.UserRow(tenantID, u, nil, nil, false)
		links = append(links, userLinks...)
	}

	if err := s.store.ReplaceUserLicenses(ctx, tenantID, links); err != nil {
		return int64(len(records)), decodeFailed, err
	}

	return int64(len(records)) + int64(len(links)), decodeFailed, nil
}
