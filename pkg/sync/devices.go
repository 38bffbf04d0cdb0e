package sync

import (
	"context"
	"encoding/json"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/msplens/dirsync/pkg/graph"
	"github.com/msplens/dirsync/pkg/transform"
)

var deviceSelect = []string{
	"id", "displayName", "deviceId", "manufacturer", "model", "serialNumber",
	"operatingSystem", "operatingSystemVersion", "isCompliant", "isManaged",
	"deviceOwnership", "approximateLastSignInDateTime", "registrationDateTime",
}

func (s *Syncer) syncDevices(ctx context.Context, tenantID string, base *graph.Client) (int64, int64, error) {
	ctx, span := tracer.Start(ctx, "Syncer.syncDevices")
	defer span.End()
	l := ctxzap.Extract(ctx)

	pages, err := base.Get(ctx, "/devices", graph.WithSelect(deviceSelect...))
	if err != nil {
		return 0, 0, err
	}

	var decodeFailed int64
	records := make([]transform.DeviceRecord, 0, len(pages))
	for _, raw := range pages {
		var d transform.Device
		if err := json.Unmarshal(raw, &d); err != nil || d.ID == "" {
			decodeFailed++
			l.Warn("skipping undecodable device record", zap.Error(err))
			continue
		}
		records = append(records, transform.DeviceRow(tenantID, d))
	}

	if err := s.store.PutDevices(ctx, records...); err != nil {
		return 0, 0, err
	}
	return int64(len(records)), decodeFailed, nil
}
