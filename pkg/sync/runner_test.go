package sync

import (
	"context"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/msplens/dirsync/pkg/graph"
	"github.com/msplens/dirsync/pkg/store"
	"github.com/msplens/dirsync/pkg/tenant"
)

// selectiveTokens serves credentials for all tenants except the ones listed
// as revoked, which simulates a tenant that never granted consent.
type selectiveTokens struct {
	revoked map[string]bool
}

func (s *selectiveTokens) AcquireToken(ctx context.Context, tenantID string) (string, time.Duration, error) {
	if s.revoked[tenantID] {
		return "", 0, fmt.Errorf("401 unauthorized - tenant %s: consent not granted", tenantID)
	}
	return "token", time.Hour, nil
}

func TestRunKindIsolatesTenantFailures(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer((&fakeDirectory{}).handler(t))
	defer srv.Close()

	st, err := store.NewStore(ctx, filepath.Join(t.TempDir(), "fleet.db"))
	require.NoError(t, err)
	defer st.Close()

	tokens := &selectiveTokens{revoked: map[string]bool{"bad": true}}
	syncer := NewSyncer(tokens, st, WithClientOptions(graph.WithHost(srv.URL)))
	runner := NewRunner(syncer, WithTenantConcurrency(2))

	tenants := []tenant.Tenant{
		{TenantID: "good"},
		{TenantID: "bad"},
	}

	rep := runner.RunKind(ctx, tenants, KindDevices)
	require.Equal(t, 2, rep.TotalTenants)
	require.Equal(t, 1, rep.Succeeded)
	require.Equal(t, 1, rep.Failed)
	require.Equal(t, 1, rep.ByCategory[graph.CategoryAuth])
	require.Equal(t, []string{"bad"}, rep.SampleTenants[graph.CategoryAuth])

	// The healthy tenant's records landed despite its neighbor failing.
	n, err := st.DeviceCount(ctx, "good")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	latest, ok := runner.History().Latest(string(KindDevices))
	require.True(t, ok)
	require.Equal(t, 1, latest.Failed)
}

func TestRunAllCoversEveryKind(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer((&fakeDirectory{roleMembers: []string{"u1"}}).handler(t))
	defer srv.Close()

	st, err := store.NewStore(ctx, filepath.Join(t.TempDir(), "fleet.db"))
	require.NoError(t, err)
	defer st.Close()

	syncer := NewSyncer(fakeTokens{}, st,
		WithClientOptions(graph.WithHost(srv.URL)),
		WithUserWorkers(2), WithGroupWorkers(2))
	runner := NewRunner(syncer)

	reports := runner.RunAll(ctx, []tenant.Tenant{{TenantID: "t1"}}, nil)
	require.Len(t, reports, len(AllKinds()))
	for _, rep := range reports {
		require.Zero(t, rep.Failed, "kind %s", rep.SyncKind)
	}
}

func TestRunAllStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st, err := store.NewStore(context.Background(), filepath.Join(t.TempDir(), "fleet.db"))
	require.NoError(t, err)
	defer st.Close()

	runner := NewRunner(NewSyncer(fakeTokens{}, st))
	reports := runner.RunAll(ctx, []tenant.Tenant{{TenantID: "t1"}}, nil)
	require.Empty(t, reports)
}
