package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/msplens/dirsync/pkg/graph"
	"github.com/msplens/dirsync/pkg/health"
	"github.com/msplens/dirsync/pkg/logging"
	"github.com/msplens/dirsync/pkg/store"
	"github.com/msplens/dirsync/pkg/sync"
	"github.com/msplens/dirsync/pkg/tenant"
)

const envPrefix = "dirsync"

// bindConfig layers env vars over flags: --client-secret or
// DIRSYNC_CLIENT_SECRET both work, flags winning when set.
func bindConfig(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return nil, err
	}
	return v, nil
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run sync passes across the tenant fleet",
		RunE:  runSync,
	}

	cmd.Flags().String("tenants", "tenants.json", "path to the tenant registry file")
	cmd.Flags().StringSlice("kind", nil, "sync kinds to run (default: all)")
	cmd.Flags().String("client-id", "", "app registration client id")
	cmd.Flags().String("client-secret", "", "app registration client secret")
	cmd.Flags().String("authority", "", "token authority host override")
	cmd.Flags().Float64("rps", 0, "upstream requests per second per tenant (0 = unlimited)")
	cmd.Flags().Int("tenant-concurrency", 0, "tenants synced at once")
	cmd.Flags().Duration("tenant-timeout", 0, "per-tenant pass timeout")
	cmd.Flags().String("health-addr", "", "serve health endpoints on this address while syncing")

	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	v, err := bindConfig(cmd)
	if err != nil {
		return err
	}

	ctx, err := logging.Init(cmd.Context(),
		logging.WithLogLevel(v.GetString("log-level")),
		logging.WithLogFormat(v.GetString("log-format")),
		logging.WithOutputPaths(logPaths(v.GetString("log-file"))),
	)
	if err != nil {
		return err
	}

	clientID := v.GetString("client-id")
	clientSecret := v.GetString("client-secret")
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("client-id and client-secret are required (flags or DIRSYNC_CLIENT_ID/DIRSYNC_CLIENT_SECRET)")
	}

	tenants, err := tenant.Load(v.GetString("tenants"))
	if err != nil {
		return err
	}

	kinds, err := parseKinds(v.GetStringSlice("kind"))
	if err != nil {
		return err
	}

	st, err := store.NewStore(ctx, v.GetString("db"),
		store.WithPragma("journal_mode", "WAL"))
	if err != nil {
		return err
	}
	defer st.Close()

	tokens := graph.NewCachingTokenSource(&graph.ClientCredentialsSource{
		ClientID:      clientID,
		ClientSecret:  clientSecret,
		AuthorityHost: v.GetString("authority"),
	})

	var clientOpts []graph.ClientOption
	if rps := v.GetFloat64("rps"); rps > 0 {
		clientOpts = append(clientOpts, graph.WithRequestsPerSecond(int(rps)))
	}

	var syncerOpts []sync.SyncerOption
	if len(clientOpts) > 0 {
		syncerOpts = append(syncerOpts, sync.WithClientOptions(clientOpts...))
	}
	if d := v.GetDuration("tenant-timeout"); d > 0 {
		syncerOpts = append(syncerOpts, sync.WithTenantTimeout(d))
	}
	syncer := sync.NewSyncer(tokens, st, syncerOpts...)

	var runnerOpts []sync.RunnerOption
	if n := v.GetInt("tenant-concurrency"); n > 0 {
		runnerOpts = append(runnerOpts, sync.WithTenantConcurrency(n))
	}
	runner := sync.NewRunner(syncer, runnerOpts...)

	if addr := v.GetString("health-addr"); addr != "" {
		kindNames := make([]string, 0, len(sync.AllKinds()))
		for _, k := range sync.AllKinds() {
			kindNames = append(kindNames, string(k))
		}
		hs, err := health.NewHealthServer(ctx, addr, runner.History(), kindNames)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = hs.Shutdown(shutdownCtx)
		}()
	}

	reports := runner.RunAll(ctx, tenants, kinds)
	return exitStatus(reports)
}

func parseKinds(names []string) ([]sync.Kind, error) {
	kinds := make([]sync.Kind, 0, len(names))
	for _, name := range names {
		k, err := sync.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func logPaths(logFile string) []string {
	paths := []string{"stderr"}
	if logFile != "" {
		paths = append(paths, logFile)
	}
	return paths
}

// exitStatus turns the pass reports into the process exit code: any
// critical report fails the run.
func exitStatus(reports []health.Report) error {
	for _, rep := range reports {
		if rep.Critical {
			return fmt.Errorf("sync pass %s critical: %.1f%% of tenants failed",
				rep.SyncKind, rep.FailureRate)
		}
	}
	return nil
}
