package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/msplens/dirsync/pkg/logging"
	"github.com/msplens/dirsync/pkg/store"
	"github.com/msplens/dirsync/pkg/sync"
)

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent sync runs for a tenant",
		RunE:  runStatus,
	}

	cmd.Flags().String("tenant", "", "tenant id to report on")
	cmd.Flags().StringSlice("kind", nil, "sync kinds to report (default: all)")
	cmd.Flags().Uint("limit", 5, "runs to show per kind")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	v, err := bindConfig(cmd)
	if err != nil {
		return err
	}

	ctx, err := logging.Init(cmd.Context(),
		logging.WithLogLevel("warn"),
		logging.WithLogFormat(logging.LogFormatConsole),
	)
	if err != nil {
		return err
	}

	kinds, err := parseKinds(v.GetStringSlice("kind"))
	if err != nil {
		return err
	}
	if len(kinds) == 0 {
		kinds = sync.AllKinds()
	}

	st, err := store.NewStore(ctx, v.GetString("db"))
	if err != nil {
		return err
	}
	defer st.Close()

	tenantID := v.GetString("tenant")
	limit := v.GetUint("limit")

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tRUN\tSTARTED\tOUTCOME\tSYNCED\tFAILED")
	for _, kind := range kinds {
		runs, err := st.LatestSyncRuns(ctx, tenantID, string(kind), limit)
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
				r.SyncKind, r.SyncRunID, r.StartedAt, r.Outcome,
				r.RecordsSynced, r.RecordsFailed)
		}
	}
	return w.Flush()
}
