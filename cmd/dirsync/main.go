package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	cmd := &cobra.Command{
		Use:     "dirsync",
		Short:   "dirsync keeps a local snapshot of directory state across tenant fleets",
		Version: version,
	}

	cmd.PersistentFlags().String("db", "dirsync.db", "path to the snapshot database")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "json", "log format (json or console)")
	cmd.PersistentFlags().String("log-file", "", "also log to this file, rotated")

	cmd.AddCommand(runCmd())
	cmd.AddCommand(statusCmd())

	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
