// Package main provides a tool to inspect a Boatyard store and audit the
// boat and load relationship.
//
// Usage:
//
//	go run ./cmd/dbinspect dump --data ~/boatyard
//	go run ./cmd/dbinspect audit --data ~/boatyard --store sqlite
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boatyard/boatyard-server/internal/audit"
	"github.com/boatyard/boatyard-server/internal/store/backend"
)

var (
	storeConfig backend.Config

	errProblems = errors.New("relationship problems found")
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "dbinspect",
	Short:        "Inspect a Boatyard store",
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&storeConfig.Backend, "store", backend.Badger, "store backend: badger, sqlite, datastore")
	flags.StringVar(&storeConfig.DataDir, "data", os.ExpandEnv("$HOME/boatyard"), "data directory")
	flags.StringVar(&storeConfig.DatastoreProject, "project", os.Getenv("DATASTORE_PROJECT"), "datastore project id")
	flags.StringVar(&storeConfig.CredentialsFile, "credentials", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"), "datastore service account file")

	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(auditCmd)
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print every boat and load as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := runAudit(cmd)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check that boat load lists and load carriers agree",
	Long: `Audit reads every boat and load and reports each link that is only
recorded on one side. It exits non-zero when any problem is found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := runAudit(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "=== Boatyard audit (%s) ===\n", storeConfig.Backend)
		fmt.Fprintf(out, "Boats: %d\n", len(report.Boats))
		fmt.Fprintf(out, "Loads: %d\n", len(report.Loads))

		if report.OK() {
			fmt.Fprintln(out, "No problems found")
			return nil
		}
		fmt.Fprintf(out, "Problems: %d\n", len(report.Problems))
		for _, p := range report.Problems {
			fmt.Fprintf(out, "  %s\n", p)
		}
		return errProblems
	},
}

func runAudit(cmd *cobra.Command) (*audit.Report, error) {
	ctx := cmd.Context()
	st, err := backend.Open(ctx, storeConfig, nil)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	return audit.Run(ctx, st)
}
