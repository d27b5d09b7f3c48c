// Package main provides a tool to seed a Boatyard store from a fleet manifest.
//
// Usage:
//
//	go run ./cmd/seed example --owner 1042339503 > fleet.toml
//	go run ./cmd/seed apply fleet.toml --data ~/boatyard
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boatyard/boatyard-server/internal/logger"
	"github.com/boatyard/boatyard-server/internal/seed"
	"github.com/boatyard/boatyard-server/internal/service"
	"github.com/boatyard/boatyard-server/internal/store/backend"
	"github.com/boatyard/boatyard-server/internal/validation"
)

var (
	storeConfig  backend.Config
	exampleOwner string
	verbose      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "seed",
	Short:        "Seed a Boatyard store with boats and loads",
	SilenceUsage: true,
}

func init() {
	applyFlags := applyCmd.Flags()
	applyFlags.StringVar(&storeConfig.Backend, "store", backend.Badger, "store backend: badger, sqlite, datastore")
	applyFlags.StringVar(&storeConfig.DataDir, "data", os.ExpandEnv("$HOME/boatyard"), "data directory")
	applyFlags.StringVar(&storeConfig.DatastoreProject, "project", os.Getenv("DATASTORE_PROJECT"), "datastore project id")
	applyFlags.StringVar(&storeConfig.CredentialsFile, "credentials", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"), "datastore service account file")
	applyFlags.BoolVarP(&verbose, "verbose", "v", false, "log every record created")

	exampleCmd.Flags().StringVar(&exampleOwner, "owner", "example-sub", "owner subject for the example boats")

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(exampleCmd)
}

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print an example fleet manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		return seed.Encode(cmd.OutOrStdout(), seed.Example(exampleOwner))
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply <manifest.toml>",
	Short: "Create the boats and loads in a manifest",
	Long: `Apply creates every load in the manifest, then every boat, then puts
each listed load on its boat. Boats are created through the same services
the API uses, so field rules and relationship rules apply.`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func runApply(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	manifest, err := seed.Decode(f)
	if err != nil {
		return err
	}

	level := "info"
	if verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Writer: os.Stderr, Level: logger.ParseLevel(level)})

	ctx := cmd.Context()
	st, err := backend.Open(ctx, storeConfig, log.Component("store"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	v := validation.New()
	boats := service.NewBoatService(st, v, log.Component("boats"))
	loads := service.NewLoadService(st, v, log.Component("loads"))
	svc := seed.Services{
		Boats:         boats,
		Loads:         loads,
		Relationships: service.NewRelationshipService(boats, loads, log.Component("relationships")),
	}

	res, err := seed.Apply(ctx, svc, manifest, v, log.Component("seed"))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d boats and %d loads\n", len(res.BoatIDs), len(res.LoadIDs))
	return nil
}
