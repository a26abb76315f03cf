package main

import (
	"fmt"

	"forage-map/orchard/internal/api"
	"forage-map/orchard/internal/config"
	"forage-map/orchard/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cli carries what every subcommand needs once the table is open.
type cli struct {
	v    *viper.Viper
	deps *api.Dependencies
}

// RootCommand creates and returns the root command
func RootCommand() *cobra.Command {
	c := &cli{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "pointctl",
		Short:         "Inspect and edit the shared foraging points table",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, c.v)

	rootCmd.AddCommand(
		listCommand(c),
		addCommand(c),
		deleteCommand(c),
		exportCommand(c),
		ensureHeaderCommand(c),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Skip setup for help and shell completion
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		return c.open(cmd)
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if c.deps == nil {
			return nil
		}
		return c.deps.Close()
	}

	return rootCmd
}

// setupFlags defines global flags; each one overrides its environment variable
func setupFlags(rootCmd *cobra.Command, v *viper.Viper) {
	flags := rootCmd.PersistentFlags()
	flags.String("backend", "", "Table backend: sheets, airtable or sql (TABLE_BACKEND)")
	flags.String("location", "", "Spreadsheet URL or key, Airtable base id, or database DSN (TABLE_LOCATION)")
	flags.String("sheet", "", "Worksheet or table name (TABLE_SHEET)")
	flags.String("credentials", "", "Google service account JSON file (GOOGLE_CREDENTIALS_FILE)")
	flags.Bool("debug", false, "Enable debug output")

	bindings := map[string]string{
		"TABLE_BACKEND":           "backend",
		"TABLE_LOCATION":          "location",
		"TABLE_SHEET":             "sheet",
		"GOOGLE_CREDENTIALS_FILE": "credentials",
	}
	for key, flag := range bindings {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
}

func (c *cli) open(cmd *cobra.Command) error {
	env := "production"
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		env = "development"
	}
	if err := logging.Init(env); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.LoadFrom(c.v)
	if err != nil {
		return err
	}

	// A CLI run is short-lived; the shared store would only add a dependency.
	cfg.Cache.Backend = config.CacheMemory

	deps, err := api.InitDependencies(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	c.deps = deps
	return nil
}
