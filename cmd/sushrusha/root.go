package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/sushrusha/sushrusha/internal/cli"
	"github.com/sushrusha/sushrusha/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "sushrusha",
	Short: "Sushrusha is a patient conversation simulator for health workers",
	Long: `Sushrusha lets community health workers rehearse patient visits against an
evaluator that scores every response and ends each session with a report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default ./"+config.DefaultFile+" when present)")
	rootCmd.PersistentFlags().String("api-url", "", "Evaluator base URL")
	rootCmd.PersistentFlags().String("lang", "", "Language code for scenarios and sessions")
	rootCmd.PersistentFlags().Bool("debug", false, "Log session events to stderr")
}

// loadConfig reads the configuration and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("api-url") {
		cfg.APIURL, _ = cmd.Flags().GetString("api-url")
	}
	if cmd.Flags().Changed("lang") {
		cfg.Language, _ = cmd.Flags().GetString("lang")
	}
	return cfg, cfg.Validate()
}

// withApp loads the configuration, builds the App and runs fn with a
// signal-aware context.
func withApp(cmd *cobra.Command, fn func(ctx *cli.SignalContext, app *cli.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	debug, _ := cmd.Flags().GetBool("debug")

	app, err := cli.NewApp(cfg, debug)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cli.NewSignalContext(cmd.Context())
	defer ctx.Cancel()

	return cli.HandleExecutionError(fn(ctx, app))
}
