package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/sushrusha/sushrusha/internal/cli"
)

var playCmd = &cobra.Command{
	Use:   "play <scenario-id>",
	Short: "Practice a scenario interactively",
	Long: `Starts a session for the scenario and reads your responses from stdin, one
per line. Type 'exit' to leave; when the patient is done, press Enter to
get your report.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx *cli.SignalContext, app *cli.App) error {
			if cmd.Flags().Changed("metrics-addr") {
				app.Config.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
			}
			return cli.Play(ctx, app, cli.PlayOptions{
				ScenarioID: args[0],
				Language:   app.Config.Language,
				In:         os.Stdin,
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while playing (e.g. :9090)")
}
