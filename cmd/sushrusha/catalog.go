package main

import (
	"github.com/spf13/cobra"
	"github.com/sushrusha/sushrusha/internal/cli"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the languages offered by the evaluator",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx *cli.SignalContext, app *cli.App) error {
			return cli.ListLanguages(ctx, app)
		})
	},
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the training scenarios",
	Long:  `Lists the scenarios available in the configured language (see --lang).`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx *cli.SignalContext, app *cli.App) error {
			return cli.ListScenarios(ctx, app, app.Config.Language)
		})
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(scenariosCmd)
}
