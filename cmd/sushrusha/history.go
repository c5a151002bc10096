package main

import (
	"github.com/spf13/cobra"
	"github.com/sushrusha/sushrusha/internal/cli"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past sessions of this device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		all, _ := cmd.Flags().GetBool("all")
		return withApp(cmd, func(ctx *cli.SignalContext, app *cli.App) error {
			return cli.History(ctx, app, cli.HistoryOptions{Limit: limit, All: all})
		})
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <session-id>",
	Short: "Show the report of a finished session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx *cli.SignalContext, app *cli.App) error {
			return cli.Report(ctx, app, args[0])
		})
	},
}

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Show the device identifier used to group history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx *cli.SignalContext, app *cli.App) error {
			return cli.ShowDevice(ctx, app)
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(deviceCmd)

	historyCmd.Flags().IntP("limit", "n", 0, "Maximum number of sessions (default from config)")
	historyCmd.Flags().Bool("all", false, "List sessions of every device")
}
