package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/sushrusha/sushrusha/internal/cli"
	"github.com/sushrusha/sushrusha/internal/config"
	"github.com/sushrusha/sushrusha/internal/logging"
)

var evaluatorCmd = &cobra.Command{
	Use:   "evaluator",
	Short: "Run the local practice evaluator",
}

var evaluatorServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the evaluator HTTP API",
	Long:  `Serves the scenario catalog and scores sessions in memory. Sessions are lost on restart.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Evaluator.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("scenarios") {
			cfg.Evaluator.ScenariosDir, _ = cmd.Flags().GetString("scenarios")
		}

		level := logging.ParseLevel(cfg.Log.Level)
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			level = slog.LevelDebug
		}
		logger := logging.New(level)

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		err = cli.ServeEvaluator(ctx, cli.ServeOptions{
			Addr:         cfg.Evaluator.Addr,
			ScenariosDir: cfg.Evaluator.ScenariosDir,
			Logger:       logger,
			Ready: func(addr string) {
				fmt.Printf("Sushrusha evaluator listening on %s\n", addr)
			},
		})
		if sig := ctx.Signal(); sig != nil {
			fmt.Printf("\nEvaluator stopped (%v)\n", sig)
		}
		return err
	},
}

var evaluatorGraphCmd = &cobra.Command{
	Use:   "graph <scenario-id>",
	Short: "Print the dialogue graph of a scenario as a Mermaid flowchart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("scenarios")
		return cli.PrintScenarioGraph(os.Stdout, dir, args[0])
	},
}

func init() {
	rootCmd.AddCommand(evaluatorCmd)
	evaluatorCmd.AddCommand(evaluatorServeCmd)
	evaluatorCmd.AddCommand(evaluatorGraphCmd)
	evaluatorGraphCmd.Flags().String("scenarios", "", "Directory of scenario YAML files (default: built-in pack)")

	evaluatorServeCmd.Flags().String("addr", "", "Address to listen on (default from config, :8000)")
	evaluatorServeCmd.Flags().String("scenarios", "", "Directory of scenario YAML files (default: built-in pack)")
}
