package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ternarybob/condor/internal/app"
	"github.com/ternarybob/condor/internal/pipeline"
)

var stageDescriptions = map[string]string{
	pipeline.StageDownload:     "Download daily prices for the roster",
	pipeline.StageMacro:        "Download the macro basket into one date-indexed table",
	pipeline.StageIndicators:   "Compute the technical indicator table from downloaded prices",
	pipeline.StageFundamentals: "Build the labelled annual fundamentals table",
	pipeline.StageProfile:      "Cluster tickers into behavioural personalities",
	pipeline.StageFuse:         "Join technicals with fundamentals and detect divergences",
	pipeline.StageCorrelate:    "Compute the indicator correlation matrix",
	pipeline.StageElbow:        "Compute the clustering inertia curve",
	pipeline.StageExport:       "Upsert prices, indicators and fundamentals into PostgreSQL",
	pipeline.StageReport:       "Write the executive summary as markdown and PDF",
}

// stageCommands returns one subcommand per pipeline stage
func stageCommands() []*cobra.Command {
	var cmds []*cobra.Command
	for _, stage := range pipeline.AllStages() {
		stage := stage
		cmds = append(cmds, &cobra.Command{
			Use:   stage.Name(),
			Short: stageDescriptions[stage.Name()],
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return execute(stage)
			},
		})
	}
	return cmds
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every stage in order",
	Long:  `Runs the full pipeline. A failed stage is recorded and the remaining stages still run.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(pipeline.AllStages()...)
	},
}

func execute(stages ...pipeline.Stage) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	run, err := application.Run(ctx, stages...)
	if run != nil {
		for _, s := range run.Stages {
			event := logger.Info()
			if s.Error != "" {
				event = logger.Error().Str("error", s.Error)
			}
			event.Str("stage", s.Name).Str("status", string(s.Status)).Int("rows", s.Rows).Msg("Stage summary")
		}
	}
	return err
}
