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

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the full pipeline on the configured cron expression",
	Long:  `Runs the full pipeline on [schedule] cron until interrupted. A tick that fires while a run is still in progress is skipped.`,
	Args:  cobra.NoArgs,
	RunE:  runSchedule,
}

func runSchedule(cmd *cobra.Command, args []string) error {
	application, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	scheduler, err := pipeline.NewScheduler(config.Schedule.Cron, func(ctx context.Context) error {
		_, err := application.Run(ctx, pipeline.AllStages()...)
		return err
	}, logger)
	if err != nil {
		return err
	}
	if err := scheduler.Start(); err != nil {
		return err
	}

	logger.Info().Str("cron", config.Schedule.Cron).Msg("Scheduler ready - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Interrupt signal received")
	scheduler.Stop()
	return nil
}
