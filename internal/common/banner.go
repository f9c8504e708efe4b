package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and the resolved settings that matter for a run
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("Condor", GetVersion())

	logger.Info().
		Str("environment", config.Environment).
		Str("exchange", config.Market.Exchange).
		Str("start_date", config.Market.StartDate).
		Str("output_dir", config.Files.OutputDir).
		Int("clusters", config.Profiling.Clusters).
		Bool("postgres", config.Storage.Postgres.Enabled).
		Msg("Condor configuration")
}
