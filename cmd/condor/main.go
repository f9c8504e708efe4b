package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/condor/internal/common"
)

var (
	// Command-line flags
	configFiles []string
	logLevel    string
	outputDir   string
	clusters    int

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "condor",
	Short: "Chilean equity analysis pipeline",
	Long: `Condor downloads daily prices for a roster of Santiago-listed equities,
computes technical indicators, labels annual fundamentals, clusters tickers
into behavioural personalities and reports technical/fundamental divergences.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for generated artifacts (overrides config)")
	rootCmd.PersistentFlags().IntVarP(&clusters, "clusters", "k", 0, "Number of personality clusters (overrides config)")

	rootCmd.AddCommand(stageCommands()...)
	rootCmd.AddCommand(runCmd, scheduleCmd, versionCmd)
}

// setup runs before every command. Startup sequence (REQUIRED ORDER):
// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
// 2. Apply CLI overrides (highest priority)
// 3. Initialize logger
// 4. Print banner
func setup(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("condor.toml"); err == nil {
			configFiles = append(configFiles, "condor.toml")
		} else if _, err := os.Stat("deployments/local/condor.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/condor.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	common.ApplyFlagOverrides(config, logLevel, outputDir, clusters)
	if err := config.Validate(); err != nil {
		return err
	}

	logger = common.InitLogger(config)
	common.PrintBanner(config, logger)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Str("badger_path", config.Storage.Badger.Path).
		Msg("Resolved configuration")

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
