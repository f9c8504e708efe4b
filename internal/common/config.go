package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment  string             `toml:"environment"` // "development" or "production"
	Logging      LoggingConfig      `toml:"logging"`
	Storage      StorageConfig      `toml:"storage"`
	EODHD        EODHDConfig        `toml:"eodhd"`
	Market       MarketConfig       `toml:"market"`
	Macro        MacroConfig        `toml:"macro"`
	Files        FilesConfig        `toml:"files"`
	Fundamentals FundamentalsConfig `toml:"fundamentals"`
	Profiling    ProfilingConfig    `toml:"profiling"`
	Analysis     AnalysisConfig     `toml:"analysis"`
	Report       ReportConfig       `toml:"report"`
	Schedule     ScheduleConfig     `toml:"schedule"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Output []string `toml:"output"`                                       // "stdout", "file"
}

type StorageConfig struct {
	Badger   BadgerConfig   `toml:"badger"`
	Postgres PostgresConfig `toml:"postgres"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean runs
}

// PostgresConfig controls the optional relational export
type PostgresConfig struct {
	Enabled bool   `toml:"enabled"`
	DSN     string `toml:"dsn" validate:"required_if=Enabled true"` // lib/pq connection string
}

// EODHDConfig configures the market data provider
type EODHDConfig struct {
	APIKey    string        `toml:"api_key"`
	BaseURL   string        `toml:"base_url" validate:"required,url"`
	RateLimit int           `toml:"rate_limit" validate:"min=1"` // requests per second
	Timeout   time.Duration `toml:"timeout"`
}

// MarketConfig describes the equity universe
type MarketConfig struct {
	Exchange     string `toml:"exchange" validate:"required"`      // exchange code, "SN" for Santiago
	StartDate    string `toml:"start_date" validate:"required"`    // first trading day to download (YYYY-MM-DD)
	RosterFile   string `toml:"roster_file" validate:"required"`   // CSV with one ticker per row
	RosterColumn string `toml:"roster_column" validate:"required"` // ticker column in the roster file
	RosterSep    string `toml:"roster_separator" validate:"len=1"`
}

// MacroConfig maps friendly series names to provider symbols
type MacroConfig struct {
	Assets map[string]string `toml:"assets"`
}

// FilesConfig holds artifact locations and the CSV dialect
type FilesConfig struct {
	OutputDir     string `toml:"output_dir" validate:"required"`
	Prices        string `toml:"prices"`
	Technical     string `toml:"technical"`
	Fundamentals  string `toml:"fundamentals"`
	Macro         string `toml:"macro"`
	Profiles      string `toml:"profiles"`
	Opportunities string `toml:"opportunities"`
	Separator     string `toml:"separator" validate:"len=1"`
	Decimal       string `toml:"decimal" validate:"len=1"`
}

// FundamentalsConfig selects where annual ratios come from
type FundamentalsConfig struct {
	Source   string `toml:"source" validate:"oneof=seed csv eodhd"` // "seed" (YAML), "csv" (curated CSV), "eodhd"
	SeedFile string `toml:"seed_file"`
	CSVFile  string `toml:"csv_file"`
}

// ProfilingConfig drives the clustering stage
type ProfilingConfig struct {
	Clusters      int     `toml:"clusters" validate:"min=1"`
	Restarts      int     `toml:"restarts" validate:"min=1"`
	Seed          uint64  `toml:"seed"`
	MaxIterations int     `toml:"max_iterations" validate:"min=1"`
	Tolerance     float64 `toml:"tolerance" validate:"gte=0"`
	ElbowMaxK     int     `toml:"elbow_max_k" validate:"min=1"`
}

// AnalysisConfig drives the correlation stage
type AnalysisConfig struct {
	CorrelationColumns []string `toml:"correlation_columns" validate:"min=2"`
	TopPairs           int      `toml:"top_pairs" validate:"min=0"`
}

// ReportConfig controls the executive summary
type ReportConfig struct {
	Title        string `toml:"title"`
	MarkdownFile string `toml:"markdown_file"`
	PDFFile      string `toml:"pdf_file"`
}

// ScheduleConfig controls the unattended mode
type ScheduleConfig struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"` // standard 5-field expression
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/condor",
			},
			Postgres: PostgresConfig{
				Enabled: false,
				DSN:     "postgres://localhost:5432/agente_condor?sslmode=disable",
			},
		},
		EODHD: EODHDConfig{
			BaseURL:   "https://eodhd.com/api",
			RateLimit: 10,
			Timeout:   30 * time.Second,
		},
		Market: MarketConfig{
			Exchange:     "SN",
			StartDate:    "2025-04-01",
			RosterFile:   "CSV/acciones.csv",
			RosterColumn: "NEMOTECNICO",
			RosterSep:    ",",
		},
		Macro: MacroConfig{
			Assets: DefaultMacroAssets(),
		},
		Files: FilesConfig{
			OutputDir:     "output",
			Prices:        "acciones_master.csv",
			Technical:     "database_maestra_tecnica.csv",
			Fundamentals:  "database_fundamental.csv",
			Macro:         "database_macro_expandida.csv",
			Profiles:      "acciones_con_perfil.csv",
			Opportunities: "oportunidades_de_divergencia.csv",
			Separator:     ";",
			Decimal:       ",",
		},
		Fundamentals: FundamentalsConfig{
			Source:   "seed",
			SeedFile: "CSV/fundamental.yaml",
			CSVFile:  "CSV/fundamental.csv",
		},
		Profiling: ProfilingConfig{
			Clusters:      3,
			Restarts:      10,
			Seed:          42,
			MaxIterations: 300,
			Tolerance:     1e-4,
			ElbowMaxK:     9,
		},
		Analysis: AnalysisConfig{
			CorrelationColumns: []string{"close", "rsi_14", "stoch_k", "cci_20", "adx_14", "volume_normalized_20"},
			TopPairs:           5,
		},
		Report: ReportConfig{
			Title:        "Agente Condor - Resumen Ejecutivo",
			MarkdownFile: "resumen_ejecutivo.md",
			PDFFile:      "resumen_ejecutivo.pdf",
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Cron:    "30 18 * * 1-5", // after the Santiago close
		},
	}
}

// DefaultMacroAssets returns the macro basket as EODHD symbols
func DefaultMacroAssets() map[string]string {
	return map[string]string{
		"CHILE_ETF":      "ECH.US",
		"SP500":          "GSPC.INDX",
		"NASDAQ":         "IXIC.INDX",
		"RUSSELL2000":    "RUT.INDX",
		"VIX":            "VIX.INDX",
		"DAX_ALEMANIA":   "GDAXI.INDX",
		"IBEX35_ESP":     "IBEX.INDX",
		"SHANGHAI_CHINA": "SSEC.INDX",
		"NIKKEI_JAPON":   "N225.INDX",
		"BOVESPA_BRASIL": "BVSP.INDX",
		"COBRE":          "HG.COMM",
		"PETROLEO_WTI":   "CL.COMM",
		"ORO":            "GC.COMM",
		"PLATA":          "SI.COMM",
		"GAS_NATURAL":    "NG.COMM",
		"USD_CLP":        "USDCLP.FOREX",
		"DOLAR_INDEX":    "DXY.INDX",
		"EURO_USD":       "EURUSD.FOREX",
		"BITCOIN_USD":    "BTC-USD.CC",
		"BONO_10Y":       "TNX.INDX",
		"LIT_ETF":        "LIT.US",
	}
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. CLI flags are applied afterwards by ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CONDOR_ENV"); env != "" {
		config.Environment = env
	}

	// Logging configuration
	if level := os.Getenv("CONDOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("CONDOR_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("CONDOR_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if reset := os.Getenv("CONDOR_BADGER_RESET_ON_STARTUP"); reset != "" {
		if r, err := strconv.ParseBool(reset); err == nil {
			config.Storage.Badger.ResetOnStartup = r
		}
	}
	if enabled := os.Getenv("CONDOR_POSTGRES_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Storage.Postgres.Enabled = e
		}
	}
	if dsn := os.Getenv("CONDOR_POSTGRES_DSN"); dsn != "" {
		config.Storage.Postgres.DSN = dsn
	}

	// Provider configuration
	if apiKey := os.Getenv("CONDOR_EODHD_API_KEY"); apiKey != "" {
		config.EODHD.APIKey = apiKey
	} else if apiKey := os.Getenv("EODHD_API_KEY"); apiKey != "" {
		config.EODHD.APIKey = apiKey
	}
	if baseURL := os.Getenv("CONDOR_EODHD_BASE_URL"); baseURL != "" {
		config.EODHD.BaseURL = baseURL
	}
	if rateLimit := os.Getenv("CONDOR_EODHD_RATE_LIMIT"); rateLimit != "" {
		if rl, err := strconv.Atoi(rateLimit); err == nil {
			config.EODHD.RateLimit = rl
		}
	}
	if timeout := os.Getenv("CONDOR_EODHD_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.EODHD.Timeout = d
		}
	}

	// Market configuration
	if startDate := os.Getenv("CONDOR_START_DATE"); startDate != "" {
		config.Market.StartDate = startDate
	}
	if rosterFile := os.Getenv("CONDOR_ROSTER_FILE"); rosterFile != "" {
		config.Market.RosterFile = rosterFile
	}

	// Files configuration
	if outputDir := os.Getenv("CONDOR_OUTPUT_DIR"); outputDir != "" {
		config.Files.OutputDir = outputDir
	}

	// Fundamentals configuration
	if source := os.Getenv("CONDOR_FUNDAMENTALS_SOURCE"); source != "" {
		config.Fundamentals.Source = source
	}

	// Profiling configuration
	if clusters := os.Getenv("CONDOR_CLUSTERS"); clusters != "" {
		if k, err := strconv.Atoi(clusters); err == nil {
			config.Profiling.Clusters = k
		}
	}
	if seed := os.Getenv("CONDOR_SEED"); seed != "" {
		if s, err := strconv.ParseUint(seed, 10, 64); err == nil {
			config.Profiling.Seed = s
		}
	}

	// Schedule configuration
	if schedule := os.Getenv("CONDOR_SCHEDULE"); schedule != "" {
		config.Schedule.Cron = schedule
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config (highest priority)
func ApplyFlagOverrides(config *Config, logLevel, outputDir string, clusters int) {
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
	if outputDir != "" {
		config.Files.OutputDir = outputDir
	}
	if clusters > 0 {
		config.Profiling.Clusters = clusters
	}
}

// Validate checks struct tags and the cross-field rules the tags cannot express
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := c.StartTime(); err != nil {
		return fmt.Errorf("invalid configuration: market.start_date: %w", err)
	}
	if c.Files.Separator == c.Files.Decimal {
		return fmt.Errorf("invalid configuration: files.separator and files.decimal must differ")
	}
	if c.Schedule.Enabled {
		if err := ValidateSchedule(c.Schedule.Cron); err != nil {
			return fmt.Errorf("invalid configuration: schedule.cron: %w", err)
		}
	}
	return nil
}

// StartTime parses Market.StartDate
func (c *Config) StartTime() (time.Time, error) {
	return time.Parse("2006-01-02", c.Market.StartDate)
}

// OutputPath resolves an artifact name inside the output directory
func (c *Config) OutputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Files.OutputDir, name)
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ValidateSchedule validates a cron schedule expression and ensures at most one run per hour
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]
	if minuteField == "*" || strings.HasPrefix(minuteField, "*/") || strings.Contains(minuteField, ",") || strings.Contains(minuteField, "-") {
		return fmt.Errorf("schedule must run at most once per hour, got minute field %q", minuteField)
	}

	return nil
}
