// Package config loads gitanalyzer settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidBackend      = errors.New("invalid history backend")
	ErrInvalidLimit        = errors.New("commit limit must not be negative")
	ErrInvalidZeroSpan     = errors.New("invalid zero_span policy")
	ErrInvalidMalformed    = errors.New("invalid malformed_counts policy")
	ErrInvalidReportFormat = errors.New("invalid report format")
	ErrEmptyReportOutput   = errors.New("report output path is empty")
	ErrInvalidLogLevel     = errors.New("invalid log level")
	ErrConfigNotFound      = errors.New("config file not found")
)

var (
	validBackends        = []string{BackendLibgit2, BackendGit}
	validZeroSpan        = []string{"unit", "fail"}
	validMalformedCounts = []string{"zero", "fail"}
	validReportFormats   = []string{ReportFormatAuto, ReportFormatPDF, ReportFormatHTML}
)

// Config holds all gitanalyzer settings.
type Config struct {
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Report    ReportConfig    `mapstructure:"report"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AnalysisConfig controls how history is read and averaged.
type AnalysisConfig struct {
	Backend         string `mapstructure:"backend"`
	Since           string `mapstructure:"since"`
	Limit           int    `mapstructure:"limit"`
	FirstParent     bool   `mapstructure:"first_parent"`
	ZeroSpan        string `mapstructure:"zero_span"`
	MalformedCounts string `mapstructure:"malformed_counts"`
}

// ReportConfig controls the report document.
type ReportConfig struct {
	Output string `mapstructure:"output"`
	Format string `mapstructure:"format"`
	Seed   int64  `mapstructure:"seed"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig controls OpenTelemetry export and the metrics text file.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	MetricsFile  string `mapstructure:"metrics_file"`
}

// LoadConfig reads configPath, or .gitanalyzer.yaml from the working directory
// or the home directory when configPath is empty. GITANALYZER_* environment
// variables override file values.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		_, statErr := os.Stat(configPath)
		if statErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfigNotFound, statErr)
		}

		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configFileName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")

		home, homeErr := os.UserHomeDir()
		if homeErr == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperCfg.AutomaticEnv()

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("analysis.backend", DefaultBackend)
	viperCfg.SetDefault("analysis.since", DefaultSince)
	viperCfg.SetDefault("analysis.limit", DefaultLimit)
	viperCfg.SetDefault("analysis.first_parent", DefaultFirstParent)
	viperCfg.SetDefault("analysis.zero_span", DefaultZeroSpan)
	viperCfg.SetDefault("analysis.malformed_counts", DefaultMalformedCounts)

	viperCfg.SetDefault("report.output", DefaultReportOutput)
	viperCfg.SetDefault("report.format", DefaultReportFormat)
	viperCfg.SetDefault("report.seed", DefaultReportSeed)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", DefaultLogJSON)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultOTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("telemetry.metrics_file", DefaultMetricsFile)
}

// Validate checks every enumerated setting.
func (c *Config) Validate() error {
	if !slices.Contains(validBackends, c.Analysis.Backend) {
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Analysis.Backend)
	}

	if c.Analysis.Limit < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, c.Analysis.Limit)
	}

	if !slices.Contains(validZeroSpan, c.Analysis.ZeroSpan) {
		return fmt.Errorf("%w: %q", ErrInvalidZeroSpan, c.Analysis.ZeroSpan)
	}

	if !slices.Contains(validMalformedCounts, c.Analysis.MalformedCounts) {
		return fmt.Errorf("%w: %q", ErrInvalidMalformed, c.Analysis.MalformedCounts)
	}

	if !slices.Contains(validReportFormats, c.Report.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidReportFormat, c.Report.Format)
	}

	if strings.TrimSpace(c.Report.Output) == "" {
		return ErrEmptyReportOutput
	}

	_, levelErr := c.Logging.SlogLevel()

	return levelErr
}

// SlogLevel parses Level as a slog level name.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(l.Level))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}

	return level, nil
}
