package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/gitanalyzer/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".gitanalyzer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultBackend, cfg.Analysis.Backend)
	assert.Equal(t, config.DefaultLimit, cfg.Analysis.Limit)
	assert.Equal(t, config.DefaultZeroSpan, cfg.Analysis.ZeroSpan)
	assert.Equal(t, config.DefaultMalformedCounts, cfg.Analysis.MalformedCounts)
	assert.Equal(t, config.DefaultReportOutput, cfg.Report.Output)
	assert.Equal(t, config.DefaultReportFormat, cfg.Report.Format)
	assert.Equal(t, int64(config.DefaultReportSeed), cfg.Report.Seed)
	assert.Equal(t, config.DefaultLogLevel, cfg.Logging.Level)
	assert.Empty(t, cfg.Telemetry.OTLPEndpoint)
}

func TestLoadConfig_ValidFileUnmarshals(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `analysis:
  backend: git
  since: "2024-01-01"
  limit: 500
  first_parent: true
  zero_span: fail
  malformed_counts: fail
report:
  output: out/report.html
  format: html
  seed: 42
logging:
  level: debug
  json: true
telemetry:
  otlp_endpoint: localhost:4317
  otlp_insecure: true
  metrics_file: metrics.prom
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, config.AnalysisConfig{
		Backend:         config.BackendGit,
		Since:           "2024-01-01",
		Limit:           500,
		FirstParent:     true,
		ZeroSpan:        "fail",
		MalformedCounts: "fail",
	}, cfg.Analysis)
	assert.Equal(t, config.ReportConfig{Output: "out/report.html", Format: "html", Seed: 42}, cfg.Report)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
	assert.True(t, cfg.Telemetry.OTLPInsecure)
	assert.Equal(t, "metrics.prom", cfg.Telemetry.MetricsFile)

	level, err := cfg.Logging.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"backend", "analysis:\n  backend: svn\n", config.ErrInvalidBackend},
		{"limit", "analysis:\n  limit: -1\n", config.ErrInvalidLimit},
		{"zero span", "analysis:\n  zero_span: guess\n", config.ErrInvalidZeroSpan},
		{"malformed", "analysis:\n  malformed_counts: skip\n", config.ErrInvalidMalformed},
		{"format", "report:\n  format: docx\n", config.ErrInvalidReportFormat},
		{"output", "report:\n  output: \"  \"\n", config.ErrEmptyReportOutput},
		{"level", "logging:\n  level: loud\n", config.ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, config.ErrConfigNotFound)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("GITANALYZER_ANALYSIS_BACKEND", "git")
	t.Setenv("GITANALYZER_REPORT_SEED", "7")

	cfg, err := config.LoadConfig(writeConfig(t, "analysis:\n  backend: libgit2\n"))
	require.NoError(t, err)

	assert.Equal(t, config.BackendGit, cfg.Analysis.Backend)
	assert.Equal(t, int64(7), cfg.Report.Seed)
}
