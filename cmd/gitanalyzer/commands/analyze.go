// Package commands implements the gitanalyzer subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/gitanalyzer/pkg/analysis"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/config"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/history"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/observability"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/report"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/report/console"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/safeconv"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/version"
)

// ErrMissingPath is returned when no repository path was given.
var ErrMissingPath = errors.New("repository path is required (--path)")

// analysisExecutor runs an analysis with a configured service.
type analysisExecutor func(ctx context.Context, svc *analysis.Service, req analysis.Request) (history.AnalysisResult, error)

// AnalyzeCommand holds flags and dependencies for the analyze command.
type AnalyzeCommand struct {
	path         string
	output       string
	reportFormat string
	format       string
	backend      string
	since        string
	limit        int
	firstParent  bool
	zeroSpan     string
	malformed    string
	seed         int64
	noColor      bool
	metricsFile  string
	configPath   string

	exec analysisExecutor
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	return newAnalyzeCommandWithDeps(func(ctx context.Context, svc *analysis.Service, req analysis.Request) (history.AnalysisResult, error) {
		return svc.Run(ctx, req)
	})
}

func newAnalyzeCommandWithDeps(exec analysisExecutor) *cobra.Command {
	ac := &AnalyzeCommand{exec: exec}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a repository and write a contribution report",
		Long: `Walk the history of a Git repository, attribute changed lines to commit
authors and write a PDF or HTML report with per-author totals, averages and
pie charts. Summary tables are printed to stdout.`,
		Args: cobra.NoArgs,
		RunE: ac.run,
	}

	cmd.Flags().StringVarP(&ac.path, "path", "p", "", "Path to the Git repository (required)")
	cmd.Flags().StringVarP(&ac.output, "output", "o", config.DefaultReportOutput, "Report output path")
	cmd.Flags().StringVar(&ac.reportFormat, "report-format", config.DefaultReportFormat,
		"Report format: auto, pdf, html (auto picks by file extension)")
	cmd.Flags().StringVar(&ac.format, "format", console.FormatTable, "Console output format: table, json, yaml")
	cmd.Flags().StringVar(&ac.backend, "backend", config.DefaultBackend, "History backend: libgit2, git")
	cmd.Flags().StringVar(&ac.since, "since", "", "Only analyze commits after this time (e.g., '720h', '2024-01-01', RFC3339)")
	cmd.Flags().IntVar(&ac.limit, "limit", 0, "Limit number of commits to analyze (0 = no limit)")
	cmd.Flags().BoolVar(&ac.firstParent, "first-parent", false, "Follow only first parent of merge commits")
	cmd.Flags().StringVar(&ac.zeroSpan, "zero-span", config.DefaultZeroSpan,
		"Histories with no elapsed time: unit (average over one day), fail")
	cmd.Flags().StringVar(&ac.malformed, "malformed", config.DefaultMalformedCounts,
		"Unparsable change counts: zero (count as 0 lines and warn), fail")
	cmd.Flags().Int64Var(&ac.seed, "seed", 0, "Chart color seed (0 = new colors every run)")
	cmd.Flags().BoolVar(&ac.noColor, "no-color", false, "Disable colored console output")
	cmd.Flags().StringVar(&ac.metricsFile, "metrics-file", "", "Write run metrics to a Prometheus text file")
	cmd.Flags().StringVar(&ac.configPath, "config", "", "Config file (default: .gitanalyzer.yaml in . or $HOME)")

	_ = cmd.MarkFlagRequired("path")

	return cmd
}

func (ac *AnalyzeCommand) run(cmd *cobra.Command, _ []string) error {
	if ac.path == "" {
		return ErrMissingPath
	}

	cfg, err := ac.loadConfig(cmd)
	if err != nil {
		return err
	}

	svc, err := buildService(cfg)
	if err != nil {
		return err
	}

	reportFormat, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return err
	}

	verbose, quiet := verbosity(cmd)

	providers, err := initObservability(cfg, observability.ModeCLI, cmd.ErrOrStderr(), verbose, quiet)
	if err != nil {
		return err
	}

	defer shutdownObservability(providers)

	svc.Logger = providers.Logger
	svc.Tracer = providers.Tracer
	svc.Progress = logProgress(providers.Logger)

	metrics, writeMetrics, err := analysisMetrics(cfg, providers)
	if err != nil {
		return err
	}

	svc.Metrics = metrics

	result, err := ac.exec(cmd.Context(), svc, analysis.Request{
		RepoPath:    ac.path,
		Backend:     analysis.Backend(cfg.Analysis.Backend),
		Since:       cfg.Analysis.Since,
		Limit:       cfg.Analysis.Limit,
		FirstParent: cfg.Analysis.FirstParent,
	})
	if err != nil {
		return err
	}

	err = writeMetrics()
	if err != nil {
		return err
	}

	written, err := report.Write(cfg.Report.Output, reportFormat, result, report.Options{Seed: cfg.Report.Seed})
	if err != nil {
		return err
	}

	noColor := ac.noColor || !console.IsTerminal(cmd.OutOrStdout())

	if !quiet {
		printStatus(ac.statusWriter(cmd), written, noColor)
	}

	return console.Write(cmd.OutOrStdout(), ac.format, result, console.Options{NoColor: noColor})
}

// loadConfig reads the config file and applies explicitly set flags on top.
func (ac *AnalyzeCommand) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(ac.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	overrides := []struct {
		flag  string
		apply func()
	}{
		{"output", func() { cfg.Report.Output = ac.output }},
		{"report-format", func() { cfg.Report.Format = ac.reportFormat }},
		{"backend", func() { cfg.Analysis.Backend = ac.backend }},
		{"since", func() { cfg.Analysis.Since = ac.since }},
		{"limit", func() { cfg.Analysis.Limit = ac.limit }},
		{"first-parent", func() { cfg.Analysis.FirstParent = ac.firstParent }},
		{"zero-span", func() { cfg.Analysis.ZeroSpan = ac.zeroSpan }},
		{"malformed", func() { cfg.Analysis.MalformedCounts = ac.malformed }},
		{"seed", func() { cfg.Report.Seed = ac.seed }},
		{"metrics-file", func() { cfg.Telemetry.MetricsFile = ac.metricsFile }},
	}

	for _, o := range overrides {
		if flags.Changed(o.flag) {
			o.apply()
		}
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ac.format, err = console.ParseFormat(ac.format)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// statusWriter keeps stdout machine-readable for json and yaml output.
func (ac *AnalyzeCommand) statusWriter(cmd *cobra.Command) io.Writer {
	if ac.format == console.FormatTable {
		return cmd.OutOrStdout()
	}

	return cmd.ErrOrStderr()
}

func printStatus(w io.Writer, written report.Written, noColor bool) {
	success := color.New(color.FgGreen)
	if noColor {
		success.DisableColor()
	}

	success.Fprintln(w, "Analysis completed successfully!")
	fmt.Fprintf(w, "Report generated at: %s (%s)\n", written.Path, humanize.Bytes(safeconv.MustInt64ToUint64(written.Bytes)))
	fmt.Fprintln(w)
}

func buildService(cfg *config.Config) (*analysis.Service, error) {
	zeroSpan, err := history.ParseZeroSpanPolicy(cfg.Analysis.ZeroSpan)
	if err != nil {
		return nil, err
	}

	changeCounts, err := history.ParseChangeCountPolicy(cfg.Analysis.MalformedCounts)
	if err != nil {
		return nil, err
	}

	return &analysis.Service{
		Aggregator:   history.Aggregator{ZeroSpan: zeroSpan},
		ChangeCounts: changeCounts,
	}, nil
}

// analysisMetrics picks the meter for run metrics. With a metrics file the
// instruments live in a Prometheus registry dumped by the returned func.
// progressEvery is how many resolved commits pass between progress logs.
const progressEvery = 1000

// logProgress reports commit resolution at debug level, every progressEvery
// commits and once at the end.
func logProgress(logger *slog.Logger) func(done, total int) {
	return func(done, total int) {
		if done%progressEvery != 0 && done != total {
			return
		}

		logger.Debug("commits resolved", "done", done, "total", total)
	}
}

func analysisMetrics(
	cfg *config.Config,
	providers observability.Providers,
) (*observability.AnalysisMetrics, func() error, error) {
	if cfg.Telemetry.MetricsFile == "" {
		metrics, err := observability.NewAnalysisMetrics(providers.Meter)

		return metrics, func() error { return nil }, err
	}

	exporter, err := observability.NewTextfileExporter()
	if err != nil {
		return nil, nil, err
	}

	metrics, err := observability.NewAnalysisMetrics(exporter.Meter())
	if err != nil {
		return nil, nil, err
	}

	write := func() error {
		writeErr := exporter.WriteFile(cfg.Telemetry.MetricsFile)

		return errors.Join(writeErr, exporter.Shutdown(context.Background()))
	}

	return metrics, write, nil
}

func verbosity(cmd *cobra.Command) (verbose, quiet bool) {
	verbose, _ = cmd.Flags().GetBool("verbose")
	quiet, _ = cmd.Flags().GetBool("quiet")

	return verbose, quiet
}

func initObservability(
	cfg *config.Config,
	mode observability.AppMode,
	logWriter io.Writer,
	verbose, quiet bool,
) (observability.Providers, error) {
	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return observability.Providers{}, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.LogJSON = cfg.Logging.JSON
	obsCfg.LogWriter = logWriter
	obsCfg.LogLevel = level

	switch {
	case verbose:
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.DebugTrace = true
	case quiet:
		obsCfg.LogLevel = slog.LevelError
	}

	return observability.Init(obsCfg)
}

func shutdownObservability(providers observability.Providers) {
	err := providers.Shutdown(context.Background())
	if err != nil {
		providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}
