package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRunsTotal    = "gitanalyzer.analysis.runs.total"
	metricCommitsTotal = "gitanalyzer.analysis.commits.total"
	metricLinesTotal   = "gitanalyzer.analysis.lines.total"
	metricAuthors      = "gitanalyzer.analysis.authors"
	metricRunDuration  = "gitanalyzer.analysis.duration.seconds"

	attrBackend = "backend"
)

// AnalysisMetrics holds instruments describing completed analysis runs.
type AnalysisMetrics struct {
	runsTotal    metric.Int64Counter
	commitsTotal metric.Int64Counter
	linesTotal   metric.Int64Counter
	authors      metric.Int64Gauge
	runDuration  metric.Float64Histogram
}

// AnalysisStats summarizes one run, decoupled from the history types.
type AnalysisStats struct {
	Backend  string
	Commits  int64
	Lines    int64
	Authors  int64
	Duration time.Duration
}

// NewAnalysisMetrics creates analysis metric instruments from the given meter.
func NewAnalysisMetrics(mt metric.Meter) (*AnalysisMetrics, error) {
	runs, err := mt.Int64Counter(metricRunsTotal,
		metric.WithDescription("Completed analysis runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunsTotal, err)
	}

	commits, err := mt.Int64Counter(metricCommitsTotal,
		metric.WithDescription("Total commits analyzed"),
		metric.WithUnit("{commit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommitsTotal, err)
	}

	lines, err := mt.Int64Counter(metricLinesTotal,
		metric.WithDescription("Total changed lines attributed"),
		metric.WithUnit("{line}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricLinesTotal, err)
	}

	authors, err := mt.Int64Gauge(metricAuthors,
		metric.WithDescription("Distinct authors in the last analyzed history"),
		metric.WithUnit("{author}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricAuthors, err)
	}

	duration, err := mt.Float64Histogram(metricRunDuration,
		metric.WithDescription("Analysis run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunDuration, err)
	}

	return &AnalysisMetrics{
		runsTotal:    runs,
		commitsTotal: commits,
		linesTotal:   lines,
		authors:      authors,
		runDuration:  duration,
	}, nil
}

// RecordRun records a completed run. Safe to call on a nil receiver.
func (am *AnalysisMetrics) RecordRun(ctx context.Context, stats AnalysisStats) {
	if am == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrBackend, stats.Backend))

	am.runsTotal.Add(ctx, 1, attrs)
	am.commitsTotal.Add(ctx, stats.Commits, attrs)
	am.linesTotal.Add(ctx, stats.Lines, attrs)
	am.authors.Record(ctx, stats.Authors, attrs)
	am.runDuration.Record(ctx, stats.Duration.Seconds(), attrs)
}
