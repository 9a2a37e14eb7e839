package observability_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/gitanalyzer/pkg/observability"
)

func TestTextfileExporter_WritesRunMetrics(t *testing.T) {
	t.Parallel()

	exporter, err := observability.NewTextfileExporter()
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, exporter.Shutdown(context.Background())) })

	metrics, err := observability.NewAnalysisMetrics(exporter.Meter())
	require.NoError(t, err)

	metrics.RecordRun(context.Background(), observability.AnalysisStats{
		Backend:  "libgit2",
		Commits:  42,
		Lines:    1234,
		Authors:  3,
		Duration: 1500 * time.Millisecond,
	})

	red, err := observability.NewREDMetrics(exporter.Meter())
	require.NoError(t, err)

	done := red.TrackInflight(context.Background(), "gitanalyzer_analyze")
	red.RecordRequest(context.Background(), "gitanalyzer_analyze", observability.StatusError, time.Second)
	done()

	path := filepath.Join(t.TempDir(), "gitanalyzer.prom")
	require.NoError(t, exporter.WriteFile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(content)
	assert.Regexp(t, `gitanalyzer[._]analysis[._]commits[^\n]*backend="libgit2"[^\n]* 42`, text)
	assert.Regexp(t, `gitanalyzer[._]analysis[._]lines`, text)
	assert.Regexp(t, `gitanalyzer[._]errors`, text)
}

func TestAnalysisMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var metrics *observability.AnalysisMetrics
	metrics.RecordRun(context.Background(), observability.AnalysisStats{Commits: 1})

	var red *observability.REDMetrics
	red.RecordRequest(context.Background(), "op", observability.StatusOK, time.Second)
	red.TrackInflight(context.Background(), "op")()

	assert.Nil(t, metrics)
}
