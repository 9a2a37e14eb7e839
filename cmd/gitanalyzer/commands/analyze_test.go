package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/gitanalyzer/pkg/analysis"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/history"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/observability"
)

type recordingExecutor struct {
	requests []analysis.Request
	services []*analysis.Service
	err      error
}

func (r *recordingExecutor) run(
	ctx context.Context,
	svc *analysis.Service,
	req analysis.Request,
) (history.AnalysisResult, error) {
	r.requests = append(r.requests, req)
	r.services = append(r.services, svc)

	if r.err != nil {
		return history.AnalysisResult{}, r.err
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []history.CommitRecord{
		{Hash: "b", Author: "Bob", When: base.AddDate(0, 0, 2), LinesChanged: 20},
		{Hash: "a", Author: "Alice", When: base, LinesChanged: 20},
	}

	result, err := svc.Aggregator.Aggregate(req.RepoPath, records)
	if err != nil {
		return history.AnalysisResult{}, err
	}

	svc.Metrics.RecordRun(ctx, observability.AnalysisStats{
		Backend: string(req.Backend),
		Commits: int64(result.Stats.TotalCommits),
		Lines:   int64(result.Stats.TotalLines),
		Authors: int64(len(result.Authors)),
	})

	return result, nil
}

func executeAnalyze(t *testing.T, exec *recordingExecutor, args ...string) (string, string, error) {
	t.Helper()

	cmd := newAnalyzeCommandWithDeps(exec.run)

	var stdout, stderr bytes.Buffer

	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}

func TestLogProgress(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	progress := logProgress(logger)

	for done := 1; done <= 2500; done++ {
		progress(done, 2500)
	}

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "commits resolved"))
	assert.Contains(t, out, "done=1000 total=2500")
	assert.Contains(t, out, "done=2000 total=2500")
	assert.Contains(t, out, "done=2500 total=2500")
}

func emptyConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))

	return path
}

func TestAnalyze_MissingPathFails(t *testing.T) {
	t.Parallel()

	exec := &recordingExecutor{}

	_, _, err := executeAnalyze(t, exec, "--config", emptyConfig(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path")
	assert.Empty(t, exec.requests)
}

func TestAnalyze_WritesReportAndTables(t *testing.T) {
	t.Parallel()

	exec := &recordingExecutor{}
	output := filepath.Join(t.TempDir(), "report.pdf")

	stdout, _, err := executeAnalyze(t, exec,
		"--config", emptyConfig(t), "-p", "/srv/repo", "-o", output, "--no-color", "--seed", "9")
	require.NoError(t, err)

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Contains(t, stdout, "Analysis completed successfully!")
	assert.Contains(t, stdout, "Report generated at: "+output)
	assert.Contains(t, stdout, "Repository Summary:")
	assert.Contains(t, stdout, "User Contributions:")
	assert.Contains(t, stdout, "User Contribution Percentages:")

	require.Len(t, exec.requests, 1)
	assert.Equal(t, analysis.Request{RepoPath: "/srv/repo", Backend: analysis.BackendLibgit2}, exec.requests[0])
	assert.Equal(t, history.ZeroSpanUnit, exec.services[0].Aggregator.ZeroSpan)
	assert.Equal(t, history.ChangeCountZero, exec.services[0].ChangeCounts)
	assert.NotNil(t, exec.services[0].Progress)
}

func TestAnalyze_FailureLeavesNoReport(t *testing.T) {
	t.Parallel()

	exec := &recordingExecutor{err: history.ErrEmptyHistory}
	dir := t.TempDir()
	output := filepath.Join(dir, "report.pdf")

	stdout, _, err := executeAnalyze(t, exec, "--config", emptyConfig(t), "-p", "/srv/repo", "-o", output)
	require.ErrorIs(t, err, history.ErrEmptyHistory)
	assert.NotContains(t, stdout, "Analysis completed successfully!")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAnalyze_ZeroSpanFailPolicy(t *testing.T) {
	t.Parallel()

	exec := &recordingExecutor{}
	output := filepath.Join(t.TempDir(), "report.pdf")

	_, _, err := executeAnalyze(t, exec,
		"--config", emptyConfig(t), "-p", "/srv/repo", "-o", output, "--zero-span", "fail", "--malformed", "fail")
	require.NoError(t, err)

	assert.Equal(t, history.ZeroSpanFail, exec.services[0].Aggregator.ZeroSpan)
	assert.Equal(t, history.ChangeCountFail, exec.services[0].ChangeCounts)
}

func TestAnalyze_FlagsOverrideConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "gitanalyzer.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`analysis:
  backend: git
  since: "2023-01-01"
  limit: 10
report:
  output: `+filepath.Join(dir, "from-config.html")+`
`), 0o600))

	exec := &recordingExecutor{}

	_, _, err := executeAnalyze(t, exec, "--config", cfgPath, "-p", "/srv/repo", "--limit", "3", "--no-color")
	require.NoError(t, err)

	require.Len(t, exec.requests, 1)
	assert.Equal(t, analysis.Request{
		RepoPath: "/srv/repo", Backend: analysis.BackendGit, Since: "2023-01-01", Limit: 3,
	}, exec.requests[0])

	data, err := os.ReadFile(filepath.Join(dir, "from-config.html"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE html>")
}

func TestAnalyze_InvalidFlagValue(t *testing.T) {
	t.Parallel()

	exec := &recordingExecutor{}

	for _, args := range [][]string{
		{"--backend", "svn"},
		{"--format", "xml"},
	} {
		dir := t.TempDir()
		output := filepath.Join(dir, "report.pdf")

		stdout, _, err := executeAnalyze(t, exec,
			append([]string{"--config", emptyConfig(t), "-p", "/srv/repo", "-o", output}, args...)...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "invalid configuration", args)
		assert.NotContains(t, stdout, "Analysis completed successfully!", args)

		entries, readErr := os.ReadDir(dir)
		require.NoError(t, readErr)
		assert.Empty(t, entries, args)
	}

	assert.Empty(t, exec.requests)
}

func TestAnalyze_JSONOutputKeepsStdoutClean(t *testing.T) {
	t.Parallel()

	exec := &recordingExecutor{}
	output := filepath.Join(t.TempDir(), "report.html")

	stdout, stderr, err := executeAnalyze(t, exec,
		"--config", emptyConfig(t), "-p", "/srv/repo", "-o", output, "--format", "json", "--no-color")
	require.NoError(t, err)

	var payload map[string]any

	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	assert.Contains(t, payload, "shares")
	assert.Contains(t, stderr, "Analysis completed successfully!")
}

func TestAnalyze_WritesMetricsFile(t *testing.T) {
	t.Parallel()

	exec := &recordingExecutor{}
	dir := t.TempDir()
	metricsPath := filepath.Join(dir, "gitanalyzer.prom")

	_, _, err := executeAnalyze(t, exec,
		"--config", emptyConfig(t), "-p", "/srv/repo", "-o", filepath.Join(dir, "r.pdf"),
		"--metrics-file", metricsPath, "--no-color")
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Regexp(t, `gitanalyzer[._]analysis[._]lines\S*\{[^}]*backend="libgit2"[^}]*\} 40`, string(data))
}
