package gitcli_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/gitanalyzer/pkg/gitcli"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/history"
)

// scratchRepo builds a repository with the git binary, skipping when git is absent.
type scratchRepo struct {
	t   *testing.T
	dir string
}

func newScratchRepo(t *testing.T) *scratchRepo {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	repo := &scratchRepo{t: t, dir: t.TempDir()}
	repo.git(nil, "init", "--quiet")

	return repo
}

func (r *scratchRepo) git(env []string, args ...string) {
	r.t.Helper()

	base := []string{"-c", "commit.gpgsign=false", "-c", "core.autocrlf=false"}

	cmd := exec.Command("git", append(base, args...)...)
	cmd.Dir = r.dir
	cmd.Env = append(os.Environ(), env...)

	out, err := cmd.CombinedOutput()
	require.NoError(r.t, err, string(out))
}

func (r *scratchRepo) commit(author, date, name, content string) {
	r.t.Helper()

	require.NoError(r.t, os.WriteFile(filepath.Join(r.dir, name), []byte(content), 0o644))

	r.git(nil, "add", "-A")
	r.git([]string{
		"GIT_AUTHOR_NAME=" + author,
		"GIT_AUTHOR_EMAIL=" + author + "@example.com",
		"GIT_AUTHOR_DATE=" + date,
		"GIT_COMMITTER_NAME=" + author,
		"GIT_COMMITTER_EMAIL=" + author + "@example.com",
		"GIT_COMMITTER_DATE=" + date,
	}, "commit", "--quiet", "--allow-empty", "-m", name)
}

func TestSource_ReadsHistory(t *testing.T) {
	t.Parallel()

	repo := newScratchRepo(t)
	repo.commit("alice", "2024-01-01T00:00:00Z", "a.txt", "1\n2\n3\n")
	repo.commit("bob", "2024-01-05T00:00:00Z", "a.txt", "1\n2\n4\n")
	repo.commit("alice", "2024-01-11T00:00:00Z", "b.txt", "x\n")

	src := gitcli.NewSource(repo.dir, gitcli.Options{})

	entries, err := src.CommitLog(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "alice", entries[0].Author)
	assert.Equal(t, "bob", entries[1].Author)

	stats, err := src.ChangeStats(context.Background(), entries[1].Hash)
	require.NoError(t, err)
	assert.Equal(t, history.ChangeStats{Insertions: 1, Deletions: 1}, stats)

	result, err := history.Analyze(context.Background(), repo.dir, src, history.Aggregator{}, history.CollectOptions{})
	require.NoError(t, err)
	assert.Equal(t, 6, result.Stats.TotalLines)
	assert.InDelta(t, 10.0, result.Span.Days, 1e-9)
}

func TestSource_EmptyCommitHasNoLines(t *testing.T) {
	t.Parallel()

	repo := newScratchRepo(t)
	repo.commit("alice", "2024-01-01T00:00:00Z", "a.txt", "1\n")
	repo.git([]string{
		"GIT_AUTHOR_NAME=carol",
		"GIT_AUTHOR_EMAIL=carol@example.com",
		"GIT_AUTHOR_DATE=2024-01-03T00:00:00Z",
		"GIT_COMMITTER_NAME=carol",
		"GIT_COMMITTER_EMAIL=carol@example.com",
		"GIT_COMMITTER_DATE=2024-01-03T00:00:00Z",
	}, "commit", "--quiet", "--allow-empty", "-m", "empty")

	src := gitcli.NewSource(repo.dir, gitcli.Options{Limit: 1})

	entries, err := src.CommitLog(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "carol", entries[0].Author)

	stats, err := src.ChangeStats(context.Background(), entries[0].Hash)
	require.NoError(t, err)
	assert.Zero(t, stats.Lines())
}

func TestSource_UnbornHeadIsEmptyHistory(t *testing.T) {
	t.Parallel()

	repo := newScratchRepo(t)
	src := gitcli.NewSource(repo.dir, gitcli.Options{})

	entries, err := src.CommitLog(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = history.Collect(context.Background(), src, history.CollectOptions{})
	require.ErrorIs(t, err, history.ErrEmptyHistory)
}

func TestSource_NotARepository(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	src := gitcli.NewSource(t.TempDir(), gitcli.Options{})

	_, err := src.CommitLog(context.Background())

	var subErr *gitcli.SubprocessError
	require.ErrorAs(t, err, &subErr)
	assert.NotZero(t, subErr.ExitCode)
}

func TestSource_RejectsOptionLikeRevision(t *testing.T) {
	t.Parallel()

	src := gitcli.NewSource(t.TempDir(), gitcli.Options{})

	_, err := src.ChangeStats(context.Background(), "--output=/tmp/x")
	require.ErrorIs(t, err, gitcli.ErrInvalidRevision)
}
