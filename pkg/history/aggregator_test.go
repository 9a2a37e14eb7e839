package history_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/gitanalyzer/pkg/history"
)

const (
	testRepoPath = "/tmp/repo"
	rateDelta    = 1e-9
	day          = 24 * time.Hour
)

var testEpoch = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func record(hash, author string, daysAfterEpoch float64, lines int) history.CommitRecord {
	return history.CommitRecord{
		Hash:         hash,
		Author:       author,
		When:         testEpoch.Add(time.Duration(daysAfterEpoch * float64(day))),
		LinesChanged: lines,
	}
}

func TestAggregate_TwoCommitsOneAuthor(t *testing.T) {
	t.Parallel()

	commits := []history.CommitRecord{
		record("b", "alice", 10, 20),
		record("a", "alice", 0, 10),
	}

	result, err := history.Aggregator{}.Aggregate(testRepoPath, commits)
	require.NoError(t, err)

	assert.Equal(t, testRepoPath, result.RepoPath)
	assert.InDelta(t, 10.0, result.Span.Days, rateDelta)
	assert.Equal(t, 2, result.Stats.TotalCommits)
	assert.Equal(t, 30, result.Stats.TotalLines)
	assert.InDelta(t, 3.0, result.Stats.Lines.Daily, rateDelta)
	assert.InDelta(t, 21.0, result.Stats.Lines.Weekly, rateDelta)
	assert.InDelta(t, 90.0, result.Stats.Lines.Monthly, rateDelta)
	assert.InDelta(t, 0.2, result.Stats.Commits.Daily, rateDelta)

	require.Len(t, result.Authors, 1)
	alice := result.Authors[0]
	assert.Equal(t, "alice", alice.Author)
	assert.Equal(t, 30, alice.TotalLines)
	assert.Equal(t, 2, alice.Commits())
	assert.Equal(t, result.Stats.Lines, alice.Lines)
}

func TestAggregate_TwoAuthorsShares(t *testing.T) {
	t.Parallel()

	commits := []history.CommitRecord{
		record("c", "alice", 30, 25),
		record("b", "bob", 12, 10),
		record("a", "alice", 0, 15),
	}

	result, err := history.Aggregator{}.Aggregate(testRepoPath, commits)
	require.NoError(t, err)

	assert.Equal(t, 50, result.Stats.TotalLines)
	require.Len(t, result.Authors, 2)
	assert.Equal(t, "alice", result.Authors[0].Author)
	assert.Equal(t, 40, result.Authors[0].TotalLines)
	assert.Equal(t, "bob", result.Authors[1].Author)
	assert.Equal(t, 10, result.Authors[1].TotalLines)

	shares := history.Shares(result)
	require.Len(t, shares, 2)
	assert.InDelta(t, 80.0, shares[0].TotalPct, rateDelta)
	assert.InDelta(t, 20.0, shares[1].TotalPct, rateDelta)
	assert.InDelta(t, 80.0, shares[0].DailyPct, rateDelta)
	assert.InDelta(t, 20.0, shares[1].MonthlyPct, rateDelta)
}

func TestAggregate_SingleCommitFailsByDefault(t *testing.T) {
	t.Parallel()

	commits := []history.CommitRecord{record("a", "alice", 0, 12)}

	_, err := history.Aggregator{}.Aggregate(testRepoPath, commits)
	require.ErrorIs(t, err, history.ErrZeroSpan)

	var spanErr *history.ZeroSpanError
	require.ErrorAs(t, err, &spanErr)
	assert.Equal(t, 1, spanErr.Commits)
	assert.True(t, spanErr.At.Equal(testEpoch))
}

func TestAggregate_SingleCommitUnitSpan(t *testing.T) {
	t.Parallel()

	commits := []history.CommitRecord{record("a", "alice", 0, 12)}

	result, err := history.Aggregator{ZeroSpan: history.ZeroSpanUnit}.Aggregate(testRepoPath, commits)
	require.NoError(t, err)

	assert.True(t, result.Span.Clamped)
	assert.InDelta(t, 1.0, result.Span.Days, rateDelta)
	assert.InDelta(t, 12.0, result.Stats.Lines.Daily, rateDelta)
	assert.InDelta(t, 84.0, result.Stats.Lines.Weekly, rateDelta)
	assert.InDelta(t, 360.0, result.Stats.Lines.Monthly, rateDelta)
	assert.InDelta(t, 1.0, result.Stats.Commits.Daily, rateDelta)
}

func TestAggregate_SharedTimestampIsZeroSpan(t *testing.T) {
	t.Parallel()

	commits := []history.CommitRecord{
		record("b", "bob", 3, 1),
		record("a", "alice", 3, 2),
	}

	_, err := history.Aggregator{}.Aggregate(testRepoPath, commits)
	require.ErrorIs(t, err, history.ErrZeroSpan)
}

func TestAggregate_EmptyCommitKeepsAuthor(t *testing.T) {
	t.Parallel()

	commits := []history.CommitRecord{
		record("b", "carol", 5, 0),
		record("a", "alice", 0, 8),
	}

	result, err := history.Aggregator{}.Aggregate(testRepoPath, commits)
	require.NoError(t, err)

	assert.Equal(t, 8, result.Stats.TotalLines)
	require.Len(t, result.Authors, 2)
	assert.Equal(t, "carol", result.Authors[0].Author)
	assert.Equal(t, 0, result.Authors[0].TotalLines)
	assert.Equal(t, 1, result.Authors[0].Commits())
	assert.Zero(t, result.Authors[0].Lines.Daily)

	shares := history.Shares(result)
	assert.Zero(t, shares[0].TotalPct)
	assert.InDelta(t, 100.0, shares[1].TotalPct, rateDelta)
}

func TestAggregate_EmptyHistory(t *testing.T) {
	t.Parallel()

	_, err := history.Aggregator{ZeroSpan: history.ZeroSpanUnit}.Aggregate(testRepoPath, nil)
	require.ErrorIs(t, err, history.ErrEmptyHistory)

	_, err = history.ComputeSpan(nil)
	require.ErrorIs(t, err, history.ErrEmptyHistory)
}

func TestAggregate_ConservationAndCompleteness(t *testing.T) {
	t.Parallel()

	authors := []string{"alice", "bob", "carol", "dave"}

	var commits []history.CommitRecord

	for i := 40; i > 0; i-- {
		commits = append(commits, record(
			"h"+string(rune('a'+i%26)),
			authors[(i*7)%len(authors)],
			float64(i)*1.5,
			(i*13)%37,
		))
	}

	result, err := history.Aggregator{}.Aggregate(testRepoPath, commits)
	require.NoError(t, err)

	sum := 0
	seen := make(map[string]bool)

	for _, a := range result.Authors {
		sum += a.TotalLines
		seen[a.Author] = true

		assert.InDelta(t, a.Lines.Daily*7, a.Lines.Weekly, rateDelta)
		assert.InDelta(t, a.Lines.Daily*30, a.Lines.Monthly, rateDelta)
	}

	assert.Equal(t, result.Stats.TotalLines, sum)
	assert.Len(t, seen, len(result.Authors))

	for _, c := range commits {
		assert.True(t, seen[c.Author], c.Author)
	}

	commitSum := 0
	for _, a := range result.Authors {
		commitSum += a.Commits()
	}

	assert.Equal(t, len(commits), commitSum)
}

func TestAggregate_AuthorOrderFollowsFirstOccurrence(t *testing.T) {
	t.Parallel()

	commits := []history.CommitRecord{
		record("d", "dave", 4, 1),
		record("c", "bob", 3, 1),
		record("b", "dave", 2, 1),
		record("a", "alice", 0, 1),
	}

	authors, err := history.Aggregator{}.ComputeAuthorStats(commits)
	require.NoError(t, err)

	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.Author)
	}

	assert.Equal(t, []string{"dave", "bob", "alice"}, names)
}

func TestAggregate_Deterministic(t *testing.T) {
	t.Parallel()

	commits := []history.CommitRecord{
		record("c", "bob", 9.25, 7),
		record("b", "alice", 4, 3),
		record("a", "bob", 0, 11),
	}

	first, err := history.Aggregator{}.Aggregate(testRepoPath, commits)
	require.NoError(t, err)

	second, err := history.Aggregator{}.Aggregate(testRepoPath, commits)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeRepositoryStats_MatchesAggregate(t *testing.T) {
	t.Parallel()

	commits := []history.CommitRecord{
		record("b", "bob", 2, 6),
		record("a", "alice", 0, 4),
	}

	stats, err := history.Aggregator{}.ComputeRepositoryStats(commits)
	require.NoError(t, err)

	result, err := history.Aggregator{}.Aggregate(testRepoPath, commits)
	require.NoError(t, err)

	assert.Equal(t, result.Stats, stats)
	assert.InDelta(t, 5.0, stats.Lines.Daily, rateDelta)
}

func TestComputeSpan_OutOfOrderIsAbsolute(t *testing.T) {
	t.Parallel()

	commits := []history.CommitRecord{
		record("a", "alice", 0, 1),
		record("b", "alice", 3, 1),
	}

	span, err := history.ComputeSpan(commits)
	require.NoError(t, err)

	assert.InDelta(t, 3.0, span.Days, rateDelta)
	assert.InDelta(t, 3.0/7, span.Weeks(), rateDelta)
	assert.InDelta(t, 0.1, span.Months(), rateDelta)
}

func TestParsePolicies(t *testing.T) {
	t.Parallel()

	zero, err := history.ParseZeroSpanPolicy("Unit")
	require.NoError(t, err)
	assert.Equal(t, history.ZeroSpanUnit, zero)
	assert.Equal(t, "unit", zero.String())

	_, err = history.ParseZeroSpanPolicy("guess")
	require.ErrorIs(t, err, history.ErrUnknownPolicy)

	counts, err := history.ParseChangeCountPolicy("zero")
	require.NoError(t, err)
	assert.Equal(t, history.ChangeCountZero, counts)
	assert.Equal(t, "fail", history.ChangeCountFail.String())

	_, err = history.ParseChangeCountPolicy("")
	require.ErrorIs(t, err, history.ErrUnknownPolicy)
}
