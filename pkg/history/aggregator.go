package history

import (
	"fmt"
	"strings"
)

// ZeroSpanPolicy decides how a history with no elapsed time is averaged.
type ZeroSpanPolicy int

const (
	// ZeroSpanFail rejects the history with ErrZeroSpan.
	ZeroSpanFail ZeroSpanPolicy = iota
	// ZeroSpanUnit averages the history over a single day.
	ZeroSpanUnit
)

const (
	zeroSpanFailName = "fail"
	zeroSpanUnitName = "unit"
)

// ParseZeroSpanPolicy parses "fail" or "unit".
func ParseZeroSpanPolicy(name string) (ZeroSpanPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case zeroSpanFailName:
		return ZeroSpanFail, nil
	case zeroSpanUnitName:
		return ZeroSpanUnit, nil
	default:
		return ZeroSpanFail, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

func (p ZeroSpanPolicy) String() string {
	if p == ZeroSpanUnit {
		return zeroSpanUnitName
	}

	return zeroSpanFailName
}

// Aggregator derives repository and author statistics from commit records.
// The zero value is ready to use and rejects zero-span histories.
type Aggregator struct {
	ZeroSpan ZeroSpanPolicy
}

// Span computes the span of commits and applies the zero-span policy.
func (a Aggregator) Span(commits []CommitRecord) (Span, error) {
	span, err := ComputeSpan(commits)
	if err != nil {
		return Span{}, err
	}

	if !span.IsZero() {
		return span, nil
	}

	if a.ZeroSpan != ZeroSpanUnit {
		return Span{}, &ZeroSpanError{At: span.Newest, Commits: len(commits)}
	}

	span.Days = 1
	span.Clamped = true

	return span, nil
}

// ComputeRepositoryStats totals commits and lines over the whole history.
func (a Aggregator) ComputeRepositoryStats(commits []CommitRecord) (RepositoryStats, error) {
	span, err := a.Span(commits)
	if err != nil {
		return RepositoryStats{}, err
	}

	return repositoryStats(commits, span), nil
}

// ComputeAuthorStats totals lines per author. Authors are returned in the
// order they first appear in commits, including authors with zero lines.
func (a Aggregator) ComputeAuthorStats(commits []CommitRecord) ([]AuthorStats, error) {
	span, err := a.Span(commits)
	if err != nil {
		return nil, err
	}

	return authorStats(commits, span), nil
}

// Aggregate computes the span once and derives both repository and author
// statistics from it.
func (a Aggregator) Aggregate(repoPath string, commits []CommitRecord) (AnalysisResult, error) {
	span, err := a.Span(commits)
	if err != nil {
		return AnalysisResult{}, err
	}

	return AnalysisResult{
		RepoPath: repoPath,
		Span:     span,
		Stats:    repositoryStats(commits, span),
		Authors:  authorStats(commits, span),
	}, nil
}

func repositoryStats(commits []CommitRecord, span Span) RepositoryStats {
	totalLines := 0
	for _, c := range commits {
		totalLines += c.LinesChanged
	}

	return RepositoryStats{
		TotalCommits: len(commits),
		TotalLines:   totalLines,
		Commits:      span.rates(len(commits)),
		Lines:        span.rates(totalLines),
	}
}

func authorStats(commits []CommitRecord, span Span) []AuthorStats {
	index := make(map[string]int)

	var authors []AuthorStats

	for _, c := range commits {
		pos, seen := index[c.Author]
		if !seen {
			pos = len(authors)
			index[c.Author] = pos

			authors = append(authors, AuthorStats{Author: c.Author})
		}

		authors[pos].TotalLines += c.LinesChanged
		authors[pos].commits++
	}

	for i := range authors {
		authors[i].Lines = span.rates(authors[i].TotalLines)
	}

	return authors
}
