package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// CommitInfo is one entry of a commit log.
type CommitInfo struct {
	Hash   string
	Author string
	When   time.Time
}

// ChangeStats counts the lines a commit inserted and deleted.
type ChangeStats struct {
	Insertions int
	Deletions  int
}

// Lines returns insertions plus deletions.
func (s ChangeStats) Lines() int {
	return s.Insertions + s.Deletions
}

// Source provides a commit log and per-commit change counts.
type Source interface {
	// CommitLog returns the history newest first.
	CommitLog(ctx context.Context) ([]CommitInfo, error)
	// ChangeStats returns the change counts of one commit.
	ChangeStats(ctx context.Context, hash string) (ChangeStats, error)
}

// ChangeCountPolicy decides what happens to a commit whose change counts are malformed.
type ChangeCountPolicy int

const (
	// ChangeCountFail aborts collection.
	ChangeCountFail ChangeCountPolicy = iota
	// ChangeCountZero counts the commit as zero lines and logs a warning.
	ChangeCountZero
)

const (
	changeCountFailName = "fail"
	changeCountZeroName = "zero"
)

// ParseChangeCountPolicy parses "fail" or "zero".
func ParseChangeCountPolicy(name string) (ChangeCountPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case changeCountFailName:
		return ChangeCountFail, nil
	case changeCountZeroName:
		return ChangeCountZero, nil
	default:
		return ChangeCountFail, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

func (p ChangeCountPolicy) String() string {
	if p == ChangeCountZero {
		return changeCountZeroName
	}

	return changeCountFailName
}

// CollectOptions configures Collect.
type CollectOptions struct {
	Policy ChangeCountPolicy
	// Logger receives malformed-count warnings. Nil discards them.
	Logger *slog.Logger
	// Progress, when set, is called after each commit is resolved.
	Progress func(done, total int)
}

// Collect reads the commit log of src and resolves the change counts of
// every commit. Records keep the newest-first order of the log.
func Collect(ctx context.Context, src Source, opts CollectOptions) ([]CommitRecord, error) {
	entries, err := src.CommitLog(ctx)
	if err != nil {
		return nil, fmt.Errorf("read commit log: %w", err)
	}

	if len(entries) == 0 {
		return nil, ErrEmptyHistory
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	records := make([]CommitRecord, 0, len(entries))

	for i, entry := range entries {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return nil, fmt.Errorf("collect change stats: %w", ctxErr)
		}

		stats, statsErr := changeStats(ctx, src, entry.Hash)
		if statsErr != nil {
			if opts.Policy != ChangeCountZero || !errors.Is(statsErr, ErrMalformedChangeCount) {
				return nil, fmt.Errorf("change stats of %s: %w", entry.Hash, statsErr)
			}

			logger.WarnContext(ctx, "counting commit as zero lines", "commit", entry.Hash, "error", statsErr)

			stats = ChangeStats{}
		}

		records = append(records, CommitRecord{
			Hash:         entry.Hash,
			Author:       entry.Author,
			When:         entry.When,
			LinesChanged: stats.Lines(),
		})

		if opts.Progress != nil {
			opts.Progress(i+1, len(entries))
		}
	}

	return records, nil
}

func changeStats(ctx context.Context, src Source, hash string) (ChangeStats, error) {
	stats, err := src.ChangeStats(ctx, hash)
	if err != nil {
		return ChangeStats{}, err
	}

	if stats.Insertions < 0 || stats.Deletions < 0 {
		return ChangeStats{}, &MalformedChangeCountError{
			Hash:    hash,
			Summary: fmt.Sprintf("%d insertions, %d deletions", stats.Insertions, stats.Deletions),
		}
	}

	return stats, nil
}

// Analyze collects the history of src and aggregates it.
func Analyze(
	ctx context.Context, repoPath string, src Source, agg Aggregator, opts CollectOptions,
) (AnalysisResult, error) {
	records, err := Collect(ctx, src, opts)
	if err != nil {
		return AnalysisResult{}, err
	}

	return agg.Aggregate(repoPath, records)
}
