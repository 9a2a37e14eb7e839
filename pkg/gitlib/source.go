package gitlib

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/gitanalyzer/pkg/history"
)

// Source serves commit history from a libgit2 repository.
type Source struct {
	repo *Repository
	opts LogOptions
}

// NewSource returns a history source over repo. The repository stays owned
// by the caller.
func NewSource(repo *Repository, opts LogOptions) *Source {
	return &Source{repo: repo, opts: opts}
}

// CommitLog walks HEAD newest first.
func (s *Source) CommitLog(ctx context.Context) ([]history.CommitInfo, error) {
	iter, err := s.repo.Log(&s.opts)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var entries []history.CommitInfo

	err = iter.ForEach(func(commit *Commit) error {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return ctxErr
		}

		author := commit.Author()
		entries = append(entries, history.CommitInfo{
			Hash:   commit.Hash().String(),
			Author: author.Name,
			When:   author.When,
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	return entries, nil
}

// ChangeStats diffs the commit against its first parent.
func (s *Source) ChangeStats(ctx context.Context, hash string) (history.ChangeStats, error) {
	h, err := ParseHash(hash)
	if err != nil {
		return history.ChangeStats{}, err
	}

	commit, err := s.repo.LookupCommit(ctx, h)
	if err != nil {
		return history.ChangeStats{}, err
	}
	defer commit.Free()

	insertions, deletions, err := s.repo.ChangeStats(commit)
	if err != nil {
		return history.ChangeStats{}, fmt.Errorf("change stats of %s: %w", hash, err)
	}

	return history.ChangeStats{Insertions: insertions, Deletions: deletions}, nil
}
