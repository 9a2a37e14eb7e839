// Package gitlib reads commit history through libgit2.
package gitlib

import (
	"context"
	"fmt"
	"time"

	git2go "github.com/libgit2/git2go/v34"
)

// Repository wraps a libgit2 repository.
type Repository struct {
	repo *git2go.Repository
	path string
}

// OpenRepository opens a git repository at the given path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo, path: path}, nil
}

// Path returns the repository path.
func (r *Repository) Path() string {
	return r.path
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// Head returns the commit HEAD points at.
func (r *Repository) Head() (Hash, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return Hash{}, fmt.Errorf("get HEAD: %w", err)
	}
	defer ref.Free()

	return HashFromOid(ref.Target()), nil
}

// LookupCommit returns the commit with the given hash.
func (r *Repository) LookupCommit(_ context.Context, hash Hash) (*Commit, error) {
	commit, err := r.repo.LookupCommit(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup commit %s: %w", hash, err)
	}

	return &Commit{commit: commit, repo: r}, nil
}

// LogOptions configures the commit log iteration.
type LogOptions struct {
	Since       *time.Time // Stop at the first commit authored before this time.
	FirstParent bool       // Follow only first parents (git log --first-parent).
	Limit       int        // Maximum number of commits, 0 for no limit.
}

// Log returns a newest-first commit iterator starting from HEAD. An unborn
// HEAD yields an empty iterator.
func (r *Repository) Log(opts *LogOptions) (*CommitIter, error) {
	headRef, err := r.repo.Head()
	if isUnbornHead(err) {
		return &CommitIter{repo: r}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("get HEAD: %w", err)
	}
	defer headRef.Free()

	walk, err := r.repo.Walk()
	if err != nil {
		return nil, fmt.Errorf("create revwalk: %w", err)
	}

	err = walk.Push(headRef.Target())
	if err != nil {
		walk.Free()

		return nil, fmt.Errorf("push HEAD to revwalk: %w", err)
	}

	// Topological order keeps every parent after its children when
	// timestamps disagree with ancestry.
	walk.Sorting(git2go.SortTime | git2go.SortTopological)

	iter := &CommitIter{walk: walk, repo: r}

	if opts != nil {
		if opts.FirstParent {
			walk.SimplifyFirstParent()
		}

		iter.since = opts.Since
		iter.limit = opts.Limit
	}

	return iter, nil
}

func isUnbornHead(err error) bool {
	return err != nil &&
		(git2go.IsErrorCode(err, git2go.ErrorCodeUnbornBranch) || git2go.IsErrorCode(err, git2go.ErrorCodeNotFound))
}

// DiffTreeToTree computes the diff between two trees. A nil oldTree diffs
// against the empty tree.
func (r *Repository) DiffTreeToTree(oldTree, newTree *Tree) (*Diff, error) {
	opts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("get diff options: %w", err)
	}

	var oldT, newT *git2go.Tree
	if oldTree != nil {
		oldT = oldTree.tree
	}

	if newTree != nil {
		newT = newTree.tree
	}

	diff, err := r.repo.DiffTreeToTree(oldT, newT, &opts)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	return &Diff{diff: diff}, nil
}

// ChangeStats counts the lines a commit inserted and deleted relative to its
// first parent. Root commits are compared with the empty tree.
func (r *Repository) ChangeStats(commit *Commit) (insertions, deletions int, err error) {
	newTree, err := commit.Tree()
	if err != nil {
		return 0, 0, err
	}
	defer newTree.Free()

	var oldTree *Tree

	if commit.NumParents() > 0 {
		parent, parentErr := commit.Parent(0)
		if parentErr != nil {
			return 0, 0, parentErr
		}
		defer parent.Free()

		oldTree, err = parent.Tree()
		if err != nil {
			return 0, 0, err
		}
		defer oldTree.Free()
	}

	diff, err := r.DiffTreeToTree(oldTree, newTree)
	if err != nil {
		return 0, 0, err
	}
	defer diff.Free()

	stats, err := diff.Stats()
	if err != nil {
		return 0, 0, err
	}
	defer stats.Free()

	return stats.Insertions(), stats.Deletions(), nil
}
