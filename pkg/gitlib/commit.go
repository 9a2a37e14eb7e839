package gitlib

import (
	"errors"
	"fmt"
	"io"
	"time"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrParentNotFound is returned when the requested parent commit is not found.
var ErrParentNotFound = errors.New("parent commit not found")

// Signature identifies who authored a commit and when.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Commit wraps a libgit2 commit.
type Commit struct {
	commit *git2go.Commit
	repo   *Repository
}

// Hash returns the commit hash.
func (c *Commit) Hash() Hash {
	return HashFromOid(c.commit.Id())
}

// Author returns the commit author.
func (c *Commit) Author() Signature {
	sig := c.commit.Author()

	return Signature{
		Name:  sig.Name,
		Email: sig.Email,
		When:  sig.When,
	}
}

// NumParents returns the number of parent commits.
func (c *Commit) NumParents() int {
	return int(c.commit.ParentCount())
}

// Parent returns the nth parent commit.
func (c *Commit) Parent(n int) (*Commit, error) {
	if n < 0 || n >= c.NumParents() {
		return nil, fmt.Errorf("%w: %d of %s", ErrParentNotFound, n, c.Hash())
	}

	parent := c.commit.Parent(uint(n))
	if parent == nil {
		return nil, fmt.Errorf("%w: %d of %s", ErrParentNotFound, n, c.Hash())
	}

	return &Commit{commit: parent, repo: c.repo}, nil
}

// Tree returns the tree associated with this commit.
func (c *Commit) Tree() (*Tree, error) {
	tree, err := c.commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get commit tree: %w", err)
	}

	return &Tree{tree: tree}, nil
}

// Free releases the commit resources.
func (c *Commit) Free() {
	if c.commit != nil {
		c.commit.Free()
		c.commit = nil
	}
}

// CommitIter iterates over commits newest first.
type CommitIter struct {
	walk  *git2go.RevWalk
	repo  *Repository
	since *time.Time
	limit int
	seen  int
}

// Next returns the next commit, or io.EOF when the walk is exhausted, the
// since boundary is crossed or the limit is reached.
func (ci *CommitIter) Next() (*Commit, error) {
	if ci.walk == nil || (ci.limit > 0 && ci.seen >= ci.limit) {
		ci.Close()

		return nil, io.EOF
	}

	oid := new(git2go.Oid)

	err := ci.walk.Next(oid)
	if err != nil {
		ci.Close()

		if git2go.IsErrorCode(err, git2go.ErrorCodeIterOver) {
			return nil, io.EOF
		}

		return nil, fmt.Errorf("walk history: %w", err)
	}

	commit, err := ci.repo.repo.LookupCommit(oid)
	if err != nil {
		return nil, fmt.Errorf("lookup commit %s: %w", oid, err)
	}

	if ci.since != nil && commit.Author().When.Before(*ci.since) {
		commit.Free()
		ci.Close()

		return nil, io.EOF
	}

	ci.seen++

	return &Commit{commit: commit, repo: ci.repo}, nil
}

// ForEach calls cb for each commit. The commit is freed after cb returns.
func (ci *CommitIter) ForEach(cb func(*Commit) error) error {
	for {
		commit, err := ci.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		cbErr := cb(commit)
		commit.Free()

		if cbErr != nil {
			return cbErr
		}
	}
}

// Close releases resources.
func (ci *CommitIter) Close() {
	if ci.walk != nil {
		ci.walk.Free()
		ci.walk = nil
	}
}
