package gitcli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/Sumatoshi-tech/gitanalyzer/pkg/history"
)

const defaultGitPath = "git"

// ErrInvalidRevision is returned for a commit id that is not a hex object name.
var ErrInvalidRevision = errors.New("invalid commit id")

var objectName = regexp.MustCompile(`^[0-9a-fA-F]{4,64}$`)

// Options configures a Source.
type Options struct {
	GitPath     string // Defaults to "git" on PATH.
	Since       *time.Time
	Limit       int
	FirstParent bool
	Logger      *slog.Logger
}

// Source serves commit history by running git in a working directory.
type Source struct {
	dir  string
	opts Options
}

// NewSource returns a history source for the repository at dir.
func NewSource(dir string, opts Options) *Source {
	if opts.GitPath == "" {
		opts.GitPath = defaultGitPath
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &Source{dir: dir, opts: opts}
}

func (s *Source) logArgs() []string {
	args := []string{"log", logFormat, "--no-color", "--no-show-signature"}

	if s.opts.FirstParent {
		args = append(args, "--first-parent")
	}

	if s.opts.Since != nil {
		args = append(args, "--since="+s.opts.Since.Format(time.RFC3339))
	}

	if s.opts.Limit > 0 {
		args = append(args, "--max-count="+strconv.Itoa(s.opts.Limit))
	}

	return append(args, "HEAD")
}

// verifyExitMissing is the exit code of git rev-parse --verify -q for a
// revision that does not resolve.
const verifyExitMissing = 1

// CommitLog runs git log and returns the history newest first. A repository
// whose HEAD has no commits yet yields an empty log.
func (s *Source) CommitLog(ctx context.Context) ([]history.CommitInfo, error) {
	born, err := s.headExists(ctx)
	if err != nil {
		return nil, err
	}

	if !born {
		return nil, nil
	}

	proc, err := start(ctx, s.opts.GitPath, s.dir, s.logArgs(), s.opts.Logger)
	if err != nil {
		return nil, err
	}

	lines, finish := proc.lines()
	entries, parseErr := parseLog(lines)
	scanErr := finish()

	waitErr := proc.wait()
	if waitErr != nil {
		return nil, waitErr
	}

	if parseErr != nil {
		return nil, parseErr
	}

	if scanErr != nil {
		return nil, scanErr
	}

	return entries, nil
}

func (s *Source) headExists(ctx context.Context) (bool, error) {
	proc, err := start(ctx, s.opts.GitPath, s.dir, []string{"rev-parse", "--verify", "-q", "HEAD"}, s.opts.Logger)
	if err != nil {
		return false, err
	}

	_, readErr := proc.text()

	waitErr := proc.wait()

	var subErr *SubprocessError
	if errors.As(waitErr, &subErr) && subErr.ExitCode == verifyExitMissing {
		return false, nil
	}

	if waitErr != nil {
		return false, waitErr
	}

	return true, readErr
}

// ChangeStats runs git show --shortstat for one commit. Merge commits are
// measured against their first parent.
func (s *Source) ChangeStats(ctx context.Context, hash string) (history.ChangeStats, error) {
	if !objectName.MatchString(hash) {
		return history.ChangeStats{}, fmt.Errorf("%w: %q", ErrInvalidRevision, hash)
	}

	args := []string{"show", "--shortstat", "--format=", "--no-color", "--diff-merges=first-parent", hash}

	proc, err := start(ctx, s.opts.GitPath, s.dir, args, s.opts.Logger)
	if err != nil {
		return history.ChangeStats{}, err
	}

	out, readErr := proc.text()

	waitErr := proc.wait()
	if waitErr != nil {
		return history.ChangeStats{}, waitErr
	}

	if readErr != nil {
		return history.ChangeStats{}, readErr
	}

	stats, err := history.ParseShortStat(out)
	if err != nil {
		var malformed *history.MalformedChangeCountError
		if errors.As(err, &malformed) {
			malformed.Hash = hash
		}

		return history.ChangeStats{}, err
	}

	return stats, nil
}
