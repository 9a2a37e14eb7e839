package history

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors.
var (
	ErrEmptyHistory         = errors.New("no commits to analyze")
	ErrZeroSpan             = errors.New("commit history spans no time")
	ErrMalformedChangeCount = errors.New("malformed change count")
	ErrUnknownPolicy        = errors.New("unknown policy")
)

// ZeroSpanError reports a history whose commits all share one timestamp.
type ZeroSpanError struct {
	At      time.Time
	Commits int
}

func (e *ZeroSpanError) Error() string {
	return fmt.Sprintf("%s: %d commit(s) at %s", ErrZeroSpan, e.Commits, e.At.Format(time.RFC3339))
}

func (e *ZeroSpanError) Unwrap() error {
	return ErrZeroSpan
}

// MalformedChangeCountError reports a change summary that could not be parsed.
type MalformedChangeCountError struct {
	Hash    string
	Summary string
}

func (e *MalformedChangeCountError) Error() string {
	if e.Hash == "" {
		return fmt.Sprintf("%s: %q", ErrMalformedChangeCount, e.Summary)
	}

	return fmt.Sprintf("%s for commit %s: %q", ErrMalformedChangeCount, e.Hash, e.Summary)
}

func (e *MalformedChangeCountError) Unwrap() error {
	return ErrMalformedChangeCount
}
