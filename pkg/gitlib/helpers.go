package gitlib

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrInvalidTimeFormat is returned when a time string cannot be parsed.
	ErrInvalidTimeFormat = errors.New("cannot parse time")
	// ErrRemoteNotSupported is returned when a remote repository URI is provided.
	ErrRemoteNotSupported = errors.New("remote repositories not supported")
)

var scpLikeRemote = regexp.MustCompile(`^[A-Za-z]\w*@[A-Za-z0-9][\w.]*:`)

// IsRemote reports whether uri names a remote rather than a local path.
func IsRemote(uri string) bool {
	return strings.Contains(uri, "://") || scpLikeRemote.MatchString(uri)
}

// LoadRepository opens a local git repository. Remote URIs are rejected.
func LoadRepository(uri string) (*Repository, error) {
	if IsRemote(uri) {
		return nil, fmt.Errorf("%w: %s", ErrRemoteNotSupported, uri)
	}

	if len(uri) > 1 {
		uri = strings.TrimSuffix(uri, string(os.PathSeparator))
	}

	repository, err := OpenRepository(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", uri, err)
	}

	return repository, nil
}

// ParseTime parses a time string in various formats:
// - Duration relative to now (e.g. "24h")
// - RFC3339 (e.g. "2024-01-01T00:00:00Z")
// - Date only (e.g. "2024-01-01").
func ParseTime(s string) (time.Time, error) {
	d, durationErr := time.ParseDuration(s)
	if durationErr == nil {
		return time.Now().Add(-d), nil
	}

	parsedTime, rfc3339Err := time.Parse(time.RFC3339, s)
	if rfc3339Err == nil {
		return parsedTime, nil
	}

	parsedTime, dateOnlyErr := time.Parse(time.DateOnly, s)
	if dateOnlyErr == nil {
		return parsedTime, nil
	}

	return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidTimeFormat, s)
}
