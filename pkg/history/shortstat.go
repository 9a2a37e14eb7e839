package history

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	filesChangedPattern = regexp.MustCompile(`\b(\d+) files? changed\b`)
	insertionsPattern   = regexp.MustCompile(`\b(\d+) insertions?\(\+\)`)
	deletionsPattern    = regexp.MustCompile(`\b(\d+) deletions?\(-\)`)
)

// ParseShortStat parses the summary line printed by git --shortstat, e.g.
// "3 files changed, 10 insertions(+), 2 deletions(-)". Either count may be
// absent. Blank output is an empty commit.
func ParseShortStat(summary string) (ChangeStats, error) {
	line := strings.TrimSpace(summary)
	if line == "" {
		return ChangeStats{}, nil
	}

	if !filesChangedPattern.MatchString(line) {
		return ChangeStats{}, &MalformedChangeCountError{Summary: line}
	}

	insertions, ok := captureCount(insertionsPattern, line)
	if !ok {
		return ChangeStats{}, &MalformedChangeCountError{Summary: line}
	}

	deletions, ok := captureCount(deletionsPattern, line)
	if !ok {
		return ChangeStats{}, &MalformedChangeCountError{Summary: line}
	}

	return ChangeStats{Insertions: insertions, Deletions: deletions}, nil
}

// captureCount returns 0 when pattern does not occur and false when the
// number does not fit an int.
func captureCount(pattern *regexp.Regexp, line string) (int, bool) {
	match := pattern.FindStringSubmatch(line)
	if match == nil {
		return 0, true
	}

	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}

	return n, true
}
