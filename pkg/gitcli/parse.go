package gitcli

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/gitanalyzer/pkg/history"
)

// logFormat prints hash, author name and author unix time separated by NULs.
const logFormat = "--format=%H%x00%an%x00%at"

const logFieldCount = 3

// ErrUnexpectedLogFormat is returned when a git log line cannot be parsed.
var ErrUnexpectedLogFormat = errors.New("unexpected git log output")

func parseLog(lines iter.Seq[string]) ([]history.CommitInfo, error) {
	var entries []history.CommitInfo

	for line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		entry, err := parseLogLine(line)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func parseLogLine(line string) (history.CommitInfo, error) {
	fields := strings.Split(line, "\x00")
	if len(fields) != logFieldCount {
		return history.CommitInfo{}, fmt.Errorf("%w: %q", ErrUnexpectedLogFormat, line)
	}

	seconds, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return history.CommitInfo{}, fmt.Errorf("%w: bad timestamp %q", ErrUnexpectedLogFormat, fields[2])
	}

	return history.CommitInfo{
		Hash:   fields[0],
		Author: fields[1],
		When:   time.Unix(seconds, 0).UTC(),
	}, nil
}
