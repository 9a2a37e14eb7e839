// Package gitcli reads commit history by running the git binary.
package gitcli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os/exec"
	"strings"
)

// SubprocessError reports a git invocation that exited unsuccessfully.
type SubprocessError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *SubprocessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("git %s exited with code %d: %s", e.Args[0], e.ExitCode, e.Stderr)
	}

	return fmt.Sprintf("git %s exited with code %d", e.Args[0], e.ExitCode)
}

func (e *SubprocessError) Unwrap() error {
	return e.Err
}

type subprocess struct {
	cmd    *exec.Cmd
	args   []string
	stdout io.ReadCloser
	stderr *bytes.Buffer
	logger *slog.Logger
}

func start(ctx context.Context, gitPath, dir string, args []string, logger *slog.Logger) (*subprocess, error) {
	cmd := exec.CommandContext(ctx, gitPath, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open stdout pipe: %w", err)
	}

	logger.DebugContext(ctx, "running git", "dir", dir, "args", args)

	err = cmd.Start()
	if err != nil {
		return nil, fmt.Errorf("start git %s: %w", args[0], err)
	}

	return &subprocess{cmd: cmd, args: args, stdout: stdout, stderr: &stderr, logger: logger}, nil
}

// lines returns a single-use iterator over stdout. finish reports any
// scanning error once the iterator is drained.
func (s *subprocess) lines() (iter.Seq[string], func() error) {
	var scanErr error

	seq := func(yield func(string) bool) {
		scanner := bufio.NewScanner(s.stdout)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}

		scanErr = scanner.Err()
	}

	finish := func() error {
		if scanErr != nil {
			return fmt.Errorf("scan git output: %w", scanErr)
		}

		return nil
	}

	return seq, finish
}

func (s *subprocess) text() (string, error) {
	out, err := io.ReadAll(s.stdout)
	if err != nil {
		return "", fmt.Errorf("read git output: %w", err)
	}

	return string(out), nil
}

// wait drains stdout and waits for the process to exit.
func (s *subprocess) wait() error {
	_, _ = io.Copy(io.Discard, s.stdout)

	err := s.cmd.Wait()

	s.logger.Debug("git exited", "args", s.args, "code", s.cmd.ProcessState.ExitCode())

	if err != nil {
		return &SubprocessError{
			Args:     s.args,
			ExitCode: s.cmd.ProcessState.ExitCode(),
			Stderr:   strings.TrimSpace(s.stderr.String()),
			Err:      err,
		}
	}

	return nil
}
