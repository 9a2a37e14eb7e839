// Package analysis runs a contribution analysis against a repository.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/gitanalyzer/pkg/gitcli"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/gitlib"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/history"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/observability"
)

// Backend names a history source implementation.
type Backend string

const (
	// BackendLibgit2 reads history in-process through libgit2.
	BackendLibgit2 Backend = "libgit2"
	// BackendGit runs the git binary.
	BackendGit Backend = "git"
)

// Sentinel errors.
var (
	ErrUnknownBackend = errors.New("unknown history backend")
	ErrEmptyRepoPath  = errors.New("repository path is empty")
	ErrInvalidLimit   = errors.New("commit limit must not be negative")
)

// Request describes one analysis run.
type Request struct {
	RepoPath    string
	Backend     Backend
	Since       string // Duration, RFC3339 or YYYY-MM-DD; empty for all history.
	Limit       int
	FirstParent bool
}

// SourceOpener opens the history source for a request. The returned close
// func releases it.
type SourceOpener func(ctx context.Context, req Request, since *time.Time) (history.Source, func(), error)

// Service runs analyses. The zero value uses the libgit2 backend, rejects
// zero-span histories and aborts on malformed change counts.
type Service struct {
	Aggregator   history.Aggregator
	ChangeCounts history.ChangeCountPolicy
	Logger       *slog.Logger
	Tracer       trace.Tracer
	Metrics      *observability.AnalysisMetrics
	Progress     func(done, total int)
	// Open overrides how sources are opened. Nil selects by Request.Backend.
	Open SourceOpener
}

// Run analyzes the repository named by req.
func (s *Service) Run(ctx context.Context, req Request) (history.AnalysisResult, error) {
	started := time.Now()
	logger := s.logger()
	tracer := s.tracer()

	if req.RepoPath == "" {
		return history.AnalysisResult{}, ErrEmptyRepoPath
	}

	if req.Limit < 0 {
		return history.AnalysisResult{}, fmt.Errorf("%w: %d", ErrInvalidLimit, req.Limit)
	}

	if req.Backend == "" {
		req.Backend = BackendLibgit2
	}

	since, err := parseSince(req.Since)
	if err != nil {
		return history.AnalysisResult{}, err
	}

	open := s.Open
	if open == nil {
		open = OpenSource(logger)
	}

	src, closeSource, err := open(ctx, req, since)
	if err != nil {
		return history.AnalysisResult{}, err
	}
	defer closeSource()

	collectCtx, collectSpan := tracer.Start(ctx, "analysis.collect", trace.WithAttributes(
		attribute.String("analysis.backend", string(req.Backend)),
		attribute.Bool("analysis.first_parent", req.FirstParent),
		attribute.Int("analysis.limit", req.Limit),
	))

	records, err := history.Collect(collectCtx, src, history.CollectOptions{
		Policy:   s.ChangeCounts,
		Logger:   logger,
		Progress: s.Progress,
	})
	endSpan(collectSpan, err, attribute.Int("analysis.commits", len(records)))

	if err != nil {
		return history.AnalysisResult{}, err
	}

	logger.DebugContext(ctx, "history collected", "repo", req.RepoPath, "commits", len(records))

	_, aggregateSpan := tracer.Start(ctx, "analysis.aggregate")
	result, err := s.Aggregator.Aggregate(req.RepoPath, records)
	endSpan(aggregateSpan, err,
		attribute.Int("analysis.authors", len(result.Authors)),
		attribute.Float64("analysis.span_days", result.Span.Days),
	)

	if err != nil {
		return history.AnalysisResult{}, err
	}

	s.Metrics.RecordRun(ctx, observability.AnalysisStats{
		Backend:  string(req.Backend),
		Commits:  int64(result.Stats.TotalCommits),
		Lines:    int64(result.Stats.TotalLines),
		Authors:  int64(len(result.Authors)),
		Duration: time.Since(started),
	})

	logger.InfoContext(ctx, "analysis complete",
		"repo", req.RepoPath,
		"commits", result.Stats.TotalCommits,
		"lines", result.Stats.TotalLines,
		"authors", len(result.Authors),
		"span_days", result.Span.Days,
	)

	return result, nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return s.Logger
}

func (s *Service) tracer() trace.Tracer {
	if s.Tracer == nil {
		return nooptrace.NewTracerProvider().Tracer("")
	}

	return s.Tracer
}

func endSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

func parseSince(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil //nolint:nilnil // no lower bound
	}

	since, err := gitlib.ParseTime(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --since: %w", err)
	}

	return &since, nil
}

// OpenSource returns the default opener, which picks the backend named by
// the request.
func OpenSource(logger *slog.Logger) SourceOpener {
	return func(_ context.Context, req Request, since *time.Time) (history.Source, func(), error) {
		switch req.Backend {
		case BackendLibgit2:
			repo, err := gitlib.LoadRepository(req.RepoPath)
			if err != nil {
				return nil, nil, err
			}

			src := gitlib.NewSource(repo, gitlib.LogOptions{
				Since:       since,
				FirstParent: req.FirstParent,
				Limit:       req.Limit,
			})

			return src, repo.Free, nil
		case BackendGit:
			if gitlib.IsRemote(req.RepoPath) {
				return nil, nil, fmt.Errorf("%w: %s", gitlib.ErrRemoteNotSupported, req.RepoPath)
			}

			src := gitcli.NewSource(req.RepoPath, gitcli.Options{
				Since:       since,
				Limit:       req.Limit,
				FirstParent: req.FirstParent,
				Logger:      logger,
			})

			return src, func() {}, nil
		default:
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, req.Backend)
		}
	}
}
