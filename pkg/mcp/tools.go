package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/gitanalyzer/pkg/analysis"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/gitlib"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/report/console"
)

// ToolNameAnalyze is the name of the analysis tool.
const ToolNameAnalyze = "gitanalyzer_analyze"

// Sentinel errors for tool input validation.
var (
	// ErrEmptyRepoPath indicates the repo_path parameter is empty.
	ErrEmptyRepoPath = errors.New("repo_path parameter is required and must not be empty")
	// ErrRepoPathNotAbsolute indicates the repo_path is not an absolute path.
	ErrRepoPathNotAbsolute = errors.New("repo_path must be an absolute path")
	// ErrRepoNotFound indicates the repository path does not exist.
	ErrRepoNotFound = errors.New("repository path does not exist")
	// ErrNotGitRepo indicates the path is not a git repository.
	ErrNotGitRepo = errors.New("path is not a git repository")
	// ErrNegativeLimit indicates a negative commit limit.
	ErrNegativeLimit = errors.New("limit must not be negative")
	// ErrUnknownBackend indicates an unsupported backend name.
	ErrUnknownBackend = errors.New("backend must be libgit2 or git")
)

// AnalyzeInput is the input schema for the gitanalyzer_analyze tool.
type AnalyzeInput struct {
	Backend     string `json:"backend,omitempty"      jsonschema:"history backend: libgit2 (default) or git"`
	FirstParent bool   `json:"first_parent,omitempty" jsonschema:"follow only the first parent of merge commits"`
	Limit       int    `json:"limit,omitempty"        jsonschema:"maximum number of commits to analyze (0 means all)"`
	RepoPath    string `json:"repo_path"              jsonschema:"absolute path to a local Git repository"`
	Since       string `json:"since,omitempty"        jsonschema:"only analyze commits after this time (e.g. 720h or 2024-01-01)"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input AnalyzeInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	req, err := requestFromInput(input)
	if err != nil {
		return errorResult(err)
	}

	result, err := s.analyzer.Run(ctx, req)
	if err != nil {
		return errorResult(fmt.Errorf("analyze %s: %w", input.RepoPath, err))
	}

	return jsonResult(console.NewPayload(result))
}

func requestFromInput(input AnalyzeInput) (analysis.Request, error) {
	err := validateRepoPath(input.RepoPath)
	if err != nil {
		return analysis.Request{}, err
	}

	if input.Limit < 0 {
		return analysis.Request{}, fmt.Errorf("%w: %d", ErrNegativeLimit, input.Limit)
	}

	backend := analysis.Backend(input.Backend)

	switch backend {
	case "":
		backend = analysis.BackendLibgit2
	case analysis.BackendLibgit2, analysis.BackendGit:
	default:
		return analysis.Request{}, fmt.Errorf("%w: %q", ErrUnknownBackend, input.Backend)
	}

	if input.Since != "" {
		_, err = gitlib.ParseTime(input.Since)
		if err != nil {
			return analysis.Request{}, fmt.Errorf("since: %w", err)
		}
	}

	return analysis.Request{
		RepoPath:    input.RepoPath,
		Backend:     backend,
		Since:       input.Since,
		Limit:       input.Limit,
		FirstParent: input.FirstParent,
	}, nil
}

func validateRepoPath(repoPath string) error {
	if repoPath == "" {
		return ErrEmptyRepoPath
	}

	if !filepath.IsAbs(repoPath) {
		return ErrRepoPathNotAbsolute
	}

	info, err := os.Stat(repoPath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRepoNotFound, repoPath)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrRepoNotFound, repoPath)
	}

	// Work trees carry .git, bare repositories carry HEAD at the top level.
	for _, marker := range []string{".git", "HEAD"} {
		_, err = os.Stat(filepath.Join(repoPath, marker))
		if err == nil {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrNotGitRepo, repoPath)
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
