package history

import "time"

// CommitRecord is one commit with the number of lines it changed.
type CommitRecord struct {
	Hash         string    `json:"hash"          yaml:"hash"`
	Author       string    `json:"author"        yaml:"author"`
	When         time.Time `json:"when"          yaml:"when"`
	LinesChanged int       `json:"lines_changed" yaml:"lines_changed"`
}

// Rates holds a quantity averaged per day, week and month of the history span.
type Rates struct {
	Daily   float64 `json:"daily"   yaml:"daily"`
	Weekly  float64 `json:"weekly"  yaml:"weekly"`
	Monthly float64 `json:"monthly" yaml:"monthly"`
}

// RepositoryStats summarizes the whole history.
type RepositoryStats struct {
	TotalCommits int   `json:"total_commits" yaml:"total_commits"`
	TotalLines   int   `json:"total_lines"   yaml:"total_lines"`
	Commits      Rates `json:"commits"       yaml:"commits"`
	Lines        Rates `json:"lines"         yaml:"lines"`
}

// AuthorStats summarizes the lines attributed to one author.
type AuthorStats struct {
	Author     string `json:"author"      yaml:"author"`
	TotalLines int    `json:"total_lines" yaml:"total_lines"`
	Lines      Rates  `json:"lines"       yaml:"lines"`

	commits int
}

// Commits returns how many commits were attributed to the author.
func (a AuthorStats) Commits() int {
	return a.commits
}

// AnalysisResult is the outcome of aggregating one repository history.
type AnalysisResult struct {
	RepoPath string          `json:"repo_path" yaml:"repo_path"`
	Span     Span            `json:"span"      yaml:"span"`
	Stats    RepositoryStats `json:"stats"     yaml:"stats"`
	Authors  []AuthorStats   `json:"authors"   yaml:"authors"`
}
