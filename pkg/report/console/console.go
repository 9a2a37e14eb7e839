// Package console prints analysis results to a terminal.
package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/gitanalyzer/pkg/history"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// Options configures console output.
type Options struct {
	NoColor bool
}

// Payload is the machine-readable output document.
type Payload struct {
	history.AnalysisResult `yaml:",inline"`

	Shares []history.AuthorShare `json:"shares" yaml:"shares"`
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}

// NewPayload pairs result with its author shares.
func NewPayload(result history.AnalysisResult) Payload {
	return Payload{AnalysisResult: result, Shares: history.Shares(result)}
}

// ParseFormat normalizes an output format name. Empty means table.
func ParseFormat(name string) (string, error) {
	switch format := strings.ToLower(strings.TrimSpace(name)); format {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Write prints result in the named format.
func Write(w io.Writer, format string, result history.AnalysisResult, opts Options) error {
	format, err := ParseFormat(format)
	if err != nil {
		return err
	}

	switch format {
	case FormatTable:
		return WriteSummary(w, result, opts)
	case FormatJSON:
		return WriteJSON(w, result)
	default:
		return WriteYAML(w, result)
	}
}

// PrintTable draws a bordered table with a header separator.
func PrintTable(w io.Writer, headers []string, rows [][]string) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleDefault)
	tbl.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}

	tbl.AppendHeader(header)

	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, cell := range r {
			row[i] = cell
		}

		tbl.AppendRow(row)
	}

	_, err := fmt.Fprintln(w, tbl.Render())

	return err
}

// WriteSummary prints the repository, per-user and percentage tables.
func WriteSummary(w io.Writer, result history.AnalysisResult, opts Options) error {
	heading := color.New(color.FgCyan, color.Bold)
	if opts.NoColor {
		heading.DisableColor()
	}

	sections := []struct {
		title   string
		headers []string
		rows    [][]string
	}{
		{
			"Repository Summary:",
			[]string{"Metric", "Total", "Daily Avg", "Weekly Avg", "Monthly Avg"},
			repositoryRows(result.Stats),
		},
		{
			"User Contributions:",
			[]string{"Username", "Total Lines", "Daily Avg", "Weekly Avg", "Monthly Avg"},
			authorRows(result.Authors),
		},
		{
			"User Contribution Percentages:",
			[]string{"Username", "Total %", "Daily %", "Weekly %", "Monthly %"},
			shareRows(history.Shares(result)),
		},
	}

	for i, s := range sections {
		if i > 0 {
			_, err := fmt.Fprintln(w)
			if err != nil {
				return err
			}
		}

		_, err := heading.Fprintln(w, s.title)
		if err != nil {
			return err
		}

		err = PrintTable(w, s.headers, s.rows)
		if err != nil {
			return err
		}
	}

	return nil
}

// WriteJSON prints the result and shares as indented JSON.
func WriteJSON(w io.Writer, result history.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(NewPayload(result))
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

// WriteYAML prints the result and shares as YAML.
func WriteYAML(w io.Writer, result history.AnalysisResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(NewPayload(result))
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return enc.Close()
}

func repositoryRows(stats history.RepositoryStats) [][]string {
	return [][]string{
		append([]string{"Commits", humanize.Comma(int64(stats.TotalCommits))}, rateCells(stats.Commits)...),
		append([]string{"Lines", humanize.Comma(int64(stats.TotalLines))}, rateCells(stats.Lines)...),
	}
}

func authorRows(authors []history.AuthorStats) [][]string {
	rows := make([][]string, 0, len(authors))
	for _, a := range authors {
		rows = append(rows, append([]string{a.Author, humanize.Comma(int64(a.TotalLines))}, rateCells(a.Lines)...))
	}

	return rows
}

func shareRows(shares []history.AuthorShare) [][]string {
	rows := make([][]string, 0, len(shares))
	for _, s := range shares {
		rows = append(rows, []string{
			s.Author, pct(s.TotalPct), pct(s.DailyPct), pct(s.WeeklyPct), pct(s.MonthlyPct),
		})
	}

	return rows
}

func rateCells(r history.Rates) []string {
	return []string{
		fmt.Sprintf("%.2f", r.Daily),
		fmt.Sprintf("%.2f", r.Weekly),
		fmt.Sprintf("%.2f", r.Monthly),
	}
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}
