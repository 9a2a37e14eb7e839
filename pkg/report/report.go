// Package report renders an analysis result into a PDF or HTML document.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/gitanalyzer/pkg/history"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/report/document"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/report/html"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/report/pdf"
)

// Format selects the report renderer.
type Format string

const (
	// FormatAuto picks the renderer from the output file extension.
	FormatAuto Format = "auto"
	// FormatPDF renders a paginated PDF document.
	FormatPDF Format = "pdf"
	// FormatHTML renders a single HTML page with interactive charts.
	FormatHTML Format = "html"
)

// ErrUnknownFormat is returned for an unsupported report format.
var ErrUnknownFormat = errors.New("unknown report format")

// ParseFormat parses "auto", "pdf" or "html".
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatAuto, FormatPDF, FormatHTML:
		return f, nil
	case "":
		return FormatAuto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Resolve replaces FormatAuto with the format implied by path. Extensions
// other than .html and .htm resolve to PDF.
func (f Format) Resolve(path string) Format {
	if f != FormatAuto && f != "" {
		return f
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatPDF
	}
}

// Options configures document construction.
type Options struct {
	// Seed fixes chart colors; 0 picks new colors every run.
	Seed int64
	// Now stamps the document. Nil uses time.Now.
	Now func() time.Time
}

// Written describes a report file on disk.
type Written struct {
	Path   string
	Format Format
	Bytes  int64
}

// NewDocument builds the renderer-neutral document for result.
func NewDocument(result history.AnalysisResult, opts Options) document.Document {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	colors := Palette(len(result.Authors), NewRand(opts.Seed))
	shares := history.Shares(result)

	authors := make([]document.Author, len(result.Authors))
	for i, a := range result.Authors {
		authors[i] = document.Author{
			Name:       a.Author,
			TotalLines: a.TotalLines,
			Lines:      a.Lines,
			SharePct:   shares[i].TotalPct,
			Color:      colors[i],
		}
	}

	return document.Document{
		Title:       document.Title,
		RepoPath:    result.RepoPath,
		GeneratedAt: now(),
		Span:        result.Span,
		TotalLines:  result.Stats.TotalLines,
		Authors:     authors,
	}
}

// Render writes doc to w in the given concrete format.
func Render(w io.Writer, format Format, doc document.Document) error {
	switch format {
	case FormatPDF:
		return pdf.Render(w, doc)
	case FormatHTML:
		return html.Render(w, doc)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Write renders result and stores it at path. The document is rendered in
// memory and moved into place only once complete, so a failed run never
// leaves a partial file behind.
func Write(path string, format Format, result history.AnalysisResult, opts Options) (Written, error) {
	format = format.Resolve(path)

	var buf bytes.Buffer

	err := Render(&buf, format, NewDocument(result, opts))
	if err != nil {
		return Written{}, fmt.Errorf("render %s report: %w", format, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return Written{}, fmt.Errorf("resolve report path: %w", err)
	}

	err = writeFileAtomic(absPath, buf.Bytes())
	if err != nil {
		return Written{}, err
	}

	return Written{Path: absPath, Format: format, Bytes: int64(buf.Len())}, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".gitanalyzer-report-*")
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}

	tmpName := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()

	err = errors.Join(writeErr, closeErr)
	if err == nil {
		err = os.Chmod(tmpName, 0o644)
	}

	if err == nil {
		err = os.Rename(tmpName, path)
	}

	if err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("write report: %w", err)
	}

	return nil
}
