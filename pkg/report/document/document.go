// Package document holds the renderer-neutral model of a contribution report.
package document

import (
	"fmt"
	"time"

	"github.com/Sumatoshi-tech/gitanalyzer/pkg/history"
)

// Fixed report wording.
const (
	Title             = "Git Repository Analysis Report"
	SummaryHeading    = "User Contribution Summary"
	TotalChartTitle   = "Total Lines Contribution by User"
	DailyChartTitle   = "Daily Average Lines Contribution by User"
	TotalSeriesName   = "Total Lines"
	DailySeriesName   = "Daily Average Lines"
	GeneratedByFormat = "Generated by gitanalyzer on %s"
)

// Color is an sRGB color.
type Color struct {
	R, G, B uint8
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Author is one author's entry in the report.
type Author struct {
	Name       string
	TotalLines int
	Lines      history.Rates
	SharePct   float64
	Color      Color
}

// Document is everything a renderer needs.
type Document struct {
	Title       string
	RepoPath    string
	GeneratedAt time.Time
	Span        history.Span
	TotalLines  int
	Authors     []Author
}

// Contributors returns the authors that changed at least one line, in report order.
func (d Document) Contributors() []Author {
	out := make([]Author, 0, len(d.Authors))

	for _, a := range d.Authors {
		if a.TotalLines > 0 {
			out = append(out, a)
		}
	}

	return out
}

// Slice is one pie slice.
type Slice struct {
	Label string
	Value float64
	Color Color
}

// TotalSlices returns one slice per author sized by total lines.
func (d Document) TotalSlices() []Slice {
	out := make([]Slice, 0, len(d.Authors))

	for _, a := range d.Authors {
		out = append(out, Slice{Label: a.Name, Value: float64(a.TotalLines), Color: a.Color})
	}

	return out
}

// DailySlices returns one slice per author sized by daily average lines.
func (d Document) DailySlices() []Slice {
	out := make([]Slice, 0, len(d.Authors))

	for _, a := range d.Authors {
		out = append(out, Slice{Label: a.Name, Value: a.Lines.Daily, Color: a.Color})
	}

	return out
}

// Footer returns the generation note printed at the end of a report.
func (d Document) Footer() string {
	return fmt.Sprintf(GeneratedByFormat, d.GeneratedAt.Format(time.RFC1123))
}
