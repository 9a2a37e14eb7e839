// Package html renders a contribution report as a single HTML page with
// interactive pie charts.
package html

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/gitanalyzer/pkg/report/document"
)

const (
	echartsScript = "https://go-echarts.github.io/go-echarts-assets/assets/echarts.min.js"
	chartWidth    = "640px"
	chartHeight   = "480px"
	pieRadius     = "60%"
	styleTagLen   = len("</style>")

	// ltMarker stands in for "<" in chart labels until the chart script is
	// rendered, where it becomes a JavaScript string escape.
	ltMarker   = "\uE000"
	ltJSEscape = `\u003c`
)

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{ .Title }}</title>
<script src="{{ .Script }}"></script>
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #2c3e50; max-width: 960px; margin: 2rem auto; }
h1 { text-align: center; }
.meta, .share, footer { color: #7f8c8d; }
.meta { text-align: center; }
.averages { margin: 0.2rem 0 0.8rem 1.2rem; font-size: 0.9rem; }
.chart { display: flex; justify-content: center; margin: 2rem 0; }
.swatch { display: inline-block; width: 0.8rem; height: 0.8rem; margin-right: 0.4rem; }
</style>
</head>
<body>
<h1>{{ .Title }}</h1>
<p class="meta">{{ .RepoPath }}{{ if .Period }}<br>{{ .Period }}{{ end }}</p>
<h2>{{ .SummaryHeading }}</h2>
<ul>
{{- range .Authors }}
<li><span class="swatch" style="background: {{ .Color }}"></span><strong>{{ .Name }}</strong> <span class="share">({{ .Share }} of total)</span>
{{- if .Averages }}
<div class="averages">{{ range .Averages }}{{ . }}<br>{{ end }}</div>
{{- end }}
</li>
{{- end }}
</ul>
{{ range .Charts }}<div class="chart">{{ . }}</div>
{{ end }}
<footer>{{ .Footer }}</footer>
</body>
</html>
`))

type authorView struct {
	Name     string
	Color    template.CSS
	Share    string
	Averages []string
}

type pageView struct {
	Title          string
	Script         string
	RepoPath       string
	Period         string
	SummaryHeading string
	Authors        []authorView
	Charts         []template.HTML
	Footer         string
}

// Render writes doc as an HTML page to w.
func Render(w io.Writer, doc document.Document) error {
	total, err := chartHTML(pieChart("total-lines", document.TotalChartTitle, document.TotalSeriesName,
		doc.TotalSlices()))
	if err != nil {
		return err
	}

	daily, err := chartHTML(pieChart("daily-lines", document.DailyChartTitle, document.DailySeriesName,
		doc.DailySlices()))
	if err != nil {
		return err
	}

	view := pageView{
		Title:          doc.Title,
		Script:         echartsScript,
		RepoPath:       doc.RepoPath,
		SummaryHeading: document.SummaryHeading,
		Charts:         []template.HTML{total, daily},
		Footer:         doc.Footer(),
	}

	if !doc.Span.Newest.IsZero() {
		view.Period = fmt.Sprintf("%s to %s (%.1f days, %s lines changed)",
			doc.Span.Oldest.Format("2006-01-02"), doc.Span.Newest.Format("2006-01-02"),
			doc.Span.Days, humanize.Comma(int64(doc.TotalLines)))
	}

	for _, a := range doc.Contributors() {
		view.Authors = append(view.Authors, authorView{
			Name:     a.Name,
			Color:    template.CSS(a.Color.Hex()), //nolint:gosec // generated #rrggbb value
			Share:    fmt.Sprintf("%.2f%%", a.SharePct),
			Averages: averages(a),
		})
	}

	err = pageTemplate.Execute(w, view)
	if err != nil {
		return fmt.Errorf("render html report: %w", err)
	}

	return nil
}

func averages(a document.Author) []string {
	var out []string

	for _, avg := range []struct {
		label string
		value float64
	}{
		{"Daily average", a.Lines.Daily},
		{"Weekly average", a.Lines.Weekly},
		{"Monthly average", a.Lines.Monthly},
	} {
		if avg.value > 0 {
			out = append(out, fmt.Sprintf("%s: %.2f lines", avg.label, avg.value))
		}
	}

	return out
}

func pieChart(id, title, series string, slices []document.Slice) *charts.Pie {
	pie := charts.NewPie()

	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{ChartID: id, Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Left: "center"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Top: "bottom"}),
	)

	data := make([]opts.PieData, 0, len(slices))
	for _, s := range slices {
		data = append(data, opts.PieData{
			Name:      chartLabel(s.Label),
			Value:     s.Value,
			ItemStyle: &opts.ItemStyle{Color: s.Color.Hex()},
		})
	}

	pie.AddSeries(series, data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}),
			charts.WithPieChartOpts(opts.PieChart{Radius: pieRadius}),
		)

	return pie
}

// chartHTML renders a chart and keeps only its container and script, so it
// can be embedded in the report page.
func chartHTML(pie *charts.Pie) (template.HTML, error) {
	var buf bytes.Buffer

	err := pie.Render(&buf)
	if err != nil {
		return "", fmt.Errorf("render chart: %w", err)
	}

	page := strings.ReplaceAll(buf.String(), ltMarker, ltJSEscape)

	start := strings.Index(page, `<div class="container">`)
	end := strings.Index(page, `</body>`)

	if start == -1 || end < start {
		return template.HTML(page), nil //nolint:gosec // echarts output
	}

	return template.HTML(removeStyleTags(page[start:end])), nil //nolint:gosec // echarts output
}

// chartLabel hides "<" from the inline chart script, so a label can never
// close the script element or open a new one.
func chartLabel(label string) string {
	label = strings.ReplaceAll(label, ltMarker, "")

	return strings.ReplaceAll(label, "<", ltMarker)
}

func removeStyleTags(content string) string {
	for {
		i := strings.Index(content, `<style>`)
		if i == -1 {
			return content
		}

		j := strings.Index(content[i:], `</style>`)
		if j == -1 {
			return content
		}

		content = content[:i] + content[i+j+styleTagLen:]
	}
}
