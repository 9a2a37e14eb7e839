// Package pdf renders a contribution report as a paginated PDF document.
package pdf

import (
	"fmt"
	"io"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/Sumatoshi-tech/gitanalyzer/pkg/report/document"
)

// fontFamily is the embedded UTF-8 family. It covers Latin, Greek and Cyrillic.
const fontFamily = "Go"

// Page geometry in points.
const (
	pageMargin   = 50.0
	footerOffset = -30.0
	pieRadius    = 90.0
	sliceStep    = math.Pi / 90
	legendSwatch = 8.0
	legendIndent = 14.0
	bulletIndent = 16.0
)

// Line heights in points.
const (
	titleHeight   = 32.0
	headingHeight = 24.0
	bodyHeight    = 16.0
	smallHeight   = 12.0
	legendHeight  = 14.0
	blockGap      = 16.0
)

var (
	inkColor   = document.Color{R: 0x2c, G: 0x3e, B: 0x50}
	mutedColor = document.Color{R: 0x7f, G: 0x8c, B: 0x8d}
)

type writer struct {
	pdf *fpdf.Fpdf
}

// Render writes doc as a PDF to w.
func Render(w io.Writer, doc document.Document) error {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(doc.Title, false)
	pdf.SetCreator("gitanalyzer", false)
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.AliasNbPages("")
	pdf.AddUTF8FontFromBytes(fontFamily, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", gobold.TTF)
	pdf.AddUTF8FontFromBytes(fontFamily, "I", goitalic.TTF)

	pw := &writer{pdf: pdf}

	pdf.SetFooterFunc(pw.footer)
	pdf.AddPage()

	pw.title(doc)
	pw.summary(doc)
	pw.pieChart(document.TotalChartTitle, doc.TotalSlices(), func(v float64) string {
		return humanize.Comma(int64(v))
	})
	pw.pieChart(document.DailyChartTitle, doc.DailySlices(), func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	})
	pw.note(doc.Footer())

	if pdf.Err() {
		return fmt.Errorf("build pdf: %w", pdf.Error())
	}

	err := pdf.Output(w)
	if err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}

	return nil
}

func (pw *writer) setTextColor(c document.Color) {
	pw.pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}

func (pw *writer) line(height float64, text, align string) {
	pw.pdf.CellFormat(0, height, text, "", 1, align, false, 0, "")
}

func (pw *writer) footer() {
	pw.pdf.SetY(footerOffset)
	pw.pdf.SetFont(fontFamily, "I", 8)
	pw.setTextColor(mutedColor)
	pw.pdf.CellFormat(0, smallHeight, fmt.Sprintf("Page %d of {nb}", pw.pdf.PageNo()), "", 0, "C", false, 0, "")
}

func (pw *writer) title(doc document.Document) {
	pw.pdf.SetFont(fontFamily, "B", 24)
	pw.setTextColor(inkColor)
	pw.line(titleHeight, doc.Title, "C")

	pw.pdf.SetFont(fontFamily, "", 10)
	pw.setTextColor(mutedColor)
	pw.line(smallHeight, doc.RepoPath, "C")

	if !doc.Span.Newest.IsZero() {
		pw.line(smallHeight, fmt.Sprintf("%s to %s (%.1f days)",
			doc.Span.Oldest.Format("2006-01-02"), doc.Span.Newest.Format("2006-01-02"), doc.Span.Days), "C")
	}

	pw.pdf.Ln(blockGap)
}

func (pw *writer) summary(doc document.Document) {
	pw.pdf.SetFont(fontFamily, "B", 16)
	pw.setTextColor(inkColor)
	pw.line(headingHeight, document.SummaryHeading, "L")

	for _, a := range doc.Contributors() {
		pw.pdf.SetFont(fontFamily, "B", 12)
		pw.setTextColor(inkColor)
		pw.pdf.Write(bodyHeight, "• "+a.Name)

		pw.pdf.SetFont(fontFamily, "", 12)
		pw.setTextColor(mutedColor)
		pw.pdf.Write(bodyHeight, fmt.Sprintf(" (%.2f%% of total)", a.SharePct))
		pw.pdf.Ln(bodyHeight)

		pw.pdf.SetFont(fontFamily, "", 10)

		for _, avg := range []struct {
			label string
			value float64
		}{
			{"Daily average", a.Lines.Daily},
			{"Weekly average", a.Lines.Weekly},
			{"Monthly average", a.Lines.Monthly},
		} {
			if avg.value <= 0 {
				continue
			}

			pw.pdf.SetX(pageMargin + bulletIndent)
			pw.line(smallHeight, fmt.Sprintf("%s: %.2f lines", avg.label, avg.value), "L")
		}

		pw.pdf.Ln(bodyHeight / 2)
	}

	pw.pdf.Ln(blockGap)
}

// ensureRoom starts a new page unless height points fit above the bottom margin.
func (pw *writer) ensureRoom(height float64) {
	_, pageHeight := pw.pdf.GetPageSize()
	_, _, _, bottom := pw.pdf.GetMargins()

	if pw.pdf.GetY()+height > pageHeight-bottom {
		pw.pdf.AddPage()
	}
}

func (pw *writer) pieChart(title string, slices []document.Slice, format func(float64) string) {
	pw.ensureRoom(headingHeight + 2*pieRadius + blockGap + legendHeight)

	pw.pdf.SetFont(fontFamily, "B", 14)
	pw.setTextColor(inkColor)
	pw.line(headingHeight, title, "C")

	pageWidth, _ := pw.pdf.GetPageSize()
	cx := pageWidth / 2
	cy := pw.pdf.GetY() + pieRadius

	total := 0.0
	for _, s := range slices {
		total += s.Value
	}

	if total <= 0 {
		pw.pdf.SetDrawColor(int(mutedColor.R), int(mutedColor.G), int(mutedColor.B))
		pw.pdf.Circle(cx, cy, pieRadius, "D")
		pw.pdf.SetY(cy - smallHeight/2)
		pw.pdf.SetFont(fontFamily, "I", 10)
		pw.setTextColor(mutedColor)
		pw.line(smallHeight, "No data", "C")
	} else {
		pw.drawSlices(cx, cy, slices, total)
	}

	pw.pdf.SetY(cy + pieRadius + blockGap)
	pw.legend(slices, total, format)
	pw.pdf.Ln(blockGap)
}

func (pw *writer) drawSlices(cx, cy float64, slices []document.Slice, total float64) {
	pw.pdf.SetDrawColor(255, 255, 255)
	pw.pdf.SetLineWidth(0.8)

	start := -math.Pi / 2

	for _, s := range slices {
		if s.Value <= 0 {
			continue
		}

		sweep := 2 * math.Pi * s.Value / total
		steps := max(2, int(math.Ceil(sweep/sliceStep)))

		points := make([]fpdf.PointType, 0, steps+2)
		points = append(points, fpdf.PointType{X: cx, Y: cy})

		for i := 0; i <= steps; i++ {
			angle := start + sweep*float64(i)/float64(steps)
			points = append(points, fpdf.PointType{
				X: cx + pieRadius*math.Cos(angle),
				Y: cy + pieRadius*math.Sin(angle),
			})
		}

		pw.pdf.SetFillColor(int(s.Color.R), int(s.Color.G), int(s.Color.B))
		pw.pdf.Polygon(points, "FD")

		start += sweep
	}
}

func (pw *writer) legend(slices []document.Slice, total float64, format func(float64) string) {
	pw.pdf.SetFont(fontFamily, "", 10)
	pw.setTextColor(inkColor)

	for _, s := range slices {
		pw.ensureRoom(legendHeight)

		y := pw.pdf.GetY()
		pw.pdf.SetFillColor(int(s.Color.R), int(s.Color.G), int(s.Color.B))
		pw.pdf.Rect(pageMargin, y+(legendHeight-legendSwatch)/2, legendSwatch, legendSwatch, "F")

		share := 0.0
		if total > 0 {
			share = s.Value / total * 100
		}

		pw.pdf.SetXY(pageMargin+legendIndent, y)
		pw.line(legendHeight, fmt.Sprintf("%s: %s (%.2f%%)", s.Label, format(s.Value), share), "L")
	}
}

func (pw *writer) note(text string) {
	pw.pdf.SetFont(fontFamily, "I", 8)
	pw.setTextColor(mutedColor)
	pw.line(smallHeight, text, "L")
}
