// Package render draws neglect reports as PDF documents.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/schema"
)

// Column headers, in document order.
var columns = []string{
	"File path",
	"File size",
	"File contents last changed (UTC)",
	"Last worked on by",
	"File name",
	"File neglect time",
	"File state",
}

// Relative column widths; scaled to the printable width.
var columnWeights = []float64{1.5, 0.7, 1.9, 1.1, 1.1, 1.0, 0.8}

const (
	pathCol     = 0
	modifiedCol = 2
	stateCol    = 6

	margin       = 10.0 // mm
	rowHeight    = 6.0
	headerHeight = 7.0
	cellPadding  = 1.5
	ctxCheckRows = 500

	ownerMaxRunes = 30
	nameMaxRunes  = 30
)

type rgb struct{ r, g, b int }

var (
	headerFill   = rgb{0xf7, 0xf7, 0xf7}
	gridColor    = rgb{0xdd, 0xdd, 0xdd}
	altRowFill   = rgb{0xfa, 0xfa, 0xfa}
	whiteFill    = rgb{0xff, 0xff, 0xff}
	pathFill     = rgb{0xe9, 0xf3, 0xff}
	modifiedFill = rgb{0xff, 0xf1, 0xde}
	titleColor   = rgb{0x33, 0x33, 0x33}
	metaColor    = rgb{0x55, 0x55, 0x55}

	bandColors = map[schema.Band]rgb{
		schema.RedBand:   {0xe5, 0x39, 0x35},
		schema.AmberBand: {0xfb, 0x8c, 0x00},
		schema.GreenBand: {0x43, 0xa0, 0x47},
	}
)

// PDFRenderer renders reports on landscape A4 pages with a repeated table
// header.
type PDFRenderer struct {
	logger *slog.Logger
}

var _ contract.Renderer = &PDFRenderer{} // Compile-time check

// NewPDFRenderer creates a renderer.
func NewPDFRenderer(logger *slog.Logger) *PDFRenderer {
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	return &PDFRenderer{logger: logger}
}

// Render writes the report for rows to dest.
func (p *PDFRenderer) Render(ctx context.Context, dest string, rows []schema.ReportRow, meta contract.ReportMeta) error {
	p.logger.Info("Generating PDF", "rows", len(rows), "path", dest)
	doc, err := p.document(ctx, rows, meta)
	if err != nil {
		return err
	}
	if err := doc.OutputFileAndClose(dest); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	p.logger.Info("PDF generated successfully", "path", dest, "pages", doc.PageCount())
	return nil
}

// document lays out the whole report in memory.
func (p *PDFRenderer) document(ctx context.Context, rows []schema.ReportRow, meta contract.ReportMeta) (*fpdf.Fpdf, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(meta.Title, true)
	pdf.SetCreator("filepulse", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	usable := pageW - 2*margin
	widths := scaleWidths(usable)

	pdf.AddPage()
	title := meta.Title
	if title == "" {
		title = "File Neglect Report"
	}
	setText(pdf, titleColor)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(usable, 9, tr(title), "", 1, "L", false, 0, "")

	setText(pdf, metaColor)
	pdf.SetFont("Helvetica", "", 9)
	generated := meta.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.CellFormat(usable, 5, tr("Generated at: "+generated.UTC().Format(schema.TimestampLayout)), "", 1, "L", false, 0, "")
	pdf.CellFormat(usable, 5, tr(thresholdLine(meta.Thresholds)), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	drawHeader(pdf, widths, tr)

	bottom := pageH - margin
	for i, row := range rows {
		if i%ctxCheckRows == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if pdf.GetY()+rowHeight > bottom {
			pdf.AddPage()
			drawHeader(pdf, widths, tr)
		}
		drawRow(pdf, widths, tr, i, row)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to lay out PDF: %w", err)
	}
	return pdf, nil
}

func scaleWidths(usable float64) []float64 {
	total := 0.0
	for _, w := range columnWeights {
		total += w
	}
	widths := make([]float64, len(columnWeights))
	for i, w := range columnWeights {
		widths[i] = usable * w / total
	}
	return widths
}

func thresholdLine(t schema.ThresholdSet) string {
	return fmt.Sprintf("Thresholds (days): Red %s, Amber %s, Green %s", t.Red, t.Amber, t.Green)
}

func drawHeader(pdf *fpdf.Fpdf, widths []float64, tr func(string) string) {
	pdf.SetFont("Helvetica", "B", 9)
	setFill(pdf, headerFill)
	setDraw(pdf, gridColor)
	pdf.SetLineWidth(0.2)
	setText(pdf, rgb{})
	for i, h := range columns {
		pdf.CellFormat(widths[i], headerHeight, tr(fit(pdf, h, widths[i], false)), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func drawRow(pdf *fpdf.Fpdf, widths []float64, tr func(string) string, idx int, row schema.ReportRow) {
	pdf.SetFont("Helvetica", "", 8)
	cells := []string{
		row.DisplayPath,
		row.Size,
		row.ModifiedAt,
		contract.ClipText(row.File.Owner, ownerMaxRunes),
		contract.ClipText(row.File.Name, nameMaxRunes),
		row.Neglect,
		row.State,
	}

	base := whiteFill
	if idx%2 == 1 {
		base = altRowFill
	}
	for i, text := range cells {
		fill := base
		switch i {
		case pathCol:
			fill = pathFill
		case modifiedCol:
			fill = modifiedFill
		}
		setFill(pdf, fill)

		color := rgb{}
		if c, ok := bandColors[row.Band]; ok && i == stateCol {
			color = c
		}
		setText(pdf, color)
		pdf.CellFormat(widths[i], rowHeight, tr(fit(pdf, text, widths[i], i == pathCol)), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

// fit shortens text until it fits width at the current font. Paths keep
// their tail behind a "..." prefix; other text keeps its head.
func fit(pdf *fpdf.Fpdf, text string, width float64, keepTail bool) string {
	avail := width - 2*cellPadding
	if pdf.GetStringWidth(text) <= avail {
		return text
	}
	runes := []rune(strings.TrimPrefix(text, "..."))
	for len(runes) > 1 {
		var candidate string
		if keepTail {
			runes = runes[1:]
			candidate = "..." + string(runes)
		} else {
			runes = runes[:len(runes)-1]
			candidate = string(runes)
		}
		if pdf.GetStringWidth(candidate) <= avail {
			return candidate
		}
	}
	return string(runes)
}

func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func setDraw(pdf *fpdf.Fpdf, c rgb) { pdf.SetDrawColor(c.r, c.g, c.b) }
func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
