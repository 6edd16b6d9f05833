// Package report generates a field-mapping troubleshooting PDF for one form
// template. The table lists every physical field in catalog order with its
// normalized name and the logical keys that resolved to it; keys no field
// resolved to are listed after the table.
package report

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/domain"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/ports"
)

type Generator struct{}

var _ ports.ReportGenerator = Generator{}

func New() Generator { return Generator{} }

// Generate writes the report to w.
func (Generator) Generate(_ context.Context, r *domain.FieldReport, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(false, 18)
	pdf.AliasNbPages("{nb}")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	y := drawHeader(pdf, r, tr)
	y = drawTable(pdf, r, tr, y)
	drawUnmapped(pdf, r, tr, y)

	return pdf.Output(w)
}

func drawHeader(pdf *fpdf.Fpdf, r *domain.FieldReport, tr func(string) string) float64 {
	pageW, _ := pdf.GetPageSize()
	marginL, marginT, marginR, _ := pdf.GetMargins()
	contentW := pageW - marginL - marginR

	// ── Header bar ───────────────────────────────────────────────────────────
	pdf.SetFillColor(140, 29, 64)
	pdf.Rect(marginL, marginT, contentW, 10, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetXY(marginL+2, marginT+1.5)
	pdf.CellFormat(contentW-4, 7, "FORM FIELD MAPPING REPORT", "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	y := marginT + 13

	// ── Template section ─────────────────────────────────────────────────────
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetXY(marginL, y)
	pdf.CellFormat(contentW, 5.5, "TEMPLATE", "LRT", 1, "L", true, 0, "")
	y += 5.5

	colHalf := contentW / 2
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(marginL, y)
	pdf.CellFormat(colHalf, 6, tr("Template: "+r.TemplateName), "L", 0, "L", false, 0, "")
	pdf.CellFormat(colHalf, 6, "Fields: "+strconv.Itoa(len(r.Rows))+"   Mapped: "+strconv.Itoa(mappedCount(r)), "R", 1, "L", false, 0, "")
	y += 6
	pdf.SetXY(marginL, y)
	pdf.CellFormat(contentW, 5.5, "Generated "+r.GeneratedAt.Format("01/02/2006 15:04 MST"), "LB", 1, "L", false, 0, "")
	return y + 5.5 + 5
}

const rowH = 6

func drawTable(pdf *fpdf.Fpdf, r *domain.FieldReport, tr func(string) string, y float64) float64 {
	pageW, pageH := pdf.GetPageSize()
	marginL, marginT, marginR, marginB := pdf.GetMargins()
	contentW := pageW - marginL - marginR

	nameW := contentW * 0.40
	normW := contentW * 0.30
	keyW := contentW - nameW - normW

	header := func(y float64) float64 {
		pdf.SetFillColor(30, 30, 30)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 8.5)
		pdf.SetXY(marginL, y)
		pdf.CellFormat(nameW, 7, "Field Name", "1", 0, "L", true, 0, "")
		pdf.CellFormat(normW, 7, "Normalized", "1", 0, "L", true, 0, "")
		pdf.CellFormat(keyW, 7, "Resolved Keys", "1", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		return y + 7
	}
	y = header(y)

	if len(r.Rows) == 0 {
		pdf.SetFont("Helvetica", "I", 8.5)
		pdf.SetXY(marginL, y)
		pdf.CellFormat(contentW, rowH, "No fillable form fields found in this template.", "1", 1, "L", false, 0, "")
		return y + rowH
	}

	for i, row := range r.Rows {
		if y+rowH > pageH-marginB-8 {
			drawFooter(pdf, r)
			pdf.AddPage()
			y = header(marginT)
		}
		if i%2 == 0 {
			pdf.SetFillColor(250, 250, 250)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		mapped := len(row.Keys) > 0
		if mapped {
			pdf.SetFont("Helvetica", "B", 8.5)
		} else {
			pdf.SetFont("Helvetica", "", 8.5)
		}
		pdf.SetXY(marginL, y)
		pdf.CellFormat(nameW, rowH, tr(fit(pdf, row.Name, nameW)), "1", 0, "L", true, 0, "")
		pdf.CellFormat(normW, rowH, fit(pdf, row.Normalized, normW), "1", 0, "L", true, 0, "")
		if mapped {
			pdf.SetFillColor(220, 240, 220)
		}
		pdf.CellFormat(keyW, rowH, fit(pdf, strings.Join(row.Keys, ", "), keyW), "1", 1, "L", true, 0, "")
		y += rowH
	}
	return y
}

func drawUnmapped(pdf *fpdf.Fpdf, r *domain.FieldReport, tr func(string) string, y float64) {
	pageW, pageH := pdf.GetPageSize()
	marginL, marginT, marginR, marginB := pdf.GetMargins()
	contentW := pageW - marginL - marginR

	if len(r.Unmapped) > 0 {
		text := strings.Join(r.Unmapped, ", ")
		lines := pdf.SplitText(text, contentW-4)
		need := 5.5 + float64(len(lines))*5 + 5
		if y+need > pageH-marginB-8 {
			drawFooter(pdf, r)
			pdf.AddPage()
			y = marginT
		} else {
			y += 5
		}
		pdf.SetFillColor(240, 240, 240)
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetXY(marginL, y)
		pdf.CellFormat(contentW, 5.5, "KEYS WITHOUT A FIELD (tried as literal names, then fallbacks)", "LRT", 1, "L", true, 0, "")
		y += 5.5
		pdf.SetFont("Helvetica", "", 8.5)
		pdf.SetXY(marginL, y)
		pdf.MultiCell(contentW, 5, tr(text), "LRB", "L", false)
	}
	drawFooter(pdf, r)
}

func drawFooter(pdf *fpdf.Fpdf, r *domain.FieldReport) {
	pageW, pageH := pdf.GetPageSize()
	marginL, _, marginR, marginB := pdf.GetMargins()
	contentW := pageW - marginL - marginR

	pdf.SetXY(marginL, pageH-marginB-6)
	pdf.SetFont("Helvetica", "I", 7.5)
	pdf.SetTextColor(130, 130, 130)
	pdf.CellFormat(contentW/2, 5, "Generated by ASU BMF Filler", "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 5, "Page "+strconv.Itoa(pdf.PageNo())+" of {nb}", "", 0, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func mappedCount(r *domain.FieldReport) int {
	n := 0
	for _, row := range r.Rows {
		if len(row.Keys) > 0 {
			n++
		}
	}
	return n
}

// fit truncates s with an ellipsis so it fits a cell of width w.
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	const pad = 2
	if pdf.GetStringWidth(s) <= w-pad {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > w-pad {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
