package reporting

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
	"github.com/lcalzada-xor/vulnmanager/internal/core/ports"
	"github.com/lcalzada-xor/vulnmanager/internal/core/services/cvss"
)

var _ ports.ScoreCardExporter = (*PDFExporter)(nil)

// PDFExporter renders CVSS score cards as PDF documents
type PDFExporter struct {
	now func() time.Time
}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{now: time.Now}
}

// ExportScoreCard generates a one page PDF describing a score result
func (e *PDFExporter) ExportScoreCard(result domain.ScoreResult) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("CVSS 3.1 Score Card", false)
	pdf.SetCreator("vulnmanager", false)
	pdf.AddPage()

	generated := e.now()

	e.addHeader(pdf, generated)
	e.addScore(pdf, result)
	e.addVector(pdf, result)
	e.addMetricTable(pdf, result)
	e.addFooter(pdf, generated)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

// addHeader adds the document title and generation date
func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, generated time.Time) {
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(0, 51, 102) // Dark blue
	pdf.CellFormat(0, 15, "CVSS 3.1 Base Score", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", generated.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")

	pdf.Ln(8)
}

// addScore draws the coloured score box
func (e *PDFExporter) addScore(pdf *gofpdf.Fpdf, result domain.ScoreResult) {
	r, g, b := severityColor(result.Severity)

	pdf.SetFillColor(r, g, b)
	pdf.Rect(20, pdf.GetY(), 170, 30, "F")

	y := pdf.GetY()

	pdf.SetFont("Arial", "B", 36)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(25, y+5)
	pdf.CellFormat(80, 20, fmt.Sprintf("%.1f/10", result.Score), "", 0, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 18)
	pdf.SetXY(110, y+8)
	pdf.CellFormat(80, 14, fmt.Sprintf("%s Severity", result.Severity), "", 0, "L", false, 0, "")

	pdf.SetY(y + 35)
	pdf.Ln(5)
}

// severityColor returns the RGB colour of a qualitative rating
func severityColor(severity domain.Severity) (r, g, b int) {
	switch severity {
	case domain.SeverityCritical:
		return 220, 53, 69 // Red
	case domain.SeverityHigh:
		return 255, 149, 0 // Orange
	case domain.SeverityMedium:
		return 255, 204, 0 // Yellow
	case domain.SeverityLow:
		return 52, 199, 89 // Green
	default:
		return 150, 150, 150 // Gray
	}
}

func (e *PDFExporter) addVector(pdf *gofpdf.Fpdf, result domain.ScoreResult) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Vector", "", 1, "L", false, 0, "")

	pdf.SetFont("Courier", "", 11)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 8, result.Vector, "", 1, "L", false, 0, "")
	pdf.Ln(6)
}

// addMetricTable lists each base metric with its selected value.
// Falls back to the parsed vector when the result carries no metrics.
func (e *PDFExporter) addMetricTable(pdf *gofpdf.Fpdf, result domain.ScoreResult) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Base Metrics", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(70, 8, "Metric", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Code", "1", 0, "C", true, 0, "")
	pdf.CellFormat(80, 8, "Value", "1", 1, "L", true, 0, "")

	metrics := result.Metrics
	if len(metrics) == 0 {
		metrics = cvss.ParseVector(result.Vector)
	}

	pdf.SetFont("Arial", "", 10)
	for _, def := range domain.Catalog() {
		code, ok := metrics[def.Key]
		if !ok {
			continue
		}
		label := domain.Label(def.Key, code)
		pdf.CellFormat(70, 7, def.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, code, "1", 0, "C", false, 0, "")
		pdf.CellFormat(80, 7, label, "1", 1, "L", false, 0, "")
	}

	pdf.Ln(8)
}

func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, generated time.Time) {
	pdf.SetY(-20)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(3)

	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	footer := fmt.Sprintf("Generated by vulnmanager | %s", generated.UTC().Format(time.RFC3339))
	pdf.CellFormat(0, 5, footer, "", 1, "C", false, 0, "")
}
