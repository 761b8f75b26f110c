package reporting

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/lcalzada-xor/vulnmanager/internal/adapters/reporting/templates"
	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
	"github.com/lcalzada-xor/vulnmanager/internal/core/ports"
	"github.com/lcalzada-xor/vulnmanager/internal/core/services/cvss"
)

var _ ports.ScoreCardExporter = (*HTMLExporter)(nil)

// ScoreCardRow is one metric line of the HTML score card.
type ScoreCardRow struct {
	Metric domain.Metric
	Name   string
	Code   string
	Value  string
}

// ScoreCardData feeds templates.ScoreCardHTML.
type ScoreCardData struct {
	GeneratedAt time.Time
	Result      domain.ScoreResult
	Color       template.CSS
	Rows        []ScoreCardRow
}

// HTMLExporter renders CVSS score cards as standalone HTML pages
type HTMLExporter struct {
	tmpl *template.Template
	now  func() time.Time
}

// NewHTMLExporter parses the score card template once.
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{
		tmpl: template.Must(template.New("score_card").Parse(templates.ScoreCardHTML)),
		now:  time.Now,
	}
}

func (e *HTMLExporter) ExportScoreCard(result domain.ScoreResult) ([]byte, error) {
	r, g, b := severityColor(result.Severity)
	data := ScoreCardData{
		GeneratedAt: e.now(),
		Result:      result,
		Color:       template.CSS(fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)),
		Rows:        scoreCardRows(result),
	}

	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render score card: %w", err)
	}
	return buf.Bytes(), nil
}

func scoreCardRows(result domain.ScoreResult) []ScoreCardRow {
	metrics := result.Metrics
	if len(metrics) == 0 {
		metrics = cvss.ParseVector(result.Vector)
	}

	rows := make([]ScoreCardRow, 0, len(metrics))
	for _, def := range domain.Catalog() {
		code, ok := metrics[def.Key]
		if !ok {
			continue
		}
		rows = append(rows, ScoreCardRow{
			Metric: def.Key,
			Name:   def.Name,
			Code:   code,
			Value:  domain.Label(def.Key, code),
		})
	}
	return rows
}
