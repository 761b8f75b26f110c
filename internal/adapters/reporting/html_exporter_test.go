package reporting

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
)

func TestHTMLExporterExportScoreCard(t *testing.T) {
	exporter := NewHTMLExporter()
	exporter.now = func() time.Time { return time.Date(2025, 5, 4, 10, 30, 0, 0, time.UTC) }

	out, err := exporter.ExportScoreCard(domain.ScoreResult{
		Score:    4.7,
		Severity: domain.SeverityMedium,
		Vector:   "CVSS:3.1/AV:L/AC:H/PR:H/UI:R/S:C/C:L/I:L/A:L",
	})
	require.NoError(t, err)

	page := string(out)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(page), "<!DOCTYPE html>"))
	assert.Contains(t, page, "May 04, 2025")
	assert.Contains(t, page, ">4.7<")
	assert.Contains(t, page, "Medium")
	assert.Contains(t, page, "rgb(255, 204, 0)")
	assert.Contains(t, page, "CVSS:3.1/AV:L/AC:H/PR:H/UI:R/S:C/C:L/I:L/A:L")

	// Rows come from the vector when the result carries no metrics
	assert.Contains(t, page, "Attack Vector")
	assert.Contains(t, page, "Local")
	assert.Contains(t, page, "S:C")
}

func TestHTMLExporterEscapesVector(t *testing.T) {
	out, err := NewHTMLExporter().ExportScoreCard(domain.ScoreResult{
		Vector: "<script>alert(1)</script>",
	})
	require.NoError(t, err)

	page := string(out)
	assert.NotContains(t, page, "<script>alert(1)</script>")
	assert.Contains(t, page, "&lt;script&gt;")
	assert.NotContains(t, page, "<tbody>")
}
