package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
)

// Document is the downloadable form of a score result.
type Document struct {
	Score     float64        `json:"score"`
	Severity  string         `json:"severity"`
	Vector    string         `json:"vector"`
	Metrics   domain.Metrics `json:"metrics"`
	Timestamp string         `json:"timestamp"`
}

// NewDocument stamps result with the export time.
func NewDocument(result domain.ScoreResult, at time.Time) Document {
	metrics := result.Metrics
	if metrics == nil {
		metrics = domain.Metrics{}
	}
	return Document{
		Score:     result.Score,
		Severity:  string(result.Severity),
		Vector:    result.Vector,
		Metrics:   metrics.Clone(),
		Timestamp: at.UTC().Format("2006-01-02T15:04:05.000Z"),
	}
}

// FileName returns cvss_<score>_<date>.<ext>, dated in UTC.
func FileName(result domain.ScoreResult, at time.Time, ext string) string {
	return fmt.Sprintf("cvss_%.1f_%s.%s", result.Score, at.UTC().Format("2006-01-02"), ext)
}

// ExportJSON writes the document as indented JSON
func ExportJSON(w io.Writer, doc Document) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// ExportAuditCSV writes audit entries as CSV with headers
func ExportAuditCSV(w io.Writer, logs []domain.AuditLog) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	headers := []string{
		"ID", "Timestamp", "Action", "Status",
		"Vector", "Score", "Severity", "Details",
		"RequestID", "Transport", "IPAddress", "UserAgent",
	}
	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, l := range logs {
		row := []string{
			strconv.FormatUint(uint64(l.ID), 10),
			l.Timestamp.UTC().Format(time.RFC3339),
			string(l.Action),
			string(l.Status),
			csvText(l.Vector),
			strconv.FormatFloat(l.Score, 'f', 1, 64),
			string(l.Severity),
			csvText(l.Details),
			csvText(l.RequestID),
			csvText(l.Transport),
			csvText(l.IPAddress),
			csvText(l.UserAgent),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// csvText keeps spreadsheets from evaluating caller supplied text as a formula.
func csvText(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
