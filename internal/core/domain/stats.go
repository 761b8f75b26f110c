package domain

import (
	"time"
)

// AdvisoryStats is an aggregated snapshot of the scored advisory store.
type AdvisoryStats struct {
	// Summary Metrics
	Total        int     `json:"total"`
	AverageScore float64 `json:"average_score"`
	MaxScore     float64 `json:"max_score"`

	// Distribution, every rating present even when zero
	BySeverity map[Severity]int `json:"by_severity"`

	LastImport  ImportStatus `json:"last_import"`
	LastUpdated time.Time    `json:"updated_at"`
}

// NewAdvisoryStats initializes a stats object with every rating at zero.
func NewAdvisoryStats() AdvisoryStats {
	stats := AdvisoryStats{
		BySeverity:  make(map[Severity]int, len(Severities)),
		LastUpdated: time.Now(),
	}
	for _, sev := range Severities {
		stats.BySeverity[sev] = 0
	}
	return stats
}
