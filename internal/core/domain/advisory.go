package domain

import "time"

// Advisory is a published vulnerability record whose CVSS vector is scored
// on import. Score and Severity are derived, never taken from the seed.
type Advisory struct {
	ID          string `json:"id" yaml:"id"` // e.g., "CVE-2021-44228"
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`

	// Scoring
	CVSSVector string   `json:"cvss_vector" yaml:"cvss_vector"`
	Score      float64  `json:"score" yaml:"-"`
	Severity   Severity `json:"severity" yaml:"-"`

	PublishedDate time.Time `json:"published_date" yaml:"published_date"`
	ScoredAt      time.Time `json:"scored_at,omitempty" yaml:"-"`

	References []string `json:"references,omitempty" yaml:"references"`
}

// ImportStatus tracks the last advisory import.
type ImportStatus struct {
	LastImportTime time.Time `json:"last_import_time"`
	Source         string    `json:"source"`
	RecordCount    int       `json:"record_count"`
	FailedCount    int       `json:"failed_count"`
}
