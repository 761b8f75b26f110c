package domain

import (
	"slices"
	"strings"
)

// VectorPrefix is the literal every CVSS 3.1 vector string starts with.
const VectorPrefix = "CVSS:3.1/"

// Metric identifies one of the eight CVSS 3.1 base metrics.
type Metric string

// CVSS 3.1 base metrics.
const (
	MetricAttackVector       Metric = "AV"
	MetricAttackComplexity   Metric = "AC"
	MetricPrivilegesRequired Metric = "PR"
	MetricUserInteraction    Metric = "UI"
	MetricScope              Metric = "S"
	MetricConfidentiality    Metric = "C"
	MetricIntegrity          Metric = "I"
	MetricAvailability       Metric = "A"
)

// MetricOrder is the canonical order of metrics in a vector string.
var MetricOrder = []Metric{
	MetricAttackVector,
	MetricAttackComplexity,
	MetricPrivilegesRequired,
	MetricUserInteraction,
	MetricScope,
	MetricConfidentiality,
	MetricIntegrity,
	MetricAvailability,
}

// Scope codes.
const (
	ScopeUnchanged = "U"
	ScopeChanged   = "C"
)

// ParseMetric maps a metric key in any letter case to a Metric.
func ParseMetric(key string) (Metric, bool) {
	m := Metric(strings.ToUpper(strings.TrimSpace(key)))
	if _, ok := catalogIndex[m]; !ok {
		return "", false
	}
	return m, true
}

// Metrics maps base metrics to their single-letter codes.
// A complete vector holds all eight metrics; parsers may return partial maps.
type Metrics map[Metric]string

// Clone returns an independent copy.
func (m Metrics) Clone() Metrics {
	out := make(Metrics, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge returns a copy of m with every entry of overrides applied on top.
func (m Metrics) Merge(overrides Metrics) Metrics {
	out := m.Clone()
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Validate reports the first metric that is missing, unknown or holds a code
// outside its domain. Metrics are checked in canonical order so the error is stable.
func (m Metrics) Validate() error {
	for _, metric := range MetricOrder {
		code, ok := m[metric]
		if !ok {
			return &InvalidMetricError{Metric: metric, Reason: ReasonMissing}
		}
		if !IsValidCode(metric, code) {
			return &InvalidMetricError{Metric: metric, Code: code, Reason: ReasonInvalidCode}
		}
	}
	if len(m) != len(MetricOrder) {
		for metric, code := range m {
			if _, ok := catalogIndex[metric]; !ok {
				return &InvalidMetricError{Metric: metric, Code: code, Reason: ReasonUnknownMetric}
			}
		}
	}
	return nil
}

// String assembles the vector string in canonical order. Metrics absent from
// the map are skipped.
func (m Metrics) String() string {
	var b strings.Builder
	b.WriteString(VectorPrefix)
	first := true
	for _, metric := range MetricOrder {
		code, ok := m[metric]
		if !ok {
			continue
		}
		if !first {
			b.WriteByte('/')
		}
		first = false
		b.WriteString(string(metric))
		b.WriteByte(':')
		b.WriteString(code)
	}
	return b.String()
}

// MetricsFromInput normalizes caller supplied metric selections. Keys and codes
// are accepted in either letter case. Keys that name no metric are kept verbatim
// so Validate can reject them. Two spellings of one metric with different codes
// fail with ReasonConflict.
func MetricsFromInput(in map[string]string) (Metrics, error) {
	out := make(Metrics, len(in))
	keys := make([]string, 0, len(in))
	for key := range in {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		code := strings.ToUpper(strings.TrimSpace(in[key]))
		metric, ok := ParseMetric(key)
		if !ok {
			out[Metric(key)] = code
			continue
		}
		if prev, seen := out[metric]; seen && prev != code {
			return nil, &InvalidMetricError{Metric: metric, Code: code, Reason: ReasonConflict}
		}
		out[metric] = code
	}
	return out, nil
}

// Severity is the qualitative rating of a base score.
type Severity string

// Qualitative severity ratings.
const (
	SeverityNone     Severity = "None"
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Severities lists every rating from lowest to highest.
var Severities = []Severity{SeverityNone, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// ScoreResult is the outcome of one base score computation.
type ScoreResult struct {
	Score    float64  `json:"score"`
	Severity Severity `json:"severity"`
	Vector   string   `json:"vector"`
	Metrics  Metrics  `json:"metrics,omitempty"`
}

// NeutralVector is reported when a computation cannot be completed.
const NeutralVector = "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:N/I:N/A:N"
