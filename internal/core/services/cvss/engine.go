// Package cvss implements the CVSS v3.1 base score equations published by
// FIRST (https://www.first.org/cvss/v3.1/specification-document).
//
// Everything in this package is pure and safe for concurrent use.
package cvss

import (
	"math"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
)

// Calculate scores a complete metric vector. It fails with an
// *domain.InvalidMetricError if any metric is missing or holds a code outside
// its domain; it never substitutes values.
func Calculate(m domain.Metrics) (domain.ScoreResult, error) {
	score, err := BaseScore(m)
	if err != nil {
		return domain.ScoreResult{}, err
	}
	return domain.ScoreResult{
		Score:    score,
		Severity: SeverityOf(score),
		Vector:   m.String(),
		Metrics:  m.Clone(),
	}, nil
}

// BaseScore computes the rounded base score of a complete metric vector.
func BaseScore(m domain.Metrics) (float64, error) {
	raw, err := rawBaseScore(m)
	if err != nil {
		return 0, err
	}
	return Roundup(raw), nil
}

// rawBaseScore evaluates the base equations up to, but excluding, Roundup.
func rawBaseScore(m domain.Metrics) (float64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	scope := m[domain.MetricScope]
	changed := scope == domain.ScopeChanged

	weight := func(metric domain.Metric) float64 {
		v, _ := domain.Weight(metric, m[metric], scope)
		return v
	}

	iss := 1 - ((1 - weight(domain.MetricConfidentiality)) *
		(1 - weight(domain.MetricIntegrity)) *
		(1 - weight(domain.MetricAvailability)))

	var impact float64
	if changed {
		impact = 7.52*(iss-0.029) - 3.25*math.Pow(iss-0.02, 15)
	} else {
		impact = 6.42 * iss
	}
	if impact <= 0 {
		return 0, nil
	}

	exploitability := 8.22 *
		weight(domain.MetricAttackVector) *
		weight(domain.MetricAttackComplexity) *
		weight(domain.MetricPrivilegesRequired) *
		weight(domain.MetricUserInteraction)

	if changed {
		return math.Min(1.08*(impact+exploitability), 10), nil
	}
	return math.Min(impact+exploitability, 10), nil
}

// Roundup returns the smallest number with one decimal place that is equal to
// or higher than x. The input is first rounded to five decimal places so that
// floating point noise such as 4.000000000000001 does not push it to 4.1.
func Roundup(x float64) float64 {
	i := int64(math.Round(x * 100000))
	if i%10000 == 0 {
		return float64(i) / 100000
	}
	return (math.Floor(float64(i)/10000) + 1) / 10
}

// SeverityOf maps a base score to its qualitative rating.
func SeverityOf(score float64) domain.Severity {
	switch {
	case score <= 0:
		return domain.SeverityNone
	case score < 4.0:
		return domain.SeverityLow
	case score < 7.0:
		return domain.SeverityMedium
	case score < 9.0:
		return domain.SeverityHigh
	default:
		return domain.SeverityCritical
	}
}
