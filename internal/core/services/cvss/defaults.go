package cvss

import "github.com/lcalzada-xor/vulnmanager/internal/core/domain"

// DefaultMetrics returns the vector shown before the user picks anything:
// remote, no privileges, no interaction, full impact.
func DefaultMetrics() domain.Metrics {
	return domain.Metrics{
		domain.MetricAttackVector:       "N",
		domain.MetricAttackComplexity:   "L",
		domain.MetricPrivilegesRequired: "N",
		domain.MetricUserInteraction:    "N",
		domain.MetricScope:              "U",
		domain.MetricConfidentiality:    "H",
		domain.MetricIntegrity:          "H",
		domain.MetricAvailability:       "H",
	}
}

// Resolve overlays whatever ParseVector recognises in vector onto the default
// metrics. The result is always a complete, valid vector.
func Resolve(vector string) domain.Metrics {
	return DefaultMetrics().Merge(ParseVector(vector))
}

// NeutralResult is the zero score presented when a computation fails. metrics
// is echoed back so clients can keep the user's selection.
func NeutralResult(metrics domain.Metrics) domain.ScoreResult {
	res := domain.ScoreResult{
		Score:    0.0,
		Severity: domain.SeverityNone,
		Vector:   domain.NeutralVector,
	}
	if len(metrics) > 0 {
		res.Metrics = metrics.Clone()
	}
	return res
}

// CalculateOrNeutral scores m and degrades to NeutralResult on invalid input.
// The error that caused the fallback is returned alongside the neutral result.
func CalculateOrNeutral(m domain.Metrics) (domain.ScoreResult, error) {
	res, err := Calculate(m)
	if err != nil {
		return NeutralResult(m), err
	}
	return res, nil
}
