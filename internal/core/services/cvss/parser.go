package cvss

import (
	"strings"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
)

// ParseVector extracts every recognised metric with a valid code from a
// CVSS 3.1 vector string. Unknown segments and invalid codes are skipped, and a
// string without the CVSS:3.1/ prefix yields an empty map. The result is meant
// to be merged over DefaultMetrics.
func ParseVector(vector string) domain.Metrics {
	out := make(domain.Metrics)
	rest, ok := strings.CutPrefix(vector, domain.VectorPrefix)
	if !ok {
		return out
	}
	for _, segment := range strings.Split(rest, "/") {
		key, code, ok := strings.Cut(segment, ":")
		if !ok {
			continue
		}
		metric := domain.Metric(key)
		if !domain.IsValidCode(metric, code) {
			continue
		}
		out[metric] = code
	}
	return out
}

// ParseVectorStrict parses a complete vector string. It fails with
// domain.ErrMalformedVector when the prefix is absent and with an
// *domain.InvalidMetricError when a known metric carries an invalid code or a
// metric is missing. Segments naming other metrics are ignored.
func ParseVectorStrict(vector string) (domain.Metrics, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(vector), domain.VectorPrefix)
	if !ok {
		return nil, domain.ErrMalformedVector
	}
	out := make(domain.Metrics)
	for _, segment := range strings.Split(rest, "/") {
		key, code, ok := strings.Cut(segment, ":")
		if !ok {
			continue
		}
		metric := domain.Metric(key)
		if _, known := domain.Definition(metric); !known {
			continue
		}
		if !domain.IsValidCode(metric, code) {
			return nil, &domain.InvalidMetricError{Metric: metric, Code: code, Reason: domain.ReasonInvalidCode}
		}
		out[metric] = code
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
