package domain

import (
	"errors"
	"fmt"
)

// Scoring errors.
var (
	ErrInvalidMetric   = errors.New("invalid CVSS metric")
	ErrMalformedVector = errors.New("malformed CVSS vector string")
)

// Reasons attached to InvalidMetricError.
const (
	ReasonMissing       = "missing"
	ReasonInvalidCode   = "invalid_code"
	ReasonUnknownMetric = "unknown_metric"
	ReasonConflict      = "conflicting_values"
)

// InvalidMetricError describes the metric that prevented a computation.
// It matches ErrInvalidMetric with errors.Is.
type InvalidMetricError struct {
	Metric Metric
	Code   string
	Reason string
}

func (e *InvalidMetricError) Error() string {
	switch e.Reason {
	case ReasonMissing:
		return fmt.Sprintf("%v: %s is missing", ErrInvalidMetric, e.Metric)
	case ReasonUnknownMetric:
		return fmt.Sprintf("%v: unknown metric %q", ErrInvalidMetric, string(e.Metric))
	case ReasonConflict:
		return fmt.Sprintf("%v: %s is given more than once with different values", ErrInvalidMetric, e.Metric)
	default:
		return fmt.Sprintf("%v: %q is not a valid value for %s", ErrInvalidMetric, e.Code, e.Metric)
	}
}

func (e *InvalidMetricError) Unwrap() error {
	return ErrInvalidMetric
}
