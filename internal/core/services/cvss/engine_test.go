package cvss

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allVectors enumerates every valid base metric combination.
func allVectors() []domain.Metrics {
	vectors := []domain.Metrics{{}}
	for _, def := range domain.Catalog() {
		var next []domain.Metrics
		for _, partial := range vectors {
			for _, opt := range def.Options {
				m := partial.Clone()
				m[def.Key] = opt.Code
				next = append(next, m)
			}
		}
		vectors = next
	}
	return vectors
}

func mustResolveStrict(t *testing.T, vector string) domain.Metrics {
	t.Helper()
	m, err := ParseVectorStrict(vector)
	require.NoError(t, err)
	return m
}

func TestCalculate_KnownVectors(t *testing.T) {
	tests := []struct {
		vector   string
		score    float64
		severity domain.Severity
	}{
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", 9.8, domain.SeverityCritical},
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:N/I:N/A:N", 0.0, domain.SeverityNone},
		{"CVSS:3.1/AV:L/AC:H/PR:H/UI:R/S:C/C:L/I:L/A:L", 4.7, domain.SeverityMedium},
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:C/C:H/I:H/A:H", 9.6, domain.SeverityCritical},
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H", 10.0, domain.SeverityCritical},
		{"CVSS:3.1/AV:N/AC:L/PR:L/UI:N/S:U/C:H/I:H/A:H", 8.8, domain.SeverityHigh},
		{"CVSS:3.1/AV:L/AC:L/PR:L/UI:N/S:U/C:H/I:H/A:H", 7.8, domain.SeverityHigh},
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:N/A:N", 7.5, domain.SeverityHigh},
		{"CVSS:3.1/AV:N/AC:H/PR:N/UI:N/S:U/C:H/I:N/A:N", 5.9, domain.SeverityMedium},
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N", 5.3, domain.SeverityMedium},
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:U/C:N/I:L/A:N", 4.3, domain.SeverityMedium},
		// 6.007 before rounding: plain rounding would report 6.0.
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:C/C:L/I:L/A:N", 6.1, domain.SeverityMedium},
		{"CVSS:3.1/AV:P/AC:H/PR:H/UI:R/S:U/C:L/I:N/A:N", 1.6, domain.SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.vector, func(t *testing.T) {
			res, err := Calculate(mustResolveStrict(t, tt.vector))
			require.NoError(t, err)
			assert.Equal(t, tt.score, res.Score)
			assert.Equal(t, tt.severity, res.Severity)
			assert.Equal(t, tt.vector, res.Vector)
		})
	}
}

func TestCalculate_ScopeChangedNeverLowersScore(t *testing.T) {
	for _, m := range allVectors() {
		if m[domain.MetricScope] != domain.ScopeUnchanged || m[domain.MetricPrivilegesRequired] != "N" {
			continue
		}
		unchanged, err := BaseScore(m)
		require.NoError(t, err)

		changedVec := m.Clone()
		changedVec[domain.MetricScope] = domain.ScopeChanged
		changed, err := BaseScore(changedVec)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, changed, unchanged, m.String())
	}
}

func TestCalculate_AllVectorsProperties(t *testing.T) {
	vectors := allVectors()
	require.Len(t, vectors, 4*2*3*2*2*3*3*3)

	for _, m := range vectors {
		res, err := Calculate(m)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 10.0)
		tenths := res.Score * 10
		assert.InDelta(t, math.Round(tenths), tenths, 1e-9, "%s scored %v", res.Vector, res.Score)

		raw, err := rawBaseScore(m)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Score+1e-9, raw, res.Vector)

		assert.Equal(t, SeverityOf(res.Score), res.Severity)
		assert.Equal(t, m, ParseVector(res.Vector), "round trip of %s", res.Vector)
	}
}

func TestCalculate_InvalidMetric(t *testing.T) {
	t.Run("missing metric", func(t *testing.T) {
		m := DefaultMetrics()
		delete(m, domain.MetricScope)

		_, err := Calculate(m)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidMetric))

		var metricErr *domain.InvalidMetricError
		require.True(t, errors.As(err, &metricErr))
		assert.Equal(t, domain.MetricScope, metricErr.Metric)
		assert.Equal(t, domain.ReasonMissing, metricErr.Reason)
	})

	t.Run("code outside domain", func(t *testing.T) {
		m := DefaultMetrics()
		m[domain.MetricAttackVector] = "X"

		_, err := Calculate(m)
		var metricErr *domain.InvalidMetricError
		require.True(t, errors.As(err, &metricErr))
		assert.Equal(t, domain.MetricAttackVector, metricErr.Metric)
		assert.Equal(t, "X", metricErr.Code)
	})

	t.Run("lower case code is not normalized by the engine", func(t *testing.T) {
		m := DefaultMetrics()
		m[domain.MetricConfidentiality] = "h"

		_, err := Calculate(m)
		assert.ErrorIs(t, err, domain.ErrInvalidMetric)
	})

	t.Run("extra metric", func(t *testing.T) {
		m := DefaultMetrics()
		m["E"] = "F"

		_, err := Calculate(m)
		var metricErr *domain.InvalidMetricError
		require.True(t, errors.As(err, &metricErr))
		assert.Equal(t, domain.ReasonUnknownMetric, metricErr.Reason)
	})
}

func TestCalculate_VectorOrderIndependent(t *testing.T) {
	m := domain.Metrics{
		domain.MetricAvailability:       "L",
		domain.MetricIntegrity:          "L",
		domain.MetricConfidentiality:    "L",
		domain.MetricScope:              "C",
		domain.MetricUserInteraction:    "R",
		domain.MetricPrivilegesRequired: "H",
		domain.MetricAttackComplexity:   "H",
		domain.MetricAttackVector:       "L",
	}
	res, err := Calculate(m)
	require.NoError(t, err)
	assert.Equal(t, "CVSS:3.1/AV:L/AC:H/PR:H/UI:R/S:C/C:L/I:L/A:L", res.Vector)
}

func TestCalculate_DoesNotAliasInput(t *testing.T) {
	m := DefaultMetrics()
	res, err := Calculate(m)
	require.NoError(t, err)

	m[domain.MetricAttackVector] = "P"
	assert.Equal(t, "N", res.Metrics[domain.MetricAttackVector])
}

func TestCalculate_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				res, err := Calculate(DefaultMetrics())
				assert.NoError(t, err)
				assert.Equal(t, 9.8, res.Score)
			}
		}()
	}
	wg.Wait()
}

func TestRoundup(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{4.0, 4.0},
		{4.01, 4.1},
		{4.02, 4.1},
		{4.1, 4.1},
		{4.000000000000001, 4.0},
		{6.00696, 6.1},
		{9.99, 10.0},
		{10, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Roundup(tt.in), "Roundup(%v)", tt.in)
	}
}

func TestSeverityOf(t *testing.T) {
	tests := []struct {
		score float64
		want  domain.Severity
	}{
		{0.0, domain.SeverityNone},
		{0.1, domain.SeverityLow},
		{3.9, domain.SeverityLow},
		{4.0, domain.SeverityMedium},
		{6.9, domain.SeverityMedium},
		{7.0, domain.SeverityHigh},
		{8.9, domain.SeverityHigh},
		{9.0, domain.SeverityCritical},
		{10.0, domain.SeverityCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SeverityOf(tt.score), "SeverityOf(%v)", tt.score)
	}
}
