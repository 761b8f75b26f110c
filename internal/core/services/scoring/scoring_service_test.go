package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Log(ctx context.Context, action domain.AuditAction, status domain.AuditStatus, result *domain.ScoreResult, cause error) error {
	args := m.Called(ctx, action, status, result, cause)
	return args.Error(0)
}

func (m *MockAuditService) GetLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.AuditLog), args.Error(1)
}

func validInput() map[string]string {
	return map[string]string{
		"av": "n", "ac": "l", "pr": "n", "ui": "r",
		"s": "c", "c": "h", "i": "h", "a": "h",
	}
}

func TestScoringService_Build(t *testing.T) {
	audit := new(MockAuditService)
	svc := NewScoringService(audit)

	audit.On("Log", mock.Anything, domain.ActionBuild, domain.AuditSuccess,
		mock.MatchedBy(func(r *domain.ScoreResult) bool { return r != nil && r.Score == 9.6 }),
		nil).Return(nil)

	res, err := svc.Build(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, 9.6, res.Score)
	assert.Equal(t, domain.SeverityCritical, res.Severity)
	assert.Equal(t, "CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:C/C:H/I:H/A:H", res.Vector)
	assert.Equal(t, "R", res.Metrics[domain.MetricUserInteraction])
	audit.AssertExpectations(t)
}

func TestScoringService_BuildUpperCaseKeys(t *testing.T) {
	svc := NewScoringService(nil)

	res, err := svc.Build(context.Background(), map[string]string{
		"AV": "N", "AC": "L", "PR": "N", "UI": "N",
		"S": "U", "C": "H", "I": "H", "A": "H",
	})
	require.NoError(t, err)
	assert.Equal(t, 9.8, res.Score)
}

func TestScoringService_BuildInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
		reason string
	}{
		{"missing metric", func(in map[string]string) { delete(in, "s") }, domain.ReasonMissing},
		{"invalid code", func(in map[string]string) { in["av"] = "x" }, domain.ReasonInvalidCode},
		{"unknown metric", func(in map[string]string) { in["rl"] = "o" }, domain.ReasonUnknownMetric},
		{"conflicting spellings", func(in map[string]string) { in["AV"] = "P" }, domain.ReasonConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := new(MockAuditService)
			svc := NewScoringService(audit)
			audit.On("Log", mock.Anything, domain.ActionBuild, domain.AuditFailure, (*domain.ScoreResult)(nil), mock.Anything).Return(nil)

			in := validInput()
			tt.mutate(in)

			_, err := svc.Build(context.Background(), in)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidMetric)
			assert.Equal(t, tt.reason, FailureReason(err))
			audit.AssertExpectations(t)
		})
	}
}

func TestScoringService_BuildWithFallback(t *testing.T) {
	audit := new(MockAuditService)
	svc := NewScoringService(audit)
	audit.On("Log", mock.Anything, domain.ActionBuild, domain.AuditFallback,
		mock.MatchedBy(func(r *domain.ScoreResult) bool { return r != nil && r.Vector == domain.NeutralVector }),
		mock.Anything).Return(nil)

	in := validInput()
	in["c"] = "Q"

	res, fellBack := svc.BuildWithFallback(context.Background(), in)
	assert.True(t, fellBack)
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, domain.SeverityNone, res.Severity)
	assert.Equal(t, domain.NeutralVector, res.Vector)
	assert.Equal(t, "Q", res.Metrics[domain.MetricConfidentiality])
	audit.AssertExpectations(t)
}

func TestScoringService_BuildDuplicateSpellings(t *testing.T) {
	svc := NewScoringService(nil)

	in := validInput()
	in["AV"] = "N"
	res, err := svc.Build(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 9.6, res.Score)

	in["AV"] = "P"
	for i := 0; i < 50; i++ {
		_, err := svc.Build(context.Background(), in)
		var metricErr *domain.InvalidMetricError
		require.ErrorAs(t, err, &metricErr)
		assert.Equal(t, domain.MetricAttackVector, metricErr.Metric)
		assert.Equal(t, domain.ReasonConflict, metricErr.Reason)
	}

	fallback, fellBack := svc.BuildWithFallback(context.Background(), in)
	assert.True(t, fellBack)
	assert.Equal(t, domain.NeutralVector, fallback.Vector)
	assert.Empty(t, fallback.Metrics)
}

func TestScoringService_BuildWithFallbackValid(t *testing.T) {
	svc := NewScoringService(nil)

	res, fellBack := svc.BuildWithFallback(context.Background(), validInput())
	assert.False(t, fellBack)
	assert.Equal(t, 9.6, res.Score)
}

func TestScoringService_Calculate(t *testing.T) {
	svc := NewScoringService(nil)

	res, err := svc.Calculate(context.Background(), "CVSS:3.1/AV:L/AC:H/PR:H/UI:R/S:C/C:L/I:L/A:L")
	require.NoError(t, err)
	assert.Equal(t, 4.7, res.Score)
	assert.Equal(t, domain.SeverityMedium, res.Severity)

	_, err = svc.Calculate(context.Background(), "not-a-vector")
	assert.ErrorIs(t, err, domain.ErrMalformedVector)
	assert.Equal(t, "malformed_vector", FailureReason(err))

	_, err = svc.Calculate(context.Background(), "CVSS:3.1/AV:N")
	assert.ErrorIs(t, err, domain.ErrInvalidMetric)
}

func TestScoringService_Resolve(t *testing.T) {
	svc := NewScoringService(nil)

	res := svc.Resolve(context.Background(), "not-a-vector")
	assert.Equal(t, svc.Defaults(), res)

	res = svc.Resolve(context.Background(), "CVSS:3.1/C:N/I:N/A:N")
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, domain.SeverityNone, res.Severity)
	assert.Equal(t, "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:N/I:N/A:N", res.Vector)
}

func TestScoringService_AuditFailureDoesNotFailScoring(t *testing.T) {
	audit := new(MockAuditService)
	svc := NewScoringService(audit)
	audit.On("Log", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	res, err := svc.Build(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, 9.6, res.Score)
}

func TestScoringService_DefaultsAndCatalog(t *testing.T) {
	svc := NewScoringService(nil)

	def := svc.Defaults()
	assert.Equal(t, 9.8, def.Score)
	assert.Equal(t, "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", def.Vector)

	catalog := svc.Catalog()
	require.Len(t, catalog, len(domain.MetricOrder))
	for i, def := range catalog {
		assert.Equal(t, domain.MetricOrder[i], def.Key)
	}
}
