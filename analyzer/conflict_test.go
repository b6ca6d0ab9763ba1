package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/specgate/artifact"
	"github.com/c360studio/specgate/report"
)

func planWith(t *testing.T, body string) *artifact.Artifact {
	t.Helper()
	a, err := artifact.Parse(artifact.KindPlan, "plan.md", []byte("# Plan\n\n## Performance\n\n"+body+"\n"))
	require.NoError(t, err)
	return a
}

func TestConflictSpecVsPlan(t *testing.T) {
	rule := &conflictRule{}

	in := newInput(&artifact.EntitySet{
		Requirements: []artifact.Requirement{
			reqAt("FR-1", "FR-1: Checkout API latency must stay under 200ms", 5),
		},
	}, map[artifact.Kind]*artifact.Artifact{
		artifact.KindPlan: planWith(t, "Budget: API latency may reach 500ms"),
	})

	issues := rule.Check(in)
	require.Len(t, issues, 1)
	assert.Equal(t, report.CategoryConflict, issues[0].Category)
	assert.Equal(t, report.SeverityHigh, issues[0].Severity)
	assert.Contains(t, issues[0].Summary, "200ms")
	assert.Contains(t, issues[0].Summary, "500ms")
	assert.Equal(t, artifact.KindSpecification, issues[0].Location.Artifact,
		"the issue cites the specification side first")
}

func TestConflictUnitNormalization(t *testing.T) {
	rule := &conflictRule{}

	// 0.2s and 350ms land in the same group after normalization.
	in := newInput(&artifact.EntitySet{
		Requirements: []artifact.Requirement{
			reqAt("FR-1", "FR-1: Checkout API latency must stay under 0.2s", 5),
		},
	}, map[artifact.Kind]*artifact.Artifact{
		artifact.KindPlan: planWith(t, "Budget: API latency may reach 350ms"),
	})

	issues := rule.Check(in)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Summary, "200ms")
	assert.Contains(t, issues[0].Summary, "350ms")
}

func TestConflictQuotedSubject(t *testing.T) {
	rule := &conflictRule{}

	in := newInput(&artifact.EntitySet{
		Requirements: []artifact.Requirement{
			reqAt("FR-1", `FR-1: The "checkout" flow needs p95 latency below 200ms`, 5),
		},
	}, map[artifact.Kind]*artifact.Artifact{
		artifact.KindPlan: planWith(t, `We sized "checkout" for p95 latency of 500ms`),
	})

	issues := rule.Check(in)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Summary, `"checkout"`)
}

func TestConflictAgreementIsNotFlagged(t *testing.T) {
	rule := &conflictRule{}

	in := newInput(&artifact.EntitySet{
		Requirements: []artifact.Requirement{
			reqAt("FR-1", "FR-1: Checkout API latency must stay under 200ms", 5),
		},
	}, map[artifact.Kind]*artifact.Artifact{
		artifact.KindPlan: planWith(t, "Budget: API latency may reach 200ms"),
	})

	assert.Empty(t, rule.Check(in))
}

func TestConflictDifferentMetricsDoNotGroup(t *testing.T) {
	rule := &conflictRule{}

	in := newInput(&artifact.EntitySet{
		Requirements: []artifact.Requirement{
			reqAt("FR-1", "FR-1: Checkout API latency must stay under 200ms", 5),
			reqAt("FR-2", "FR-2: Checkout API throughput must exceed 500 rps", 6),
		},
	}, nil)

	assert.Empty(t, rule.Check(in))
}

func TestExtractConstraintIgnoresEntityIDs(t *testing.T) {
	c, ok := extractConstraint("FR-1: API p95 latency under 200ms", artifact.Location{})
	require.True(t, ok)
	assert.Equal(t, float64(200), c.value, "the 1 in FR-1 and the 95 in p95 are not values")
	assert.Equal(t, "ms", c.unit)
}

func TestConflictPercentTargets(t *testing.T) {
	rule := &conflictRule{}

	in := newInput(&artifact.EntitySet{
		Requirements: []artifact.Requirement{
			reqAt("FR-1", "FR-1: Service uptime must reach 99.9%", 5),
		},
	}, map[artifact.Kind]*artifact.Artifact{
		artifact.KindPlan: planWith(t, "We size the Service uptime target at 99.5%"),
	})

	issues := rule.Check(in)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Summary, "99.9%")
	assert.Contains(t, issues[0].Summary, "99.5%")
}

func TestExtractConstraintPercentUnit(t *testing.T) {
	c, ok := extractConstraint("Service uptime must reach 99.9%", artifact.Location{})
	require.True(t, ok)
	assert.Equal(t, 99.9, c.value)
	assert.Equal(t, "%", c.unit)
}

func TestExtractConstraintNoMetric(t *testing.T) {
	_, ok := extractConstraint("Users can export statements", artifact.Location{})
	assert.False(t, ok)
}
