// Package report defines analysis findings, their deterministic ordering,
// and the gate verdict. A report is a flat, serializable structure; no
// mutable state persists between runs.
package report

import (
	"fmt"
	"math"
	"sort"

	"github.com/c360studio/specgate/artifact"
)

// Severity ranks a finding.
type Severity string

const (
	// SeverityLow is informational-grade.
	SeverityLow Severity = "LOW"
	// SeverityMedium warrants attention before approval.
	SeverityMedium Severity = "MEDIUM"
	// SeverityHigh should block approval in most teams.
	SeverityHigh Severity = "HIGH"
	// SeverityCritical always fails the gate.
	SeverityCritical Severity = "CRITICAL"
)

// Rank returns the numeric rank of a severity (higher is more severe).
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Category classifies a finding.
type Category string

const (
	// CategoryDuplication is near-identical requirement text.
	CategoryDuplication Category = "Duplication"
	// CategoryAmbiguity is unresolved or unmeasurable requirement text.
	CategoryAmbiguity Category = "Ambiguity"
	// CategoryConflict is incompatible numeric constraints on one metric.
	CategoryConflict Category = "Conflict"
	// CategoryCoverage is an uncovered requirement or dangling reference.
	CategoryCoverage Category = "Coverage"
	// CategoryCompliance is an untraced non-negotiable principle.
	CategoryCompliance Category = "Compliance"
	// CategoryCycle is a dependency cycle between tasks.
	CategoryCycle Category = "Cycle"
)

// Issue is a single analysis finding. Issues are produced only by the
// analyzer and are immutable once emitted; they are never thrown as errors.
type Issue struct {
	// ID is assigned after the final sort (ISS-001, ISS-002, ...) so
	// identical inputs always yield identical IDs
	ID string `json:"id"`

	// Category classifies the finding
	Category Category `json:"category"`

	// Severity ranks the finding
	Severity Severity `json:"severity"`

	// Location is where the finding was observed
	Location artifact.Location `json:"location"`

	// Summary states what was found
	Summary string `json:"summary"`

	// Recommendation states what to do about it
	Recommendation string `json:"recommendation"`
}

// CoverageMetric summarizes requirement and task coverage.
type CoverageMetric struct {
	TotalRequirements   int `json:"total_requirements"`
	CoveredRequirements int `json:"covered_requirements"`
	TotalTasks          int `json:"total_tasks"`
	MappedTasks         int `json:"mapped_tasks"`

	// Percentage is round-half-up of 100*covered/total, always in [0,100].
	// Zero requirements yields 100 (vacuously covered), never a fault.
	Percentage int `json:"percentage"`
}

// NewCoverageMetric computes the coverage metric from raw counts.
func NewCoverageMetric(totalReqs, coveredReqs, totalTasks, mappedTasks int) CoverageMetric {
	m := CoverageMetric{
		TotalRequirements:   totalReqs,
		CoveredRequirements: coveredReqs,
		TotalTasks:          totalTasks,
		MappedTasks:         mappedTasks,
	}
	if totalReqs == 0 {
		m.Percentage = 100
		return m
	}
	m.Percentage = int(math.Floor(100*float64(coveredReqs)/float64(totalReqs) + 0.5))
	return m
}

// Verdict is the binary gate decision.
type Verdict string

const (
	// VerdictPass means zero critical issues and coverage at threshold.
	VerdictPass Verdict = "PASS"
	// VerdictFail means the artifact set is not ready.
	VerdictFail Verdict = "FAIL"
)

// Report is the complete analysis result.
type Report struct {
	// Issues are all findings in deterministic order
	Issues []Issue `json:"issues"`

	// Coverage is the coverage summary
	Coverage CoverageMetric `json:"coverage"`

	// Notes are informational lines that are not issues (e.g. the
	// vacuous-coverage note)
	Notes []string `json:"notes,omitempty"`

	// Threshold is the coverage percentage required for PASS
	Threshold int `json:"threshold"`

	// Verdict is the gate decision
	Verdict Verdict `json:"verdict"`
}

// New assembles a report: issues are sorted into their total order, IDs are
// assigned, and the gate verdict is computed. PASS requires zero CRITICAL
// issues and coverage percentage at or above the threshold.
func New(issues []Issue, coverage CoverageMetric, notes []string, threshold int) *Report {
	sortIssues(issues)
	for i := range issues {
		issues[i].ID = fmt.Sprintf("ISS-%03d", i+1)
	}

	verdict := VerdictPass
	if coverage.Percentage < threshold {
		verdict = VerdictFail
	}
	for _, issue := range issues {
		if issue.Severity == SeverityCritical {
			verdict = VerdictFail
			break
		}
	}

	return &Report{
		Issues:    issues,
		Coverage:  coverage,
		Notes:     notes,
		Threshold: threshold,
		Verdict:   verdict,
	}
}

// HasCritical returns true if any issue is CRITICAL.
func (r *Report) HasCritical() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// sortIssues applies the total order guaranteeing identical output for
// identical input: severity descending, category ascending, location
// ascending, then summary as the final tiebreak.
func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Location != b.Location {
			return a.Location.Less(b.Location)
		}
		return a.Summary < b.Summary
	})
}
