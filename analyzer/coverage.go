package analyzer

import (
	"fmt"

	"github.com/c360studio/specgate/artifact"
	"github.com/c360studio/specgate/report"
)

// coverageRule flags functional requirements no task reaches through
// satisfies edges, and references that failed to resolve.
type coverageRule struct{}

func (r *coverageRule) Name() string { return "coverage" }

func (r *coverageRule) Check(in *Input) []report.Issue {
	var issues []report.Issue

	covered := coveredRequirements(in)
	for _, req := range in.Entities.Requirements {
		if req.IsStory() || covered[req.ID] {
			continue
		}

		severity := report.SeverityMedium
		if req.Priority == artifact.PriorityP1 {
			severity = report.SeverityCritical
		}
		issues = append(issues, report.Issue{
			Category: report.CategoryCoverage,
			Severity: severity,
			Location: req.Location,
			Summary: fmt.Sprintf("%s (%s) is not covered by any task",
				req.ID, req.Priority),
			Recommendation: fmt.Sprintf("Add a task that satisfies %s or descope it",
				req.ID),
		})
	}

	for _, d := range in.Graph.Dangling {
		issues = append(issues, report.Issue{
			Category: report.CategoryCoverage,
			Severity: report.SeverityMedium,
			Location: d.Location,
			Summary: fmt.Sprintf("%s references unknown id %s",
				d.FromID, d.Label),
			Recommendation: fmt.Sprintf("Fix the reference on %s or add the missing entity %s",
				d.FromID, d.Label),
		})
	}

	return issues
}
