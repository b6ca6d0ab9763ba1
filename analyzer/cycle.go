package analyzer

import (
	"fmt"
	"strings"

	"github.com/c360studio/specgate/artifact"
	"github.com/c360studio/specgate/report"
)

// cycleRule reports dependency cycles found in the dependsOn subgraph.
// Cyclic tasks are reported, never rejected.
type cycleRule struct{}

func (r *cycleRule) Name() string { return "cycle" }

func (r *cycleRule) Check(in *Input) []report.Issue {
	var issues []report.Issue

	for _, cycle := range in.Graph.Cycles() {
		loc := artifact.Location{Artifact: artifact.KindTaskList}
		if t, ok := in.Entities.Task(cycle[0]); ok {
			loc = t.Location
		}

		issues = append(issues, report.Issue{
			Category: report.CategoryCycle,
			Severity: report.SeverityCritical,
			Location: loc,
			Summary: fmt.Sprintf("Dependency cycle [%s]",
				strings.Join(cycle, ",")),
			Recommendation: "Break the cycle so the tasks can be scheduled",
		})
	}

	return issues
}
