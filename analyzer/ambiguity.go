package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/c360studio/specgate/artifact"
	"github.com/c360studio/specgate/report"
)

// ambiguityRule flags requirements carrying unresolved-marker phrases or
// lacking any measurable acceptance criterion, plus extraction leftovers
// that had no recognizable ID.
type ambiguityRule struct {
	markers []string
}

func (r *ambiguityRule) Name() string { return "ambiguity" }

var (
	digitRe = regexp.MustCompile(`\d`)
	gwtRe   = regexp.MustCompile(`(?is)\bgiven\b.*\bwhen\b.*\bthen\b`)
)

func (r *ambiguityRule) Check(in *Input) []report.Issue {
	var issues []report.Issue

	for _, req := range in.Entities.Requirements {
		severity := report.SeverityMedium
		if req.Priority.IsHigh() {
			severity = report.SeverityHigh
		}

		if marker := r.firstMarker(req); marker != "" {
			issues = append(issues, report.Issue{
				Category: report.CategoryAmbiguity,
				Severity: severity,
				Location: req.Location,
				Summary:  fmt.Sprintf("%s contains ambiguity marker %q", req.ID, marker),
				Recommendation: fmt.Sprintf("Resolve the open point in %s before approval",
					req.ID),
			})
			continue
		}

		if !hasMeasurableCriterion(req) {
			issues = append(issues, report.Issue{
				Category: report.CategoryAmbiguity,
				Severity: severity,
				Location: req.Location,
				Summary: fmt.Sprintf("%s (%s) has no measurable acceptance criterion",
					req.ID, req.Priority),
				Recommendation: fmt.Sprintf("Add a testable acceptance criterion to %s",
					req.ID),
			})
		}
	}

	for _, s := range in.Entities.Skipped {
		issues = append(issues, report.Issue{
			Category:       report.CategoryAmbiguity,
			Severity:       report.SeverityLow,
			Location:       s.Location,
			Summary:        fmt.Sprintf("Entity without recognizable ID: %s", truncate(s.Text, 60)),
			Recommendation: "Assign a stable FR-n, USn, or Tnnn identifier",
		})
	}

	return issues
}

// firstMarker returns the first configured marker phrase present in the
// requirement text or its acceptance criteria.
func (r *ambiguityRule) firstMarker(req artifact.Requirement) string {
	haystack := strings.ToUpper(req.Text + " " + strings.Join(req.AcceptanceCriteria, " "))
	for _, marker := range r.markers {
		if strings.Contains(haystack, strings.ToUpper(marker)) {
			return marker
		}
	}
	return ""
}

// hasMeasurableCriterion reports whether any acceptance criterion is
// testable: it contains a number or a GIVEN/WHEN/THEN triple.
func hasMeasurableCriterion(req artifact.Requirement) bool {
	for _, c := range req.AcceptanceCriteria {
		if digitRe.MatchString(c) || gwtRe.MatchString(c) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
