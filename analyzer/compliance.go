package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/c360studio/specgate/artifact"
	"github.com/c360studio/specgate/report"
)

// complianceRule verifies that every non-negotiable principle is traceable
// into the plan or task list: at least one significant word of the
// principle name, or a configured synonym of it, must appear there.
type complianceRule struct {
	synonyms map[string][]string
}

func (r *complianceRule) Name() string { return "compliance" }

var wordRe = regexp.MustCompile(`[a-z][a-z-]+`)

// complianceStopwords are words too generic to count as a principle
// reference on their own.
var complianceStopwords = map[string]bool{
	"all": true, "must": true, "should": true, "shall": true,
	"every": true, "with": true, "when": true, "that": true,
	"this": true, "have": true, "always": true, "never": true,
	"require": true, "requires": true, "required": true,
	"first": true, "only": true, "over": true,
}

func (r *complianceRule) Check(in *Input) []report.Issue {
	var haystack strings.Builder
	if plan := in.Artifacts[artifact.KindPlan]; plan != nil {
		haystack.WriteString(plan.RawText)
		haystack.WriteString("\n")
	}
	if tasks := in.Artifacts[artifact.KindTaskList]; tasks != nil {
		haystack.WriteString(tasks.RawText)
	}
	text := strings.ToLower(haystack.String())

	var issues []report.Issue
	for _, p := range in.Entities.Principles {
		if !p.NonNegotiable {
			continue
		}

		if r.referenced(p, text) {
			continue
		}

		issues = append(issues, report.Issue{
			Category: report.CategoryCompliance,
			Severity: report.SeverityCritical,
			Location: p.Location,
			Summary: fmt.Sprintf("%s (%s) is not referenced in the plan or task list",
				p.ID, p.Name),
			Recommendation: fmt.Sprintf("Trace %q into the plan or task list, or drop its non-negotiable status",
				p.Name),
		})
	}

	return issues
}

// referenced reports whether any needle derived from the principle name is
// a case-insensitive substring of the combined plan/tasklist text.
func (r *complianceRule) referenced(p artifact.Principle, haystack string) bool {
	for _, needle := range r.needles(p.Name) {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// needles derives search terms from a principle name: its significant words
// plus the configured synonyms for each. A name with no significant words
// falls back to the full name.
func (r *complianceRule) needles(name string) []string {
	lower := strings.ToLower(name)

	var needles []string
	for _, word := range wordRe.FindAllString(lower, -1) {
		if len(word) < 4 || complianceStopwords[word] {
			continue
		}
		needles = append(needles, word)
		needles = append(needles, r.synonyms[word]...)
	}

	if len(needles) == 0 {
		needles = append(needles, lower)
	}
	return needles
}
