package analyzer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"regexp"

	"github.com/c360studio/specgate/artifact"
	"github.com/c360studio/specgate/report"
)

// conflictRule flags incompatible numeric constraints asserted for the same
// named metric, across specification requirements and plan sections.
type conflictRule struct{}

func (r *conflictRule) Name() string { return "conflict" }

var (
	metricKeywordRe = regexp.MustCompile(`(?i)\b(p\d{2,3}|latency|throughput|uptime|availability|error\s*rate)\b`)
	numberUnitRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(%|(?:ms|milliseconds|seconds|s|rps|qps)\b)?`)
	lineEntityIDRe  = regexp.MustCompile(`\b(?:FR-\d+|US\d+|T\d{3})\b`)
	quotedRe        = regexp.MustCompile(`"([^"]+)"`)
	wordBeforeRe    = regexp.MustCompile(`([A-Za-z][\w-]*)\s*$`)
)

// constraint is one extracted numeric assertion: subject + metric + value.
type constraint struct {
	key      string
	display  string // human-readable subject/metric for the summary
	value    float64
	unit     string
	location artifact.Location
}

func (r *conflictRule) Check(in *Input) []report.Issue {
	var constraints []constraint

	// Specification requirements first, then plan sections, so grouped
	// constraints keep a stable citation order.
	for _, req := range in.Entities.Requirements {
		if c, ok := extractConstraint(req.Text, req.Location); ok {
			constraints = append(constraints, c)
		}
	}
	if plan := in.Artifacts[artifact.KindPlan]; plan != nil {
		for _, section := range plan.Sections {
			for i, line := range strings.Split(section.Body, "\n") {
				loc := artifact.Location{Artifact: plan.Kind, Line: section.Line + 1 + i}
				if c, ok := extractConstraint(line, loc); ok {
					constraints = append(constraints, c)
				}
			}
		}
	}

	groups := make(map[string][]constraint)
	for _, c := range constraints {
		groups[c.key] = append(groups[c.key], c)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var issues []report.Issue
	for _, k := range keys {
		group := groups[k]
		first := group[0]
		for _, c := range group[1:] {
			if c.value == first.value {
				continue
			}
			issues = append(issues, report.Issue{
				Category: report.CategoryConflict,
				Severity: report.SeverityHigh,
				Location: first.location,
				Summary: fmt.Sprintf("Conflicting %s constraints: %s at %s vs %s at %s",
					first.display,
					formatValue(first.value, first.unit), first.location,
					formatValue(c.value, c.unit), c.location),
				Recommendation: fmt.Sprintf("Agree on a single %s target and update both documents",
					first.display),
			})
			break
		}
	}

	return issues
}

// extractConstraint recognizes a numeric constraint in a single line.
// The subject is the first quoted string in the line, or the word
// immediately before the first metric keyword; lines with no subject are
// grouped under "global". Seconds normalize to milliseconds so "0.2s" and
// "350ms" land in the same group.
func extractConstraint(line string, loc artifact.Location) (constraint, bool) {
	metricLocs := metricKeywordRe.FindAllStringIndex(line, -1)
	if metricLocs == nil {
		return constraint{}, false
	}

	metricSet := make(map[string]bool)
	for _, m := range metricKeywordRe.FindAllString(line, -1) {
		metricSet[normalizeMetric(m)] = true
	}
	metrics := make([]string, 0, len(metricSet))
	for m := range metricSet {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)

	// Strip the metric keywords and entity ids before scanning for the
	// value, so the 95 in "p95" and the 1 in "FR-1" are not mistaken for
	// targets.
	stripped := metricKeywordRe.ReplaceAllString(line, " ")
	stripped = lineEntityIDRe.ReplaceAllString(stripped, " ")
	num := numberUnitRe.FindStringSubmatch(stripped)
	if num == nil {
		return constraint{}, false
	}
	value, err := strconv.ParseFloat(num[1], 64)
	if err != nil {
		return constraint{}, false
	}
	unit := strings.ToLower(num[2])
	switch unit {
	case "seconds", "s":
		value *= 1000
		unit = "ms"
	case "milliseconds":
		unit = "ms"
	}

	subject := "global"
	if q := quotedRe.FindStringSubmatch(line); q != nil {
		subject = strings.ToLower(q[1])
	} else if w := wordBeforeRe.FindStringSubmatch(line[:metricLocs[0][0]]); w != nil {
		subject = strings.ToLower(w[1])
	}

	metricName := strings.Join(metrics, "+")
	return constraint{
		key:      subject + "|" + metricName + "|" + unit,
		display:  fmt.Sprintf("%q %s", subject, metricName),
		value:    value,
		unit:     unit,
		location: loc,
	}, true
}

func normalizeMetric(m string) string {
	m = strings.ToLower(m)
	return strings.Join(strings.Fields(m), "-")
}

func formatValue(v float64, unit string) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if unit != "" {
		s += unit
	}
	return s
}
