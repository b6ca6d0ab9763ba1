package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/c360studio/specgate/report"
)

// duplicationRule flags near-identical requirement pairs using token-set
// Jaccard similarity. The comparison is pairwise and therefore O(n²) in
// requirement count; not recommended above ~2,000 requirements without
// approximate matching.
type duplicationRule struct {
	threshold float64
}

func (r *duplicationRule) Name() string { return "duplication" }

func (r *duplicationRule) Check(in *Input) []report.Issue {
	var issues []report.Issue

	reqs := in.Entities.Requirements
	for i := 0; i < len(reqs); i++ {
		for j := i + 1; j < len(reqs); j++ {
			sim := jaccard(tokenSet(reqs[i].Text), tokenSet(reqs[j].Text))
			if sim < r.threshold {
				continue
			}

			lower, higher := reqs[i], reqs[j]
			if naturalIDLess(higher.ID, lower.ID) {
				lower, higher = higher, lower
			}

			issues = append(issues, report.Issue{
				Category: report.CategoryDuplication,
				Severity: report.SeverityMedium,
				Location: lower.Location,
				Summary: fmt.Sprintf("%s and %s are %d%% similar",
					lower.ID, higher.ID, int(sim*100)),
				Recommendation: fmt.Sprintf("Merge %s into %s or differentiate their scope",
					higher.ID, lower.ID),
			})
		}
	}

	return issues
}

var tokenSplitRe = regexp.MustCompile(`[^a-z0-9]+`)

// tokenSet lowercases and splits text into its unique tokens.
func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range tokenSplitRe.Split(strings.ToLower(text), -1) {
		if tok != "" {
			set[tok] = true
		}
	}
	return set
}

// jaccard computes the token-set Jaccard index |a∩b| / |a∪b|.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

var idNumRe = regexp.MustCompile(`(\d+)$`)

// naturalIDLess orders entity ids by prefix, then numeric suffix, so FR-2
// sorts before FR-10.
func naturalIDLess(a, b string) bool {
	an := idNumRe.FindString(a)
	bn := idNumRe.FindString(b)
	ap := strings.TrimSuffix(a, an)
	bp := strings.TrimSuffix(b, bn)
	if ap != bp {
		return ap < bp
	}
	ai, _ := strconv.Atoi(an)
	bi, _ := strconv.Atoi(bn)
	return ai < bi
}
