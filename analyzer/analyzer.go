// Package analyzer applies the consistency, coverage, and compliance rule
// set over the cross-reference graph. Rules never fail the run; they only
// ever add issues to the report.
package analyzer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/c360studio/specgate/artifact"
	"github.com/c360studio/specgate/config"
	"github.com/c360studio/specgate/refgraph"
	"github.com/c360studio/specgate/report"
)

// Input is everything a rule may read: the loaded artifacts, the extracted
// entity universe, and the completed cross-reference graph. Input is
// read-only; rules write only to their own issue lists.
type Input struct {
	Artifacts map[artifact.Kind]*artifact.Artifact
	Entities  *artifact.EntitySet
	Graph     *refgraph.Graph
}

// Rule is a single independent check. Rules are order-insensitive in
// execution but deterministic in output.
type Rule interface {
	// Name identifies the rule in logs.
	Name() string

	// Check returns the rule's findings for the given input.
	Check(in *Input) []report.Issue
}

// Analyzer runs the full rule set.
type Analyzer struct {
	rules  []Rule
	logger *slog.Logger
}

// New creates an analyzer with the standard rule set configured from cfg.
func New(cfg config.RulesConfig, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		logger: logger,
		rules: []Rule{
			&duplicationRule{threshold: cfg.DuplicationThreshold},
			&ambiguityRule{markers: cfg.AmbiguityMarkers},
			&conflictRule{},
			&coverageRule{},
			&complianceRule{synonyms: cfg.Synonyms},
			&cycleRule{},
		},
	}
}

// Run executes all rules over the input and returns the merged issue list,
// the coverage metric, and any informational notes. The rules are
// independent, so each runs on its own goroutine writing to its own slice;
// a barrier join merges the lists once all rules complete, preserving
// deterministic ordering downstream. There is no cancellation mid-run:
// once analysis starts it runs to completion.
func (a *Analyzer) Run(ctx context.Context, in *Input) ([]report.Issue, report.CoverageMetric, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, report.CoverageMetric{}, nil, err
	}

	results := make([][]report.Issue, len(a.rules))

	var wg sync.WaitGroup
	for i, rule := range a.rules {
		wg.Add(1)
		go func(i int, rule Rule) {
			defer wg.Done()
			start := time.Now()
			results[i] = rule.Check(in)
			a.logger.Debug("Rule completed",
				slog.String("rule", rule.Name()),
				slog.Int("issues", len(results[i])),
				slog.Duration("elapsed", time.Since(start)))
		}(i, rule)
	}
	wg.Wait()

	var issues []report.Issue
	for _, r := range results {
		issues = append(issues, r...)
	}

	metric, notes := coverageSummary(in)
	return issues, metric, notes, nil
}

// coverageSummary computes the coverage metric and informational notes.
// Coverage counts functional requirements only; user stories are
// traceability waypoints, not coverage targets.
func coverageSummary(in *Input) (report.CoverageMetric, []string) {
	covered := coveredRequirements(in)

	total := 0
	coveredCount := 0
	for _, r := range in.Entities.Requirements {
		if r.IsStory() {
			continue
		}
		total++
		if covered[r.ID] {
			coveredCount++
		}
	}

	mapped := 0
	for _, t := range in.Entities.Tasks {
		if in.Graph.IsMapped(t.ID) {
			mapped++
		}
	}

	metric := report.NewCoverageMetric(total, coveredCount, len(in.Entities.Tasks), mapped)

	var notes []string
	if total == 0 {
		notes = append(notes, "no requirements found; coverage is vacuously 100%")
	}
	return metric, notes
}

// coveredRequirements returns the requirement ids reachable from any task
// via satisfies edges.
func coveredRequirements(in *Input) map[string]bool {
	taskIDs := make([]string, 0, len(in.Entities.Tasks))
	for _, t := range in.Entities.Tasks {
		taskIDs = append(taskIDs, t.ID)
	}
	return in.Graph.Reachable(taskIDs)
}
