// Package gate wires the analysis pipeline (load → extract → graph →
// analyze → report) and exposes it through the CLI, a NATS service, and a
// file watcher. Every trigger constructs a fresh run; no state is shared
// between runs.
package gate

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360studio/specgate/analyzer"
	"github.com/c360studio/specgate/artifact"
	"github.com/c360studio/specgate/config"
	"github.com/c360studio/specgate/refgraph"
	"github.com/c360studio/specgate/report"
)

// Runner executes one full analysis over an artifact directory.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewRunner creates a runner with the given configuration.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg, logger: logger}
}

// Run loads the four artifacts from dir, extracts entities, builds the
// cross-reference graph, applies the rule set, and assembles the report.
// The only fatal error is a *artifact.ParseError (or an I/O failure before
// parsing); every analysis finding lands in the report instead.
func (r *Runner) Run(ctx context.Context, dir string) (*report.Report, error) {
	start := time.Now()

	loader := artifact.NewLoader(map[artifact.Kind]string{
		artifact.KindSpecification: r.cfg.Artifacts.Specification,
		artifact.KindPlan:          r.cfg.Artifacts.Plan,
		artifact.KindTaskList:      r.cfg.Artifacts.TaskList,
		artifact.KindConstitution:  r.cfg.Artifacts.Constitution,
	}, r.logger)

	artifacts, err := loader.LoadAll(ctx, dir)
	if err != nil {
		return nil, err
	}

	entities := artifact.Extract(artifacts)
	graph := refgraph.Build(entities)

	in := &analyzer.Input{
		Artifacts: artifacts,
		Entities:  entities,
		Graph:     graph,
	}
	issues, metric, notes, err := analyzer.New(r.cfg.Rules, r.logger).Run(ctx, in)
	if err != nil {
		return nil, err
	}

	rep := report.New(issues, metric, notes, r.cfg.Rules.CoverageThreshold)

	r.logger.Info("Analysis complete",
		slog.String("dir", dir),
		slog.String("verdict", string(rep.Verdict)),
		slog.Int("issues", len(rep.Issues)),
		slog.Int("coverage", rep.Coverage.Percentage),
		slog.Duration("elapsed", time.Since(start)))

	return rep, nil
}
