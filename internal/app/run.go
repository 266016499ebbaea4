package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/runwire"
	"github.com/vk/runwire/internal/ctxlog"
	"github.com/vk/runwire/manifest"
)

// Run executes the selected pipeline based on the provided configuration.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	doc, err := a.selectDocument(cfg.Pipeline)
	if err != nil {
		return err
	}

	runner, seeds, err := manifest.Build(a.registry, doc, runwire.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	// Command-line vars land after the document's own, so they win.
	names := make([]string, 0, len(cfg.Vars))
	for name := range cfg.Vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		seeds = append(seeds, runwire.Supply(runwire.Marker(name), cfg.Vars[name]))
	}

	if cfg.PlanOnly {
		runwire.RenderPlan(a.outW, runner.Plan())
		return nil
	}

	a.logger.Info("Starting pipeline run.", "pipeline", doc.Name, "callables", runner.Len())
	if err := runner.Call(ctx, seeds...); err != nil {
		return fmt.Errorf("pipeline %s failed: %w", doc.Name, err)
	}
	a.logger.Info("Pipeline run finished.", "pipeline", doc.Name)

	a.logger.Debug("App.Run method finished.")
	return nil
}
