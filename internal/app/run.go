package app

import (
	"context"
	"fmt"
	"io"

	"github.com/vk/grana/internal/config"
	"github.com/vk/grana/internal/ctxlog"
	"github.com/vk/grana/internal/display"
	"github.com/vk/grana/internal/engine"
	"github.com/vk/grana/internal/graph"
	"github.com/vk/grana/internal/strategy"
)

// Run loads the workflow and executes it to completion.
func (a *App) Run(ctx context.Context, stdin io.Reader) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	workflow, err := a.loadWorkflow(ctx, stdin)
	if err != nil {
		return err
	}
	g, err := a.buildGraph(workflow)
	if err != nil {
		return err
	}
	a.logger.Debug("dependency graph built", "actions", g.Len())

	// A strategy declared by the workflow itself wins over the global one.
	strategyName := workflow.Strategy
	if strategyName == "" {
		strategyName = a.config.Strategy
	}
	if strategyName == "" {
		strategyName = config.DefaultStrategy
	}
	strat, err := strategy.New(strategyName, g)
	if err != nil {
		return err
	}
	a.logger.Debug("strategy selected", "name", strategyName)

	if a.config.ForceColor {
		display.ForceColor()
	}
	displayName := a.config.Display
	if displayName == "" {
		displayName = config.DefaultDisplay
	}
	order := bannerOrder(g)
	disp, err := display.New(displayName, a.outW, order)
	if err != nil {
		return err
	}

	eng, err := engine.New(g, strat, a.registry, engine.Options{
		StrictRender:     a.config.StrictOutcomes,
		ConcurrencyLimit: a.config.Workers,
		Context:          workflow.Context,
	}, disp)
	if err != nil {
		return err
	}

	if a.config.Interactive {
		if err := a.applyPlanSelection(ctx, g, eng); err != nil {
			return err
		}
	}

	result, err := eng.Run(ctx)
	if err != nil {
		return err
	}
	disp.Banner(result.States)
	a.logger.Info("run finished", "run_id", result.RunID, "verdict", result.Verdict,
		"elapsed", result.FinishedAt.Sub(result.StartedAt))

	switch result.Verdict {
	case engine.VerdictCancelled:
		return ErrCancelled
	case engine.VerdictFailure:
		return ErrExecutionFailed
	}
	return nil
}

// Validate loads the workflow and checks its structure without running
// anything.
func (a *App) Validate(ctx context.Context, stdin io.Reader) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	workflow, err := a.loadWorkflow(ctx, stdin)
	if err != nil {
		return err
	}
	g, err := a.buildGraph(workflow)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.outW, "Located actions number: %d\n", g.Len())
	return nil
}

// applyPlanSelection asks the user which selectable actions to keep and
// omits the rest.
func (a *App) applyPlanSelection(ctx context.Context, g *graph.Graph, eng *engine.Engine) error {
	var selectable []string
	for _, name := range bannerOrder(g) {
		if act, ok := g.Get(name); ok && act.Selectable {
			selectable = append(selectable, name)
		}
	}
	selected, err := display.SelectActions(selectable)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Warn("interactively selected actions", "names", selected)
	kept := make(map[string]bool, len(selected))
	for _, name := range selected {
		kept[name] = true
	}
	var omitted []string
	for _, name := range selectable {
		if !kept[name] {
			omitted = append(omitted, name)
		}
	}
	return eng.Omit(omitted)
}

// bannerOrder flattens the tier layout into a display order.
func bannerOrder(g *graph.Graph) []string {
	var order []string
	for _, tier := range g.Tiers() {
		order = append(order, tier...)
	}
	return order
}
