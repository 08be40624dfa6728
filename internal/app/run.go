package app

import (
	"context"
	"fmt"

	"github.com/zhangsongtt/rlop/internal/ctxlog"
	"github.com/zhangsongtt/rlop/internal/experiment"
)

// Run executes every loaded experiment in order. Repetitions within one
// experiment run concurrently across the configured worker pool.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.MonitorPort > 0 {
		a.startMonitorServer(a.config.MonitorPort)
		defer a.closeMonitorServer(ctx)
	}

	for _, e := range a.model.Experiments {
		runner := &experiment.Runner{
			Experiment: e,
			Registry:   a.registry,
			Tracker:    a.trackers[e.Name],
			Workers:    a.config.Workers,
			SummaryW:   a.outW,
		}
		if err := runner.Run(ctx); err != nil {
			return fmt.Errorf("experiment %q: %w", e.Name, err)
		}
	}
	a.logger.Info("All experiments finished.", "count", len(a.model.Experiments))
	return nil
}
