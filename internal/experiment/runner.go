// Package experiment drives batches of independent training runs: for each
// repetition it builds a vectorized environment and a fresh agent, times the
// training, evaluates the trained policy and records the results to the
// experiment's sinks.
package experiment

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/logrusorgru/aurora"

	"github.com/zhangsongtt/rlop/internal/config"
	"github.com/zhangsongtt/rlop/internal/ctxlog"
	"github.com/zhangsongtt/rlop/internal/env/vecenv"
	"github.com/zhangsongtt/rlop/internal/evalpolicy"
	"github.com/zhangsongtt/rlop/internal/ppo"
	"github.com/zhangsongtt/rlop/internal/registry"
	"github.com/zhangsongtt/rlop/internal/results"
)

// Evaluation episodes draw seeds far away from the training streams.
const evalSeedOffset = 1 << 20

// Runner executes every repetition of one experiment across a bounded
// worker pool.
type Runner struct {
	Experiment *config.Experiment
	Registry   *registry.Registry
	Tracker    *Tracker
	Workers    int
	SummaryW   io.Writer
}

// Run dispatches all repetitions and blocks until they finish or the
// context is canceled. The first run error cancels the remaining runs.
func (r *Runner) Run(ctx context.Context) error {
	e := r.Experiment
	logger := ctxlog.FromContext(ctx).With("experiment", e.Name)

	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	evalWriter, err := results.NewEvalWriter(r.outPath("_eval.txt"))
	if err != nil {
		return err
	}
	store, err := results.OpenStore(r.outPath("_runs.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > e.Repetitions {
		workers = e.Repetitions
	}
	logger.Info("🚀 Starting experiment runs.",
		"repetitions", e.Repetitions, "workers", workers,
		"env", e.EnvID, "algo", e.AlgoID, "total_timesteps", e.TotalTimesteps)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	curves := make([]results.Curve, e.Repetitions)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(workerID int) {
			defer wg.Done()
			for i := range jobs {
				if runCtx.Err() != nil {
					continue
				}
				curve, err := r.runOne(runCtx, i, evalWriter, store)
				if err != nil {
					r.Tracker.Fail(i, err)
					if runCtx.Err() == nil {
						logger.Error("Run failed.", "run", i, "workerID", workerID, "error", err)
					}
					fail(fmt.Errorf("run %d: %w", i, err))
					continue
				}
				curves[i] = curve
			}
		}(w)
	}

	for i := 0; i < e.Repetitions; i++ {
		select {
		case jobs <- i:
		case <-runCtx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	reportPath := r.outPath("_report.html")
	if err := results.RenderReport(reportPath, e.Name, curves); err != nil {
		return err
	}
	logger.Info("🏁 Experiment finished.", "report", reportPath)
	return nil
}

// runOne executes a single repetition end to end.
func (r *Runner) runOne(ctx context.Context, i int, evalWriter *results.EvalWriter, store *results.Store) (results.Curve, error) {
	e := r.Experiment
	seed := e.SeedBase + int64(i)
	runID := uuid.NewString()
	logger := ctxlog.FromContext(ctx).With("experiment", e.Name, "run", i, "seed", seed)
	r.Tracker.Start(i, runID)

	maker, err := r.Registry.Env(e.EnvID)
	if err != nil {
		return results.Curve{}, err
	}
	factory, err := r.Registry.Algo(e.AlgoID)
	if err != nil {
		return results.Curve{}, err
	}

	venv := vecenv.New(maker, e.NumEnvs)
	agent := factory(e, venv, seed)

	trainLog, err := results.NewTrainLog(r.outPath(fmt.Sprintf("_%d_log.txt", i)),
		"episode_return_mean", "policy_loss", "value_loss", "entropy", "approx_kl")
	if err != nil {
		return results.Curve{}, err
	}
	defer trainLog.Close()

	curve := results.Curve{Label: fmt.Sprintf("run %d", i)}
	monitor := func(stats ppo.IterationStats) {
		r.Tracker.Progress(i, stats.Timesteps)
		returnMean := math.NaN()
		if len(stats.EpisodeReturns) > 0 {
			sum := 0.0
			for _, v := range stats.EpisodeReturns {
				sum += v
			}
			returnMean = sum / float64(len(stats.EpisodeReturns))
			curve.Points = append(curve.Points, results.CurvePoint{
				Timesteps:    stats.Timesteps,
				ReturnMean:   returnMean,
				EpisodeCount: stats.Episodes,
			})
		}
		if err := trainLog.Append(stats.Timesteps, returnMean, stats.PolicyLoss, stats.ValueLoss, stats.Entropy, stats.ApproxKL); err != nil {
			logger.Warn("Failed to append training log row.", "error", err)
		}
	}

	logger.Info("Training started.")
	startedAt := time.Now()
	if err := agent.Learn(ctx, e.TotalTimesteps, monitor); err != nil {
		return results.Curve{}, fmt.Errorf("training: %w", err)
	}
	duration := time.Since(startedAt)

	evalEnv := maker()
	mean, std, err := evalpolicy.Evaluate(ctx, agent, evalEnv, e.EvalEpisodes, seed+evalSeedOffset)
	if err != nil {
		return results.Curve{}, fmt.Errorf("evaluation: %w", err)
	}

	if err := evalWriter.Append(mean, std, duration.Seconds()); err != nil {
		return results.Curve{}, err
	}
	if err := store.InsertRun(ctx, results.Run{
		ID:         runID,
		Experiment: e.Name,
		Seed:       seed,
		MeanReward: mean,
		StdReward:  std,
		Duration:   duration,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(duration),
	}); err != nil {
		return results.Curve{}, err
	}

	r.Tracker.Finish(i, mean, std, duration)
	logger.Info("Run finished.", "mean_reward", mean, "std_reward", std, "duration", duration)
	if r.SummaryW != nil {
		fmt.Fprintf(r.SummaryW, "%s run %2d  mean=%s std=%s  (%s)\n",
			aurora.Green("✔"), i,
			aurora.Cyan(fmt.Sprintf("%.2f", mean)),
			aurora.Yellow(fmt.Sprintf("%.2f", std)),
			duration.Round(time.Millisecond))
	}
	return curve, nil
}

// outPath joins the experiment's output directory, its name and a suffix,
// e.g. data/ppo/lunar_lander_eval.txt.
func (r *Runner) outPath(suffix string) string {
	return filepath.Join(r.Experiment.OutputDir, r.Experiment.Name+suffix)
}
