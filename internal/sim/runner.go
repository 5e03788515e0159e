package sim

import (
	"context"
	"fmt"
	"io"
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MJE43/gamesim/internal/engine"
	"github.com/MJE43/gamesim/internal/games"
	"github.com/MJE43/gamesim/internal/stats"
)

// EngineVersion identifies the simulation rules in reports and responses.
const EngineVersion = "gamesim-1.0.0"

// ProgressInterval is how many completed trials separate progress callbacks.
const ProgressInterval = 100

// jobSize is the number of consecutive trials handed to a worker at once.
const jobSize = 256

// Request describes one simulation batch.
type Request struct {
	Game   games.Game
	Trials int
	// Seed is the master seed. A nil seed draws a fresh one, which is
	// reported on the batch so the run can be replayed.
	Seed *int64
	// Source selects the random source kind; empty means engine.SourcePCG.
	Source string
	// Workers overrides the runner's worker count when positive.
	Workers int
}

// Batch holds every outcome of a completed simulation.
type Batch struct {
	RunID    uuid.UUID
	Game     games.GameSpec
	Trials   int
	Seed     int64
	Source   string
	Workers  int
	Duration time.Duration

	// Outcomes and every Series slice are in trial order.
	Outcomes    []games.Outcome
	Series      map[string][]float64
	MetricOrder []string
}

// MetricSummary is the reduced statistics of one metric.
type MetricSummary struct {
	Metric string `json:"metric"`
	stats.Summary
}

// Summaries reduces every metric series, in MetricOrder.
func (b *Batch) Summaries(percentiles ...float64) ([]MetricSummary, error) {
	out := make([]MetricSummary, 0, len(b.MetricOrder))
	for _, name := range b.MetricOrder {
		s, err := stats.Summarize(b.Series[name], percentiles...)
		if err != nil {
			return nil, fmt.Errorf("summarize %s: %w", name, err)
		}
		out = append(out, MetricSummary{Metric: name, Summary: s})
	}
	return out, nil
}

// Runner executes simulation batches on a pool of workers.
type Runner struct {
	workers  int
	logger   *log.Logger
	progress func(done, total int)
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the default worker count.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger for batch lifecycle lines.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithProgress registers fn to be called every ProgressInterval completed
// trials. fn is called from worker goroutines and must be safe for
// concurrent use.
func WithProgress(fn func(done, total int)) Option {
	return func(r *Runner) { r.progress = fn }
}

// NewRunner creates a runner with one worker per available CPU.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		workers: runtime.GOMAXPROCS(0),
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// tracer is implemented by games that log their play.
type tracer interface {
	Traced() bool
}

type job struct {
	start, end int
}

// Run plays req.Trials independent trials and collects their outcomes. Trial
// i draws from a source derived from the master seed, the game id and i, so a
// batch is identical for any worker count. Any trial error or context
// cancellation aborts the batch.
func (r *Runner) Run(ctx context.Context, req Request) (*Batch, error) {
	if req.Game == nil {
		return nil, ErrNoGame
	}
	if req.Trials <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNoTrials, req.Trials)
	}
	kind := req.Source
	if kind == "" {
		kind = engine.SourcePCG
	}
	spec := req.Game.Spec()

	// fail fast on an unknown source kind before starting workers
	if _, err := engine.NewTrialSource(kind, 0, spec.ID, 0); err != nil {
		return nil, err
	}

	var seed int64
	if req.Seed != nil {
		seed = *req.Seed
	} else {
		var err error
		if seed, err = engine.NewSeed(); err != nil {
			return nil, err
		}
	}

	workers := req.Workers
	if workers <= 0 {
		workers = r.workers
	}
	if t, ok := req.Game.(tracer); ok && t.Traced() {
		workers = 1
	}
	workers = min(workers, req.Trials)

	batch := &Batch{
		RunID:   uuid.New(),
		Game:    spec,
		Trials:  req.Trials,
		Seed:    seed,
		Source:  kind,
		Workers: workers,
	}
	r.logger.Printf("batch_start run_id=%s game=%s trials=%d workers=%d rng=%s seed=%d",
		batch.RunID, spec.ID, req.Trials, workers, kind, seed)
	start := time.Now()

	outcomes := make([]games.Outcome, req.Trials)
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan job, workers*2)

	g.Go(func() error {
		defer close(jobs)
		for s := 0; s < req.Trials; s += jobSize {
			select {
			case jobs <- job{start: s, end: min(s+jobSize, req.Trials)}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var completed atomic.Int64
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for j := range jobs {
				for i := j.start; i < j.end; i++ {
					if err := gctx.Err(); err != nil {
						return err
					}
					outcome, err := runOne(gctx, req.Game, kind, seed, spec.ID, i)
					if err != nil {
						return fmt.Errorf("trial %d: %w", i, err)
					}
					outcomes[i] = outcome
					if n := completed.Add(1); r.progress != nil && n%ProgressInterval == 0 {
						r.progress(int(n), req.Trials)
					}
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.logger.Printf("batch_failed run_id=%s game=%s completed=%d error=%q",
			batch.RunID, spec.ID, completed.Load(), err)
		return nil, err
	}

	batch.Outcomes = outcomes
	batch.Series, batch.MetricOrder = fold(spec.Metrics, outcomes)
	batch.Duration = time.Since(start)
	r.logger.Printf("batch_completed run_id=%s game=%s trials=%d duration=%v",
		batch.RunID, spec.ID, req.Trials, batch.Duration)
	return batch, nil
}

func runOne(ctx context.Context, game games.Game, kind string, seed int64, stream string, index int) (games.Outcome, error) {
	src, err := engine.NewTrialSource(kind, seed, stream, uint64(index))
	if err != nil {
		return nil, err
	}
	trial, err := game.NewTrial(src)
	if err != nil {
		return nil, err
	}
	return games.RunTrialContext(ctx, trial)
}

// fold transposes outcomes into one series per metric. Metrics the game
// declares come first, in declaration order.
func fold(declared []string, outcomes []games.Outcome) (map[string][]float64, []string) {
	series := make(map[string][]float64, len(declared))
	order := make([]string, 0, len(declared))
	for _, name := range declared {
		series[name] = make([]float64, 0, len(outcomes))
		order = append(order, name)
	}
	for _, o := range outcomes {
		for _, m := range o.Metrics() {
			if _, ok := series[m.Name]; !ok {
				order = append(order, m.Name)
			}
			series[m.Name] = append(series[m.Name], m.Value)
		}
	}
	return series, order
}
