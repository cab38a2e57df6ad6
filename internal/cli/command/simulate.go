package command

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/mcellckpt-go/internal/cli/output"
	"github.com/yndnr/mcellckpt-go/internal/config"
	"github.com/yndnr/mcellckpt-go/internal/core/domain"
	"github.com/yndnr/mcellckpt-go/internal/infra/shutdown"
	"github.com/yndnr/mcellckpt-go/internal/sim"
	"github.com/yndnr/mcellckpt-go/internal/telemetry/logger"
	"github.com/yndnr/mcellckpt-go/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

// SimulateCommand returns the simulate command.
func SimulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "Run the configured model, resuming from the newest checkpoint",
		Description: "Checkpoints are written every simulation.checkpoint_every iterations " +
			"and once more when the run ends or is interrupted.",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:    "iterations",
				Aliases: []string{"n"},
				Usage:   "Iterations to run (overrides simulation.iterations)",
			},
			&cli.BoolFlag{
				Name:  "fresh",
				Usage: "Ignore existing checkpoints and start from the initial population",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Draw a progress bar on stderr",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address (overrides metrics.addr)",
			},
		},
		Action: simulate,
	}
}

// runSummary is printed when a run ends.
type runSummary struct {
	RunID       string  `json:"run_id" yaml:"run_id"`
	Resumed     bool    `json:"resumed" yaml:"resumed"`
	ResumedFrom string  `json:"resumed_from,omitempty" yaml:"resumed_from,omitempty"`
	Dropped     int     `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	Iteration   uint64  `json:"iteration" yaml:"iteration"`
	Time        float64 `json:"time" yaml:"time"`
	Molecules   int     `json:"molecules" yaml:"molecules"`
	Checkpoints int     `json:"checkpoints" yaml:"checkpoints"`
	Last        string  `json:"last_checkpoint,omitempty" yaml:"last_checkpoint,omitempty"`
	Interrupted bool    `json:"interrupted" yaml:"interrupted"`
}

func simulate(c *cli.Context) error {
	e := envFrom(c)
	cfg := e.cfg
	iterations := cfg.Simulation.Iterations
	if c.IsSet("iterations") {
		iterations = c.Uint64("iterations")
	}
	addr := cfg.Metrics.Addr
	if c.IsSet("metrics-addr") {
		addr = c.String("metrics-addr")
	}

	ctx, stop := shutdown.Notify(c.Context)
	defer stop()
	runID := ulid.Make().String()
	ctx = logger.WithRunID(logger.WithLogger(ctx, e.log), runID)
	log := logger.L(ctx)

	s, err := e.openStore()
	if err != nil {
		return err
	}
	h := shutdown.NewHandler(shutdownTimeout)
	h.OnShutdown(func(context.Context) error { return s.Close() })

	sum := &runSummary{RunID: runID}
	w, err := startWorld(ctx, c.Bool("fresh"), e, s, sum, log)
	if err != nil {
		_ = h.Shutdown()
		return err
	}

	// mu guards w against the metrics scrape goroutine.
	var mu sync.Mutex
	e.metrics.MustRegister(metric.NewCollector(func() metric.WorldSample {
		mu.Lock()
		defer mu.Unlock()
		return sample(w)
	}))
	if addr != "" {
		srv := &http.Server{Addr: addr, Handler: e.metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "addr", addr, "error", err)
			}
		}()
		h.OnShutdown(srv.Shutdown)
		log.Info("serving metrics", "addr", addr)
	}

	saved := sum.Resumed
	lastSaved := w.Iteration
	save := func(ctx context.Context) error {
		info, _, err := s.mgr.Save(ctx, w)
		if err != nil {
			return err
		}
		sum.Checkpoints++
		sum.Last = info.Path
		saved, lastSaved = true, w.Iteration
		if _, err := s.mgr.Prune(ctx); err != nil {
			log.Warn("prune failed", "error", err)
		}
		return nil
	}
	// Registered last so it runs before the catalog closes.
	h.OnShutdown(func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		if saved && lastSaved == w.Iteration {
			return nil
		}
		return save(ctx)
	})

	runErr := run(ctx, c, e, w, iterations, &mu, save)
	sum.Interrupted = ctx.Err() != nil
	if sum.Interrupted {
		log.Warn("run interrupted, writing final checkpoint", "iteration", w.Iteration)
	}
	if err := h.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return runErr
	}

	sum.Iteration = w.Iteration
	sum.Time = w.Time
	sum.Molecules = w.PendingCount()
	log.Info("run finished", "iteration", w.Iteration, "checkpoints", sum.Checkpoints)
	return render(c, sum)
}

// startWorld restores the newest checkpoint, or builds and populates a
// new world when there is none (or fresh is set).
func startWorld(ctx context.Context, fresh bool, e *env, s *store, sum *runSummary, log logger.Logger) (*sim.World, error) {
	if !fresh {
		w, info, stats, err := s.mgr.LoadLatest(ctx, config.Builder(e.cfg))
		switch {
		case err == nil:
			sum.Resumed = true
			sum.ResumedFrom = info.Path
			sum.Dropped = stats.Dropped
			log.Info("resuming run", "path", info.Path, "iteration", w.Iteration, "time", w.Time)
			return w, nil
		case !errors.Is(err, domain.ErrNoCheckpoint):
			return nil, err
		}
	}

	w, err := config.BuildWorld(e.cfg)
	if err != nil {
		return nil, err
	}
	n, err := config.Populate(w, e.cfg.Model)
	if err != nil {
		return nil, err
	}
	// Never reuse the sequence number of a file already on disk.
	infos, err := s.mgr.List()
	if err != nil {
		return nil, err
	}
	if len(infos) > 0 {
		w.CheckpointSeq = infos[len(infos)-1].Seq + 1
	}
	log.Info("starting new run", "molecules", n, "seed", w.RNG.Seed(), "rng", w.RNG.Family().String())
	return w, nil
}

func run(ctx context.Context, c *cli.Context, e *env, w *sim.World, iterations uint64,
	mu *sync.Mutex, save func(context.Context) error) error {
	log := logger.L(ctx)
	every := e.cfg.Simulation.CheckpointEvery
	start, target := w.Iteration, w.Iteration+iterations

	progress := rate.Sometimes{Interval: e.cfg.Simulation.ProgressInterval}
	var (
		bar  *output.ProgressBar
		tick = rate.Sometimes{Interval: 100 * time.Millisecond}
	)
	if c.Bool("progress") {
		bar = output.NewProgressBar(c.App.ErrWriter, "iterations", iterations)
		defer bar.Finish()
	}

	for w.Iteration < target && ctx.Err() == nil {
		mu.Lock()
		events := w.Step()
		var err error
		if every > 0 && w.Iteration%every == 0 {
			err = save(ctx)
		}
		mu.Unlock()
		if err != nil {
			if ctx.Err() != nil {
				// Interrupted mid-save; the shutdown hook retries.
				break
			}
			return err
		}

		e.metrics.AddIterations(1)
		progress.Do(func() {
			log.Info("simulation progress",
				"iteration", w.Iteration,
				"time", w.Time,
				"events", events,
				"pending", w.PendingCount(),
			)
		})
		if bar != nil {
			tick.Do(func() { bar.Set(w.Iteration - start) })
		}
	}
	if bar != nil {
		bar.Set(w.Iteration - start)
	}
	return nil
}

func sample(w *sim.World) metric.WorldSample {
	pop := make(map[string]int64, w.Species.Len())
	for _, s := range w.Species.All() {
		pop[s.Name] = s.Population
	}
	return metric.WorldSample{
		Time:       w.Time,
		Iteration:  w.Iteration,
		Pending:    w.PendingCount(),
		Complexes:  w.Complexes.Len(),
		Population: pop,
	}
}
