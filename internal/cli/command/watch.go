package command

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/mcellckpt-go/internal/infra/fswatch"
	"github.com/yndnr/mcellckpt-go/internal/infra/shutdown"
	"github.com/yndnr/mcellckpt-go/internal/storage/catalog"
	"github.com/yndnr/mcellckpt-go/internal/storage/checkpoint"
)

// WatchCommand returns the watch command.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Inspect and catalog checkpoint files as they appear",
		ArgsUsage: "[DIR]",
		Action:    watch,
	}
}

func watch(c *cli.Context) error {
	e := envFrom(c)
	dir := e.cfg.Checkpoint.Dir
	if c.NArg() > 0 {
		dir = c.Args().First()
		e.cfg.Checkpoint.Dir = dir
	}
	s, err := e.openStore()
	if err != nil {
		return err
	}

	fw, err := fswatch.New(
		fswatch.WithLogger(e.log.Slog()),
		fswatch.WithExtension(checkpoint.FileExtension),
	)
	if err != nil {
		s.Close()
		return err
	}
	h := shutdown.NewHandler(shutdownTimeout)
	h.OnShutdown(func(context.Context) error { return s.Close() })
	h.OnShutdown(func(context.Context) error { return fw.Stop() })

	found := make(chan string, 64)
	fw.OnChange(func(path string) {
		select {
		case found <- path:
		default:
			e.log.Warn("dropping file event, consumer is behind", "path", path)
		}
	})
	if err := fw.Watch(dir); err != nil {
		_ = h.Shutdown()
		return err
	}
	fw.StartAsync()
	e.log.Info("watching for checkpoints", "dir", dir)

	ctx, stop := shutdown.Notify(c.Context)
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return h.Shutdown()
		case path := <-found:
			sum, err := checkpoint.InspectFile(path, checkpoint.Options{})
			if err != nil {
				e.log.Warn("unreadable checkpoint", "path", path, "error", err)
				continue
			}
			if s.cat != nil {
				if err := s.cat.Put(ctx, recordFor(path, sum)); err != nil {
					e.log.Warn("catalog update failed", "path", path, "error", err)
				}
			}
			if err := render(c, sum); err != nil {
				_ = h.Shutdown()
				return err
			}
		}
	}
}

func recordFor(path string, sum *checkpoint.Summary) *catalog.Record {
	return &catalog.Record{
		ID:        ulid.Make().String(),
		Seq:       sum.Seq,
		Iteration: sum.Iteration,
		SimTime:   sum.Time,
		Path:      path,
		Size:      sum.Size,
		Digest:    sum.Digest,
		Molecules: int(sum.Molecules),
		Complexes: sum.Complexes,
		CreatedAt: time.Now().UnixMilli(),
	}
}
