package command

import (
	"github.com/urfave/cli/v2"
)

// ListCommand returns the list command.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List checkpoints, from the catalog when one is configured",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "files",
				Usage: "List the checkpoint directory even when a catalog is configured",
			},
		},
		Action: list,
	}
}

func list(c *cli.Context) error {
	s, err := envFrom(c).openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if s.cat != nil && !c.Bool("files") {
		recs, err := s.cat.List(c.Context)
		if err != nil {
			return err
		}
		return render(c, recs)
	}
	infos, err := s.mgr.List()
	if err != nil {
		return err
	}
	return render(c, infos)
}

// PruneCommand returns the prune command.
func PruneCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "Delete checkpoints outside the retention policy",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "keep",
				Usage: "Keep this many newest checkpoints (overrides checkpoint.retention_count)",
			},
			&cli.IntFlag{
				Name:  "days",
				Usage: "Also keep checkpoints newer than this many days; negative disables",
			},
		},
		Action: prune,
	}
}

type pruneResult struct {
	Removed   int `json:"removed" yaml:"removed"`
	Remaining int `json:"remaining" yaml:"remaining"`
	GCRuns    int `json:"catalog_gc_runs" yaml:"catalog_gc_runs"`
}

func prune(c *cli.Context) error {
	e := envFrom(c)
	if c.IsSet("keep") {
		e.cfg.Checkpoint.RetentionCount = c.Int("keep")
	}
	if c.IsSet("days") {
		e.cfg.Checkpoint.RetentionDays = c.Int("days")
	}
	if e.cfg.Checkpoint.RetentionCount < 1 {
		return cli.Exit("--keep must be at least 1", 2)
	}
	s, err := e.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	res := &pruneResult{}
	if res.Removed, err = s.mgr.Prune(c.Context); err != nil {
		return err
	}
	if s.cat != nil {
		if res.GCRuns, err = s.cat.GC(c.Context); err != nil {
			return err
		}
	}
	infos, err := s.mgr.List()
	if err != nil {
		return err
	}
	res.Remaining = len(infos)
	return render(c, res)
}
