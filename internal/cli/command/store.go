package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/mcellckpt-go/internal/cli/output"
	"github.com/yndnr/mcellckpt-go/internal/storage/catalog"
	"github.com/yndnr/mcellckpt-go/internal/storage/checkpoint"
)

// store bundles the checkpoint manager with the optional catalog.
type store struct {
	mgr *checkpoint.Manager
	cat *catalog.Catalog
}

func (e *env) options() checkpoint.Options {
	return checkpoint.Options{
		Logger:  e.log.Slog(),
		Metrics: e.metrics,
	}
}

// openStore opens the checkpoint directory and, when configured, the
// catalog. The caller must Close it.
func (e *env) openStore() (*store, error) {
	s := &store{}
	cc := e.cfg.Checkpoint
	if cc.CatalogDir != "" {
		cat, err := catalog.Open(catalog.Config{Dir: cc.CatalogDir}, e.log.Slog())
		if err != nil {
			return nil, err
		}
		s.cat = cat
	}
	mgr, err := checkpoint.NewManager(checkpoint.ManagerConfig{
		Dir:            cc.Dir,
		RetentionCount: cc.RetentionCount,
		RetentionDays:  cc.RetentionDays,
		Options:        e.options(),
		Catalog:        s.cat,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.mgr = mgr
	return s, nil
}

func (s *store) Close() error {
	if s.cat == nil {
		return nil
	}
	return s.cat.Close()
}

// render writes data in the format chosen by the global flags.
func render(c *cli.Context, data any) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	return output.NewFormatter(format, c.Bool("wide")).Format(c.App.Writer, data)
}

// firstArg returns the single positional argument or a usage error.
func firstArg(c *cli.Context, what string) (string, error) {
	if c.NArg() != 1 {
		return "", cli.Exit("expected exactly one "+what+" argument", 2)
	}
	return c.Args().First(), nil
}
