package command

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/mcellckpt-go/internal/config"
	"github.com/yndnr/mcellckpt-go/internal/core/domain"
	"github.com/yndnr/mcellckpt-go/internal/infra/buildinfo"
	"github.com/yndnr/mcellckpt-go/internal/storage/catalog"
	"github.com/yndnr/mcellckpt-go/internal/storage/checkpoint"
)

// Catalog digest check outcomes reported by verify.
const (
	catalogMatch    = "match"
	catalogMismatch = "mismatch"
	catalogAbsent   = "absent"
)

// InspectCommand returns the inspect command.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Describe checkpoint files without restoring them",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "require-version",
				Usage: "Fail unless the file was written by this version",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Require the version written by this build",
			},
		},
		Action: inspect,
	}
}

func inspect(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("expected at least one FILE argument", 2)
	}
	e := envFrom(c)
	opts := e.options()
	opts.Version = c.String("require-version")
	if c.Bool("strict") {
		opts.Version = buildinfo.CheckpointVersion()
	}

	sums := make([]*checkpoint.Summary, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		sum, err := checkpoint.InspectFile(path, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		sums = append(sums, sum)
	}
	if len(sums) == 1 {
		return render(c, sums[0])
	}
	return render(c, sums)
}

// VerifyCommand returns the verify command.
func VerifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Restore a checkpoint into the configured model and report what was kept",
		Description: "When a catalog is configured the file's digest is also checked against\n" +
			"the catalog record for its sequence number.",
		ArgsUsage: "FILE",
		Action:    verify,
	}
}

// verifyResult is the outcome of a trial restore.
type verifyResult struct {
	Path             string  `json:"path" yaml:"path"`
	Time             float64 `json:"time" yaml:"time"`
	Iteration        uint64  `json:"iteration" yaml:"iteration"`
	NextSeq          uint32  `json:"next_seq" yaml:"next_seq"`
	Bytes            int64   `json:"bytes" yaml:"bytes" table:"bytes"`
	Molecules        int     `json:"molecules" yaml:"molecules"`
	Complexes        int     `json:"complexes" yaml:"complexes"`
	Dropped          int     `json:"dropped" yaml:"dropped"`
	ComplexesDropped int     `json:"complexes_dropped" yaml:"complexes_dropped"`
	RNGReinitialized bool    `json:"rng_reinitialized" yaml:"rng_reinitialized"`
	Digest           string  `json:"digest" yaml:"digest" table:"wide"`
	Catalog          string  `json:"catalog,omitempty" yaml:"catalog,omitempty"`
}

func verify(c *cli.Context) error {
	path, err := firstArg(c, "FILE")
	if err != nil {
		return err
	}
	e := envFrom(c)
	w, err := config.BuildWorld(e.cfg)
	if err != nil {
		return err
	}
	stats, err := checkpoint.ReadFile(path, w, e.options())
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	res := &verifyResult{
		Path:             path,
		Time:             w.Time,
		Iteration:        w.Iteration,
		NextSeq:          w.CheckpointSeq,
		Bytes:            stats.Bytes,
		Molecules:        stats.Molecules,
		Complexes:        stats.Complexes,
		Dropped:          stats.Dropped,
		ComplexesDropped: stats.ComplexesDropped,
		RNGReinitialized: stats.RNGReinitialized,
	}
	if res.Digest, err = fileDigest(path); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if e.cfg.Checkpoint.CatalogDir != "" {
		if res.Catalog, err = e.checkCatalog(c, w.CheckpointSeq-1, res.Digest); err != nil {
			return err
		}
	}
	if err := render(c, res); err != nil {
		return err
	}
	if res.Catalog == catalogMismatch {
		return cli.Exit(path+": digest does not match the catalog record", 1)
	}
	return nil
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", domain.ErrIO.WithCause(err)
	}
	defer f.Close()
	return checkpoint.Digest(f)
}

// checkCatalog compares digest with the catalog record for seq.
func (e *env) checkCatalog(c *cli.Context, seq uint32, digest string) (string, error) {
	cat, err := catalog.Open(catalog.Config{Dir: e.cfg.Checkpoint.CatalogDir}, e.log.Slog())
	if err != nil {
		return "", err
	}
	defer cat.Close()

	rec, err := cat.Get(c.Context, seq)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return catalogAbsent, nil
	case err != nil:
		return "", err
	case rec.Digest != digest:
		e.log.Warn("checkpoint digest differs from catalog",
			"seq", seq, "catalog", rec.Digest, "file", digest)
		return catalogMismatch, nil
	default:
		return catalogMatch, nil
	}
}
