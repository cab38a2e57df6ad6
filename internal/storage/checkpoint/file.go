package checkpoint

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/mcellckpt-go/internal/core/domain"
	"github.com/yndnr/mcellckpt-go/internal/sim"
)

// WriteFile encodes w to path. The data goes to a uniquely named temporary
// file in the same directory, which is synced and renamed over path only
// after encoding succeeds, so a crash never leaves a truncated checkpoint
// under the final name.
func WriteFile(path string, w *sim.World, opts Options) (*Stats, error) {
	return writeFile(path, w, opts, nil)
}

// writeFile is WriteFile with an extra sink that sees every byte written.
func writeFile(path string, w *sim.World, opts Options, tee io.Writer) (stats *Stats, err error) {
	tmp := path + "." + ulid.Make().String() + tempSuffix
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return nil, domain.ErrIO.WithDetails("create " + tmp).WithCause(err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	var out io.Writer = f
	if tee != nil {
		out = io.MultiWriter(f, tee)
	}
	if stats, err = Encode(out, w, opts); err != nil {
		return nil, err
	}
	if err = f.Sync(); err != nil {
		return nil, domain.ErrIO.WithDetails("sync " + tmp).WithCause(err)
	}
	if err = f.Close(); err != nil {
		return nil, domain.ErrIO.WithDetails("close " + tmp).WithCause(err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return nil, domain.ErrIO.WithDetails("rename " + tmp).WithCause(err)
	}
	syncDir(filepath.Dir(path))

	if opts.Metrics != nil {
		opts.Metrics.SetCheckpointBytes(stats.Bytes)
	}
	return stats, nil
}

// syncDir makes the rename durable where the platform allows it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	d.Close()
}

// ReadFile decodes the checkpoint at path onto w. A missing file yields
// domain.ErrNoCheckpoint.
func ReadFile(path string, w *sim.World, opts Options) (*Stats, error) {
	f, err := openCheckpoint(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, w, opts)
}

func openCheckpoint(path string) (*os.File, error) {
	f, err := os.Open(path)
	switch {
	case err == nil:
		return f, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, domain.ErrNoCheckpoint.WithDetails(path).WithCause(err)
	default:
		return nil, domain.ErrIO.WithDetails("open " + path).WithCause(err)
	}
}
