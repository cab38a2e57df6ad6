package checkpoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spaolacci/murmur3"

	"github.com/yndnr/mcellckpt-go/internal/core/domain"
	"github.com/yndnr/mcellckpt-go/internal/sim"
	"github.com/yndnr/mcellckpt-go/internal/storage/catalog"
)

// FileExtension is the suffix of checkpoint files in a managed directory.
const FileExtension = ".chkpt"

const (
	filePrefix = "checkpoint-"
	tempSuffix = ".tmp"

	DefaultRetentionCount = 5
	DefaultRetentionDays  = 7

	// staleTempAge is how old an orphaned temporary file must be before
	// Prune removes it.
	staleTempAge = time.Hour
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Dir string

	RetentionCount int
	RetentionDays  int

	Options Options

	// Catalog is optional. When set, every saved checkpoint is recorded
	// and pruned files are removed from it.
	Catalog *catalog.Catalog
}

// DefaultManagerConfig returns a config with default retention.
func DefaultManagerConfig(dir string) ManagerConfig {
	return ManagerConfig{
		Dir:            dir,
		RetentionCount: DefaultRetentionCount,
		RetentionDays:  DefaultRetentionDays,
	}
}

// Manager stores numbered checkpoint files in one directory.
type Manager struct {
	cfg ManagerConfig
	log *slog.Logger
}

// NewManager creates the checkpoint directory if needed.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, domain.ErrInvalidArgument.WithDetails("checkpoint dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, domain.ErrIO.WithDetails("create dir " + cfg.Dir).WithCause(err)
	}
	if cfg.RetentionCount == 0 {
		cfg.RetentionCount = DefaultRetentionCount
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = DefaultRetentionDays
	}
	cfg.Options = cfg.Options.withDefaults()
	return &Manager{cfg: cfg, log: cfg.Options.Logger}, nil
}

// Info contains metadata about a checkpoint file.
type Info struct {
	Seq     uint32    `json:"seq" yaml:"seq"`
	Path    string    `json:"path" yaml:"path"`
	Size    int64     `json:"size" yaml:"size" table:"bytes"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
	Digest  string    `json:"digest,omitempty" yaml:"digest,omitempty" table:"wide"`
}

// Dir returns the checkpoint directory.
func (m *Manager) Dir() string { return m.cfg.Dir }

// PathFor returns the file name used for sequence number seq.
func (m *Manager) PathFor(seq uint32) string {
	return filepath.Join(m.cfg.Dir, fmt.Sprintf("%s%08d%s", filePrefix, seq, FileExtension))
}

// Save writes w as checkpoint number w.CheckpointSeq and advances the
// world's sequence number on success.
func (m *Manager) Save(ctx context.Context, w *sim.World) (*Info, *Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	seq := w.CheckpointSeq
	path := m.PathFor(seq)

	h := murmur3.New128()
	stats, err := writeFile(path, w, m.cfg.Options, h)
	if err != nil {
		return nil, nil, err
	}
	if w.CheckpointSeq < math.MaxUint32 {
		w.CheckpointSeq++
	}

	info := &Info{
		Seq:     seq,
		Path:    path,
		Size:    stats.Bytes,
		ModTime: time.Now(),
		Digest:  hex.EncodeToString(h.Sum(nil)),
	}
	if m.cfg.Catalog != nil {
		rec := &catalog.Record{
			ID:        ulid.Make().String(),
			Seq:       seq,
			Iteration: w.Iteration,
			SimTime:   w.Time,
			Path:      path,
			Size:      stats.Bytes,
			Digest:    info.Digest,
			Molecules: stats.Molecules,
			Complexes: stats.Complexes,
			CreatedAt: info.ModTime.UnixMilli(),
		}
		if err := m.cfg.Catalog.Put(ctx, rec); err != nil {
			m.log.Warn("catalog update failed", slog.Uint64("seq", uint64(seq)), slog.String("error", err.Error()))
		}
	}

	m.log.Info("checkpoint saved",
		slog.String("path", path),
		slog.Uint64("seq", uint64(seq)),
		slog.Uint64("iteration", w.Iteration),
		slog.Int("molecules", stats.Molecules),
		slog.Int64("bytes", stats.Bytes),
	)
	return info, stats, nil
}

// LoadLatest restores the newest readable checkpoint. Every attempt gets a
// fresh world from build. Files that turn out corrupt are skipped in favor
// of older ones; any other failure stops the search.
func (m *Manager) LoadLatest(ctx context.Context, build func() (*sim.World, error)) (*sim.World, *Info, *Stats, error) {
	infos, err := m.List()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(infos) == 0 {
		return nil, nil, nil, domain.ErrNoCheckpoint.WithDetails("no checkpoints in " + m.cfg.Dir)
	}

	var lastErr error
	for i := len(infos) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return nil, nil, nil, err
		}
		info := infos[i]
		w, err := build()
		if err != nil {
			return nil, nil, nil, err
		}
		stats, err := ReadFile(info.Path, w, m.cfg.Options)
		if err == nil {
			m.log.Info("checkpoint restored",
				slog.String("path", info.Path),
				slog.Uint64("iteration", w.Iteration),
				slog.Int("molecules", stats.Molecules),
				slog.Int("dropped", stats.Dropped),
			)
			return w, info, stats, nil
		}
		if !errors.Is(err, domain.ErrDataCorrupt) {
			return nil, nil, nil, err
		}
		m.log.Warn("skipping corrupt checkpoint", slog.String("path", info.Path), slog.String("error", err.Error()))
		lastErr = err
	}
	return nil, nil, nil, lastErr
}

// List returns checkpoint files in ascending sequence order.
func (m *Manager) List() ([]*Info, error) {
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, domain.ErrIO.WithDetails("read dir " + m.cfg.Dir).WithCause(err)
	}

	var infos []*Info
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		seq, ok := parseName(e.Name())
		if !ok {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, &Info{
			Seq:     seq,
			Path:    filepath.Join(m.cfg.Dir, e.Name()),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Seq < infos[j].Seq })
	return infos, nil
}

func parseName(name string) (uint32, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, FileExtension) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), FileExtension)
	seq, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(seq), true
}

// Prune applies the retention policy and deletes old checkpoints along
// with orphaned temporary files. It returns the number of checkpoints
// removed.
func (m *Manager) Prune(ctx context.Context) (int, error) {
	m.removeStaleTemps()

	infos, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(infos) <= 1 {
		return 0, nil
	}

	keep := make(map[string]struct{}, len(infos))

	// Keep last RetentionCount.
	if m.cfg.RetentionCount > 0 {
		start := len(infos) - m.cfg.RetentionCount
		if start < 0 {
			start = 0
		}
		for _, info := range infos[start:] {
			keep[info.Path] = struct{}{}
		}
	}

	// Keep those within RetentionDays based on mtime.
	if m.cfg.RetentionDays > 0 {
		cutoff := time.Now().Add(-time.Duration(m.cfg.RetentionDays) * 24 * time.Hour)
		for _, info := range infos {
			if info.ModTime.After(cutoff) {
				keep[info.Path] = struct{}{}
			}
		}
	}

	// Always keep at least the newest.
	keep[infos[len(infos)-1].Path] = struct{}{}

	removed := 0
	for _, info := range infos {
		if _, ok := keep[info.Path]; ok {
			continue
		}
		if err := os.Remove(info.Path); err != nil {
			m.log.Warn("prune failed", slog.String("path", info.Path), slog.String("error", err.Error()))
			continue
		}
		removed++
		if m.cfg.Catalog != nil {
			if err := m.cfg.Catalog.Delete(ctx, info.Seq); err != nil {
				m.log.Warn("catalog delete failed", slog.Uint64("seq", uint64(info.Seq)), slog.String("error", err.Error()))
			}
		}
	}
	m.cfg.Options.Metrics.AddPruned(removed)
	if removed > 0 {
		m.log.Info("checkpoints pruned", slog.Int("removed", removed), slog.Int("kept", len(infos)-removed))
	}
	return removed, nil
}

func (m *Manager) removeStaleTemps() {
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-staleTempAge)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, tempSuffix) {
			continue
		}
		fi, err := e.Info()
		if err != nil || fi.ModTime().After(cutoff) {
			continue
		}
		_ = os.Remove(filepath.Join(m.cfg.Dir, name))
	}
}
