package catalog

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/dgraph-io/badger/v3"
)

// Common errors
var (
	ErrNotFound = errors.New("catalog: record not found")
	ErrClosed   = errors.New("catalog: closed")
)

var keyPrefix = []byte("ckpt/")

// Record describes one checkpoint file.
type Record struct {
	ID        string  `json:"id" yaml:"id" table:"wide"`
	Seq       uint32  `json:"seq" yaml:"seq"`
	Iteration uint64  `json:"iteration" yaml:"iteration"`
	SimTime   float64 `json:"sim_time" yaml:"sim_time"`
	Path      string  `json:"path" yaml:"path"`
	Size      int64   `json:"size" yaml:"size" table:"bytes"`
	Digest    string  `json:"digest" yaml:"digest" table:"wide"`
	Molecules int     `json:"molecules" yaml:"molecules"`
	Complexes int     `json:"complexes" yaml:"complexes"`
	// CreatedAt is Unix milliseconds.
	CreatedAt int64 `json:"created_at" yaml:"created_at" table:"wide"`
}

// Config configures the catalog.
type Config struct {
	// Dir holds the Badger files. Ignored when InMemory is set.
	Dir      string
	InMemory bool

	// GCDiscardRatio is passed to RunValueLogGC. Defaults to 0.5.
	GCDiscardRatio float64
}

// Catalog is a Badger-backed checkpoint index. It is safe for concurrent use.
type Catalog struct {
	db     *badger.DB
	cfg    Config
	logger *slog.Logger
	closed atomic.Bool
}

// Open opens or creates a catalog.
func Open(cfg Config, logger *slog.Logger) (*Catalog, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("catalog: dir is required")
	}
	if cfg.GCDiscardRatio <= 0 || cfg.GCDiscardRatio >= 1 {
		cfg.GCDiscardRatio = 0.5
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	return &Catalog{db: db, cfg: cfg, logger: logger}, nil
}

// ready fails once the catalog is closed or ctx is done.
func (c *Catalog) ready(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

func key(seq uint32) []byte {
	k := make([]byte, len(keyPrefix)+4)
	copy(k, keyPrefix)
	binary.BigEndian.PutUint32(k[len(keyPrefix):], seq)
	return k
}

// Put stores rec, replacing any record with the same sequence number.
func (c *Catalog) Put(ctx context.Context, rec *Record) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("catalog: marshal: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(rec.Seq), val)
	})
}

// Get returns the record for seq.
func (c *Catalog) Get(ctx context.Context, seq uint32) (*Record, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}
	var rec Record
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(seq))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes the record for seq. Deleting a missing record is not an
// error.
func (c *Catalog) Delete(ctx context.Context, seq uint32) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(seq))
	})
}

// Scan calls fn for every record in ascending sequence order until fn
// returns false.
func (c *Catalog) Scan(ctx context.Context, fn func(*Record) bool) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	return c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("catalog: decode %x: %w", it.Item().Key(), err)
			}
			if !fn(&rec) {
				break
			}
		}
		return nil
	})
}

// List returns every record in ascending sequence order.
func (c *Catalog) List(ctx context.Context) ([]*Record, error) {
	var out []*Record
	err := c.Scan(ctx, func(r *Record) bool {
		out = append(out, r)
		return true
	})
	return out, err
}

// Latest returns the record with the highest sequence number.
func (c *Catalog) Latest(ctx context.Context) (*Record, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}
	var rec Record
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration seeks to the largest key <= the seek key.
		seek := append(append([]byte{}, keyPrefix...), 0xff, 0xff, 0xff, 0xff)
		it.Seek(seek)
		if !it.ValidForPrefix(keyPrefix) {
			return ErrNotFound
		}
		return it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GC reclaims value log space. It returns the number of rewrite cycles run.
func (c *Catalog) GC(ctx context.Context) (int, error) {
	if err := c.ready(ctx); err != nil {
		return 0, err
	}
	if c.cfg.InMemory {
		return 0, nil
	}
	runs := 0
	for {
		if err := ctx.Err(); err != nil {
			return runs, err
		}
		err := c.db.RunValueLogGC(c.cfg.GCDiscardRatio)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
				break
			}
			return runs, fmt.Errorf("catalog: gc: %w", err)
		}
		runs++
	}
	c.logger.Debug("catalog gc completed", "runs", runs)
	return runs, nil
}

// Close closes the underlying database. Later calls return nil, and every
// other method returns ErrClosed.
func (c *Catalog) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("catalog: close db: %w", err)
	}
	return nil
}

// badgerLogger adapts slog.Logger to Badger's Logger interface. Badger's
// info chatter is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
