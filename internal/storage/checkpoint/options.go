package checkpoint

import (
	"encoding/binary"
	"log/slog"

	"github.com/yndnr/mcellckpt-go/internal/infra/buildinfo"
	"github.com/yndnr/mcellckpt-go/internal/telemetry/metric"
)

// Options configures a checkpoint read or write. The zero value is usable.
type Options struct {
	// Version is stamped on write and required on read. Defaults to
	// buildinfo.CheckpointVersion().
	Version string

	Logger  *slog.Logger
	Metrics *metric.Registry

	// order overrides the byte order raw fields are written in.
	order binary.ByteOrder
}

func (o Options) withDefaults() Options {
	if o.Version == "" {
		o.Version = buildinfo.CheckpointVersion()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.order == nil {
		o.order = hostOrder
	}
	return o
}

// Stats summarizes one checkpoint read or write.
type Stats struct {
	Bytes     int64 `json:"bytes"`
	Species   int   `json:"species"`
	Molecules int   `json:"molecules"`
	Complexes int   `json:"complexes"`

	// Restore only.
	Dropped          int  `json:"dropped,omitempty"`
	ComplexesDropped int  `json:"complexes_dropped,omitempty"`
	RNGReinitialized bool `json:"rng_reinitialized,omitempty"`
}
