// Package catalog keeps an index of written checkpoints in Badger.
//
// Each record is keyed by its checkpoint sequence number (big-endian
// uint32 under the "ckpt/" prefix) so iteration order equals sequence
// order. Values are JSON. The catalog is advisory: checkpoint files remain
// the source of truth and a missing or stale record never blocks a restore.
package catalog
