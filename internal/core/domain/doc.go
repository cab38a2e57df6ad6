// Package domain defines the error vocabulary of the checkpoint subsystem.
//
// Every failure surfaced by a checkpoint read or write is a DomainError
// carrying one of these codes:
//
//   - DataCorrupt: malformed, truncated, out-of-order or duplicate content
//   - VersionMismatch: file written by a different program version
//   - NoCheckpoint: the file does not exist (callers start fresh)
//   - Internal: the writer violated its own invariants
//   - IO: the operating system refused a read, write or rename
package domain
