// Package buildinfo provides build information for mcellckpt.
//
// Values are injected via ldflags:
//
//   - Version: Semantic version (e.g., "1.0.0")
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// CheckpointVersion is the string stamped into every checkpoint file. A
// file is only accepted by a binary whose CheckpointVersion matches it
// byte for byte.
package buildinfo
