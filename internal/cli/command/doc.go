// Package command defines the mcellckpt command tree on urfave/cli/v2.
//
//   - simulate: run or resume a simulation with periodic checkpoints
//   - inspect: describe checkpoint files without restoring them
//   - verify: restore a checkpoint into the configured model
//   - list, prune: manage the checkpoint directory and catalog
//   - watch: catalog checkpoint files as they appear
//
// Every command loads configuration in the Before hook and writes results
// through the output package to App.Writer.
package command
