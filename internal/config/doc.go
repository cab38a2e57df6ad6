// Package config defines the mcellckpt configuration: where checkpoints
// live and how long they are kept, the run parameters, and the model
// (species, partitions, surfaces, initial population) a checkpoint is
// restored into.
//
// Values come from defaults, then an optional YAML file, then
// MCELLCKPT_-prefixed environment variables (see confloader).
package config
