// Package confloader loads configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (LoadMap)
//  2. Environment variables (MCELLCKPT_ prefix)
//  3. YAML configuration file
//  4. Defaults already present in the target struct
//
// Environment keys nest on double underscores so that single underscores
// can stay inside key names: MCELLCKPT_CHECKPOINT__RETENTION_COUNT sets
// checkpoint.retention_count.
package confloader
