package confloader

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Checkpoint struct {
		Dir            string `koanf:"dir"`
		RetentionCount int    `koanf:"retention_count"`
	} `koanf:"checkpoint"`
	Simulation struct {
		Seed     int     `koanf:"seed"`
		TimeStep float64 `koanf:"time_step"`
	} `koanf:"simulation"`
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/path/to/config.yaml"))
	if l.envPrefix != "TEST_" || l.filePath != "/path/to/config.yaml" {
		t.Errorf("options not applied: %+v", l)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
checkpoint:
  dir: /var/lib/mcell
  retention_count: 4
simulation:
  time_step: 1.0e-6
`)
	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := l.GetString("checkpoint.dir"); got != "/var/lib/mcell" {
		t.Errorf("checkpoint.dir = %q", got)
	}
	if got := l.GetInt("checkpoint.retention_count"); got != 4 {
		t.Errorf("checkpoint.retention_count = %d", got)
	}
}

func TestLoader_LoadFile_Errors(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") should be a no-op, got %v", err)
	}
	if err := l.LoadFile(writeConfig(t, "checkpoint: [unclosed")); err == nil {
		t.Error("LoadFile() should fail for invalid YAML")
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"MCELLCKPT_CHECKPOINT__RETENTION_COUNT": "checkpoint.retention_count",
		"MCELLCKPT_SIMULATION__SEED":            "simulation.seed",
		"MCELLCKPT_LOG__LEVEL":                  "log.level",
	}
	for in, want := range tests {
		if got := EnvKey(DefaultEnvPrefix, in); got != want {
			t.Errorf("EnvKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
checkpoint:
  dir: from-file
  retention_count: 4
simulation:
  seed: 1
`)
	t.Setenv("MCELLCKPT_CHECKPOINT__RETENTION_COUNT", "9")

	var cfg testConfig
	cfg.Simulation.TimeStep = 2e-6 // default kept when no source sets it

	l := NewLoader(WithConfigFile(path))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() = false after Load")
	}
	if cfg.Checkpoint.Dir != "from-file" {
		t.Errorf("dir = %q", cfg.Checkpoint.Dir)
	}
	if cfg.Checkpoint.RetentionCount != 9 {
		t.Errorf("retention_count = %d, env should win", cfg.Checkpoint.RetentionCount)
	}
	if cfg.Simulation.TimeStep != 2e-6 {
		t.Errorf("time_step default lost: %v", cfg.Simulation.TimeStep)
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"simulation.seed": 42}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	var cfg testConfig
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg.Simulation.Seed != 42 {
		t.Errorf("seed = %d", cfg.Simulation.Seed)
	}
}

func TestMapProvider_ReadBytes(t *testing.T) {
	if _, err := (mapProvider{}).ReadBytes(); err != ErrReadBytesNotSupported {
		t.Errorf("ReadBytes() error = %v", err)
	}
}
