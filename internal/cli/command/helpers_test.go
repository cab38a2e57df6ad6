package command

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/urfave/cli/v2"
)

const testModel = `
checkpoint:
  dir: %DIR%
  retention_count: 10
simulation:
  seed: 5
  time_step: 1.0e-3
  scheduler_buckets: 16
  iterations: 20
  checkpoint_every: 10
model:
  species:
    - name: A
      diffusion: 1.0e-4
    - name: R
      kind: surface
    - name: C
      complex:
        subunit: R
        count: 2
  partitions:
    - min: [0, 0, 0]
      max: [1, 1, 1]
      surfaces:
        - origin: [0, 0, 0.5]
          u: [1, 0, 0]
          v: [0, 1, 0]
          tile_size: 0.1
          nu: 10
          nv: 10
  initial:
    - species: A
      count: 30
    - species: R
      count: 5
    - species: C
      count: 2
`

// syncBuffer is a bytes.Buffer safe for the watch goroutine.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

type testEnv struct {
	dir     string
	ckptDir string
	config  string
}

// newTestEnv writes the test model; extra YAML is appended to the
// checkpoint section.
func newTestEnv(t *testing.T, checkpointExtra string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	te := &testEnv{
		dir:     dir,
		ckptDir: filepath.Join(dir, "ckpt"),
		config:  filepath.Join(dir, "model.yaml"),
	}
	body := strings.ReplaceAll(testModel, "%DIR%", te.ckptDir)
	if checkpointExtra != "" {
		body = strings.Replace(body, "  retention_count: 10\n", "  retention_count: 10\n"+checkpointExtra, 1)
	}
	if err := os.WriteFile(te.config, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return te
}

// run executes the app with -c and -o json prepended.
func (te *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return te.runContext(context.Background(), &syncBuffer{}, &syncBuffer{}, args...)
}

func (te *testEnv) runContext(ctx context.Context, stdout, stderr *syncBuffer, args ...string) (string, error) {
	app := App()
	app.Writer = stdout
	app.ErrWriter = stderr
	app.ExitErrHandler = func(*cli.Context, error) {}
	full := append([]string{"mcellckpt", "-c", te.config, "-o", "json", "--log-format", "text"}, args...)
	err := app.RunContext(ctx, full)
	return stdout.String(), err
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	return v
}
