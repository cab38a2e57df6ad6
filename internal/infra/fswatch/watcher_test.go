package fswatch

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWatcher_NotifiesMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := New(quiet(), WithExtension(".chkpt"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Stop()

	got := make(chan string, 16)
	w.OnChange(func(p string) { got <- p })
	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	w.StartAsync()

	if err := os.WriteFile(filepath.Join(dir, "ignored.tmp"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "checkpoint-00000001.chkpt")
	if err := os.WriteFile(want, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case p := <-got:
			if filepath.Ext(p) != ".chkpt" {
				t.Fatalf("filter let through %s", p)
			}
			if p == want {
				return
			}
		case <-timeout:
			t.Fatal("no notification for checkpoint file")
		}
	}
}

func TestWatcher_WatchMissingDir(t *testing.T) {
	w, err := New(quiet())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Stop()
	if err := w.Watch(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Watch() should fail for a missing directory")
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := New(quiet())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	w.StartAsync()
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}
