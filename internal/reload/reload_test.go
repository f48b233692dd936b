package reload

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatchFiresOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("app:\n  log_level: info\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, discard(), func(p string) { fired <- p })
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("app:\n  log_level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-fired:
		if filepath.Base(p) != "config.yaml" {
			t.Errorf("callback path = %q", p)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("callback not invoked after file change")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not stop on cancel")
	}
}

func TestWatchIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("x: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan string, 4)
	go func() {
		_ = Watch(ctx, path, discard(), func(p string) { fired <- p })
	}()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("y: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-fired:
		t.Fatalf("callback fired for sibling file: %q", p)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatchMissingDir(t *testing.T) {
	err := Watch(context.Background(), "/nonexistent/dir/config.yaml", discard(), nil)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestWatchDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("x: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan string, 16)
	go func() {
		_ = Watch(ctx, path, discard(), func(p string) { fired <- p })
	}()
	time.Sleep(100 * time.Millisecond)

	// A burst of writes inside the debounce window.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("x: 2\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("callback not invoked")
	}

	// The burst settles into a single callback.
	select {
	case <-fired:
		t.Error("burst produced more than one callback")
	case <-time.After(500 * time.Millisecond):
	}
}
