package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/proxygraph/internal/graph"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates an app for system tests. Without a config path the
// snapshot database is placed in a temporary directory.
func SetupAppTest(t *testing.T, opts Options, extra ...graph.Option) (*App, *SafeBuffer, *SafeBuffer) {
	t.Helper()

	out, logs := &SafeBuffer{}, &SafeBuffer{}
	if opts.ConfigPath == "" {
		opts.ConfigPath = filepath.Join(t.TempDir(), "proxygraph.hcl")
		cfg := "snapshot {\n  path = \"" + filepath.ToSlash(filepath.Join(t.TempDir(), "snapshots.db")) + "\"\n}\n"
		if err := os.WriteFile(opts.ConfigPath, []byte(cfg), 0600); err != nil {
			t.Fatalf("writing test config: %v", err)
		}
	}
	if opts.LogLevel == "" {
		opts.LogLevel = "debug"
	}

	testApp, err := NewApp(context.Background(), out, logs, opts, extra...)
	if err != nil {
		t.Fatalf("creating app: %v", err)
	}
	t.Cleanup(func() {
		testApp.Close()
		if os.Getenv("PROXYGRAPH_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return testApp, out, logs
}
