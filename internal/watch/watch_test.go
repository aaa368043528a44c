package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSnapshot(t *testing.T) {
	assert.True(t, isSnapshot("/a/b.jsonl"))
	assert.False(t, isSnapshot("/a/.b.jsonl"))
	assert.False(t, isSnapshot("/a/b.json"))
}

func TestRunReportsSettledFile(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "proj")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	w := &Watcher{Root: root, Settle: 100 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(ctx context.Context, path string) { got <- path })
	}()

	// give the watcher time to register
	time.Sleep(200 * time.Millisecond)
	target := filepath.Join(sub, "feed.jsonl")
	require.NoError(t, os.WriteFile(target, []byte(`{"text":"hello"}`+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "notes.txt"), []byte("x"), 0o644))

	select {
	case p := <-got:
		assert.Equal(t, target, p)
	case <-ctx.Done():
		t.Fatal("no settled file reported")
	}

	cancel()
	require.NoError(t, <-done)
	assert.Empty(t, got)
}

func TestRunMissingRoot(t *testing.T) {
	w := &Watcher{Root: filepath.Join(t.TempDir(), "absent")}
	err := w.Run(context.Background(), func(context.Context, string) {})
	assert.Error(t, err)
}
