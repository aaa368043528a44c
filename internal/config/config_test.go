package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default("/home/u")
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/home/u/.config/rpx/rpx.db", cfg.DBPath)
	assert.Equal(t, 3*time.Minute, cfg.Pipeline.CommitWindow)
}

func TestLoadFileTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
snapshot_dir = "/data/snapshots"
location = "UTC"

[pipeline]
commit_window = "5m"
adjacency_fallback = false
min_message_len = 3

[idle]
poll_interval = "1s"
busy_marker = "Thinking"

[log]
level = "debug"
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/snapshots", cfg.SnapshotDir)
	assert.Equal(t, 5*time.Minute, cfg.Pipeline.CommitWindow)
	assert.False(t, cfg.Pipeline.AdjacencyFallback)
	assert.Equal(t, 3, cfg.Pipeline.MinMessageLen)
	assert.Equal(t, 500, cfg.Pipeline.CheckpointMaxLen, "unset keys keep defaults")
	assert.Equal(t, time.Second, cfg.Idle.PollInterval)
	assert.Equal(t, "Thinking", cfg.Idle.BusyMarker)
	assert.Equal(t, time.UTC, cfg.TimeLocation())

	opts := cfg.PipelineOptions()
	assert.Equal(t, 5*time.Minute, opts.Correlate.Window)
	assert.False(t, opts.Correlate.Adjacency)
	assert.Equal(t, 3, opts.Classify.MinMessageLen)
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
db_path: ~/rpx/test.db
pipeline:
  commit_window: 90s
idle:
  max_wait: 2m
log:
  format: json
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, "rpx", "test.db"), cfg.DBPath)
	assert.Equal(t, 90*time.Second, cfg.Pipeline.CommitWindow)
	assert.Equal(t, 2*time.Minute, cfg.IdleConfig().MaxWait)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestNegativeWindowRejected(t *testing.T) {
	path := writeFile(t, "config.toml", "[pipeline]\ncommit_window = \"-1m\"\n")
	_, err := LoadFile(path)
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "pipeline.commit_window", verrs[0].Field)
}

func TestValidateCollectsAll(t *testing.T) {
	cfg := Default("/home/u")
	cfg.DBPath = ""
	cfg.Location = "Mars/Olympus"
	cfg.Log.Level = "loud"
	cfg.Idle.MaxWait = -time.Second

	err := cfg.Validate()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"db_path", "location", "log.level", "idle.max_wait"}, fields)
}

func TestExpandHome(t *testing.T) {
	assert.Equal(t, "/home/u/x", expandHome("~/x", "/home/u"))
	assert.Equal(t, "/abs", expandHome("/abs", "/home/u"))
	assert.Equal(t, "", expandHome("", "/home/u"))
}
