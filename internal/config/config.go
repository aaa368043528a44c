package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type PipelineConfig struct {
	CheckpointMaxLen  int           `toml:"checkpoint_max_len" yaml:"checkpoint_max_len"`
	MinMessageLen     int           `toml:"min_message_len" yaml:"min_message_len"`
	SiblingLookahead  int           `toml:"sibling_lookahead" yaml:"sibling_lookahead"`
	CommitWindow      time.Duration `toml:"commit_window" yaml:"commit_window"`
	AdjacencyFallback bool          `toml:"adjacency_fallback" yaml:"adjacency_fallback"`
}

type IdleConfig struct {
	PollInterval  time.Duration `toml:"poll_interval" yaml:"poll_interval"`
	SnapshotDelay time.Duration `toml:"snapshot_delay" yaml:"snapshot_delay"`
	MaxWait       time.Duration `toml:"max_wait" yaml:"max_wait"`
	BusyMarker    string        `toml:"busy_marker" yaml:"busy_marker"`
	TailNodes     int           `toml:"tail_nodes" yaml:"tail_nodes"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

type Config struct {
	SnapshotDir string `toml:"snapshot_dir" yaml:"snapshot_dir"`
	DBPath      string `toml:"db_path" yaml:"db_path"`
	MetricsFile string `toml:"metrics_file" yaml:"metrics_file"`
	RepoDir     string `toml:"repo_dir" yaml:"repo_dir"`         // git repo whose log feeds the correlator
	CommitsFile string `toml:"commits_file" yaml:"commits_file"` // JSON commit list, used when set
	Location    string `toml:"location" yaml:"location"`         // IANA zone for wall-clock timestamps

	Pipeline PipelineConfig `toml:"pipeline" yaml:"pipeline"`
	Idle     IdleConfig     `toml:"idle" yaml:"idle"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

// Default returns the configuration used when no file overrides it.
func Default(home string) *Config {
	return &Config{
		SnapshotDir: filepath.Join(home, ".local", "share", "rpx", "snapshots"),
		DBPath:      filepath.Join(home, ".config", "rpx", "rpx.db"),
		Location:    "UTC",
		Pipeline: PipelineConfig{
			CheckpointMaxLen:  500,
			MinMessageLen:     5,
			SiblingLookahead:  3,
			CommitWindow:      3 * time.Minute,
			AdjacencyFallback: true,
		},
		Idle: IdleConfig{
			PollInterval:  5 * time.Second,
			SnapshotDelay: 2 * time.Second,
			MaxWait:       10 * time.Minute,
			BusyMarker:    "Working...",
			TailNodes:     5,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads ~/.config/rpx/config.toml over the defaults, if it exists.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return load(filepath.Join(home, ".config", "rpx", "config.toml"), home, false)
}

// LoadFile reads an explicit config file; a missing file is an error.
// The decoder is chosen by extension (.toml, .yaml, .yml).
func LoadFile(path string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return load(path, home, true)
}

func load(cfgPath, home string, required bool) (*Config, error) {
	cfg := Default(home)

	data, err := os.ReadFile(cfgPath)
	switch {
	case err == nil:
		if err := decode(cfgPath, data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	case os.IsNotExist(err) && !required:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	// expand ~ in paths
	cfg.SnapshotDir = expandHome(cfg.SnapshotDir, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.MetricsFile = expandHome(cfg.MetricsFile, home)
	cfg.RepoDir = expandHome(cfg.RepoDir, home)
	cfg.CommitsFile = expandHome(cfg.CommitsFile, home)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	}
	return nil
}

// TimeLocation resolves the configured zone, falling back to UTC.
func (c *Config) TimeLocation() *time.Location {
	if c.Location == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
