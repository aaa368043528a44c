package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/quickshoe/Replit-Export-sub000/internal/logging"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate rejects structurally invalid settings.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.DBPath == "" {
		add("db_path", "must not be empty")
	}
	if c.Pipeline.CommitWindow < 0 {
		add("pipeline.commit_window", "must not be negative (got %s)", c.Pipeline.CommitWindow)
	}
	if c.Pipeline.CheckpointMaxLen < 0 {
		add("pipeline.checkpoint_max_len", "must not be negative")
	}
	if c.Pipeline.MinMessageLen < 0 {
		add("pipeline.min_message_len", "must not be negative")
	}
	if c.Pipeline.SiblingLookahead < 0 {
		add("pipeline.sibling_lookahead", "must not be negative")
	}
	for field, d := range map[string]time.Duration{
		"idle.poll_interval":  c.Idle.PollInterval,
		"idle.snapshot_delay": c.Idle.SnapshotDelay,
		"idle.max_wait":       c.Idle.MaxWait,
	} {
		if d < 0 {
			add(field, "must not be negative (got %s)", d)
		}
	}
	if c.Location != "" {
		if _, err := time.LoadLocation(c.Location); err != nil {
			add("location", "unknown time zone %q", c.Location)
		}
	}
	if c.Log.Level != "" {
		if _, err := logging.ParseLevel(c.Log.Level); err != nil {
			add("log.level", "%v", err)
		}
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		add("log.format", "%v", err)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Logging converts the [log] section into a logging.Config.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if lvl, err := logging.ParseLevel(c.Log.Level); err == nil {
		cfg.Level = lvl
	}
	if f, err := logging.ParseFormat(c.Log.Format); err == nil {
		cfg.Format = f
	}
	return cfg
}
