// Package commits provides the commit histories the correlator matches
// checkpoints against: a local git repository or an exported JSON list.
package commits

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// GitLog lists commits from `git log` in Dir.
type GitLog struct {
	Dir   string
	Limit int // 0 means no limit
}

func (g GitLog) List(ctx context.Context) ([]feed.CommitRecord, error) {
	args := []string{"-C", g.Dir, "log", "--format=%cI%x1f%B%x1e"}
	if g.Limit > 0 {
		args = append(args, "-n", strconv.Itoa(g.Limit))
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("git log: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("git log: %w", err)
	}
	return ParseLog(out), nil
}

// ParseLog splits the output of `git log --format=%cI%x1f%B%x1e`.
// Records with an unparseable date keep a zero timestamp.
func ParseLog(out []byte) []feed.CommitRecord {
	var commits []feed.CommitRecord
	for _, rec := range strings.Split(string(out), recordSep) {
		rec = strings.TrimLeft(rec, "\r\n")
		if strings.TrimSpace(rec) == "" {
			continue
		}
		date, msg, ok := strings.Cut(rec, fieldSep)
		if !ok {
			continue
		}
		c := feed.CommitRecord{Message: strings.TrimRight(msg, "\r\n ")}
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(date)); err == nil {
			c.Timestamp = ts
		}
		commits = append(commits, c)
	}
	return commits
}
