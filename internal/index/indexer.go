package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
	"github.com/quickshoe/Replit-Export-sub000/internal/logging"
	"github.com/quickshoe/Replit-Export-sub000/internal/pipeline"
	"github.com/quickshoe/Replit-Export-sub000/internal/scan"
	"github.com/quickshoe/Replit-Export-sub000/internal/snapshot"
	"github.com/quickshoe/Replit-Export-sub000/internal/timeline"
)

type Stats struct {
	Scanned   int
	Updated   int
	Unchanged int // re-run, same digest
	Skipped   int // mtime and size unchanged
	Empty     int
	Pruned    int
	Errors    int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d updated=%d unchanged=%d skipped=%d empty=%d pruned=%d errors=%d",
		s.Scanned, s.Updated, s.Unchanged, s.Skipped, s.Empty, s.Pruned, s.Errors)
}

// Indexer exports every snapshot under Root into DB.
type Indexer struct {
	DB      *DB
	Root    string
	Runner  *pipeline.Runner
	Commits feed.CommitSource // may be nil
	Logger  *slog.Logger
	Force   bool // ignore mtime/size and re-run every file
}

func (ix *Indexer) logger() *slog.Logger {
	if ix.Logger == nil {
		return logging.Discard()
	}
	return ix.Logger
}

func (ix *Indexer) IndexAll(ctx context.Context) (Stats, error) {
	var stats Stats

	files, err := scan.ScanRoot(ix.Root)
	if err != nil {
		return stats, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(files)

	// track which files we see, for pruning
	seenKeys := make(map[string]struct{})

	for _, fi := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		key := snapshot.ExportKey(fi.Path, ix.Root)
		seenKeys[key] = struct{}{}

		if !ix.Force {
			needs, err := needsUpdate(ix.DB, key, fi.Mtime, fi.Size)
			if err != nil {
				stats.Errors++
				continue
			}
			if !needs {
				stats.Skipped++
				continue
			}
		}

		changed, err := ix.IndexFile(ctx, fi.Path)
		switch {
		case errors.Is(err, pipeline.ErrNoNodes):
			stats.Empty++
			delete(seenKeys, key)
		case err != nil:
			stats.Errors++
			ix.logger().Warn("export failed", "path", fi.Path, "err", err)
		case changed:
			stats.Updated++
		default:
			stats.Unchanged++
		}
	}

	// prune exports whose files no longer exist
	pruned, err := pruneExports(ix.DB, seenKeys)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	return stats, nil
}

// IndexFile runs the pipeline over one snapshot and stores the result.
// It reports whether the stored timeline changed.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (bool, error) {
	file, err := snapshot.Open(path, ix.Root)
	if err != nil {
		return false, err
	}
	res, err := ix.Runner.Run(ctx, file, ix.Commits)
	if err != nil {
		return false, err
	}
	if file.Skipped > 0 {
		ix.logger().Debug("skipped malformed lines", "path", path, "lines", file.Skipped)
	}

	info, err := ix.DB.GetExportInfo(file.Meta.ExportKey)
	if err != nil {
		return false, err
	}
	if info != nil && info.Digest == res.Digest {
		return false, ix.DB.touchExport(file.Meta)
	}
	if err := Store(ix.DB, file.Meta, res); err != nil {
		return false, fmt.Errorf("store %s: %w", file.Meta.ExportKey, err)
	}
	return true, nil
}

func needsUpdate(db *DB, exportKey string, mtime, size int64) (bool, error) {
	info, err := db.GetExportInfo(exportKey)
	if err != nil {
		return false, err
	}
	if info == nil {
		return true, nil // new export
	}
	return info.Mtime != mtime || info.Size != size, nil
}

func (d *DB) touchExport(meta snapshot.Meta) error {
	_, err := d.db.Exec("UPDATE exports SET mtime = ?, size = ?, file_path = ? WHERE export_key = ?",
		meta.Mtime.Unix(), meta.Size, meta.FilePath, meta.ExportKey)
	return err
}

// Store replaces one export and its events in a single transaction.
func Store(db *DB, meta snapshot.Meta, res *pipeline.Result) error {
	tx, err := db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM events WHERE export_key = ?", meta.ExportKey); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM exports WHERE export_key = ?", meta.ExportKey); err != nil {
		return err
	}

	tl := res.Timeline
	first, last := timeline.Bounds(tl.Events)
	_, err = tx.Exec(
		`INSERT INTO exports (export_key, file_path, digest, node_count, repair_count, correlated_count,
		                      duplicate_count, noise_count, first_ts, last_ts, summary, mtime, size)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ExportKey,
		meta.FilePath,
		res.Digest,
		res.NodeCount,
		tl.RepairCount,
		tl.CorrelatedCount,
		tl.DuplicateCount,
		tl.NoiseCount,
		formatTs(first),
		formatTs(last),
		summarize(tl.Events),
		meta.Mtime.Unix(),
		meta.Size,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO events (export_key, event_id, kind, role, ts, content, detail, line_number)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ev := range tl.Events {
		detail, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		_, err = stmt.Exec(
			meta.ExportKey,
			ev.Position,
			string(ev.Kind),
			string(ev.Role),
			formatTs(ev.Timestamp),
			ev.Text(),
			string(detail),
			ev.Line,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// summarize prefers the first user message, then the first event.
func summarize(events []feed.Event) string {
	var s string
	for _, e := range events {
		if e.Kind == feed.KindMessage && e.Role == feed.RoleUser {
			s = e.Content
			break
		}
	}
	if s == "" && len(events) > 0 {
		s = events[0].Text()
	}
	if r := []rune(s); len(r) > 200 {
		s = string(r[:200])
	}
	return strings.ReplaceAll(s, "\n", " ")
}

func formatTs(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(tsLayout)
}

func pruneExports(db *DB, seenKeys map[string]struct{}) (int, error) {
	allKeys, err := db.AllExportKeys()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for key := range allKeys {
		if _, ok := seenKeys[key]; !ok {
			if err := db.DeleteExport(key); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}
