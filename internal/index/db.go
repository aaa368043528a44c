package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA cache_size = -64000;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS exports (
    export_key       TEXT PRIMARY KEY,
    file_path        TEXT NOT NULL,
    digest           TEXT NOT NULL DEFAULT '',
    node_count       INTEGER NOT NULL DEFAULT 0,
    repair_count     INTEGER NOT NULL DEFAULT 0,
    correlated_count INTEGER NOT NULL DEFAULT 0,
    duplicate_count  INTEGER NOT NULL DEFAULT 0,
    noise_count      INTEGER NOT NULL DEFAULT 0,
    first_ts         TEXT NOT NULL DEFAULT '',
    last_ts          TEXT NOT NULL DEFAULT '',
    summary          TEXT NOT NULL DEFAULT '',
    mtime            INTEGER NOT NULL DEFAULT 0,
    size             INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS events (
    export_key  TEXT NOT NULL,
    event_id    INTEGER NOT NULL,
    kind        TEXT NOT NULL,
    role        TEXT NOT NULL DEFAULT '',
    ts          TEXT NOT NULL DEFAULT '',
    content     TEXT NOT NULL,
    detail      TEXT NOT NULL DEFAULT '{}',
    line_number INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (export_key, event_id)
);

CREATE VIRTUAL TABLE IF NOT EXISTS events_fts USING fts5(
    content,
    content=events,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS events_ai AFTER INSERT ON events BEGIN
    INSERT INTO events_fts(rowid, content) VALUES (new.rowid, new.content);
END;

CREATE TRIGGER IF NOT EXISTS events_ad AFTER DELETE ON events BEGIN
    INSERT INTO events_fts(events_fts, rowid, content) VALUES('delete', old.rowid, old.content);
END;

CREATE TRIGGER IF NOT EXISTS events_au AFTER UPDATE ON events BEGIN
    INSERT INTO events_fts(events_fts, rowid, content) VALUES('delete', old.rowid, old.content);
    INSERT INTO events_fts(rowid, content) VALUES (new.rowid, new.content);
END;

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

// tsLayout is how event and export timestamps are stored. An unknown
// timestamp is stored as ''.
const tsLayout = "2006-01-02T15:04:05Z07:00"

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	d := &DB{db: db}
	d.migrateSchemaVersion()
	return d, nil
}

// schemaVersion should be bumped whenever classification or timestamp
// logic changes to force a full re-export.
const schemaVersion = "1"

func (d *DB) migrateSchemaVersion() {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil || ver != schemaVersion {
		// force re-export by resetting all export mtime/size/digest
		d.db.Exec("UPDATE exports SET mtime = 0, size = 0, digest = ''")
		d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	}
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

type ExportInfo struct {
	Mtime  int64
	Size   int64
	Digest string
}

func (d *DB) GetExportInfo(exportKey string) (*ExportInfo, error) {
	var info ExportInfo
	err := d.db.QueryRow(
		"SELECT mtime, size, digest FROM exports WHERE export_key = ?",
		exportKey,
	).Scan(&info.Mtime, &info.Size, &info.Digest)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (d *DB) AllExportKeys() (map[string]struct{}, error) {
	rows, err := d.db.Query("SELECT export_key FROM exports")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

func (d *DB) DeleteExport(exportKey string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM events WHERE export_key = ?", exportKey); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM exports WHERE export_key = ?", exportKey); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) ExportCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM exports").Scan(&n)
	return n, err
}

func (d *DB) EventCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&n)
	return n, err
}

// KindCounts returns the number of stored events per kind.
func (d *DB) KindCounts() (map[string]int, error) {
	rows, err := d.db.Query("SELECT kind, COUNT(*) FROM events GROUP BY kind")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		counts[k] = n
	}
	return counts, rows.Err()
}

type ExportRow struct {
	ExportKey       string
	FilePath        string
	Digest          string
	NodeCount       int
	RepairCount     int
	CorrelatedCount int
	DuplicateCount  int
	NoiseCount      int
	FirstTs         string
	LastTs          string
	Summary         string
}

func (d *DB) GetExportByKey(exportKey string) (*ExportRow, error) {
	var e ExportRow
	err := d.db.QueryRow(
		`SELECT export_key, file_path, digest, node_count, repair_count, correlated_count,
		        duplicate_count, noise_count, first_ts, last_ts, summary
		 FROM exports WHERE export_key = ?`,
		exportKey,
	).Scan(&e.ExportKey, &e.FilePath, &e.Digest, &e.NodeCount, &e.RepairCount, &e.CorrelatedCount,
		&e.DuplicateCount, &e.NoiseCount, &e.FirstTs, &e.LastTs, &e.Summary)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type EventRow struct {
	ExportKey  string
	EventID    int
	Kind       string
	Role       string
	Ts         string
	Content    string
	Detail     string // the full event as JSON
	LineNumber int
}

// Event decodes the stored event.
func (r EventRow) Event() (feed.Event, error) {
	var ev feed.Event
	if err := json.Unmarshal([]byte(r.Detail), &ev); err != nil {
		return feed.Event{}, fmt.Errorf("decode event %s/%d: %w", r.ExportKey, r.EventID, err)
	}
	return ev, nil
}

const eventCols = "export_key, event_id, kind, role, ts, content, detail, line_number"

func scanEvents(rows *sql.Rows, hitEventID int) ([]EventRow, int, error) {
	var result []EventRow
	hitIdx := -1
	for rows.Next() {
		var e EventRow
		if err := rows.Scan(&e.ExportKey, &e.EventID, &e.Kind, &e.Role, &e.Ts, &e.Content, &e.Detail, &e.LineNumber); err != nil {
			return nil, -1, err
		}
		if e.EventID == hitEventID {
			hitIdx = len(result)
		}
		result = append(result, e)
	}
	return result, hitIdx, rows.Err()
}

func (d *DB) GetEvents(exportKey string) ([]EventRow, error) {
	rows, err := d.db.Query(
		"SELECT "+eventCols+" FROM events WHERE export_key = ? ORDER BY event_id",
		exportKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events, _, err := scanEvents(rows, -1)
	return events, err
}

// GetTimeline rebuilds a stored timeline.
func (d *DB) GetTimeline(exportKey string) (*feed.Timeline, error) {
	exp, err := d.GetExportByKey(exportKey)
	if err != nil || exp == nil {
		return nil, err
	}
	rows, err := d.GetEvents(exportKey)
	if err != nil {
		return nil, err
	}
	tl := &feed.Timeline{
		Events:          make([]feed.Event, 0, len(rows)),
		RepairCount:     exp.RepairCount,
		CorrelatedCount: exp.CorrelatedCount,
		DuplicateCount:  exp.DuplicateCount,
		NoiseCount:      exp.NoiseCount,
	}
	for _, r := range rows {
		ev, err := r.Event()
		if err != nil {
			return nil, err
		}
		tl.Events = append(tl.Events, ev)
	}
	return tl, nil
}

// GetEventsWindow returns a window of events around a hit event.
// It only loads the necessary rows from the database instead of all events.
// startPos is the number of events before the returned window.
// totalCount is the total number of events in the export.
func (d *DB) GetEventsWindow(exportKey string, hitEventID, context int) (events []EventRow, hitIdx int, startPos int, totalCount int, err error) {
	err = d.db.QueryRow(
		"SELECT COUNT(*) FROM events WHERE export_key = ?", exportKey,
	).Scan(&totalCount)
	if err != nil {
		return nil, -1, 0, 0, err
	}

	// event ids are dense positions, so the hit's row offset is its id
	hitPos := -1
	if hitEventID >= 0 && hitEventID < totalCount {
		hitPos = hitEventID
	}

	startPos = 0
	limit := totalCount
	if hitPos >= 0 {
		startPos = max(hitPos-context, 0)
		endPos := min(hitPos+context+1, totalCount)
		limit = endPos - startPos
	}

	rows, err := d.db.Query(
		"SELECT "+eventCols+" FROM events WHERE export_key = ? ORDER BY event_id LIMIT ? OFFSET ?",
		exportKey, limit, startPos,
	)
	if err != nil {
		return nil, -1, 0, 0, err
	}
	defer rows.Close()

	events, hitIdx, err = scanEvents(rows, hitEventID)
	if err != nil {
		return nil, -1, 0, 0, err
	}
	return events, hitIdx, startPos, totalCount, nil
}
