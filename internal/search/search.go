package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/quickshoe/Replit-Export-sub000/internal/index"
)

type Result struct {
	ExportKey string
	EventID   int // -1 when the result names a whole export
	LastTs    string
	Summary   string
	Snippet   string
	Kind      string
	Role      string
	Ts        string
	Rank      float64
}

type Options struct {
	Query     string
	Kind      string // "" = all, "message", "checkpoint", "work"
	Role      string // "" = all, "user", "agent"
	Since     string // "" = no filter, e.g. "2024-01-01"
	Limit     int
	PerExport bool // keep only the best hit per export
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	runes := []rune(text)
	idx := strings.Index(strings.ToLower(text), strings.ToLower(query))
	if query == "" || idx < 0 || len(strings.ToLower(text)) != len(text) {
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}
	qLen := len([]rune(query))
	runePos := len([]rune(text[:idx]))
	start := max(runePos-contextChars, 0)
	end := min(runePos+qLen+contextChars, len(runes))

	prefix, suffix := "", ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	// wrap the matched part with markers
	return prefix + string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+qLen]) + "<<<" +
		string(runes[runePos+qLen:end]) + suffix
}

func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	// Fetch more results before dedup so we still have enough after
	origLimit := opts.Limit
	if opts.PerExport {
		opts.Limit = origLimit * 3
	}

	var results []Result
	var err error
	if containsCJK(opts.Query) {
		results, err = searchLike(db, opts)
	} else {
		results, err = searchFTS(db, opts)
	}
	if err != nil {
		return nil, err
	}
	if !opts.PerExport {
		return results, nil
	}

	seen := make(map[string]bool)
	var deduped []Result
	for _, r := range results {
		if seen[r.ExportKey] {
			continue
		}
		seen[r.ExportKey] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

// filters builds the kind/role/since conditions shared by every query.
func filters(opts Options) ([]string, []any) {
	var conditions []string
	var args []any
	if opts.Kind != "" {
		conditions = append(conditions, "e.kind = ?")
		args = append(args, opts.Kind)
	}
	if opts.Role != "" {
		conditions = append(conditions, "e.role = ?")
		args = append(args, opts.Role)
	}
	if opts.Since != "" {
		conditions = append(conditions, "x.last_ts >= ?")
		args = append(args, opts.Since)
	}
	return conditions, args
}

// ftsQuery quotes each term so punctuation in user input is not read as
// FTS5 syntax.
func ftsQuery(q string) string {
	fields := strings.Fields(q)
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(fields, " ")
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"events_fts MATCH ?"}
	args := []any{ftsQuery(opts.Query)}
	more, moreArgs := filters(opts)
	conditions = append(conditions, more...)
	args = append(args, moreArgs...)

	query := fmt.Sprintf(`
		SELECT
			e.export_key,
			e.event_id,
			x.last_ts,
			x.summary,
			snippet(events_fts, 0, '>>>','<<<', '...', 40) as snip,
			e.kind,
			e.role,
			e.ts,
			bm25(events_fts, 1.0) as rank
		FROM events_fts
		JOIN events e ON events_fts.rowid = e.rowid
		JOIN exports x ON e.export_key = x.export_key
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	// LIKE match for CJK substring search
	conditions := []string{"e.content LIKE ?"}
	args := []any{"%" + opts.Query + "%"}
	more, moreArgs := filters(opts)
	conditions = append(conditions, more...)
	args = append(args, moreArgs...)

	query := fmt.Sprintf(`
		SELECT
			e.export_key,
			e.event_id,
			x.last_ts,
			x.summary,
			e.content,
			e.kind,
			e.role,
			e.ts
		FROM events e
		JOIN exports x ON e.export_key = x.export_key
		WHERE %s
		ORDER BY x.last_ts DESC, e.event_id
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var fullText string
		if err := rows.Scan(
			&r.ExportKey, &r.EventID, &r.LastTs, &r.Summary,
			&fullText, &r.Kind, &r.Role, &r.Ts,
		); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(fullText, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListAll returns one result per export, most recent first.
func ListAll(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	var conditions []string
	var args []any
	if opts.Since != "" {
		conditions = append(conditions, "last_ts >= ?")
		args = append(args, opts.Since)
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT export_key, last_ts, summary
		FROM exports
		%s
		ORDER BY last_ts DESC, export_key
		LIMIT ?
	`, where)
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		r := Result{EventID: -1}
		if err := rows.Scan(&r.ExportKey, &r.LastTs, &r.Summary); err != nil {
			return nil, err
		}
		r.Snippet = r.Summary
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.ExportKey, &r.EventID, &r.LastTs, &r.Summary,
			&r.Snippet, &r.Kind, &r.Role, &r.Ts, &r.Rank,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
