package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
	"github.com/quickshoe/Replit-Export-sub000/internal/index"
)

const (
	colorReset      = "\033[0m"
	colorUser       = "\033[1;34m" // bold blue
	colorAgent      = "\033[1;32m" // bold green
	colorCheckpoint = "\033[1;33m" // bold yellow
	colorWork       = "\033[2;35m" // dim magenta
	colorDim        = "\033[2m"
	colorHit        = "\033[43m"   // yellow background
	colorBoldRed    = "\033[1;31m" // bold red for keyword highlights
)

const tsLayout = "2006-01-02 15:04"

type Options struct {
	HitEventID int
	Context    int    // events before/after hit to show
	Width      int    // wrap width (0 = no wrap)
	Query      string // search query for keyword highlighting
	NoColor    bool
}

// fts5Operators are FTS5 operators that should not be highlighted as keywords.
var fts5Operators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NEAR": true,
	"and": true, "or": true, "not": true, "near": true,
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	var filtered []string
	for _, t := range strings.Fields(query) {
		if !fts5Operators[t] {
			filtered = append(filtered, t)
		}
	}
	for _, term := range filtered {
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			idx := strings.Index(strings.ToLower(text[i:]), lower)
			if idx < 0 || i+idx+len(term) > len(text) {
				break
			}
			pos := i + idx
			orig := text[pos : pos+len(term)]
			replacement := colorBoldRed + orig + colorReset
			text = text[:pos] + replacement + text[pos+len(term):]
			i = pos + len(replacement)
		}
	}
	return text
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// check for ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++ // include 'm'
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// label returns the header tag and color for an event.
func label(e feed.Event) (string, string) {
	switch e.Kind {
	case feed.KindMessage:
		if e.Role == feed.RoleUser {
			return "USER", colorUser
		}
		return "AGENT", colorAgent
	case feed.KindCheckpoint:
		if e.Correlated {
			return "CHECKPOINT*", colorCheckpoint
		}
		return "CHECKPOINT", colorCheckpoint
	case feed.KindWork:
		return "WORK", colorWork
	}
	return strings.ToUpper(string(e.Kind)), colorDim
}

func body(e feed.Event) string {
	text := e.Text()
	if e.Kind == feed.KindCheckpoint && e.Cost != nil {
		text += "\n" + e.Cost.String()
	}
	if e.Kind == feed.KindWork {
		text = colorDim + text + colorReset
	}
	return text
}

// page is a contiguous slice of a timeline plus how much was cut around it.
type page struct {
	title  string
	events []feed.Event
	hitIdx int
	before int
	after  int
}

// write renders a page and returns the 0-based line of the hit header.
func write(p page, opts Options) (string, int) {
	var b strings.Builder
	hitLine := -1
	lineCount := 0
	separator := colorDim + "--------------------------------------------------" + colorReset

	// helper to track line count; wraps long lines if Width is set
	writeLine := func(s string) {
		for _, wl := range wrapLine(s, opts.Width) {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}

	writeLine(fmt.Sprintf("%s--- %s ---%s", colorDim, p.title, colorReset))
	if p.before > 0 {
		writeLine(fmt.Sprintf("%s... (%d events before) ...%s", colorDim, p.before, colorReset))
	}

	for i, e := range p.events {
		isHit := i == p.hitIdx
		if i > 0 {
			writeLine(separator)
		}
		if isHit {
			hitLine = lineCount
		}

		tag, color := label(e)
		ts := "--"
		if !e.Timestamp.IsZero() {
			ts = e.Timestamp.Format(tsLayout)
		}
		if isHit {
			writeLine(fmt.Sprintf("%s>> %s > %s <<%s", colorHit, tag, ts, colorReset))
		} else {
			writeLine(fmt.Sprintf("%s%s >%s %s%s%s", color, tag, colorReset, colorDim, ts, colorReset))
		}

		text := highlightKeywords(body(e), opts.Query)
		for _, tl := range strings.Split(indentLines(text, "  "), "\n") {
			writeLine(tl)
		}
		writeLine("") // blank line after event
	}

	if p.after > 0 {
		writeLine(fmt.Sprintf("%s... (%d events after) ...%s", colorDim, p.after, colorReset))
	}

	out := b.String()
	if opts.NoColor {
		out = StripANSI(out)
	}
	return out, hitLine
}

// Timeline renders a whole in-memory timeline.
func Timeline(title string, tl feed.Timeline, opts Options) string {
	if len(tl.Events) == 0 {
		return "(empty timeline)\n"
	}
	out, _ := write(page{title: title, events: tl.Events, hitIdx: -1}, opts)
	return out
}

// RenderExport renders a stored export and returns the content,
// the 0-based line number of the hit event header (-1 if no hit), and any error.
func RenderExport(db *index.DB, exportKey string, opts Options) (string, int, error) {
	if opts.Context == 0 {
		opts.Context = 10
	}
	if opts.Context < 0 {
		opts.Context = 1000000 // no limit
	}

	exp, err := db.GetExportByKey(exportKey)
	if err != nil {
		return "", -1, fmt.Errorf("get export: %w", err)
	}
	if exp == nil {
		return "", -1, fmt.Errorf("export not found: %s", exportKey)
	}

	rows, hitIdx, startPos, totalCount, err := db.GetEventsWindow(exportKey, opts.HitEventID, opts.Context)
	if err != nil {
		return "", -1, fmt.Errorf("get events: %w", err)
	}
	if totalCount == 0 {
		return "(empty timeline)", -1, nil
	}

	events := make([]feed.Event, 0, len(rows))
	for _, r := range rows {
		ev, err := r.Event()
		if err != nil {
			return "", -1, err
		}
		events = append(events, ev)
	}

	title := fmt.Sprintf("%s [%d events, %d repaired, %d correlated]",
		exportKey, totalCount, exp.RepairCount, exp.CorrelatedCount)
	out, hitLine := write(page{
		title:  title,
		events: events,
		hitIdx: hitIdx,
		before: startPos,
		after:  totalCount - startPos - len(rows),
	}, opts)
	return out, hitLine, nil
}

// StripANSI removes ESC[...m sequences.
func StripANSI(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			i = j
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
