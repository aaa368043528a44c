package snapshot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB
const maxTextSize = 64 * 1024        // 64KB per node text

// Meta describes a snapshot file on disk.
type Meta struct {
	ExportKey string
	FilePath  string
	Mtime     time.Time
	Size      int64
}

// File is a NodeAccessor over a JSONL node dump.
type File struct {
	Meta    Meta
	nodes   []feed.RawNode
	Skipped int // lines that were not node objects
}

// Open reads every node from path. The export key is the path relative
// to root without its extension.
func Open(path, root string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	nodes, skipped, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &File{
		Meta: Meta{
			ExportKey: ExportKey(path, root),
			FilePath:  path,
			Mtime:     info.ModTime(),
			Size:      info.Size(),
		},
		nodes:   nodes,
		Skipped: skipped,
	}, nil
}

// ExportKey names a snapshot by its path relative to root, without the
// extension. Without a root, or outside it, the base name is used.
func ExportKey(path, root string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || root == "" || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	return strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
}

func (f *File) Count(ctx context.Context) (int, error) {
	return len(f.nodes), ctx.Err()
}

func (f *File) Read(ctx context.Context, i int) (feed.RawNode, error) {
	if err := ctx.Err(); err != nil {
		return feed.RawNode{}, err
	}
	if i < 0 || i >= len(f.nodes) {
		return feed.RawNode{}, fmt.Errorf("node %d out of range [0,%d)", i, len(f.nodes))
	}
	return f.nodes[i], nil
}

// Decode reads JSONL nodes from r. Blank lines and lines that are not JSON
// objects are skipped and counted.
func Decode(r io.Reader) ([]feed.RawNode, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var nodes []feed.RawNode
	lineNum := 0
	skipped := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			skipped++
			continue
		}
		rec := gjson.ParseBytes(line)
		if !rec.IsObject() {
			skipped++
			continue
		}
		n := DecodeNode(rec)
		n.Line = lineNum
		if !rec.Get("position").Exists() {
			n.Position = len(nodes)
		}
		nodes = append(nodes, n)
	}
	return nodes, skipped, scanner.Err()
}

// DecodeNode maps one JSON object onto a RawNode. Missing fields stay zero.
func DecodeNode(rec gjson.Result) feed.RawNode {
	n := feed.RawNode{
		Position:    int(rec.Get("position").Int()),
		Text:        truncate(rec.Get("text").String()),
		Hints:       stringList(rec.Get("hints")),
		Attachments: stringList(rec.Get("attachments")),
	}
	if attrs := rec.Get("attrs"); attrs.IsObject() {
		n.Attrs = make(map[string]string)
		attrs.ForEach(func(k, v gjson.Result) bool {
			n.Attrs[k.String()] = v.String()
			return true
		})
	}
	own := fragment(rec)
	n.TimestampTexts = own.TimestampTexts
	n.TimeElements = own.TimeElements
	for _, s := range rec.Get("siblings").Array() {
		n.Siblings = append(n.Siblings, fragment(s))
	}
	return n
}

func fragment(rec gjson.Result) feed.Fragment {
	f := feed.Fragment{
		Text:           truncate(rec.Get("text").String()),
		TimestampTexts: stringList(rec.Get("timestamp_texts")),
	}
	for _, el := range rec.Get("time_elements").Array() {
		f.TimeElements = append(f.TimeElements, feed.TimeElement{
			Datetime: el.Get("datetime").String(),
			Text:     el.Get("text").String(),
		})
	}
	return f
}

func stringList(r gjson.Result) []string {
	var out []string
	for _, v := range r.Array() {
		if s := v.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// truncate caps s at maxTextSize bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= maxTextSize {
		return s
	}
	cut := maxTextSize
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
