package feed

import (
	"context"
	"strings"
	"time"
)

// Structural hints attached to a node by the capture tool.
const (
	HintUser              = "user"
	HintUserMarker        = "user-marker"
	HintCheckpoint        = "checkpoint"
	HintExpandableSummary = "expandable-summary"
	HintExpandControl     = "has-expand-control"
	HintEndOfRun          = "end-of-run"
)

// Attribute keys read from RawNode.Attrs.
const (
	AttrPreciseDuration = "precise-duration" // hover tooltip on a work summary
	AttrCheckpoint      = "checkpoint"
)

// TimeElement is a generic <time>-like element: a machine-readable
// datetime attribute plus whatever text it renders.
type TimeElement struct {
	Datetime string `json:"datetime,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Fragment is the part of a node subtree that can carry a timestamp.
type Fragment struct {
	Text           string        `json:"text,omitempty"`
	TimestampTexts []string      `json:"timestamp_texts,omitempty"`
	TimeElements   []TimeElement `json:"time_elements,omitempty"`
}

// RawNode is one rendered conversation item as returned by a NodeAccessor.
type RawNode struct {
	Position       int
	Text           string
	Hints          []string
	Attrs          map[string]string
	Attachments    []string // user messages only
	TimestampTexts []string
	TimeElements   []TimeElement
	Siblings       []Fragment // following siblings, nearest first
	Line           int        // line in the snapshot file, 0 when synthetic
}

// HasHint reports whether the node carries any of the given hints.
func (n RawNode) HasHint(hints ...string) bool {
	for _, h := range n.Hints {
		for _, want := range hints {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				return true
			}
		}
	}
	return false
}

// Attr returns a trimmed attribute value, "" when absent.
func (n RawNode) Attr(key string) string {
	if n.Attrs == nil {
		return ""
	}
	return strings.TrimSpace(n.Attrs[key])
}

// Own returns the node's own subtree as a Fragment.
func (n RawNode) Own() Fragment {
	return Fragment{
		Text:           n.Text,
		TimestampTexts: n.TimestampTexts,
		TimeElements:   n.TimeElements,
	}
}

// NodeAccessor yields nodes in source order. Read may be a remote
// round-trip; callers read strictly in order.
type NodeAccessor interface {
	Count(ctx context.Context) (int, error)
	Read(ctx context.Context, i int) (RawNode, error)
}

// CommitRecord is one entry from an external commit history.
type CommitRecord struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// Subject returns the first non-empty line of the commit message.
func (c CommitRecord) Subject() string {
	for _, line := range strings.Split(c.Message, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}

// CommitSource lists commits in no particular order.
type CommitSource interface {
	List(ctx context.Context) ([]CommitRecord, error)
}
