package feed

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Kind string

const (
	KindMessage    Kind = "message"
	KindCheckpoint Kind = "checkpoint"
	KindWork       Kind = "work"
	KindNoise      Kind = "noise"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Money is a dollar amount as rendered in the feed.
type Money struct {
	Cents int64  `json:"cents"`
	Text  string `json:"text"`
}

func (m Money) String() string {
	return fmt.Sprintf("$%d.%02d", m.Cents/100, m.Cents%100)
}

// ParseMoney parses "12.5" or "$1,234.56" into cents.
func ParseMoney(s string) (Money, bool) {
	raw := strings.TrimSpace(s)
	num := strings.ReplaceAll(strings.TrimPrefix(raw, "$"), ",", "")
	num = strings.TrimSpace(num)
	if num == "" {
		return Money{}, false
	}
	whole, frac, _ := strings.Cut(num, ".")
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 {
		return Money{}, false
	}
	var f int64
	if frac != "" {
		for len(frac) < 2 {
			frac += "0"
		}
		f, err = strconv.ParseInt(frac[:2], 10, 64)
		if err != nil {
			return Money{}, false
		}
	}
	if !strings.HasPrefix(raw, "$") {
		raw = "$" + raw
	}
	return Money{Cents: w*100 + f, Text: raw}, true
}

// Event is the tagged union produced by classification. Only the fields
// of the active Kind are populated. A zero Timestamp means unknown.
type Event struct {
	Kind      Kind      `json:"kind"`
	Position  int       `json:"position"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	Line      int       `json:"line,omitempty"`

	// message
	Role        Role     `json:"role,omitempty"`
	Content     string   `json:"content,omitempty"`
	Attachments []string `json:"attachments,omitempty"`

	// checkpoint
	Description string `json:"description,omitempty"`
	Cost        *Money `json:"cost,omitempty"`
	Correlated  bool   `json:"correlated,omitempty"`

	// work
	TimeWorkedText  string `json:"time_worked,omitempty"`
	DurationSeconds *int   `json:"duration_seconds,omitempty"`
	ActionsCount    *int   `json:"actions,omitempty"`
	LinesRead       *int   `json:"lines_read,omitempty"`
	CodeAdded       *int   `json:"code_added,omitempty"`
	CodeRemoved     *int   `json:"code_removed,omitempty"`
	UsageCost       *Money `json:"usage_cost,omitempty"`
}

// Text returns the human-readable body of the event regardless of kind.
func (e Event) Text() string {
	switch e.Kind {
	case KindMessage:
		return e.Content
	case KindCheckpoint:
		return e.Description
	case KindWork:
		var parts []string
		if e.TimeWorkedText != "" {
			parts = append(parts, "Worked for "+e.TimeWorkedText)
		}
		if e.ActionsCount != nil {
			parts = append(parts, fmt.Sprintf("%d actions", *e.ActionsCount))
		}
		if e.LinesRead != nil {
			parts = append(parts, fmt.Sprintf("%d lines read", *e.LinesRead))
		}
		if e.CodeAdded != nil || e.CodeRemoved != nil {
			parts = append(parts, fmt.Sprintf("+%d -%d", deref(e.CodeAdded), deref(e.CodeRemoved)))
		}
		if e.UsageCost != nil {
			parts = append(parts, e.UsageCost.String())
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// Timeline is the durable output of the pipeline.
type Timeline struct {
	Events          []Event `json:"events"`
	RepairCount     int     `json:"repair_count"`
	CorrelatedCount int     `json:"correlated_count"`
	DuplicateCount  int     `json:"duplicate_count"`
	NoiseCount      int     `json:"noise_count"`
}

// Checkpoints returns the indexes of checkpoint events.
func (t Timeline) Checkpoints() []int {
	var idx []int
	for i, e := range t.Events {
		if e.Kind == KindCheckpoint {
			idx = append(idx, i)
		}
	}
	return idx
}

// SliceAccessor serves nodes from memory.
type SliceAccessor []RawNode

func (s SliceAccessor) Count(ctx context.Context) (int, error) {
	return len(s), ctx.Err()
}

func (s SliceAccessor) Read(ctx context.Context, i int) (RawNode, error) {
	if err := ctx.Err(); err != nil {
		return RawNode{}, err
	}
	if i < 0 || i >= len(s) {
		return RawNode{}, fmt.Errorf("node %d out of range", i)
	}
	return s[i], nil
}

// StaticCommits serves a fixed commit list.
type StaticCommits []CommitRecord

func (s StaticCommits) List(ctx context.Context) ([]CommitRecord, error) {
	out := make([]CommitRecord, len(s))
	copy(out, s)
	return out, ctx.Err()
}
