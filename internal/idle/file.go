package idle

import (
	"context"
	"os"
	"strings"

	"github.com/quickshoe/Replit-Export-sub000/internal/snapshot"
)

// DefaultBusyMarker is the text the feed shows while the agent is working.
const DefaultBusyMarker = "Working..."

// FileProbe reads both signals from a snapshot file that a capture tool
// keeps appending to.
type FileProbe struct {
	Path      string
	Marker    string
	TailNodes int
}

// BusyMarker reports whether the last node carries the busy marker.
func (p FileProbe) BusyMarker(ctx context.Context) (bool, error) {
	snap, err := p.read(ctx)
	if err != nil {
		return false, err
	}
	if len(snap.Tail) == 0 {
		return false, nil
	}
	marker := p.Marker
	if marker == "" {
		marker = DefaultBusyMarker
	}
	last := strings.TrimSpace(snap.Tail[len(snap.Tail)-1])
	return strings.Contains(strings.ToLower(last), strings.ToLower(marker)), nil
}

// Tail returns the node count and the text of the last TailNodes nodes.
func (p FileProbe) Tail(ctx context.Context) (Snapshot, error) {
	return p.read(ctx)
}

func (p FileProbe) read(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	f, err := os.Open(p.Path)
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()

	nodes, _, err := snapshot.Decode(f)
	if err != nil {
		return Snapshot{}, err
	}
	n := p.TailNodes
	if n <= 0 {
		n = 5
	}
	start := len(nodes) - n
	if start < 0 {
		start = 0
	}
	snap := Snapshot{Count: len(nodes)}
	for _, node := range nodes[start:] {
		snap.Tail = append(snap.Tail, node.Text)
	}
	return snap, nil
}
