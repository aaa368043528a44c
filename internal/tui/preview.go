package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/quickshoe/Replit-Export-sub000/internal/index"
	"github.com/quickshoe/Replit-Export-sub000/internal/render"
	"github.com/quickshoe/Replit-Export-sub000/internal/search"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	exportKey string
	eventID   int
	content   string
	hitLine   int
	err       error
}

// loadPreviewCmd returns a tea.Cmd that renders the timeline preview async.
func loadPreviewCmd(db *index.DB, r search.Result, query string, width int) tea.Cmd {
	return func() tea.Msg {
		content, hitLine, err := render.RenderExport(db, r.ExportKey, render.Options{
			HitEventID: r.EventID,
			Context:    -1,
			Width:      width,
			Query:      query,
		})
		return previewRenderedMsg{
			exportKey: r.ExportKey,
			eventID:   r.EventID,
			content:   content,
			hitLine:   hitLine,
			err:       err,
		}
	}
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
