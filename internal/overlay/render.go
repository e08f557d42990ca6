package overlay

import (
	"strings"

	"github.com/atomicstack/tab-popup-control/internal/tab"
)

const (
	Placeholder   = "Search tabs..."
	FooterHint    = "↑↓ Navigate • Enter Select • Esc Cancel • Ctrl+K Toggle"
	EmptyMessage  = "No matching tabs"
	ActiveMarker  = "●"
	FaviconGlyph  = "◆"
	FallbackGlyph = "💀"
)

// RenderOptions bounds what Render emits.
type RenderOptions struct {
	MaxRows    int
	ShowFooter bool
}

// Row is one visible tab.
type Row struct {
	Index    int
	ID       tab.ID
	Title    string
	URL      string
	Glyph    string
	Active   bool
	Selected bool
}

// Frame is everything a front end needs to draw the overlay.
type Frame struct {
	Visible     bool
	Query       string
	QueryCursor int
	Placeholder string
	Rows        []Row
	Empty       string
	Footer      string
	Total       int
	Matches     int
	Offset      int
	Cycling     bool
}

// Render maps the session onto render instructions. It does not modify the
// session; the emitted window starts at the session offset, shifted only as
// far as needed to include the selection.
func Render(s *Session, opts RenderOptions) Frame {
	if !s.Visible() {
		return Frame{}
	}
	offset := visibleOffset(s.offset, s.selected, len(s.filtered), opts.MaxRows)
	f := Frame{
		Visible:     true,
		Query:       s.query,
		QueryCursor: s.QueryCursor(),
		Total:       len(s.full),
		Matches:     len(s.filtered),
		Offset:      offset,
		Cycling:     s.cycling,
	}
	if s.query == "" {
		f.Placeholder = Placeholder
	}
	if opts.ShowFooter {
		f.Footer = FooterHint
	}
	if len(s.filtered) == 0 {
		f.Empty = EmptyMessage
		return f
	}
	end := len(s.filtered)
	if opts.MaxRows > 0 && offset+opts.MaxRows < end {
		end = offset + opts.MaxRows
	}
	f.Rows = make([]Row, 0, end-offset)
	for i := offset; i < end; i++ {
		t := s.filtered[i]
		glyph := FallbackGlyph
		if strings.TrimSpace(t.Favicon) != "" {
			glyph = FaviconGlyph
		}
		f.Rows = append(f.Rows, Row{
			Index:    i,
			ID:       t.ID,
			Title:    t.Title,
			URL:      ShortenURL(t.URL),
			Glyph:    glyph,
			Active:   t.Active,
			Selected: i == s.selected,
		})
	}
	return f
}
