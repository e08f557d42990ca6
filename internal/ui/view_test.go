package ui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/atomicstack/tab-popup-control/internal/overlay"
	"github.com/atomicstack/tab-popup-control/internal/tab"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

func TestHiddenViewShowsIdleHint(t *testing.T) {
	h, _ := newTestHarness(Options{})
	view := h.View()
	if !strings.Contains(view, idleHint) {
		t.Fatalf("expected idle hint, got %q", view)
	}
	if strings.Contains(view, headerTitle) {
		t.Fatalf("expected no switcher header while hidden, got %q", view)
	}
}

func TestVisibleViewRendersRows(t *testing.T) {
	h, _ := shownHarness(t, Options{ShowFooter: true})
	view := h.View()

	for _, want := range []string{
		"Switch tab (3/3)",
		"C  c.test/",
		"A  a.test/",
		overlay.ActiveMarker,
		overlay.FaviconGlyph,
		overlay.FallbackGlyph,
		overlay.FooterHint,
		"earch tabs...",
	} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view, got:\n%s", want, view)
		}
	}
	lines := strings.Split(view, "\n")
	if !strings.Contains(lines[1], "C") || !strings.Contains(lines[2], "B") || !strings.Contains(lines[3], "A") {
		t.Fatalf("expected rows in pinned order C,B,A, got:\n%s", view)
	}
}

func TestVisibleViewEmptyState(t *testing.T) {
	h, _ := shownHarness(t, Options{})
	h.Type("nothing")
	view := h.View()
	if !strings.Contains(view, overlay.EmptyMessage) {
		t.Fatalf("expected empty message, got %q", view)
	}
	if !strings.Contains(view, "Switch tab (0/3)") {
		t.Fatalf("expected match count in header, got %q", view)
	}
}

func TestViewRespectsWidth(t *testing.T) {
	tabs := []tab.Tab{{ID: "1", Title: strings.Repeat("very long title ", 10), URL: "https://example.test/" + strings.Repeat("x", 80)}}
	h, _ := newTestHarness(Options{Width: 30, ShowFooter: true})
	h.Send(showPush("p", tabs, "1"))
	for _, line := range strings.Split(h.View(), "\n") {
		if w := ansi.StringWidth(line); w > 30 {
			t.Fatalf("expected line within 30 cells, got %d: %q", w, line)
		}
	}
}

func TestViewportFollowsSelection(t *testing.T) {
	tabs := make([]tab.Tab, 20)
	for i := range tabs {
		tabs[i] = tab.Tab{ID: tab.ID(fmt.Sprint(i)), Title: fmt.Sprintf("tab-%02d", i), URL: "https://t.test/"}
	}
	h, _ := newTestHarness(Options{})
	h.Send(tea.WindowSizeMsg{Width: 40, Height: 8})
	h.Send(showPush("p", tabs, "0"))

	if rows := h.Model().maxVisibleItems(); rows != 5 {
		t.Fatalf("expected 5 visible rows, got %d", rows)
	}
	view := h.View()
	if strings.Contains(view, "tab-05") {
		t.Fatalf("expected only the first page, got:\n%s", view)
	}
	for i := 0; i < 7; i++ {
		h.Key("down")
	}
	view = h.View()
	if !strings.Contains(view, "tab-07") {
		t.Fatalf("expected selection scrolled into view, got:\n%s", view)
	}
	if strings.Contains(view, "tab-00") {
		t.Fatalf("expected first row scrolled away, got:\n%s", view)
	}
	if n := len(strings.Split(view, "\n")); n > 8 {
		t.Fatalf("expected view within 8 lines, got %d", n)
	}
}

func TestCyclingShowsHint(t *testing.T) {
	h, _ := shownHarness(t, Options{})
	h.Key("tab")
	if !strings.Contains(h.View(), cycleHint) {
		t.Fatalf("expected cycle hint, got %q", h.View())
	}
}
