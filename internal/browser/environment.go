// Package browser abstracts the browser that owns the tabs.
package browser

import (
	"context"
	"errors"
	"strings"

	"github.com/atomicstack/tab-popup-control/internal/tab"
)

// ErrTabNotFound reports a tab id the browser no longer knows about.
var ErrTabNotFound = errors.New("tab not found")

// Environment is everything the registry needs from a browser.
type Environment interface {
	ListAllTabs(ctx context.Context) ([]RawTab, error)
	GetTab(ctx context.Context, id tab.ID) (RawTab, error)
	ActiveTab(ctx context.Context) (RawTab, error)
	ActivateTab(ctx context.Context, id tab.ID) error
	FocusWindow(ctx context.Context, id tab.WindowID) error
	Events() <-chan Event
	Close() error
}

// RawTab is a tab as the browser reports it, before defaults are applied.
type RawTab struct {
	ID         tab.ID
	Title      string
	URL        string
	FavIconURL string
	Active     bool
	WindowID   tab.WindowID
}

// Tab converts the raw record into a registry tab, filling in the title
// placeholder and a favicon derived from the URL host when missing.
func (r RawTab) Tab() tab.Tab {
	title := r.Title
	if strings.TrimSpace(title) == "" {
		title = tab.TitlePlaceholder
	}
	favicon := r.FavIconURL
	if favicon == "" {
		favicon = tab.ResolveFavicon(r.URL)
	}
	return tab.Tab{
		ID:       r.ID,
		Title:    title,
		URL:      r.URL,
		Active:   r.Active,
		WindowID: r.WindowID,
		Favicon:  favicon,
	}
}

// EventKind classifies pushed tab events.
type EventKind int

const (
	EventActivated EventKind = iota
	EventCreated
	EventUpdated
	EventRemoved
)

func (k EventKind) String() string {
	switch k {
	case EventActivated:
		return "activated"
	case EventCreated:
		return "created"
	case EventUpdated:
		return "updated"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is a tab lifecycle notification.
type Event struct {
	Kind     EventKind
	TabID    tab.ID
	WindowID tab.WindowID
}
