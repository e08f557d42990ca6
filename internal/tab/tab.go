package tab

import (
	"fmt"
	"net/url"
	"strings"
)

// ID identifies a tab for its whole lifetime.
type ID string

// WindowID identifies the browser window that owns a tab.
type WindowID int64

// TitlePlaceholder is shown for tabs that have not reported a title yet.
const TitlePlaceholder = "Loading..."

const faviconService = "https://www.google.com/s2/favicons?domain=%s&sz=16"

// Tab is the record exchanged between the registry and the overlay.
type Tab struct {
	ID       ID       `json:"id"`
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Active   bool     `json:"active"`
	WindowID WindowID `json:"windowId"`
	Favicon  string   `json:"favicon"`
}

// Clone returns a copy of the provided tabs backed by a new array.
func Clone(tabs []Tab) []Tab {
	if tabs == nil {
		return nil
	}
	dup := make([]Tab, len(tabs))
	copy(dup, tabs)
	return dup
}

// IndexOf returns the position of id within tabs, or -1.
func IndexOf(tabs []Tab, id ID) int {
	for i, t := range tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// ResolveFavicon derives a favicon-service URL from the host of rawURL.
// An empty string is returned when no host can be parsed.
func ResolveFavicon(rawURL string) string {
	host := hostname(rawURL)
	if host == "" {
		return ""
	}
	return fmt.Sprintf(faviconService, url.QueryEscape(host))
}

func hostname(rawURL string) string {
	if strings.TrimSpace(rawURL) == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
