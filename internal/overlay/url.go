package overlay

import "net/url"

const maxRawURL = 60

// ShortenURL shows host and path. URLs without a host come back as the raw
// string truncated to 60 runes plus "...".
func ShortenURL(raw string) string {
	u, err := url.Parse(raw)
	if err == nil && u.Host != "" {
		return u.Hostname() + u.EscapedPath()
	}
	runes := []rune(raw)
	if len(runes) <= maxRawURL {
		return raw
	}
	return string(runes[:maxRawURL]) + "..."
}
