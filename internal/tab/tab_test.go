package tab

import "testing"

func TestResolveFavicon(t *testing.T) {
	got := ResolveFavicon("https://github.com/atomicstack")
	want := "https://www.google.com/s2/favicons?domain=github.com&sz=16"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := ResolveFavicon("http://localhost:8080/x"); got != "https://www.google.com/s2/favicons?domain=localhost&sz=16" {
		t.Fatalf("expected port stripped from host, got %q", got)
	}
}

func TestResolveFaviconFallsBackToEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "about:blank", "::not a url"} {
		if got := ResolveFavicon(raw); got != "" {
			t.Fatalf("expected empty favicon for %q, got %q", raw, got)
		}
	}
}

func TestCloneAllocatesNewArray(t *testing.T) {
	tabs := []Tab{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}}
	dup := Clone(tabs)
	dup[0].Title = "changed"
	if tabs[0].Title != "A" {
		t.Fatalf("expected original untouched, got %q", tabs[0].Title)
	}
	if Clone(nil) != nil {
		t.Fatalf("expected nil clone for nil input")
	}
}

func TestIndexOf(t *testing.T) {
	tabs := []Tab{{ID: "1"}, {ID: "2"}}
	if idx := IndexOf(tabs, "2"); idx != 1 {
		t.Fatalf("expected index 1, got %d", idx)
	}
	if idx := IndexOf(tabs, "9"); idx != -1 {
		t.Fatalf("expected -1, got %d", idx)
	}
}
