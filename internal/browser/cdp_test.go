package browser

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/chromedp/cdproto/target"

	"github.com/atomicstack/tab-popup-control/internal/logging"
)

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestFetchTargetList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/list" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"A","type":"page","url":"https://a.test"},{"id":"W","type":"service_worker","url":"https://a.test/sw.js"}]`))
	}))
	defer srv.Close()

	entries, err := fetchTargetList(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "A" || entries[1].Type != "service_worker" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestFetchTargetListHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := fetchTargetList(context.Background(), srv.URL); err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected HTTP 503 error, got %v", err)
	}
}

func TestDialCDPRequiresPageTarget(t *testing.T) {
	orig := fetchTargetList
	defer func() { fetchTargetList = orig }()
	fetchTargetList = func(context.Context, string) ([]listEntry, error) {
		return []listEntry{{ID: "D", Type: "page", URL: "devtools://devtools/bundled/inspector.html"}}, nil
	}
	if _, err := DialCDP(context.Background(), "http://127.0.0.1:1"); err == nil || !strings.Contains(err.Error(), "no page target") {
		t.Fatalf("expected missing page error, got %v", err)
	}

	fetchTargetList = func(context.Context, string) ([]listEntry, error) {
		return nil, errors.New("refused")
	}
	if _, err := DialCDP(context.Background(), "http://127.0.0.1:1"); err == nil || !strings.Contains(err.Error(), "refused") {
		t.Fatalf("expected list error, got %v", err)
	}
}

func newDetachedCDP() *CDP {
	return &CDP{
		events: make(chan Event, eventBuffer),
		probe:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func TestHandleEventPublishesPageEvents(t *testing.T) {
	c := newDetachedCDP()
	c.handleEvent(&target.EventTargetCreated{TargetInfo: &target.Info{TargetID: "1", Type: "page", URL: "https://a.test"}})
	c.handleEvent(&target.EventTargetCreated{TargetInfo: &target.Info{TargetID: "2", Type: "iframe"}})
	c.handleEvent(&target.EventTargetInfoChanged{TargetInfo: &target.Info{TargetID: "1", Type: "page", URL: "https://b.test"}})
	c.handleEvent(&target.EventTargetDestroyed{TargetID: "1"})

	want := []Event{
		{Kind: EventCreated, TabID: "1"},
		{Kind: EventUpdated, TabID: "1"},
		{Kind: EventRemoved, TabID: "1"},
	}
	for i, w := range want {
		select {
		case got := <-c.Events():
			if got != w {
				t.Fatalf("event %d: expected %+v, got %+v", i, w, got)
			}
		default:
			t.Fatalf("event %d: expected %+v, got nothing", i, w)
		}
	}
	if len(c.probe) != 1 {
		t.Fatalf("expected a pending front probe")
	}
}

func TestObserveFrontPublishesActivationOnChange(t *testing.T) {
	c := newDetachedCDP()
	c.observeFront("1")
	c.observeFront("1")
	c.observeFront("2")
	if len(c.events) != 2 {
		t.Fatalf("expected 2 activation events, got %d", len(c.events))
	}
	first, second := <-c.events, <-c.events
	if first.TabID != "1" || second.TabID != "2" || second.Kind != EventActivated {
		t.Fatalf("unexpected activations %+v %+v", first, second)
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	c := newDetachedCDP()
	for i := 0; i < eventBuffer+5; i++ {
		c.publish(Event{Kind: EventUpdated, TabID: "x"})
	}
	if len(c.events) != eventBuffer {
		t.Fatalf("expected buffer to stay at %d, got %d", eventBuffer, len(c.events))
	}
}
