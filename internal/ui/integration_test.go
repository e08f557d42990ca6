package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/atomicstack/tab-popup-control/internal/backend"
	"github.com/atomicstack/tab-popup-control/internal/browser"
	"github.com/atomicstack/tab-popup-control/internal/browser/browsertest"
	"github.com/atomicstack/tab-popup-control/internal/protocol"
	"github.com/atomicstack/tab-popup-control/internal/registry"
	"github.com/atomicstack/tab-popup-control/internal/tab"
	"github.com/atomicstack/tab-popup-control/internal/transport"
)

type daemon struct {
	env *browsertest.Env
	svc *registry.Service
	url string
}

func startDaemon(t *testing.T, env *browsertest.Env) *daemon {
	t.Helper()
	srv := transport.NewServer(nil)
	svc := registry.New(env, srv)
	srv.SetHandler(svc)
	ts := httptest.NewServer(http.HandlerFunc(srv.ServeWS))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
		cancel()
		if err := <-done; err != nil {
			t.Errorf("expected clean registry shutdown, got %v", err)
		}
	})
	return &daemon{env: env, svc: svc, url: "ws" + strings.TrimPrefix(ts.URL, "http")}
}

func dialPage(t *testing.T, url string, role protocol.Role) *transport.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := transport.Dial(ctx, url, role)
	if err != nil {
		t.Fatalf("expected dial to succeed, got %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func waitHistory(t *testing.T, svc *registry.Service, want []tab.ID) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	var got []tab.ID
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		got = svc.History(ctx)
		cancel()
		if reflect.DeepEqual(got, want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected history %v, got %v", want, got)
}

func TestSwitcherEndToEnd(t *testing.T) {
	env := browsertest.New(
		browser.RawTab{ID: "1", Title: "A", URL: "https://a.test/", WindowID: 1, Active: true},
		browser.RawTab{ID: "2", Title: "B", URL: "https://b.test/", WindowID: 1},
		browser.RawTab{ID: "3", Title: "C", URL: "https://c.test/", WindowID: 1},
	)
	d := startDaemon(t, env)
	waitHistory(t, d.svc, []tab.ID{"1"})

	env.SetActive("3")
	env.Emit(browser.Event{Kind: browser.EventActivated, TabID: "3", WindowID: 1})
	waitHistory(t, d.svc, []tab.ID{"3", "1"})

	// The user is on tab 2 now; the browser has not reported it yet.
	env.SetActive("2")

	page := dialPage(t, d.url, protocol.RoleOverlay)
	cli := dialPage(t, d.url, protocol.RoleCLI)
	h := NewHarness(NewModel(Options{}, page, nil))

	toggled := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := cli.Request(ctx, protocol.ToggleRequest{})
		toggled <- err
	}()

	select {
	case push := <-page.Incoming():
		h.Send(backendEventMsg{event: backend.Event{Kind: backend.KindPush, Push: push}})
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the switcher push")
	}
	if err := <-toggled; err != nil {
		t.Fatalf("expected toggle acknowledged, got %v", err)
	}

	s := h.Model().Session()
	if !s.Visible() {
		t.Fatal("expected switcher visible")
	}
	if got := ids(s.Tabs()); !reflect.DeepEqual(got, []tab.ID{"3", "2", "1"}) {
		t.Fatalf("expected shown order [3 2 1], got %v", got)
	}
	if s.CurrentID() != "2" {
		t.Fatalf("expected current tab 2, got %s", s.CurrentID())
	}

	h.Type("C")
	if got := ids(s.Tabs()); !reflect.DeepEqual(got, []tab.ID{"3"}) {
		t.Fatalf("expected filter to leave [3], got %v", got)
	}
	if s.Selected() != 0 {
		t.Fatalf("expected selection 0, got %d", s.Selected())
	}

	h.Key("enter")
	if s.Visible() {
		t.Fatal("expected commit to hide the switcher")
	}
	if h.Model().errMsg != "" {
		t.Fatalf("expected clean switch, got error %q", h.Model().errMsg)
	}
	activated, focused := env.Calls()
	if !reflect.DeepEqual(activated, []tab.ID{"3"}) {
		t.Fatalf("expected activation of 3, got %v", activated)
	}
	if !reflect.DeepEqual(focused, []tab.WindowID{1}) {
		t.Fatalf("expected window 1 focused, got %v", focused)
	}
	waitHistory(t, d.svc, []tab.ID{"3", "1"})
}

func TestToggleFromOverlayPageWithoutDaemonTabs(t *testing.T) {
	env := browsertest.New()
	d := startDaemon(t, env)
	page := dialPage(t, d.url, protocol.RoleOverlay)
	h := NewHarness(NewModel(Options{}, page, nil))

	h.Key("ctrl+k")
	if h.Model().Session().Visible() {
		t.Fatal("expected nothing shown without an active tab")
	}
	if h.Model().errMsg != "" {
		t.Fatalf("expected toggle acknowledged without error, got %q", h.Model().errMsg)
	}
}
