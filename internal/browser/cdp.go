package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/atomicstack/tab-popup-control/internal/logging"
	"github.com/atomicstack/tab-popup-control/internal/tab"
)

const eventBuffer = 64

// listEntry is one row of the DevTools HTTP /json/list endpoint.
type listEntry struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// fetchTargetList is swapped in tests.
var fetchTargetList = func(ctx context.Context, base string) ([]listEntry, error) {
	listCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(listCtx, http.MethodGet, strings.TrimRight(base, "/")+"/json/list", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("/json/list: HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var entries []listEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("/json/list: %w", err)
	}
	return entries, nil
}

// CDP drives a Chromium-family browser over the DevTools protocol.
//
// Chrome exposes no activation event, but it lists page targets most
// recently focused first. The first page target is treated as the active
// tab, and whenever that changes an EventActivated is published.
type CDP struct {
	allocCancel context.CancelFunc
	tabCancel   context.CancelFunc
	browser     cdp.Executor

	events chan Event
	probe  chan struct{}
	done   chan struct{}
	once   sync.Once

	mu    sync.Mutex
	front tab.ID
}

// DialCDP attaches to an existing page target of the browser listening at
// cdpURL (for example http://127.0.0.1:9222) without opening a new tab.
func DialCDP(ctx context.Context, cdpURL string) (*CDP, error) {
	entries, err := fetchTargetList(ctx, cdpURL)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	anchor := ""
	for _, e := range entries {
		if isTabTarget(e.Type, e.URL) {
			anchor = e.ID
			break
		}
	}
	if anchor == "" {
		return nil, fmt.Errorf("no page target to attach to at %s", cdpURL)
	}

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), cdpURL)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithTargetID(target.ID(anchor)))
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("attach to browser: %w", err)
	}

	c := &CDP{
		allocCancel: allocCancel,
		tabCancel:   tabCancel,
		browser:     chromedp.FromContext(tabCtx).Browser,
		events:      make(chan Event, eventBuffer),
		probe:       make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
	chromedp.ListenBrowser(tabCtx, c.handleEvent)
	if err := target.SetDiscoverTargets(true).Do(c.exec(ctx)); err != nil {
		c.Close()
		return nil, fmt.Errorf("discover targets: %w", err)
	}
	go c.probeLoop()
	logging.Info("attached to browser", "url", cdpURL, "anchor", anchor)
	return c, nil
}

func isTabTarget(kind, url string) bool {
	return kind == "page" && !strings.HasPrefix(url, "devtools://")
}

func (c *CDP) exec(ctx context.Context) context.Context {
	return cdp.WithExecutor(ctx, c.browser)
}

func (c *CDP) pages(ctx context.Context) ([]*target.Info, error) {
	infos, err := target.GetTargets().Do(c.exec(ctx))
	if err != nil {
		return nil, fmt.Errorf("get targets: %w", err)
	}
	pages := infos[:0]
	for _, info := range infos {
		if isTabTarget(info.Type, info.URL) {
			pages = append(pages, info)
		}
	}
	if len(pages) > 0 {
		c.observeFront(tab.ID(pages[0].TargetID))
	}
	return pages, nil
}

func (c *CDP) raw(ctx context.Context, info *target.Info, active bool) (RawTab, error) {
	windowID, _, err := browser.GetWindowForTarget().WithTargetID(info.TargetID).Do(c.exec(ctx))
	if err != nil {
		return RawTab{}, fmt.Errorf("window for %s: %w", info.TargetID, err)
	}
	return RawTab{
		ID:       tab.ID(info.TargetID),
		Title:    info.Title,
		URL:      info.URL,
		Active:   active,
		WindowID: tab.WindowID(windowID),
	}, nil
}

func (c *CDP) ListAllTabs(ctx context.Context) ([]RawTab, error) {
	pages, err := c.pages(ctx)
	if err != nil {
		return nil, err
	}
	tabs := make([]RawTab, 0, len(pages))
	for i, info := range pages {
		raw, err := c.raw(ctx, info, i == 0)
		if err != nil {
			return nil, err
		}
		tabs = append(tabs, raw)
	}
	return tabs, nil
}

func (c *CDP) GetTab(ctx context.Context, id tab.ID) (RawTab, error) {
	info, err := target.GetTargetInfo().WithTargetID(target.ID(id)).Do(c.exec(ctx))
	if err != nil || info == nil || !isTabTarget(info.Type, info.URL) {
		return RawTab{}, fmt.Errorf("%w: %s", ErrTabNotFound, id)
	}
	c.mu.Lock()
	active := c.front == id
	c.mu.Unlock()
	return c.raw(ctx, info, active)
}

func (c *CDP) ActiveTab(ctx context.Context) (RawTab, error) {
	pages, err := c.pages(ctx)
	if err != nil {
		return RawTab{}, err
	}
	if len(pages) == 0 {
		return RawTab{}, fmt.Errorf("%w: no active tab", ErrTabNotFound)
	}
	return c.raw(ctx, pages[0], true)
}

func (c *CDP) ActivateTab(ctx context.Context, id tab.ID) error {
	if err := target.ActivateTarget(target.ID(id)).Do(c.exec(ctx)); err != nil {
		return fmt.Errorf("activate %s: %w", id, err)
	}
	c.observeFront(id)
	return nil
}

// FocusWindow restores a minimised window. Activating a target already
// raises its window, so a normal window needs no further work.
func (c *CDP) FocusWindow(ctx context.Context, id tab.WindowID) error {
	bounds, err := browser.GetWindowBounds(browser.WindowID(id)).Do(c.exec(ctx))
	if err != nil {
		return fmt.Errorf("window bounds %d: %w", id, err)
	}
	if bounds == nil || bounds.WindowState != browser.WindowStateMinimized {
		return nil
	}
	err = browser.SetWindowBounds(browser.WindowID(id), &browser.Bounds{WindowState: browser.WindowStateNormal}).Do(c.exec(ctx))
	if err != nil {
		return fmt.Errorf("restore window %d: %w", id, err)
	}
	return nil
}

func (c *CDP) Events() <-chan Event {
	return c.events
}

func (c *CDP) Close() error {
	c.once.Do(func() {
		close(c.done)
		c.tabCancel()
		c.allocCancel()
	})
	return nil
}

// handleEvent runs on chromedp's event goroutine and must not block.
func (c *CDP) handleEvent(ev interface{}) {
	switch e := ev.(type) {
	case *target.EventTargetCreated:
		if e.TargetInfo != nil && isTabTarget(e.TargetInfo.Type, e.TargetInfo.URL) {
			c.publish(Event{Kind: EventCreated, TabID: tab.ID(e.TargetInfo.TargetID)})
			c.requestProbe()
		}
	case *target.EventTargetInfoChanged:
		if e.TargetInfo != nil && isTabTarget(e.TargetInfo.Type, e.TargetInfo.URL) {
			c.publish(Event{Kind: EventUpdated, TabID: tab.ID(e.TargetInfo.TargetID)})
			c.requestProbe()
		}
	case *target.EventTargetDestroyed:
		c.publish(Event{Kind: EventRemoved, TabID: tab.ID(e.TargetID)})
		c.requestProbe()
	}
}

func (c *CDP) requestProbe() {
	select {
	case c.probe <- struct{}{}:
	default:
	}
}

// probeLoop re-reads the target order off the event goroutine so a
// change of front tab can be published as an activation.
func (c *CDP) probeLoop() {
	for {
		select {
		case <-c.done:
			return
		case <-c.probe:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if _, err := c.pages(ctx); err != nil {
				logging.Debug("front tab probe failed", "error", err)
			}
			cancel()
		}
	}
}

func (c *CDP) observeFront(id tab.ID) {
	c.mu.Lock()
	changed := c.front != id
	c.front = id
	c.mu.Unlock()
	if changed {
		c.publish(Event{Kind: EventActivated, TabID: id})
	}
}

func (c *CDP) publish(ev Event) {
	select {
	case <-c.done:
	case c.events <- ev:
	default:
		logging.Warn("dropping browser event, consumer is behind", "kind", ev.Kind.String(), "tab", string(ev.TabID))
	}
}
