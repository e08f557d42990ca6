package registry

import (
	"context"
	"fmt"

	"github.com/atomicstack/tab-popup-control/internal/browser"
	"github.com/atomicstack/tab-popup-control/internal/logging"
	"github.com/atomicstack/tab-popup-control/internal/logging/events"
	"github.com/atomicstack/tab-popup-control/internal/protocol"
	"github.com/atomicstack/tab-popup-control/internal/recency"
	"github.com/atomicstack/tab-popup-control/internal/state"
	"github.com/atomicstack/tab-popup-control/internal/tab"
)

// core is the loop-owned state. Only Service.Run's goroutine touches it.
type core struct {
	env     browser.Environment
	tabs    state.TabStore
	history *recency.History
}

func (c *core) RecordAccess(id tab.ID) {
	c.history.Record(id)
	events.Registry.Record(string(id), c.history.Len())
}

func (c *core) Forget(id tab.ID) {
	c.history.Forget(id)
	events.Registry.Forget(string(id))
}

// queryTabs refreshes the cache. A failed listing keeps the previous cache.
func (c *core) queryTabs(ctx context.Context) []tab.Tab {
	raw, err := c.env.ListAllTabs(ctx)
	if err != nil {
		logging.Warn("list tabs failed, keeping cached tabs", "error", err)
		return c.tabs.Entries()
	}
	tabs := make([]tab.Tab, len(raw))
	for i, r := range raw {
		tabs[i] = r.Tab()
	}
	c.tabs.SetEntries(tabs)
	events.Registry.Refresh(len(tabs))
	return c.tabs.Entries()
}

// switcherFor builds the toggle push for the requesting tab's window.
func (c *core) switcherFor(ctx context.Context, requesting tab.Tab) protocol.ShowSwitcher {
	if _, ok := c.tabs.Get(requesting.ID); !ok {
		c.queryTabs(ctx)
	}
	ordered := c.history.Order(c.tabs.InWindow(requesting.WindowID))
	return protocol.ShowSwitcher{Tabs: ordered, CurrentTabID: requesting.ID}
}

func (c *core) switchTo(ctx context.Context, id tab.ID) error {
	raw, err := c.env.GetTab(ctx, id)
	if err != nil {
		return fmt.Errorf("switch to %s: %w", id, err)
	}
	if err := c.env.ActivateTab(ctx, id); err != nil {
		return fmt.Errorf("switch to %s: %w", id, err)
	}
	if err := c.env.FocusWindow(ctx, raw.WindowID); err != nil {
		return fmt.Errorf("switch to %s: %w", id, err)
	}
	c.RecordAccess(id)
	events.Registry.Switch(string(id))
	return nil
}

func (c *core) activeTab(ctx context.Context) (tab.Tab, error) {
	raw, err := c.env.ActiveTab(ctx)
	if err != nil {
		return tab.Tab{}, err
	}
	return raw.Tab(), nil
}
