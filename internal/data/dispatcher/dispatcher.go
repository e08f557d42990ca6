package dispatcher

import (
	"github.com/atomicstack/tab-popup-control/internal/browser"
	"github.com/atomicstack/tab-popup-control/internal/logging/events"
	"github.com/atomicstack/tab-popup-control/internal/tab"
)

// Tracker is the recency side of the registry.
type Tracker interface {
	RecordAccess(id tab.ID)
	Forget(id tab.ID)
}

// Result tells the caller what the event changed.
type Result struct {
	Recorded bool
	Forgot   bool
	Refresh  bool
}

type Dispatcher struct {
	tracker Tracker
}

func New(t Tracker) *Dispatcher {
	return &Dispatcher{tracker: t}
}

// Handle applies a browser event to the tracker. Every known event leaves
// the tab cache stale, so Refresh is set for all of them.
func (d *Dispatcher) Handle(evt browser.Event) Result {
	var res Result
	events.Registry.Event(evt.Kind.String(), string(evt.TabID))
	switch evt.Kind {
	case browser.EventActivated:
		if evt.TabID != "" {
			d.tracker.RecordAccess(evt.TabID)
			res.Recorded = true
		}
		res.Refresh = true
	case browser.EventCreated, browser.EventUpdated:
		res.Refresh = true
	case browser.EventRemoved:
		d.tracker.Forget(evt.TabID)
		res.Forgot = true
		res.Refresh = true
	}
	return res
}
