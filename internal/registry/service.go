// Package registry keeps the tab cache and recency history for the
// background context and answers page requests against them.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/atomicstack/tab-popup-control/internal/browser"
	"github.com/atomicstack/tab-popup-control/internal/data/dispatcher"
	"github.com/atomicstack/tab-popup-control/internal/logging"
	"github.com/atomicstack/tab-popup-control/internal/logging/events"
	"github.com/atomicstack/tab-popup-control/internal/protocol"
	"github.com/atomicstack/tab-popup-control/internal/recency"
	"github.com/atomicstack/tab-popup-control/internal/state"
	"github.com/atomicstack/tab-popup-control/internal/tab"
)

var (
	ErrStopped   = errors.New("registry stopped")
	ErrNoOverlay = errors.New("no overlay page connected")
)

// Pages delivers pushes to connected pages.
type Pages interface {
	SendToPage(ctx context.Context, pageID string, msg protocol.Message) (protocol.Message, error)
	LatestPage() (string, bool)
	IsOverlay(pageID string) bool
}

type Option func(*Service)

// WithHistoryLimit overrides recency.DefaultLimit.
func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		s.core.history = recency.New(n)
	}
}

type request struct {
	ctx  context.Context
	fn   func(ctx context.Context)
	done chan struct{}
}

// Service serialises every read and write of the registry state through
// Run's loop.
type Service struct {
	core       *core
	dispatcher *dispatcher.Dispatcher
	pages      Pages

	requests chan request
	stopped  chan struct{}
}

func New(env browser.Environment, pages Pages, opts ...Option) *Service {
	s := &Service{
		core: &core{
			env:     env,
			tabs:    state.NewTabStore(),
			history: recency.New(recency.DefaultLimit),
		},
		pages:    pages,
		requests: make(chan request),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dispatcher = dispatcher.New(s.core)
	return s
}

// Run owns the registry state until ctx is cancelled. It performs the
// initial tab query and seeds the history with the active tab.
func (s *Service) Run(ctx context.Context) error {
	defer close(s.stopped)

	s.core.queryTabs(ctx)
	if active, err := s.core.activeTab(ctx); err == nil {
		s.core.RecordAccess(active.ID)
	} else {
		logging.Debug("no active tab at startup", "error", err)
	}

	envEvents := s.core.env.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-s.requests:
			req.fn(req.ctx)
			close(req.done)
		case evt, ok := <-envEvents:
			if !ok {
				envEvents = nil
				continue
			}
			if res := s.dispatcher.Handle(evt); res.Refresh {
				s.core.queryTabs(ctx)
			}
		}
	}
}

func (s *Service) do(ctx context.Context, fn func(ctx context.Context)) error {
	req := request{ctx: ctx, fn: fn, done: make(chan struct{})}
	select {
	case s.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrStopped
	}
	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrStopped
	}
}

// QueryTabs refreshes the cache from the browser and returns it.
func (s *Service) QueryTabs(ctx context.Context) []tab.Tab {
	var out []tab.Tab
	if err := s.do(ctx, func(ctx context.Context) { out = s.core.queryTabs(ctx) }); err != nil {
		return nil
	}
	return out
}

// TabList answers getTabList: a fresh listing of every tab.
func (s *Service) TabList(ctx context.Context) []tab.Tab {
	return s.QueryTabs(ctx)
}

func (s *Service) RecordAccess(ctx context.Context, id tab.ID) error {
	return s.do(ctx, func(context.Context) { s.core.RecordAccess(id) })
}

func (s *Service) Forget(ctx context.Context, id tab.ID) error {
	return s.do(ctx, func(context.Context) { s.core.Forget(id) })
}

// History returns the recency history, most recent first.
func (s *Service) History(ctx context.Context) []tab.ID {
	var out []tab.ID
	if err := s.do(ctx, func(context.Context) { out = s.core.history.Snapshot() }); err != nil {
		return nil
	}
	return out
}

// ToggleOverlay sends the requesting window's tabs, recency ordered, to
// pageID. Delivery failures are logged and not retried.
func (s *Service) ToggleOverlay(ctx context.Context, requesting tab.Tab, pageID string) {
	var msg protocol.ShowSwitcher
	if err := s.do(ctx, func(ctx context.Context) { msg = s.core.switcherFor(ctx, requesting) }); err != nil {
		logging.Warn("toggle aborted", "error", err)
		return
	}
	events.Registry.Toggle(pageID, string(requesting.ID), int64(requesting.WindowID), len(msg.Tabs))
	if _, err := s.pages.SendToPage(ctx, pageID, msg); err != nil {
		logging.Warn("toggle delivery failed", "page", pageID, "error", err)
	}
}

// SwitchTo activates id, focuses its window and records the access. On any
// failure the history is left untouched.
func (s *Service) SwitchTo(ctx context.Context, id tab.ID) error {
	var err error
	if doErr := s.do(ctx, func(ctx context.Context) { err = s.core.switchTo(ctx, id) }); doErr != nil {
		return doErr
	}
	if err != nil {
		logging.Warn("tab switch failed", "tab", string(id), "error", err)
	}
	return err
}

// Handle answers one page request. It satisfies transport.Handler.
func (s *Service) Handle(ctx context.Context, pageID string, msg protocol.Message) (protocol.Message, error) {
	switch m := msg.(type) {
	case protocol.ToggleRequest:
		target := pageID
		if !s.pages.IsOverlay(pageID) {
			latest, ok := s.pages.LatestPage()
			if !ok {
				return nil, ErrNoOverlay
			}
			target = latest
		}
		var (
			requesting tab.Tab
			err        error
		)
		if doErr := s.do(ctx, func(ctx context.Context) { requesting, err = s.core.activeTab(ctx) }); doErr != nil {
			return nil, doErr
		}
		if err != nil {
			logging.Warn("toggle without a requesting tab", "error", err)
			return protocol.Ack{}, nil
		}
		s.ToggleOverlay(ctx, requesting, target)
		return protocol.Ack{}, nil
	case protocol.SwitchToTab:
		_ = s.SwitchTo(ctx, m.TabID)
		return protocol.Ack{}, nil
	case protocol.GetTabList:
		return protocol.TabList{Tabs: s.TabList(ctx)}, nil
	default:
		return nil, fmt.Errorf("%w: %s is not a page request", protocol.ErrUnknownAction, msg.Action())
	}
}
