// Package browsertest provides an in-memory browser for tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/atomicstack/tab-popup-control/internal/browser"
	"github.com/atomicstack/tab-popup-control/internal/tab"
)

// Env is a scriptable browser.Environment. The zero value is not usable;
// call New.
type Env struct {
	mu     sync.Mutex
	tabs   []browser.RawTab
	active tab.ID
	events chan browser.Event
	closed bool

	ListErr     error
	ActivateErr error
	FocusErr    error

	Activated []tab.ID
	Focused   []tab.WindowID
	Lists     int
}

var _ browser.Environment = (*Env)(nil)

// New returns an Env holding tabs in the given order. The first tab with
// Active set becomes the active tab.
func New(tabs ...browser.RawTab) *Env {
	e := &Env{events: make(chan browser.Event, 64)}
	e.SetTabs(tabs...)
	return e
}

// SetTabs replaces the tab list.
func (e *Env) SetTabs(tabs ...browser.RawTab) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tabs = append([]browser.RawTab(nil), tabs...)
	e.active = ""
	for _, t := range tabs {
		if t.Active {
			e.active = t.ID
			break
		}
	}
}

// Emit pushes an event to the consumer.
func (e *Env) Emit(ev browser.Event) {
	e.events <- ev
}

// SetActive marks id active without recording an ActivateTab call.
func (e *Env) SetActive(id tab.ID) {
	e.mu.Lock()
	e.active = id
	e.mu.Unlock()
}

func (e *Env) Remove(id tab.ID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, t := range e.tabs {
		if t.ID == id {
			e.tabs = append(e.tabs[:i], e.tabs[i+1:]...)
			return
		}
	}
}

func (e *Env) snapshot() []browser.RawTab {
	out := make([]browser.RawTab, len(e.tabs))
	for i, t := range e.tabs {
		t.Active = t.ID == e.active
		out[i] = t
	}
	return out
}

func (e *Env) ListAllTabs(context.Context) ([]browser.RawTab, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Lists++
	if e.ListErr != nil {
		return nil, e.ListErr
	}
	return e.snapshot(), nil
}

func (e *Env) GetTab(_ context.Context, id tab.ID) (browser.RawTab, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range e.snapshot() {
		if t.ID == id {
			return t, nil
		}
	}
	return browser.RawTab{}, fmt.Errorf("%w: %s", browser.ErrTabNotFound, id)
}

func (e *Env) ActiveTab(context.Context) (browser.RawTab, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range e.snapshot() {
		if t.Active {
			return t, nil
		}
	}
	return browser.RawTab{}, fmt.Errorf("%w: no active tab", browser.ErrTabNotFound)
}

func (e *Env) ActivateTab(_ context.Context, id tab.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ActivateErr != nil {
		return e.ActivateErr
	}
	e.Activated = append(e.Activated, id)
	e.active = id
	return nil
}

func (e *Env) FocusWindow(_ context.Context, id tab.WindowID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FocusErr != nil {
		return e.FocusErr
	}
	e.Focused = append(e.Focused, id)
	return nil
}

func (e *Env) Events() <-chan browser.Event {
	return e.events
}

func (e *Env) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.events)
	}
	return nil
}

// Calls returns copies of the recorded activation and focus calls.
func (e *Env) Calls() ([]tab.ID, []tab.WindowID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]tab.ID(nil), e.Activated...), append([]tab.WindowID(nil), e.Focused...)
}

// SetErrors sets the injected failures under the lock.
func (e *Env) SetErrors(list, activate, focus error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ListErr, e.ActivateErr, e.FocusErr = list, activate, focus
}
