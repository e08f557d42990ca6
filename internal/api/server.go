// Package api exposes the daemon over HTTP: the page message channel on
// /ws and a few read-only endpoints for scripts and health checks.
package api

import (
	"context"
	"net/http"

	"github.com/atomicstack/tab-popup-control/internal/tab"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Registry is the part of the registry the HTTP surface reads.
type Registry interface {
	TabList(ctx context.Context) []tab.Tab
	History(ctx context.Context) []tab.ID
}

// Channel is the page message channel.
type Channel interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
	PageCount() int
}

type healthOutput struct {
	Body struct {
		Status string `json:"status"`
		Pages  int    `json:"pages" doc:"Connected pages"`
	}
}

type tabsOutput struct {
	Body struct {
		Tabs []tab.Tab `json:"tabs"`
	}
}

type historyOutput struct {
	Body struct {
		History []tab.ID `json:"history" doc:"Tab ids, most recently used first"`
	}
}

func NewServer(reg Registry, ch Channel) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	api := humachi.New(router, huma.DefaultConfig("tab-popup-control", "1.0.0"))

	router.Get("/ws", ch.ServeWS)

	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			out.Body.Pages = ch.PageCount()
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "list-tabs", Method: http.MethodGet, Path: "/tabs", Summary: "List open tabs", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *struct{}) (*tabsOutput, error) {
			out := &tabsOutput{}
			out.Body.Tabs = reg.TabList(ctx)
			if out.Body.Tabs == nil {
				out.Body.Tabs = []tab.Tab{}
			}
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "history", Method: http.MethodGet, Path: "/history", Summary: "Recency history", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *struct{}) (*historyOutput, error) {
			out := &historyOutput{}
			out.Body.History = reg.History(ctx)
			if out.Body.History == nil {
				out.Body.History = []tab.ID{}
			}
			return out, nil
		})

	return router
}
