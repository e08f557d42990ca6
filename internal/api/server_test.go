package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/atomicstack/tab-popup-control/internal/logging"
	"github.com/atomicstack/tab-popup-control/internal/protocol"
	"github.com/atomicstack/tab-popup-control/internal/tab"
	"github.com/atomicstack/tab-popup-control/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type stubRegistry struct {
	tabs    []tab.Tab
	history []tab.ID
}

func (s *stubRegistry) TabList(context.Context) []tab.Tab { return s.tabs }
func (s *stubRegistry) History(context.Context) []tab.ID  { return s.history }

type stubChannel struct {
	pages int
}

func (s *stubChannel) ServeWS(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusTeapot)
}

func (s *stubChannel) PageCount() int { return s.pages }

func get(t *testing.T, h http.Handler, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w
}

func TestHealthReportsPages(t *testing.T) {
	h := NewServer(&stubRegistry{}, &stubChannel{pages: 2})
	var body struct {
		Status string `json:"status"`
		Pages  int    `json:"pages"`
	}
	w := get(t, h, "/health", &body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 2, body.Pages)
}

func TestTabsListsRegistryCache(t *testing.T) {
	reg := &stubRegistry{tabs: []tab.Tab{
		{ID: "1", Title: "A", URL: "https://a.test/", WindowID: 4, Active: true},
		{ID: "2", Title: "B", URL: "https://b.test/", WindowID: 4},
	}}
	h := NewServer(reg, &stubChannel{})
	var body struct {
		Tabs []tab.Tab `json:"tabs"`
	}
	w := get(t, h, "/tabs", &body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, reg.tabs, body.Tabs)
}

func TestEmptyCollectionsEncodeAsArrays(t *testing.T) {
	h := NewServer(&stubRegistry{}, &stubChannel{})
	for _, path := range []string{"/tabs", "/history"} {
		w := get(t, h, path, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "[]", path)
		assert.NotContains(t, w.Body.String(), "null", path)
	}
}

func TestHistoryIsMostRecentFirst(t *testing.T) {
	h := NewServer(&stubRegistry{history: []tab.ID{"3", "1"}}, &stubChannel{})
	var body struct {
		History []tab.ID `json:"history"`
	}
	get(t, h, "/history", &body)
	assert.Equal(t, []tab.ID{"3", "1"}, body.History)
}

func TestWebSocketRouteReachesChannel(t *testing.T) {
	h := NewServer(&stubRegistry{}, &stubChannel{})
	w := get(t, h, "/ws", nil)
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	h := NewServer(&stubRegistry{}, &stubChannel{})
	w := get(t, h, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebSocketUpgradeThroughMiddleware(t *testing.T) {
	srv := transport.NewServer(transport.HandlerFunc(func(context.Context, string, protocol.Message) (protocol.Message, error) {
		return protocol.TabList{Tabs: []tab.Tab{{ID: "9", Title: "N"}}}, nil
	}))
	ts := httptest.NewServer(NewServer(&stubRegistry{}, srv))
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := transport.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", protocol.RoleCLI)
	require.NoError(t, err)
	defer c.Close()

	reply, err := c.Request(ctx, protocol.GetTabList{})
	require.NoError(t, err)
	list, ok := reply.(protocol.TabList)
	require.True(t, ok, "expected tab list, got %T", reply)
	require.Len(t, list.Tabs, 1)
	assert.Equal(t, tab.ID("9"), list.Tabs[0].ID)

	var health struct {
		Pages int `json:"pages"`
	}
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, 1, health.Pages)
}
