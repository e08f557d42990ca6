package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomicstack/tab-popup-control/internal/tab"
)

func TestEncodeFlattensEnvelope(t *testing.T) {
	data, err := Encode(Envelope{ID: "m1", ReplyTo: "m0", Message: SwitchToTab{TabID: "42"}})
	require.NoError(t, err)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, map[string]string{
		"id":      "m1",
		"replyTo": "m0",
		"action":  "switchToTab",
		"tabId":   "42",
	}, fields)
}

func TestDecodeDistinguishesTogglePushFromRequest(t *testing.T) {
	env, err := Decode([]byte(`{"action":"toggleSwitcher","id":"a"}`))
	require.NoError(t, err)
	assert.Equal(t, ToggleRequest{}, env.Message)
	assert.Equal(t, "a", env.ID)

	data, err := Encode(Envelope{ID: "b", Message: ShowSwitcher{CurrentTabID: "2"}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tabs":[]`)

	env, err = Decode(data)
	require.NoError(t, err)
	push, ok := env.Message.(ShowSwitcher)
	require.True(t, ok, "expected ShowSwitcher, got %T", env.Message)
	assert.Equal(t, tab.ID("2"), push.CurrentTabID)
	assert.Empty(t, push.Tabs)
}

func TestDecodeVariants(t *testing.T) {
	tabs := []tab.Tab{{ID: "1", Title: "GitHub", URL: "https://github.com", WindowID: 3}}
	cases := []Message{
		Hello{Role: RoleOverlay},
		Welcome{PageID: "p"},
		ShowSwitcher{Tabs: tabs, CurrentTabID: "1"},
		SwitchToTab{TabID: "1"},
		GetTabList{},
		TabList{Tabs: tabs},
		Ack{},
		ErrorReply{Message: "boom"},
	}
	for _, msg := range cases {
		data, err := Encode(Envelope{ID: NewID(), Message: msg})
		require.NoError(t, err)
		env, err := Decode(data)
		require.NoError(t, err, "decode %s", data)
		assert.Equal(t, msg, env.Message)
	}
}

func TestDecodeRejectsUnknownAndMalformed(t *testing.T) {
	env, err := Decode([]byte(`{"action":"closeTab","id":"q"}`))
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.Equal(t, "q", env.ID)

	_, err = Decode([]byte(`{"id":"x"}`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Decode([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Decode([]byte(`{"action":"switchToTab"}`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Encode(Envelope{})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestErrorReplyIsError(t *testing.T) {
	var err error = Errorf("tab %s gone", "7")
	assert.EqualError(t, err, "tab 7 gone")
}
