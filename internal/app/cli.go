package app

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/atomicstack/tab-popup-control/internal/format/table"
	"github.com/atomicstack/tab-popup-control/internal/overlay"
	"github.com/atomicstack/tab-popup-control/internal/protocol"
	"github.com/atomicstack/tab-popup-control/internal/transport"
)

const (
	listTitleWidth = 48
	listURLWidth   = 60
)

// request dials the daemon as a one-shot CLI page, sends msg and returns
// the reply.
func request(ctx context.Context, cfg Config, msg protocol.Message) (protocol.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultRequestTimeout)
	defer cancel()
	client, err := transport.Dial(ctx, cfg.DaemonURL(), protocol.RoleCLI)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w", err)
	}
	defer client.Close()
	reply, err := client.Request(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", msg.Action(), err)
	}
	return reply, nil
}

// Toggle asks the daemon to open or close the switcher on the most recent
// overlay page.
func Toggle(ctx context.Context, cfg Config) error {
	_, err := request(ctx, cfg, protocol.ToggleRequest{})
	return err
}

// List prints the daemon's tab cache as a table.
func List(ctx context.Context, cfg Config, out io.Writer) error {
	reply, err := request(ctx, cfg, protocol.GetTabList{})
	if err != nil {
		return err
	}
	list, ok := reply.(protocol.TabList)
	if !ok {
		return fmt.Errorf("%s: unexpected %s reply", protocol.ActionGetTabList, reply.Action())
	}
	rows := make([][]string, 0, len(list.Tabs)+1)
	rows = append(rows, []string{"ID", "WINDOW", "", "TITLE", "URL"})
	for _, t := range list.Tabs {
		marker := ""
		if t.Active {
			marker = overlay.ActiveMarker
		}
		rows = append(rows, []string{
			string(t.ID),
			strconv.FormatInt(int64(t.WindowID), 10),
			marker,
			t.Title,
			overlay.ShortenURL(t.URL),
		})
	}
	lines := table.Format(rows, []table.Column{
		{Align: table.AlignRight},
		{Align: table.AlignRight},
		{},
		{MaxWidth: listTitleWidth},
		{MaxWidth: listURLWidth},
	})
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}
