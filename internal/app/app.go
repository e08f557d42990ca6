package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/atomicstack/tab-popup-control/internal/backend"
	"github.com/atomicstack/tab-popup-control/internal/overlay"
	"github.com/atomicstack/tab-popup-control/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	DefaultListen           = "127.0.0.1:8765"
	DefaultCDPURL           = "http://127.0.0.1:9222"
	DefaultCycleCommitDelay = ui.DefaultCycleCommitDelay
	DefaultRequestTimeout   = 5 * time.Second
)

// Command names a subcommand.
type Command string

const (
	CommandOverlay Command = "overlay"
	CommandServe   Command = "serve"
	CommandToggle  Command = "toggle"
	CommandList    Command = "list"
)

// Commands lists every subcommand in help order.
var Commands = []Command{CommandOverlay, CommandServe, CommandToggle, CommandList}

// Config describes user-provided application options.
type Config struct {
	Listen           string
	CDPURL           string
	Width            int
	Height           int
	ShowFooter       bool
	Verbose          bool
	Match            overlay.MatchMode
	CycleCommitDelay time.Duration
}

// DaemonURL is the message channel address pages dial.
func (c Config) DaemonURL() string {
	listen := c.Listen
	if strings.HasPrefix(listen, ":") {
		listen = "127.0.0.1" + listen
	}
	return "ws://" + listen + "/ws"
}

// Run executes cmd. out receives the output of one-shot commands.
func Run(ctx context.Context, cmd Command, cfg Config, out io.Writer) error {
	switch cmd {
	case CommandOverlay, "":
		return RunOverlay(ctx, cfg)
	case CommandServe:
		return Serve(ctx, cfg)
	case CommandToggle:
		return Toggle(ctx, cfg)
	case CommandList:
		return List(ctx, cfg, out)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// RunOverlay bootstraps and executes the Bubble Tea program. It returns
// when the user quits or ctx is cancelled.
func RunOverlay(ctx context.Context, cfg Config) error {
	watcher := backend.NewWatcher(cfg.DaemonURL(), backend.DefaultRetryInterval)
	defer watcher.Stop()
	model := ui.NewModel(ui.Options{
		Width:            cfg.Width,
		Height:           cfg.Height,
		ShowFooter:       cfg.ShowFooter,
		Verbose:          cfg.Verbose,
		Match:            cfg.Match,
		CycleCommitDelay: cfg.CycleCommitDelay,
		RequestTimeout:   DefaultRequestTimeout,
	}, nil, watcher)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
