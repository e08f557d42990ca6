package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/atomicstack/tab-popup-control/internal/app"
	"github.com/atomicstack/tab-popup-control/internal/overlay"
	"github.com/spf13/pflag"
)

func TestLoadArgsDefaults(t *testing.T) {
	cfg, err := LoadArgs(nil, nil)
	if err != nil {
		t.Fatalf("expected defaults to load, got %v", err)
	}
	if cfg.Command != app.CommandOverlay {
		t.Fatalf("expected overlay command by default, got %q", cfg.Command)
	}
	if cfg.App.Listen != app.DefaultListen {
		t.Fatalf("expected default listen %q, got %q", app.DefaultListen, cfg.App.Listen)
	}
	if cfg.App.CDPURL != app.DefaultCDPURL {
		t.Fatalf("expected default cdp url %q, got %q", app.DefaultCDPURL, cfg.App.CDPURL)
	}
	if cfg.App.Match != overlay.MatchSubstring {
		t.Fatalf("expected substring matching, got %q", cfg.App.Match)
	}
	if cfg.App.CycleCommitDelay != app.DefaultCycleCommitDelay {
		t.Fatalf("expected default cycle delay, got %s", cfg.App.CycleCommitDelay)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadArgsFlagsOverrideEnvironment(t *testing.T) {
	environ := []string{
		"TAB_POPUP_CONTROL_LISTEN=127.0.0.1:1111",
		"TAB_POPUP_CONTROL_WIDTH=60",
		"TAB_POPUP_CONTROL_MATCH=fuzzy",
		"TAB_POPUP_CONTROL_VERBOSE=true",
	}
	cfg, err := LoadArgs([]string{"--listen", "127.0.0.1:2222", "--footer", "--cycle-commit-delay=250ms", "serve"}, environ)
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	if cfg.Command != app.CommandServe {
		t.Fatalf("expected serve command, got %q", cfg.Command)
	}
	if cfg.App.Listen != "127.0.0.1:2222" {
		t.Fatalf("expected flag to win over env, got %q", cfg.App.Listen)
	}
	if cfg.App.Width != 60 {
		t.Fatalf("expected width from env, got %d", cfg.App.Width)
	}
	if cfg.App.Match != overlay.MatchFuzzy {
		t.Fatalf("expected fuzzy match from env, got %q", cfg.App.Match)
	}
	if !cfg.App.ShowFooter {
		t.Fatalf("expected footer enabled")
	}
	if cfg.App.CycleCommitDelay != 250*time.Millisecond {
		t.Fatalf("expected 250ms delay, got %s", cfg.App.CycleCommitDelay)
	}
	if !cfg.App.Verbose || !cfg.Features.Verbose {
		t.Fatalf("expected verbose from env")
	}
	if cfg.Flags["listen"] != "127.0.0.1:2222" || cfg.Flags["command"] != "serve" {
		t.Fatalf("expected flags map to mirror the parsed values, got %v", cfg.Flags)
	}
}

func TestLoadArgsIgnoresMalformedEnvironment(t *testing.T) {
	cfg, err := LoadArgs(nil, []string{"TAB_POPUP_CONTROL_WIDTH=wide", "TAB_POPUP_CONTROL_CYCLE_COMMIT_DELAY=soon", "garbage"})
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	if cfg.App.Width != 0 {
		t.Fatalf("expected malformed width to fall back to 0, got %d", cfg.App.Width)
	}
	if cfg.App.CycleCommitDelay != app.DefaultCycleCommitDelay {
		t.Fatalf("expected malformed delay to fall back, got %s", cfg.App.CycleCommitDelay)
	}
}

func TestLoadArgsRejectsExtraArguments(t *testing.T) {
	if _, err := LoadArgs([]string{"toggle", "now"}, nil); err == nil {
		t.Fatalf("expected error for extra positional arguments")
	}
}

func TestLoadArgsHelp(t *testing.T) {
	_, err := LoadArgs([]string{"--help"}, nil)
	if !errors.Is(err, pflag.ErrHelp) {
		t.Fatalf("expected help error, got %v", err)
	}
	if !strings.Contains(err.Error(), "--cycle-commit-delay") {
		t.Fatalf("expected flag usage in help, got %q", err.Error())
	}
}

func TestDotenvLayersUnderEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "popup.env")
	content := "TAB_POPUP_CONTROL_LISTEN=127.0.0.1:3333\nTAB_POPUP_CONTROL_HEIGHT=12\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	environ := []string{
		"TAB_POPUP_CONTROL_ENV_FILE=" + path,
		"TAB_POPUP_CONTROL_HEIGHT=20",
	}
	cfg, err := LoadArgs(nil, environ)
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	if cfg.App.Listen != "127.0.0.1:3333" {
		t.Fatalf("expected listen from env file, got %q", cfg.App.Listen)
	}
	if cfg.App.Height != 20 {
		t.Fatalf("expected real environment to win over env file, got %d", cfg.App.Height)
	}
}

func TestExplicitMissingDotenvFails(t *testing.T) {
	environ := []string{"TAB_POPUP_CONTROL_ENV_FILE=" + filepath.Join(t.TempDir(), "missing.env")}
	if _, err := LoadArgs(nil, environ); err == nil {
		t.Fatalf("expected error for a missing explicit env file")
	}
}

func TestValidate(t *testing.T) {
	base, err := LoadArgs(nil, nil)
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	cases := map[string]func(*Config){
		"unknown command": func(c *Config) { c.Command = "bogus" },
		"negative width":  func(c *Config) { c.App.Width = -1 },
		"negative height": func(c *Config) { c.App.Height = -1 },
		"unknown match":   func(c *Config) { c.App.Match = "regex" },
		"negative delay":  func(c *Config) { c.App.CycleCommitDelay = -time.Second },
		"empty listen":    func(c *Config) { c.App.Listen = " " },
		"serve without cdp": func(c *Config) {
			c.Command = app.CommandServe
			c.App.CDPURL = ""
		},
	}
	for name, mutate := range cases {
		cfg := base
		mutate(&cfg)
		if err := Validate(cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	for _, cmd := range app.Commands {
		cfg := base
		cfg.Command = cmd
		if err := Validate(cfg); err != nil {
			t.Fatalf("expected %s to validate, got %v", cmd, err)
		}
	}
}
