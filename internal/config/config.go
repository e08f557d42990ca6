package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atomicstack/tab-popup-control/internal/app"
	"github.com/atomicstack/tab-popup-control/internal/overlay"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config captures runtime configuration for the application.
type Config struct {
	Command  app.Command
	App      app.Config
	Logging  Logging
	Features Features
	Flags    map[string]string
	Args     []string
}

type Logging struct {
	FilePath string
	Trace    bool
}

type Features struct {
	Verbose bool
}

const (
	envFile             = "TAB_POPUP_CONTROL_ENV_FILE"
	envListen           = "TAB_POPUP_CONTROL_LISTEN"
	envCDPURL           = "TAB_POPUP_CONTROL_CDP_URL"
	envWidth            = "TAB_POPUP_CONTROL_WIDTH"
	envHeight           = "TAB_POPUP_CONTROL_HEIGHT"
	envShowFooter       = "TAB_POPUP_CONTROL_FOOTER"
	envMatch            = "TAB_POPUP_CONTROL_MATCH"
	envCycleCommitDelay = "TAB_POPUP_CONTROL_CYCLE_COMMIT_DELAY"
	envVerbose          = "TAB_POPUP_CONTROL_VERBOSE"
	envTrace            = "TAB_POPUP_CONTROL_TRACE"
	envLogFile          = "TAB_POPUP_CONTROL_LOG_FILE"

	defaultEnvFile = ".env"
)

// Load parses configuration from CLI arguments and environment variables.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment. Values from
// the dotenv file only fill keys the environment leaves unset.
func LoadArgs(args []string, environ []string) (Config, error) {
	env := parseEnv(environ)
	if err := layerDotenv(env); err != nil {
		return Config{}, err
	}

	flags := pflag.NewFlagSet("tab-popup-control", pflag.ContinueOnError)
	flags.SetOutput(new(strings.Builder))

	listen := flags.String("listen", envOrDefault(env, envListen, app.DefaultListen), "daemon listen address (serve) or address to dial")
	cdpURL := flags.String("cdp-url", envOrDefault(env, envCDPURL, app.DefaultCDPURL), "browser DevTools endpoint used by serve")
	width := flags.Int("width", envOrInt(env, envWidth, 0), "desired viewport width in cells (0 uses terminal width)")
	height := flags.Int("height", envOrInt(env, envHeight, 0), "desired viewport height in rows (0 uses terminal height)")
	footer := flags.Bool("footer", envOrBool(env, envShowFooter, false), "enable footer hint row (disabled by default)")
	match := flags.String("match", envOrDefault(env, envMatch, string(overlay.MatchSubstring)), "filter match mode: substring or fuzzy")
	delay := flags.Duration("cycle-commit-delay", envOrDuration(env, envCycleCommitDelay, app.DefaultCycleCommitDelay), "idle time after cycling before the selection is switched to (0 disables)")
	trace := flags.Bool("trace", envOrBool(env, envTrace, false), "enable verbose JSON trace logging")
	verbose := flags.Bool("verbose", envOrBool(env, envVerbose, false), "print success messages for actions")
	logFile := flags.String("log-file", envOrDefault(env, envLogFile, ""), "path to the log file")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return Config{}, fmt.Errorf("%w\n\nusage: tab-popup-control [flags] [%s]\n\n%s", err, strings.Join(commandNames(), "|"), flags.FlagUsages())
		}
		return Config{}, err
	}

	command := app.CommandOverlay
	switch rest := flags.Args(); len(rest) {
	case 0:
	case 1:
		command = app.Command(rest[0])
	default:
		return Config{}, fmt.Errorf("unexpected arguments after %s: %s", rest[0], strings.Join(rest[1:], " "))
	}

	cfg := Config{
		Command: command,
		App: app.Config{
			Listen:           *listen,
			CDPURL:           *cdpURL,
			Width:            *width,
			Height:           *height,
			ShowFooter:       *footer,
			Verbose:          *verbose,
			Match:            overlay.MatchMode(strings.ToLower(strings.TrimSpace(*match))),
			CycleCommitDelay: *delay,
		},
		Logging: Logging{
			FilePath: *logFile,
			Trace:    *trace,
		},
		Features: Features{
			Verbose: *verbose,
		},
		Flags: map[string]string{
			"command":          string(command),
			"listen":           *listen,
			"cdpURL":           *cdpURL,
			"width":            strconv.Itoa(*width),
			"height":           strconv.Itoa(*height),
			"footer":           strconv.FormatBool(*footer),
			"match":            *match,
			"cycleCommitDelay": delay.String(),
			"trace":            strconv.FormatBool(*trace),
			"verbose":          strconv.FormatBool(*verbose),
			"logFile":          *logFile,
		},
		Args: append([]string(nil), args...),
	}

	return cfg, nil
}

// layerDotenv reads the dotenv file into env without overriding keys that
// are already set. A missing default file is fine; a missing file named
// explicitly is not.
func layerDotenv(env map[string]string) error {
	path, explicit := env[envFile]
	if !explicit || strings.TrimSpace(path) == "" {
		path, explicit = defaultEnvFile, false
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("read env file %s: %w", path, err)
	}
	for k, v := range values {
		if _, ok := env[k]; !ok {
			env[k] = v
		}
	}
	return nil
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDuration(env map[string]string, key string, fallback time.Duration) time.Duration {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func commandNames() []string {
	names := make([]string, len(app.Commands))
	for i, c := range app.Commands {
		names[i] = string(c)
	}
	return names
}

// MustLoad returns configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintln(os.Stdout, err)
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Validate rejects configurations no command can run with.
func Validate(cfg Config) error {
	known := false
	for _, c := range app.Commands {
		if cfg.Command == c {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown command %q (want one of %s)", cfg.Command, strings.Join(commandNames(), ", "))
	}
	if cfg.App.Width < 0 {
		return fmt.Errorf("width must be >= 0 (got %d)", cfg.App.Width)
	}
	if cfg.App.Height < 0 {
		return fmt.Errorf("height must be >= 0 (got %d)", cfg.App.Height)
	}
	if _, err := overlay.ParseMatchMode(string(cfg.App.Match)); err != nil {
		return err
	}
	if cfg.App.CycleCommitDelay < 0 {
		return fmt.Errorf("cycle-commit-delay must be >= 0 (got %s)", cfg.App.CycleCommitDelay)
	}
	if strings.TrimSpace(cfg.App.Listen) == "" {
		return errors.New("listen address must not be empty")
	}
	if cfg.Command == app.CommandServe && strings.TrimSpace(cfg.App.CDPURL) == "" {
		return errors.New("cdp-url is required for serve")
	}
	return nil
}
