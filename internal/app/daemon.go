package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/atomicstack/tab-popup-control/internal/api"
	"github.com/atomicstack/tab-popup-control/internal/browser"
	"github.com/atomicstack/tab-popup-control/internal/logging"
	"github.com/atomicstack/tab-popup-control/internal/registry"
	"github.com/atomicstack/tab-popup-control/internal/transport"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var dialBrowser = func(ctx context.Context, cdpURL string) (browser.Environment, error) {
	return browser.DialCDP(ctx, cdpURL)
}

// Daemon is the background side: the registry, the page channel and the
// HTTP surface, bound to one listener.
type Daemon struct {
	env      browser.Environment
	pages    *transport.Server
	registry *registry.Service
	http     *http.Server
	ln       net.Listener
}

// NewDaemon connects to the browser and binds cfg.Listen. Nothing is
// served until Run.
func NewDaemon(ctx context.Context, cfg Config) (*Daemon, error) {
	env, err := dialBrowser(ctx, cfg.CDPURL)
	if err != nil {
		return nil, fmt.Errorf("connect to browser at %s: %w", cfg.CDPURL, err)
	}
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		_ = env.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.Listen, err)
	}
	pages := transport.NewServer(nil)
	svc := registry.New(env, pages)
	pages.SetHandler(svc)
	return &Daemon{
		env:      env,
		pages:    pages,
		registry: svc,
		http: &http.Server{
			Handler:           api.NewServer(svc, pages),
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln: ln,
	}, nil
}

// Addr is the bound listen address.
func (d *Daemon) Addr() net.Addr {
	return d.ln.Addr()
}

// Run serves until ctx is cancelled or a component fails, then shuts
// everything down.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.env.Close()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.registry.Run(gctx)
	})
	g.Go(func() error {
		logging.Info("daemon listening", "addr", d.ln.Addr().String())
		if err := d.http.Serve(d.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		d.pages.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := d.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	})
	err := g.Wait()
	logging.Info("daemon stopped", "error", err)
	return err
}

// Serve runs the daemon until ctx is cancelled.
func Serve(ctx context.Context, cfg Config) error {
	d, err := NewDaemon(ctx, cfg)
	if err != nil {
		return err
	}
	return d.Run(ctx)
}
