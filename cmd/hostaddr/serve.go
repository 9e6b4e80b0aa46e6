// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/shayne/yargs"
	"github.com/yeetrun/hostaddr/pkg/config"
	"github.com/yeetrun/hostaddr/pkg/server"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
	"tailscale.com/tsnet"
	"tailscale.com/util/must"
)

type serveFlagsParsed struct {
	Config        string `flag:"config" short:"c" help:"Path to a TOML or YAML config file"`
	Listen        string `flag:"listen" help:"Address to listen on (HOSTADDR_LISTEN)"`
	FailurePolicy string `flag:"failure-policy" help:"What GET / does when resolution fails: unavailable or legacy (HOSTADDR_FAILURE_POLICY)"`
	TSNetHost     string `flag:"tsnet-host" help:"Also serve on the tailnet under this hostname (HOSTADDR_TSNET_HOST)"`
}

func handleServe(ctx context.Context, args []string) error {
	result, err := yargs.ParseFlags[serveFlagsParsed](stripCommand(args, "serve"))
	if err != nil {
		return err
	}
	cfg, err := loadServeConfig(result.Flags, os.LookupEnv)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, unix.SIGTERM)
	defer stop()

	ln := must.Get(net.Listen("tcp", cfg.Listen))
	lns := []net.Listener{ln}
	if cfg.TSNet.Enabled() {
		ts, tsln, err := listenTSNet(ctx, cfg)
		if err != nil {
			ln.Close()
			return err
		}
		defer ts.Close()
		lns = append(lns, tsln)
	}

	srv := server.New(server.Config{Policy: cfg.FailurePolicy})
	return serve(ctx, cfg, srv.Handler(), lns...)
}

// loadServeConfig layers the config file, the environment and flags, in
// increasing precedence.
func loadServeConfig(flags serveFlagsParsed, lookupEnv func(string) (string, bool)) (*config.Config, error) {
	cfg, err := config.Load(flags.Config)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(lookupEnv)
	if flags.Listen != "" {
		cfg.Listen = flags.Listen
	}
	if flags.FailurePolicy != "" {
		cfg.FailurePolicy = server.FailurePolicy(flags.FailurePolicy)
	}
	if flags.TSNetHost != "" {
		cfg.TSNet.Hostname = flags.TSNetHost
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// listenTSNet brings up a tsnet node and listens on the same port as the
// local listener.
func listenTSNet(ctx context.Context, cfg *config.Config) (*tsnet.Server, net.Listener, error) {
	_, port, err := net.SplitHostPort(cfg.Listen)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid listen address %q: %w", cfg.Listen, err)
	}
	ts := &tsnet.Server{
		Dir:      cfg.TSNet.Dir,
		Hostname: cfg.TSNet.Hostname,
		Port:     uint16(cfg.TSNet.Port),
	}
	if _, err := ts.Up(ctx); err != nil {
		ts.Close()
		return nil, nil, fmt.Errorf("failed to start tsnet: %w", err)
	}
	ln, err := ts.Listen("tcp", ":"+port)
	if err != nil {
		ts.Close()
		return nil, nil, fmt.Errorf("failed to listen on tailnet: %w", err)
	}
	return ts, ln, nil
}

// serve runs an http.Server per listener until ctx is done or one of them
// fails, then shuts all of them down within cfg.ShutdownTimeout.
func serve(ctx context.Context, cfg *config.Config, h http.Handler, lns ...net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)
	servers := make([]*http.Server, 0, len(lns))
	for _, ln := range lns {
		hs := &http.Server{
			Handler:           h,
			ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeout),
		}
		servers = append(servers, hs)
		log.Printf("listening on %v", ln.Addr())
		g.Go(func() error {
			if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %v: %w", ln.Addr(), err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(cfg.ShutdownTimeout))
		defer cancel()
		var errs []error
		for _, hs := range servers {
			if err := hs.Shutdown(sctx); err != nil {
				errs = append(errs, err)
			}
		}
		log.Printf("shut down")
		return errors.Join(errs...)
	})
	return g.Wait()
}
