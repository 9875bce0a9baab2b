// Package server runs the ledger node: it opens the configured storage
// backend, serves the ledger and health services over gRPC and shuts down
// gracefully on SIGINT/SIGTERM. SIGUSR1 toggles the node's availability,
// which clients observe through isAvailable and the health check.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/fhegame/internal/identity"
	"github.com/dmitrijs2005/fhegame/internal/ledger"
	"github.com/dmitrijs2005/fhegame/internal/ledger/ledgergrpc"
	"github.com/dmitrijs2005/fhegame/internal/ledger/storage"
	"github.com/dmitrijs2005/fhegame/internal/logging"
	"github.com/dmitrijs2005/fhegame/internal/server/config"
	"golang.org/x/sync/errgroup"
)

// openStorage is a seam for storage.Open.
var openStorage = storage.Open

type App struct {
	config  *config.Config
	logger  logging.Logger
	storage storage.Storage
	server  *ledgergrpc.Server

	listen  func(network, address string) (net.Listener, error)
	toggle  chan os.Signal
	serving bool
}

func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	s, err := openStorage(ctx, c.StorageOptions(l))
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	node := ledger.NewNode(s, identity.JWTAuthorizer{}, l)
	srv := ledgergrpc.NewServer(node, l)
	if c.StartUnavailable {
		srv.SetServing(false)
	}

	return &App{
		config:  c,
		logger:  l.With("module", "app"),
		storage: s,
		server:  srv,
		listen:  net.Listen,
		toggle:  make(chan os.Signal, 1),
		serving: !c.StartUnavailable,
	}, nil
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// drains the gRPC server and closes the storage.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	signal.Notify(app.toggle, syscall.SIGUSR1)
	defer signal.Stop(app.toggle)

	lis, err := app.listen("tcp", app.config.ListenAddr)
	if err != nil {
		_ = app.storage.Close()
		return fmt.Errorf("listen %s: %w", app.config.ListenAddr, err)
	}

	app.logger.Info(ctx, "Starting ledger node...", "backend", app.config.Backend, "available", !app.config.StartUnavailable)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.server.Serve(gctx, lis)
	})
	g.Go(func() error {
		app.watchToggle(gctx)
		return nil
	})

	err = g.Wait()
	if cerr := app.storage.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("close storage: %w", cerr))
	}
	app.logger.Info(context.Background(), "Ledger node stopped")
	return err
}

func (app *App) watchToggle(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-app.toggle:
			app.serving = !app.serving
			app.server.SetServing(app.serving)
			app.logger.Info(ctx, "availability toggled", "available", app.serving)
		}
	}
}
