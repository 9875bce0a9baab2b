package server

import (
	"context"
	"errors"
	"io"

	"github.com/dmitrijs2005/fhegame/internal/logging"
	"github.com/dmitrijs2005/fhegame/internal/server/config"
	"github.com/dmitrijs2005/fhegame/internal/telemetry"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the fhegame-ledger command tree. Logs go to errOut.
func NewRootCommand(errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "fhegame-ledger",
		Short:         "Signed key-value ledger node for fhegame",
		SilenceUsage: true,
	}
	root.SetErr(errOut)

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over gRPC",
		Args:  cobra.NoArgs,
	}
	flags := config.BindFlags(serve.Flags())
	serve.RunE = func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return serveWith(ctx, flags, errOut)
	}

	root.AddCommand(serve)
	return root
}

func serveWith(ctx context.Context, flags *config.Flags, errOut io.Writer) (err error) {
	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}

	logger, err := logging.New(errOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	shutdown, err := telemetry.Setup(ctx, "fhegame-ledger", cfg.OTelEndpoint)
	if err != nil {
		logger.Warn(ctx, "tracing disabled", "error", err)
	}
	defer func() {
		err = errors.Join(err, shutdown(context.Background()))
	}()

	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
