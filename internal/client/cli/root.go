package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/fhegame/internal/client/config"
	"github.com/dmitrijs2005/fhegame/internal/logging"
	"github.com/dmitrijs2005/fhegame/internal/models"
	"github.com/dmitrijs2005/fhegame/internal/telemetry"
	"github.com/spf13/cobra"
)

const serviceName = "fhegame-client"

// appFactory builds the App a command runs against.
type appFactory func(ctx context.Context, cfg *config.Config, l logging.Logger, in io.Reader, out io.Writer) (*App, error)

// root carries what the commands share: bound flags and the lazily opened
// App.
type root struct {
	flags  *config.Flags
	format string
	newApp appFactory

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	app      *App
	shutdown telemetry.Shutdown
}

// NewRootCommand builds the fhegame command tree. Without a subcommand it
// starts the REPL.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	return newRootCommand(NewApp, in, out, errOut)
}

func newRootCommand(newApp appFactory, in io.Reader, out, errOut io.Writer) *cobra.Command {
	r := &root{newApp: newApp, in: in, out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:           "fhegame",
		Short:         "Manage FHE game records on a signed ledger",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: r.withApp(func(ctx context.Context, a *App, _ []string) error {
			a.REPL(ctx)
			return nil
		}),
	}
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	r.flags = config.BindFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().StringVar(&r.format, "format", string(FormatText), "output format: text, json, yaml")

	cmd.AddCommand(
		r.listCommand(),
		r.statsCommand(),
		r.createCommand(),
		r.revealCommand(),
		r.repairCommand(),
		r.accountsCommand(),
		&cobra.Command{
			Use:   "repl",
			Short: "Start the interactive shell",
			Args:  cobra.NoArgs,
			RunE: r.withApp(func(ctx context.Context, a *App, _ []string) error {
				a.REPL(ctx)
				return nil
			}),
		},
	)
	return cmd
}

// withApp opens the App, hands it to fn and closes it afterwards.
func (r *root) withApp(fn func(ctx context.Context, a *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		defer func() {
			err = errors.Join(err, r.close(ctx))
		}()
		if err := r.open(ctx); err != nil {
			return err
		}
		return fn(ctx, r.app, args)
	}
}

func (r *root) open(ctx context.Context) error {
	cfg, err := config.Load(r.flags)
	if err != nil {
		return err
	}

	logger, err := logging.New(r.errOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	shutdown, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	r.shutdown = shutdown

	app, err := r.newApp(ctx, cfg, logger, r.in, r.out)
	if err != nil {
		return err
	}
	r.app = app
	return nil
}

func (r *root) close(ctx context.Context) error {
	var errs []error
	if r.app != nil {
		errs = append(errs, r.app.Close())
		r.app = nil
	}
	if r.shutdown != nil {
		errs = append(errs, r.shutdown(ctx))
		r.shutdown = nil
	}
	return errors.Join(errs...)
}

func (r *root) outputFormat() (Format, error) {
	return ParseFormat(r.format)
}

func (r *root) listCommand() *cobra.Command {
	var search, filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List games, newest first",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, a *App, _ []string) error {
			f, err := models.ParseRevealFilter(filter)
			if err != nil {
				return err
			}
			format, err := r.outputFormat()
			if err != nil {
				return err
			}
			return a.List(ctx, ListOptions{Search: search, Filter: f, Format: format})
		}),
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive match on id or game type")
	cmd.Flags().StringVarP(&filter, "filter", "f", string(models.FilterAll), "all, revealed or hidden")
	return cmd
}

func (r *root) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count total, revealed and hidden games",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, a *App, _ []string) error {
			format, err := r.outputFormat()
			if err != nil {
				return err
			}
			return a.Stats(ctx, format)
		}),
	}
}

func (r *root) createCommand() *cobra.Command {
	var gameType, state string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a hidden game with an obscured initial state",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Create(ctx, gameType, state)
		}),
	}
	cmd.Flags().StringVarP(&gameType, "type", "t", "", "game type, e.g. Poker")
	cmd.Flags().StringVarP(&state, "state", "s", "", "initial game state")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}

func (r *root) revealCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reveal <id>",
		Short: "Reveal one of your games",
		Args:  cobra.ExactArgs(1),
		RunE: r.withApp(func(ctx context.Context, a *App, args []string) error {
			return a.Reveal(ctx, args[0])
		}),
	}
}

func (r *root) repairCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Re-index games whose index append failed",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Repair(ctx)
		}),
	}
}

func (r *root) accountsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage wallet accounts",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.AccountsList(ctx)
		}),
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "new",
			Short: "Create an account and connect it",
			Args:  cobra.NoArgs,
			RunE: r.withApp(func(ctx context.Context, a *App, _ []string) error {
				return a.AccountsNew(ctx)
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List accounts; * marks the connected one",
			Args:  cobra.NoArgs,
			RunE: r.withApp(func(ctx context.Context, a *App, _ []string) error {
				return a.AccountsList(ctx)
			}),
		},
		&cobra.Command{
			Use:   "use [address]",
			Short: "Connect an account (the first one when no address is given)",
			Args:  cobra.MaximumNArgs(1),
			RunE: r.withApp(func(ctx context.Context, a *App, args []string) error {
				addr := ""
				if len(args) == 1 {
					addr = args[0]
				}
				return a.AccountsUse(ctx, addr)
			}),
		},
		&cobra.Command{
			Use:   "disconnect",
			Short: "Disconnect the current account",
			Args:  cobra.NoArgs,
			RunE: r.withApp(func(ctx context.Context, a *App, _ []string) error {
				return a.AccountsDisconnect(ctx)
			}),
		},
	)
	return cmd
}
