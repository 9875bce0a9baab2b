package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/fhegame/internal/models"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	account() string
	List(ctx context.Context, opts ListOptions) error
	Stats(ctx context.Context, f Format) error
	CreatePrompt(ctx context.Context) error
	Reveal(ctx context.Context, id string) error
	Repair(ctx context.Context) error
	AccountsNew(ctx context.Context) error
	AccountsList(ctx context.Context) error
	AccountsUse(ctx context.Context, address string) error
	AccountsDisconnect(ctx context.Context) error
}

const replHelp = `Available commands:
  list [all|revealed|hidden] [search]   list games
  stats                                 count games
  create                                create a game (prompts for type and state)
  reveal <id>                           reveal one of your games
  repair                                re-index orphaned games
  accounts [list|new|use [addr]|disconnect]
  help, exit`

// runREPL reads commands line by line from in and dispatches them to a.
// Prompts issued by the commands read from the same reader. The loop ends
// on EOF, exit or quit. Command errors are already reported to the user by
// the handlers, so they are not printed again here.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "fhegame%s> ", statusFn())
		line, err := readLine(in)
		if err != nil {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			fmt.Fprintln(w, replHelp)

		case "l", "list":
			opts := ListOptions{Filter: models.FilterAll, Format: FormatText}
			if len(args) > 0 {
				if f, err := models.ParseRevealFilter(args[0]); err == nil {
					opts.Filter = f
					args = args[1:]
				}
			}
			opts.Search = strings.Join(args, " ")
			_ = a.List(ctx, opts)

		case "stats":
			_ = a.Stats(ctx, FormatText)

		case "create":
			_ = a.CreatePrompt(ctx)

		case "reveal":
			if len(args) != 1 {
				fmt.Fprintln(w, "Usage: reveal <id>")
				continue
			}
			_ = a.Reveal(ctx, args[0])

		case "repair":
			_ = a.Repair(ctx)

		case "accounts":
			sub := "list"
			if len(args) > 0 {
				sub = args[0]
			}
			switch sub {
			case "list":
				_ = a.AccountsList(ctx)
			case "new":
				_ = a.AccountsNew(ctx)
			case "use":
				addr := ""
				if len(args) > 1 {
					addr = args[1]
				}
				_ = a.AccountsUse(ctx, addr)
			case "disconnect":
				_ = a.AccountsDisconnect(ctx)
			default:
				fmt.Fprintln(w, "Unknown accounts command:", sub)
			}

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}

// CreatePrompt asks for the game type and initial state, then creates the
// game.
func (a *App) CreatePrompt(ctx context.Context) error {
	category, err := GetSimpleText(a.in, "Game type", a.out)
	if err != nil {
		return err
	}
	seed, err := GetSimpleText(a.in, "Initial state", a.out)
	if err != nil {
		return err
	}
	return a.Create(ctx, category, seed)
}

// REPL runs the interactive loop until the user exits.
func (a *App) REPL(ctx context.Context) {
	fmt.Fprintln(a.out, "fhegame client (type 'help' for commands)")
	runREPL(ctx, a, a.replStatus, a.in, a.out)
}

func (a *App) replStatus() string {
	if acc := a.account(); acc != "" {
		return " (" + shortAddress(acc) + ")"
	}
	return ""
}
