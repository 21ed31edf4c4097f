// Package cli implements the interactive shell behind "switchyard run".
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/switchyard-io/switchyard"
	"github.com/switchyard-io/switchyard/internal/logging"
	"github.com/switchyard-io/switchyard/internal/presentation/graph"
	"github.com/switchyard-io/switchyard/internal/presentation/tui"
	"github.com/switchyard-io/switchyard/pkg/domain"
	"github.com/switchyard-io/switchyard/pkg/registry"
)

// RunOptions configures an interactive session.
type RunOptions struct {
	// Dir holds the YAML machine definitions to load at startup.
	Dir string

	// Debug enables debug logging and transition hooks.
	Debug bool

	// Quiet suppresses the banner and prompts (useful for piped input).
	Quiet bool

	// Input and Output default to stdin/stdout when nil.
	Input  io.Reader
	Output io.Writer
}

// RunSession loads the definitions and drives machines from line input
// until EOF, "quit" or an interrupt.
func RunSession(opts RunOptions) error {
	logger := createLogger(opts.Debug)

	in := opts.Input
	if in == nil {
		in = os.Stdin
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	if !opts.Quiet {
		tui.PrintBanner()
	}

	regOpts := []switchyard.Option{switchyard.WithLogger(logger)}
	if opts.Debug {
		regOpts = append(regOpts, switchyard.WithLifecycleHooks(createDebugHooks(logger)))
	}
	reg := switchyard.New(regOpts...)

	ids, err := switchyard.LoadDir(reg, opts.Dir)
	if err != nil {
		return err
	}
	if !opts.Quiet {
		fmt.Fprintf(out, "Loaded %d machine(s): %s\n", len(ids), strings.Join(ids, ", "))
		fmt.Fprintln(out, `Type "help" for commands.`)
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	scanner := bufio.NewScanner(NewInterruptibleReader(in, sigCtx.Done()))
	for {
		if !opts.Quiet {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		if err := dispatch(reg, out, line); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		if sigCtx.Err() != nil {
			break
		}
	}

	if sig := sigCtx.Signal(); sig != nil && !opts.Quiet {
		fmt.Fprintf(out, "\nInterrupted (%v)\n", sig)
	}
	return scanner.Err()
}

func dispatch(reg *registry.Registry, out io.Writer, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		printHelp(out)
		return nil

	case "machines":
		for _, id := range reg.List() {
			fmt.Fprintf(out, "%s\t%s\n", id, reg.State(id))
		}
		return nil

	case "send":
		if len(args) < 2 {
			return fmt.Errorf("usage: send <machine> <EVENT> [json-payload]")
		}
		var payload any
		if len(args) > 2 {
			raw := strings.Join(args[2:], " ")
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				// Not JSON, deliver the raw string.
				payload = raw
			}
		}
		res, err := reg.Send(args[0], domain.EventID(args[1]), payload)
		if err != nil {
			return err
		}
		if !res.Success {
			fmt.Fprintf(out, "no transition for %s in state %s\n", args[1], res.From)
			return nil
		}
		fmt.Fprintf(out, "%s -> %s\n", res.From, res.To)
		return nil

	case "state":
		if len(args) != 1 {
			return fmt.Errorf("usage: state <machine>")
		}
		return printValue(out, reg.State(args[0]))

	case "context":
		if len(args) != 1 {
			return fmt.Errorf("usage: context <machine>")
		}
		return printJSON(out, reg.Context(args[0]))

	case "history":
		if len(args) < 1 {
			return fmt.Errorf("usage: history <machine> [limit]")
		}
		limit := registry.DefaultHistoryLimit
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid limit %q", args[1])
			}
			limit = n
		}
		records := reg.History(args[0], limit)
		for _, rec := range records {
			fmt.Fprintf(out, "%s  %s -> %s on %s\n",
				rec.Timestamp.Format("15:04:05"), rec.From, rec.To, rec.Event)
		}
		if len(records) == 0 {
			fmt.Fprintln(out, "(empty)")
		}
		return nil

	case "reset":
		if len(args) < 1 {
			return fmt.Errorf("usage: reset <machine> [--clear-history]")
		}
		clearHistory := len(args) > 1 && args[1] == "--clear-history"
		reg.Reset(args[0], clearHistory)
		fmt.Fprintf(out, "%s reset to %s\n", args[0], reg.State(args[0]))
		return nil

	case "graph":
		if len(args) != 1 {
			return fmt.Errorf("usage: graph <machine>")
		}
		entries := reg.Events(args[0])
		if entries == nil {
			return fmt.Errorf("machine %q is not registered", args[0])
		}
		overlay := graph.OverlayFor(reg, args[0])
		fmt.Fprint(out, graph.GenerateMermaid(entries, overlay))
		return nil

	default:
		return fmt.Errorf("unknown command %q (try \"help\")", cmd)
	}
}

func printHelp(out io.Writer) {
	fmt.Fprint(out, `Commands:
  machines                          list machines and their states
  send <machine> <EVENT> [payload]  deliver an event (payload parsed as JSON)
  state <machine>                   show the current state
  context <machine>                 show the context map
  history <machine> [limit]         show recent transitions, oldest first
  reset <machine> [--clear-history] reset to the initial state
  graph <machine>                   print a Mermaid diagram
  quit                              leave the shell
`)
}

func printValue(out io.Writer, v any) error {
	_, err := fmt.Fprintln(out, v)
	return err
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// createLogger configures the session logger. In debug mode it writes to
// stderr to keep the shell output on stdout clean.
func createLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ev *domain.TransitionEvent) {
			logger.Debug("transition",
				"machine", ev.MachineID,
				"from", ev.From,
				"to", ev.To,
				"event", ev.Event,
			)
		},
		OnNoMatch: func(ev *domain.TransitionEvent) {
			logger.Debug("no transition matched",
				"machine", ev.MachineID,
				"state", ev.From,
				"event", ev.Event,
			)
		},
		OnListenerPanic: func(ev *domain.ListenerPanicEvent) {
			logger.Warn("listener panicked",
				"machine", ev.MachineID,
				"panic", ev.Value,
			)
		},
	}
}
