package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/printer"
	"github.com/joshuapare/heapkit/internal/logger"
)

var (
	runInitial   int
	runMinExtend int
	runLimit     int
	runDump      bool
	runKeepGoing bool
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().IntVar(&runInitial, "initial", alloc.DefaultInitialSize, "Initial arena size in bytes")
	cmd.Flags().IntVar(&runMinExtend, "min-extend", alloc.DefaultMinExtend, "Minimum growth step in bytes")
	cmd.Flags().IntVar(&runLimit, "limit", alloc.DefaultReserveSize, "Address space to reserve in bytes")
	cmd.Flags().BoolVar(&runDump, "dump", false, "Print the block list after the script")
	cmd.Flags().BoolVar(&runKeepGoing, "keep-going", false, "Report failed statements and continue")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [script|-]",
		Short: "Replay an allocation script",
		Long: `The run command executes an allocation script against a fresh arena and
prints a summary of the arena afterwards. The script is read from stdin when
no file or "-" is given.

Script statements, one per line (# starts a comment):
  <name> = alloc <size>
  <name> = calloc <count> <size>
  <name> = realloc <name|nil> <size>
  free <name|nil>
  fill <name> <byte>
  check <name> <byte> <n>
  dump
  stats
  verify

Example:
  heapctl run script.heap
  heapctl run --initial 4096 --dump script.heap
  echo "a = alloc 100" | heapctl run --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(args)
		},
	}
	return cmd
}

func runRun(args []string) error {
	src, name, err := openScript(args)
	if err != nil {
		return err
	}
	defer src.Close()

	printVerbose("Reading script: %s\n", name)
	stmts, err := parseScript(src)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	setupLogging()

	a, err := alloc.NewReserved(runLimit, &alloc.Options{
		InitialSize: runInitial,
		MinExtend:   runMinExtend,
	})
	if err != nil {
		return fmt.Errorf("failed to reserve arena: %w", err)
	}
	defer a.Close()

	out := os.Stdout
	opts := printer.DefaultOptions()
	opts.Color = !noColor
	if jsonOut {
		opts.Format = printer.FormatJSON
	}
	p := printer.New(a, out, opts)

	sess := newSession(a)
	sess.dump = p.PrintBlocks
	sess.report = func() error {
		if err := p.PrintSummary(); err != nil {
			return err
		}
		return p.PrintStats()
	}

	failed := 0
	for _, st := range stmts {
		msg, err := sess.exec(st)
		if err != nil {
			if !runKeepGoing {
				return fmt.Errorf("%s: %s: %w", name, st, err)
			}
			printError("%s: %s: %v\n", name, st, err)
			failed++
			continue
		}
		switch {
		case st.Op == opVerify && jsonOut && !quiet:
			if err := printJSON(map[string]any{"line": st.Line, "verify": "ok"}); err != nil {
				return err
			}
		case st.Op == opVerify:
			printInfo("%s\n", msg)
		case msg != "" && !jsonOut:
			printVerbose("%-4d %s\n", st.Line, msg)
		}
	}

	if !quiet {
		if runDump {
			if err := p.PrintBlocks(); err != nil {
				return err
			}
		}
		if err := p.PrintSummary(); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d statements failed", failed, len(stmts))
	}
	printVerbose("%d statements executed\n", len(stmts))
	return nil
}

// openScript returns the script source named by args, or stdin.
func openScript(args []string) (io.ReadCloser, string, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(os.Stdin), "<stdin>", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("failed to open script: %w", err)
	}
	return f, args[0], nil
}

// setupLogging routes allocator diagnostics to stderr: warnings by default,
// everything with --verbose, nothing with --quiet.
func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger.Init(logger.Options{
		Enabled: !quiet,
		Output:  os.Stderr,
		Level:   level,
		JSON:    jsonOut,
	})
}
