package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/SissyMaxy/becoming-protocol-sub003/internal/harness"
	"github.com/SissyMaxy/becoming-protocol-sub003/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// NewRunCommand creates the run command: execute a scenario file on a
// virtual clock and print the trace.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scripted session scenario",
		Long: `Run a scripted session scenario on a virtual clock.

The scenario file drives the full engine (timers, auctions, scoring)
deterministically. Without --db the session runs against an in-memory
store; with --db every durable write lands in the SQLite file.

Example:
  edgectl run night12.yaml
  edgectl run --db ./edge.db night12.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $EDGECTL_DB; empty runs in memory)")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	sc, err := harness.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	runOpts := []harness.RunOption{harness.WithLogger(slog.Default())}
	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Env.Database
	}
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		runOpts = append(runOpts, harness.WithStore(st))
	}

	res, err := harness.Run(sc, runOpts...)
	if err != nil {
		return WrapExitError(ExitFailure, "scenario failed", err)
	}

	f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Emit(res, func(w io.Writer) { renderResult(w, res) })
}

func renderResult(w io.Writer, res *harness.Result) {
	fmt.Fprintf(w, "scenario %s\n", res.Scenario)
	for _, ev := range res.Events {
		fmt.Fprintf(w, "  %-8s %-14s %s\n", ev.At, ev.Kind, ev.Detail)
	}
	fmt.Fprintf(w, "final: phase=%s edges=%d/%d points=%d status=%s\n",
		res.Final.Phase, res.Final.EdgeCount, res.Final.TargetEdges,
		res.Final.Points, res.Final.Status)
	if res.Final.Completion != "" {
		fmt.Fprintf(w, "completion: %s\n", res.Final.Completion)
	}
	for _, id := range res.Final.Commitments {
		fmt.Fprintf(w, "commitment: %s\n", id)
	}
}
