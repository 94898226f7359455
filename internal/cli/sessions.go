package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/SissyMaxy/becoming-protocol-sub003/internal/store"
)

// SessionsOptions holds flags for the sessions and show commands.
type SessionsOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewSessionsCommand creates the sessions command: list stored sessions,
// newest first.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "sessions",
		Short:         "List stored sessions",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSessions(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $EDGECTL_DB)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum sessions to list")

	return cmd
}

// NewShowCommand creates the show command: inspect one stored session with
// its edges and commitments.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "show <session-id>",
		Short:         "Show one stored session in detail",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSession(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $EDGECTL_DB)")

	return cmd
}

func (o *SessionsOptions) openStore() (*store.Store, error) {
	path := o.Database
	if path == "" {
		path = o.Env.Database
	}
	if path == "" {
		return nil, errors.New("no database: pass --db or set EDGECTL_DB")
	}
	return store.Open(path)
}

func listSessions(opts *SessionsOptions, cmd *cobra.Command) error {
	st, err := opts.openStore()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	recs, err := st.ListSessions(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Emit(recs, func(w io.Writer) {
		if len(recs) == 0 {
			fmt.Fprintln(w, "no sessions")
			return
		}
		for _, rec := range recs {
			fmt.Fprintf(w, "%s  %-10s %-11s edges %d/%d  points %-4d %s\n",
				rec.ID, rec.Kind, rec.Status, rec.EdgeCount, rec.TargetEdges,
				rec.Points, rec.CreatedAt.Format(time.RFC3339))
		}
	})
}

// sessionDetail is the JSON payload for a single-session view.
type sessionDetail struct {
	Session     store.SessionRecord      `json:"session"`
	Edges       []edgeView               `json:"edges,omitempty"`
	Commitments []store.CommitmentRecord `json:"commitments,omitempty"`
}

type edgeView struct {
	Number    int    `json:"number"`
	Elapsed   string `json:"elapsed"`
	SinceLast string `json:"since_last"`
	Recovery  string `json:"recovery"`
}

func showSession(opts *SessionsOptions, id string, cmd *cobra.Command) error {
	st, err := opts.openStore()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	rec, err := st.GetSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return WrapExitError(ExitFailure, fmt.Sprintf("session %s not found", id), nil)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	edges, err := st.ListEdges(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read edges", err)
	}
	commitments, err := st.ListCommitments(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read commitments", err)
	}

	detail := sessionDetail{Session: rec, Commitments: commitments}
	for _, e := range edges {
		detail.Edges = append(detail.Edges, edgeView{
			Number:    e.Number,
			Elapsed:   e.Elapsed.String(),
			SinceLast: e.SinceLast.String(),
			Recovery:  e.Recovery.String(),
		})
	}

	f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Emit(detail, func(w io.Writer) {
		fmt.Fprintf(w, "session %s\n", rec.ID)
		fmt.Fprintf(w, "  kind %s  status %s  edges %d/%d  points %d\n",
			rec.Kind, rec.Status, rec.EdgeCount, rec.TargetEdges, rec.Points)
		if rec.Completion != "" {
			fmt.Fprintf(w, "  completion %s  reason %s\n", rec.Completion, rec.EndReason)
		}
		if rec.Mood != "" {
			fmt.Fprintf(w, "  mood %s\n", rec.Mood)
		}
		if rec.Notes != "" {
			fmt.Fprintf(w, "  notes %s\n", rec.Notes)
		}
		for _, e := range detail.Edges {
			fmt.Fprintf(w, "  edge %2d  at %-8s since-last %-8s recovery %s\n",
				e.Number, e.Elapsed, e.SinceLast, e.Recovery)
		}
		for _, c := range commitments {
			fmt.Fprintf(w, "  commitment %s (%s %s) at edge %d\n",
				c.OptionID, c.Commitment, c.Value, c.TriggerEdge)
		}
	})
}
