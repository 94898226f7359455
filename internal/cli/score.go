package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/SissyMaxy/becoming-protocol-sub003/internal/session"
)

// ScoreOptions holds flags for the score command.
type ScoreOptions struct {
	*RootOptions
	Edges      int
	Duration   string
	Completion string
}

// NewScoreCommand creates the score command: compute the points for a
// hypothetical session outcome.
func NewScoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the score for a session outcome",
		Long: `Compute the score for a hypothetical session outcome.

Example:
  edgectl score --edges 10 --duration 15m --completion denial_maintained`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return computeScore(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Edges, "edges", 0, "recorded edge count")
	cmd.Flags().StringVar(&opts.Duration, "duration", "0s", "active-phase duration (Go duration string)")
	cmd.Flags().StringVar(&opts.Completion, "completion", "", "completion type (required)")
	_ = cmd.MarkFlagRequired("completion")

	return cmd
}

// scoreResult is the JSON payload for the score command.
type scoreResult struct {
	Edges      int    `json:"edges"`
	Duration   string `json:"duration"`
	Completion string `json:"completion"`
	Points     int    `json:"points"`
}

func computeScore(opts *ScoreOptions, cmd *cobra.Command) error {
	d, err := time.ParseDuration(opts.Duration)
	if err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("bad duration %q", opts.Duration), err)
	}
	ct := session.ParseCompletionType(opts.Completion)
	if ct == session.CompletionUnset {
		return WrapExitError(ExitFailure, fmt.Sprintf("unknown completion type %q", opts.Completion), nil)
	}
	if opts.Edges < 0 {
		return WrapExitError(ExitFailure, "edges must not be negative", nil)
	}

	res := scoreResult{
		Edges:      opts.Edges,
		Duration:   d.String(),
		Completion: ct.String(),
		Points:     session.Points(opts.Edges, d, ct),
	}

	f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Emit(res, func(w io.Writer) {
		fmt.Fprintf(w, "%d\n", res.Points)
	})
}
