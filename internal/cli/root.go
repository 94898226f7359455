package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
)

// EnvConfig is the environment-derived defaults for every command. Flags
// override these.
type EnvConfig struct {
	Database string `env:"EDGECTL_DB"`
	LogLevel string `env:"EDGECTL_LOG_LEVEL" envDefault:"info"`
}

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "text" | "json"
	Env     EnvConfig
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the edgectl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	_ = env.Parse(&opts.Env)

	cmd := &cobra.Command{
		Use:   "edgectl",
		Short: "edgectl - edge session engine",
		Long: `Drive, replay, and inspect edge sessions.

Sessions run through a fixed phase machine (prep, active, cooldown, post,
completion) with randomized recovery windows, commitment auctions at fixed
trigger edges, and deterministic scoring. Scripted scenario files replay a
whole session on a virtual clock; results can be persisted to SQLite.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(opts)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewSessionsCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewAuctionsCommand(opts))
	cmd.AddCommand(NewScoreCommand(opts))

	return cmd
}

func configureLogging(opts *RootOptions) {
	level := slog.LevelInfo
	switch opts.Env.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
