package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/SissyMaxy/becoming-protocol-sub003/internal/harness"
	"github.com/SissyMaxy/becoming-protocol-sub003/internal/session"
)

// NewAuctionsCommand creates the auctions command: print the static
// auction schedule.
func NewAuctionsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "auctions",
		Short:         "Print the auction schedule",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &Formatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Emit(auctionSchedule(), func(w io.Writer) {
				fmt.Fprint(w, harness.RenderAuctionSchedule())
			})
		},
	}
	return cmd
}

// auctionBlock is the JSON shape for one trigger edge's option set.
type auctionBlock struct {
	TriggerEdge int                     `json:"trigger_edge"`
	Options     []session.AuctionOption `json:"options"`
}

func auctionSchedule() []auctionBlock {
	var blocks []auctionBlock
	for _, edge := range session.TriggerEdges {
		opts, ok := session.OptionsFor(edge)
		if !ok {
			continue
		}
		blocks = append(blocks, auctionBlock{TriggerEdge: edge, Options: opts})
	}
	return blocks
}
