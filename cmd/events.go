package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3giveaway/internal/gateway"
	"github.com/Mohsinsiddi/w3giveaway/internal/ui"
)

var (
	eventsFromBlock uint64
	eventsBlocks    uint64
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent contract events",
	Long: `Show GiveawayCreated, ParticipantAdded, WinnerRequested, WinnerSelected
and GiveawayCompleted logs, oldest first.

By default the last 5000 blocks are scanned. Public RPCs often cap the
range of a single log query.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := readContext(cmd)
		defer cancel()
		if err := requireAccess(ctx); err != nil {
			return err
		}
		from := eventsFromBlock
		if !cmd.Flags().Changed("from-block") {
			head, err := a.HeadBlock(ctx)
			if err != nil {
				return err
			}
			if head > eventsBlocks {
				from = head - eventsBlocks
			}
		}

		sp := ui.NewSpinner(fmt.Sprintf("Scanning logs from block %d…", from))
		sp.Start()
		events, err := a.Gateway.RecentEvents(ctx, from)
		sp.Stop()
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println(ui.Info(fmt.Sprintf("No events since block %d.", from)))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Block", Width: 10},
			{Title: "Event", Width: 18},
			{Title: "Giveaway", Width: 8},
			{Title: "Detail", Width: 34},
			{Title: "Tx", Width: 13},
		})
		for _, e := range events {
			t.AddRow(ui.Row{
				strconv.FormatUint(e.Block, 10),
				ui.Val(string(e.Kind)),
				strconv.FormatUint(e.GiveawayID, 10),
				eventDetail(e),
				ui.Addr(ui.TruncateAddr(e.TxHash.Hex())),
			})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d event(s) since block %d", len(events), from)))
		return nil
	},
}

func eventDetail(e gateway.Event) string {
	switch e.Kind {
	case gateway.EventGiveawayCreated:
		return e.Name
	case gateway.EventParticipantAdded:
		return fmt.Sprintf("#%d %s", e.Index, e.Email)
	case gateway.EventWinnerSelected:
		return fmt.Sprintf("★ #%d %s", e.Index, e.Email)
	case gateway.EventWinnerRequested:
		if e.RequestID != nil {
			return "request " + ui.TruncateAddr(e.RequestID.String())
		}
		return "request"
	default:
		return ""
	}
}

func init() {
	eventsCmd.Flags().Uint64Var(&eventsFromBlock, "from-block", 0, "first block to scan")
	eventsCmd.Flags().Uint64Var(&eventsBlocks, "blocks", 5000, "blocks back from head when --from-block is unset")
}
