package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3giveaway/internal/ui"
)

var drawYes bool

var drawCmd = &cobra.Command{
	Use:   "draw [id]",
	Short: "Request a Chainlink VRF winner draw",
	Long: `Request a verifiably random winner for an open giveaway. The contract
asks Chainlink VRF for randomness; the winner is recorded when the
coordinator answers, usually a few blocks later.

Check the result with: w3giveaway participant winner <id>`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireAccess(ctx); err != nil {
			return err
		}
		id, err := resolveGiveaway(ctx, args)
		if err != nil {
			return err
		}
		g, err := findGiveaway(ctx, id)
		if err != nil {
			return err
		}
		if !g.IsOpen() {
			return fmt.Errorf("giveaway %d is not open", id)
		}
		if g.ParticipantCount == 0 {
			return fmt.Errorf("giveaway %d has no participants", id)
		}
		if !drawYes && !ui.ConfirmDanger(fmt.Sprintf("Draw a winner for %q among %d participants?", g.Name, g.ParticipantCount)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		if err := runWrite(cmd, "drawWinner", func(ctx context.Context) (string, error) {
			return a.Gateway.DrawWinner(ctx, id)
		}); err != nil {
			return err
		}
		fmt.Println(ui.Hint(fmt.Sprintf("Winner is picked when VRF answers. Check with: w3giveaway participant winner %d", id)))
		return nil
	},
}

func init() {
	drawCmd.Flags().BoolVarP(&drawYes, "yes", "y", false, "skip the confirmation prompt")
}
