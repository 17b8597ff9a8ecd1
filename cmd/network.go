package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3giveaway/internal/ui"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage networks",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the supported networks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := ui.NewTable([]ui.Column{
			{Title: "Key", Width: 9},
			{Title: "Name", Width: 9},
			{Title: "Chain ID", Width: 10},
			{Title: "Currency", Width: 9},
			{Title: "Explorer", Width: 30},
			{Title: "Active", Width: 6},
		})
		for _, n := range a.Registry.All() {
			active := ""
			if n.Key == a.Network.Key {
				active = ui.StyleSuccess.Render("✓")
			}
			t.AddRow(ui.Row{
				ui.ChainName(n.Key),
				n.Name,
				fmt.Sprintf("%d", n.ChainID),
				n.NativeCurrency.Symbol,
				ui.Meta(n.BlockExplorer),
				active,
			})
		}
		fmt.Println(t.Render())
		return nil
	},
}

var networkUseCmd = &cobra.Command{
	Use:   "use <key>",
	Short: "Set the required network",
	Long: `Persist the network the console targets. The wallet is asked to switch
on the next connect.

Examples:
  w3giveaway network use sepolia
  w3giveaway network use polygon`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := a.Registry.Get(args[0])
		if err != nil {
			return fmt.Errorf("unknown network %q (run `w3giveaway network list`)", args[0])
		}
		a.Config.Network = n.Key
		a.Config.SelectedGiveaway = nil
		if err := a.Config.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Network set to %s", ui.ChainName(n.Name))))
		fmt.Println(ui.Hint("Switch your wallet with: w3giveaway network switch"))
		return nil
	},
}

var networkSwitchCmd = &cobra.Command{
	Use:   "switch",
	Short: "Ask the wallet to switch to the required network",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ensureSession(ctx)
		ok, err := a.Session.SwitchNetwork(ctx)
		if err != nil {
			return err
		}
		if !ok {
			if cause := a.Session.LastError(); cause != nil {
				fmt.Println(ui.Warn(cause.Error()))
			}
			fmt.Println(ui.WrongNetworkNotice(a.Network.Name))
			return nil
		}
		fmt.Println(ui.Success(fmt.Sprintf("Wallet switched to %s", ui.ChainName(a.Network.Name))))
		if s := a.Session.Session(); !s.IsConnected {
			fmt.Println(ui.Hint("Connect with: w3giveaway connect"))
		}
		return nil
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd, networkUseCmd, networkSwitchCmd)
}
