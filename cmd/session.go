package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3giveaway/internal/auth"
	"github.com/Mohsinsiddi/w3giveaway/internal/ui"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect a wallet and switch it to the configured network",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := a.Connect(ctx)
		if err != nil {
			if cause := a.Session.LastError(); cause != nil {
				fmt.Println(ui.Warn(cause.Error()))
			}
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Connected %s on %s", ui.Addr(s.AccountHex()), ui.ChainName(a.Network.Name))))

		a.Gate.Evaluate(ctx)
		switch a.Gate.State() {
		case auth.WrongNetwork:
			fmt.Println(ui.WrongNetworkNotice(a.Network.Name))
		case auth.Authorized:
			fmt.Println(ui.Info("Role: " + roleLabel(a.Gate.Snapshot())))
		default:
			fmt.Println(ui.DeniedScreen(s.AccountHex()))
		}
		return nil
	},
}

var disconnectRevoke bool

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Forget the wallet session until the next connect",
	Long: `Disconnect the wallet. The local wallet keeps its account approval, so
the next connect does not ask again; pass --revoke to drop it as well.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if disconnectRevoke {
			if err := a.Revoke(); err != nil {
				return err
			}
			fmt.Println(ui.Success("Disconnected and account approval revoked."))
			fmt.Println(ui.Hint("Reconnect with: w3giveaway connect"))
			return nil
		}
		if err := a.Disconnect(); err != nil {
			return err
		}
		fmt.Println(ui.Success("Disconnected."))
		fmt.Println(ui.Hint("Reconnect with: w3giveaway connect"))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show wallet, network and role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ensureSession(ctx)
		s := a.Session.Session()

		pairs := [][2]string{
			{"Network", ui.ChainName(a.Network.Name) + ui.Meta(fmt.Sprintf("  (chain %d)", a.Network.ChainID))},
			{"Contract", contractLabel()},
			{"Provider", providerLabel()},
		}
		switch {
		case !s.IsConnected && s.Account == nil:
			pairs = append(pairs, [2]string{"Wallet", ui.Meta("not connected")})
		default:
			pairs = append(pairs,
				[2]string{"Account", ui.Addr(s.AccountHex())},
				[2]string{"Explorer", ui.Meta(a.Network.AddressURL(s.AccountHex()))},
				[2]string{"Chain", chainLabel(s.ChainID)},
				[2]string{"Correct network", ui.YesNo(s.IsCorrectNetwork)})
		}
		if s.IsConnected && s.IsCorrectNetwork && a.Gateway.Ready() {
			a.Gate.Evaluate(ctx)
			pairs = append(pairs, [2]string{"Role", roleLabel(a.Gate.Snapshot())})
		}
		fmt.Println(ui.KeyValueBlock("Status", pairs))

		if s.Account != nil && !s.IsCorrectNetwork {
			fmt.Println(ui.WrongNetworkNotice(a.Network.Name))
		}
		return nil
	},
}

func roleLabel(st auth.AuthorizationState) string {
	switch {
	case st.IsOwner && st.IsAdmin:
		return ui.StyleSuccess.Render("owner, admin")
	case st.IsOwner:
		return ui.StyleSuccess.Render("owner")
	case st.IsAdmin:
		return ui.StyleSuccess.Render("admin")
	default:
		return ui.StyleError.Render("none")
	}
}

// gateLabel describes the gate state after an account switch.
func gateLabel() string {
	if a.Gate.State() == auth.Authorized {
		return roleLabel(a.Gate.Snapshot())
	}
	return ui.StyleError.Render(a.Gate.State().String())
}

// chainLabel names the wallet's chain when it is a supported network.
func chainLabel(id int64) string {
	n, err := a.Registry.GetByChainID(id)
	if err != nil {
		return fmt.Sprintf("%d", id) + ui.Meta("  (unsupported)")
	}
	return fmt.Sprintf("%s (%d)", n.Name, id)
}

func contractLabel() string {
	if a.Config.ContractAddress == "" {
		return ui.Meta("not configured")
	}
	return ui.Addr(a.Config.ContractAddress)
}

func providerLabel() string {
	if a.Config.Provider == "" {
		return "local"
	}
	if a.Config.ProviderURL != "" {
		return a.Config.Provider + ui.Meta("  "+a.Config.ProviderURL)
	}
	return a.Config.Provider
}

func init() {
	disconnectCmd.Flags().BoolVar(&disconnectRevoke, "revoke", false, "also revoke the local wallet's account approval")
}
