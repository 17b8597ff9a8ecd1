package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3giveaway/internal/ui"
	"github.com/Mohsinsiddi/w3giveaway/internal/wallet"
)

var walletKeyFlag string

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the local wallet's accounts",
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name> [address]",
	Short: "Add an account",
	Long: `Add an account to the local wallet.

With --key the private key goes to the OS keychain (or the encrypted file
keystore) and the account can sign. Without it the account is watch-only.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if walletKeyFlag != "" {
			w, err := a.Wallets.AddWithKey(name, walletKeyFlag)
			if err != nil {
				return err
			}
			fmt.Println(ui.Success(fmt.Sprintf("Signing account %q added: %s", name, ui.Addr(w.Address))))
			fmt.Println(ui.Hint(fmt.Sprintf("Set as default with: w3giveaway wallet use %s", name)))
			return nil
		}
		if len(args) < 2 {
			return fmt.Errorf("address required for a watch-only account\n  Usage: w3giveaway wallet add <name> <address>\n  Or for signing: w3giveaway wallet add <name> --key <private-key>")
		}
		if err := a.Wallets.Add(name, &wallet.Wallet{Address: args[1], Type: wallet.TypeWatchOnly}); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Watch-only account %q added: %s", name, ui.Addr(args[1]))))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wallets := a.Wallets.List()
		if len(wallets) == 0 {
			fmt.Println(ui.Info("No accounts configured yet."))
			fmt.Println(ui.Hint("Add one with: w3giveaway wallet add admin --key <private-key>"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 44},
			{Title: "Type", Width: 12},
			{Title: "Default", Width: 8},
		})
		for _, w := range wallets {
			def := ""
			if w.IsDefault {
				def = ui.StyleSuccess.Render("✓")
			}
			t.AddRow(ui.Row{ui.Val(w.Name), ui.Addr(w.Address), ui.Meta(walletTypeLabel(w.Type)), def})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d account(s) configured", len(wallets))))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an account and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !ui.ConfirmDanger(fmt.Sprintf("Remove account %q?", name)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		if err := a.Wallets.Remove(name); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Account %q removed.", name)))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default account",
	Long: `Set the account the local wallet offers first when connecting. With a
single signing account the connect prompt is skipped. A connected local
wallet switches to the account immediately and its role is re-checked.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		ensureSession(cmd.Context())
		before := a.Session.Session().AccountHex()
		if err := a.UseAccount(name); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default account set to %q.", name)))
		if s := a.Session.Session(); s.IsConnected && s.AccountHex() != before {
			fmt.Println(ui.Info("Connected account is now " + ui.Addr(s.AccountHex()) + ", role: " + gateLabel()))
		}
		return nil
	},
}

func init() {
	walletAddCmd.Flags().StringVar(&walletKeyFlag, "key", "", "private key for a signing account (stored in the keystore)")
	walletCmd.AddCommand(walletAddCmd, walletListCmd, walletRemoveCmd, walletUseCmd)
}

// walletTypeLabel converts a wallet type to a user-friendly label.
func walletTypeLabel(t string) string {
	switch t {
	case wallet.TypeSigning:
		return "signing"
	default:
		return t
	}
}
