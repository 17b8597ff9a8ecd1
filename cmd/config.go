package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3giveaway/internal/config"
	"github.com/Mohsinsiddi/w3giveaway/internal/ui"
	"github.com/Mohsinsiddi/w3giveaway/internal/validate"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(a.Config, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Println(string(data))
		fmt.Println(ui.Meta("Config directory: " + a.Config.Dir()))
		return nil
	},
}

var configSetContractCmd = &cobra.Command{
	Use:   "set-contract <address>",
	Short: "Set the MultiGiveaway contract address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := validate.ParseAddress(args[0])
		if err != nil {
			return err
		}
		if prev := a.Config.ContractAddress; prev != "" && !strings.EqualFold(prev, addr.Hex()) {
			if !ui.Confirm(fmt.Sprintf("Replace contract %s with %s?", prev, addr.Hex())) {
				fmt.Println(ui.Meta("Cancelled."))
				return nil
			}
		}
		a.Config.ContractAddress = addr.Hex()
		a.Config.SelectedGiveaway = nil
		if err := a.Config.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success("Contract set to " + ui.Addr(addr.Hex())))
		return nil
	},
}

var configSetProviderCmd = &cobra.Command{
	Use:   "set-provider <local|rpc> [url]",
	Short: "Choose the wallet provider",
	Long: `Choose where accounts and signatures come from.

  local  accounts from 'w3giveaway wallet', keys in the keystore
  rpc    an external wallet endpoint speaking EIP-1193 methods over JSON-RPC`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := args[0]
		switch kind {
		case config.ProviderLocal:
			a.Config.ProviderURL = ""
		case config.ProviderRPC:
			if len(args) < 2 {
				return fmt.Errorf("the rpc provider needs a URL")
			}
			a.Config.ProviderURL = args[1]
		default:
			return fmt.Errorf("unknown provider %q (want local or rpc)", kind)
		}
		a.Config.Provider = kind
		if err := a.Config.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success("Provider set to " + providerLabel()))
		return nil
	},
}

var configSetAuthRefreshCmd = &cobra.Command{
	Use:   "set-auth-refresh <seconds>",
	Short: "Set how often roles are re-checked while connected",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: seconds must be a positive integer", validate.ErrValidation)
		}
		a.Config.AuthRefreshSeconds = n
		if err := a.Config.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Role refresh every %ds", n)))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd, configSetContractCmd, configSetProviderCmd, configSetAuthRefreshCmd)
}
