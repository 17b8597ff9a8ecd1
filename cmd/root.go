package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3giveaway/internal/app"
	"github.com/Mohsinsiddi/w3giveaway/internal/ui"
	"github.com/Mohsinsiddi/w3giveaway/internal/wallet"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/w3giveaway/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir  string
	verbose bool
	a       *app.App
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "w3giveaway",
	Short: "Admin console for the MultiGiveaway contract",
	Long: `w3giveaway manages a MultiGiveaway contract from the terminal.

  Connect a wallet, create giveaways, register participants by email,
  draw winners through Chainlink VRF and manage admins on Sepolia,
  Amoy or Polygon.

The network comes from config ("network") or W3GIVEAWAY_NETWORK. Every
contract command requires the connected account to be the contract owner
or an admin.`,
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip for commands that don't need the app.
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		a, err = app.New(cmd.Context(), app.Options{
			ConfigDir: cfgDir,
			Verbose:   verbose,
			Approve:   approveAccount,
		})
		if err != nil {
			return fmt.Errorf("starting: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(ui.Banner())
		return cmd.Help()
	},
}

// approveAccount is the local wallet's connect prompt. The default signing
// account, or the only one, is approved without asking. The picker cannot
// run inside the dashboard.
func approveAccount(candidates []*wallet.Wallet) (*wallet.Wallet, error) {
	if d := a.Wallets.Default(); d != nil && d.CanSign() {
		return d, nil
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	if dashboardRunning {
		return nil, errPickerInDashboard
	}
	return ui.ApproveAccount(candidates)
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	if a != nil {
		a.Close()
	}
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		os.Exit(1)
	}
}

func init() {
	// W3GIVEAWAY_CONFIG_DIR is read by config.Load when --config is empty.
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: ~/.w3giveaway)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	rootCmd.AddCommand(
		connectCmd,
		disconnectCmd,
		statusCmd,
		networkCmd,
		rpcCmd,
		walletCmd,
		configCmd,
		giveawayCmd,
		participantCmd,
		drawCmd,
		adminCmd,
		vrfCmd,
		eventsCmd,
		dashboardCmd,
	)
}
