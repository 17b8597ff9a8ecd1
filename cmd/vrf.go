package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3giveaway/internal/ui"
	"github.com/Mohsinsiddi/w3giveaway/internal/validate"
)

var vrfCmd = &cobra.Command{
	Use:   "vrf",
	Short: "Show and tune the Chainlink VRF settings",
}

var vrfShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the contract's VRF configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := readContext(cmd)
		defer cancel()
		if err := requireAccess(ctx); err != nil {
			return err
		}
		c, err := a.Gateway.GetChainlinkConfig(ctx)
		if err != nil {
			return err
		}
		pairs := [][2]string{
			{"Coordinator", ui.Addr(c.Coordinator.Hex())},
			{"Subscription", c.SubID.String()},
			{"Key hash", ui.Addr(c.KeyHash.Hex())},
			{"Callback gas", strconv.FormatUint(uint64(c.GasLimit), 10)},
			{"Confirmations", strconv.FormatUint(uint64(c.Confirmations), 10)},
		}
		fmt.Println(ui.KeyValueBlock("Chainlink VRF · "+a.Network.Name, pairs))

		def := a.Network.VRF
		if def.KeyHash != "" && c.KeyHash.Hex() != def.KeyHash {
			fmt.Println(ui.Warn("Key hash differs from the " + a.Network.Name + " default " + def.KeyHash))
		}
		if def.Coordinator != "" && c.Coordinator.Hex() != def.Coordinator {
			fmt.Println(ui.Warn("Coordinator differs from the " + a.Network.Name + " default " + def.Coordinator))
		}
		return nil
	},
}

var vrfSetKeyHashCmd = &cobra.Command{
	Use:   "set-key-hash [hash]",
	Short: "Set the VRF key hash (default: the network's lane)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := a.Network.VRF.KeyHash
		if len(args) > 0 {
			raw = args[0]
		}
		hash, err := validate.KeyHash(raw)
		if err != nil {
			return err
		}
		return vrfWrite(cmd, "setKeyHash", "set the key hash", func(ctx context.Context) (string, error) {
			return a.Gateway.SetKeyHash(ctx, hash)
		})
	},
}

var vrfSetGasLimitCmd = &cobra.Command{
	Use:   "set-gas-limit <limit>",
	Short: "Set the VRF callback gas limit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := validate.GasLimit(args[0])
		if err != nil {
			return err
		}
		return vrfWrite(cmd, "setCallbackGasLimit", "set the callback gas limit", func(ctx context.Context) (string, error) {
			return a.Gateway.SetCallbackGasLimit(ctx, limit)
		})
	},
}

var vrfSetSubscriptionCmd = &cobra.Command{
	Use:   "set-subscription <id>",
	Short: "Set the VRF subscription id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := validate.SubscriptionID(args[0])
		if err != nil {
			return err
		}
		return vrfWrite(cmd, "setSubscriptionId", "set the subscription id", func(ctx context.Context) (string, error) {
			return a.Gateway.SetSubscriptionID(ctx, id)
		})
	},
}

func vrfWrite(cmd *cobra.Command, method, op string, fn func(ctx context.Context) (string, error)) error {
	ctx := cmd.Context()
	if err := requireAccess(ctx); err != nil {
		return err
	}
	if err := a.Gate.RequireOwnerOrAdmin(ctx, op); err != nil {
		return err
	}
	return runWrite(cmd, method, fn)
}

func init() {
	vrfCmd.AddCommand(vrfShowCmd, vrfSetKeyHashCmd, vrfSetGasLimitCmd, vrfSetSubscriptionCmd)
}
