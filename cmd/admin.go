package cmd

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3giveaway/internal/ui"
	"github.com/Mohsinsiddi/w3giveaway/internal/validate"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage contract admins (owner only)",
}

// parseAdmin validates an admin address argument.
func parseAdmin(arg string) (common.Address, error) {
	if err := validate.Struct(validate.AdminInput{Address: arg}); err != nil {
		return common.Address{}, fmt.Errorf("%w: %q is not a valid address", validate.ErrValidation, arg)
	}
	return validate.ParseAddress(arg)
}

func adminWriteCmd(use, short, method, op string, add bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <address>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			addr, err := parseAdmin(args[0])
			if err != nil {
				return err
			}
			if err := requireAccess(ctx); err != nil {
				return err
			}
			if err := a.Gate.RequireOwner(ctx, op); err != nil {
				return err
			}
			isAdmin, err := a.Gateway.IsAdmin(ctx, addr)
			if err != nil {
				return err
			}
			switch {
			case add && isAdmin:
				fmt.Println(ui.Info(fmt.Sprintf("%s is already an admin.", ui.Addr(addr.Hex()))))
				return nil
			case !add && !isAdmin:
				fmt.Println(ui.Info(fmt.Sprintf("%s is not an admin.", ui.Addr(addr.Hex()))))
				return nil
			}
			return runWrite(cmd, method, func(ctx context.Context) (string, error) {
				if add {
					return a.Gateway.AddAdmin(ctx, addr)
				}
				return a.Gateway.RemoveAdmin(ctx, addr)
			})
		},
	}
}

var adminCheckCmd = &cobra.Command{
	Use:   "check [address]",
	Short: "Show the roles of an address (default: the connected account)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := readContext(cmd)
		defer cancel()
		if err := requireAccess(ctx); err != nil {
			return err
		}
		if len(args) == 0 {
			self := a.Session.Session().AccountHex()
			fmt.Println(ui.KeyValueBlock("Roles", [][2]string{
				{"Address", ui.Addr(self)},
				{"Owner", ui.YesNo(a.Gate.CheckOwner(ctx))},
				{"Admin", ui.YesNo(a.Gate.CheckAdmin(ctx))},
			}))
			return nil
		}
		addr, err := parseAdmin(args[0])
		if err != nil {
			return err
		}
		owner, err := a.Gateway.GetContractOwner(ctx)
		if err != nil {
			return err
		}
		isAdmin, err := a.Gateway.IsAdmin(ctx, addr)
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock("Roles", [][2]string{
			{"Address", ui.Addr(addr.Hex())},
			{"Owner", ui.YesNo(owner == addr)},
			{"Admin", ui.YesNo(isAdmin)},
			{"Contract owner", ui.Addr(owner.Hex())},
		}))
		return nil
	},
}

func init() {
	adminCmd.AddCommand(
		adminWriteCmd("add", "Grant admin rights", "addAdmin", "add admins", true),
		adminWriteCmd("remove", "Revoke admin rights", "removeAdmin", "remove admins", false),
		adminCheckCmd,
	)
}
