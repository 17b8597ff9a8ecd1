package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3giveaway/internal/ui"
	"github.com/Mohsinsiddi/w3giveaway/internal/validate"
)

var giveawayListActive bool

var giveawayCmd = &cobra.Command{
	Use:     "giveaway",
	Aliases: []string{"g"},
	Short:   "Create and manage giveaways",
}

var giveawayListCmd = &cobra.Command{
	Use:   "list",
	Short: "List giveaways",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := readContext(cmd)
		defer cancel()
		if err := requireAccess(ctx); err != nil {
			return err
		}
		if err := a.LoadGiveaways(ctx); err != nil {
			return err
		}
		list := a.Giveaways.All()
		if giveawayListActive {
			list = a.Giveaways.Active()
		}
		if len(list) == 0 {
			fmt.Println(ui.Info("No giveaways yet."))
			fmt.Println(ui.Hint("Create one with: w3giveaway giveaway create \"Spring Raffle\""))
			return nil
		}
		sel, ok := a.Giveaways.Selected()
		fmt.Println(ui.GiveawayTable(list, sel.ID, ok))
		fmt.Println(ui.Meta(fmt.Sprintf("%d giveaway(s)", len(list))))
		return nil
	},
}

var giveawayCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a giveaway",
	Long: `Create a giveaway. Names may contain letters and spaces only.

Example:
  w3giveaway giveaway create "Spring Raffle"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(strings.Join(args, " "))
		if err := validate.GiveawayName(name); err != nil {
			return err
		}
		if err := validate.Struct(validate.CreateGiveawayInput{Name: name}); err != nil {
			return err
		}
		if err := requireAccess(cmd.Context()); err != nil {
			return err
		}
		return runWrite(cmd, "createGiveaway", func(ctx context.Context) (string, error) {
			return a.Gateway.CreateGiveaway(ctx, name)
		})
	},
}

func setActiveCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
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
			if g.Completed {
				return fmt.Errorf("giveaway %d is completed", id)
			}
			if g.Active == active {
				fmt.Println(ui.Info(fmt.Sprintf("Giveaway %d is already %s.", id, activeLabel(active))))
				return nil
			}
			return runWrite(cmd, "setGiveawayActive", func(ctx context.Context) (string, error) {
				return a.Gateway.SetGiveawayActive(ctx, id, active)
			})
		},
	}
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

var giveawaySelectCmd = &cobra.Command{
	Use:   "select <id>",
	Short: "Select the giveaway later commands act on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := readContext(cmd)
		defer cancel()
		id, err := validate.GiveawayID(args[0])
		if err != nil {
			return err
		}
		if err := requireAccess(ctx); err != nil {
			return err
		}
		if err := a.LoadGiveaways(ctx); err != nil {
			return err
		}
		if err := a.SelectGiveaway(id); err != nil {
			return fmt.Errorf("giveaway %d: %w", id, err)
		}
		g, _ := a.Giveaways.Selected()
		fmt.Println(ui.Success(fmt.Sprintf("Selected giveaway %d · %s", g.ID, ui.Val(g.Name))))
		return nil
	},
}

var giveawayDetailsCmd = &cobra.Command{
	Use:   "details [id]",
	Short: "Show one giveaway",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := readContext(cmd)
		defer cancel()
		if err := requireAccess(ctx); err != nil {
			return err
		}
		id, err := resolveGiveaway(ctx, args)
		if err != nil {
			return err
		}
		if err := a.LoadGiveaways(ctx); err != nil {
			return err
		}
		if err := a.Giveaways.Select(id); err != nil {
			return fmt.Errorf("giveaway %d: %w", id, err)
		}
		if err := a.Giveaways.LoadDetails(ctx, a.Gateway); err != nil {
			return err
		}
		d, _ := a.Giveaways.Details()
		fmt.Println(ui.DetailsBlock(id, d))
		return nil
	},
}

var giveawayStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show giveaway totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := readContext(cmd)
		defer cancel()
		if err := requireAccess(ctx); err != nil {
			return err
		}
		if err := a.LoadGiveaways(ctx); err != nil {
			return err
		}
		fmt.Println(ui.StatCards(a.Giveaways.Stats()))
		return nil
	},
}

func init() {
	giveawayListCmd.Flags().BoolVar(&giveawayListActive, "active", false, "only giveaways open for entries")
	giveawayCmd.AddCommand(
		giveawayListCmd,
		giveawayCreateCmd,
		setActiveCmd("activate", "Open a giveaway for entries", true),
		setActiveCmd("deactivate", "Close a giveaway for entries", false),
		giveawaySelectCmd,
		giveawayDetailsCmd,
		giveawayStatsCmd,
	)
}
