package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3giveaway/internal/ui"
	"github.com/Mohsinsiddi/w3giveaway/internal/validate"
)

var participantGiveaway string

var participantCmd = &cobra.Command{
	Use:     "participant",
	Aliases: []string{"p"},
	Short:   "Register and list participants",
}

// giveawayFlagArgs turns the --giveaway flag into resolveGiveaway args.
func giveawayFlagArgs() []string {
	if participantGiveaway == "" {
		return nil
	}
	return []string{participantGiveaway}
}

var participantAddCmd = &cobra.Command{
	Use:   "add <email>[,<email>...]",
	Short: "Add participants by email",
	Long: `Add up to 10 participants to a giveaway. Emails may be separated by
commas or spaces. A single email is sent as addParticipant, several as one
batchAddParticipants transaction.

Examples:
  w3giveaway participant add alice@example.com
  w3giveaway participant add "a@x.io, b@y.io" --giveaway 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		batch := validate.ParseEmails(strings.Join(args, ","))
		if err := batch.Err(); err != nil {
			return err
		}
		if err := requireAccess(ctx); err != nil {
			return err
		}
		id, err := resolveGiveaway(ctx, giveawayFlagArgs())
		if err != nil {
			return err
		}
		emails := batch.Emails()
		if err := validate.Struct(validate.BatchInput{GiveawayID: id, Emails: emails}); err != nil {
			return err
		}
		g, err := findGiveaway(ctx, id)
		if err != nil {
			return err
		}
		if !g.IsOpen() {
			return fmt.Errorf("giveaway %d is not open for entries", id)
		}

		if len(emails) == 1 {
			return runWrite(cmd, "addParticipant", func(ctx context.Context) (string, error) {
				return a.Gateway.AddParticipant(ctx, id, emails[0])
			})
		}
		return runWrite(cmd, "batchAddParticipants", func(ctx context.Context) (string, error) {
			return a.Gateway.BatchAddParticipants(ctx, id, emails)
		})
	},
}

var participantListCmd = &cobra.Command{
	Use:   "list [id]",
	Short: "List a giveaway's participants",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := readContext(cmd)
		defer cancel()
		if err := requireAccess(ctx); err != nil {
			return err
		}
		if len(args) == 0 {
			args = giveawayFlagArgs()
		}
		id, err := resolveGiveaway(ctx, args)
		if err != nil {
			return err
		}
		ps, err := a.Gateway.GetGiveawayParticipants(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println(ui.StyleTitle.Render(fmt.Sprintf("Participants · giveaway #%d", id)))
		fmt.Println(ui.ParticipantTable(ps))
		return nil
	},
}

var participantWinnerCmd = &cobra.Command{
	Use:   "winner [id]",
	Short: "Show the drawn winner",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := readContext(cmd)
		defer cancel()
		if err := requireAccess(ctx); err != nil {
			return err
		}
		if len(args) == 0 {
			args = giveawayFlagArgs()
		}
		id, err := resolveGiveaway(ctx, args)
		if err != nil {
			return err
		}
		g, err := findGiveaway(ctx, id)
		if err != nil {
			return err
		}
		if !g.Completed {
			fmt.Println(ui.Info(fmt.Sprintf("Giveaway %d has no winner yet.", id)))
			return nil
		}
		w, err := a.Gateway.GetGiveawayWinner(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock(fmt.Sprintf("Winner · giveaway #%d", id), [][2]string{
			{"Email", w.Email},
			{"Entry", fmt.Sprintf("#%d", w.Index)},
		}))
		return nil
	},
}

func init() {
	participantCmd.PersistentFlags().StringVarP(&participantGiveaway, "giveaway", "g", "", "giveaway id (default: the selected giveaway)")
	participantCmd.AddCommand(participantAddCmd, participantListCmd, participantWinnerCmd)
}
