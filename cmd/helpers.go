package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3giveaway/internal/auth"
	"github.com/Mohsinsiddi/w3giveaway/internal/config"
	"github.com/Mohsinsiddi/w3giveaway/internal/gateway"
	"github.com/Mohsinsiddi/w3giveaway/internal/ui"
	"github.com/Mohsinsiddi/w3giveaway/internal/validate"
)

var errNoSelection = errors.New("no giveaway selected (pass an id or run `w3giveaway giveaway select <id>`)")

var started bool

// readContext bounds a read-only command's contract calls.
func readContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), config.ReadTimeout)
}

// ensureSession restores the remembered wallet session once per run.
func ensureSession(ctx context.Context) {
	if started {
		return
	}
	started = true
	a.Start(ctx)
}

// requireAccess restores the session, checks the wallet is ready on the
// right network and that the account is the owner or an admin.
func requireAccess(ctx context.Context) error {
	ensureSession(ctx)
	if err := a.Ready(); err != nil {
		return err
	}
	if !a.Gate.Evaluate(ctx).Authorized {
		return fmt.Errorf("%w: %s is neither the contract owner nor an admin",
			auth.ErrUnauthorized, a.Session.Session().AccountHex())
	}
	return nil
}

// resolveGiveaway returns the id given in args, or the current selection.
func resolveGiveaway(ctx context.Context, args []string) (uint64, error) {
	if len(args) > 0 {
		return validate.GiveawayID(args[0])
	}
	if err := a.LoadGiveaways(ctx); err != nil {
		return 0, err
	}
	g, ok := a.Giveaways.Selected()
	if !ok {
		return 0, errNoSelection
	}
	return g.ID, nil
}

// findGiveaway looks id up in the freshly loaded list.
func findGiveaway(ctx context.Context, id uint64) (gateway.Giveaway, error) {
	if err := a.LoadGiveaways(ctx); err != nil {
		return gateway.Giveaway{}, err
	}
	for _, g := range a.Giveaways.All() {
		if g.ID == id {
			return g, nil
		}
	}
	return gateway.Giveaway{}, fmt.Errorf("giveaway %d not found", id)
}

// runWrite sends a tracked transaction and prints its outcome.
func runWrite(cmd *cobra.Command, name string, fn func(ctx context.Context) (string, error)) error {
	sp := ui.NewSpinner(fmt.Sprintf("%s · waiting for confirmation on %s…", name, a.Network.Name))
	sp.Start()
	_, err := a.Write(cmd.Context(), name, fn)
	sp.Stop()
	if err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	fmt.Println(ui.TxResult(a.Tracker.Snapshot()))
	return nil
}
