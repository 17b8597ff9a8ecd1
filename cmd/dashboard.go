package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3giveaway/internal/app"
	"github.com/Mohsinsiddi/w3giveaway/internal/auth"
	"github.com/Mohsinsiddi/w3giveaway/internal/gateway"
	"github.com/Mohsinsiddi/w3giveaway/internal/giveaway"
	"github.com/Mohsinsiddi/w3giveaway/internal/session"
	"github.com/Mohsinsiddi/w3giveaway/internal/txn"
	"github.com/Mohsinsiddi/w3giveaway/internal/ui"
)

var errPickerInDashboard = errors.New("several accounts and no default: run `w3giveaway wallet use <name>` or connect outside the dashboard")

var (
	dashboardRunning  bool
	dashboardInterval time.Duration
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Live admin dashboard",
	Long: `Open the interactive dashboard. Shows giveaway totals, the open
giveaways and the selected giveaway's participants, refreshed periodically.

Keys:
  c connect   x disconnect   r reload   q quit
  ↑/↓ select giveaway   enter participants   d draw winner`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := a.Ready(); errors.Is(err, app.ErrNoContract) {
			return err
		}
		ensureSession(ctx)

		dashboardRunning = true
		defer func() { dashboardRunning = false }()
		p := ui.NewDashboard(ctx, dashboardAdapter{a}, dashboardInterval)
		defer watchDashboard(p)()
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		return nil
	},
}

// watchDashboard forwards gate, tracker and selector changes to p until the
// returned func is called. Notifications may come from p's own update loop,
// so they are sent from a new goroutine.
func watchDashboard(p *tea.Program) func() {
	send := func(source string) {
		go p.Send(ui.DashboardStateMsg{Source: source})
	}
	unsubs := []func(){
		a.Gate.Subscribe(func(auth.AuthorizationState) { send(ui.SourceGate) }),
		a.Tracker.Subscribe(func(txn.Record) { send(ui.SourceTracker) }),
		a.Giveaways.Subscribe(func() { send(ui.SourceSelector) }),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// dashboardAdapter exposes the app to the dashboard.
type dashboardAdapter struct{ app *app.App }

func (d dashboardAdapter) Connect(ctx context.Context) error {
	_, err := d.app.Connect(ctx)
	return err
}

func (d dashboardAdapter) Disconnect() error { return d.app.Disconnect() }

func (d dashboardAdapter) Session() session.Session { return d.app.Session.Session() }

func (d dashboardAdapter) GateState() auth.RenderState { return d.app.Gate.State() }

func (d dashboardAdapter) Selector() *giveaway.Selector { return d.app.Giveaways }

func (d dashboardAdapter) Tracker() *txn.Tracker { return d.app.Tracker }

func (d dashboardAdapter) NetworkName() string { return d.app.Network.Name }

// Reload re-checks roles and reloads the list. Without a ready wallet the
// gate screens render and there is nothing to load.
func (d dashboardAdapter) Reload(ctx context.Context) error {
	if d.app.Ready() != nil {
		return nil
	}
	if !d.app.Gate.Evaluate(ctx).Authorized {
		return nil
	}
	return d.app.LoadGiveaways(ctx)
}

func (d dashboardAdapter) Participants(ctx context.Context, id uint64) ([]gateway.Participant, error) {
	return d.app.Gateway.GetGiveawayParticipants(ctx, id)
}

func (d dashboardAdapter) LoadDetails(ctx context.Context) error {
	return d.app.Giveaways.LoadDetails(ctx, d.app.Gateway)
}

func (d dashboardAdapter) Draw(ctx context.Context, id uint64) (string, error) {
	if err := d.app.Gate.RequireOwnerOrAdmin(ctx, "draw winners"); err != nil {
		return "", err
	}
	return d.app.Write(ctx, "drawWinner", func(ctx context.Context) (string, error) {
		return d.app.Gateway.DrawWinner(ctx, id)
	})
}

func init() {
	dashboardCmd.Flags().DurationVar(&dashboardInterval, "refresh", 30*time.Second, "list refresh period")
}
