package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mohsinsiddi/w3giveaway/internal/auth"
	"github.com/Mohsinsiddi/w3giveaway/internal/gateway"
	"github.com/Mohsinsiddi/w3giveaway/internal/giveaway"
	"github.com/Mohsinsiddi/w3giveaway/internal/session"
	"github.com/Mohsinsiddi/w3giveaway/internal/txn"
)

// DashboardBackend is what the live dashboard drives.
type DashboardBackend interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Session() session.Session
	GateState() auth.RenderState
	// Reload re-reads roles and the giveaway list.
	Reload(ctx context.Context) error
	Participants(ctx context.Context, id uint64) ([]gateway.Participant, error)
	// LoadDetails fetches the selected giveaway's details into the selector.
	LoadDetails(ctx context.Context) error
	Draw(ctx context.Context, id uint64) (string, error)
	Selector() *giveaway.Selector
	Tracker() *txn.Tracker
	NetworkName() string
}

// Sources of a DashboardStateMsg.
const (
	SourceGate     = "gate"
	SourceTracker  = "tracker"
	SourceSelector = "selector"
)

// DashboardStateMsg tells the dashboard that one of its backing stores
// changed outside the update loop.
type DashboardStateMsg struct{ Source string }

type (
	spinMsg         struct{}
	refreshTickMsg  struct{}
	connectedMsg    struct{ err error }
	disconnectedMsg struct{ err error }
	reloadedMsg     struct{ err error }
	participantsMsg struct {
		id  uint64
		ps  []gateway.Participant
		err error
	}
	drawnMsg struct{ err error }
)

type dashboardModel struct {
	ctx      context.Context
	backend  DashboardBackend
	interval time.Duration

	frame        int
	gate         auth.RenderState
	participants []gateway.Participant
	partsFor     uint64
	status       string
	err          string
	drawing      bool
	quitting     bool
	lastUpdate   time.Time
}

// NewDashboard builds the live dashboard program. interval is the list
// refresh period.
func NewDashboard(ctx context.Context, backend DashboardBackend, interval time.Duration) *tea.Program {
	return tea.NewProgram(newDashboardModel(ctx, backend, interval), tea.WithAltScreen())
}

func newDashboardModel(ctx context.Context, backend DashboardBackend, interval time.Duration) dashboardModel {
	return dashboardModel{ctx: ctx, backend: backend, interval: interval, gate: backend.GateState()}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.reloadCmd(), spin(), refreshTick(m.interval))
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinMsg:
		m.frame++
		return m, spin()

	case refreshTickMsg:
		return m, tea.Batch(m.reloadCmd(), refreshTick(m.interval))

	case DashboardStateMsg:
		if msg.Source != SourceGate {
			break
		}
		// An account switched in the wallet is re-checked by the gate; load
		// the list once it lets the new account in.
		prev := m.gate
		m.gate = m.backend.GateState()
		if m.gate == auth.Authorized && prev != auth.Authorized {
			return m, m.reloadCmd()
		}
		if m.gate != auth.Authorized {
			m.participants = nil
		}

	case connectedMsg:
		m.setErr(msg.err)
		if msg.err == nil {
			m.status = "connected"
			return m, m.reloadCmd()
		}

	case disconnectedMsg:
		m.setErr(msg.err)
		m.participants = nil
		m.status = "disconnected"

	case reloadedMsg:
		m.setErr(msg.err)
		m.lastUpdate = time.Now()
		if g, ok := m.backend.Selector().Selected(); ok && msg.err == nil {
			return m, m.participantsCmd(g.ID)
		}

	case participantsMsg:
		m.setErr(msg.err)
		if msg.err == nil || msg.ps != nil {
			m.participants = msg.ps
			m.partsFor = msg.id
		}

	case drawnMsg:
		m.drawing = false
		if msg.err == nil {
			return m, m.reloadCmd()
		}
	}
	return m, nil
}

func (m *dashboardModel) setErr(err error) {
	if err == nil {
		m.err = ""
		return
	}
	m.err = err.Error()
}

func (m dashboardModel) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "c":
		m.status = "connecting…"
		return m, m.connectCmd()
	case "x":
		return m, m.disconnectCmd()
	case "r":
		return m, m.reloadCmd()
	case "esc":
		m.backend.Tracker().Close()
	}

	if m.backend.GateState() != auth.Authorized {
		return m, nil
	}
	switch k.String() {
	case "up", "k":
		return m, m.moveSelection(-1)
	case "down", "j":
		return m, m.moveSelection(1)
	case "enter":
		if g, ok := m.backend.Selector().Selected(); ok {
			return m, m.participantsCmd(g.ID)
		}
	case "d":
		g, ok := m.backend.Selector().Selected()
		if !ok || m.drawing {
			return m, nil
		}
		m.drawing = true
		return m, m.drawCmd(g.ID)
	}
	return m, nil
}

// moveSelection steps through the open giveaways.
func (m dashboardModel) moveSelection(delta int) tea.Cmd {
	sel := m.backend.Selector()
	active := sel.Active()
	if len(active) == 0 {
		return nil
	}
	cur := 0
	if g, ok := sel.Selected(); ok {
		for i, a := range active {
			if a.ID == g.ID {
				cur = i
				break
			}
		}
	}
	next := cur + delta
	if next < 0 || next >= len(active) {
		return nil
	}
	sel.Change(active[next])
	return m.participantsCmd(active[next].ID)
}

// --- commands ---

func (m dashboardModel) connectCmd() tea.Cmd {
	return func() tea.Msg { return connectedMsg{err: m.backend.Connect(m.ctx)} }
}

func (m dashboardModel) disconnectCmd() tea.Cmd {
	return func() tea.Msg { return disconnectedMsg{err: m.backend.Disconnect()} }
}

func (m dashboardModel) reloadCmd() tea.Cmd {
	return func() tea.Msg {
		if m.backend.GateState() != auth.Authorized {
			return reloadedMsg{}
		}
		return reloadedMsg{err: m.backend.Reload(m.ctx)}
	}
}

// participantsCmd loads the entrants and then the details of giveaway id.
func (m dashboardModel) participantsCmd(id uint64) tea.Cmd {
	return func() tea.Msg {
		ps, err := m.backend.Participants(m.ctx, id)
		if err != nil {
			return participantsMsg{id: id, err: err}
		}
		return participantsMsg{id: id, ps: ps, err: m.backend.LoadDetails(m.ctx)}
	}
}

func (m dashboardModel) drawCmd(id uint64) tea.Cmd {
	return func() tea.Msg {
		_, err := m.backend.Draw(m.ctx, id)
		return drawnMsg{err: err}
	}
}

func spin() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg { return spinMsg{} })
}

func refreshTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

// --- view ---

func (m dashboardModel) View() string {
	if m.quitting {
		return ""
	}
	s := m.backend.Session()

	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("🎁 Giveaway Dashboard · "+ChainName(m.backend.NetworkName())) + "\n")
	header := "not connected"
	if s.Account != nil {
		header = Addr(TruncateAddr(s.AccountHex()))
	}
	if m.status != "" {
		header += Meta(" · " + m.status)
	}
	if !m.lastUpdate.IsZero() {
		header += Meta(" · updated " + m.lastUpdate.Format("15:04:05"))
	}
	sb.WriteString(header + "\n\n")

	sb.WriteString(RenderGate(GateView{
		State:       m.backend.GateState(),
		Account:     s.AccountHex(),
		NetworkName: m.backend.NetworkName(),
		Frame:       Frame(m.frame),
	}, m.content) + "\n")

	if m.err != "" {
		sb.WriteString("\n" + Err(m.err) + "\n")
	}
	if popup := TxPopup(m.backend.Tracker().Snapshot(), Frame(m.frame)); popup != "" {
		sb.WriteString("\n" + popup + "\n")
	}
	sb.WriteString("\n" + Meta("[c] connect  [x] disconnect  [r] refresh  [↑↓] select  [enter] entrants  [d] draw  [esc] close  [q] quit") + "\n")
	return sb.String()
}

func (m dashboardModel) content() string {
	sel := m.backend.Selector()
	var sb strings.Builder
	sb.WriteString(StatCards(sel.Stats()) + "\n\n")

	g, ok := sel.Selected()
	sb.WriteString(StyleHeader.Render("Active giveaways") + "\n")
	sb.WriteString(GiveawayTable(sel.Active(), g.ID, ok))

	if ok {
		sb.WriteString("\n" + StyleHeader.Render(fmt.Sprintf("Participants of #%d %s", g.ID, g.Name)) + "\n")
		if d, ok := sel.Details(); ok {
			winner := d.Winner
			if winner == "" {
				winner = "none yet"
			}
			sb.WriteString(Meta(fmt.Sprintf("  %d entrant(s) · winner %s", d.TotalParticipants, winner)) + "\n")
		} else if sel.Loading() {
			sb.WriteString(Meta("  loading details…") + "\n")
		}
		if m.partsFor == g.ID && m.participants != nil {
			sb.WriteString(ParticipantTable(m.participants))
		} else {
			sb.WriteString(Meta("  loading…") + "\n")
		}
		if m.drawing {
			sb.WriteString(Meta("  draw in progress…") + "\n")
		}
	}
	return sb.String()
}
