package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Mohsinsiddi/w3giveaway/internal/gateway"
	"github.com/Mohsinsiddi/w3giveaway/internal/giveaway"
)

// Column defines a table column.
type Column struct {
	Title string
	Width int
}

// Row is a slice of plain cell values.
type Row []string

// Table renders a lipgloss-styled table.
type Table struct {
	Columns []Column
	Rows    []Row
	SelIdx  int // -1 = none
}

// NewTable creates a new table.
func NewTable(cols []Column) *Table {
	return &Table{Columns: cols, SelIdx: -1}
}

// AddRow appends a row.
func (t *Table) AddRow(r Row) {
	t.Rows = append(t.Rows, r)
}

// pad fits s into exactly width cells, truncating with an ellipsis.
func pad(s string, width int) string {
	w := lipgloss.Width(s)
	if w == width {
		return s
	}
	if w < width {
		return s + strings.Repeat(" ", width-w)
	}
	r := []rune(s)
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

// Render returns the full table as a string. Cells are padded before styling
// so ANSI sequences never count towards the width.
func (t *Table) Render() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(ColorValue)
	dimStyle := lipgloss.NewStyle().Foreground(ColorMeta)

	var headers, divider []string
	for _, col := range t.Columns {
		headers = append(headers, headerStyle.Render(pad(col.Title, col.Width)))
		divider = append(divider, dimStyle.Render(strings.Repeat("-", col.Width)))
	}
	sb.WriteString(strings.Join(headers, " ") + "\n")
	sb.WriteString(strings.Join(divider, " ") + "\n")

	for i, row := range t.Rows {
		style := cellStyle
		if i == t.SelIdx {
			style = StyleSelected
		}
		cells := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			cells[j] = style.Render(pad(val, col.Width))
		}
		sb.WriteString(strings.Join(cells, " ") + "\n")
	}
	return sb.String()
}

// KeyValueBlock renders key-value pairs in a bordered box.
func KeyValueBlock(title string, pairs [][2]string) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title) + "\n")
	}
	for _, p := range pairs {
		key := StyleMeta.Render(fmt.Sprintf("%-20s", p[0]+":"))
		sb.WriteString("  " + key + " " + StyleValue.Render(p[1]) + "\n")
	}
	return StyleBorder.Render(sb.String())
}

// --- giveaway views ---

func giveawayStatus(g gateway.Giveaway) string {
	switch {
	case g.Completed:
		return "completed"
	case g.Active:
		return "active"
	default:
		return "inactive"
	}
}

// GiveawayTable lists giveaways, highlighting selectedID when given.
func GiveawayTable(list []gateway.Giveaway, selectedID uint64, hasSelection bool) string {
	t := NewTable([]Column{
		{Title: "ID", Width: 5},
		{Title: "Name", Width: 24},
		{Title: "Status", Width: 10},
		{Title: "Entrants", Width: 8},
		{Title: "Winner", Width: 24},
	})
	for i, g := range list {
		if hasSelection && g.ID == selectedID {
			t.SelIdx = i
		}
		winner := g.Winner
		if winner == "" {
			winner = "-"
		}
		t.AddRow(Row{
			strconv.FormatUint(g.ID, 10),
			g.Name,
			giveawayStatus(g),
			strconv.FormatUint(g.ParticipantCount, 10),
			winner,
		})
	}
	if len(list) == 0 {
		return t.Render() + StyleMeta.Render("  no giveaways yet") + "\n"
	}
	return t.Render()
}

// ParticipantTable lists entrants with a totals footer.
func ParticipantTable(ps []gateway.Participant) string {
	t := NewTable([]Column{
		{Title: "#", Width: 5},
		{Title: "Email", Width: 36},
		{Title: "Won", Width: 5},
	})
	for _, p := range ps {
		won := ""
		if p.HasWon {
			won = "★"
		}
		t.AddRow(Row{strconv.FormatUint(p.Index, 10), p.Email, won})
	}
	total, winners := giveaway.ParticipantStats(ps)
	footer := StyleMeta.Render(fmt.Sprintf("  %d participants · %d winners", total, winners))
	return t.Render() + footer + "\n"
}

// StatCards renders the giveaway counters side by side.
func StatCards(s giveaway.Stats) string {
	card := func(label string, n int, c lipgloss.Color) string {
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c).
			Padding(0, 2).
			Render(StyleMeta.Render(label) + "\n" + StyleValue.Render(strconv.Itoa(n)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total", s.Total, ColorChain),
		card("Active", s.Active, ColorSuccess),
		card("Completed", s.Completed, ColorAddress),
	)
}

// DetailsBlock renders a giveaway's detail snapshot.
func DetailsBlock(id uint64, d gateway.Details) string {
	winner := d.Winner
	if winner == "" {
		winner = "-"
	}
	return KeyValueBlock(fmt.Sprintf("Giveaway #%d", id), [][2]string{
		{"Name", d.Name},
		{"Active", strconv.FormatBool(d.Active)},
		{"Completed", strconv.FormatBool(d.Completed)},
		{"Participants", strconv.FormatUint(d.TotalParticipants, 10)},
		{"Winner", winner},
	})
}
