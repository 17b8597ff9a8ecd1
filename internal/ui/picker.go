package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mohsinsiddi/w3giveaway/internal/provider"
	"github.com/Mohsinsiddi/w3giveaway/internal/wallet"
)

// ErrNothingToPick is returned when the picker has no items.
var ErrNothingToPick = errors.New("no items to pick from")

// PickerItem is one entry shown in the interactive picker.
type PickerItem struct {
	Label    string
	SubLabel string // dimmed, e.g. the address
	Value    string
}

type pickerModel struct {
	title    string
	items    []PickerItem
	cursor   int
	selected *PickerItem
	quitting bool
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.items) > 0 {
			item := m.items[m.cursor]
			m.selected = &item
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.quitting {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n" + StyleTitle.Render("  "+m.title) + "\n\n")
	for i, item := range m.items {
		prefix := "    "
		if i == m.cursor {
			prefix = "  ▸ "
		}
		line := prefix + StyleValue.Render(item.Label)
		if item.SubLabel != "" {
			line += "  " + StyleMeta.Render(item.SubLabel)
		}
		if i == m.cursor {
			line = StyleSelected.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n" + StyleMeta.Render("  [ ↑↓ / jk ] navigate   [ Enter ] approve   [ q ] reject") + "\n")
	return sb.String()
}

// PickItem runs an interactive picker and returns the chosen Value, or ""
// when the user cancels.
func PickItem(title string, items []PickerItem) (string, error) {
	if len(items) == 0 {
		return "", ErrNothingToPick
	}
	final, err := tea.NewProgram(pickerModel{title: title, items: items}, tea.WithAltScreen()).Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}
	fm := final.(pickerModel)
	if fm.quitting || fm.selected == nil {
		return "", nil
	}
	return fm.selected.Value, nil
}

// walletItems lists candidates with the default first.
func walletItems(candidates []*wallet.Wallet) []PickerItem {
	items := make([]PickerItem, 0, len(candidates))
	for _, w := range candidates {
		label := w.Name
		if w.IsDefault {
			label += " (default)"
		}
		item := PickerItem{Label: label, SubLabel: w.Address, Value: w.Name}
		if w.IsDefault {
			items = append([]PickerItem{item}, items...)
			continue
		}
		items = append(items, item)
	}
	return items
}

// ApproveAccount is the local wallet's connect prompt: the user picks which
// signing wallet to expose, or rejects.
func ApproveAccount(candidates []*wallet.Wallet) (*wallet.Wallet, error) {
	name, err := PickItem("Connect to w3giveaway: choose an account", walletItems(candidates))
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, provider.ErrApprovalRejected
	}
	for _, w := range candidates {
		if w.Name == name {
			return w, nil
		}
	}
	return nil, provider.ErrApprovalRejected
}
