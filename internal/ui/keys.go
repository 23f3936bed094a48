package ui

import tea "github.com/charmbracelet/bubbletea"

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return true
	}
	return false
}

func helpText() string {
	return "space pause  ←/→ seek  +/- volume  tab band  ↑/↓ tune  e exact  t trails  r loop  q quit"
}

func editHelpText() string {
	return "enter apply  esc cancel"
}
