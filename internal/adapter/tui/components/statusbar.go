package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mvi-users/internal/adapter/tui/theme"
)

// KeyHint represents a single keybinding hint shown in the status bar.
type KeyHint struct {
	Key  string // e.g. "r"
	Desc string // e.g. "Refresh"
}

// StatusBarModel renders a bottom status bar with keybinding hints on the
// left and the data source plus a transient flash on the right.
type StatusBarModel struct {
	Hints  []KeyHint
	Source string // e.g. "sqlite"
	Flash  string // last notification, e.g. "User added"
	IsErr  bool   // render Flash as an error
	width  int
}

// NewStatusBar creates an empty status bar.
func NewStatusBar() StatusBarModel {
	return StatusBarModel{}
}

// SetWidth updates the available width.
func (m *StatusBarModel) SetWidth(w int) {
	m.width = w
}

// View renders the status bar as a single line.
func (m StatusBarModel) View() string {
	var hints []string
	for _, h := range m.Hints {
		hints = append(hints, theme.StatusKey.Render(h.Key)+": "+h.Desc)
	}
	left := strings.Join(hints, "  "+theme.Dim.Render("|")+"  ")

	var right []string
	if m.Flash != "" {
		if m.IsErr {
			right = append(right, theme.TextError.Render(m.Flash))
		} else {
			right = append(right, theme.TextSuccess.Render(m.Flash))
		}
	}
	if m.Source != "" {
		right = append(right, theme.TextMuted.Render(m.Source))
	}
	rightS := strings.Join(right, "  ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(rightS)
	if gap < 1 {
		gap = 1
	}

	bar := left + strings.Repeat(" ", gap) + rightS
	return theme.StatusBar.Width(m.width).Render(bar)
}
