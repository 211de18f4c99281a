// Package components provides reusable Bubble Tea sub-models for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mvi-users/internal/adapter/tui/theme"
)

// Tab is one entry of the tab bar.
type Tab struct {
	ID    string
	Label string
	// Count is shown after the label when positive.
	Count int
}

func (t Tab) title() string {
	if t.Count > 0 {
		return fmt.Sprintf("%s %d", t.Label, t.Count)
	}
	return t.Label
}

// TabBarModel renders the screen tabs. It only tracks which tab is active;
// the host decides when to switch.
type TabBarModel struct {
	Tabs   []Tab
	Active int
	width  int
}

// NewTabBar returns a bar over tabs with the first one active.
func NewTabBar(tabs []Tab) TabBarModel {
	return TabBarModel{Tabs: tabs}
}

// SetWidth sets the width the bar fills.
func (m *TabBarModel) SetWidth(w int) { m.width = w }

// SetActive activates tab i; out of range indexes are ignored.
func (m *TabBarModel) SetActive(i int) {
	if i >= 0 && i < len(m.Tabs) {
		m.Active = i
	}
}

// Offset returns the index delta tabs away from the active one, wrapping in
// both directions.
func (m TabBarModel) Offset(delta int) int {
	n := len(m.Tabs)
	if n == 0 {
		return 0
	}
	return ((m.Active+delta)%n + n) % n
}

// SetCount updates the count of the tab with the given ID.
func (m *TabBarModel) SetCount(id string, n int) {
	for i := range m.Tabs {
		if m.Tabs[i].ID == id {
			m.Tabs[i].Count = n
		}
	}
}

// View renders every tab, or only the active one with its position when the
// terminal is narrower than theme.MinTabWidth.
func (m TabBarModel) View() string {
	if len(m.Tabs) == 0 {
		return ""
	}
	if m.width > 0 && m.width < theme.MinTabWidth {
		return theme.TabActive.Render(m.Tabs[m.Active].title()) +
			theme.Dim.Render(fmt.Sprintf(" %d/%d", m.Active+1, len(m.Tabs)))
	}

	var b strings.Builder
	for i, t := range m.Tabs {
		style := theme.TabNormal
		if i == m.Active {
			style = theme.TabActive
		}
		b.WriteString(style.Render(t.title()))
	}
	bar := b.String()
	if fill := m.width - lipgloss.Width(bar); fill > 0 {
		bar += theme.TabNormal.UnsetPadding().Render(strings.Repeat(" ", fill))
	}
	return bar
}
