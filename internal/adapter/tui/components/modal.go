package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"mvi-users/internal/adapter/tui/theme"
)

// Size used before the first window size message.
const (
	defaultModalWidth  = 84
	defaultModalHeight = 28
)

// ModalModel overlays the whole screen with a scrollable markdown page. The
// source is kept so the text is rewrapped when the terminal is resized.
type ModalModel struct {
	Visible bool

	title    string
	markdown string
	view     viewport.Model
	width    int
	height   int
}

// NewModal returns a hidden modal.
func NewModal() ModalModel {
	return ModalModel{width: defaultModalWidth, height: defaultModalHeight}
}

// OpenMarkdown shows markdown rendered by glamour, scrolled to the top.
func (m *ModalModel) OpenMarkdown(title, markdown string) {
	m.title, m.markdown, m.Visible = title, markdown, true
	m.view = viewport.New(0, 0)
	m.view.MouseWheelEnabled = true
	m.relayout()
}

// SetSize records the terminal size; zero values keep the defaults.
func (m *ModalModel) SetSize(w, h int) {
	if w > 0 && h > 0 {
		m.width, m.height = w, h
	}
	if m.Visible {
		m.relayout()
	}
}

func (m *ModalModel) relayout() {
	m.view.Width, m.view.Height = m.width-4, m.height-4
	wrap := theme.Clamp(m.width-6, 20, theme.MaxContentWidth)
	m.view.SetContent(RenderMarkdown(m.markdown, wrap))
}

// RenderMarkdown renders markdown wrapped at width. Rendering failures fall
// back to the raw text.
func RenderMarkdown(markdown string, width int) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

var modalKeys = map[string]func(*viewport.Model){
	"j":    func(v *viewport.Model) { v.LineDown(3) },
	"down": func(v *viewport.Model) { v.LineDown(3) },
	"k":    func(v *viewport.Model) { v.LineUp(3) },
	"up":   func(v *viewport.Model) { v.LineUp(3) },
	"g":    func(v *viewport.Model) { v.GotoTop() },
	"G":    func(v *viewport.Model) { v.GotoBottom() },
}

// Update closes the modal on Esc, q or ? and scrolls otherwise.
func (m ModalModel) Update(msg tea.Msg) (ModalModel, tea.Cmd) {
	if !m.Visible {
		return m, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch k := key.String(); k {
		case "esc", "q", "?":
			m.Visible = false
			return m, nil
		default:
			if scroll, ok := modalKeys[k]; ok {
				scroll(&m.view)
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

// View renders the overlay, or nothing while hidden.
func (m ModalModel) View() string {
	if !m.Visible {
		return ""
	}
	footer := theme.Dim.Render("  Esc/q: close  j/k: scroll  g/G: top/bottom") +
		theme.TextMuted.Render(fmt.Sprintf("   %3.0f%%", m.view.ScrollPercent()*100))
	page := lipgloss.JoinVertical(lipgloss.Left, theme.Bold.Render("  "+m.title), m.view.View(), footer)
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorderActive).
		Padding(0, 1).
		Width(m.width - 2).
		Height(m.height - 2).
		Render(page)
}
