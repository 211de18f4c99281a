package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mvi-users/internal/adapter/tui/theme"
)

// FormFieldModel wraps a textinput with a label and an inline error.
type FormFieldModel struct {
	Input  textinput.Model
	Label  string
	ErrMsg string
}

// NewTextField creates an unfocused text input field.
func NewTextField(label, placeholder string) FormFieldModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Width = 40
	ti.CharLimit = 120
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder

	return FormFieldModel{Input: ti, Label: label}
}

// SetError displays a validation error message; "" clears it.
func (m *FormFieldModel) SetError(msg string) {
	m.ErrMsg = msg
}

// Value returns the raw input value. Trimming is left to validation.
func (m FormFieldModel) Value() string {
	return m.Input.Value()
}

// Focus gives the field keyboard focus.
func (m *FormFieldModel) Focus() tea.Cmd {
	return m.Input.Focus()
}

// Blur removes keyboard focus.
func (m *FormFieldModel) Blur() {
	m.Input.Blur()
}

// Focused reports whether the field has keyboard focus.
func (m FormFieldModel) Focused() bool {
	return m.Input.Focused()
}

// Update feeds input events to the text input.
func (m FormFieldModel) Update(msg tea.Msg) (FormFieldModel, tea.Cmd) {
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

// View renders the form field.
func (m FormFieldModel) View() string {
	label := theme.TextMuted.Render(m.Label)
	if m.Focused() {
		label = theme.Bold.Render(m.Label)
	}
	parts := []string{label, m.Input.View()}
	if m.ErrMsg != "" {
		parts = append(parts, theme.TextError.Render(theme.SymbolError+" "+m.ErrMsg))
	} else {
		parts = append(parts, "")
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
