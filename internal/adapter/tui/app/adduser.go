package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mvi-users/internal/adapter/tui/components"
	"mvi-users/internal/adapter/tui/theme"
	"mvi-users/internal/adapter/tui/uxerror"
	"mvi-users/internal/domain"
	"mvi-users/internal/screen/adduser"
)

const (
	focusEmail = iota
	focusFirstName
	focusLastName
	focusGender
	focusSubmit
	focusCount
)

var formFields = [...]adduser.Field{adduser.FieldEmail, adduser.FieldFirstName, adduser.FieldLastName}

var fieldErrors = map[domain.ValidationError]int{
	domain.InvalidEmailAddress: focusEmail,
	domain.TooShortFirstName:   focusFirstName,
	domain.TooShortLastName:    focusLastName,
}

type formView struct {
	dispatch func(adduser.Intent)
	state    adduser.ViewState
	fields   [3]components.FormFieldModel
	focus    int
}

func newFormView(dispatch func(adduser.Intent)) formView {
	v := formView{
		dispatch: dispatch,
		state:    adduser.InitialState(),
		fields: [3]components.FormFieldModel{
			components.NewTextField("Email", "name@example.com"),
			components.NewTextField("First name", "Petrus"),
			components.NewTextField("Last name", "Hoc"),
		},
	}
	v.fields[focusEmail].Focus()
	return v
}

func (v *formView) setState(s adduser.ViewState) {
	v.state = s
	for i := range v.fields {
		v.fields[i].SetError("")
	}
	for _, e := range s.VisibleErrors() {
		if i, ok := fieldErrors[e]; ok {
			v.fields[i].SetError(uxerror.ValidationMessage(e))
		}
	}
}

// editing reports whether keys go to a text input.
func (v formView) editing() bool { return v.focus < focusGender }

func (v *formView) moveFocus(delta int) tea.Cmd {
	if v.focus < focusGender {
		v.fields[v.focus].Blur()
	}
	v.focus = (v.focus + delta + focusCount) % focusCount
	if v.focus < focusGender {
		return v.fields[v.focus].Focus()
	}
	return nil
}

func (v *formView) toggleGender() {
	next := domain.GenderFemale
	if v.state.Gender == domain.GenderFemale {
		next = domain.GenderMale
	}
	v.dispatch(adduser.GenderChanged{Gender: next})
}

func (v formView) Update(msg tea.Msg) (formView, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}

	switch key.String() {
	case "tab", "down":
		return v, v.moveFocus(1)
	case "shift+tab", "up":
		return v, v.moveFocus(-1)
	case "ctrl+s":
		v.dispatch(adduser.Submit{})
		return v, nil
	case "enter":
		if v.focus == focusSubmit {
			v.dispatch(adduser.Submit{})
			return v, nil
		}
		return v, v.moveFocus(1)
	}

	if v.focus == focusGender {
		switch key.String() {
		case " ", "left", "right", "h", "l":
			v.toggleGender()
		}
		return v, nil
	}
	if !v.editing() {
		return v, nil
	}

	before := v.fields[v.focus].Value()
	var cmd tea.Cmd
	v.fields[v.focus], cmd = v.fields[v.focus].Update(msg)
	if after := v.fields[v.focus].Value(); after != before {
		v.dispatch(adduser.FieldChanged{Field: formFields[v.focus], Value: after})
	}
	return v, cmd
}

func (v formView) hints() []components.KeyHint {
	return []components.KeyHint{
		{Key: "Tab", Desc: "Next"},
		{Key: "Space", Desc: "Gender"},
		{Key: "Ctrl+S", Desc: "Save"},
	}
}

func (v formView) View() string {
	parts := []string{theme.ScreenTitle.Render("New user")}
	for _, f := range v.fields {
		parts = append(parts, f.View())
	}
	parts = append(parts, v.genderView(), "", v.submitView())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (v formView) genderView() string {
	radio := func(g domain.Gender, label string) string {
		mark := "( )"
		if v.state.Gender == g {
			mark = "(" + theme.SymbolBullet + ")"
		}
		return mark + " " + label
	}
	label := theme.TextMuted.Render("Gender")
	if v.focus == focusGender {
		label = theme.Bold.Render("Gender")
	}
	return label + "\n" + strings.Join([]string{radio(domain.GenderMale, "Male"), radio(domain.GenderFemale, "Female")}, "   ")
}

func (v formView) submitView() string {
	label := "[ Add user ]"
	if v.state.IsLoading {
		label = "[ Saving" + theme.SymbolEllipsis + " ]"
	}
	if v.focus == focusSubmit {
		return theme.TabActive.Render(label)
	}
	return theme.TabNormal.Render(label)
}
