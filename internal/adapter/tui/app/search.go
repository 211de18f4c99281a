package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"mvi-users/internal/adapter/tui/components"
	"mvi-users/internal/adapter/tui/theme"
	"mvi-users/internal/adapter/tui/uxerror"
	"mvi-users/internal/screen/search"
)

type searchView struct {
	dispatch func(search.Intent)
	state    search.ViewState
	input    textinput.Model
	spinner  spinner.Model
}

func newSearchView(dispatch func(search.Intent)) searchView {
	ti := textinput.New()
	ti.Placeholder = "Search by name or email"
	ti.Prompt = "/ "
	ti.Width = 40
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.Focus()
	return searchView{
		dispatch: dispatch,
		input:    ti,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.TextInfo)),
	}
}

func (v *searchView) setState(s search.ViewState) { v.state = s }

func (v searchView) Update(msg tea.Msg) (searchView, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+r":
			v.dispatch(search.Retry{})
			return v, nil
		case "esc":
			if v.input.Value() != "" {
				v.input.SetValue("")
				v.dispatch(search.Search{Query: ""})
			}
			return v, nil
		}
		before := v.input.Value()
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		if after := v.input.Value(); after != before {
			v.dispatch(search.Search{Query: after})
		}
		return v, cmd
	}
	return v, nil
}

func (v searchView) hints() []components.KeyHint {
	hints := []components.KeyHint{{Key: "Esc", Desc: "Clear"}}
	if v.state.Error != nil {
		hints = append(hints, components.KeyHint{Key: "Ctrl+R", Desc: "Retry"})
	}
	return hints
}

func (v searchView) View() string {
	var sb strings.Builder
	sb.WriteString(theme.ScreenTitle.Render("Search"))
	sb.WriteString("\n")
	sb.WriteString(v.input.View())
	sb.WriteString("\n\n")

	switch {
	case v.state.IsLoading:
		sb.WriteString(v.spinner.View() + " Searching " + fmt.Sprintf("%q", strings.TrimSpace(v.state.OriginalQuery)) + theme.SymbolEllipsis)
	case v.state.Error != nil:
		sb.WriteString(uxerror.Humanize(v.state.Error).Render())
		sb.WriteString("\n\n")
		sb.WriteString(theme.TextMuted.Render("  Press Ctrl+R to retry."))
	case v.state.SubmittedQuery == "":
		sb.WriteString(theme.TextMuted.Render("  Type to search."))
	case len(v.state.Users) == 0:
		sb.WriteString(theme.TextMuted.Render(fmt.Sprintf("  No users match %q.", v.state.SubmittedQuery)))
	default:
		sb.WriteString(theme.Dim.Render(fmt.Sprintf("  %d results for %q", len(v.state.Users), v.state.SubmittedQuery)))
		sb.WriteString("\n")
		for _, u := range v.state.Users {
			sb.WriteString(theme.RowNormal.Render(fmt.Sprintf("%s %-28s %s", theme.SymbolBullet, u.FullName(), theme.Email.Render(u.Email))))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
