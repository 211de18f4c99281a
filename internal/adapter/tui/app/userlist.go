package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"mvi-users/internal/adapter/tui/components"
	"mvi-users/internal/adapter/tui/theme"
	"mvi-users/internal/adapter/tui/uxerror"
	"mvi-users/internal/screen/userlist"
)

type listView struct {
	dispatch func(userlist.Intent)
	state    userlist.ViewState
	cursor   int
	spinner  spinner.Model
	width    int
	height   int
}

func newListView(dispatch func(userlist.Intent)) listView {
	return listView{
		dispatch: dispatch,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.TextInfo)),
	}
}

func (v *listView) setSize(w, h int) {
	v.width, v.height = w, h
}

func (v *listView) setState(s userlist.ViewState) {
	v.state = s
	v.cursor = theme.Clamp(v.cursor, 0, max(len(s.Users)-1, 0))
}

func (v listView) selected() (userlist.UserItem, bool) {
	if v.cursor < 0 || v.cursor >= len(v.state.Users) {
		return userlist.UserItem{}, false
	}
	return v.state.Users[v.cursor], true
}

func (v listView) Update(msg tea.Msg) (listView, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			v.cursor = theme.Clamp(v.cursor+1, 0, max(len(v.state.Users)-1, 0))
		case "k", "up":
			v.cursor = theme.Clamp(v.cursor-1, 0, max(len(v.state.Users)-1, 0))
		case "g", "home":
			v.cursor = 0
		case "G", "end":
			v.cursor = max(len(v.state.Users)-1, 0)
		case "r":
			if v.state.Error != nil {
				v.dispatch(userlist.Retry{})
			} else {
				v.dispatch(userlist.Refresh{})
			}
		case "d", "x", "delete":
			if item, ok := v.selected(); ok {
				v.dispatch(userlist.RemoveUser{Item: item})
			}
		}
	}
	return v, nil
}

func (v listView) hints() []components.KeyHint {
	if v.state.Error != nil {
		return []components.KeyHint{{Key: "r", Desc: "Retry"}}
	}
	return []components.KeyHint{
		{Key: "j/k", Desc: "Move"},
		{Key: "r", Desc: "Refresh"},
		{Key: "d", Desc: "Delete"},
	}
}

func (v listView) View() string {
	var sb strings.Builder

	title := "Users"
	if v.state.IsRefreshing {
		title += " " + v.spinner.View()
	}
	sb.WriteString(theme.ScreenTitle.Render(title))
	sb.WriteString("\n")

	switch {
	case v.state.Error != nil:
		sb.WriteString(uxerror.Humanize(v.state.Error).Render())
		sb.WriteString("\n\n")
		sb.WriteString(theme.TextMuted.Render("  Press r to retry."))
		return sb.String()
	case v.state.IsLoading && len(v.state.Users) == 0:
		sb.WriteString(v.spinner.View() + " Loading users" + theme.SymbolEllipsis)
		return sb.String()
	case len(v.state.Users) == 0:
		sb.WriteString(theme.TextMuted.Render("  No users yet. Add one from the Add tab."))
		return sb.String()
	}

	first, last := v.window()
	for i := first; i < last; i++ {
		item := v.state.Users[i]
		line := fmt.Sprintf("%-28s %s", item.FullName, theme.Email.Render(item.Email))
		if i == v.cursor {
			sb.WriteString(theme.RowSelected.Render(theme.SymbolCursor + " " + line))
		} else {
			sb.WriteString(theme.RowNormal.Render("  " + line))
		}
		sb.WriteString("\n")
	}
	if len(v.state.Users) > last-first {
		sb.WriteString(theme.Dim.Render(fmt.Sprintf("  %d-%d of %d", first+1, last, len(v.state.Users))))
	}
	return sb.String()
}

// window returns the visible slice of rows keeping the cursor on screen.
func (v listView) window() (int, int) {
	n := len(v.state.Users)
	rows := v.height - 3
	if rows <= 0 || rows >= n {
		return 0, n
	}
	first := theme.Clamp(v.cursor-rows/2, 0, n-rows)
	return first, first + rows
}
