package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mvi-users/internal/adapter/tui/components"
	"mvi-users/internal/adapter/tui/uxerror"
	"mvi-users/internal/domain"
	"mvi-users/internal/screen/adduser"
	"mvi-users/internal/screen/search"
	"mvi-users/internal/screen/userlist"
)

// Ensure *Model satisfies tea.Model.
var _ tea.Model = (*Model)(nil)

// Tab identifies which screen is active.
type Tab int

const (
	TabUsers Tab = iota
	TabAdd
	TabSearch
	TabActivity
)

// UseCase is everything the screens need from the application layer.
type UseCase interface {
	userlist.UseCase
	adduser.UseCase
	search.UseCase
}

// Deps are dependencies for the TUI.
type Deps struct {
	Users    UseCase
	Bus      domain.EventBus // optional; feeds the Activity tab
	History  []domain.Event  // earlier activity shown before live events
	Debounce time.Duration
	Source   string // data source name shown in the status bar
	Logger   *slog.Logger
}

// Model is the root Bubble Tea model.
type Model struct {
	deps   Deps
	ctx    context.Context
	cancel context.CancelFunc

	list   *userlist.Store
	add    *adduser.Store
	search *search.Store

	activeTab  Tab
	tabBar     components.TabBarModel
	listView   listView
	formView   formView
	searchView searchView
	activity   components.EventStreamModel
	help       components.ModalModel
	status     components.StatusBarModel

	width  int
	height int

	programSend func(tea.Msg)
	unsubscribe func()
}

// New starts the screen stores. Close releases them.
func New(ctx context.Context, deps Deps) *Model {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)

	m := &Model{
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
		tabBar: components.NewTabBar([]components.Tab{
			{ID: "users", Label: "Users"},
			{ID: "add", Label: "Add"},
			{ID: "search", Label: "Search"},
			{ID: "activity", Label: "Activity"},
		}),
		activity: components.NewEventStream(),
		help:     components.NewModal(),
		status:   components.NewStatusBar(),
	}
	m.status.Source = deps.Source
	for _, e := range deps.History {
		m.activity.AddEvent(e)
	}

	m.list = userlist.NewStore(ctx, deps.Users, deps.Logger)
	m.listView = newListView(m.list.ProcessIntent)
	m.search = search.NewStore(ctx, deps.Users, search.Options{Debounce: deps.Debounce, Logger: deps.Logger})
	m.searchView = newSearchView(m.search.ProcessIntent)
	m.resetForm()
	return m
}

// resetForm replaces the add-user store with a fresh one.
func (m *Model) resetForm() {
	if m.add != nil {
		m.add.Close()
	}
	m.add = adduser.NewStore(m.ctx, m.deps.Users, m.deps.Logger)
	m.formView = newFormView(m.add.ProcessIntent)
	if m.programSend != nil {
		forward(m.ctx, m.add, m.programSend)
	}
}

// SetProgramSender sets the function used to inject store and bus messages.
// Must be called before Run().
func (m *Model) SetProgramSender(send func(tea.Msg)) {
	m.programSend = send
}

// Init starts forwarding store output and loads the list.
func (m *Model) Init() tea.Cmd {
	if m.programSend != nil {
		forward(m.ctx, m.list, m.programSend)
		forward(m.ctx, m.add, m.programSend)
		forward(m.ctx, m.search, m.programSend)
		if m.deps.Bus != nil {
			m.unsubscribe = m.deps.Bus.SubscribeAll(func(_ context.Context, event domain.Event) {
				m.programSend(BusEventMsg{Event: event})
			})
		}
	}
	m.list.ProcessIntent(userlist.Initial{})
	return tea.Batch(m.listView.spinner.Tick, m.searchView.spinner.Tick)
}

// Close stops the bus subscription and every store.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.cancel()
	m.list.Close()
	m.add.Close()
	m.search.Close()
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		if model, cmd, handled := m.handleKey(msg); handled {
			return model, cmd
		}

	case spinner.TickMsg:
		var c1, c2 tea.Cmd
		m.listView, c1 = m.listView.Update(msg)
		m.searchView, c2 = m.searchView.Update(msg)
		return m, tea.Batch(c1, c2)

	case stateMsg[userlist.ViewState]:
		if msg.src == m.list {
			m.listView.setState(msg.State)
			m.tabBar.SetCount("users", len(msg.State.Users))
		}
		return m, nil
	case stateMsg[adduser.ViewState]:
		if msg.src == m.add {
			m.formView.setState(msg.State)
		}
		return m, nil
	case stateMsg[search.ViewState]:
		if msg.src == m.search {
			m.searchView.setState(msg.State)
		}
		return m, nil

	case eventMsg[userlist.Event]:
		m.handleListEvent(msg.Event)
		return m, nil
	case eventMsg[adduser.Event]:
		if msg.src == m.add {
			m.handleFormEvent(msg.Event)
		}
		return m, nil
	case eventMsg[search.Event]:
		if e, ok := msg.Event.(search.SearchFailed); ok {
			m.flashError(fmt.Sprintf("Search %q failed", e.Query), e.Err)
		}
		return m, nil

	case BusEventMsg:
		m.activity.AddEvent(msg.Event)
		return m, nil
	}

	return m, m.delegate(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if m.help.Visible {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit, true
		}
		var cmd tea.Cmd
		m.help, cmd = m.help.Update(msg)
		return m, cmd, true
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit, true
	case "ctrl+n":
		m.setTab(Tab(m.tabBar.Offset(1)))
		return m, nil, true
	case "ctrl+p":
		m.setTab(Tab(m.tabBar.Offset(-1)))
		return m, nil, true
	case "f1":
		m.help.OpenMarkdown("Help", helpMarkdown)
		return m, nil, true
	}

	// Text inputs own every other key on the Add and Search tabs.
	if m.activeTab == TabAdd || m.activeTab == TabSearch {
		return m, nil, false
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit, true
	case "?":
		m.help.OpenMarkdown("Help", helpMarkdown)
		return m, nil, true
	case "tab":
		m.setTab(Tab(m.tabBar.Offset(1)))
		return m, nil, true
	case "shift+tab":
		m.setTab(Tab(m.tabBar.Offset(-1)))
		return m, nil, true
	case "1", "2", "3", "4":
		m.setTab(Tab(msg.String()[0] - '1'))
		return m, nil, true
	}
	return m, nil, false
}

func (m *Model) delegate(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.activeTab {
	case TabUsers:
		m.listView, cmd = m.listView.Update(msg)
	case TabAdd:
		m.formView, cmd = m.formView.Update(msg)
	case TabSearch:
		m.searchView, cmd = m.searchView.Update(msg)
	case TabActivity:
		m.activity, cmd = m.activity.Update(msg)
	}
	return cmd
}

func (m *Model) handleListEvent(e userlist.Event) {
	switch e := e.(type) {
	case userlist.GetUsersError:
		m.flashError("Loading users failed", e.Err)
	case userlist.RefreshSucceeded:
		m.flash("List refreshed")
	case userlist.RefreshFailed:
		m.flashError("Refresh failed", e.Err)
	case userlist.UserRemoved:
		m.flash("Removed " + e.Item.FullName)
	case userlist.RemoveUserFailed:
		m.flashError("Removing "+e.Item.FullName+" failed", e.Err)
	}
}

func (m *Model) handleFormEvent(e adduser.Event) {
	switch e := e.(type) {
	case adduser.UserAdded:
		m.flash("Added " + e.User.FullName())
		m.resetForm()
		m.setTab(TabUsers)
	case adduser.AddUserFailed:
		m.flashError("Adding "+e.User.Email+" failed", e.Err)
	}
}

func (m *Model) flash(text string) {
	m.status.Flash = text
	m.status.IsErr = false
}

func (m *Model) flashError(prefix string, err error) {
	m.status.Flash = prefix
	if err != nil {
		m.status.Flash += ": " + uxerror.Humanize(err).Title
	}
	m.status.IsErr = true
}

func (m *Model) setTab(tab Tab) {
	m.activeTab = tab
	m.tabBar.SetActive(int(tab))
}

func (m *Model) layout() {
	contentH := max(m.height-2, 5)
	m.tabBar.SetWidth(m.width)
	m.status.SetWidth(m.width)
	m.listView.setSize(m.width, contentH)
	m.activity.SetSize(m.width, contentH)
	m.help.SetSize(m.width, m.height)
}

func (m *Model) hints() []components.KeyHint {
	var hints []components.KeyHint
	switch m.activeTab {
	case TabUsers:
		hints = m.listView.hints()
	case TabAdd:
		hints = m.formView.hints()
	case TabSearch:
		hints = m.searchView.hints()
	case TabActivity:
		hints = []components.KeyHint{{Key: "j/k", Desc: "Scroll"}}
	}
	return append(hints, components.KeyHint{Key: "F1", Desc: "Help"})
}

// View renders the active screen.
func (m *Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}
	if m.help.Visible {
		return m.help.View()
	}

	var content string
	switch m.activeTab {
	case TabUsers:
		content = m.listView.View()
	case TabAdd:
		content = m.formView.View()
	case TabSearch:
		content = m.searchView.View()
	case TabActivity:
		content = m.activity.View()
	}

	m.status.Hints = m.hints()
	content = lipgloss.NewStyle().Height(max(m.height-2, 1)).Padding(0, 1).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, m.tabBar.View(), content, m.status.View())
}
