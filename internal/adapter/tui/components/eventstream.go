package components

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mvi-users/internal/adapter/tui/theme"
	"mvi-users/internal/domain"
)

const maxEventEntries = 500

// EventStreamModel displays a scrollable stream of bus events with smart
// auto-scroll.
type EventStreamModel struct {
	Viewport viewport.Model
	events   []domain.Event
	ready    bool
	atBottom bool
}

// NewEventStream creates an event stream viewer.
func NewEventStream() EventStreamModel {
	return EventStreamModel{atBottom: true}
}

// SetSize sets the viewport dimensions.
func (m *EventStreamModel) SetSize(w, h int) {
	if !m.ready {
		m.Viewport = viewport.New(w, h)
		m.Viewport.MouseWheelEnabled = true
		m.Viewport.MouseWheelDelta = 3
		m.ready = true
	} else {
		m.Viewport.Width = w
		m.Viewport.Height = h
	}
	m.refreshContent()
}

// AddEvent appends an event and auto-scrolls if at bottom.
func (m *EventStreamModel) AddEvent(event domain.Event) {
	m.events = append(m.events, event)
	if len(m.events) > maxEventEntries {
		m.events = m.events[len(m.events)-maxEventEntries:]
	}
	m.refreshContent()
	if m.atBottom && m.ready {
		m.Viewport.GotoBottom()
	}
}

// Update handles viewport scrolling.
func (m EventStreamModel) Update(msg tea.Msg) (EventStreamModel, tea.Cmd) {
	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	m.atBottom = m.Viewport.AtBottom()
	return m, cmd
}

// EventCount returns the number of retained events.
func (m EventStreamModel) EventCount() int {
	return len(m.events)
}

// View renders the event stream.
func (m EventStreamModel) View() string {
	if !m.ready {
		return ""
	}
	return m.Viewport.View()
}

func (m *EventStreamModel) refreshContent() {
	if !m.ready {
		return
	}
	if len(m.events) == 0 {
		m.Viewport.SetContent(theme.TextMuted.Render("  Waiting for events" + theme.SymbolEllipsis))
		return
	}

	var sb strings.Builder
	for _, evt := range m.events {
		fmt.Fprintf(&sb, "  %s  %s  %s\n",
			theme.Dim.Render(evt.Timestamp.Format("15:04:05")),
			styleType(evt.Type).Render(fmt.Sprintf("%-18s", evt.Type)),
			theme.TextMuted.Render(Summarize(evt)),
		)
	}
	m.Viewport.SetContent(sb.String())
}

func styleType(t domain.EventType) lipgloss.Style {
	switch t {
	case domain.EventUserAdded:
		return theme.TextSuccess
	case domain.EventUserRemoved:
		return theme.TextWarning
	case domain.EventOperationFailed:
		return theme.TextError
	case domain.EventUsersSearched:
		return theme.TextAccent
	default:
		return theme.TextInfo
	}
}

// Summarize renders the payload of e as one short line.
func Summarize(e domain.Event) string {
	switch e.Type {
	case domain.EventUserAdded, domain.EventUserRemoved:
		var p domain.UserPayload
		if json.Unmarshal(e.Payload, &p) == nil {
			return fmt.Sprintf("%s <%s>", p.User.FullName(), p.User.Email)
		}
	case domain.EventUsersRefreshed:
		var p domain.RefreshedPayload
		if json.Unmarshal(e.Payload, &p) == nil {
			return fmt.Sprintf("%d users", p.Count)
		}
	case domain.EventUsersSearched:
		var p domain.SearchedPayload
		if json.Unmarshal(e.Payload, &p) == nil {
			return fmt.Sprintf("%q %s %d matches", p.Query, theme.SymbolArrowR, p.Count)
		}
	case domain.EventOperationFailed:
		var p domain.FailurePayload
		if json.Unmarshal(e.Payload, &p) == nil {
			return fmt.Sprintf("%s [%s] %s", p.Op, p.Code, p.Error)
		}
	}
	return string(e.Payload)
}
