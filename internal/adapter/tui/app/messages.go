// Package app is the Bubble Tea host of the user screens. Each screen is an
// MVI store; its states and events are forwarded into the program as
// messages and its key presses are turned into intents.
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"mvi-users/internal/domain"
	"mvi-users/internal/mvi"
)

// stateMsg carries a view state from the store src.
type stateMsg[S any] struct {
	src   any
	State S
}

// eventMsg carries a one-shot event from the store src.
type eventMsg[E any] struct {
	src   any
	Event E
}

// BusEventMsg wraps a domain.Event from the EventBus subscription.
type BusEventMsg struct {
	Event domain.Event
}

// forward pushes every state and event of s into the program until s stops
// or ctx ends. Messages carry s so a replaced store's stragglers can be told
// apart.
func forward[I, S, E any](ctx context.Context, s *mvi.Store[I, S, E], send func(tea.Msg)) {
	go func() {
		_ = s.WatchState()(ctx, func(st S) error {
			send(stateMsg[S]{src: s, State: st})
			return nil
		})
	}()
	go func() {
		for {
			e, err := s.NextEvent(ctx)
			if err != nil {
				return
			}
			send(eventMsg[E]{src: s, Event: e})
		}
	}()
}
