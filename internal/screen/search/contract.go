// Package search is the MVI screen that searches users as the query is typed.
// Typing is debounced; only a query that stayed unchanged for the debounce
// window is submitted.
package search

import (
	"strings"

	"mvi-users/internal/domain"
)

// ViewState is the search screen as rendered.
type ViewState struct {
	Users     []domain.User
	IsLoading bool
	Error     *domain.UserError
	// OriginalQuery is the text as currently typed.
	OriginalQuery string
	// SubmittedQuery is the query of the last completed search.
	SubmittedQuery string
}

// InitialState is the screen before anything was typed.
func InitialState() ViewState { return ViewState{} }

// cleared reports a blank query; results of searches that finish afterwards
// are discarded.
func (s ViewState) cleared() bool { return strings.TrimSpace(s.OriginalQuery) == "" }

// Intent is a request from the search view.
type Intent interface{ isIntent() }

type (
	// Search is sent on every edit of the query.
	Search struct{ Query string }
	// Retry repeats the last failed search.
	Retry struct{}
)

func (Search) isIntent() {}
func (Retry) isIntent()  {}

// Change is a partial state change of the search screen.
type Change interface {
	Reduce(ViewState) ViewState
	isChange()
}

type (
	QueryChanged struct{ Query string }
	// Cleared resets the results after the query became blank.
	Cleared struct{}
	Loading struct{}
	Success struct {
		Users []domain.User
		Query string
	}
	Failure struct {
		Err   *domain.UserError
		Query string
	}
)

func (c QueryChanged) Reduce(s ViewState) ViewState {
	s.OriginalQuery = c.Query
	return s
}

func (Cleared) Reduce(s ViewState) ViewState {
	s.Users = nil
	s.IsLoading = false
	s.Error = nil
	s.SubmittedQuery = ""
	return s
}

func (Loading) Reduce(s ViewState) ViewState {
	if s.cleared() {
		return s
	}
	s.IsLoading = true
	s.Error = nil
	return s
}

func (c Success) Reduce(s ViewState) ViewState {
	if s.cleared() {
		return s
	}
	s.Users = c.Users
	s.IsLoading = false
	s.Error = nil
	s.SubmittedQuery = c.Query
	return s
}

func (c Failure) Reduce(s ViewState) ViewState {
	if s.cleared() {
		return s
	}
	s.IsLoading = false
	s.Error = c.Err
	s.SubmittedQuery = c.Query
	return s
}

func (QueryChanged) isChange() {}
func (Cleared) isChange()      {}
func (Loading) isChange()      {}
func (Success) isChange()      {}
func (Failure) isChange()      {}

// Event is a one-shot notification for the search view.
type Event interface{ isEvent() }

// SearchFailed reports a failed search.
type SearchFailed struct {
	Query string
	Err   *domain.UserError
}

func (SearchFailed) isEvent() {}

func toEvent(c Change) (Event, bool) {
	if f, ok := c.(Failure); ok {
		return SearchFailed{Query: f.Query, Err: f.Err}, true
	}
	return nil, false
}
