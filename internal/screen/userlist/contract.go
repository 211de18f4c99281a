// Package userlist is the MVI screen listing every user, with pull-to-refresh,
// retry after a failed load and swipe-to-remove.
package userlist

import "mvi-users/internal/domain"

// UserItem is how the list presents a user.
type UserItem struct {
	ID       string
	Email    string
	FullName string
	Avatar   string

	user domain.User
}

// NewUserItem builds the list row for u.
func NewUserItem(u domain.User) UserItem {
	return UserItem{ID: u.ID, Email: u.Email, FullName: u.FullName(), Avatar: u.Avatar, user: u}
}

// User returns the domain user behind the row.
func (i UserItem) User() domain.User { return i.user }

// ViewState is everything the list view renders. Several flags may hold at
// once, e.g. a loaded list that is refreshing.
type ViewState struct {
	Users        []UserItem
	IsLoading    bool
	IsRefreshing bool
	Error        *domain.UserError
}

// InitialState is the state before anything was loaded.
func InitialState() ViewState { return ViewState{} }

// Intent is a request from the list view.
type Intent interface{ isIntent() }

type (
	// Initial loads the list. Only the first one has any effect.
	Initial struct{}
	// Refresh reloads the list from the data source. Ignored while loading,
	// after a failed load and while another refresh is running.
	Refresh struct{}
	// Retry reloads after a failed load. Ignored unless the last load failed.
	Retry struct{}
	// RemoveUser deletes one user. Removals run concurrently.
	RemoveUser struct{ Item UserItem }
)

func (Initial) isIntent()    {}
func (Refresh) isIntent()    {}
func (Retry) isIntent()      {}
func (RemoveUser) isIntent() {}

// Change is a partial state change of the list.
type Change interface {
	Reduce(ViewState) ViewState
	isChange()
}

type (
	UsersLoading   struct{}
	UsersData      struct{ Users []UserItem }
	UsersError     struct{ Err *domain.UserError }
	RefreshLoading struct{}
	RefreshSuccess struct{}
	RefreshFailure struct{ Err *domain.UserError }
	RemoveSuccess  struct{ Item UserItem }
	RemoveFailure  struct {
		Item UserItem
		Err  *domain.UserError
	}
)

func (UsersLoading) Reduce(s ViewState) ViewState {
	s.IsLoading = true
	s.Error = nil
	return s
}

func (c UsersData) Reduce(s ViewState) ViewState {
	s.IsLoading = false
	s.Error = nil
	s.Users = c.Users
	return s
}

func (c UsersError) Reduce(s ViewState) ViewState {
	s.IsLoading = false
	s.Error = c.Err
	return s
}

func (RefreshLoading) Reduce(s ViewState) ViewState {
	s.IsRefreshing = true
	return s
}

func (RefreshSuccess) Reduce(s ViewState) ViewState {
	s.IsRefreshing = false
	return s
}

func (RefreshFailure) Reduce(s ViewState) ViewState {
	s.IsRefreshing = false
	return s
}

// The list itself is updated by the users stream, not by removal results.
func (RemoveSuccess) Reduce(s ViewState) ViewState { return s }
func (RemoveFailure) Reduce(s ViewState) ViewState { return s }

func (UsersLoading) isChange()   {}
func (UsersData) isChange()      {}
func (UsersError) isChange()     {}
func (RefreshLoading) isChange() {}
func (RefreshSuccess) isChange() {}
func (RefreshFailure) isChange() {}
func (RemoveSuccess) isChange()  {}
func (RemoveFailure) isChange()  {}

// Event is a one-shot notification for the list view.
type Event interface{ isEvent() }

type (
	GetUsersError    struct{ Err *domain.UserError }
	RefreshSucceeded struct{}
	RefreshFailed    struct{ Err *domain.UserError }
	UserRemoved      struct{ Item UserItem }
	RemoveUserFailed struct {
		Item UserItem
		Err  *domain.UserError
	}
)

func (GetUsersError) isEvent()    {}
func (RefreshSucceeded) isEvent() {}
func (RefreshFailed) isEvent()    {}
func (UserRemoved) isEvent()      {}
func (RemoveUserFailed) isEvent() {}

// toEvent maps the changes that notify the view. Loading and data changes
// raise nothing.
func toEvent(c Change) (Event, bool) {
	switch c := c.(type) {
	case UsersError:
		return GetUsersError(c), true
	case RefreshSuccess:
		return RefreshSucceeded{}, true
	case RefreshFailure:
		return RefreshFailed(c), true
	case RemoveSuccess:
		return UserRemoved(c), true
	case RemoveFailure:
		return RemoveUserFailed(c), true
	default:
		return nil, false
	}
}
