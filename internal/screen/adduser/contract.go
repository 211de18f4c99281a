// Package adduser is the MVI screen of the new-user form. Field errors are
// computed on every keystroke but only shown once the field was touched.
package adduser

import (
	"slices"

	"mvi-users/internal/domain"
)

// Field names one text input of the form.
type Field string

const (
	FieldEmail     Field = "email"
	FieldFirstName Field = "first_name"
	FieldLastName  Field = "last_name"
)

// ViewState is the form as rendered.
type ViewState struct {
	Email     string
	FirstName string
	LastName  string
	Gender    domain.Gender

	EmailTouched     bool
	FirstNameTouched bool
	LastNameTouched  bool

	// Errors holds every current validation error in ascending order.
	Errors    []domain.ValidationError
	IsLoading bool
}

// InitialState is an empty form, already validated.
func InitialState() ViewState {
	f := initialForm()
	return ViewState{Gender: f.gender, Errors: f.errors()}
}

// HasError reports whether e is among the current errors, touched or not.
func (s ViewState) HasError(e domain.ValidationError) bool {
	return slices.Contains(s.Errors, e)
}

// VisibleErrors returns the errors of touched fields only.
func (s ViewState) VisibleErrors() []domain.ValidationError {
	var out []domain.ValidationError
	for _, e := range s.Errors {
		if s.touched(e) {
			out = append(out, e)
		}
	}
	return out
}

func (s ViewState) touched(e domain.ValidationError) bool {
	switch e {
	case domain.InvalidEmailAddress:
		return s.EmailTouched
	case domain.TooShortFirstName:
		return s.FirstNameTouched
	case domain.TooShortLastName:
		return s.LastNameTouched
	}
	return true
}

// Intent is a request from the form view.
type Intent interface{ isIntent() }

type (
	// FieldChanged carries the new text of one input.
	FieldChanged struct {
		Field Field
		Value string
	}
	// GenderChanged selects the gender.
	GenderChanged struct{ Gender domain.Gender }
	// Submit creates the user if the form is valid, and otherwise reveals
	// every error.
	Submit struct{}
)

func (FieldChanged) isIntent()  {}
func (GenderChanged) isIntent() {}
func (Submit) isIntent()        {}

// Change is a partial state change of the form.
type Change interface {
	Reduce(ViewState) ViewState
	isChange()
}

type (
	// FieldValueChanged stores a new input value and marks the field touched.
	FieldValueChanged struct {
		Field Field
		Value string
	}
	GenderValueChanged struct{ Gender domain.Gender }
	ErrorsChanged      struct{ Errors []domain.ValidationError }
	// AllFieldsTouched reveals every error after an invalid submit.
	AllFieldsTouched struct{}
	AddLoading       struct{}
	AddSuccess       struct{ User domain.User }
	AddFailure       struct {
		User domain.User
		Err  *domain.UserError
	}
)

func (c FieldValueChanged) Reduce(s ViewState) ViewState {
	switch c.Field {
	case FieldEmail:
		s.Email, s.EmailTouched = c.Value, true
	case FieldFirstName:
		s.FirstName, s.FirstNameTouched = c.Value, true
	case FieldLastName:
		s.LastName, s.LastNameTouched = c.Value, true
	}
	return s
}

func (c GenderValueChanged) Reduce(s ViewState) ViewState {
	s.Gender = c.Gender
	return s
}

func (c ErrorsChanged) Reduce(s ViewState) ViewState {
	s.Errors = c.Errors
	return s
}

func (AllFieldsTouched) Reduce(s ViewState) ViewState {
	s.EmailTouched, s.FirstNameTouched, s.LastNameTouched = true, true, true
	return s
}

func (AddLoading) Reduce(s ViewState) ViewState {
	s.IsLoading = true
	return s
}

func (AddSuccess) Reduce(s ViewState) ViewState {
	s.IsLoading = false
	return s
}

func (AddFailure) Reduce(s ViewState) ViewState {
	s.IsLoading = false
	return s
}

func (FieldValueChanged) isChange()  {}
func (GenderValueChanged) isChange() {}
func (ErrorsChanged) isChange()      {}
func (AllFieldsTouched) isChange()   {}
func (AddLoading) isChange()         {}
func (AddSuccess) isChange()         {}
func (AddFailure) isChange()         {}

// Event is a one-shot notification for the form view.
type Event interface{ isEvent() }

type (
	UserAdded     struct{ User domain.User }
	AddUserFailed struct {
		User domain.User
		Err  *domain.UserError
	}
)

func (UserAdded) isEvent()     {}
func (AddUserFailed) isEvent() {}

func toEvent(c Change) (Event, bool) {
	switch c := c.(type) {
	case AddSuccess:
		return UserAdded(c), true
	case AddFailure:
		return AddUserFailed(c), true
	default:
		return nil, false
	}
}
