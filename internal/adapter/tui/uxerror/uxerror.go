// Package uxerror translates user operation failures into friendly messages
// with recovery hints for the TUI.
package uxerror

import (
	"errors"
	"fmt"
	"strings"

	"mvi-users/internal/adapter/tui/theme"
	"mvi-users/internal/domain"
)

// FriendlyError is a user-facing error with suggestions for recovery.
type FriendlyError struct {
	Title   string   // short heading, e.g. "Connection Failed"
	Message string   // one-liner explanation
	Hints   []string // actionable recovery suggestions
	Raw     string   // original error text (for debug)
}

// Render formats the FriendlyError for display.
func (fe FriendlyError) Render() string {
	var sb strings.Builder
	sb.WriteString(theme.TextError.Render(theme.SymbolError + " " + fe.Title))
	if fe.Message != "" {
		sb.WriteString("\n  ")
		sb.WriteString(fe.Message)
	}
	if len(fe.Hints) > 0 {
		sb.WriteString("\n  Suggestions:")
		for _, h := range fe.Hints {
			sb.WriteString(fmt.Sprintf("\n    %s %s", theme.SymbolBullet, h))
		}
	}
	return sb.String()
}

// Short is the one-line form used in status flashes.
func (fe FriendlyError) Short() string {
	if fe.Message == "" {
		return fe.Title
	}
	return fe.Title + ": " + fe.Message
}

type errorPattern struct {
	match   func(err error) bool
	produce func(err error) FriendlyError
}

var patterns = []errorPattern{
	// The breaker check precedes the generic network one: an open breaker is
	// also classified as a network failure.
	{
		match:   containsAny("circuit breaker is open", "too many requests"),
		produce: constantError("Service Paused", "Too many recent failures, requests are paused for a moment.", []string{"Wait a few seconds and retry"}),
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrNetwork) },
		produce: func(err error) FriendlyError {
			return FriendlyError{
				Title:   "Connection Failed",
				Message: "Could not reach the user service.",
				Hints:   []string{"Check your connection", "Press r to retry"},
				Raw:     err.Error(),
			}
		},
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrUserNotFound) },
		produce: func(err error) FriendlyError {
			msg := "The user no longer exists."
			var ue *domain.UserError
			if errors.As(err, &ue) && ue.ID != "" {
				msg = fmt.Sprintf("User %s no longer exists.", ue.ID)
			}
			return FriendlyError{
				Title:   "User Not Found",
				Message: msg,
				Hints:   []string{"Refresh the list"},
				Raw:     err.Error(),
			}
		},
	},
	{
		match:   func(err error) bool { return errors.Is(err, domain.ErrInvalidID) },
		produce: constantError("Invalid User", "The user has no valid identifier.", []string{"Refresh the list"}),
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrValidationFailed) },
		produce: func(err error) FriendlyError {
			var hints []string
			var ue *domain.UserError
			if errors.As(err, &ue) {
				for e := range ue.Errors.All() {
					hints = append(hints, ValidationMessage(e))
				}
			}
			return FriendlyError{
				Title:   "Invalid User",
				Message: "The service rejected the user details.",
				Hints:   hints,
				Raw:     err.Error(),
			}
		},
	},
	{
		match:   func(err error) bool { return errors.Is(err, domain.ErrServer) },
		produce: constantError("Request Rejected", "The service refused the request.", []string{"Check the entered details", "An email address can only be used once"}),
	},
}

// Humanize converts a raw error into a FriendlyError with recovery hints.
func Humanize(err error) FriendlyError {
	if err == nil {
		return FriendlyError{Title: "Unknown Error", Raw: "nil"}
	}

	for _, p := range patterns {
		if p.match(err) {
			return p.produce(err)
		}
	}

	return FriendlyError{
		Title:   "Unexpected Error",
		Message: err.Error(),
		Hints:   []string{"Try again", "Run with MVIUSERS_LOGGER_LEVEL=debug for more details"},
		Raw:     err.Error(),
	}
}

// ValidationMessage is the inline text shown under a form field.
func ValidationMessage(e domain.ValidationError) string {
	switch e {
	case domain.InvalidEmailAddress:
		return "Invalid email address"
	case domain.TooShortFirstName:
		return fmt.Sprintf("First name must be at least %d characters", domain.MinNameLength)
	case domain.TooShortLastName:
		return fmt.Sprintf("Last name must be at least %d characters", domain.MinNameLength)
	}
	return string(e)
}

// containsAny returns a match func that checks if the error string contains
// any of the given substrings (case-insensitive).
func containsAny(substrs ...string) func(error) bool {
	return func(err error) bool {
		lower := strings.ToLower(err.Error())
		for _, s := range substrs {
			if strings.Contains(lower, s) {
				return true
			}
		}
		return false
	}
}

// constantError returns a produce func that always returns the same FriendlyError.
func constantError(title, message string, hints []string) func(error) FriendlyError {
	return func(err error) FriendlyError {
		return FriendlyError{
			Title:   title,
			Message: message,
			Hints:   hints,
			Raw:     err.Error(),
		}
	}
}
