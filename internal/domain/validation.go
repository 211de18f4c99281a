package domain

import (
	"net/mail"
	"strings"

	"mvi-users/pkg/either"
	"mvi-users/pkg/nonempty"
)

// ValidationError tags a single invalid form field.
type ValidationError string

const (
	InvalidEmailAddress ValidationError = "INVALID_EMAIL_ADDRESS"
	TooShortFirstName   ValidationError = "TOO_SHORT_FIRST_NAME"
	TooShortLastName    ValidationError = "TOO_SHORT_LAST_NAME"
)

// MinNameLength is the shortest accepted first or last name, after trimming.
const MinNameLength = 3

// ValidationErrors is the accumulated, never-empty result of a failed validation.
type ValidationErrors = nonempty.Set[ValidationError]

// Validated is the outcome of validating one raw value.
type Validated[T any] = either.Either[ValidationErrors, T]

func invalid[T any](e ValidationError) Validated[T] {
	return either.Left[ValidationErrors, T](nonempty.New(e))
}

// ValidateEmail trims raw and checks it is a bare address with a dotted domain.
func ValidateEmail(raw string) Validated[string] {
	email := strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid[string](InvalidEmailAddress)
	}
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || strings.Count(email, "@") != 1 {
		return invalid[string](InvalidEmailAddress)
	}
	host := email[at+1:]
	if dot := strings.LastIndexByte(host, '.'); dot <= 0 || dot == len(host)-1 {
		return invalid[string](InvalidEmailAddress)
	}
	return either.Right[ValidationErrors](email)
}

// ValidateFirstName trims raw and requires MinNameLength characters.
func ValidateFirstName(raw string) Validated[string] {
	return validateName(raw, TooShortFirstName)
}

// ValidateLastName trims raw and requires MinNameLength characters.
func ValidateLastName(raw string) Validated[string] {
	return validateName(raw, TooShortLastName)
}

func validateName(raw string, tag ValidationError) Validated[string] {
	name := strings.TrimSpace(raw)
	if len([]rune(name)) < MinNameLength {
		return invalid[string](tag)
	}
	return either.Right[ValidationErrors](name)
}

// NewUser validates every field and builds a User without an ID. Failures
// are accumulated: the Left value holds the errors of every invalid field.
func NewUser(email, firstName, lastName string, gender Gender) Validated[User] {
	return either.Zip3(
		ValidateEmail(email),
		ValidateFirstName(firstName),
		ValidateLastName(lastName),
		ValidationErrors.Plus,
		func(e, f, l string) User {
			return User{Email: e, FirstName: f, LastName: l, Gender: gender}
		},
	)
}
