package domain

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Gender of a user.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender accepts "male"/"female" in any case, plus the "m"/"f" shorthands.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return GenderMale, nil
	case "female", "f":
		return GenderFemale, nil
	}
	return "", fmt.Errorf("parse gender %q: %w", s, ErrInvalidInput)
}

// User is the entity managed by the application.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    Gender `json:"gender"`
	Avatar    string `json:"avatar,omitempty"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Change describes one mutation of the canonical user list. Only the
// repository emits Changes.
type Change interface {
	// Apply returns the list after the change. The input is never modified.
	Apply(users []User) []User
	isChange()
}

// UserAdded appends a newly created user.
type UserAdded struct{ User User }

// UserRemoved drops the user with the same ID.
type UserRemoved struct{ User User }

// UsersRefreshed replaces the whole list.
type UsersRefreshed struct{ Users []User }

func (c UserAdded) Apply(users []User) []User {
	return append(slices.Clone(users), c.User)
}

func (c UserRemoved) Apply(users []User) []User {
	return slices.DeleteFunc(slices.Clone(users), func(u User) bool { return u.ID == c.User.ID })
}

func (c UsersRefreshed) Apply([]User) []User {
	return slices.Clone(c.Users)
}

func (UserAdded) isChange()      {}
func (UserRemoved) isChange()    {}
func (UsersRefreshed) isChange() {}

// UserDataSource is the port to the system of record for users, typically
// remote. Implementations return *UserError for domain rejections.
type UserDataSource interface {
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u User) (User, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string) ([]User, error)
}
