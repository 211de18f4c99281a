// Package datasource provides the systems of record behind the repository:
// an in-memory store that can simulate a flaky remote service, a SQLite
// store, and decorators adding a circuit breaker and a client-side rate limit.
package datasource

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"mvi-users/internal/domain"
)

func newID(t time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

func avatarURL(id string) string {
	return fmt.Sprintf("https://i.pravatar.cc/150?u=%s", id)
}

// checkNew applies the server-side rules for a user about to be created.
func checkNew(u domain.User) (domain.User, error) {
	valid := domain.NewUser(u.Email, u.FirstName, u.LastName, u.Gender)
	if errs, bad := valid.LeftValue(); bad {
		return domain.User{}, domain.NewValidationFailedError(errs)
	}
	out, _ := valid.RightValue()
	if out.Gender == "" {
		out.Gender = domain.GenderMale
	}
	out.Avatar = u.Avatar
	return out, nil
}

func matches(u domain.User, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	for _, field := range []string{u.FirstName, u.LastName, u.Email, u.FullName()} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DefaultSeed is the list a fresh store starts with.
func DefaultSeed() []domain.User {
	return []domain.User{
		{Email: "petrus.hoc@example.com", FirstName: "Petrus", LastName: "Hoc", Gender: domain.GenderMale},
		{Email: "ada.lovelace@example.com", FirstName: "Ada", LastName: "Lovelace", Gender: domain.GenderFemale},
		{Email: "alan.turing@example.com", FirstName: "Alan", LastName: "Turing", Gender: domain.GenderMale},
		{Email: "grace.hopper@example.com", FirstName: "Grace", LastName: "Hopper", Gender: domain.GenderFemale},
		{Email: "edsger.dijkstra@example.com", FirstName: "Edsger", LastName: "Dijkstra", Gender: domain.GenderMale},
	}
}
