package datasource

import (
	"context"
	"math/rand"
	"slices"
	"sync"
	"time"

	"mvi-users/internal/domain"
)

// MemoryOptions configures a Memory store.
type MemoryOptions struct {
	// Seed is created on start, in order.
	Seed []domain.User
	// Latency delays every call.
	Latency time.Duration
	// FailureRate is the probability, in [0, 1], that a call fails with a
	// transient error before touching the data.
	FailureRate float64
	// Rand drives failure injection. Defaults to a time-seeded source.
	Rand *rand.Rand
}

// Memory is a domain.UserDataSource kept in process memory. With latency and
// failure injection it stands in for a remote user service.
type Memory struct {
	mu      sync.Mutex
	users   []domain.User
	latency time.Duration
	failure float64
	rng     *rand.Rand
}

// NewMemory creates a store holding opts.Seed. Seed users without an ID get
// one; invalid seed users are skipped.
func NewMemory(opts MemoryOptions) *Memory {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	m := &Memory{latency: opts.Latency, failure: opts.FailureRate, rng: rng}
	for _, u := range opts.Seed {
		checked, err := checkNew(u)
		if err != nil {
			continue
		}
		checked.ID = u.ID
		if checked.ID == "" {
			checked.ID = newID(time.Now())
		}
		if checked.Avatar == "" {
			checked.Avatar = avatarURL(checked.ID)
		}
		m.users = append(m.users, checked)
	}
	return m
}

// call simulates the round trip of a remote request.
func (m *Memory) call(ctx context.Context, op string) error {
	if err := sleep(ctx, m.latency); err != nil {
		return domain.WrapOp(op, err)
	}
	m.mu.Lock()
	fail := m.failure > 0 && m.rng.Float64() < m.failure
	m.mu.Unlock()
	if fail {
		return domain.NewDomainError(op, domain.ErrUnavailable, "injected failure")
	}
	return nil
}

func (m *Memory) List(ctx context.Context) ([]domain.User, error) {
	if err := m.call(ctx, "Memory.List"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.users), nil
}

func (m *Memory) Create(ctx context.Context, u domain.User) (domain.User, error) {
	if err := m.call(ctx, "Memory.Create"); err != nil {
		return domain.User{}, err
	}
	created, err := checkNew(u)
	if err != nil {
		return domain.User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.ContainsFunc(m.users, func(x domain.User) bool { return x.Email == created.Email }) {
		return domain.User{}, domain.NewDomainError("Memory.Create", domain.ErrInvalidInput, "email already registered")
	}
	created.ID = newID(time.Now())
	if created.Avatar == "" {
		created.Avatar = avatarURL(created.ID)
	}
	m.users = append(m.users, created)
	return created, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.NewInvalidIDError(id)
	}
	if err := m.call(ctx, "Memory.Delete"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.users, func(u domain.User) bool { return u.ID == id })
	if i < 0 {
		return domain.NewUserNotFoundError(id)
	}
	m.users = slices.Delete(m.users, i, i+1)
	return nil
}

func (m *Memory) Search(ctx context.Context, query string) ([]domain.User, error) {
	if err := m.call(ctx, "Memory.Search"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.users {
		if matches(u, query) {
			out = append(out, u)
		}
	}
	return out, nil
}

var _ domain.UserDataSource = (*Memory)(nil)
