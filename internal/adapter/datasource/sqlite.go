package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mvi-users/internal/domain"
)

// SQLite is a domain.UserDataSource persisted in a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at dbPath and runs the schema
// migration. When the users table is empty it is filled with seed.
func NewSQLite(ctx context.Context, dbPath string, seed []domain.User) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open users db: %w", err)
	}

	// SQLite write safety: single writer.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("users db pragma: %w", err)
		}
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate users db: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.seed(ctx, seed); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed users db: %w", err)
	}
	return s, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			email      TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL,
			last_name  TEXT NOT NULL,
			gender     TEXT NOT NULL DEFAULT 'male',
			avatar     TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)
	`)
	return err
}

func (s *SQLite) seed(ctx context.Context, users []domain.User) error {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, u := range users {
		if _, err := s.Create(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) List(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, email, first_name, last_name, gender, avatar FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, domain.WrapOp("SQLite.List", err)
	}
	return scanUsers(rows)
}

func (s *SQLite) Create(ctx context.Context, u domain.User) (domain.User, error) {
	created, err := checkNew(u)
	if err != nil {
		return domain.User{}, err
	}
	now := time.Now().UTC()
	created.ID = newID(now)
	if created.Avatar == "" {
		created.Avatar = avatarURL(created.ID)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, first_name, last_name, gender, avatar, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		created.ID, created.Email, created.FirstName, created.LastName, string(created.Gender), created.Avatar,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.User{}, domain.NewDomainError("SQLite.Create", domain.ErrInvalidInput, "email already registered")
		}
		return domain.User{}, domain.WrapOp("SQLite.Create", err)
	}
	return created, nil
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.NewInvalidIDError(id)
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return domain.WrapOp("SQLite.Delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.WrapOp("SQLite.Delete", err)
	}
	if n == 0 {
		return domain.NewUserNotFoundError(id)
	}
	return nil
}

func (s *SQLite) Search(ctx context.Context, query string) ([]domain.User, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, first_name, last_name, gender, avatar FROM users
		WHERE lower(first_name) LIKE ?1 ESCAPE '\'
		   OR lower(last_name) LIKE ?1 ESCAPE '\'
		   OR lower(email) LIKE ?1 ESCAPE '\'
		   OR lower(first_name || ' ' || last_name) LIKE ?1 ESCAPE '\'
		ORDER BY created_at, id`, pattern)
	if err != nil {
		return nil, domain.WrapOp("SQLite.Search", err)
	}
	return scanUsers(rows)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanUsers(rows *sql.Rows) ([]domain.User, error) {
	defer rows.Close()
	var out []domain.User
	for rows.Next() {
		var (
			u      domain.User
			gender string
		)
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &gender, &u.Avatar); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Gender = domain.Gender(gender)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return out, nil
}

var _ domain.UserDataSource = (*SQLite)(nil)
