package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID                  int64     `json:"id"`
	Email               string    `json:"email"`
	PasswordHash        string    `json:"-"`
	Name                string    `json:"name"`
	Province            string    `json:"province"`
	City                string    `json:"city"`
	MonthlySpend        float64   `json:"monthly_spend"`
	MonthlyBudget       *float64  `json:"monthly_budget"`
	HouseholdSize       string    `json:"household_size"`
	PropertyType        string    `json:"property_type"`
	HasPool             bool      `json:"has_pool"`
	CookingFuel         string    `json:"cooking_fuel"`
	WorkFromHome        bool      `json:"work_from_home"`
	Latitude            *float64  `json:"latitude"`
	Longitude           *float64  `json:"longitude"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
}

type NewUser struct {
	Email        string
	PasswordHash string
	Name         string
	Province     string
	City         string
	MonthlySpend float64
}

// Credential is the minimum needed to re-hash stored passwords.
type Credential struct {
	ID           int64
	Email        string
	PasswordHash string
}

const userColumns = `id, email, password, name, province, city, monthly_spend, monthly_budget,
	household_size, property_type, has_pool, cooking_fuel, work_from_home,
	latitude, longitude, onboarding_completed, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Province, &u.City, &u.MonthlySpend, &u.MonthlyBudget,
		&u.HouseholdSize, &u.PropertyType, &u.HasPool, &u.CookingFuel, &u.WorkFromHome,
		&u.Latitude, &u.Longitude, &u.OnboardingCompleted, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// CreateUser inserts a user. Emails are stored lower-cased and must be unique.
func (s *Store) CreateUser(ctx context.Context, nu NewUser) (User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, password, name, province, city, monthly_spend, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		normalizeEmail(nu.Email), nu.PasswordHash, nu.Name, nu.Province, nu.City, nu.MonthlySpend, s.timestamp(),
	)
	if err != nil {
		if isConstraint(err, "UNIQUE") {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return s.GetUser(ctx, id)
}

func (s *Store) GetUser(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email)))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, err
}

// ListCredentials returns every stored password hash.
func (s *Store) ListCredentials(ctx context.Context) ([]Credential, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, email, password FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []Credential
	for rows.Next() {
		var c Credential
		if err := rows.Scan(&c.ID, &c.Email, &c.PasswordHash); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password = ? WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile applies updates in one statement and returns the new row.
// Later updates to the same column win.
func (s *Store) UpdateProfile(ctx context.Context, id int64, updates ...ProfileUpdate) (User, error) {
	if len(updates) == 0 {
		return s.GetUser(ctx, id)
	}

	var (
		sets []string
		args []any
		seen = make(map[string]int)
	)
	for _, u := range updates {
		for _, a := range u.assignments() {
			if i, ok := seen[a.column]; ok {
				args[i] = a.value
				continue
			}
			seen[a.column] = len(args)
			sets = append(sets, a.column+" = ?")
			args = append(args, a.value)
		}
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return User{}, fmt.Errorf("update profile: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return User{}, err
	}
	if n == 0 {
		return User{}, ErrNotFound
	}
	return s.GetUser(ctx, id)
}

// SetBudget stores the monthly budget and returns it as saved.
func (s *Store) SetBudget(ctx context.Context, id int64, budget float64) (float64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET monthly_budget = ? WHERE id = ?`, budget, id)
	if err != nil {
		return 0, fmt.Errorf("set budget: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNotFound
	}

	var saved float64
	if err := s.db.QueryRowContext(ctx, `SELECT monthly_budget FROM users WHERE id = ?`, id).Scan(&saved); err != nil {
		return 0, fmt.Errorf("read budget: %w", err)
	}
	return saved, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
