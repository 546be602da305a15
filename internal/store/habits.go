package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Habit is a daily energy-saving habit with its completion state.
type Habit struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ImpactLevel      string    `json:"impact_level"`
	CreatedAt        time.Time `json:"created_at"`
	CompletedToday   bool      `json:"completed_today"`
	TotalCompletions int       `json:"total_completions"`
}

type NewHabit struct {
	Title       string
	Description string
	ImpactLevel string
}

const dayLayout = "2006-01-02"

func (s *Store) today() string {
	return s.timestamp().Format(dayLayout)
}

// ListHabits returns the user's habits in creation order. "Today" is the
// current UTC day.
func (s *Store) ListHabits(ctx context.Context, userID int64) ([]Habit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.id, h.user_id, h.title, h.description, h.impact_level, h.created_at,
			EXISTS (SELECT 1 FROM user_habit_logs l WHERE l.habit_id = h.id AND l.date_completed = ?),
			(SELECT COUNT(*) FROM user_habit_logs l WHERE l.habit_id = h.id)
		FROM habits h
		WHERE h.user_id = ?
		ORDER BY h.id ASC`, s.today(), userID)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	out := []Habit{}
	for rows.Next() {
		var h Habit
		if err := rows.Scan(&h.ID, &h.UserID, &h.Title, &h.Description, &h.ImpactLevel, &h.CreatedAt,
			&h.CompletedToday, &h.TotalCompletions); err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// AddHabits inserts habits for a user in one transaction. Blank impact
// levels default to MEDIUM.
func (s *Store) AddHabits(ctx context.Context, userID int64, habits []NewHabit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add habits: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO habits (user_id, title, description, impact_level, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare add habits: %w", err)
	}
	defer stmt.Close()

	now := s.timestamp()
	for _, h := range habits {
		impact := h.ImpactLevel
		if impact == "" {
			impact = "MEDIUM"
		}
		if _, err := stmt.ExecContext(ctx, userID, h.Title, h.Description, impact, now); err != nil {
			if isConstraint(err, "FOREIGN KEY") {
				return fmt.Errorf("user %d: %w", userID, ErrNotFound)
			}
			return fmt.Errorf("add habit: %w", err)
		}
	}
	return tx.Commit()
}

// LogHabit records today's completion. A second call on the same day
// returns ErrAlreadyLogged; a habit the user does not own is ErrNotFound.
func (s *Store) LogHabit(ctx context.Context, userID, habitID int64) error {
	var owner int64
	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM habits WHERE id = ?`, habitID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != userID) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find habit %d: %w", habitID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_habit_logs (user_id, habit_id, date_completed) VALUES (?, ?, ?)`,
		userID, habitID, s.today(),
	)
	if err != nil {
		if isConstraint(err, "UNIQUE") {
			return ErrAlreadyLogged
		}
		return fmt.Errorf("log habit: %w", err)
	}
	return nil
}
