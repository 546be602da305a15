package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Device is an appliance with its most recent usage figures.
type Device struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Watts       float64   `json:"watts"`
	SurgeWatts  float64   `json:"surge_watts"`
	ImageURL    string    `json:"image_url,omitempty"`
	HoursPerDay float64   `json:"hours_per_day"`
	DaysPerWeek float64   `json:"days_per_week"`
	CreatedAt   time.Time `json:"created_at"`
}

type NewDevice struct {
	UserID     int64
	Name       string
	Watts      float64
	SurgeWatts float64
	ImageURL   string
}

type DeviceUpdate struct {
	Name       string
	Watts      float64
	SurgeWatts float64
	ImageURL   string
}

// Hours and days come from the newest usage log, defaulting to 0 and 7.
const deviceSelect = `
SELECT d.id, d.user_id, d.name, d.watts, d.surge_watts, d.image_url, d.created_at,
	COALESCE((SELECT u.hours_per_day FROM usage_logs u WHERE u.device_id = d.id ORDER BY u.date DESC, u.id DESC LIMIT 1), 0),
	COALESCE((SELECT u.days_per_week FROM usage_logs u WHERE u.device_id = d.id ORDER BY u.date DESC, u.id DESC LIMIT 1), 7)
FROM devices d`

func scanDevice(row interface{ Scan(...any) error }) (Device, error) {
	var d Device
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Watts, &d.SurgeWatts, &d.ImageURL, &d.CreatedAt, &d.HoursPerDay, &d.DaysPerWeek)
	if errors.Is(err, sql.ErrNoRows) {
		return Device{}, ErrNotFound
	}
	return d, err
}

func (s *Store) ListDevices(ctx context.Context, userID int64) ([]Device, error) {
	rows, err := s.db.QueryContext(ctx, deviceSelect+` WHERE d.user_id = ? ORDER BY d.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	out := []Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) GetDevice(ctx context.Context, id int64) (Device, error) {
	d, err := scanDevice(s.db.QueryRowContext(ctx, deviceSelect+` WHERE d.id = ?`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Device{}, fmt.Errorf("get device %d: %w", id, err)
	}
	return d, err
}

// CreateDevice fails with ErrNotFound when the owner does not exist.
func (s *Store) CreateDevice(ctx context.Context, nd NewDevice) (Device, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO devices (user_id, name, watts, surge_watts, image_url, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		nd.UserID, nd.Name, nd.Watts, nd.SurgeWatts, nd.ImageURL, s.timestamp(),
	)
	if err != nil {
		if isConstraint(err, "FOREIGN KEY") {
			return Device{}, fmt.Errorf("user %d: %w", nd.UserID, ErrNotFound)
		}
		return Device{}, fmt.Errorf("create device: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Device{}, fmt.Errorf("create device: %w", err)
	}
	return s.GetDevice(ctx, id)
}

func (s *Store) UpdateDevice(ctx context.Context, id int64, du DeviceUpdate) (Device, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE devices SET name = ?, watts = ?, surge_watts = ?, image_url = ? WHERE id = ?`,
		du.Name, du.Watts, du.SurgeWatts, du.ImageURL, id,
	)
	if err != nil {
		return Device{}, fmt.Errorf("update device: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return Device{}, err
	}
	if n == 0 {
		return Device{}, ErrNotFound
	}
	return s.GetDevice(ctx, id)
}

// DeleteDevice removes the device and its usage logs atomically.
func (s *Store) DeleteDevice(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete device: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM usage_logs WHERE device_id = ?`, id); err != nil {
		return fmt.Errorf("delete usage logs: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
