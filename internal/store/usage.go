package store

import (
	"context"
	"fmt"
	"time"
)

type UsageLog struct {
	ID          int64     `json:"id"`
	DeviceID    int64     `json:"device_id"`
	HoursPerDay float64   `json:"hours_per_day"`
	DaysPerWeek float64   `json:"days_per_week"`
	Date        time.Time `json:"date"`
}

// UsageEntry is a usage log joined with its device name.
type UsageEntry struct {
	Name        string    `json:"name"`
	HoursPerDay float64   `json:"hours_per_day"`
	DaysPerWeek float64   `json:"days_per_week"`
	Date        time.Time `json:"date"`
}

func (s *Store) CreateUsageLog(ctx context.Context, deviceID int64, hoursPerDay, daysPerWeek float64) (UsageLog, error) {
	log := UsageLog{DeviceID: deviceID, HoursPerDay: hoursPerDay, DaysPerWeek: daysPerWeek, Date: s.timestamp()}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_logs (device_id, hours_per_day, days_per_week, date) VALUES (?, ?, ?, ?)`,
		log.DeviceID, log.HoursPerDay, log.DaysPerWeek, log.Date,
	)
	if err != nil {
		if isConstraint(err, "FOREIGN KEY") {
			return UsageLog{}, fmt.Errorf("device %d: %w", deviceID, ErrNotFound)
		}
		return UsageLog{}, fmt.Errorf("create usage log: %w", err)
	}
	if log.ID, err = res.LastInsertId(); err != nil {
		return UsageLog{}, fmt.Errorf("create usage log: %w", err)
	}
	return log, nil
}

// ListUsage returns every usage log, newest first.
func (s *Store) ListUsage(ctx context.Context) ([]UsageEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.name, u.hours_per_day, u.days_per_week, u.date
		FROM usage_logs u
		JOIN devices d ON u.device_id = d.id
		ORDER BY u.date DESC, u.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}
	defer rows.Close()

	out := []UsageEntry{}
	for rows.Next() {
		var e UsageEntry
		if err := rows.Scan(&e.Name, &e.HoursPerDay, &e.DaysPerWeek, &e.Date); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
