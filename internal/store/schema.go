package store

import (
	"context"
	"database/sql"
	"fmt"
)

const createTables = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	province TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	monthly_spend REAL NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS devices (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	name TEXT NOT NULL,
	watts REAL NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_devices_user ON devices(user_id);

CREATE TABLE IF NOT EXISTS usage_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id INTEGER NOT NULL REFERENCES devices(id),
	hours_per_day REAL NOT NULL,
	days_per_week REAL NOT NULL DEFAULT 7,
	date DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_device_date ON usage_logs(device_id, date);

CREATE TABLE IF NOT EXISTS habits (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	impact_level TEXT NOT NULL DEFAULT 'MEDIUM',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_habits_user ON habits(user_id);

CREATE TABLE IF NOT EXISTS user_habit_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	habit_id INTEGER NOT NULL REFERENCES habits(id),
	date_completed TEXT NOT NULL,
	UNIQUE (user_id, habit_id, date_completed)
);

CREATE TABLE IF NOT EXISTS quotations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	reference TEXT NOT NULL UNIQUE,
	user_id INTEGER NOT NULL REFERENCES users(id),
	user_name TEXT NOT NULL DEFAULT '',
	user_email TEXT NOT NULL DEFAULT '',
	user_city TEXT NOT NULL DEFAULT '',
	user_province TEXT NOT NULL DEFAULT '',
	package_tier TEXT NOT NULL,
	package_details TEXT NOT NULL DEFAULT '{}',
	devices_summary TEXT NOT NULL DEFAULT '',
	total_cost TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_quotations_user ON quotations(user_id);
`

type addedColumn struct {
	table, column, ddl string
}

// Columns that arrived after the first schema. Older databases get them
// through ALTER TABLE.
var addedColumns = []addedColumn{
	{"users", "household_size", `ALTER TABLE users ADD COLUMN household_size TEXT NOT NULL DEFAULT ''`},
	{"users", "property_type", `ALTER TABLE users ADD COLUMN property_type TEXT NOT NULL DEFAULT ''`},
	{"users", "has_pool", `ALTER TABLE users ADD COLUMN has_pool INTEGER NOT NULL DEFAULT 0`},
	{"users", "cooking_fuel", `ALTER TABLE users ADD COLUMN cooking_fuel TEXT NOT NULL DEFAULT ''`},
	{"users", "work_from_home", `ALTER TABLE users ADD COLUMN work_from_home INTEGER NOT NULL DEFAULT 0`},
	{"users", "latitude", `ALTER TABLE users ADD COLUMN latitude REAL`},
	{"users", "longitude", `ALTER TABLE users ADD COLUMN longitude REAL`},
	{"users", "onboarding_completed", `ALTER TABLE users ADD COLUMN onboarding_completed INTEGER NOT NULL DEFAULT 0`},
	{"users", "monthly_budget", `ALTER TABLE users ADD COLUMN monthly_budget REAL`},
	{"devices", "surge_watts", `ALTER TABLE devices ADD COLUMN surge_watts REAL NOT NULL DEFAULT 0`},
	{"devices", "image_url", `ALTER TABLE devices ADD COLUMN image_url TEXT NOT NULL DEFAULT ''`},
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTables); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	for _, c := range addedColumns {
		if columnExists(ctx, s.db, c.table, c.column) {
			continue
		}
		if _, err := s.db.ExecContext(ctx, c.ddl); err != nil {
			return fmt.Errorf("add %s.%s column: %w", c.table, c.column, err)
		}
	}
	return nil
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) bool {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false
		}
		if name == column {
			return true
		}
	}
	return false
}
