package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) (*Store, *stepClock) {
	t.Helper()
	clock := &stepClock{now: time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)}
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "staticfund_test.db"), WithClock(clock.Now))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, clock
}

func mustUser(t *testing.T, s *Store, email string) User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), NewUser{Email: email, PasswordHash: "$2a$10$x", Name: "Thandi", City: "Cape Town", Province: "Western Cape"})
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestOpen_MigratesLegacySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := legacy.Exec(`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		province TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		monthly_spend REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`); err != nil {
		t.Fatal(err)
	}
	legacy.Close()

	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open legacy db: %v", err)
	}
	defer s.Close()

	for _, c := range addedColumns {
		if !columnExists(context.Background(), s.db, c.table, c.column) {
			t.Errorf("column %s.%s not added", c.table, c.column)
		}
	}

	// Migrating twice is a no-op.
	if err := s.migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestUsers_CreateAndLookup(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	u := mustUser(t, s, "Thandi@Example.com ")
	if u.Email != "thandi@example.com" {
		t.Fatalf("email not normalised: %q", u.Email)
	}
	if u.HasPool || u.OnboardingCompleted || u.MonthlyBudget != nil {
		t.Fatalf("unexpected defaults %+v", u)
	}

	got, err := s.GetUserByEmail(ctx, "THANDI@example.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("lookup by email: %+v %v", got, err)
	}
	if got.PasswordHash != "$2a$10$x" {
		t.Fatalf("password hash not stored")
	}

	if _, err := s.CreateUser(ctx, NewUser{Email: "thandi@example.com", PasswordHash: "h"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := s.GetUser(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUsers_PasswordJSONHidden(t *testing.T) {
	s, _ := newTestStore(t)
	u := mustUser(t, s, "a@b.co")

	b, err := json.Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		t.Fatal(err)
	}
	if _, ok := fields["password"]; ok {
		t.Fatalf("password leaked into JSON: %s", b)
	}
	if _, ok := fields["PasswordHash"]; ok {
		t.Fatalf("password hash leaked into JSON: %s", b)
	}
}

func TestUsers_UpdateProfile(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "p@q.co")

	updated, err := s.UpdateProfile(ctx, u.ID,
		HouseholdSize("3-4"),
		HasPool(true),
		Location{Latitude: -33.92, Longitude: 18.42},
		CookingFuel("gas"),
		CookingFuel("electric"),
	)
	if err != nil {
		t.Fatal(err)
	}
	if updated.HouseholdSize != "3-4" || !updated.HasPool || updated.CookingFuel != "electric" {
		t.Fatalf("unexpected profile %+v", updated)
	}
	if updated.Latitude == nil || *updated.Latitude != -33.92 || updated.Longitude == nil {
		t.Fatalf("location not saved: %+v", updated)
	}

	if _, err := s.UpdateProfile(ctx, 12345, City("Durban")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDecodeProfileUpdates(t *testing.T) {
	updates, err := DecodeProfileUpdates([]byte(`{"work_from_home":true,"city":"Durban","location":{"latitude":-29.8,"longitude":31.0}}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(updates) != 3 {
		t.Fatalf("expected 3 updates, got %d", len(updates))
	}
	if c, ok := updates[0].(City); !ok || c != "Durban" {
		t.Fatalf("updates not in key order: %#v", updates)
	}

	if _, err := DecodeProfileUpdates([]byte(`{"password":"x"}`)); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if _, err := DecodeProfileUpdates([]byte(`{"has_pool":"yes"}`)); err == nil {
		t.Fatalf("expected type error")
	}
	if _, err := DecodeProfileUpdates([]byte(`[1,2]`)); err == nil {
		t.Fatalf("expected object error")
	}
}

func TestOnboarding_Updates(t *testing.T) {
	s, _ := newTestStore(t)
	u := mustUser(t, s, "o@b.co")

	lat := -26.2
	o := Onboarding{HouseholdSize: "1-2", PropertyType: "house", CookingFuel: "gas", WorkFromHome: true, Latitude: &lat, OnboardingCompleted: true}
	got, err := s.UpdateProfile(context.Background(), u.ID, o.Updates()...)
	if err != nil {
		t.Fatal(err)
	}
	if !got.OnboardingCompleted || !got.WorkFromHome || got.PropertyType != "house" {
		t.Fatalf("onboarding not saved: %+v", got)
	}
	if got.Latitude != nil {
		t.Fatalf("half a location must not be written")
	}
}

func TestUsers_SetBudget(t *testing.T) {
	s, _ := newTestStore(t)
	u := mustUser(t, s, "b@b.co")

	got, err := s.SetBudget(context.Background(), u.ID, 850.5)
	if err != nil || got != 850.5 {
		t.Fatalf("set budget: %v %v", got, err)
	}
	if _, err := s.SetBudget(context.Background(), 404, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDevices_LatestUsageAndDefaults(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "d@d.co")

	geyser, err := s.CreateDevice(ctx, NewDevice{UserID: u.ID, Name: "Geyser", Watts: 3000})
	if err != nil {
		t.Fatal(err)
	}
	if geyser.HoursPerDay != 0 || geyser.DaysPerWeek != 7 {
		t.Fatalf("expected defaults 0/7, got %v/%v", geyser.HoursPerDay, geyser.DaysPerWeek)
	}

	if _, err := s.CreateUsageLog(ctx, geyser.ID, 4, 7); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Hour)
	if _, err := s.CreateUsageLog(ctx, geyser.ID, 2, 5); err != nil {
		t.Fatal(err)
	}

	devices, err := s.ListDevices(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) != 1 || devices[0].HoursPerDay != 2 || devices[0].DaysPerWeek != 5 {
		t.Fatalf("expected latest usage 2h/5d, got %+v", devices)
	}

	usage, err := s.ListUsage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(usage) != 2 || usage[0].HoursPerDay != 2 || usage[0].Name != "Geyser" {
		t.Fatalf("usage not newest first: %+v", usage)
	}
}

func TestDevices_UpdateAndDelete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "e@e.co")

	d, err := s.CreateDevice(ctx, NewDevice{UserID: u.ID, Name: "Kettle", Watts: 2000})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateUsageLog(ctx, d.ID, 0.5, 7); err != nil {
		t.Fatal(err)
	}

	upd, err := s.UpdateDevice(ctx, d.ID, DeviceUpdate{Name: "Kettle 1.7L", Watts: 2200, SurgeWatts: 0})
	if err != nil || upd.Name != "Kettle 1.7L" || upd.Watts != 2200 {
		t.Fatalf("update: %+v %v", upd, err)
	}

	if err := s.DeleteDevice(ctx, d.ID); err != nil {
		t.Fatalf("delete device with usage logs: %v", err)
	}
	if usage, _ := s.ListUsage(ctx); len(usage) != 0 {
		t.Fatalf("usage logs should go with the device, got %d", len(usage))
	}

	if err := s.DeleteDevice(ctx, d.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateDevice(ctx, d.ID, DeviceUpdate{Name: "x", Watts: 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDevices_UnknownOwner(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.CreateDevice(context.Background(), NewDevice{UserID: 77, Name: "TV", Watts: 100}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.CreateUsageLog(context.Background(), 77, 1, 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown device, got %v", err)
	}
}

func TestHabits_DailyLogging(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "h@h.co")
	other := mustUser(t, s, "x@h.co")

	if err := s.AddHabits(ctx, u.ID, []NewHabit{
		{Title: "Shower in under 5 minutes", ImpactLevel: "HIGH"},
		{Title: "Turn off lights"},
	}); err != nil {
		t.Fatal(err)
	}

	habits, err := s.ListHabits(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(habits) != 2 || habits[1].ImpactLevel != "MEDIUM" {
		t.Fatalf("unexpected habits %+v", habits)
	}

	id := habits[0].ID
	if err := s.LogHabit(ctx, u.ID, id); err != nil {
		t.Fatal(err)
	}
	if err := s.LogHabit(ctx, u.ID, id); !errors.Is(err, ErrAlreadyLogged) {
		t.Fatalf("expected ErrAlreadyLogged, got %v", err)
	}
	if err := s.LogHabit(ctx, other.ID, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign habit, got %v", err)
	}

	habits, _ = s.ListHabits(ctx, u.ID)
	if !habits[0].CompletedToday || habits[0].TotalCompletions != 1 {
		t.Fatalf("unexpected completion state %+v", habits[0])
	}

	clock.Advance(24 * time.Hour)
	habits, _ = s.ListHabits(ctx, u.ID)
	if habits[0].CompletedToday {
		t.Fatalf("completion should reset on a new day")
	}
	if err := s.LogHabit(ctx, u.ID, id); err != nil {
		t.Fatalf("next day log: %v", err)
	}
	habits, _ = s.ListHabits(ctx, u.ID)
	if habits[0].TotalCompletions != 2 {
		t.Fatalf("expected 2 completions, got %d", habits[0].TotalCompletions)
	}
}

func TestQuotations(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "q@q.co")

	q, err := s.CreateQuotation(ctx, NewQuotation{
		UserID:         u.ID,
		PackageTier:    "STANDARD",
		PackageDetails: json.RawMessage(`{"inverter_kw":5}`),
		TotalCost:      "R85,000",
	})
	if err != nil {
		t.Fatal(err)
	}
	if q.Reference == "" || q.Status != "pending" {
		t.Fatalf("unexpected quotation %+v", q)
	}
	if q.UserEmail != "q@q.co" || q.UserCity != "Cape Town" {
		t.Fatalf("user details not copied: %+v", q)
	}
	if string(q.PackageDetails) != `{"inverter_kw":5}` {
		t.Fatalf("package details changed: %s", q.PackageDetails)
	}

	list, err := s.ListQuotations(ctx, u.ID)
	if err != nil || len(list) != 1 || list[0].Reference != q.Reference {
		t.Fatalf("list quotations: %+v %v", list, err)
	}

	if _, err := s.CreateQuotation(ctx, NewQuotation{UserID: 999, PackageTier: "BASIC"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.CreateQuotation(ctx, NewQuotation{UserID: u.ID, PackageTier: "BASIC", PackageDetails: json.RawMessage(`{`)}); err == nil {
		t.Fatalf("expected invalid JSON error")
	}
}

func TestBackup_KeepsNewest(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	mustUser(t, s, "k@k.co")
	dir := filepath.Join(t.TempDir(), "backups")

	var paths []string
	for i := 0; i < 3; i++ {
		p, err := s.Backup(ctx, dir, 2)
		if err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
		clock.Advance(time.Minute)
	}

	if _, err := os.Stat(paths[0]); !os.IsNotExist(err) {
		t.Fatalf("oldest backup should be pruned")
	}
	for _, p := range paths[1:] {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("backup %s missing: %v", p, err)
		}
	}

	restored, err := Open(ctx, paths[2])
	if err != nil {
		t.Fatal(err)
	}
	defer restored.Close()
	if _, err := restored.GetUserByEmail(ctx, "k@k.co"); err != nil {
		t.Fatalf("backup does not contain data: %v", err)
	}
}

func TestPruneBackups_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{
		"staticfund_2025-01-01T00-00-00.000.db",
		"staticfund_2025-01-02T00-00-00.000.db",
		"notes.txt",
	} {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := PruneBackups(dir, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 1 || removed[0] != "staticfund_2025-01-01T00-00-00.000.db" {
		t.Fatalf("unexpected removals %v", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Fatalf("unrelated file removed")
	}
}

func TestPing(t *testing.T) {
	s, _ := newTestStore(t)
	now, err := s.Ping(context.Background())
	if err != nil || now == "" {
		t.Fatalf("ping: %q %v", now, err)
	}
}
