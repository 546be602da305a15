package backup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type fakeBackuper struct {
	mu    sync.Mutex
	calls int
	err   error
	dir   string
	keep  int
}

func (f *fakeBackuper) Backup(_ context.Context, dir string, keep int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.dir, f.keep = dir, keep
	if f.err != nil {
		return "", f.err
	}
	return dir + "/staticfund_test.db", nil
}

func (f *fakeBackuper) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestNewScheduler_RejectsBadSchedule(t *testing.T) {
	if _, err := NewScheduler(&fakeBackuper{}, Config{Schedule: "every tuesday"}, zaptest.NewLogger(t)); err == nil {
		t.Fatal("expected schedule parse error")
	}
}

func TestOnce(t *testing.T) {
	db := &fakeBackuper{}
	path, err := Once(context.Background(), db, "backups", 7, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	if path != "backups/staticfund_test.db" || db.dir != "backups" || db.keep != 7 {
		t.Fatalf("path %q, dir %q, keep %d", path, db.dir, db.keep)
	}

	db.err = errors.New("disk full")
	if _, err := Once(context.Background(), db, "backups", 7, zaptest.NewLogger(t)); err == nil {
		t.Fatal("expected error")
	}
}

func TestScheduler_RunsAndStops(t *testing.T) {
	db := &fakeBackuper{}
	s, err := NewScheduler(db, Config{Dir: "b", Keep: 3, Schedule: "@every 1s"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for db.Calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	if db.Calls() == 0 {
		t.Fatal("scheduled backup never ran")
	}
}
