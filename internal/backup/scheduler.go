// Package backup runs database backups on a cron schedule.
package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Backuper writes one backup into dir and keeps the newest keep files.
type Backuper interface {
	Backup(ctx context.Context, dir string, keep int) (string, error)
}

type Config struct {
	Dir      string
	Keep     int
	Schedule string
	// Timeout bounds a single run. Zero means five minutes.
	Timeout time.Duration
}

// Scheduler triggers backups on a standard five-field cron expression.
type Scheduler struct {
	db     Backuper
	cfg    Config
	cron   *cron.Cron
	logger *zap.Logger
}

func NewScheduler(db Backuper, cfg Config, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	logger = logger.Named("backup")

	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	s := &Scheduler{db: db, cfg: cfg, cron: c, logger: logger}
	if _, err := c.AddFunc(cfg.Schedule, s.run); err != nil {
		return nil, fmt.Errorf("backup schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Run starts the schedule and blocks until ctx is done, then waits for a
// running backup to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("backup scheduler started",
		zap.String("schedule", s.cfg.Schedule),
		zap.String("dir", s.cfg.Dir),
		zap.Int("keep", s.cfg.Keep),
	)

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("backup scheduler stopped")
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	_, _ = Once(ctx, s.db, s.cfg.Dir, s.cfg.Keep, s.logger)
}

// Once takes a single backup and logs the outcome.
func Once(ctx context.Context, db Backuper, dir string, keep int, logger *zap.Logger) (string, error) {
	start := time.Now()
	path, err := db.Backup(ctx, dir, keep)
	if err != nil {
		logger.Error("backup failed", zap.String("dir", dir), zap.Error(err))
		return "", err
	}
	logger.Info("backup written",
		zap.String("path", path),
		zap.Duration("took", time.Since(start)),
	)
	return path, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, fields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(fields(keysAndValues), zap.Error(err))...)
}

func fields(kv []any) []zap.Field {
	out := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		out = append(out, zap.Any(key, kv[i+1]))
	}
	return out
}
