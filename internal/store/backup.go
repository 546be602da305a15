package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	backupPrefix = "staticfund_"
	backupSuffix = ".db"
	backupLayout = "2006-01-02T15-04-05.000"
)

// Backup writes a consistent snapshot into dir with VACUUM INTO and then
// deletes all but the newest keep snapshots. It returns the new file's path.
func (s *Store) Backup(ctx context.Context, dir string, keep int) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	path := filepath.Join(dir, backupPrefix+s.timestamp().Format(backupLayout)+backupSuffix)
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", path, err)
	}

	if _, err := PruneBackups(dir, keep); err != nil {
		return path, err
	}
	return path, nil
}

// PruneBackups keeps the newest keep snapshots in dir and returns the
// removed file names. Snapshot names sort chronologically.
func PruneBackups(dir string, keep int) ([]string, error) {
	if keep < 1 {
		keep = 1
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n := e.Name(); strings.HasPrefix(n, backupPrefix) && strings.HasSuffix(n, backupSuffix) {
			names = append(names, n)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	if len(names) <= keep {
		return nil, nil
	}

	removed := names[keep:]
	for _, n := range removed {
		if err := os.Remove(filepath.Join(dir, n)); err != nil {
			return nil, fmt.Errorf("remove old backup %s: %w", n, err)
		}
	}
	return removed, nil
}
