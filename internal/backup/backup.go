// Package backup keeps rotating copies of a profile's collection in its
// backups folder.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	filePrefix = "backup-"
	fileSuffix = ".flashdb"
	stampFmt   = "20060102-150405"
)

// Source writes a consistent copy of a collection to a new file.
type Source interface {
	BackupTo(path string) error
}

// Backup writes a timestamped copy of src into folder and removes the oldest
// copies so that at most keep remain. keep <= 0 disables backups.
func Backup(src Source, folder string, keep int, now time.Time) (string, error) {
	if keep <= 0 {
		return "", nil
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup folder: %w", err)
	}

	path := filepath.Join(folder, filePrefix+now.Format(stampFmt)+fileSuffix)
	if _, err := os.Stat(path); err == nil {
		// Two backups within the same second
		return path, nil
	}
	if err := src.BackupTo(path); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	if err := Prune(folder, keep); err != nil {
		return path, err
	}
	return path, nil
}

// List returns the backup files in folder, oldest first.
func List(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix) {
			names = append(names, name)
		}
	}
	// The timestamp format sorts chronologically.
	sort.Strings(names)
	for i, name := range names {
		names[i] = filepath.Join(folder, name)
	}
	return names, nil
}

// Prune deletes the oldest backups beyond keep.
func Prune(folder string, keep int) error {
	files, err := List(folder)
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	for len(files) > keep {
		if err := os.Remove(files[0]); err != nil {
			return fmt.Errorf("failed to remove old backup: %w", err)
		}
		files = files[1:]
	}
	return nil
}
