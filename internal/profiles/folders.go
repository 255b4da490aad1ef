package profiles

import (
	"fmt"
	"os"
	"path/filepath"
)

// ProfileFolder returns <base>/<name>, creating it if needed.
func (m *Manager) ProfileFolder(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	return ensureDir(m.folderPath(name))
}

// BackupFolder returns <base>/<name>/backups, creating it if needed.
func (m *Manager) BackupFolder(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	return ensureDir(filepath.Join(m.folderPath(name), backupsDir))
}

// AddonFolder returns <base>/addons, shared by all profiles.
func (m *Manager) AddonFolder() (string, error) {
	return ensureDir(filepath.Join(m.base, addonsDir))
}

// CollectionPath returns the collection file of a profile. The profile
// folder is created so the file can be opened straight away.
func (m *Manager) CollectionPath(name string) (string, error) {
	folder, err := m.ProfileFolder(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(folder, collectionFile), nil
}

func (m *Manager) folderPath(name string) string {
	return filepath.Join(m.base, name)
}

func ensureDir(path string) (string, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	return path, nil
}
