// Package profiles keeps per user preferences in <base>/prefs.db and owns the
// folder layout under the base directory.
//
// Every row of the profiles table holds one YAML record. The row named
// GlobalName holds Meta and is never listed as a profile.
package profiles

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"flashdesk/internal/logger"
)

const (
	GlobalName         = "_global"
	DefaultProfileName = "User 1"

	prefsFile      = "prefs.db"
	addonsDir      = "addons"
	backupsDir     = "backups"
	collectionFile = "collection.flashdb"
	pidFile        = "pid"
)

// reservedNames live next to the profile folders in base and can never be
// profile names.
var reservedNames = []string{
	prefsFile, prefsFile + "-journal", prefsFile + "-wal", prefsFile + "-shm",
	addonsDir, pidFile,
}

var (
	ErrBaseUnwritable  = errors.New("cannot write to the storage folder")
	ErrProfileNotFound = errors.New("profile does not exist")
	ErrProfileExists   = errors.New("profile already exists")
	ErrInvalidName     = errors.New("invalid profile name")
)

// Manager is the open preferences store plus the active profile.
type Manager struct {
	db     *sql.DB
	base   string
	logger logger.Logger
	now    func() time.Time

	// Meta is loaded on Open and written by Save.
	Meta Meta

	name    string
	profile *Profile
	created bool
}

// Open creates base if needed and opens its preferences store. A new store
// gets the global record and the profile "User 1".
func Open(base string, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.Nop()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBaseUnwritable, err)
	}

	path := filepath.Join(base, prefsFile)
	_, statErr := os.Stat(path)
	isNew := errors.Is(statErr, os.ErrNotExist)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", prefsFile, err)
	}
	db.SetMaxOpenConns(1)

	m := &Manager{db: db, base: base, logger: log, now: time.Now}

	if _, err := db.Exec(`create table if not exists profiles
(name text primary key, data text not null)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create profiles table: %w", err)
	}

	if isNew {
		if err := m.initStore(); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("profiles", "created profile store", map[string]interface{}{
			"path": path,
		})
		return m, nil
	}

	if err := m.loadMeta(); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

func (m *Manager) initStore() error {
	m.Meta = DefaultMeta(m.now())
	data, err := yaml.Marshal(m.Meta)
	if err != nil {
		return err
	}
	if _, err := m.db.Exec("insert into profiles values (?, ?)", GlobalName, string(data)); err != nil {
		return fmt.Errorf("failed to store global record: %w", err)
	}
	m.created = true
	return m.Create(DefaultProfileName)
}

func (m *Manager) loadMeta() error {
	var data string
	err := m.db.QueryRow("select data from profiles where name = ?", GlobalName).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		m.logger.Warning("profiles", "global record missing, recreating", nil)
		return m.initStore()
	}
	if err != nil {
		return fmt.Errorf("failed to read global record: %w", err)
	}
	if err := yaml.Unmarshal([]byte(data), &m.Meta); err != nil {
		return fmt.Errorf("failed to decode global record: %w", err)
	}
	return nil
}

func (m *Manager) Close() error {
	return m.db.Close()
}

// Created reports whether Open had to create the store.
func (m *Manager) Created() bool { return m.created }

func (m *Manager) Base() string { return m.base }

// Name is the active profile, empty when none is loaded.
func (m *Manager) Name() string { return m.name }

// Profile is the active profile record, nil when none is loaded.
func (m *Manager) Profile() *Profile { return m.profile }

// Profiles returns the sorted profile names.
func (m *Manager) Profiles() ([]string, error) {
	rows, err := m.db.Query("select name from profiles where name != ?", GlobalName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Load makes name the active profile. It returns false, leaving the active
// profile as it was, when the profile has a password and password does not
// match. Loading GlobalName reloads Meta only.
func (m *Manager) Load(name, password string) (bool, error) {
	if name == GlobalName {
		if err := m.loadMeta(); err != nil {
			return false, err
		}
		return true, nil
	}

	prof, err := m.read(name)
	if err != nil {
		return false, err
	}
	if prof.Key != "" && !m.checkPassword(prof.Key, password) {
		m.logger.Warning("profiles", "wrong password", map[string]interface{}{
			"profile": name,
		})
		return false, nil
	}

	m.name = name
	m.profile = prof
	m.logger.Info("profiles", "profile loaded", map[string]interface{}{
		"profile": name,
	})
	return true, nil
}

// Save writes the active profile, if any, and Meta in one transaction.
func (m *Manager) Save() error {
	meta, err := yaml.Marshal(m.Meta)
	if err != nil {
		return err
	}

	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if m.profile != nil {
		data, err := yaml.Marshal(m.profile)
		if err != nil {
			return err
		}
		if _, err := tx.Exec("update profiles set data = ? where name = ?", string(data), m.name); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
	}
	if _, err := tx.Exec("update profiles set data = ? where name = ?", string(meta), GlobalName); err != nil {
		return fmt.Errorf("failed to save global record: %w", err)
	}
	return tx.Commit()
}

// Create adds a profile with default preferences and the default language.
func (m *Manager) Create(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	exists, err := m.exists(name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrProfileExists, name)
	}

	prof := DefaultProfile(m.now())
	prof.Lang = m.Meta.DefaultLang
	data, err := yaml.Marshal(prof)
	if err != nil {
		return err
	}
	if _, err := m.db.Exec("insert into profiles values (?, ?)", name, string(data)); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// Remove deletes the folder of the named profile and its record.
func (m *Manager) Remove(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	exists, err := m.exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}

	if err := os.RemoveAll(m.folderPath(name)); err != nil {
		return fmt.Errorf("failed to remove profile folder: %w", err)
	}
	if _, err := m.db.Exec("delete from profiles where name = ?", name); err != nil {
		return fmt.Errorf("failed to remove profile: %w", err)
	}
	if m.name == name {
		m.name = ""
		m.profile = nil
	}
	m.logger.Info("profiles", "profile removed", map[string]interface{}{
		"profile": name,
	})
	return nil
}

// Rename renames the record and folder of oldName. The record change is
// rolled back when the folder cannot be moved.
func (m *Manager) Rename(oldName, newName string) error {
	if err := validName(newName); err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	exists, err := m.exists(newName)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrProfileExists, newName)
	}

	oldFolder := m.folderPath(oldName)
	newFolder := m.folderPath(newName)

	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec("update profiles set name = ? where name = ?", newName, oldName)
	if err != nil {
		return fmt.Errorf("failed to rename profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, oldName)
	}

	moved := false
	if _, err := os.Stat(oldFolder); err == nil {
		// An empty leftover folder with the new name is replaced.
		if err := os.Remove(newFolder); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to rename profile folder: %w", err)
		}
		if err := os.Rename(oldFolder, newFolder); err != nil {
			return fmt.Errorf("failed to rename profile folder: %w", err)
		}
		moved = true
	}

	if err := tx.Commit(); err != nil {
		if moved {
			_ = os.Rename(newFolder, oldFolder)
		}
		return err
	}

	if m.name == oldName {
		m.name = newName
	}
	m.logger.Info("profiles", "profile renamed", map[string]interface{}{
		"from": oldName,
		"to":   newName,
	})
	return nil
}

// SetPassword protects the named profile. An empty password removes the
// protection.
func (m *Manager) SetPassword(name, password string) error {
	prof, err := m.read(name)
	if err != nil {
		return err
	}
	prof.Key = ""
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword(m.salted(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		prof.Key = string(hash)
	}
	if err := m.write(name, prof); err != nil {
		return err
	}
	if m.name == name && m.profile != nil {
		m.profile.Key = prof.Key
	}
	return nil
}

// NeedsLanguage reports whether the first run language prompt is due.
func (m *Manager) NeedsLanguage() bool {
	return m.Meta.DefaultLang == ""
}

// SetDefaultLanguage stores code as the installation language and gives it
// to every profile that has none yet.
func (m *Manager) SetDefaultLanguage(code string) error {
	if code == "" {
		return errors.New("language code is empty")
	}
	m.Meta.DefaultLang = code

	names, err := m.Profiles()
	if err != nil {
		return err
	}
	for _, name := range names {
		prof, err := m.read(name)
		if err != nil {
			return err
		}
		if prof.Lang != "" {
			continue
		}
		prof.Lang = code
		if err := m.write(name, prof); err != nil {
			return err
		}
		if m.name == name && m.profile != nil {
			m.profile.Lang = code
		}
	}

	meta, err := yaml.Marshal(m.Meta)
	if err != nil {
		return err
	}
	if _, err := m.db.Exec("update profiles set data = ? where name = ?", string(meta), GlobalName); err != nil {
		return fmt.Errorf("failed to save global record: %w", err)
	}
	return nil
}

func (m *Manager) read(name string) (*Profile, error) {
	var data string
	err := m.db.QueryRow("select data from profiles where name = ?", name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) || name == GlobalName {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	var prof Profile
	if err := yaml.Unmarshal([]byte(data), &prof); err != nil {
		return nil, fmt.Errorf("failed to decode profile %s: %w", name, err)
	}
	return &prof, nil
}

func (m *Manager) write(name string, prof *Profile) error {
	data, err := yaml.Marshal(prof)
	if err != nil {
		return err
	}
	if _, err := m.db.Exec("update profiles set data = ? where name = ?", string(data), name); err != nil {
		return fmt.Errorf("failed to save profile %s: %w", name, err)
	}
	return nil
}

func (m *Manager) exists(name string) (bool, error) {
	var count int
	if err := m.db.QueryRow("select count(*) from profiles where name = ?", name).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (m *Manager) salted(password string) []byte {
	return []byte(strconv.FormatInt(m.Meta.ID, 10) + password)
}

func (m *Manager) checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), m.salted(password)) == nil
}

func validName(name string) error {
	switch {
	case strings.TrimSpace(name) == "", name == GlobalName, name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\:*?"<>|`):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	// Windows drops trailing dots and spaces, and folder names are case
	// insensitive on Windows and macOS.
	trimmed := strings.TrimRight(name, ". ")
	for _, reserved := range reservedNames {
		if strings.EqualFold(trimmed, reserved) {
			return fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
		}
	}
	return nil
}
