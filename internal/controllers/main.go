package controllers

import (
	"errors"
	"fmt"
	"sync"

	"flashdesk/internal/backup"
	"flashdesk/internal/collection"
	"flashdesk/internal/config"
	"flashdesk/internal/exporting"
	"flashdesk/internal/importing"
	"flashdesk/internal/lang"
	"flashdesk/internal/logger"
	"flashdesk/internal/profiles"
)

const (
	EventProfileLoaded = "profile_loaded"
	EventProfileClosed = "profile_closed"
	EventImported      = "imported"
	EventExported      = "exported"
)

var (
	ErrNoProfile   = errors.New("no profile is open")
	ErrProfileOpen = errors.New("profile is open")
)

// MainView is what the controller needs from the main window.
type MainView interface {
	ShowError(title string, err error)
	ShowInfo(title, message string)
	UpdateStatus(status string)
	SetProfileName(name string)
	SetCollectionInfo(notes int64, decks int)
	SetDecks(names []string)
}

// EventHandler represents a function that handles application events
type EventHandler func(data interface{}) error

// ImportedEvent is the payload of EventImported.
type ImportedEvent struct {
	Path  string
	Total int
}

// ExportedEvent is the payload of EventExported.
type ExportedEvent struct {
	Path  string
	Count int
}

// MainController owns the open profile and its collection.
type MainController struct {
	cfg      *config.Config
	profiles *profiles.Manager
	logger   logger.Logger

	mainView MainView
	progress Progress

	mu        sync.RWMutex
	col       *collection.Store
	scheduler *backup.Scheduler

	eventHandlers map[string][]EventHandler
	eventMu       sync.RWMutex
}

func NewMainController(cfg *config.Config, pm *profiles.Manager, log logger.Logger) *MainController {
	if log == nil {
		log = logger.Nop()
	}
	mc := &MainController{
		cfg:           cfg,
		profiles:      pm,
		logger:        log,
		eventHandlers: make(map[string][]EventHandler),
	}
	mc.initializeEventHandlers()
	return mc
}

// SetMainView associates the main view with this controller
func (mc *MainController) SetMainView(view MainView) {
	mc.mainView = view
}

// SetProgress sets the progress dialog used by export and import.
func (mc *MainController) SetProgress(p Progress) {
	mc.progress = p
}

// UseHooks forwards application events to h.
func (mc *MainController) UseHooks(h Hooks) {
	mc.addEventListener(EventProfileLoaded, func(data interface{}) error {
		h.ProfileLoaded(data.(string))
		return nil
	})
	mc.addEventListener(EventImported, func(data interface{}) error {
		e := data.(ImportedEvent)
		h.Imported(e.Path, e.Total)
		return nil
	})
	mc.addEventListener(EventExported, func(data interface{}) error {
		e := data.(ExportedEvent)
		h.Exported(e.Path, e.Count)
		return nil
	})
}

// Profiles lists the profile names for the chooser.
func (mc *MainController) Profiles() ([]string, error) {
	return mc.profiles.Profiles()
}

// ProfileName is the open profile, or "".
func (mc *MainController) ProfileName() string {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if mc.col == nil {
		return ""
	}
	return mc.profiles.Name()
}

// NeedsLanguage reports whether the first run language picker must run.
func (mc *MainController) NeedsLanguage() bool {
	return mc.profiles.NeedsLanguage()
}

// SuggestedLanguage is the picker's preselected entry, from the OS locale.
func (mc *MainController) SuggestedLanguage() string {
	return lang.DefaultFor(lang.SystemLocale())
}

// SetLanguage stores the language chosen in the picker.
func (mc *MainController) SetLanguage(code string) error {
	if lang.Index(code) < 0 {
		return fmt.Errorf("unsupported language %q", code)
	}
	return mc.profiles.SetDefaultLanguage(code)
}

// OpenProfile closes the current profile, then loads name and opens its
// collection. A wrong password returns false and no error.
func (mc *MainController) OpenProfile(name, password string) (bool, error) {
	if err := mc.CloseProfile(); err != nil {
		mc.logger.Error("profiles", err, map[string]interface{}{"profile": mc.profiles.Name()})
	}

	ok, err := mc.profiles.Load(name, password)
	if err != nil || !ok {
		return ok, err
	}

	path, err := mc.profiles.CollectionPath(name)
	if err != nil {
		return false, err
	}
	col, err := collection.Open(path)
	if err != nil {
		return false, err
	}

	folder, err := mc.profiles.BackupFolder(name)
	if err != nil {
		col.Close()
		return false, err
	}
	sched := backup.NewScheduler(col, folder, mc.profiles.Profile().NumBackups, mc.logger)
	if err := sched.Start(mc.cfg.Backup.Schedule); err != nil {
		mc.logger.Warning("backup", "periodic backups disabled", map[string]interface{}{
			"error": err.Error(),
		})
	}

	mc.mu.Lock()
	mc.col = col
	mc.scheduler = sched
	mc.mu.Unlock()

	mc.logger.Info("profiles", "profile opened", map[string]interface{}{
		"profile":    name,
		"collection": path,
	})
	if mc.mainView != nil {
		mc.mainView.SetProfileName(name)
	}
	mc.emitEvent(EventProfileLoaded, name)
	return true, nil
}

// CloseProfile stops backups, closes the collection and saves the profile.
// It does nothing when no profile is open.
func (mc *MainController) CloseProfile() error {
	mc.mu.Lock()
	col, sched := mc.col, mc.scheduler
	mc.col, mc.scheduler = nil, nil
	mc.mu.Unlock()

	if col == nil {
		return nil
	}
	name := mc.profiles.Name()

	var errs []error
	sched.Stop()
	if mc.cfg.Backup.OnClose {
		if _, err := sched.RunNow(); err != nil {
			errs = append(errs, fmt.Errorf("backup on close: %w", err))
		}
	}
	if err := col.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := mc.profiles.Save(); err != nil {
		errs = append(errs, err)
	}

	mc.logger.Info("profiles", "profile closed", map[string]interface{}{"profile": name})
	mc.emitEvent(EventProfileClosed, name)
	return errors.Join(errs...)
}

// CreateProfile adds an empty profile.
func (mc *MainController) CreateProfile(name string) error {
	return mc.profiles.Create(name)
}

// RenameProfile renames a profile that is not open.
func (mc *MainController) RenameProfile(oldName, newName string) error {
	if mc.isOpen(oldName) {
		return fmt.Errorf("%w: %s", ErrProfileOpen, oldName)
	}
	return mc.profiles.Rename(oldName, newName)
}

// RemoveProfile deletes a profile that is not open, with its folder.
func (mc *MainController) RemoveProfile(name string) error {
	if mc.isOpen(name) {
		return fmt.Errorf("%w: %s", ErrProfileOpen, name)
	}
	return mc.profiles.Remove(name)
}

// SetPassword changes the password of a profile. Empty clears it.
func (mc *MainController) SetPassword(name, password string) error {
	return mc.profiles.SetPassword(name, password)
}

func (mc *MainController) isOpen(name string) bool {
	return name != "" && mc.ProfileName() == name
}

// Geometry is the saved main window size of the open profile, or nil.
func (mc *MainController) Geometry() *profiles.WindowGeometry {
	if prof := mc.profiles.Profile(); prof != nil {
		return prof.MainWindowGeom
	}
	return nil
}

// SaveGeometry records the main window size; it is written on close.
func (mc *MainController) SaveGeometry(width, height float32) {
	if prof := mc.profiles.Profile(); prof != nil {
		prof.MainWindowGeom = &profiles.WindowGeometry{Width: width, Height: height}
	}
}

// Collection returns the open collection.
func (mc *MainController) Collection() (collection.Collection, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if mc.col == nil {
		return nil, ErrNoProfile
	}
	return mc.col, nil
}

// NewExport prepares an export dialog controller for the open collection.
func (mc *MainController) NewExport() (*ExportController, error) {
	col, err := mc.Collection()
	if err != nil {
		return nil, err
	}
	return NewExportController(col, exporting.DefaultFormats(), mc.progress, mc, mc.logger), nil
}

// NewImport prepares an import controller for the open collection.
func (mc *MainController) NewImport() (*ImportController, error) {
	col, err := mc.Collection()
	if err != nil {
		return nil, err
	}
	return NewImportController(col, importing.DefaultFormats(), mc.progress, mc, mc.logger), nil
}

// BackupNow writes a backup of the open collection.
func (mc *MainController) BackupNow() (string, error) {
	mc.mu.RLock()
	sched := mc.scheduler
	mc.mu.RUnlock()
	if sched == nil {
		return "", ErrNoProfile
	}
	return sched.RunNow()
}

// ProfileLoaded, Imported and Exported let dialog controllers report back
// through the event system.
func (mc *MainController) ProfileLoaded(name string) { mc.emitEvent(EventProfileLoaded, name) }
func (mc *MainController) Imported(path string, total int) {
	mc.emitEvent(EventImported, ImportedEvent{Path: path, Total: total})
}
func (mc *MainController) Exported(path string, count int) {
	mc.emitEvent(EventExported, ExportedEvent{Path: path, Count: count})
}

// Event system methods

// initializeEventHandlers sets up default event handlers
func (mc *MainController) initializeEventHandlers() {
	mc.addEventListener(EventProfileLoaded, mc.onCollectionChanged)
	mc.addEventListener(EventImported, mc.onCollectionChanged)
	mc.addEventListener(EventProfileClosed, mc.onProfileClosed)
}

// addEventListener adds an event handler for a specific event type
func (mc *MainController) addEventListener(eventType string, handler EventHandler) {
	mc.eventMu.Lock()
	defer mc.eventMu.Unlock()

	mc.eventHandlers[eventType] = append(mc.eventHandlers[eventType], handler)
}

// emitEvent runs the handlers for eventType in registration order. Errors
// are reported but do not stop later handlers.
func (mc *MainController) emitEvent(eventType string, data interface{}) {
	mc.eventMu.RLock()
	handlers := mc.eventHandlers[eventType]
	mc.eventMu.RUnlock()

	for _, h := range handlers {
		if err := h(data); err != nil {
			mc.handleError(fmt.Sprintf("Event handler error (%s)", eventType), err)
		}
	}
}

// Event handlers

func (mc *MainController) onCollectionChanged(interface{}) error {
	col, err := mc.Collection()
	if err != nil {
		return nil
	}
	notes, err := col.NoteCount()
	if err != nil {
		return err
	}
	decks, err := col.DeckNames()
	if err != nil {
		return err
	}
	if mc.mainView != nil {
		mc.mainView.SetCollectionInfo(notes, len(decks))
		mc.mainView.SetDecks(decks)
	}
	return nil
}

func (mc *MainController) onProfileClosed(interface{}) error {
	if mc.mainView != nil {
		mc.mainView.SetProfileName("")
		mc.mainView.SetCollectionInfo(0, 0)
		mc.mainView.SetDecks(nil)
	}
	return nil
}

// handleError logs err and shows it in the main window.
func (mc *MainController) handleError(title string, err error) {
	mc.logger.Error("MainController", err, map[string]interface{}{"title": title})
	if mc.mainView != nil {
		mc.mainView.ShowError(title, err)
	}
}

// Shutdown closes the open profile when the application exits.
func (mc *MainController) Shutdown() error {
	return mc.CloseProfile()
}
