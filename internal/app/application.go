package app

import (
	"errors"
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"flashdesk/internal/addons"
	"flashdesk/internal/config"
	"flashdesk/internal/controllers"
	"flashdesk/internal/instance"
	"flashdesk/internal/logger"
	"flashdesk/internal/profiles"
	"flashdesk/internal/shutdown"
	"flashdesk/internal/views"
)

const (
	DefaultWindowWidth  = 720
	DefaultWindowHeight = 480
)

type Application struct {
	fyneApp    fyne.App
	window     fyne.Window
	cfg        *config.Config
	logger     *logger.ZerologAdapter
	profiles   *profiles.Manager
	lock       *instance.Lock
	addons     *addons.Registry
	controller *controllers.MainController
	view       *views.MainView
	handlers   *Handlers
	lifecycle  *Lifecycle
}

// NewApplication takes the single instance lock, opens the preferences
// store, loads add-ons and builds the main window. Errors are fatal startup
// errors such as profiles.ErrBaseUnwritable or instance.ErrAlreadyRunning.
func NewApplication(cfg *config.Config, log *logger.ZerologAdapter) (*Application, error) {
	log.Info("Application", "starting application", map[string]interface{}{
		"version": config.AppVersion,
		"base":    cfg.BaseDir,
	})

	lock, pm, err := openStorage(cfg.BaseDir, log)
	if err != nil {
		return nil, err
	}

	shutdowns := shutdown.NewManager(log)
	shutdowns.Register("instance lock", lock)
	shutdowns.Register("preferences", shutdown.Func(pm.Close))

	fyneapp.SetMetadata(fyne.AppMetadata{
		ID:      config.AppID,
		Name:    config.AppName,
		Version: config.AppVersion,
	})
	fyneApp := fyneapp.NewWithID(config.AppID)

	window := fyneApp.NewWindow(config.AppName)
	window.Resize(fyne.NewSize(DefaultWindowWidth, DefaultWindowHeight))
	window.CenterOnScreen()
	window.SetMaster()

	view := views.NewMainView(window)
	controller := controllers.NewMainController(cfg, pm, log)
	controller.SetMainView(view)
	controller.SetProgress(view.Progress())
	shutdowns.Register("profile", controller)

	application := &Application{
		fyneApp:    fyneApp,
		window:     window,
		cfg:        cfg,
		logger:     log,
		profiles:   pm,
		lock:       lock,
		controller: controller,
		view:       view,
		lifecycle:  NewLifecycle(shutdowns, log),
	}

	if cfg.Addons.Enabled {
		application.loadAddons()
	}

	application.handlers = NewHandlers(application)
	application.setupHandlers()
	application.setupMenus()

	log.Info("Application", "initialization complete", nil)
	return application, nil
}

// openStorage takes the pid lock before the preferences store is touched,
// so a refused second instance never creates or writes prefs.db.
func openStorage(base string, log logger.Logger) (*instance.Lock, *profiles.Manager, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", profiles.ErrBaseUnwritable, err)
	}

	lock, err := instance.Acquire(base)
	if err != nil {
		return nil, nil, err
	}

	pm, err := profiles.Open(base, log)
	if err != nil {
		lock.Release()
		return nil, nil, err
	}
	return lock, pm, nil
}

// Lock is the held single instance lock.
func (a *Application) Lock() *instance.Lock {
	return a.lock
}

func (a *Application) loadAddons() {
	dir, err := a.profiles.AddonFolder()
	if err != nil {
		a.logger.Error("Application", err, map[string]interface{}{"step": "addon folder"})
		return
	}

	out := a.logger.Zerolog().With().Str("component", "addon").Logger()
	registry, err := addons.Load(dir, a.profiles.Meta.DisabledAddons, out, a.logger)
	if err != nil {
		a.logger.Error("Application", err, map[string]interface{}{"step": "load addons"})
		return
	}
	for name, err := range registry.Failed {
		a.logger.Warning("Application", "add-on failed to load", map[string]interface{}{
			"addon": name,
			"error": err.Error(),
		})
	}

	a.addons = registry
	a.controller.UseHooks(registry)
}

func (a *Application) setupHandlers() {
	a.view.SetImportHandler(a.handlers.HandleImport)
	a.view.SetExportHandler(a.handlers.HandleExport)
	a.view.SetBackupHandler(a.handlers.HandleBackup)
	a.view.SetProfileHandler(a.handlers.HandleSwitchProfile)
}

// Run shows the window, runs the first run and profile prompts and blocks
// until the application quits.
func (a *Application) Run() error {
	a.lifecycle.Listen(a.fyneApp.Quit)

	a.window.SetCloseIntercept(func() {
		a.logger.Info("Application", "shutdown requested", nil)
		a.saveGeometry()
		a.lifecycle.Shutdown()
		a.window.Close()
	})

	a.window.Show()
	a.startup()

	a.logger.Info("Application", "GUI displayed", nil)
	a.fyneApp.Run()

	a.lifecycle.Shutdown()
	return nil
}

// startup asks for the interface language on first run, then opens the
// configured profile or shows the chooser.
func (a *Application) startup() {
	if a.controller.NeedsLanguage() {
		views.NewLanguagePicker(a.window, a.controller.SuggestedLanguage(), func(code string) {
			if err := a.controller.SetLanguage(code); err != nil {
				a.view.ShowError("Language", err)
			}
			a.chooseProfile()
		}).Show()
		return
	}
	a.chooseProfile()
}

func (a *Application) chooseProfile() {
	if a.cfg.Profile == "" {
		a.handlers.HandleSwitchProfile()
		return
	}

	go func() {
		ok, err := a.controller.OpenProfile(a.cfg.Profile, "")
		if err != nil || !ok {
			if err != nil {
				a.logger.Warning("Application", "cannot open configured profile", map[string]interface{}{
					"profile": a.cfg.Profile,
					"error":   err.Error(),
				})
			}
			fyne.Do(a.handlers.HandleSwitchProfile)
			return
		}
		a.onProfileOpened(a.cfg.Profile)
	}()
}

func (a *Application) onProfileOpened(name string) {
	if geom := a.controller.Geometry(); geom != nil && geom.Width > 0 && geom.Height > 0 {
		a.view.Resize(geom.Width, geom.Height)
	}
	a.view.UpdateStatus(fmt.Sprintf("Opened %s", name))
}

func (a *Application) saveGeometry() {
	size := a.view.Size()
	a.controller.SaveGeometry(size.Width, size.Height)
}

// ShowFatal shows err in a window of its own and blocks until it is closed.
// It is used for errors that happen before the main window exists.
func ShowFatal(err error) {
	fyneApp := fyneapp.NewWithID(config.AppID)
	window := fyneApp.NewWindow(config.AppName)
	window.SetContent(fatalContent(fatalMessage(err), fyneApp.Quit))
	window.Resize(fyne.NewSize(420, 160))
	window.CenterOnScreen()
	window.ShowAndRun()
}

func fatalMessage(err error) string {
	switch {
	case errors.Is(err, instance.ErrAlreadyRunning):
		return fmt.Sprintf("%s is already running. If it is not, remove the pid file in the storage folder and try again.", config.AppName)
	case errors.Is(err, profiles.ErrBaseUnwritable):
		return fmt.Sprintf("%s could not create or write to its storage folder.\n\n%v", config.AppName, err)
	default:
		return fmt.Sprintf("%s could not start.\n\n%v", config.AppName, err)
	}
}
