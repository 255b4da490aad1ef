package app

import (
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"

	"flashdesk/internal/config"
	"flashdesk/internal/views"
)

type Handlers struct {
	app *Application
}

func NewHandlers(a *Application) *Handlers {
	return &Handlers{app: a}
}

func (h *Handlers) HandleImport() {
	ctrl, err := h.app.controller.NewImport()
	if err != nil {
		h.app.view.ShowError("Import", err)
		return
	}
	views.StartImport(h.app.view, ctrl, func() {
		h.app.view.UpdateStatus("Import finished")
	})
}

func (h *Handlers) HandleExport() {
	ctrl, err := h.app.controller.NewExport()
	if err != nil {
		h.app.view.ShowError("Export", err)
		return
	}
	d, err := views.NewExportDialog(h.app.view, ctrl, h.app.fyneApp.Preferences())
	if err != nil {
		h.app.view.ShowError("Export", err)
		return
	}
	d.Show()
}

func (h *Handlers) HandleBackup() {
	go func() {
		path, err := h.app.controller.BackupNow()
		if err != nil {
			h.app.view.ShowError("Backup", err)
			return
		}
		h.app.view.UpdateStatus(fmt.Sprintf("Backup written to %s", filepath.Base(path)))
	}()
}

// HandleSwitchProfile saves and closes the open profile, then shows the
// profile chooser. Must run on the UI goroutine.
func (h *Handlers) HandleSwitchProfile() {
	h.app.saveGeometry()
	go func() {
		if err := h.app.controller.CloseProfile(); err != nil {
			h.app.view.ShowError("Profiles", err)
		}
		fyne.Do(func() {
			views.NewProfileDialog(h.app.window, h.app.controller, h.app.onProfileOpened, h.app.quit).Show()
		})
	}()
}

func (h *Handlers) HandleAbout() {
	h.app.view.ShowAboutDialog(config.AppName, config.AppVersion, "Flashcard collections, profiles and import/export.")
}

func (a *Application) quit() {
	a.lifecycle.Shutdown()
	a.fyneApp.Quit()
}
