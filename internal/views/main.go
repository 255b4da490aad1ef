package views

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"flashdesk/internal/config"
	"flashdesk/internal/views/components"
)

// NoticeDuration is how long transient notices stay up.
const NoticeDuration = 3 * time.Second

// MainView is the main window: toolbar, deck list and status bar.
type MainView struct {
	// UI Components
	window        fyne.Window
	mainContainer *fyne.Container
	toolbar       *components.Toolbar
	deckList      *components.DeckList
	statusBar     *components.StatusBar
	progress      *components.ProgressDialog

	// Event handlers - connected to the app
	importHandler  func()
	exportHandler  func()
	backupHandler  func()
	profileHandler func()
}

// NewMainView creates a new main view
func NewMainView(window fyne.Window) *MainView {
	view := &MainView{
		window: window,
	}

	view.initializeComponents()
	view.buildLayout()
	view.setupEventHandlers()

	return view
}

// initializeComponents creates all UI components
func (mv *MainView) initializeComponents() {
	mv.toolbar = components.NewToolbar()
	mv.deckList = components.NewDeckList()
	mv.statusBar = components.NewStatusBar()
	mv.progress = components.NewProgressDialog(mv.window)
}

// buildLayout constructs the main layout
func (mv *MainView) buildLayout() {
	mv.mainContainer = container.NewBorder(
		mv.toolbar.GetContainer(),
		mv.statusBar.GetContainer(),
		nil,
		nil,
		mv.deckList.GetContainer(),
	)

	mv.window.SetContent(mv.mainContainer)
}

// setupEventHandlers connects internal component events
func (mv *MainView) setupEventHandlers() {
	mv.toolbar.SetImportHandler(func() {
		if mv.importHandler != nil {
			mv.importHandler()
		}
	})
	mv.toolbar.SetExportHandler(func() {
		if mv.exportHandler != nil {
			mv.exportHandler()
		}
	})
	mv.toolbar.SetBackupHandler(func() {
		if mv.backupHandler != nil {
			mv.backupHandler()
		}
	})
	mv.toolbar.SetProfileHandler(func() {
		if mv.profileHandler != nil {
			mv.profileHandler()
		}
	})
}

// Event handler setters

func (mv *MainView) SetImportHandler(handler func())  { mv.importHandler = handler }
func (mv *MainView) SetExportHandler(handler func())  { mv.exportHandler = handler }
func (mv *MainView) SetBackupHandler(handler func())  { mv.backupHandler = handler }
func (mv *MainView) SetProfileHandler(handler func()) { mv.profileHandler = handler }

// UI update methods - safe to call from any goroutine

// UpdateStatus updates the status bar message
func (mv *MainView) UpdateStatus(status string) {
	fyne.Do(func() {
		mv.statusBar.SetStatus(status)
	})
}

// SetProfileName shows the open profile in the title and status bar, and
// enables the collection buttons when a profile is open.
func (mv *MainView) SetProfileName(name string) {
	fyne.Do(func() {
		mv.statusBar.SetProfile(name)
		mv.toolbar.EnableCollectionOperations(name != "")
		if name == "" {
			mv.window.SetTitle(config.AppName)
		} else {
			mv.window.SetTitle(fmt.Sprintf("%s - %s", name, config.AppName))
		}
	})
}

// SetCollectionInfo updates the note and deck counts
func (mv *MainView) SetCollectionInfo(notes int64, decks int) {
	fyne.Do(func() {
		mv.statusBar.SetCollectionInfo(notes, decks)
	})
}

// SetDecks updates the deck list
func (mv *MainView) SetDecks(names []string) {
	fyne.Do(func() {
		mv.deckList.SetDecks(names)
	})
}

// ShowError displays an error dialog
func (mv *MainView) ShowError(title string, err error) {
	fyne.Do(func() {
		dialog.ShowError(err, mv.window)
	})
}

// ShowInfo displays an information dialog
func (mv *MainView) ShowInfo(title, message string) {
	fyne.Do(func() {
		dialog.ShowInformation(title, message, mv.window)
	})
}

// ShowConfirm displays a confirmation dialog
func (mv *MainView) ShowConfirm(title, message string, callback func(bool)) {
	fyne.Do(func() {
		dialog.ShowConfirm(title, message, callback, mv.window)
	})
}

// ShowNotice shows message in a small pop-up that hides itself after
// NoticeDuration.
func (mv *MainView) ShowNotice(message string) {
	fyne.Do(func() {
		popup := widget.NewPopUp(widget.NewLabel(message), mv.window.Canvas())
		size := mv.window.Canvas().Size()
		ms := popup.MinSize()
		popup.ShowAtPosition(fyne.NewPos((size.Width-ms.Width)/2, size.Height-ms.Height*2))
		time.AfterFunc(NoticeDuration, func() {
			fyne.Do(popup.Hide)
		})
	})
}

// ShowFileOpen asks for a file to read. The callback gets the local path,
// or "" when the user cancels.
func (mv *MainView) ShowFileOpen(extensions []string, callback func(path string, err error)) {
	fyne.Do(func() {
		d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil || reader == nil {
				callback("", err)
				return
			}
			path := reader.URI().Path()
			reader.Close()
			callback(path, nil)
		}, mv.window)
		if len(extensions) > 0 {
			d.SetFilter(storage.NewExtensionFileFilter(extensions))
		}
		d.Show()
	})
}

// ShowFileSave asks for a file to write, starting in dir when it is set.
// The callback gets the local path, or "" when the user cancels.
func (mv *MainView) ShowFileSave(filename, dir string, callback func(path string, err error)) {
	fyne.Do(func() {
		d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
			if err != nil || writer == nil {
				callback("", err)
				return
			}
			path := writer.URI().Path()
			writer.Close()
			callback(path, nil)
		}, mv.window)
		d.SetFileName(filename)
		if dir != "" {
			if uri, err := storage.ListerForURI(storage.NewFileURI(dir)); err == nil {
				d.SetLocation(uri)
			}
		}
		d.Show()
	})
}

// Progress is the modal progress dialog shared by long operations.
func (mv *MainView) Progress() *components.ProgressDialog {
	return mv.progress
}

// GetWindow returns the main window
func (mv *MainView) GetWindow() fyne.Window {
	return mv.window
}

// Show displays the view
func (mv *MainView) Show() {
	mv.window.Show()
}

// Close closes the view
func (mv *MainView) Close() {
	fyne.Do(func() {
		mv.window.Close()
	})
}

// Resize changes the window size
func (mv *MainView) Resize(width, height float32) {
	fyne.Do(func() {
		mv.window.Resize(fyne.NewSize(width, height))
	})
}

// Size returns the current window content size
func (mv *MainView) Size() fyne.Size {
	return mv.window.Canvas().Size()
}

// Center centers the window on screen
func (mv *MainView) Center() {
	fyne.Do(func() {
		mv.window.CenterOnScreen()
	})
}

// ShowAboutDialog displays application information
func (mv *MainView) ShowAboutDialog(appName, version, description string) {
	fyne.Do(func() {
		content := container.NewVBox(
			widget.NewLabel(appName),
			widget.NewLabel(fmt.Sprintf("Version: %s", version)),
			widget.NewLabel(""),
			widget.NewLabel(description),
		)

		dialog.ShowCustom("About", "Close", content, mv.window)
	})
}
