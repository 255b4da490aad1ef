package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Toolbar represents the main application toolbar
type Toolbar struct {
	container     *fyne.Container
	importButton  *widget.Button
	exportButton  *widget.Button
	backupButton  *widget.Button
	profileButton *widget.Button

	// Event handlers
	importHandler  func()
	exportHandler  func()
	backupHandler  func()
	profileHandler func()
}

// NewToolbar creates a new toolbar component
func NewToolbar() *Toolbar {
	toolbar := &Toolbar{}
	toolbar.createComponents()
	toolbar.buildLayout()
	toolbar.setupEventHandlers()
	return toolbar
}

// createComponents initializes all toolbar components
func (t *Toolbar) createComponents() {
	t.importButton = widget.NewButtonWithIcon("Import", theme.FolderOpenIcon(), nil)
	t.importButton.Importance = widget.HighImportance

	t.exportButton = widget.NewButtonWithIcon("Export", theme.DocumentSaveIcon(), nil)
	t.exportButton.Importance = widget.HighImportance

	t.backupButton = widget.NewButtonWithIcon("Back Up Now", theme.StorageIcon(), nil)
	t.profileButton = widget.NewButtonWithIcon("Switch Profile", theme.AccountIcon(), nil)

	t.EnableCollectionOperations(false)
}

// buildLayout constructs the toolbar layout
func (t *Toolbar) buildLayout() {
	t.container = container.NewHBox(
		t.importButton,
		t.exportButton,
		widget.NewSeparator(),
		t.backupButton,
		widget.NewSeparator(),
		t.profileButton,
	)
}

// setupEventHandlers connects button events
func (t *Toolbar) setupEventHandlers() {
	t.importButton.OnTapped = func() {
		if t.importHandler != nil {
			t.importHandler()
		}
	}

	t.exportButton.OnTapped = func() {
		if t.exportHandler != nil {
			t.exportHandler()
		}
	}

	t.backupButton.OnTapped = func() {
		if t.backupHandler != nil {
			t.backupHandler()
		}
	}

	t.profileButton.OnTapped = func() {
		if t.profileHandler != nil {
			t.profileHandler()
		}
	}
}

// Event handler setters

func (t *Toolbar) SetImportHandler(handler func())  { t.importHandler = handler }
func (t *Toolbar) SetExportHandler(handler func())  { t.exportHandler = handler }
func (t *Toolbar) SetBackupHandler(handler func())  { t.backupHandler = handler }
func (t *Toolbar) SetProfileHandler(handler func()) { t.profileHandler = handler }

// EnableCollectionOperations enables the buttons that need an open
// collection. Call it on the UI goroutine.
func (t *Toolbar) EnableCollectionOperations(enabled bool) {
	for _, b := range []*widget.Button{t.importButton, t.exportButton, t.backupButton} {
		if enabled {
			b.Enable()
		} else {
			b.Disable()
		}
	}
}

// GetContainer returns the toolbar container
func (t *Toolbar) GetContainer() *fyne.Container {
	return t.container
}
