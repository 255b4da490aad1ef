package app

import (
	"fyne.io/fyne/v2"
)

func (a *Application) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Switch Profile", a.handlers.HandleSwitchProfile),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import...", a.handlers.HandleImport),
		fyne.NewMenuItem("Export...", a.handlers.HandleExport),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Back Up Now", a.handlers.HandleBackup),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", a.quit),
	)
	fileMenu.Items[len(fileMenu.Items)-1].IsQuit = true

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", a.handlers.HandleAbout),
	)

	a.window.SetMainMenu(fyne.NewMainMenu(fileMenu, helpMenu))
}
