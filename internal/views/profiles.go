package views

import (
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"flashdesk/internal/lang"
)

var (
	errInvalidPassword = errors.New("Invalid password.")
	errLastProfile     = errors.New("There must be at least one profile.")
	errPasswordsDiffer = errors.New("Passwords do not match.")
)

// ProfileManager is what the profile chooser needs.
type ProfileManager interface {
	Profiles() ([]string, error)
	OpenProfile(name, password string) (bool, error)
	CreateProfile(name string) error
	RenameProfile(oldName, newName string) error
	RemoveProfile(name string) error
	SetPassword(name, password string) error
}

// ProfileDialog is the profile chooser shown at startup and on "Switch
// Profile".
type ProfileDialog struct {
	window   fyne.Window
	pm       ProfileManager
	onOpened func(name string)
	onQuit   func()

	names    []string
	selected int
	list     *widget.List
	dialog   *dialog.CustomDialog
}

// NewProfileDialog builds the chooser. onOpened runs after a profile was
// opened; onQuit when the user quits from the chooser.
func NewProfileDialog(window fyne.Window, pm ProfileManager, onOpened func(string), onQuit func()) *ProfileDialog {
	d := &ProfileDialog{window: window, pm: pm, onOpened: onOpened, onQuit: onQuit}

	d.list = widget.NewList(
		func() int { return len(d.names) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, item fyne.CanvasObject) {
			item.(*widget.Label).SetText(d.names[id])
		},
	)
	d.list.OnSelected = func(id widget.ListItemID) { d.selected = id }

	buttons := container.NewVBox(
		widget.NewButton("Open", func() { d.open(d.current(), "") }),
		widget.NewButton("Add", d.promptAdd),
		widget.NewButton("Rename", d.promptRename),
		widget.NewButton("Delete", d.confirmRemove),
		widget.NewButton("Password", d.promptSetPassword),
		widget.NewSeparator(),
		widget.NewButton("Quit", func() {
			d.dialog.Hide()
			if d.onQuit != nil {
				d.onQuit()
			}
		}),
	)
	content := container.NewBorder(nil, nil, nil, buttons, d.list)
	d.dialog = dialog.NewCustomWithoutButtons("Profiles", content, window)
	d.dialog.Resize(fyne.NewSize(420, 300))
	return d
}

// Show reloads the profile list and displays the dialog.
func (d *ProfileDialog) Show() {
	if err := d.reload(""); err != nil {
		dialog.ShowError(err, d.window)
	}
	d.dialog.Show()
}

// Names returns the listed profile names
func (d *ProfileDialog) Names() []string {
	return d.names
}

func (d *ProfileDialog) reload(selectName string) error {
	names, err := d.pm.Profiles()
	if err != nil {
		return err
	}
	d.names = names
	d.selected = 0
	for i, n := range names {
		if n == selectName {
			d.selected = i
		}
	}
	d.list.Refresh()
	if len(names) > 0 {
		d.list.Select(d.selected)
	}
	return nil
}

func (d *ProfileDialog) current() string {
	if d.selected < 0 || d.selected >= len(d.names) {
		return ""
	}
	return d.names[d.selected]
}

// open tries name with password; a profile with a password asks for it.
func (d *ProfileDialog) open(name, password string) {
	if name == "" {
		return
	}
	go func() {
		ok, err := d.pm.OpenProfile(name, password)
		fyne.Do(func() {
			switch {
			case err != nil:
				dialog.ShowError(err, d.window)
			case !ok && password != "":
				dialog.ShowError(errInvalidPassword, d.window)
			case !ok:
				d.promptPassword(name)
			default:
				d.dialog.Hide()
				if d.onOpened != nil {
					d.onOpened(name)
				}
			}
		})
	}()
}

func (d *ProfileDialog) promptPassword(name string) {
	entry := widget.NewPasswordEntry()
	dialog.ShowForm("Profile Password", "OK", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Password:", entry)},
		func(ok bool) {
			if ok {
				d.open(name, entry.Text)
			}
		}, d.window)
}

func (d *ProfileDialog) promptAdd() {
	entry := widget.NewEntry()
	dialog.ShowForm("Add Profile", "OK", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Name:", entry)},
		func(ok bool) {
			if !ok {
				return
			}
			if err := d.pm.CreateProfile(entry.Text); err != nil {
				dialog.ShowError(err, d.window)
				return
			}
			d.showReloadError(d.reload(entry.Text))
		}, d.window)
}

func (d *ProfileDialog) promptRename() {
	old := d.current()
	if old == "" {
		return
	}
	entry := widget.NewEntry()
	entry.SetText(old)
	dialog.ShowForm("Rename Profile", "OK", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("New name:", entry)},
		func(ok bool) {
			if !ok || entry.Text == old {
				return
			}
			if err := d.pm.RenameProfile(old, entry.Text); err != nil {
				dialog.ShowError(err, d.window)
				return
			}
			d.showReloadError(d.reload(entry.Text))
		}, d.window)
}

func (d *ProfileDialog) promptSetPassword() {
	name := d.current()
	if name == "" {
		return
	}
	password := widget.NewPasswordEntry()
	confirm := widget.NewPasswordEntry()
	dialog.ShowForm("Set Password", "OK", "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("New password:", password),
			widget.NewFormItem("Confirm:", confirm),
		},
		func(ok bool) {
			if !ok {
				return
			}
			if err := d.setPassword(name, password.Text, confirm.Text); err != nil {
				dialog.ShowError(err, d.window)
			}
		}, d.window)
}

// setPassword stores a new password for name; an empty one removes it.
func (d *ProfileDialog) setPassword(name, password, confirm string) error {
	if password != confirm {
		return errPasswordsDiffer
	}
	return d.pm.SetPassword(name, password)
}

func (d *ProfileDialog) confirmRemove() {
	name := d.current()
	if name == "" {
		return
	}
	if len(d.names) < 2 {
		dialog.ShowError(errLastProfile, d.window)
		return
	}
	msg := fmt.Sprintf("All cards, notes, and media for profile %q will be deleted. Are you sure?", name)
	dialog.ShowConfirm("Delete Profile", msg, func(ok bool) {
		if !ok {
			return
		}
		if err := d.pm.RemoveProfile(name); err != nil {
			dialog.ShowError(err, d.window)
			return
		}
		d.showReloadError(d.reload(""))
	}, d.window)
}

func (d *ProfileDialog) showReloadError(err error) {
	if err != nil {
		dialog.ShowError(err, d.window)
	}
}

// LanguagePicker is the first run language chooser. It cannot be dismissed
// without picking a language.
type LanguagePicker struct {
	list     *widget.List
	selected int
	onChosen func(code string)
	dialog   *dialog.CustomDialog
}

// NewLanguagePicker preselects suggested, falling back to lang.Fallback.
func NewLanguagePicker(window fyne.Window, suggested string, onChosen func(code string)) *LanguagePicker {
	p := &LanguagePicker{onChosen: onChosen}
	names := lang.Names()

	p.selected = lang.Index(suggested)
	if p.selected < 0 {
		p.selected = lang.Index(lang.Fallback)
	}

	p.list = widget.NewList(
		func() int { return len(names) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, item fyne.CanvasObject) {
			item.(*widget.Label).SetText(names[id])
		},
	)
	p.list.OnSelected = func(id widget.ListItemID) { p.selected = id }
	p.list.Select(p.selected)

	ok := widget.NewButton("OK", p.confirm)
	ok.Importance = widget.HighImportance
	content := container.NewBorder(widget.NewLabel("Interface language:"), ok, nil, nil, p.list)

	p.dialog = dialog.NewCustomWithoutButtons("Language", content, window)
	p.dialog.Resize(fyne.NewSize(320, 420))
	return p
}

// Show displays the picker
func (p *LanguagePicker) Show() {
	p.dialog.Show()
}

// Selected returns the code of the highlighted language.
func (p *LanguagePicker) Selected() string {
	return lang.Supported[p.selected].Code
}

func (p *LanguagePicker) confirm() {
	p.dialog.Hide()
	if p.onChosen != nil {
		p.onChosen(p.Selected())
	}
}
