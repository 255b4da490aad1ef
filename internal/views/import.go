package views

import (
	"errors"
	"slices"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"flashdesk/internal/collection"
	"flashdesk/internal/controllers"
	"flashdesk/internal/importing"
)

// StartImport runs the whole import flow: file choice, probe, mapping and
// run. onDone is called after a successful run.
func StartImport(parent *MainView, ctrl *controllers.ImportController, onDone func()) {
	parent.ShowFileOpen(ctrl.Extensions(), func(path string, err error) {
		if err != nil {
			parent.ShowError("Import failed", err)
			return
		}
		if path == "" {
			return
		}
		go beginImport(parent, ctrl, path, onDone)
	})
}

func beginImport(parent *MainView, ctrl *controllers.ImportController, path string, onDone func()) {
	s, err := ctrl.Begin(path)
	if err != nil {
		var probe *controllers.ProbeError
		if errors.As(err, &probe) {
			err = errors.New(probe.Message)
		}
		parent.ShowError("Import failed", err)
		return
	}
	if s == nil {
		return
	}

	run := func(s *controllers.ImportSession) {
		go runImport(parent, s, onDone)
	}
	if !s.NeedMapper() {
		run(s)
		return
	}

	fyne.Do(func() {
		d, err := NewImportDialog(parent.GetWindow(), s, run)
		if err != nil {
			dialog.ShowError(err, parent.GetWindow())
			return
		}
		d.Show()
	})
}

func runImport(parent *MainView, s *controllers.ImportSession, onDone func()) {
	summary, err := s.Run()
	if err != nil {
		showLog(parent.GetWindow(), "Import", err.Error())
		return
	}
	showLog(parent.GetWindow(), "Import", summary.Text())
	if onDone != nil {
		onDone()
	}
}

func showLog(window fyne.Window, title, text string) {
	fyne.Do(func() {
		label := widget.NewLabel(text)
		label.Wrapping = fyne.TextWrapWord
		scroll := container.NewVScroll(label)
		scroll.SetMinSize(fyne.NewSize(480, 240))
		dialog.ShowCustom(title, "Close", scroll, window)
	})
}

// ImportDialog shows the note type, the delimiter and the field mapping of
// one import session.
type ImportDialog struct {
	window  fyne.Window
	session *controllers.ImportSession
	onRun   func(*controllers.ImportSession)

	models          []collection.NoteType
	modelSelect     *widget.Select
	delimiterButton *widget.Button
	grid            *fyne.Container
	dialog          *dialog.ConfirmDialog
}

// NewImportDialog builds the dialog. onRun receives the session when the
// user presses Import.
func NewImportDialog(window fyne.Window, s *controllers.ImportSession, onRun func(*controllers.ImportSession)) (*ImportDialog, error) {
	models, err := s.Models()
	if err != nil {
		return nil, err
	}

	d := &ImportDialog{window: window, session: s, onRun: onRun, models: models}

	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.Name
	}
	d.modelSelect = widget.NewSelect(names, nil)
	d.modelSelect.SetSelected(s.Model().Name)
	d.modelSelect.OnChanged = func(string) {
		d.changeModel(d.modelSelect.SelectedIndex())
	}

	d.delimiterButton = widget.NewButton("", d.promptDelimiter)
	setVisible(d.delimiterButton, s.NeedDelimiter())

	d.grid = container.NewGridWithColumns(3)
	d.refresh()

	scroll := container.NewVScroll(d.grid)
	scroll.SetMinSize(fyne.NewSize(460, 220))
	content := container.NewBorder(
		widget.NewForm(
			widget.NewFormItem("Type:", d.modelSelect),
			widget.NewFormItem("", d.delimiterButton),
		),
		nil, nil, nil,
		scroll,
	)

	d.dialog = dialog.NewCustomConfirm("Import", "Import", "Close", content, func(ok bool) {
		if ok && d.onRun != nil {
			d.onRun(d.session)
		}
	}, window)
	return d, nil
}

// Show displays the dialog
func (d *ImportDialog) Show() {
	d.dialog.Show()
}

// refresh rebuilds the mapping grid and the delimiter button text.
func (d *ImportDialog) refresh() {
	d.delimiterButton.SetText(d.session.DelimiterLabel())

	var objects []fyne.CanvasObject
	for i, row := range d.session.Rows() {
		n := i
		objects = append(objects,
			widget.NewLabel(row.Label),
			widget.NewLabel(row.Destination),
			widget.NewButton("Change", func() { d.promptMapping(n) }),
		)
	}
	d.grid.Objects = objects
	d.grid.Refresh()
}

func (d *ImportDialog) changeModel(i int) {
	if i < 0 || i >= len(d.models) {
		return
	}
	if err := d.session.SetModel(d.models[i].ID); err != nil {
		dialog.ShowError(err, d.window)
		return
	}
	d.refresh()
}

func (d *ImportDialog) changeMapping(n int, target string) {
	d.session.ChangeMapping(n, target)
	d.refresh()
}

func (d *ImportDialog) promptMapping(n int) {
	current := d.session.Mapping()[n]
	NewChangeMapDialog(d.window, d.session.Targets(), current, func(target string) {
		d.changeMapping(n, target)
	}).Show()
}

func (d *ImportDialog) promptDelimiter() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder(`\t for tab`)
	dialog.ShowForm("Delimiter", "OK", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Enter delimiter:", entry)},
		func(ok bool) {
			if !ok {
				return
			}
			text := entry.Text
			go func() {
				err := d.session.SetDelimiter(text)
				fyne.Do(func() {
					if err != nil {
						dialog.ShowError(err, d.window)
					}
					d.refresh()
				})
			}()
		}, d.window)
}

// ChangeMapDialog lets the user pick the destination of one column.
type ChangeMapDialog struct {
	targets  []string
	labels   []string
	radio    *widget.RadioGroup
	onChosen func(string)
	dialog   *dialog.ConfirmDialog
}

// NewChangeMapDialog lists targets with current preselected.
func NewChangeMapDialog(window fyne.Window, targets []string, current string, onChosen func(target string)) *ChangeMapDialog {
	d := &ChangeMapDialog{targets: targets, labels: targetLabels(targets), onChosen: onChosen}

	d.radio = widget.NewRadioGroup(d.labels, nil)
	d.radio.Required = true
	if i := slices.Index(targets, current); i >= 0 {
		d.radio.SetSelected(d.labels[i])
	}

	d.dialog = dialog.NewCustomConfirm("Import", "OK", "Cancel", d.radio, func(ok bool) {
		if ok {
			d.confirm()
		}
	}, window)
	return d
}

// targetLabels names each target. A note field that shares its label with
// the Tags, Deck or Discard entry gets a suffix so every option is distinct.
func targetLabels(targets []string) []string {
	special := map[string]bool{
		importing.TargetLabel(importing.TagsTarget): true,
		importing.TargetLabel(importing.DeckTarget): true,
		importing.TargetLabel(importing.Discard):    true,
	}
	labels := make([]string, len(targets))
	for i, t := range targets {
		labels[i] = importing.TargetLabel(t)
		isField := t != importing.TagsTarget && t != importing.DeckTarget && t != importing.Discard
		if isField && special[labels[i]] {
			labels[i] += " (field)"
		}
	}
	return labels
}

// Show displays the dialog
func (d *ChangeMapDialog) Show() {
	d.dialog.Show()
}

// Selected returns the target of the selected entry.
func (d *ChangeMapDialog) Selected() string {
	if i := slices.Index(d.labels, d.radio.Selected); i >= 0 {
		return d.targets[i]
	}
	return importing.Discard
}

func (d *ChangeMapDialog) confirm() {
	if d.onChosen != nil {
		d.onChosen(d.Selected())
	}
}
