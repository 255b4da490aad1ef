package views

import (
	"fmt"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"

	"flashdesk/internal/controllers"
	"flashdesk/internal/exporting"
)

const exportDirPrefix = "exportDir."

// ExportNotice is the transient message shown after an export.
func ExportNotice(count int) string {
	return fmt.Sprintf("%s exported.", humanize.Comma(int64(count)))
}

// ExportDialog lets the user pick a format, a deck and the format options.
type ExportDialog struct {
	parent *MainView
	ctrl   *controllers.ExportController
	prefs  fyne.Preferences

	formatSelect *widget.Select
	deckSelect   *widget.Select
	includeSched *widget.Check
	includeMedia *widget.Check
	includeTags  *widget.Check
	dialog       *dialog.ConfirmDialog
}

// NewExportDialog builds the dialog. prefs remembers the last folder per
// format and may be nil.
func NewExportDialog(parent *MainView, ctrl *controllers.ExportController, prefs fyne.Preferences) (*ExportDialog, error) {
	decks, err := ctrl.Decks()
	if err != nil {
		return nil, err
	}

	d := &ExportDialog{parent: parent, ctrl: ctrl, prefs: prefs}
	d.includeSched = widget.NewCheck("Include scheduling information", nil)
	d.includeMedia = widget.NewCheck("Include media", nil)
	d.includeTags = widget.NewCheck("Include tags", nil)

	d.deckSelect = widget.NewSelect(decks, nil)
	d.deckSelect.SetSelectedIndex(0)

	d.formatSelect = widget.NewSelect(ctrl.Formats(), func(string) {
		d.selectFormat(d.formatSelect.SelectedIndex())
	})
	d.formatSelect.SetSelectedIndex(0)

	form := widget.NewForm(
		widget.NewFormItem("Export format:", d.formatSelect),
		widget.NewFormItem("Include:", d.deckSelect),
		widget.NewFormItem("", d.includeSched),
		widget.NewFormItem("", d.includeMedia),
		widget.NewFormItem("", d.includeTags),
	)
	d.dialog = dialog.NewCustomConfirm("Export", "Export...", "Cancel", form, func(ok bool) {
		if ok {
			d.confirm()
		}
	}, parent.GetWindow())
	return d, nil
}

// Show displays the dialog
func (d *ExportDialog) Show() {
	d.dialog.Show()
}

// selectFormat builds the exporter for format i and shows the checkboxes
// its kind uses.
func (d *ExportDialog) selectFormat(i int) {
	kind, err := d.ctrl.SelectFormat(i)
	if err != nil {
		dialog.ShowError(err, d.parent.GetWindow())
		return
	}

	opts := d.ctrl.Options()
	d.includeSched.SetChecked(opts.IncludeSched)
	d.includeMedia.SetChecked(opts.IncludeMedia)
	d.includeTags.SetChecked(opts.IncludeTags)

	native := kind == exporting.KindNative
	setVisible(d.includeSched, native)
	setVisible(d.includeMedia, native)
	setVisible(d.includeTags, !native)
}

func (d *ExportDialog) applyOptions() {
	opts := d.ctrl.Options()
	opts.IncludeSched = d.includeSched.Checked
	opts.IncludeMedia = d.includeMedia.Checked
	opts.IncludeTags = d.includeTags.Checked
}

func (d *ExportDialog) confirm() {
	d.applyOptions()
	key := exportDirPrefix + d.ctrl.Exporter().Key()
	dir := ""
	if d.prefs != nil {
		dir = d.prefs.String(key)
	}
	deck := d.deckSelect.SelectedIndex()

	d.parent.ShowFileSave(d.ctrl.SuggestedFilename(), dir, func(path string, err error) {
		if err != nil {
			d.parent.ShowError("Export failed", err)
			return
		}
		if path == "" {
			return
		}
		if d.prefs != nil {
			d.prefs.SetString(key, filepath.Dir(path))
		}
		go d.export(deck, path)
	})
}

func (d *ExportDialog) export(deck int, path string) {
	count, err := d.ctrl.Export(deck, path)
	if err != nil {
		d.parent.ShowError("Export failed", err)
		return
	}

	d.parent.ShowNotice(ExportNotice(count))
	if info, err := os.Stat(path); err == nil {
		d.parent.UpdateStatus(fmt.Sprintf("Wrote %s to %s", humanize.Bytes(uint64(info.Size())), filepath.Base(path)))
	}
}

func setVisible(o fyne.CanvasObject, visible bool) {
	if visible {
		o.Show()
	} else {
		o.Hide()
	}
}
