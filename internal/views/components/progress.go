package components

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// ProgressDialog is a modal busy indicator. Nested Start calls share one
// dialog, which closes when the outermost Finish runs. Start and Finish may
// be called from any goroutine.
type ProgressDialog struct {
	window fyne.Window

	mu     sync.Mutex
	depth  int
	dialog *dialog.CustomDialog
	title  *widget.Label
}

// NewProgressDialog creates a progress dialog for window
func NewProgressDialog(window fyne.Window) *ProgressDialog {
	return &ProgressDialog{window: window}
}

// Start shows the dialog, or retitles it when already shown.
func (pd *ProgressDialog) Start(title string) {
	pd.mu.Lock()
	pd.depth++
	first := pd.depth == 1
	pd.mu.Unlock()

	fyne.Do(func() {
		if !first {
			if pd.title != nil {
				pd.title.SetText(title)
			}
			return
		}
		pd.title = widget.NewLabel(title)
		bar := widget.NewProgressBarInfinite()
		pd.dialog = dialog.NewCustomWithoutButtons("Please wait", container.NewVBox(pd.title, bar), pd.window)
		pd.dialog.Show()
	})
}

// Finish closes the dialog once every Start has been matched.
func (pd *ProgressDialog) Finish() {
	pd.mu.Lock()
	if pd.depth == 0 {
		pd.mu.Unlock()
		return
	}
	pd.depth--
	last := pd.depth == 0
	pd.mu.Unlock()

	if !last {
		return
	}
	fyne.Do(func() {
		if pd.dialog != nil {
			pd.dialog.Hide()
			pd.dialog = nil
		}
	})
}

// Active reports whether the dialog is open.
func (pd *ProgressDialog) Active() bool {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.depth > 0
}
