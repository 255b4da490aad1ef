package components

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"
)

// StatusBar displays application status and information
type StatusBar struct {
	container      *fyne.Container
	statusLabel    *widget.Label
	profileInfo    *widget.Label
	collectionInfo *widget.Label
}

// NewStatusBar creates a new status bar component
func NewStatusBar() *StatusBar {
	sb := &StatusBar{}
	sb.createComponents()
	sb.buildLayout()
	return sb
}

// createComponents initializes status bar components
func (sb *StatusBar) createComponents() {
	sb.statusLabel = widget.NewLabel("Ready")
	sb.profileInfo = widget.NewLabel("No profile")
	sb.collectionInfo = widget.NewLabel("")
}

// buildLayout constructs the status bar layout
func (sb *StatusBar) buildLayout() {
	sb.container = container.NewHBox(
		sb.statusLabel,
		widget.NewSeparator(),
		sb.profileInfo,
		widget.NewSeparator(),
		sb.collectionInfo,
	)
}

// The setters below must run on the UI goroutine; MainView wraps them in
// fyne.Do.

// SetStatus updates the main status message
func (sb *StatusBar) SetStatus(status string) {
	sb.statusLabel.SetText(status)
}

// GetStatus returns the current status message
func (sb *StatusBar) GetStatus() string {
	return sb.statusLabel.Text
}

// SetProfile shows the open profile, or a placeholder for "".
func (sb *StatusBar) SetProfile(name string) {
	if name == "" {
		sb.profileInfo.SetText("No profile")
		return
	}
	sb.profileInfo.SetText("Profile: " + name)
}

// SetCollectionInfo shows the note and deck counts.
func (sb *StatusBar) SetCollectionInfo(notes int64, decks int) {
	if notes == 0 && decks == 0 {
		sb.collectionInfo.SetText("")
		return
	}
	sb.collectionInfo.SetText(fmt.Sprintf("%s notes in %s decks",
		humanize.Comma(notes), humanize.Comma(int64(decks))))
}

// GetCollectionInfo returns the collection summary text
func (sb *StatusBar) GetCollectionInfo() string {
	return sb.collectionInfo.Text
}

// Reset resets the status bar to initial state
func (sb *StatusBar) Reset() {
	sb.statusLabel.SetText("Ready")
	sb.SetProfile("")
	sb.SetCollectionInfo(0, 0)
}

// GetContainer returns the status bar container
func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}
