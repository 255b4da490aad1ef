package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// DeckList shows the decks of the open collection.
type DeckList struct {
	container   *fyne.Container
	list        *widget.List
	placeholder *widget.Label

	decks []string
}

// NewDeckList creates a new deck list component
func NewDeckList() *DeckList {
	dl := &DeckList{}
	dl.createComponents()
	dl.setupLayout()
	return dl
}

func (dl *DeckList) createComponents() {
	dl.list = widget.NewList(
		func() int { return len(dl.decks) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, item fyne.CanvasObject) {
			item.(*widget.Label).SetText(dl.decks[id])
		},
	)
	dl.placeholder = widget.NewLabel("Open a profile to see its decks")
	dl.placeholder.Alignment = fyne.TextAlignCenter
}

func (dl *DeckList) setupLayout() {
	dl.container = container.NewStack(dl.list, container.NewCenter(dl.placeholder))
	dl.list.Hide()
}

// SetDecks replaces the listed deck names. Call it on the UI goroutine.
func (dl *DeckList) SetDecks(names []string) {
	dl.decks = append(dl.decks[:0], names...)
	if len(dl.decks) == 0 {
		dl.list.Hide()
		dl.placeholder.Show()
	} else {
		dl.placeholder.Hide()
		dl.list.Show()
	}
	dl.list.Refresh()
}

// Decks returns the listed deck names
func (dl *DeckList) Decks() []string {
	return dl.decks
}

// GetContainer returns the deck list container
func (dl *DeckList) GetContainer() *fyne.Container {
	return dl.container
}
