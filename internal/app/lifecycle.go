package app

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"flashdesk/internal/logger"
	"flashdesk/internal/shutdown"
)

// Lifecycle runs the shutdown steps once, whichever of window close, quit
// or a signal comes first.
type Lifecycle struct {
	shutdown *shutdown.Manager
	logger   logger.Logger
	once     sync.Once
}

func NewLifecycle(sm *shutdown.Manager, log logger.Logger) *Lifecycle {
	return &Lifecycle{
		shutdown: sm,
		logger:   log,
	}
}

// Listen shuts down on SIGINT/SIGTERM and then calls quit.
func (l *Lifecycle) Listen(quit func()) {
	l.shutdown.Listen(func() {
		fyne.Do(quit)
	})
}

func (l *Lifecycle) Shutdown() {
	l.once.Do(func() {
		l.logger.Info("Lifecycle", "application shutdown", nil)
		l.shutdown.Shutdown()
	})
}

func fatalContent(message string, quit func()) fyne.CanvasObject {
	label := widget.NewLabel(message)
	label.Wrapping = fyne.TextWrapWord
	button := widget.NewButton("Quit", quit)
	button.Importance = widget.HighImportance
	return container.NewBorder(nil, container.NewCenter(button), nil, nil, label)
}
