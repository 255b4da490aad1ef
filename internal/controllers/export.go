package controllers

import (
	"errors"
	"fmt"

	"flashdesk/internal/collection"
	"flashdesk/internal/exporting"
	"flashdesk/internal/logger"
)

// AllDecks is the first entry of the deck list and exports every deck.
const AllDecks = "All Decks"

var ErrNoFormat = errors.New("no export format selected")

// ExportController backs the export dialog.
type ExportController struct {
	col      collection.Collection
	formats  []exporting.Format
	progress Progress
	hooks    Hooks
	logger   logger.Logger

	selected int
	exporter exporting.Exporter
}

func NewExportController(col collection.Collection, formats []exporting.Format, progress Progress, hooks Hooks, log logger.Logger) *ExportController {
	if log == nil {
		log = logger.Nop()
	}
	return &ExportController{
		col:      col,
		formats:  formats,
		progress: orNopProgress(progress),
		hooks:    orNopHooks(hooks),
		logger:   log,
		selected: -1,
	}
}

// Formats returns the format labels in table order.
func (c *ExportController) Formats() []string {
	labels := make([]string, len(c.formats))
	for i, f := range c.formats {
		labels[i] = f.Label
	}
	return labels
}

// Decks returns AllDecks followed by the sorted deck names.
func (c *ExportController) Decks() ([]string, error) {
	names, err := c.col.DeckNames()
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	return append([]string{AllDecks}, names...), nil
}

// SelectFormat builds a fresh exporter for format i with its default
// options and returns its kind, which decides the checkboxes to show.
func (c *ExportController) SelectFormat(i int) (exporting.Kind, error) {
	if i < 0 || i >= len(c.formats) {
		return 0, fmt.Errorf("%w: index %d", ErrNoFormat, i)
	}
	c.selected = i
	c.exporter = c.formats[i].New(c.col)
	return c.exporter.Kind(), nil
}

// Exporter is the exporter built by the last SelectFormat.
func (c *ExportController) Exporter() exporting.Exporter {
	return c.exporter
}

// Options of the selected exporter, for the dialog checkboxes.
func (c *ExportController) Options() *exporting.Options {
	if c.exporter == nil {
		return nil
	}
	return c.exporter.Options()
}

// SuggestedFilename is the default name offered in the save dialog.
func (c *ExportController) SuggestedFilename() string {
	if c.exporter == nil {
		return "export"
	}
	return "export" + c.exporter.Ext()
}

// Export writes the selected format to path. deck is an index into Decks;
// 0 exports every deck. An empty path does nothing. It returns the number
// of items written.
func (c *ExportController) Export(deck int, path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	if c.exporter == nil {
		return 0, ErrNoFormat
	}

	opts := c.exporter.Options()
	opts.DeckID = nil
	if deck > 0 {
		decks, err := c.Decks()
		if err != nil {
			return 0, err
		}
		if deck >= len(decks) {
			return 0, fmt.Errorf("%w: deck index %d", collection.ErrDeckNotFound, deck)
		}
		id, err := c.col.DeckID(decks[deck])
		if err != nil {
			return 0, err
		}
		opts.DeckID = &id
	}

	c.progress.Start("Exporting...")
	err := c.exporter.ExportInto(path)
	c.progress.Finish()
	if err != nil {
		c.logger.Error("export", err, map[string]interface{}{
			"format": c.exporter.Key(),
			"path":   path,
		})
		return 0, err
	}

	count := c.exporter.Count()
	c.logger.Info("export", "export finished", map[string]interface{}{
		"format": c.exporter.Key(),
		"path":   path,
		"count":  count,
	})
	c.hooks.Exported(path, count)
	return count, nil
}
