package exporting

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"flashdesk/internal/collection"
)

// NotesTextExporter writes one tab separated line per note, fields first and
// tags last when IncludeTags is set.
type NotesTextExporter struct {
	base
}

func NewNotesTextExporter(col collection.Collection) Exporter {
	return &NotesTextExporter{base: newBase(col, KindPlainText, "notes-text", ".txt")}
}

func (e *NotesTextExporter) ExportInto(path string) error {
	e.count = 0

	notes, err := e.notes()
	if err != nil {
		return fmt.Errorf("failed to read notes: %w", err)
	}

	lines := make([]string, 0, len(notes))
	for _, note := range notes {
		row := make([]string, 0, len(note.Fields)+1)
		for _, f := range note.Fields {
			row = append(row, StripHTML(f))
		}
		if e.options.IncludeTags {
			row = append(row, strings.Join(note.Tags, " "))
		}
		lines = append(lines, strings.Join(row, "\t"))
	}

	if err := writeLines(path, lines); err != nil {
		return err
	}
	e.count = len(notes)
	return nil
}

// CardsTextExporter writes "question<TAB>answer" per card, taking the first
// field as question and the remaining fields as answer.
type CardsTextExporter struct {
	base
}

func NewCardsTextExporter(col collection.Collection) Exporter {
	return &CardsTextExporter{base: newBase(col, KindPlainText, "cards-text", ".txt")}
}

func (e *CardsTextExporter) ExportInto(path string) error {
	e.count = 0

	notes, err := e.notes()
	if err != nil {
		return fmt.Errorf("failed to read notes: %w", err)
	}

	var lines []string
	for _, note := range notes {
		if len(note.Fields) == 0 {
			continue
		}
		question := StripHTML(note.Fields[0])
		answers := make([]string, 0, len(note.Fields)-1)
		for _, f := range note.Fields[1:] {
			if s := StripHTML(f); s != "" {
				answers = append(answers, s)
			}
		}
		answer := strings.Join(answers, " ")
		for _, card := range note.Cards {
			if e.options.DeckID != nil && card.DeckID != *e.options.DeckID {
				continue
			}
			line := question + "\t" + answer
			if e.options.IncludeTags {
				line += "\t" + strings.Join(note.Tags, " ")
			}
			lines = append(lines, line)
		}
	}

	if err := writeLines(path, lines); err != nil {
		return err
	}
	e.count = len(lines)
	return nil
}

// StripHTML returns the visible text of an HTML fragment on one line.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	// Line breaks become spaces instead of disappearing
	s = strings.NewReplacer("<br>", " ", "<br/>", " ", "<br />", " ", "</div>", " </div>").Replace(s)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func writeLines(path string, lines []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create text file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("failed to write text file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write text file: %w", err)
	}
	return file.Close()
}
