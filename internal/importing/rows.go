package importing

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"flashdesk/internal/collection"
)

// tabular holds what row based importers share: the parsed rows, the model
// and mapping chosen in the dialog and the run results.
type tabular struct {
	col     collection.Collection
	path    string
	model   collection.NoteType
	mapping Mapping
	columns []string
	rows    [][]string
	log     []string
	total   int
}

func newTabular(col collection.Collection, path string) tabular {
	t := tabular{col: col, path: path}
	if nt, err := col.CurrentModel(); err == nil {
		t.model = nt
	}
	return t
}

func (t *tabular) NeedMapper() bool                { return true }
func (t *tabular) Model() collection.NoteType      { return t.model }
func (t *tabular) SetModel(m collection.NoteType)  { t.model = m }
func (t *tabular) Fields() []string                { return t.columns }
func (t *tabular) Mapping() Mapping                { return slices.Clone(t.mapping) }
func (t *tabular) SetMapping(m Mapping)            { t.mapping = slices.Clone(m) }
func (t *tabular) Log() []string                   { return t.log }
func (t *tabular) Total() int                      { return t.total }
func (t *tabular) InitMapping()                    { t.mapping = DefaultMapping(t.model, len(t.columns)) }
func (t *tabular) logf(format string, args ...any) { t.log = append(t.log, fmt.Sprintf(format, args...)) }

// importRows adds each row as a note of the current model. Rows whose first
// field matches an existing note of the same model update that note instead.
func (t *tabular) importRows() error {
	t.log = nil
	t.total = 0

	if t.model.ID == 0 || len(t.model.Fields) == 0 {
		return collection.ErrModelNotFound
	}
	if t.mapping.Column(t.model.Fields[0]) < 0 {
		return ErrFirstFieldUnmapped
	}

	fieldCol := make([]int, len(t.model.Fields))
	for i, name := range t.model.Fields {
		fieldCol[i] = t.mapping.Column(name)
	}
	tagsCol := t.mapping.Column(TagsTarget)
	deckCol := t.mapping.Column(DeckTarget)

	deckIDs := make(map[string]int64)
	added, updated, unchanged := 0, 0, 0

	for lineNo, row := range t.rows {
		fields := make([]string, len(fieldCol))
		for i, c := range fieldCol {
			if c >= 0 && c < len(row) {
				fields[i] = strings.TrimSpace(row[c])
			}
		}
		if fields[0] == "" {
			t.logf("Row %d: first field empty, skipped.", lineNo+1)
			continue
		}
		if len(row) < len(t.mapping) {
			t.logf("Row %d: expected %d fields, found %d.", lineNo+1, len(t.mapping), len(row))
		}

		var tags []string
		if tagsCol >= 0 && tagsCol < len(row) {
			tags = strings.Fields(row[tagsCol])
		}

		var deckID int64
		if deckCol >= 0 && deckCol < len(row) {
			name := strings.TrimSpace(row[deckCol])
			id, ok := deckIDs[name]
			if !ok {
				var err error
				if id, err = t.col.EnsureDeck(name); err != nil {
					return fmt.Errorf("row %d: %w", lineNo+1, err)
				}
				deckIDs[name] = id
			}
			deckID = id
		}

		existing, err := t.col.FindNote(t.model.ID, fields[0])
		switch {
		case err == nil:
			if slices.Equal(existing.Fields, fields) && (tagsCol < 0 || slices.Equal(existing.Tags, tags)) {
				unchanged++
				continue
			}
			existing.Fields = fields
			if tagsCol >= 0 {
				existing.Tags = tags
			}
			if err := t.col.UpdateNote(existing); err != nil {
				return fmt.Errorf("row %d: %w", lineNo+1, err)
			}
			updated++
		case errors.Is(err, collection.ErrNoteNotFound):
			note := &collection.Note{NoteTypeID: t.model.ID, Fields: fields, Tags: tags}
			if err := t.col.AddNote(note, deckID); err != nil {
				return fmt.Errorf("row %d: %w", lineNo+1, err)
			}
			added++
		default:
			return fmt.Errorf("row %d: %w", lineNo+1, err)
		}
	}

	if unchanged > 0 {
		t.logf("%d notes were already present and unchanged.", unchanged)
	}
	t.logf("%d notes added, %d notes updated.", added, updated)
	t.total = added + updated
	return nil
}
