package importing

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"flashdesk/internal/collection"
	"flashdesk/internal/exporting"
)

// PackageImporter merges a .flashpkg archive written by the package
// exporter. Notes are matched by GUID, note types by name and field list,
// decks by name. Existing media files are kept.
type PackageImporter struct {
	col   collection.Collection
	path  string
	model collection.NoteType
	log   []string
	total int
}

func NewPackageImporter(col collection.Collection, path string) Importer {
	return &PackageImporter{col: col, path: path}
}

func (i *PackageImporter) NeedMapper() bool               { return false }
func (i *PackageImporter) NeedDelimiter() bool            { return false }
func (i *PackageImporter) Delimiter() rune                { return 0 }
func (i *PackageImporter) SetDelimiter(rune)              {}
func (i *PackageImporter) Dialect() rune                  { return 0 }
func (i *PackageImporter) Model() collection.NoteType     { return i.model }
func (i *PackageImporter) SetModel(m collection.NoteType) { i.model = m }
func (i *PackageImporter) InitMapping()                   {}
func (i *PackageImporter) Fields() []string               { return nil }
func (i *PackageImporter) Mapping() Mapping               { return nil }
func (i *PackageImporter) SetMapping(Mapping)             {}
func (i *PackageImporter) Log() []string                  { return i.log }
func (i *PackageImporter) Total() int                     { return i.total }

// Open checks that the archive carries a readable manifest.
func (i *PackageImporter) Open() error {
	zr, err := zip.OpenReader(i.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	defer zr.Close()
	_, err = readManifest(&zr.Reader)
	return err
}

func (i *PackageImporter) Run() error {
	i.log = nil
	i.total = 0

	zr, err := zip.OpenReader(i.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	defer zr.Close()

	contents, err := readManifest(&zr.Reader)
	if err != nil {
		return err
	}

	models, err := i.mergeModels(contents.NoteTypes)
	if err != nil {
		return err
	}
	decks, err := i.mergeDecks(contents.Decks)
	if err != nil {
		return err
	}

	added, updated, skipped := 0, 0, 0
	for _, note := range contents.Notes {
		modelID, ok := models[note.NoteTypeID]
		if !ok {
			skipped++
			continue
		}

		existing, err := i.col.NoteByGUID(note.GUID)
		switch {
		case err == nil:
			if existing.NoteTypeID != modelID {
				i.log = append(i.log, fmt.Sprintf("Note %s has a different note type locally, skipped.", note.GUID))
				skipped++
				continue
			}
			if slices.Equal(existing.Fields, note.Fields) && slices.Equal(existing.Tags, note.Tags) {
				continue
			}
			existing.Fields = note.Fields
			existing.Tags = note.Tags
			if err := i.col.UpdateNote(existing); err != nil {
				return fmt.Errorf("failed to update note %s: %w", note.GUID, err)
			}
			updated++
		case errors.Is(err, collection.ErrNoteNotFound):
			note.ID = 0
			note.NoteTypeID = modelID
			for c := range note.Cards {
				note.Cards[c].DeckID = decks[note.Cards[c].DeckID]
			}
			if err := i.col.AddNote(&note, 0); err != nil {
				return fmt.Errorf("failed to add note %s: %w", note.GUID, err)
			}
			added++
		default:
			return err
		}
	}

	copied, err := i.copyMedia(&zr.Reader)
	if err != nil {
		return err
	}

	if skipped > 0 {
		i.log = append(i.log, fmt.Sprintf("%d notes skipped.", skipped))
	}
	i.log = append(i.log,
		fmt.Sprintf("%d notes added, %d notes updated.", added, updated),
		fmt.Sprintf("%d media files copied.", copied))
	i.total = added + updated
	return nil
}

// mergeModels maps package note type ids to local ids, adding note types
// that have no local counterpart with the same name and fields.
func (i *PackageImporter) mergeModels(types []collection.NoteType) (map[int64]int64, error) {
	local, err := i.col.Models()
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]int64, len(types))
	for _, nt := range types {
		idx := slices.IndexFunc(local, func(m collection.NoteType) bool {
			return m.Name == nt.Name && slices.Equal(m.Fields, nt.Fields)
		})
		if idx >= 0 {
			ids[nt.ID] = local[idx].ID
			continue
		}
		remoteID := nt.ID
		if err := i.col.AddModel(&nt); err != nil {
			return nil, fmt.Errorf("failed to add note type %q: %w", nt.Name, err)
		}
		i.log = append(i.log, fmt.Sprintf("Added note type %s.", nt.Name))
		ids[remoteID] = nt.ID
	}
	return ids, nil
}

func (i *PackageImporter) mergeDecks(decks []collection.Deck) (map[int64]int64, error) {
	ids := make(map[int64]int64, len(decks))
	for _, d := range decks {
		id, err := i.col.EnsureDeck(d.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to add deck %q: %w", d.Name, err)
		}
		ids[d.ID] = id
	}
	return ids, nil
}

func (i *PackageImporter) copyMedia(zr *zip.Reader) (int, error) {
	copied := 0
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, exporting.PackageMediaPrefix) {
			continue
		}
		name := path.Base(f.Name)
		if name == "." || name == "/" || name == ".." {
			continue
		}
		dst := filepath.Join(i.col.MediaDir(), name)
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		if err := extract(f, dst); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}

func extract(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return out.Close()
}

func readManifest(zr *zip.Reader) (*exporting.PackageContents, error) {
	rc, err := zr.Open(exporting.PackageManifest)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s", ErrUnknownFormat, exporting.PackageManifest)
	}
	defer rc.Close()

	var contents exporting.PackageContents
	if err := json.NewDecoder(rc).Decode(&contents); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	if contents.Version < 1 || contents.Version > exporting.PackageVersion {
		return nil, fmt.Errorf("%w: package version %d", ErrUnknownFormat, contents.Version)
	}
	return &contents, nil
}
