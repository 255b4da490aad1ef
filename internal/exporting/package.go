package exporting

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"flashdesk/internal/collection"
)

const (
	PackageVersion     = 1
	PackageManifest    = "collection.json"
	PackageMediaPrefix = "media/"
)

// PackageContents is the manifest stored inside a .flashpkg archive.
type PackageContents struct {
	Version   int                   `json:"version"`
	Decks     []collection.Deck     `json:"decks"`
	NoteTypes []collection.NoteType `json:"noteTypes"`
	Notes     []collection.Note     `json:"notes"`
	Media     []string              `json:"media,omitempty"`
}

// PackageExporter writes notes, cards, note types and optionally media into
// a zip archive that PackageImporter reads back.
type PackageExporter struct {
	base
}

func NewPackageExporter(col collection.Collection) Exporter {
	return &PackageExporter{base: newBase(col, KindNative, "package", ".flashpkg")}
}

func (e *PackageExporter) ExportInto(path string) error {
	e.count = 0

	contents, err := e.collect()
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create package file: %w", err)
	}
	defer file.Close()

	zw := zip.NewWriter(file)

	w, err := zw.Create(PackageManifest)
	if err != nil {
		return fmt.Errorf("failed to add manifest: %w", err)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(contents); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	for _, name := range contents.Media {
		if err := addFile(zw, PackageMediaPrefix+name, filepath.Join(e.col.MediaDir(), name)); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish package: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close package file: %w", err)
	}

	e.count = len(contents.Notes)
	return nil
}

func (e *PackageExporter) collect() (*PackageContents, error) {
	notes, err := e.notes()
	if err != nil {
		return nil, fmt.Errorf("failed to read notes: %w", err)
	}
	models, err := e.col.Models()
	if err != nil {
		return nil, fmt.Errorf("failed to read note types: %w", err)
	}
	decks, err := e.col.Decks()
	if err != nil {
		return nil, fmt.Errorf("failed to read decks: %w", err)
	}

	usedDecks := make(map[int64]bool)
	usedModels := make(map[int64]bool)
	for i := range notes {
		usedModels[notes[i].NoteTypeID] = true
		for j := range notes[i].Cards {
			card := &notes[i].Cards[j]
			if !e.options.IncludeSched {
				card.ResetScheduling()
			}
			usedDecks[card.DeckID] = true
		}
	}

	contents := &PackageContents{Version: PackageVersion, Notes: notes}
	for _, d := range decks {
		if usedDecks[d.ID] {
			contents.Decks = append(contents.Decks, d)
		}
	}
	for _, m := range models {
		if usedModels[m.ID] {
			contents.NoteTypes = append(contents.NoteTypes, m)
		}
	}

	if e.options.IncludeMedia {
		entries, err := os.ReadDir(e.col.MediaDir())
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to list media: %w", err)
		}
		for _, entry := range entries {
			if entry.Type().IsRegular() {
				contents.Media = append(contents.Media, entry.Name())
			}
		}
	}

	return contents, nil
}

func addFile(zw *zip.Writer, name, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open media file: %w", err)
	}
	defer in.Close()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
