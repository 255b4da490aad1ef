// Package collection stores decks, note types, notes and cards for one
// profile in a single sqlite file.
//
// # Usage
//
//	col, err := collection.Open(profiles.CollectionPath(name))
//	names, err := col.DeckNames()
package collection

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DefaultDeckName = "Default"

	settingCurrentModel = "curModel"
	settingCheckpoint   = "checkpoint"
)

var (
	ErrDeckNotFound  = errors.New("deck not found")
	ErrNoteNotFound  = errors.New("note not found")
	ErrModelNotFound = errors.New("note type not found")
	ErrFieldCount    = errors.New("field count does not match note type")
)

var defaultNoteTypes = []NoteType{
	{Name: "Basic", Fields: []string{"Front", "Back"}},
	{Name: "Basic (optional reversed card)", Fields: []string{"Front", "Back", "Add Reverse"}},
	{Name: "Cloze", Fields: []string{"Text", "Extra"}},
}

// Collection is what the dialogs need from an open collection.
type Collection interface {
	Path() string
	MediaDir() string

	Decks() ([]Deck, error)
	DeckNames() ([]string, error)
	DeckID(name string) (int64, error)
	EnsureDeck(name string) (int64, error)

	Models() ([]NoteType, error)
	Model(id int64) (NoteType, error)
	AddModel(nt *NoteType) error
	CurrentModel() (NoteType, error)
	SetCurrentModel(id int64) error

	NoteCount() (int64, error)
	Notes(deckID *int64) ([]Note, error)
	FindNote(noteTypeID int64, sortField string) (*Note, error)
	NoteByGUID(guid string) (*Note, error)
	AddNote(note *Note, deckID int64) error
	UpdateNote(note *Note) error

	Checkpoint(name string) error
	BackupTo(path string) error
	Close() error
}

// Store is the gorm backed Collection.
type Store struct {
	db       *gorm.DB
	path     string
	mediaDir string
}

var _ Collection = (*Store)(nil)

// Open opens or creates the collection at path, together with its media
// folder (<path without extension>.media).
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}

	if err := db.AutoMigrate(&Deck{}, &NoteType{}, &Note{}, &Card{}, &setting{}); err != nil {
		return nil, fmt.Errorf("failed to migrate collection: %w", err)
	}

	mediaDir := strings.TrimSuffix(path, filepath.Ext(path)) + ".media"
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media folder: %w", err)
	}

	s := &Store{db: db, path: path, mediaDir: mediaDir}
	if err := s.seed(); err != nil {
		return nil, fmt.Errorf("failed to seed collection: %w", err)
	}
	return s, nil
}

func (s *Store) seed() error {
	if _, err := s.EnsureDeck(DefaultDeckName); err != nil {
		return err
	}
	var count int64
	if err := s.db.Model(&NoteType{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, nt := range defaultNoteTypes {
		nt := nt
		if err := s.db.Create(&nt).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Path() string     { return s.path }
func (s *Store) MediaDir() string { return s.mediaDir }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Decks returns all decks ordered by name.
func (s *Store) Decks() ([]Deck, error) {
	var decks []Deck
	if err := s.db.Find(&decks).Error; err != nil {
		return nil, err
	}
	sort.Slice(decks, func(i, j int) bool { return decks[i].Name < decks[j].Name })
	return decks, nil
}

// DeckNames returns all deck names sorted.
func (s *Store) DeckNames() ([]string, error) {
	decks, err := s.Decks()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(decks))
	for i, d := range decks {
		names[i] = d.Name
	}
	return names, nil
}

func (s *Store) DeckID(name string) (int64, error) {
	var deck Deck
	err := s.db.Where("name = ?", name).First(&deck).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%w: %s", ErrDeckNotFound, name)
	}
	if err != nil {
		return 0, err
	}
	return deck.ID, nil
}

// EnsureDeck returns the id of the named deck, creating it when missing.
func (s *Store) EnsureDeck(name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultDeckName
	}
	deck := Deck{Name: name}
	if err := s.db.Where(Deck{Name: name}).FirstOrCreate(&deck).Error; err != nil {
		return 0, err
	}
	return deck.ID, nil
}

func (s *Store) Models() ([]NoteType, error) {
	var models []NoteType
	err := s.db.Order("id").Find(&models).Error
	return models, err
}

func (s *Store) Model(id int64) (NoteType, error) {
	var nt NoteType
	err := s.db.First(&nt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NoteType{}, ErrModelNotFound
	}
	return nt, err
}

// AddModel stores a new note type. A taken name gets a numeric suffix.
func (s *Store) AddModel(nt *NoteType) error {
	if len(nt.Fields) == 0 {
		return fmt.Errorf("%w: note type has no fields", ErrFieldCount)
	}
	base := strings.TrimSpace(nt.Name)
	if base == "" {
		base = "Imported"
	}
	name := base
	for i := 2; ; i++ {
		var count int64
		if err := s.db.Model(&NoteType{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			break
		}
		name = fmt.Sprintf("%s-%d", base, i)
	}
	nt.ID = 0
	nt.Name = name
	return s.db.Create(nt).Error
}

// CurrentModel is the note type last chosen by the user, or the first one.
func (s *Store) CurrentModel() (NoteType, error) {
	var st setting
	err := s.db.First(&st, "key = ?", settingCurrentModel).Error
	if err == nil {
		if id, convErr := strconv.ParseInt(st.Value, 10, 64); convErr == nil {
			if nt, err := s.Model(id); err == nil {
				return nt, nil
			}
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return NoteType{}, err
	}

	var nt NoteType
	err = s.db.Order("id").First(&nt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NoteType{}, ErrModelNotFound
	}
	return nt, err
}

func (s *Store) SetCurrentModel(id int64) error {
	if _, err := s.Model(id); err != nil {
		return err
	}
	return s.setSetting(settingCurrentModel, strconv.FormatInt(id, 10))
}

func (s *Store) NoteCount() (int64, error) {
	var count int64
	err := s.db.Model(&Note{}).Count(&count).Error
	return count, err
}

// Notes returns notes with their cards. A nil deckID means every deck;
// otherwise only notes with at least one card in that deck.
func (s *Store) Notes(deckID *int64) ([]Note, error) {
	q := s.db.Preload("Cards").Order("id")
	if deckID != nil {
		q = q.Where("id IN (?)", s.db.Model(&Card{}).Select("note_id").Where("deck_id = ?", *deckID))
	}
	var notes []Note
	err := q.Find(&notes).Error
	return notes, err
}

func (s *Store) FindNote(noteTypeID int64, sortField string) (*Note, error) {
	var note Note
	err := s.db.Where("note_type_id = ? AND sort_field = ?", noteTypeID, sortField).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *Store) NoteByGUID(guid string) (*Note, error) {
	var note Note
	err := s.db.Where("guid = ?", guid).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// AddNote inserts a note and one new card per entry of note.Cards (or a
// single card when none are given). Cards are placed in deckID; a zero
// deckID keeps the deck already set on each card.
func (s *Store) AddNote(note *Note, deckID int64) error {
	nt, err := s.Model(note.NoteTypeID)
	if err != nil {
		return err
	}
	if len(note.Fields) != len(nt.Fields) {
		return fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(note.Fields), len(nt.Fields))
	}
	if note.GUID == "" {
		note.GUID = uuid.NewString()
	}
	note.SortField = note.Fields[0]
	note.Modified = time.Now()
	if len(note.Cards) == 0 {
		note.Cards = []Card{{}}
	}
	for i := range note.Cards {
		card := &note.Cards[i]
		card.ID = 0
		card.NoteID = 0
		if deckID != 0 {
			card.DeckID = deckID
		}
		if card.DeckID == 0 {
			if card.DeckID, err = s.EnsureDeck(DefaultDeckName); err != nil {
				return err
			}
		}
	}
	return s.db.Create(note).Error
}

// UpdateNote saves fields and tags of an existing note.
func (s *Store) UpdateNote(note *Note) error {
	if len(note.Fields) > 0 {
		note.SortField = note.Fields[0]
	}
	note.Modified = time.Now()
	return s.db.Model(note).Select("fields", "tags", "sort_field", "modified").Updates(note).Error
}

// Checkpoint records the name of the operation about to modify the
// collection, shown in the UI as the last undoable step.
func (s *Store) Checkpoint(name string) error {
	return s.setSetting(settingCheckpoint, name)
}

// LastCheckpoint returns the name passed to the latest Checkpoint call.
func (s *Store) LastCheckpoint() string {
	var st setting
	if err := s.db.First(&st, "key = ?", settingCheckpoint).Error; err != nil {
		return ""
	}
	return st.Value
}

// BackupTo writes a consistent copy of the database to path, which must not
// exist yet.
func (s *Store) BackupTo(path string) error {
	return s.db.Exec("VACUUM INTO ?", path).Error
}

func (s *Store) setSetting(key, value string) error {
	return s.db.Save(&setting{Key: key, Value: value}).Error
}
