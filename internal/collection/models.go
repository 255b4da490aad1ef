package collection

import "time"

// Deck groups cards for study.
type Deck struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

// NoteType describes the ordered fields of a note (called a model in the UI).
type NoteType struct {
	ID     int64    `gorm:"primaryKey"`
	Name   string   `gorm:"uniqueIndex;not null"`
	Fields []string `gorm:"serializer:json;not null"`
}

// FieldIndex returns the position of the named field, or -1.
func (m NoteType) FieldIndex(name string) int {
	for i, f := range m.Fields {
		if f == name {
			return i
		}
	}
	return -1
}

type Note struct {
	ID         int64    `gorm:"primaryKey"`
	GUID       string   `gorm:"uniqueIndex;not null"`
	NoteTypeID int64    `gorm:"index;not null"`
	Fields     []string `gorm:"serializer:json;not null"`
	Tags       []string `gorm:"serializer:json"`
	// First field, kept separately for duplicate lookup on import
	SortField string `gorm:"index"`
	Modified  time.Time
	Cards     []Card `gorm:"constraint:OnDelete:CASCADE"`
}

// Card is the schedulable unit of a note. Scheduling values are stored as is;
// computing them is not this package's job.
type Card struct {
	ID       int64 `gorm:"primaryKey"`
	NoteID   int64 `gorm:"index;not null"`
	DeckID   int64 `gorm:"index;not null"`
	Ordinal  int
	Due      int64
	Interval int
	Ease     int
	Reps     int
	Lapses   int
}

// ResetScheduling clears study history, used when exporting without it.
func (c *Card) ResetScheduling() {
	c.Due = 0
	c.Interval = 0
	c.Ease = 0
	c.Reps = 0
	c.Lapses = 0
}

type setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}
