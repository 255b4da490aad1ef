package importing

import "flashdesk/internal/collection"

// Mapping assigns each source column (by index) a destination: a field name,
// TagsTarget, DeckTarget or Discard.
type Mapping []string

// DefaultMapping maps columns to model fields in order, the next column to
// tags and discards the rest.
func DefaultMapping(model collection.NoteType, columns int) Mapping {
	m := make(Mapping, columns)
	n := copy(m, model.Fields)
	if n < columns {
		m[n] = TagsTarget
	}
	return m
}

// Assign points column n at target. A target already held by another column
// is taken away from it first, so every destination appears at most once.
// Discard may appear any number of times.
func (m Mapping) Assign(n int, target string) {
	if n < 0 || n >= len(m) {
		return
	}
	if target != Discard {
		for i, cur := range m {
			if i != n && cur == target {
				m[i] = Discard
			}
		}
	}
	m[n] = target
}

// Column returns the index of the column mapped to target, or -1.
func (m Mapping) Column(target string) int {
	for i, cur := range m {
		if cur == target && target != Discard {
			return i
		}
	}
	return -1
}

// Describe is the destination text shown next to a column.
func Describe(target string) string {
	switch target {
	case TagsTarget:
		return "mapped to Tags"
	case DeckTarget:
		return "mapped to Deck"
	case Discard:
		return "<ignored>"
	default:
		return "mapped to " + target
	}
}

// Targets lists every destination offered for a model: its fields, then
// Tags, Deck and Discard.
func Targets(model collection.NoteType) []string {
	targets := make([]string, 0, len(model.Fields)+3)
	targets = append(targets, model.Fields...)
	return append(targets, TagsTarget, DeckTarget, Discard)
}

// TargetLabel is the list entry for a destination in the change dialog.
func TargetLabel(target string) string {
	switch target {
	case TagsTarget:
		return "Map to Tags"
	case DeckTarget:
		return "Map to Deck"
	case Discard:
		return "Discard field"
	default:
		return "Map to " + target
	}
}
