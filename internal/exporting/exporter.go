package exporting

import "flashdesk/internal/collection"

// Kind tells the dialog which options an exporter understands.
type Kind int

const (
	// KindNative exporters write a full package and honour IncludeSched and
	// IncludeMedia.
	KindNative Kind = iota
	// KindPlainText exporters write text or tables and honour IncludeTags.
	KindPlainText
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindPlainText:
		return "plain"
	default:
		return "unknown"
	}
}

// Options are set from the dialog before ExportInto runs.
type Options struct {
	IncludeSched bool
	IncludeMedia bool
	IncludeTags  bool
	// DeckID limits the export to one deck; nil exports every deck.
	DeckID *int64
}

// DefaultOptions returns the documented defaults for a kind.
func DefaultOptions(kind Kind) Options {
	if kind == KindNative {
		return Options{IncludeSched: true, IncludeMedia: true}
	}
	return Options{IncludeTags: true}
}

type Exporter interface {
	Kind() Kind
	// Key identifies the format, used to remember the last save folder.
	Key() string
	Ext() string
	Options() *Options
	// ExportInto writes the file at path. It blocks until done.
	ExportInto(path string) error
	// Count is the number of items written by the last ExportInto.
	Count() int
}

// Format is one row of the exporter table shown in the dialog.
type Format struct {
	Label string
	Kind  Kind
	New   func(col collection.Collection) Exporter
}

// DefaultFormats is the exporter table in display order.
func DefaultFormats() []Format {
	return []Format{
		{Label: "Collection package (*.flashpkg)", Kind: KindNative, New: NewPackageExporter},
		{Label: "Notes in Plain Text (*.txt)", Kind: KindPlainText, New: NewNotesTextExporter},
		{Label: "Cards in Plain Text (*.txt)", Kind: KindPlainText, New: NewCardsTextExporter},
		{Label: "Notes as Parquet (*.parquet)", Kind: KindPlainText, New: NewParquetExporter},
	}
}

// base carries what every exporter shares.
type base struct {
	col     collection.Collection
	kind    Kind
	key     string
	ext     string
	options Options
	count   int
}

func newBase(col collection.Collection, kind Kind, key, ext string) base {
	return base{col: col, kind: kind, key: key, ext: ext, options: DefaultOptions(kind)}
}

func (b *base) Kind() Kind        { return b.kind }
func (b *base) Key() string       { return b.key }
func (b *base) Ext() string       { return b.ext }
func (b *base) Options() *Options { return &b.options }
func (b *base) Count() int        { return b.count }

func (b *base) notes() ([]collection.Note, error) {
	return b.col.Notes(b.options.DeckID)
}
