// Package importing reads external files into a collection.
//
// The dialog layer picks a Format with Resolve, probes the file with Open,
// lets the user adjust the Mapping and finally calls Run.
package importing

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"flashdesk/internal/collection"
)

// Mapping sentinels. Any other non-empty slot names a note field.
const (
	TagsTarget = "_tags"
	DeckTarget = "_deck"
	Discard    = ""
)

var (
	// ErrUnknownFormat means the file is not something the importer reads.
	ErrUnknownFormat = errors.New("unknown file format")
	// ErrBadEncoding means a text file is not valid UTF-8.
	ErrBadEncoding = errors.New("file is not valid UTF-8")
	// ErrFirstFieldUnmapped is returned by Run when no column feeds the
	// first field of the note type.
	ErrFirstFieldUnmapped = errors.New("the first field of the note type must be mapped")
)

type Importer interface {
	// NeedMapper reports whether the field mapping dialog applies.
	NeedMapper() bool
	// NeedDelimiter reports whether the delimiter can be overridden.
	NeedDelimiter() bool
	// Delimiter is the manual override, or 0 when auto-detecting.
	Delimiter() rune
	// SetDelimiter sets the override used by the next Open. 0 clears it.
	SetDelimiter(r rune)
	// Dialect is the delimiter detected by the last Open.
	Dialect() rune

	Model() collection.NoteType
	SetModel(m collection.NoteType)
	// InitMapping builds the default mapping for the current model and
	// column count.
	InitMapping()
	// Fields returns one label per source column, known after Open.
	Fields() []string
	Mapping() Mapping
	SetMapping(m Mapping)

	// Open probes the file. Errors match ErrBadEncoding, ErrUnknownFormat
	// or anything else.
	Open() error
	// Run imports the file. It blocks until done.
	Run() error
	Log() []string
	// Total is the number of notes added or updated by Run.
	Total() int
}

// Format is one row of the importer table offered in the file dialog.
type Format struct {
	Label string
	New   func(col collection.Collection, path string) Importer
}

// DefaultFormats is the importer table. The first entry is the fallback for
// unknown extensions.
func DefaultFormats() []Format {
	return []Format{
		{Label: "Text separated by tabs or semicolons (*.txt *.csv *.tsv)", New: NewTextImporter},
		{Label: "Collection package (*.flashpkg)", New: NewPackageImporter},
		{Label: "Parquet table (*.parquet)", New: NewParquetImporter},
	}
}

var globPattern = regexp.MustCompile(`[( ]?\*\.(.+?)[) ]`)

// Extensions returns the extensions named by the glob patterns of a filter
// label, without the leading dot.
func Extensions(label string) []string {
	var exts []string
	for _, m := range globPattern.FindAllStringSubmatch(label, -1) {
		exts = append(exts, m[1])
	}
	return exts
}

// Resolve returns the first format whose label lists the extension of path,
// or formats[0] when none does. formats must not be empty.
func Resolve(formats []Format, path string) Format {
	ext := filepath.Ext(path)
	for _, f := range formats {
		for _, e := range Extensions(f.Label) {
			if ext == "."+e {
				return f
			}
		}
	}
	return formats[0]
}

// ProbeKind classifies Open failures for display.
type ProbeKind int

const (
	ProbeOK ProbeKind = iota
	ProbeBadEncoding
	ProbeUnknownFormat
	ProbeOther
)

// Classify maps an Open error to its kind and the message shown to the user.
func Classify(err error) (ProbeKind, string) {
	switch {
	case err == nil:
		return ProbeOK, ""
	case errors.Is(err, ErrBadEncoding):
		return ProbeBadEncoding, "Selected file was not in UTF-8 format."
	case errors.Is(err, ErrUnknownFormat):
		return ProbeUnknownFormat, "Unknown file format."
	default:
		return ProbeOther, "Import failed. Debugging info:\n" + err.Error()
	}
}

// DelimiterName is the label used for a delimiter on the dialog button.
func DelimiterName(r rune) string {
	switch r {
	case '\t':
		return "Tab"
	case ',':
		return "Comma"
	case ' ':
		return "Space"
	case ';':
		return "Semicolon"
	case ':':
		return "Colon"
	default:
		return "'" + string(r) + "'"
	}
}

// ParseDelimiter reads the text typed in the delimiter prompt. `\t` stands
// for tab. Anything but a single character is rejected, as are the
// characters the text reader reserves for line breaks, quotes and comments.
func ParseDelimiter(text string) (rune, bool) {
	text = strings.ReplaceAll(text, `\t`, "\t")
	runes := []rune(text)
	if len(runes) != 1 {
		return 0, false
	}
	switch r := runes[0]; r {
	case '\n', '\r', '"', commentChar, utf8.RuneError:
		return 0, false
	default:
		return r, true
	}
}
