package importing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"flashdesk/internal/collection"
)

// Delimiters tried by the sniffer, in order of preference.
var sniffCandidates = []rune{'\t', ';', ',', '|', ':', ' '}

const sniffLines = 10

// TextImporter reads delimiter separated text. Lines starting with # are
// comments. A UTF-8 or UTF-16 byte order mark is honoured.
type TextImporter struct {
	tabular
	delimiter rune
	dialect   rune
}

// Lines starting with commentChar are skipped.
const commentChar = '#'

func NewTextImporter(col collection.Collection, path string) Importer {
	return &TextImporter{tabular: newTabular(col, path), dialect: '\t'}
}

func (i *TextImporter) NeedDelimiter() bool { return true }
func (i *TextImporter) Delimiter() rune     { return i.delimiter }
func (i *TextImporter) SetDelimiter(r rune) { i.delimiter = r }
func (i *TextImporter) Dialect() rune       { return i.dialect }

// Open reads and parses the whole file with the manual delimiter, or the
// sniffed one when none is set.
func (i *TextImporter) Open() error {
	raw, err := os.ReadFile(i.path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	data, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadEncoding, err)
	}
	if !utf8.Valid(data) {
		return ErrBadEncoding
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return ErrUnknownFormat
	}

	sample := dataLines(string(data), sniffLines)
	if len(sample) == 0 {
		return fmt.Errorf("%w: no data lines", ErrUnknownFormat)
	}
	i.dialect = sniffDelimiter(sample)

	delim := i.dialect
	if i.delimiter != 0 {
		delim = i.delimiter
	}

	rows, err := readRecords(data, delim)
	if err != nil {
		return err
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	i.rows = rows
	i.columns = make([]string, width)
	copy(i.columns, rows[0])
	return nil
}

func (i *TextImporter) Run() error {
	if i.rows == nil {
		if err := i.Open(); err != nil {
			return err
		}
	}
	return i.importRows()
}

func readRecords(data []byte, delim rune) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.Comment = commentChar
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse file: %w", err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrUnknownFormat)
	}
	return rows, nil
}

// dataLines returns up to n non-blank, non-comment lines.
func dataLines(s string, n int) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, string(commentChar)) {
			continue
		}
		lines = append(lines, line)
		if len(lines) == n {
			break
		}
	}
	return lines
}

// sniffDelimiter prefers a candidate that occurs equally often on every
// sample line, then the one most frequent on the first line, then tab.
func sniffDelimiter(lines []string) rune {
	for _, c := range sniffCandidates {
		want := strings.Count(lines[0], string(c))
		if want == 0 {
			continue
		}
		consistent := true
		for _, line := range lines[1:] {
			if strings.Count(line, string(c)) != want {
				consistent = false
				break
			}
		}
		if consistent {
			return c
		}
	}

	best, bestCount := '\t', 0
	for _, c := range sniffCandidates {
		if n := strings.Count(lines[0], string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}
