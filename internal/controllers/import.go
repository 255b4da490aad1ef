package controllers

import (
	"errors"
	"fmt"
	"strings"

	"flashdesk/internal/collection"
	"flashdesk/internal/importing"
	"flashdesk/internal/logger"
)

var ErrBadDelimiter = errors.New("delimiter must be a single character")

// ProbeError is returned by Begin when the file cannot be opened. Message
// is the text shown to the user.
type ProbeError struct {
	Kind    importing.ProbeKind
	Message string
	Err     error
}

func (e *ProbeError) Error() string { return e.Message }
func (e *ProbeError) Unwrap() error { return e.Err }

// Summary is the outcome of a successful import.
type Summary struct {
	Total int
	Log   []string
}

// Text renders the summary for the result dialog.
func (s Summary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Importing complete. %d notes imported or updated.\n", s.Total)
	if len(s.Log) > 0 {
		b.WriteString("Log of import:\n")
		b.WriteString(strings.Join(s.Log, "\n"))
	}
	return b.String()
}

// MappingRow is one line of the mapping grid.
type MappingRow struct {
	Label       string
	Destination string
}

// ImportController backs the import flow.
type ImportController struct {
	col      collection.Collection
	formats  []importing.Format
	progress Progress
	hooks    Hooks
	logger   logger.Logger
}

func NewImportController(col collection.Collection, formats []importing.Format, progress Progress, hooks Hooks, log logger.Logger) *ImportController {
	if log == nil {
		log = logger.Nop()
	}
	return &ImportController{
		col:      col,
		formats:  formats,
		progress: orNopProgress(progress),
		hooks:    orNopHooks(hooks),
		logger:   log,
	}
}

// Filters returns the format labels for the file dialog.
func (c *ImportController) Filters() []string {
	labels := make([]string, len(c.formats))
	for i, f := range c.formats {
		labels[i] = f.Label
	}
	return labels
}

// Extensions lists every extension named by the filters, with the dot.
func (c *ImportController) Extensions() []string {
	var exts []string
	for _, f := range c.formats {
		for _, e := range importing.Extensions(f.Label) {
			exts = append(exts, "."+e)
		}
	}
	return exts
}

// Begin picks the importer for path and probes the file when the importer
// needs a mapping. An empty path returns a nil session and no error. Probe
// failures are *ProbeError.
func (c *ImportController) Begin(path string) (*ImportSession, error) {
	if path == "" {
		return nil, nil
	}

	format := importing.Resolve(c.formats, path)
	imp := format.New(c.col, path)
	s := &ImportSession{c: c, path: path, format: format, importer: imp}

	if !imp.NeedMapper() {
		return s, nil
	}

	c.progress.Start("Reading file...")
	err := imp.Open()
	c.progress.Finish()
	if err != nil {
		kind, msg := importing.Classify(err)
		c.logger.Warning("import", "probe failed", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return nil, &ProbeError{Kind: kind, Message: msg, Err: err}
	}

	imp.InitMapping()
	s.mapping = imp.Mapping()
	return s, nil
}

// ImportSession is one import attempt, from probe to run.
type ImportSession struct {
	c        *ImportController
	path     string
	format   importing.Format
	importer importing.Importer
	mapping  importing.Mapping
}

func (s *ImportSession) Path() string                 { return s.path }
func (s *ImportSession) FormatLabel() string          { return s.format.Label }
func (s *ImportSession) Importer() importing.Importer { return s.importer }
func (s *ImportSession) NeedMapper() bool             { return s.importer.NeedMapper() }
func (s *ImportSession) NeedDelimiter() bool          { return s.importer.NeedDelimiter() }
func (s *ImportSession) Model() collection.NoteType   { return s.importer.Model() }
func (s *ImportSession) Mapping() importing.Mapping   { return append(importing.Mapping(nil), s.mapping...) }

// Rows describes each source column and where it goes.
func (s *ImportSession) Rows() []MappingRow {
	rows := make([]MappingRow, len(s.mapping))
	for i, target := range s.mapping {
		rows[i] = MappingRow{
			Label:       fmt.Sprintf("Field %d of file is:", i+1),
			Destination: importing.Describe(target),
		}
	}
	return rows
}

// Targets lists the destinations offered for a column.
func (s *ImportSession) Targets() []string {
	return importing.Targets(s.importer.Model())
}

// ChangeMapping points column n at target, taking target away from any
// other column.
func (s *ImportSession) ChangeMapping(n int, target string) {
	s.mapping.Assign(n, target)
}

// Models lists the note types the user may import into.
func (s *ImportSession) Models() ([]collection.NoteType, error) {
	return s.c.col.Models()
}

// SetModel switches the destination note type and rebuilds the mapping. A
// manual delimiter survives the switch.
func (s *ImportSession) SetModel(id int64) error {
	nt, err := s.c.col.Model(id)
	if err != nil {
		return err
	}
	if err := s.c.col.SetCurrentModel(id); err != nil {
		return err
	}

	saved := s.importer.Delimiter()
	s.importer.SetModel(nt)
	s.importer.InitMapping()
	s.importer.SetDelimiter(saved)
	s.mapping = s.importer.Mapping()
	return nil
}

// SetDelimiter applies the text typed in the delimiter prompt, `\t` meaning
// tab, then re-reads the file and rebuilds the mapping.
func (s *ImportSession) SetDelimiter(text string) error {
	r, ok := importing.ParseDelimiter(text)
	if !ok {
		return fmt.Errorf("%w: %q", ErrBadDelimiter, text)
	}
	previous := s.importer.Delimiter()
	s.importer.SetDelimiter(r)

	s.c.progress.Start("Reading file...")
	err := s.importer.Open()
	s.c.progress.Finish()
	if err != nil {
		// Open keeps the rows of the last good read; keep the delimiter
		// that produced them.
		s.importer.SetDelimiter(previous)
		return err
	}
	s.importer.InitMapping()
	s.mapping = s.importer.Mapping()
	return nil
}

// DelimiterLabel is the text of the delimiter button, empty when the format
// has no delimiter.
func (s *ImportSession) DelimiterLabel() string {
	if !s.importer.NeedDelimiter() {
		return ""
	}
	if d := s.importer.Delimiter(); d != 0 {
		return "Manual delimiter: " + importing.DelimiterName(d)
	}
	return "Auto-detected delimiter: " + importing.DelimiterName(s.importer.Dialect())
}

// Run imports the file with the current mapping. The collection is
// checkpointed first; a failed run leaves whatever the importer wrote.
func (s *ImportSession) Run() (Summary, error) {
	if s.importer.NeedMapper() {
		s.importer.SetMapping(s.mapping)
	}

	s.c.progress.Start("Importing...")
	err := s.c.col.Checkpoint("Import")
	if err == nil {
		err = s.importer.Run()
	}
	s.c.progress.Finish()

	if err != nil {
		s.c.logger.Error("import", err, map[string]interface{}{"path": s.path})
		return Summary{Log: s.importer.Log()}, fmt.Errorf("Import failed.\n%w", err)
	}

	summary := Summary{Total: s.importer.Total(), Log: s.importer.Log()}
	s.c.logger.Info("import", "import finished", map[string]interface{}{
		"path":  s.path,
		"total": summary.Total,
	})
	s.c.hooks.Imported(s.path, summary.Total)
	return summary, nil
}
