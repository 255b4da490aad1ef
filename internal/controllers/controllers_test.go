package controllers

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flashdesk/internal/collection"
	"flashdesk/internal/config"
	"flashdesk/internal/exporting"
	"flashdesk/internal/importing"
	"flashdesk/internal/logger"
	"flashdesk/internal/profiles"
)

type fakeProgress struct {
	starts   []string
	finishes int
}

func (p *fakeProgress) Start(title string) { p.starts = append(p.starts, title) }
func (p *fakeProgress) Finish()            { p.finishes++ }

type fakeHooks struct {
	mu       sync.Mutex
	loaded   []string
	imported []ImportedEvent
	exported []ExportedEvent
}

func (h *fakeHooks) ProfileLoaded(profile string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loaded = append(h.loaded, profile)
}

func (h *fakeHooks) Imported(path string, total int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.imported = append(h.imported, ImportedEvent{Path: path, Total: total})
}

func (h *fakeHooks) Exported(path string, count int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exported = append(h.exported, ExportedEvent{Path: path, Count: count})
}

type fakeView struct {
	errors    []string
	profile   string
	notes     int64
	decks     int
	deckNames []string
}

func (v *fakeView) ShowError(title string, err error) { v.errors = append(v.errors, title+": "+err.Error()) }
func (v *fakeView) ShowInfo(title, message string)    {}
func (v *fakeView) UpdateStatus(status string)        {}
func (v *fakeView) SetProfileName(name string)        { v.profile = name }
func (v *fakeView) SetDecks(names []string)           { v.deckNames = names }
func (v *fakeView) SetCollectionInfo(notes int64, decks int) {
	v.notes = notes
	v.decks = decks
}

func setupCollection(t *testing.T) *collection.Store {
	t.Helper()
	col, err := collection.Open(filepath.Join(t.TempDir(), "collection.flashdb"))
	require.NoError(t, err)
	t.Cleanup(func() { col.Close() })

	nt, err := col.CurrentModel()
	require.NoError(t, err)
	spanish, err := col.EnsureDeck("Spanish")
	require.NoError(t, err)
	require.NoError(t, col.AddNote(&collection.Note{
		NoteTypeID: nt.ID,
		Fields:     []string{"hola", "hello"},
	}, spanish))
	require.NoError(t, col.AddNote(&collection.Note{
		NoteTypeID: nt.ID,
		Fields:     []string{"cell", "smallest unit"},
	}, 0))
	return col
}

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestExportController_Lists(t *testing.T) {
	c := NewExportController(setupCollection(t), exporting.DefaultFormats(), nil, nil, nil)

	assert.Len(t, c.Formats(), 4)
	decks, err := c.Decks()
	require.NoError(t, err)
	assert.Equal(t, []string{AllDecks, "Default", "Spanish"}, decks)
	assert.Equal(t, "export", c.SuggestedFilename())
	assert.Nil(t, c.Options())
}

func TestExportController_SelectFormat(t *testing.T) {
	c := NewExportController(setupCollection(t), exporting.DefaultFormats(), nil, nil, nil)

	kind, err := c.SelectFormat(0)
	require.NoError(t, err)
	assert.Equal(t, exporting.KindNative, kind)
	assert.True(t, c.Options().IncludeSched)
	assert.Equal(t, "export.flashpkg", c.SuggestedFilename())

	kind, err = c.SelectFormat(1)
	require.NoError(t, err)
	assert.Equal(t, exporting.KindPlainText, kind)
	assert.True(t, c.Options().IncludeTags)
	assert.Equal(t, "export.txt", c.SuggestedFilename())

	_, err = c.SelectFormat(9)
	assert.ErrorIs(t, err, ErrNoFormat)
}

func TestExportController_ExportSingleDeck(t *testing.T) {
	progress := &fakeProgress{}
	hooks := &fakeHooks{}
	c := NewExportController(setupCollection(t), exporting.DefaultFormats(), progress, hooks, logger.Nop())

	_, err := c.SelectFormat(1)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "out.txt")

	count, err := c.Export(2, path)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "hola\thello"))
	assert.NotContains(t, string(data), "cell")

	assert.Equal(t, []string{"Exporting..."}, progress.starts)
	assert.Equal(t, 1, progress.finishes)
	assert.Equal(t, []ExportedEvent{{Path: path, Count: 1}}, hooks.exported)
}

func TestExportController_ExportAllDecks(t *testing.T) {
	c := NewExportController(setupCollection(t), exporting.DefaultFormats(), nil, nil, nil)
	_, err := c.SelectFormat(1)
	require.NoError(t, err)

	count, err := c.Export(0, filepath.Join(t.TempDir(), "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestExportController_EmptyPathDoesNothing(t *testing.T) {
	progress := &fakeProgress{}
	c := NewExportController(setupCollection(t), exporting.DefaultFormats(), progress, nil, nil)
	_, err := c.SelectFormat(0)
	require.NoError(t, err)

	count, err := c.Export(0, "")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, progress.starts)
}

func TestExportController_FailureClosesProgress(t *testing.T) {
	progress := &fakeProgress{}
	hooks := &fakeHooks{}
	c := NewExportController(setupCollection(t), exporting.DefaultFormats(), progress, hooks, nil)
	_, err := c.SelectFormat(1)
	require.NoError(t, err)

	_, err = c.Export(0, filepath.Join(t.TempDir(), "missing", "out.txt"))
	assert.Error(t, err)
	assert.Equal(t, 1, progress.finishes)
	assert.Empty(t, hooks.exported)
}

func TestImportController_EmptyPath(t *testing.T) {
	c := NewImportController(setupCollection(t), importing.DefaultFormats(), nil, nil, nil)
	s, err := c.Begin("")
	assert.NoError(t, err)
	assert.Nil(t, s)
}

func TestImportController_Extensions(t *testing.T) {
	c := NewImportController(setupCollection(t), importing.DefaultFormats(), nil, nil, nil)
	assert.Equal(t, []string{".txt", ".csv", ".tsv", ".flashpkg", ".parquet"}, c.Extensions())
	assert.Len(t, c.Filters(), 3)
}

func TestImportController_ProbeErrors(t *testing.T) {
	progress := &fakeProgress{}
	c := NewImportController(setupCollection(t), importing.DefaultFormats(), progress, nil, nil)

	_, err := c.Begin(writeFile(t, "latin1.txt", "caf\xe9\tcoffee\n"))
	var probe *ProbeError
	require.ErrorAs(t, err, &probe)
	assert.Equal(t, importing.ProbeBadEncoding, probe.Kind)
	assert.Equal(t, "Selected file was not in UTF-8 format.", probe.Error())
	assert.ErrorIs(t, err, importing.ErrBadEncoding)

	_, err = c.Begin(writeFile(t, "comments.txt", "# nothing\n"))
	require.ErrorAs(t, err, &probe)
	assert.Equal(t, importing.ProbeUnknownFormat, probe.Kind)
	assert.Equal(t, "Unknown file format.", probe.Message)

	_, err = c.Begin(filepath.Join(t.TempDir(), "missing.txt"))
	require.ErrorAs(t, err, &probe)
	assert.Equal(t, importing.ProbeOther, probe.Kind)
	assert.True(t, strings.HasPrefix(probe.Message, "Import failed. Debugging info:\n"))

	assert.Equal(t, 3, progress.finishes)
}

func TestImportSession_Mapping(t *testing.T) {
	c := NewImportController(setupCollection(t), importing.DefaultFormats(), nil, nil, nil)
	s, err := c.Begin(writeFile(t, "in.csv", "uno\tone\tnum\n"))
	require.NoError(t, err)
	require.True(t, s.NeedMapper())

	assert.Equal(t, []MappingRow{
		{Label: "Field 1 of file is:", Destination: "mapped to Front"},
		{Label: "Field 2 of file is:", Destination: "mapped to Back"},
		{Label: "Field 3 of file is:", Destination: "mapped to Tags"},
	}, s.Rows())

	s.ChangeMapping(2, "Front")
	assert.Equal(t, importing.Mapping{importing.Discard, "Back", "Front"}, s.Mapping())
	assert.Equal(t, []string{"Front", "Back", importing.TagsTarget, importing.DeckTarget, importing.Discard}, s.Targets())
}

func TestImportSession_Delimiter(t *testing.T) {
	progress := &fakeProgress{}
	c := NewImportController(setupCollection(t), importing.DefaultFormats(), progress, nil, nil)
	s, err := c.Begin(writeFile(t, "in.txt", "a|b;c\nd|e;f\n"))
	require.NoError(t, err)

	assert.Equal(t, "Auto-detected delimiter: Semicolon", s.DelimiterLabel())
	assert.Len(t, s.Rows(), 2)

	assert.ErrorIs(t, s.SetDelimiter("ab"), ErrBadDelimiter)
	assert.ErrorIs(t, s.SetDelimiter(""), ErrBadDelimiter)

	require.NoError(t, s.SetDelimiter("|"))
	assert.Equal(t, "Manual delimiter: '|'", s.DelimiterLabel())
	assert.Equal(t, []string{"a", "b;c"}, s.Importer().Fields())

	require.NoError(t, s.SetDelimiter(`\t`))
	assert.Equal(t, "Manual delimiter: Tab", s.DelimiterLabel())
	assert.Len(t, s.Rows(), 1)

	assert.ErrorIs(t, s.SetDelimiter("#"), ErrBadDelimiter)
	assert.Equal(t, "Manual delimiter: Tab", s.DelimiterLabel())
}

func TestImportSession_FailedRereadKeepsDelimiter(t *testing.T) {
	progress := &fakeProgress{}
	c := NewImportController(setupCollection(t), importing.DefaultFormats(), progress, nil, nil)
	path := writeFile(t, "in.txt", "a|b;c\nd|e;f\n")
	s, err := c.Begin(path)
	require.NoError(t, err)
	require.NoError(t, s.SetDelimiter("|"))

	require.NoError(t, os.Remove(path))
	assert.Error(t, s.SetDelimiter(","))

	assert.Equal(t, "Manual delimiter: '|'", s.DelimiterLabel())
	assert.Equal(t, []string{"a", "b;c"}, s.Importer().Fields())
	assert.Len(t, progress.starts, progress.finishes)
}

func TestImportSession_SetModelKeepsDelimiter(t *testing.T) {
	col := setupCollection(t)
	c := NewImportController(col, importing.DefaultFormats(), nil, nil, nil)
	s, err := c.Begin(writeFile(t, "in.txt", "a|b|c;x\n"))
	require.NoError(t, err)
	require.NoError(t, s.SetDelimiter("|"))

	models, err := s.Models()
	require.NoError(t, err)
	var reversed collection.NoteType
	for _, m := range models {
		if len(m.Fields) == 3 {
			reversed = m
		}
	}
	require.NotZero(t, reversed.ID)

	require.NoError(t, s.SetModel(reversed.ID))
	assert.Equal(t, reversed.Name, s.Model().Name)
	assert.Equal(t, "Manual delimiter: '|'", s.DelimiterLabel())
	assert.Equal(t, importing.Mapping{"Front", "Back", "Add Reverse"}, s.Mapping())

	current, err := col.CurrentModel()
	require.NoError(t, err)
	assert.Equal(t, reversed.ID, current.ID)

	assert.ErrorIs(t, s.SetModel(-1), collection.ErrModelNotFound)
}

func TestImportSession_Run(t *testing.T) {
	col := setupCollection(t)
	hooks := &fakeHooks{}
	c := NewImportController(col, importing.DefaultFormats(), nil, hooks, nil)
	path := writeFile(t, "in.txt", "hola\thi\nadiós\tbye\n")

	s, err := c.Begin(path)
	require.NoError(t, err)
	summary, err := s.Run()
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, "Import", col.LastCheckpoint())
	assert.Equal(t, []ImportedEvent{{Path: path, Total: 2}}, hooks.imported)

	text := summary.Text()
	assert.True(t, strings.HasPrefix(text, "Importing complete. 2 notes imported or updated.\nLog of import:\n"))
	assert.Contains(t, text, "1 notes added, 1 notes updated.")
}

func TestImportSession_RunFailure(t *testing.T) {
	hooks := &fakeHooks{}
	c := NewImportController(setupCollection(t), importing.DefaultFormats(), nil, hooks, nil)
	s, err := c.Begin(writeFile(t, "in.txt", "a\tb\n"))
	require.NoError(t, err)
	s.ChangeMapping(0, importing.Discard)

	_, err = s.Run()
	assert.ErrorIs(t, err, importing.ErrFirstFieldUnmapped)
	assert.True(t, strings.HasPrefix(err.Error(), "Import failed.\n"))
	assert.Empty(t, hooks.imported)
}

func TestImportController_PackageSkipsProbe(t *testing.T) {
	src := setupCollection(t)
	exp := NewExportController(src, exporting.DefaultFormats(), nil, nil, nil)
	_, err := exp.SelectFormat(0)
	require.NoError(t, err)
	pkg := filepath.Join(t.TempDir(), "deck.flashpkg")
	_, err = exp.Export(0, pkg)
	require.NoError(t, err)

	dst, err := collection.Open(filepath.Join(t.TempDir(), "collection.flashdb"))
	require.NoError(t, err)
	t.Cleanup(func() { dst.Close() })

	progress := &fakeProgress{}
	c := NewImportController(dst, importing.DefaultFormats(), progress, nil, nil)
	s, err := c.Begin(pkg)
	require.NoError(t, err)
	assert.False(t, s.NeedMapper())
	assert.Empty(t, s.DelimiterLabel())
	assert.Empty(t, progress.starts)

	summary, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	n, err := dst.NoteCount()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func setupMain(t *testing.T, cfg *config.Config) (*MainController, *fakeView) {
	t.Helper()
	pm, err := profiles.Open(t.TempDir(), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { pm.Close() })

	if cfg == nil {
		cfg = &config.Config{}
	}
	mc := NewMainController(cfg, pm, logger.Nop())
	view := &fakeView{}
	mc.SetMainView(view)
	return mc, view
}

func TestMainController_OpenAndClose(t *testing.T) {
	mc, view := setupMain(t, &config.Config{Backup: config.Backup{OnClose: true}})
	hooks := &fakeHooks{}
	mc.UseHooks(hooks)

	_, err := mc.Collection()
	assert.ErrorIs(t, err, ErrNoProfile)

	ok, err := mc.OpenProfile(profiles.DefaultProfileName, "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, profiles.DefaultProfileName, mc.ProfileName())
	assert.Equal(t, profiles.DefaultProfileName, view.profile)
	assert.Equal(t, 1, view.decks)
	assert.Equal(t, []string{collection.DefaultDeckName}, view.deckNames)
	assert.Equal(t, []string{profiles.DefaultProfileName}, hooks.loaded)

	mc.SaveGeometry(800, 600)
	require.NoError(t, mc.CloseProfile())
	assert.Empty(t, mc.ProfileName())
	assert.Empty(t, view.profile)

	folder, err := mc.profiles.BackupFolder(profiles.DefaultProfileName)
	require.NoError(t, err)
	entries, err := os.ReadDir(folder)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	ok, err = mc.OpenProfile(profiles.DefaultProfileName, "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, &profiles.WindowGeometry{Width: 800, Height: 600}, mc.Geometry())
	require.NoError(t, mc.Shutdown())
}

func TestMainController_WrongPassword(t *testing.T) {
	mc, _ := setupMain(t, nil)
	require.NoError(t, mc.SetPassword(profiles.DefaultProfileName, "secret"))

	ok, err := mc.OpenProfile(profiles.DefaultProfileName, "guess")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, mc.ProfileName())

	ok, err = mc.OpenProfile(profiles.DefaultProfileName, "secret")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mc.CloseProfile())
}

func TestMainController_OpenProfileBlocksRenameAndRemove(t *testing.T) {
	mc, _ := setupMain(t, nil)
	require.NoError(t, mc.CreateProfile("Second"))
	ok, err := mc.OpenProfile(profiles.DefaultProfileName, "")
	require.NoError(t, err)
	require.True(t, ok)
	t.Cleanup(func() { mc.CloseProfile() })

	assert.ErrorIs(t, mc.RemoveProfile(profiles.DefaultProfileName), ErrProfileOpen)
	assert.ErrorIs(t, mc.RenameProfile(profiles.DefaultProfileName, "Other"), ErrProfileOpen)

	require.NoError(t, mc.RenameProfile("Second", "Third"))
	require.NoError(t, mc.RemoveProfile("Third"))
	names, err := mc.Profiles()
	require.NoError(t, err)
	assert.Equal(t, []string{profiles.DefaultProfileName}, names)
}

func TestMainController_ImportExportEvents(t *testing.T) {
	mc, view := setupMain(t, nil)
	hooks := &fakeHooks{}
	mc.UseHooks(hooks)

	_, err := mc.NewImport()
	assert.ErrorIs(t, err, ErrNoProfile)

	ok, err := mc.OpenProfile(profiles.DefaultProfileName, "")
	require.NoError(t, err)
	require.True(t, ok)
	t.Cleanup(func() { mc.CloseProfile() })

	imp, err := mc.NewImport()
	require.NoError(t, err)
	path := writeFile(t, "in.txt", "hola\thi\n")
	s, err := imp.Begin(path)
	require.NoError(t, err)
	_, err = s.Run()
	require.NoError(t, err)
	assert.Equal(t, []ImportedEvent{{Path: path, Total: 1}}, hooks.imported)
	assert.EqualValues(t, 1, view.notes)

	exp, err := mc.NewExport()
	require.NoError(t, err)
	_, err = exp.SelectFormat(1)
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "out.txt")
	_, err = exp.Export(0, out)
	require.NoError(t, err)
	assert.Equal(t, []ExportedEvent{{Path: out, Count: 1}}, hooks.exported)

	backupPath, err := mc.BackupNow()
	require.NoError(t, err)
	assert.FileExists(t, backupPath)
}

func TestMainController_HandlerErrorsAreShown(t *testing.T) {
	mc, view := setupMain(t, nil)
	mc.addEventListener(EventExported, func(interface{}) error { return errors.New("boom") })

	mc.Exported("x.txt", 1)
	assert.Equal(t, []string{"Event handler error (exported): boom"}, view.errors)
}

func TestMainController_Language(t *testing.T) {
	mc, _ := setupMain(t, nil)
	assert.True(t, mc.NeedsLanguage())
	assert.NotEmpty(t, mc.SuggestedLanguage())

	assert.Error(t, mc.SetLanguage("tlh"))
	require.NoError(t, mc.SetLanguage("de"))
	assert.False(t, mc.NeedsLanguage())
}
