package views

import (
	"os"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flashdesk/internal/collection"
	"flashdesk/internal/controllers"
	"flashdesk/internal/exporting"
	"flashdesk/internal/importing"
)

func setupSession(t *testing.T, data string) *controllers.ImportSession {
	t.Helper()
	col, err := collection.Open(filepath.Join(t.TempDir(), "collection.flashdb"))
	require.NoError(t, err)
	t.Cleanup(func() { col.Close() })

	path := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	s, err := controllers.NewImportController(col, importing.DefaultFormats(), nil, nil, nil).Begin(path)
	require.NoError(t, err)
	return s
}

func gridText(d *ImportDialog) []string {
	var texts []string
	for _, o := range d.grid.Objects {
		if l, ok := o.(*widget.Label); ok {
			texts = append(texts, l.Text)
		}
	}
	return texts
}

func TestImportDialog_MappingGrid(t *testing.T) {
	test.NewTempApp(t)
	w := test.NewTempWindow(t, nil)

	var ran *controllers.ImportSession
	s := setupSession(t, "uno\tone\tnum\n")
	d, err := NewImportDialog(w, s, func(s *controllers.ImportSession) { ran = s })
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Field 1 of file is:", "mapped to Front",
		"Field 2 of file is:", "mapped to Back",
		"Field 3 of file is:", "mapped to Tags",
	}, gridText(d))
	assert.Equal(t, "Auto-detected delimiter: Tab", d.delimiterButton.Text)
	assert.True(t, d.delimiterButton.Visible())
	assert.Equal(t, "Basic", d.modelSelect.Selected)

	d.changeMapping(2, "Front")
	assert.Equal(t, []string{
		"Field 1 of file is:", "<ignored>",
		"Field 2 of file is:", "mapped to Back",
		"Field 3 of file is:", "mapped to Front",
	}, gridText(d))

	d.onRun(s)
	assert.Same(t, s, ran)
}

func TestImportDialog_ModelChangeRebuildsGrid(t *testing.T) {
	test.NewTempApp(t)
	w := test.NewTempWindow(t, nil)

	d, err := NewImportDialog(w, setupSession(t, "a\tb\tc\n"), nil)
	require.NoError(t, err)

	d.modelSelect.SetSelected("Basic (optional reversed card)")
	texts := gridText(d)
	require.Len(t, texts, 6)
	assert.Equal(t, "mapped to Add Reverse", texts[5])
}

func TestChangeMapDialog(t *testing.T) {
	test.NewTempApp(t)
	w := test.NewTempWindow(t, nil)

	targets := []string{"Front", "Back", importing.TagsTarget, importing.DeckTarget, importing.Discard}
	var chosen string
	d := NewChangeMapDialog(w, targets, "Back", func(target string) { chosen = target })

	assert.Equal(t, []string{"Map to Front", "Map to Back", "Map to Tags", "Map to Deck", "Discard field"}, d.radio.Options)
	assert.Equal(t, "Back", d.Selected())

	d.radio.SetSelected("Map to Tags")
	d.confirm()
	assert.Equal(t, importing.TagsTarget, chosen)

	d.radio.SetSelected("Discard field")
	d.confirm()
	assert.Equal(t, importing.Discard, chosen)
}

func TestChangeMapDialog_FieldNamedLikeSpecialTarget(t *testing.T) {
	test.NewTempApp(t)
	w := test.NewTempWindow(t, nil)

	targets := []string{"Front", "Tags", importing.TagsTarget, importing.DeckTarget, importing.Discard}
	var chosen string
	d := NewChangeMapDialog(w, targets, importing.TagsTarget, func(target string) { chosen = target })

	assert.Equal(t, []string{"Map to Front", "Map to Tags (field)", "Map to Tags", "Map to Deck", "Discard field"}, d.radio.Options)
	assert.Equal(t, importing.TagsTarget, d.Selected())

	d.radio.SetSelected("Map to Tags")
	d.confirm()
	assert.Equal(t, importing.TagsTarget, chosen)

	d.radio.SetSelected("Map to Tags (field)")
	d.confirm()
	assert.Equal(t, "Tags", chosen)
}

func TestExportDialog_CheckboxesFollowKind(t *testing.T) {
	test.NewTempApp(t)
	view := NewMainView(test.NewTempWindow(t, nil))

	col, err := collection.Open(filepath.Join(t.TempDir(), "collection.flashdb"))
	require.NoError(t, err)
	t.Cleanup(func() { col.Close() })

	ctrl := controllers.NewExportController(col, exporting.DefaultFormats(), nil, nil, nil)
	d, err := NewExportDialog(view, ctrl, nil)
	require.NoError(t, err)

	assert.Equal(t, controllers.AllDecks, d.deckSelect.Selected)
	assert.True(t, d.includeSched.Visible())
	assert.True(t, d.includeMedia.Visible())
	assert.False(t, d.includeTags.Visible())

	d.formatSelect.SetSelectedIndex(1)
	assert.False(t, d.includeSched.Visible())
	assert.True(t, d.includeTags.Visible())
	assert.True(t, d.includeTags.Checked)

	d.includeTags.SetChecked(false)
	d.applyOptions()
	assert.False(t, ctrl.Options().IncludeTags)
	assert.Equal(t, "export.txt", ctrl.SuggestedFilename())
}

func TestExportNotice(t *testing.T) {
	assert.Equal(t, "1 exported.", ExportNotice(1))
	assert.Equal(t, "12,345 exported.", ExportNotice(12345))
}

func TestLanguagePicker(t *testing.T) {
	test.NewTempApp(t)
	w := test.NewTempWindow(t, nil)

	var chosen string
	p := NewLanguagePicker(w, "de", func(code string) { chosen = code })
	assert.Equal(t, "de", p.Selected())

	p.list.Select(0)
	p.confirm()
	assert.Equal(t, "af", chosen)

	assert.Equal(t, "en", NewLanguagePicker(w, "tlh", nil).Selected())
}

type fakeProfiles struct {
	names     []string
	opened    string
	pass      string
	passwords map[string]string
}

func (f *fakeProfiles) Profiles() ([]string, error) { return f.names, nil }
func (f *fakeProfiles) CreateProfile(name string) error {
	f.names = append(f.names, name)
	return nil
}
func (f *fakeProfiles) RenameProfile(oldName, newName string) error { return nil }
func (f *fakeProfiles) RemoveProfile(name string) error             { return nil }
func (f *fakeProfiles) SetPassword(name, password string) error {
	if f.passwords == nil {
		f.passwords = make(map[string]string)
	}
	f.passwords[name] = password
	return nil
}
func (f *fakeProfiles) OpenProfile(name, password string) (bool, error) {
	if password != f.pass {
		return false, nil
	}
	f.opened = name
	return true, nil
}

func TestProfileDialog_ListsAndSelects(t *testing.T) {
	test.NewTempApp(t)
	w := test.NewTempWindow(t, nil)

	pm := &fakeProfiles{names: []string{"Alice", "Bob"}}
	d := NewProfileDialog(w, pm, nil, nil)
	d.Show()
	assert.Equal(t, []string{"Alice", "Bob"}, d.Names())
	assert.Equal(t, "Alice", d.current())

	require.NoError(t, pm.CreateProfile("Carol"))
	require.NoError(t, d.reload("Carol"))
	assert.Equal(t, "Carol", d.current())
}

func TestProfileDialog_SetPassword(t *testing.T) {
	test.NewTempApp(t)
	w := test.NewTempWindow(t, nil)

	pm := &fakeProfiles{names: []string{"Alice"}}
	d := NewProfileDialog(w, pm, nil, nil)

	assert.ErrorIs(t, d.setPassword("Alice", "secret", "secrte"), errPasswordsDiffer)
	assert.NotContains(t, pm.passwords, "Alice")

	require.NoError(t, d.setPassword("Alice", "secret", "secret"))
	assert.Equal(t, "secret", pm.passwords["Alice"])

	require.NoError(t, d.setPassword("Alice", "", ""))
	assert.Equal(t, "", pm.passwords["Alice"])
}
