// Package addons runs user scripts found in the shared add-on folder.
//
// Each add-on is a folder of Go source files interpreted with yaegi. An
// add-on may define any of these functions in its package:
//
//	func Name() string
//	func OnProfileLoaded(profile string)
//	func OnImported(path string, total int)
//	func OnExported(path string, count int)
package addons

import (
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"flashdesk/internal/logger"
)

// Addon is one loaded script package.
type Addon struct {
	Dir  string
	Name string

	onProfileLoaded func(string)
	onImported      func(string, int)
	onExported      func(string, int)
}

// Registry holds the add-ons loaded at startup.
type Registry struct {
	addons []*Addon
	logger logger.Logger
	// Failed maps folder names to the error that kept them from loading.
	Failed map[string]error
}

// Load interprets every add-on folder under dir except those listed in
// disabled. Broken add-ons are recorded in Failed and skipped.
func Load(dir string, disabled []string, out io.Writer, log logger.Logger) (*Registry, error) {
	if log == nil {
		log = logger.Nop()
	}
	if out == nil {
		out = io.Discard
	}
	r := &Registry{logger: log, Failed: make(map[string]error)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to read add-on folder: %w", err)
	}

	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if slices.Contains(disabled, e.Name()) {
			log.Debug("addons", "add-on disabled", map[string]interface{}{"addon": e.Name()})
			continue
		}

		addon, err := loadOne(filepath.Join(dir, e.Name()), out)
		if err != nil {
			r.Failed[e.Name()] = err
			log.Error("addons", err, map[string]interface{}{"addon": e.Name()})
			continue
		}
		r.addons = append(r.addons, addon)
		log.Info("addons", "add-on loaded", map[string]interface{}{"addon": addon.Name})
	}
	return r, nil
}

func loadOne(dir string, out io.Writer) (*Addon, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return nil, err
	}
	files = slices.DeleteFunc(files, func(f string) bool { return strings.HasSuffix(f, "_test.go") })
	if len(files) == 0 {
		return nil, fmt.Errorf("no Go files in %s", dir)
	}
	sort.Strings(files)

	i := interp.New(interp.Options{Stdout: out, Stderr: out})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib symbols: %w", err)
	}

	pkg := ""
	fset := token.NewFileSet()
	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		clause, err := parser.ParseFile(fset, f, src, parser.PackageClauseOnly)
		if err != nil {
			return nil, err
		}
		if pkg == "" {
			pkg = clause.Name.Name
		} else if clause.Name.Name != pkg {
			return nil, fmt.Errorf("%s: package %s, expected %s", filepath.Base(f), clause.Name.Name, pkg)
		}
		if _, err := i.Eval(string(src)); err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(f), err)
		}
	}

	a := &Addon{Dir: dir, Name: filepath.Base(dir)}
	if fn, ok := lookup[func() string](i, pkg, "Name"); ok {
		if name := strings.TrimSpace(safeName(fn)); name != "" {
			a.Name = name
		}
	}
	a.onProfileLoaded, _ = lookup[func(string)](i, pkg, "OnProfileLoaded")
	a.onImported, _ = lookup[func(string, int)](i, pkg, "OnImported")
	a.onExported, _ = lookup[func(string, int)](i, pkg, "OnExported")
	return a, nil
}

// lookup fetches an interpreted function with the given signature.
func lookup[F any](i *interp.Interpreter, pkg, name string) (F, bool) {
	var zero F
	v, err := i.Eval(pkg + "." + name)
	if err != nil || !v.IsValid() || v.Kind() != reflect.Func {
		return zero, false
	}
	fn, ok := v.Interface().(F)
	return fn, ok
}

func safeName(fn func() string) (name string) {
	defer func() {
		if recover() != nil {
			name = ""
		}
	}()
	return fn()
}

// Addons returns the loaded add-ons in folder order.
func (r *Registry) Addons() []*Addon {
	return r.addons
}

// ProfileLoaded runs every OnProfileLoaded hook.
func (r *Registry) ProfileLoaded(profile string) {
	for _, a := range r.addons {
		if a.onProfileLoaded != nil {
			r.call(a, "OnProfileLoaded", func() { a.onProfileLoaded(profile) })
		}
	}
}

// Imported runs every OnImported hook.
func (r *Registry) Imported(path string, total int) {
	for _, a := range r.addons {
		if a.onImported != nil {
			r.call(a, "OnImported", func() { a.onImported(path, total) })
		}
	}
}

// Exported runs every OnExported hook.
func (r *Registry) Exported(path string, count int) {
	for _, a := range r.addons {
		if a.onExported != nil {
			r.call(a, "OnExported", func() { a.onExported(path, count) })
		}
	}
}

// call runs one hook. A panicking add-on is logged and does not stop the
// remaining hooks.
func (r *Registry) call(a *Addon, hook string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("addons", fmt.Errorf("%s panicked: %v", hook, p), map[string]interface{}{
				"addon": a.Name,
			})
		}
	}()
	fn()
}
