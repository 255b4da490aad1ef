// Package controllers holds the dialog logic between the Fyne views and the
// collection, exporting, importing and profiles packages. Controllers are
// synchronous; views call them from a goroutine while a progress dialog is
// shown.
package controllers

// Progress brackets a blocking operation. Views implement it with a modal
// progress dialog.
type Progress interface {
	Start(title string)
	Finish()
}

// Hooks receives notifications after successful operations. The add-on
// registry implements it.
type Hooks interface {
	ProfileLoaded(profile string)
	Imported(path string, total int)
	Exported(path string, count int)
}

type nopProgress struct{}

func (nopProgress) Start(string) {}
func (nopProgress) Finish()      {}

type nopHooks struct{}

func (nopHooks) ProfileLoaded(string) {}
func (nopHooks) Imported(string, int) {}
func (nopHooks) Exported(string, int) {}

func orNopProgress(p Progress) Progress {
	if p == nil {
		return nopProgress{}
	}
	return p
}

func orNopHooks(h Hooks) Hooks {
	if h == nil {
		return nopHooks{}
	}
	return h
}
