// Package fastview pushes server-rendered views to a browser: a data model is converted
// once to a view-model, fanned out to any number of views, and each view emits element
// updates that a small page script applies by element id.
package fastview

import (
	"html/template"
)

// EleUpdate targets one page element by id.
type EleUpdate struct {
	EleId string
	Ops   []Op
}

// Op sets an attribute of the element to Value. The key "textContent" sets the
// element's text instead.
type Op struct {
	Key   string
	Value string
}

// ViewComponent is one server-side view.
type ViewComponent interface {
	// Updates streams the element updates that bring the page up to date.
	Updates() <-chan []EleUpdate
	// Parse defines the view's initial markup in the given template, which supplies
	// the func-map, and returns the defined template's name.
	Parse(*template.Template) (string, error)
}
