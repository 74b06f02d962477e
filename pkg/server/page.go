package server

import (
	"github.com/vango-dev/sliderbind/pkg/dom"
)

// Page builds the content of a document. Build runs on the session's event
// loop, after the widget library is installed on doc and before inputs are
// bound.
type Page struct {
	Name  string
	Title string
	Build func(doc *dom.Document) error
}

// PageFunc returns a Page with the title set to the name.
func PageFunc(name string, build func(doc *dom.Document) error) Page {
	return Page{Name: name, Title: name, Build: build}
}
