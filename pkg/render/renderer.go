package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/vango-dev/sliderbind/pkg/dom"
)

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// Pretty enables indented output. Use it for debugging only: it adds
	// whitespace text between block elements.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces.
	Indent string

	// TrustRaw writes raw HTML nodes without sanitizing them.
	TrustRaw bool
}

// Renderer writes dom trees as HTML.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

// RenderToString renders node and its subtree to a string.
func (r *Renderer) RenderToString(node *dom.Node) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToWriter streams node and its subtree to w.
func (r *Renderer) RenderToWriter(w io.Writer, node *dom.Node) error {
	ew := &errWriter{w: w}
	r.renderNode(ew, node, 0)
	return ew.err
}

// RenderChildren renders the children of node without node itself. It is
// what a page body uses, since the document root is the <body> element.
func (r *Renderer) RenderChildren(w io.Writer, node *dom.Node) error {
	ew := &errWriter{w: w}
	for _, c := range node.Children() {
		r.renderNode(ew, c, 0)
	}
	return ew.err
}

func (r *Renderer) renderNode(w *errWriter, node *dom.Node, depth int) {
	if node == nil || w.err != nil {
		return
	}
	switch node.Kind {
	case dom.KindElement:
		r.renderElement(w, node, depth)
	case dom.KindText:
		w.WriteString(escapeHTML(node.Text))
	case dom.KindRaw:
		if r.config.TrustRaw {
			w.WriteString(node.Text)
		} else {
			w.WriteString(sanitizeRaw(node.Text))
		}
	default:
		w.fail(fmt.Errorf("render: unknown node kind %s", node.Kind))
	}
}

func (r *Renderer) renderElement(w *errWriter, node *dom.Node, depth int) {
	tag := node.Tag
	if r.config.Pretty && depth > 0 && !isInlineElement(tag) {
		r.writeIndent(w, depth)
	}

	w.WriteString("<" + tag)
	for _, name := range node.AttrNames() {
		value, _ := node.Attr(name)
		if value == "" && isBooleanAttr(name) {
			w.WriteString(" " + name)
			continue
		}
		w.WriteString(" " + name + `="` + escapeAttr(value) + `"`)
	}
	w.WriteString(">")

	if isVoidElement(tag) {
		if r.config.Pretty && !isInlineElement(tag) {
			w.WriteString("\n")
		}
		return
	}

	children := node.Children()
	block := r.config.Pretty && len(children) > 0 && !isInlineElement(tag) && hasElementChild(node)
	if block {
		w.WriteString("\n")
	}
	for _, c := range children {
		r.renderNode(w, c, depth+1)
	}
	if block {
		r.writeIndent(w, depth)
	}

	w.WriteString("</" + tag + ">")
	if r.config.Pretty && !isInlineElement(tag) {
		w.WriteString("\n")
	}
}

func hasElementChild(node *dom.Node) bool {
	for _, c := range node.Children() {
		if c.Kind == dom.KindElement {
			return true
		}
	}
	return false
}

func (r *Renderer) writeIndent(w *errWriter, depth int) {
	for i := 0; i < depth; i++ {
		w.WriteString(r.config.Indent)
	}
}

// errWriter remembers the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) WriteString(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

func (e *errWriter) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}
