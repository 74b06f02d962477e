// Package render serializes a dom.Document to HTML.
//
// Text and attribute values are escaped. Attributes are written in the
// order dom.Node.AttrNames returns them, so output is deterministic and
// two renders of the same tree are byte-identical. Raw HTML nodes are
// passed through a bluemonday UGC policy before they are written.
//
//	r := render.NewRenderer(render.RendererConfig{})
//	html, err := r.RenderToString(doc.Root())
//
// RenderPage wraps a body in a full document with the session bootstrap
// and client script.
package render
