package render

import (
	"fmt"
	"io"

	"github.com/vango-dev/sliderbind/pkg/dom"
)

// DefaultClientScript is the path the page shell loads the client from.
const DefaultClientScript = "/static/sliderbind.js"

// PageData contains everything needed to render a complete HTML page.
type PageData struct {
	// Body is rendered inside <body>. Its own tag is not written when it is
	// a document root.
	Body *dom.Element

	// Title is the page title.
	Title string

	// Page is the page name the client requests on init.
	Page string

	// StyleSheets contains paths to external stylesheets.
	StyleSheets []string

	// ClientScript is the client path. Defaults to DefaultClientScript.
	ClientScript string

	// WebSocketPath is where the client connects. Defaults to "/ws".
	WebSocketPath string

	// Lang defaults to "en".
	Lang string
}

// RenderPage renders a complete HTML document to w.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}
	client := page.ClientScript
	if client == "" {
		client = DefaultClientScript
	}
	wsPath := page.WebSocketPath
	if wsPath == "" {
		wsPath = "/ws"
	}

	ew := &errWriter{w: w}
	ew.WriteString("<!DOCTYPE html>\n")
	ew.WriteString(fmt.Sprintf(`<html lang="%s">`+"\n", escapeAttr(lang)))
	ew.WriteString("<head>\n")
	ew.WriteString(`  <meta charset="utf-8">` + "\n")
	ew.WriteString(`  <meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")
	if page.Title != "" {
		ew.WriteString(fmt.Sprintf("  <title>%s</title>\n", escapeHTML(page.Title)))
	}
	for _, href := range page.StyleSheets {
		ew.WriteString(fmt.Sprintf(`  <link rel="stylesheet" href="%s">`+"\n", escapeAttr(href)))
	}
	ew.WriteString("</head>\n")

	ew.WriteString(fmt.Sprintf(`<body data-page="%s" data-ws="%s">`+"\n",
		escapeAttr(page.Page), escapeAttr(wsPath)))
	if page.Body != nil && ew.err == nil {
		var err error
		if page.Body.Tag == "body" {
			err = r.RenderChildren(w, page.Body)
		} else {
			err = r.RenderToWriter(w, page.Body)
		}
		ew.fail(err)
	}
	ew.WriteString(fmt.Sprintf("\n"+`  <script src="%s" defer></script>`+"\n", escapeAttr(client)))
	ew.WriteString("</body>\n</html>\n")
	return ew.err
}
