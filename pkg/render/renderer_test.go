package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/vango-dev/sliderbind/pkg/dom"
	"github.com/vango-dev/sliderbind/pkg/jslider"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"plain", escapeHTML, "Hello, World!", "Hello, World!"},
		{"ampersand", escapeHTML, "Tom & Jerry", "Tom &amp; Jerry"},
		{"script tag", escapeHTML, "<script>alert('xss')</script>", "&lt;script&gt;alert(&#39;xss&#39;)&lt;/script&gt;"},
		{"unicode", escapeHTML, "Hello 世界", "Hello 世界"},
		{"attr quote", escapeAttr, `say "hi"`, "say &quot;hi&quot;"},
		{"attr newline", escapeAttr, "a\nb\tc", "a&#10;b&#9;c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderElement(t *testing.T) {
	d := dom.NewDocument()
	label := d.CreateElement("label", d.CreateText("Price <USD>")).SetAttr("for", "price")
	input := d.CreateElement("input").
		SetAttr("type", "text").
		SetAttr("id", "price").
		AddClass("jslider").
		SetAttr("data-to", "100").
		SetAttr("disabled", "")
	div := d.CreateElement("div", label, input).SetStyle("width", "300px")

	r := NewRenderer(RendererConfig{})
	got, err := r.RenderToString(div)
	if err != nil {
		t.Fatal(err)
	}
	want := `<div style="width: 300px"><label for="price">Price &lt;USD&gt;</label>` +
		`<input id="price" class="jslider" data-to="100" disabled type="text"></div>`
	if got != want {
		t.Errorf("RenderToString() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	d := dom.NewDocument()
	jslider.Install(d)
	el := d.CreateElement("input").SetAttr("id", "s").AddClass("jslider").
		SetAttr("data-from", "0").SetAttr("data-to", "10").SetAttr("value", "2;8")
	d.Root().AppendChild(el)
	if _, err := jslider.Setup(el); err != nil {
		t.Fatal(err)
	}

	r := NewRenderer(RendererConfig{})
	first, err := r.RenderToString(d.Root())
	if err != nil {
		t.Fatal(err)
	}
	second, _ := r.RenderToString(d.Root())
	if first != second {
		t.Error("two renders differ")
	}
	if !strings.Contains(first, `<span class="jslider jslider_range">`) {
		t.Errorf("widget markup missing from %s", first)
	}
	if !strings.Contains(first, `type="hidden"`) || !strings.Contains(first, `value="2;8"`) {
		t.Errorf("input not rendered as hidden with its value: %s", first)
	}
}

func TestRenderRawIsSanitized(t *testing.T) {
	d := dom.NewDocument()
	div := d.CreateElement("div", d.CreateRaw(`<b class="x" onclick="steal()">bold</b><script>alert(1)</script>`))

	got, err := NewRenderer(RendererConfig{}).RenderToString(div)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "script") || strings.Contains(got, "onclick") {
		t.Errorf("unsafe markup survived: %s", got)
	}
	if !strings.Contains(got, `<b class="x">bold</b>`) {
		t.Errorf("safe markup lost: %s", got)
	}

	trusted, _ := NewRenderer(RendererConfig{TrustRaw: true}).RenderToString(div)
	if !strings.Contains(trusted, "<script>") {
		t.Errorf("TrustRaw sanitized anyway: %s", trusted)
	}
}

func TestRenderPretty(t *testing.T) {
	d := dom.NewDocument()
	div := d.CreateElement("div", d.CreateElement("p", d.CreateText("x")))

	got, err := NewRenderer(RendererConfig{Pretty: true}).RenderToString(div)
	if err != nil {
		t.Fatal(err)
	}
	want := "<div>\n  <p>x</p>\n</div>\n"
	if got != want {
		t.Errorf("pretty output = %q, want %q", got, want)
	}
}

func TestRenderElementKinds(t *testing.T) {
	d := dom.NewDocument()
	tests := []struct {
		name string
		node *dom.Node
		want string
	}{
		{
			name: "void element",
			node: d.CreateElement("p", d.CreateText("a"), d.CreateElement("br"), d.CreateText("b")),
			want: "<p>a<br>b</p>",
		},
		{
			name: "boolean attribute",
			node: d.CreateElement("input").SetAttr("readonly", ""),
			want: "<input readonly>",
		},
		{
			name: "empty regular attribute",
			node: d.CreateElement("input").SetAttr("value", ""),
			want: `<input value="">`,
		},
		{
			name: "empty non-void element",
			node: d.CreateElement("span"),
			want: "<span></span>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewRenderer(RendererConfig{}).RenderToString(tt.node)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("RenderToString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderPage(t *testing.T) {
	d := dom.NewDocument()
	d.Root().AppendChild(d.CreateElement("h1", d.CreateText("Demo")))

	var buf bytes.Buffer
	err := NewRenderer(RendererConfig{}).RenderPage(&buf, PageData{
		Body:        d.Root(),
		Title:       "Sliders & more",
		Page:        "demo",
		StyleSheets: []string{"/static/jslider.css"},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>Sliders &amp; more</title>",
		`<link rel="stylesheet" href="/static/jslider.css">`,
		`<body data-page="demo" data-ws="/ws">`,
		"<h1>Demo</h1>",
		`<script src="` + DefaultClientScript + `" defer></script>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("page missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "<body") != 1 {
		t.Errorf("document root rendered as a nested body:\n%s", got)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }

var errWrite = errors.New("write failed")

func TestRenderWriteError(t *testing.T) {
	d := dom.NewDocument()
	err := NewRenderer(RendererConfig{}).RenderToWriter(failingWriter{}, d.CreateElement("p"))
	if !errors.Is(err, errWrite) {
		t.Errorf("RenderToWriter() error = %v, want write error", err)
	}
}
