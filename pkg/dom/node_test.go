package dom

import (
	"math"
	"testing"
)

func TestInsertAfterAndNext(t *testing.T) {
	d := NewDocument()
	a := d.CreateElement("input")
	c := d.CreateElement("p")
	d.Root().AppendChild(a).AppendChild(d.CreateText("gap")).AppendChild(c)

	if got := a.Next(); got != c {
		t.Fatalf("Next() skipped to %v, want <p>", got)
	}

	b := d.CreateElement("span").AddClass("jslider")
	a.InsertAfter(b)

	if got := a.Next(); got != b {
		t.Errorf("Next() after InsertAfter = %v, want span", got)
	}
	if got := b.Next(); got != c {
		t.Errorf("span.Next() = %v, want p", got)
	}
	if b.Parent() != d.Root() {
		t.Error("inserted node has wrong parent")
	}
	if n := len(d.Root().Children()); n != 4 {
		t.Errorf("root has %d children, want 4", n)
	}
}

func TestTextContent(t *testing.T) {
	d := NewDocument()
	label := d.CreateElement("label", d.CreateText("Speed "), d.CreateElement("b", d.CreateText("(km/h)")))

	if got := label.TextContent(); got != "Speed (km/h)" {
		t.Errorf("TextContent() = %q", got)
	}

	label.SetTextContent("Distance")
	if got := label.TextContent(); got != "Distance" {
		t.Errorf("after SetTextContent: %q", got)
	}
	if n := len(label.Children()); n != 1 {
		t.Errorf("children = %d, want 1", n)
	}

	label.SetTextContent("")
	if n := len(label.Children()); n != 0 {
		t.Errorf("children after clearing = %d, want 0", n)
	}
}

func TestRemoveNotifiesDescendantsFirst(t *testing.T) {
	d := NewDocument()
	outer := d.CreateElement("div").SetAttr("id", "outer")
	inner := d.CreateElement("input").SetAttr("id", "inner")
	outer.AppendChild(inner)
	d.Root().AppendChild(outer)

	var order []string
	d.OnRemove(func(n *Node) { order = append(order, n.ID()) })

	outer.Remove()

	if len(order) != 2 || order[0] != "inner" || order[1] != "outer" {
		t.Errorf("remove order = %v, want [inner outer]", order)
	}
	if outer.Parent() != nil || len(d.Root().Children()) != 0 {
		t.Error("element still attached after Remove")
	}
	if d.ElementByID("inner") != nil {
		t.Error("ElementByID found removed element")
	}
}

func TestAttributes(t *testing.T) {
	d := NewDocument()
	el := d.CreateElement("INPUT").
		SetAttr("type", "text").
		SetAttr("id", "x").
		SetAttr("class", "jslider  wide").
		SetAttr("style", "width: 10px; color:red")

	if el.Tag != "input" {
		t.Errorf("Tag = %q, want lower case", el.Tag)
	}
	if v, _ := el.Attr("class"); v != "jslider wide" {
		t.Errorf("class = %q", v)
	}
	if el.Style("color") != "red" {
		t.Errorf("color = %q", el.Style("color"))
	}
	el.SetStyle("width", "")
	if v, _ := el.Attr("style"); v != "color: red" {
		t.Errorf("style = %q", v)
	}

	names := el.AttrNames()
	want := []string{"id", "class", "type", "style"}
	if len(names) != len(want) {
		t.Fatalf("AttrNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("AttrNames()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	if got := el.AttrOr("missing", "def"); got != "def" {
		t.Errorf("AttrOr = %q", got)
	}
	el.RemoveAttr("type")
	if _, ok := el.Attr("type"); ok {
		t.Error("type still set after RemoveAttr")
	}
}

func TestData(t *testing.T) {
	d := NewDocument()
	el := d.CreateElement("input").
		SetAttr("data-width", "300").
		SetAttr("data-animating", "true").
		SetAttr("data-label", "50%").
		SetAttr("data-padded", "007").
		SetAttr("data-nothing", "null")

	tests := []struct {
		key  string
		want any
	}{
		{"width", 300.0},
		{"animating", true},
		{"label", "50%"},
		{"padded", "007"},
		{"nothing", nil},
	}
	for _, tt := range tests {
		got, ok := el.Data(tt.key)
		if !ok || got != tt.want {
			t.Errorf("Data(%q) = %v (%T), %v; want %v", tt.key, got, got, ok, tt.want)
		}
	}

	if _, ok := el.Data("absent"); ok {
		t.Error("Data(absent) reported ok")
	}

	el.SetData("animating", false)
	if v, _ := el.Data("animating"); v != false {
		t.Errorf("explicit data not preferred: %v", v)
	}
	el.RemoveData("animating")
	if v, _ := el.Data("animating"); v != true {
		t.Errorf("attribute fallback lost after RemoveData: %v", v)
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{"", false},
		{"x", true},
		{0.0, false},
		{math.NaN(), false},
		{2.5, true},
		{0, false},
		{1, true},
		{struct{}{}, true},
	}
	for _, tt := range tests {
		if got := Truthy(tt.v); got != tt.want {
			t.Errorf("Truthy(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindElement, "Element"},
		{KindText, "Text"},
		{KindRaw, "Raw"},
		{Kind(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
