package dom

import "strings"

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement Kind = iota // <input>, <label>, etc.
	KindText                // Plain text node
	KindRaw                 // Raw HTML fragment
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// Node is a node of a Document. Element state (attributes, data, style,
// listeners) is only meaningful for KindElement nodes.
type Node struct {
	Kind Kind
	Tag  string // Element tag name, lower case
	Text string // For KindText and KindRaw

	attrs     map[string]string
	classes   []string
	style     map[string]string
	styleKeys []string
	data      map[string]any

	parent   *Node
	children []*Node
	doc      *Document

	listeners []listener
}

// Element is the node type bindings work with. It is an alias so that
// callers can spell intent without a conversion.
type Element = Node

// Document owns a tree of nodes and the set of installed plugins.
type Document struct {
	root     *Node
	plugins  map[string]any
	onRemove []func(*Node)
}

// NewDocument creates an empty document with a <body> root.
func NewDocument() *Document {
	d := &Document{plugins: make(map[string]any)}
	d.root = d.CreateElement("body")
	return d
}

// Root returns the document's root element.
func (d *Document) Root() *Node {
	return d.root
}

// CreateElement creates a detached element owned by d.
func (d *Document) CreateElement(tag string, children ...*Node) *Node {
	n := &Node{Kind: KindElement, Tag: strings.ToLower(tag), doc: d}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

// CreateText creates a detached text node.
func (d *Document) CreateText(text string) *Node {
	return &Node{Kind: KindText, Text: text, doc: d}
}

// CreateRaw creates a detached raw HTML node. The renderer sanitizes it.
func (d *Document) CreateRaw(html string) *Node {
	return &Node{Kind: KindRaw, Text: html, doc: d}
}

// SetPlugin installs a plugin under name, the way a page loads a script.
func (d *Document) SetPlugin(name string, plugin any) {
	d.plugins[name] = plugin
}

// Plugin returns the plugin installed under name, or nil.
func (d *Document) Plugin(name string) any {
	return d.plugins[name]
}

// OnRemove registers fn to be called for every element detached by Remove,
// descendants first.
func (d *Document) OnRemove(fn func(*Node)) {
	d.onRemove = append(d.onRemove, fn)
}

// ElementByID returns the first element in the document with the given id.
func (d *Document) ElementByID(id string) *Node {
	var found *Node
	d.root.walk(func(n *Node) bool {
		if n.Kind == KindElement && n.attrs["id"] == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Document returns the document that owns n.
func (n *Node) Document() *Document {
	return n.doc
}

// Parent returns the parent node, or nil for detached nodes and the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the child nodes. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// AppendChild appends c to n's children, detaching it from any previous parent.
func (n *Node) AppendChild(c *Node) *Node {
	if c == nil {
		return n
	}
	c.detach()
	c.parent = n
	c.adopt(n.doc)
	n.children = append(n.children, c)
	return n
}

// InsertAfter inserts c as the sibling immediately following n.
// It panics if n has no parent.
func (n *Node) InsertAfter(c *Node) {
	p := n.parent
	if p == nil {
		panic("dom: InsertAfter on detached node")
	}
	c.detach()
	idx := p.indexOf(n)
	c.parent = p
	c.adopt(p.doc)
	p.children = append(p.children, nil)
	copy(p.children[idx+2:], p.children[idx+1:])
	p.children[idx+1] = c
}

// Next returns the next element sibling, skipping text and raw nodes.
func (n *Node) Next() *Node {
	if n.parent == nil {
		return nil
	}
	sibs := n.parent.children
	for i := n.parent.indexOf(n) + 1; i < len(sibs); i++ {
		if sibs[i].Kind == KindElement {
			return sibs[i]
		}
	}
	return nil
}

// Remove detaches n from its parent and notifies the document's remove hooks
// for n and every element below it.
func (n *Node) Remove() {
	n.detach()
	if n.doc == nil || len(n.doc.onRemove) == 0 {
		return
	}
	var removed []*Node
	n.walk(func(c *Node) bool {
		if c.Kind == KindElement {
			removed = append(removed, c)
		}
		return true
	})
	for i := len(removed) - 1; i >= 0; i-- {
		for _, fn := range n.doc.onRemove {
			fn(removed[i])
		}
	}
}

// Contains reports whether other is n or a descendant of n.
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	if n.Kind != KindElement {
		return n.Text
	}
	var sb strings.Builder
	n.walk(func(c *Node) bool {
		if c.Kind == KindText {
			sb.WriteString(c.Text)
		}
		return true
	})
	return sb.String()
}

// SetTextContent replaces n's children with a single text node.
func (n *Node) SetTextContent(text string) {
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
	if text != "" {
		n.AppendChild(n.doc.CreateText(text))
	}
}

func (n *Node) detach() {
	p := n.parent
	if p == nil {
		return
	}
	idx := p.indexOf(n)
	if idx >= 0 {
		p.children = append(p.children[:idx], p.children[idx+1:]...)
	}
	n.parent = nil
}

func (n *Node) adopt(d *Document) {
	if d == nil || n.doc == d {
		return
	}
	n.walk(func(c *Node) bool {
		c.doc = d
		return true
	})
}

func (n *Node) indexOf(c *Node) int {
	for i, x := range n.children {
		if x == c {
			return i
		}
	}
	return -1
}

// walk visits n and its descendants depth-first, pre-order. Returning false
// from fn stops the walk.
func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}
