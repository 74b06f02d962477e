package dom

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Attr returns the attribute value and whether it is set.
// The class attribute is derived from the class list.
func (n *Node) Attr(name string) (string, bool) {
	if name == "class" {
		if len(n.classes) == 0 {
			return "", false
		}
		return strings.Join(n.classes, " "), true
	}
	if name == "style" {
		if len(n.styleKeys) == 0 {
			return "", false
		}
		return n.StyleString(), true
	}
	v, ok := n.attrs[name]
	return v, ok
}

// AttrOr returns the attribute value, or def when unset.
func (n *Node) AttrOr(name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// SetAttr sets an attribute. Setting class or style replaces the class list
// or inline style respectively.
func (n *Node) SetAttr(name, value string) *Node {
	name = strings.ToLower(name)
	switch name {
	case "class":
		n.classes = strings.Fields(value)
		return n
	case "style":
		n.style, n.styleKeys = nil, nil
		for _, decl := range strings.Split(value, ";") {
			prop, val, ok := strings.Cut(decl, ":")
			if ok {
				n.SetStyle(strings.TrimSpace(prop), strings.TrimSpace(val))
			}
		}
		return n
	}
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[name] = value
	return n
}

// RemoveAttr removes an attribute.
func (n *Node) RemoveAttr(name string) {
	switch name {
	case "class":
		n.classes = nil
	case "style":
		n.style, n.styleKeys = nil, nil
	default:
		delete(n.attrs, name)
	}
}

// AttrNames returns the names of all set attributes: id and class first,
// then the rest sorted.
func (n *Node) AttrNames() []string {
	names := make([]string, 0, len(n.attrs)+2)
	if _, ok := n.attrs["id"]; ok {
		names = append(names, "id")
	}
	if len(n.classes) > 0 {
		names = append(names, "class")
	}
	rest := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		if k != "id" {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)
	if len(n.styleKeys) > 0 {
		names = append(names, "style")
	}
	return names
}

// ID returns the id attribute.
func (n *Node) ID() string {
	return n.attrs["id"]
}

// Classes returns the class list. The slice must not be modified.
func (n *Node) Classes() []string {
	return n.classes
}

// HasClass reports whether the class list contains class.
func (n *Node) HasClass(class string) bool {
	for _, c := range n.classes {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends classes not already present.
func (n *Node) AddClass(classes ...string) *Node {
	for _, c := range classes {
		if c != "" && !n.HasClass(c) {
			n.classes = append(n.classes, c)
		}
	}
	return n
}

// Style returns an inline style property.
func (n *Node) Style(prop string) string {
	return n.style[prop]
}

// SetStyle sets an inline style property. An empty value removes it.
func (n *Node) SetStyle(prop, value string) *Node {
	if prop == "" {
		return n
	}
	if value == "" {
		if _, ok := n.style[prop]; ok {
			delete(n.style, prop)
			for i, k := range n.styleKeys {
				if k == prop {
					n.styleKeys = append(n.styleKeys[:i], n.styleKeys[i+1:]...)
					break
				}
			}
		}
		return n
	}
	if n.style == nil {
		n.style = make(map[string]string)
	}
	if _, ok := n.style[prop]; !ok {
		n.styleKeys = append(n.styleKeys, prop)
	}
	n.style[prop] = value
	return n
}

// StyleString renders the inline style in insertion order.
func (n *Node) StyleString() string {
	parts := make([]string, 0, len(n.styleKeys))
	for _, k := range n.styleKeys {
		parts = append(parts, k+": "+n.style[k])
	}
	return strings.Join(parts, "; ")
}

// Data returns the value stored under key. When nothing was stored
// explicitly, the data-<key> attribute is converted and cached: "true" and
// "false" become bools, "null" becomes nil, numeric text becomes float64 and
// anything else stays a string. The second result is false when neither
// exists.
func (n *Node) Data(key string) (any, bool) {
	if v, ok := n.data[key]; ok {
		return v, true
	}
	raw, ok := n.attrs["data-"+key]
	if !ok {
		return nil, false
	}
	v := convertData(raw)
	n.SetData(key, v)
	return v, true
}

// SetData stores a value under key without touching attributes.
func (n *Node) SetData(key string, value any) *Node {
	if n.data == nil {
		n.data = make(map[string]any)
	}
	n.data[key] = value
	return n
}

// RemoveData removes an explicitly stored value.
func (n *Node) RemoveData(key string) {
	delete(n.data, key)
}

func convertData(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && strconv.FormatFloat(f, 'f', -1, 64) == raw {
		return f
	}
	return raw
}

// Truthy reports whether v counts as set: nil, false, zero, NaN and the
// empty string are not.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	default:
		return true
	}
}
