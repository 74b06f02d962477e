package dom

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSelector is returned for selectors outside the supported subset
// or with unbalanced brackets and quotes.
var ErrInvalidSelector = errors.New("dom: invalid selector")

// selectorMeta lists the characters that must be escaped to appear literally
// inside a selector.
const selectorMeta = "!\"#$%&'()*+,./:;<=>?@[\\]^`{|}~"

// EscapeSelector backslash-escapes every selector metacharacter in s.
func EscapeSelector(s string) string {
	if !strings.ContainsAny(s, selectorMeta) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for _, r := range s {
		if r < 0x80 && strings.ContainsRune(selectorMeta, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Selector is a parsed selector: compounds joined by descendant combinators.
type Selector struct {
	parts []compound
	src   string
}

type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrMatch
}

type attrMatch struct {
	name     string
	value    string
	hasValue bool
}

// String returns the source text of the selector.
func (s *Selector) String() string {
	return s.src
}

// ParseSelector parses a selector in the supported subset: tag names, .class,
// #id, [attr], [attr=value] and [attr="value"], combined with whitespace.
func ParseSelector(src string) (*Selector, error) {
	p := &selectorParser{src: src}
	sel := &Selector{src: src}
	p.skipSpace()
	for !p.eof() {
		c, err := p.compound()
		if err != nil {
			return nil, err
		}
		sel.parts = append(sel.parts, c)
		if !p.eof() && !p.skipSpace() {
			return nil, p.errorf("unexpected %q", p.src[p.pos])
		}
	}
	if len(sel.parts) == 0 {
		return nil, p.errorf("empty selector")
	}
	return sel, nil
}

// Find returns the elements below n (n itself excluded) matching selector,
// in document order.
func (n *Node) Find(selector string) ([]*Node, error) {
	sel, err := ParseSelector(selector)
	if err != nil {
		return nil, err
	}
	return n.FindSelector(sel), nil
}

// FindSelector is Find with a pre-parsed selector.
func (n *Node) FindSelector(sel *Selector) []*Node {
	var out []*Node
	for _, c := range n.children {
		c.walk(func(x *Node) bool {
			if x.Kind == KindElement && sel.Matches(x) {
				out = append(out, x)
			}
			return true
		})
	}
	return out
}

// Matches reports whether el matches the selector. Ancestor compounds may
// match anywhere up the tree.
func (s *Selector) Matches(el *Node) bool {
	last := len(s.parts) - 1
	if !s.parts[last].matches(el) {
		return false
	}
	i := last - 1
	for p := el.parent; p != nil && i >= 0; p = p.parent {
		if s.parts[i].matches(p) {
			i--
		}
	}
	return i < 0
}

func (c *compound) matches(el *Node) bool {
	if el.Kind != KindElement {
		return false
	}
	if c.tag != "" && c.tag != "*" && c.tag != el.Tag {
		return false
	}
	if c.id != "" && el.ID() != c.id {
		return false
	}
	for _, cl := range c.classes {
		if !el.HasClass(cl) {
			return false
		}
	}
	for _, a := range c.attrs {
		v, ok := el.Attr(a.name)
		if !ok || (a.hasValue && v != a.value) {
			return false
		}
	}
	return true
}

type selectorParser struct {
	src string
	pos int
}

func (p *selectorParser) eof() bool { return p.pos >= len(p.src) }

func (p *selectorParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %q at %d: %s", ErrInvalidSelector, p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *selectorParser) skipSpace() bool {
	start := p.pos
	for !p.eof() && isSpace(p.src[p.pos]) {
		p.pos++
	}
	return p.pos > start
}

func (p *selectorParser) compound() (compound, error) {
	var c compound
	start := p.pos
	if !p.eof() && (isIdentByte(p.src[p.pos]) || p.src[p.pos] == '*') {
		if p.src[p.pos] == '*' {
			p.pos++
			c.tag = "*"
		} else {
			c.tag = strings.ToLower(p.ident())
		}
	}
	for !p.eof() {
		switch p.src[p.pos] {
		case '.':
			p.pos++
			name := p.ident()
			if name == "" {
				return c, p.errorf("expected class name")
			}
			c.classes = append(c.classes, name)
		case '#':
			p.pos++
			name := p.ident()
			if name == "" {
				return c, p.errorf("expected id")
			}
			c.id = name
		case '[':
			a, err := p.attr()
			if err != nil {
				return c, err
			}
			c.attrs = append(c.attrs, a)
		default:
			if p.pos == start {
				return c, p.errorf("unexpected %q", p.src[p.pos])
			}
			return c, nil
		}
	}
	return c, nil
}

func (p *selectorParser) attr() (attrMatch, error) {
	var a attrMatch
	p.pos++ // [
	p.skipSpace()
	a.name = strings.ToLower(p.ident())
	if a.name == "" {
		return a, p.errorf("expected attribute name")
	}
	p.skipSpace()
	if p.eof() {
		return a, p.errorf("unterminated attribute selector")
	}
	if p.src[p.pos] == '=' {
		p.pos++
		p.skipSpace()
		if p.eof() {
			return a, p.errorf("expected attribute value")
		}
		a.hasValue = true
		if q := p.src[p.pos]; q == '"' || q == '\'' {
			v, err := p.quoted(q)
			if err != nil {
				return a, err
			}
			a.value = v
		} else {
			a.value = p.ident()
			if a.value == "" {
				return a, p.errorf("expected attribute value")
			}
		}
		p.skipSpace()
	}
	if p.eof() || p.src[p.pos] != ']' {
		return a, p.errorf("expected ]")
	}
	p.pos++
	return a, nil
}

// ident reads an identifier, resolving backslash escapes.
func (p *selectorParser) ident() string {
	var sb strings.Builder
	for !p.eof() {
		b := p.src[p.pos]
		if b == '\\' && p.pos+1 < len(p.src) {
			sb.WriteByte(p.src[p.pos+1])
			p.pos += 2
			continue
		}
		if !isIdentByte(b) {
			break
		}
		sb.WriteByte(b)
		p.pos++
	}
	return sb.String()
}

func (p *selectorParser) quoted(q byte) (string, error) {
	p.pos++
	var sb strings.Builder
	for !p.eof() {
		b := p.src[p.pos]
		switch {
		case b == '\\' && p.pos+1 < len(p.src):
			sb.WriteByte(p.src[p.pos+1])
			p.pos += 2
		case b == q:
			p.pos++
			return sb.String(), nil
		default:
			sb.WriteByte(b)
			p.pos++
		}
	}
	return "", p.errorf("unterminated string")
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

func isIdentByte(b byte) bool {
	return b == '-' || b == '_' || b >= 0x80 ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
