package render

// isVoidElement reports whether tag is an HTML void element: rendered with
// no children and no closing tag.
func isVoidElement(tag string) bool {
	switch tag {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "source", "track", "wbr":
		return true
	}
	return false
}

// isInlineElement reports whether tag stays on its line in pretty output.
// Only the phrasing tags that show up in widget markup and labels are
// listed.
func isInlineElement(tag string) bool {
	switch tag {
	case "a", "b", "br", "code", "em", "i", "small", "span", "strong",
		"sub", "sup", "wbr":
		return true
	}
	return false
}

// isBooleanAttr reports whether an empty value renders as the bare
// attribute name.
func isBooleanAttr(name string) bool {
	switch name {
	case "async", "autofocus", "checked", "defer", "disabled", "hidden",
		"multiple", "readonly", "required", "selected":
		return true
	}
	return false
}
