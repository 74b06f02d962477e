package jslider

import (
	"math"
	"strconv"
	"strings"
)

type separators struct {
	group   string
	decimal string
}

var localeSeparators = map[string]separators{
	"us": {",", "."},
	"en": {",", "."},
	"gb": {",", "."},
	"de": {".", ","},
	"nl": {".", ","},
	"it": {".", ","},
	"es": {".", ","},
	"fr": {" ", ","},
	"ru": {" ", ","},
	"ch": {"'", "."},
}

// numberFormat is a parsed "#,##0.##" style pattern.
type numberFormat struct {
	prefix   string
	suffix   string
	grouping bool
	minFrac  int
	maxFrac  int
}

func parseFormat(pattern string) numberFormat {
	var nf numberFormat
	start := strings.IndexAny(pattern, "#0")
	if start < 0 {
		nf.prefix = pattern
		return nf
	}
	end := strings.LastIndexAny(pattern, "#0") + 1
	nf.prefix = pattern[:start]
	nf.suffix = pattern[end:]
	body := pattern[start:end]

	intPart, fracPart, _ := strings.Cut(body, ".")
	nf.grouping = strings.Contains(intPart, ",")
	nf.minFrac = strings.Count(fracPart, "0")
	nf.maxFrac = nf.minFrac + strings.Count(fracPart, "#")
	return nf
}

// FormatValue renders v with the given format and dimension suffix.
func FormatValue(v float64, f Format, dimension string) string {
	nf := parseFormat(f.Format)
	sep, ok := localeSeparators[strings.ToLower(f.Locale)]
	if !ok {
		sep = localeSeparators[DefaultLocale]
	}

	neg := v < 0
	v = math.Abs(v)
	text := strconv.FormatFloat(v, 'f', nf.maxFrac, 64)
	intPart, frac, _ := strings.Cut(text, ".")
	for len(frac) > nf.minFrac && strings.HasSuffix(frac, "0") {
		frac = frac[:len(frac)-1]
	}

	if nf.grouping && len(intPart) > 3 {
		var sb strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			sb.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if sb.Len() > 0 {
				sb.WriteString(sep.group)
			}
			sb.WriteString(intPart[i : i+3])
		}
		intPart = sb.String()
	}

	var sb strings.Builder
	if neg && (intPart != "0" || frac != "") {
		sb.WriteByte('-')
	}
	sb.WriteString(nf.prefix)
	sb.WriteString(intPart)
	if frac != "" {
		sb.WriteString(sep.decimal)
		sb.WriteString(frac)
	}
	sb.WriteString(nf.suffix)
	sb.WriteString(dimension)
	return sb.String()
}
