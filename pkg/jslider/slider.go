package jslider

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vango-dev/sliderbind/pkg/dom"
)

// PluginName is the name the library is installed under on a document.
const PluginName = "jslider"

// Delimiter separates the two values of a range slider in the widget's
// string representation.
const Delimiter = ";"

const instanceKey = "jslider"

// Library marks a document as having the widget library loaded.
type Library struct{}

// Install loads the library into doc.
func Install(doc *dom.Document) *Library {
	lib := &Library{}
	doc.SetPlugin(PluginName, lib)
	return lib
}

// Loaded reports whether the library is installed on doc.
func Loaded(doc *dom.Document) bool {
	if doc == nil {
		return false
	}
	_, ok := doc.Plugin(PluginName).(*Library)
	return ok
}

// Slider is a widget instance attached to an <input> element.
type Slider struct {
	input    *dom.Element
	markup   *dom.Element
	settings Settings
	values   []float64
}

// Setup creates the widget on el, or returns the existing instance when el
// was already set up. It reads configuration from data-* attributes and the
// initial value from the value attribute ("v" or "low;high"), and inserts
// the widget markup (span.jslider) right after the input.
func Setup(el *dom.Element) (*Slider, error) {
	if s := Of(el); s != nil {
		return s, nil
	}
	if !Loaded(el.Document()) {
		return nil, ErrNotLoaded
	}
	if el.Kind != dom.KindElement || el.Tag != "input" {
		return nil, fmt.Errorf("%w: <%s>", ErrNotInput, el.Tag)
	}

	settings, err := settingsFromElement(el)
	if err != nil {
		return nil, fmt.Errorf("jslider: setup %q: %w", el.ID(), err)
	}

	s := &Slider{input: el, settings: settings}
	raw, ok := el.Attr("value")
	if !ok || strings.TrimSpace(raw) == "" {
		raw = strconv.FormatFloat(settings.From, 'f', -1, 64)
	}
	values := ParseValue(raw)
	if len(values) == 2 {
		s.values = []float64{0, 0}
		s.setRange(values[0], values[1])
	} else {
		s.values = []float64{0}
		s.setSingle(values[0])
	}

	s.markup = el.Document().CreateElement("span").AddClass("jslider")
	if s.IsRange() {
		s.markup.AddClass("jslider_range")
	}
	if el.Parent() != nil {
		el.InsertAfter(s.markup)
	}
	el.SetAttr("type", "hidden")
	el.SetData(instanceKey, s)
	s.sync()
	return s, nil
}

// Of returns the widget instance attached to el, or nil.
func Of(el *dom.Element) *Slider {
	if el == nil {
		return nil
	}
	v, _ := el.Data(instanceKey)
	s, _ := v.(*Slider)
	return s
}

// ParseValue splits the widget's string representation into numbers.
// Numbers that fail to parse become NaN.
func ParseValue(raw string) []float64 {
	parts := strings.SplitN(raw, Delimiter, 2)
	out := make([]float64, len(parts))
	for i, p := range parts {
		out[i] = ParseNumber(p)
	}
	return out
}

// ParseNumber converts text to a number with numeric coercion rules:
// surrounding space is ignored, empty text is zero and anything that is
// not a number is NaN.
func ParseNumber(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// Settings returns the widget configuration.
func (s *Slider) Settings() Settings {
	return s.settings
}

// Input returns the element the widget is attached to.
func (s *Slider) Input() *dom.Element {
	return s.input
}

// Markup returns the inserted widget element.
func (s *Slider) Markup() *dom.Element {
	return s.markup
}

// IsRange reports whether the widget has two handles.
func (s *Slider) IsRange() bool {
	return len(s.values) == 2
}

// Values returns a copy of the current handle values.
func (s *Slider) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// Value returns the string representation: "v", or "low;high" for range
// sliders.
func (s *Slider) Value() string {
	parts := make([]string, len(s.values))
	for i, v := range s.values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, Delimiter)
}

// SetValue moves the first handle to v. It does not trigger change.
func (s *Slider) SetValue(v float64) {
	if s.IsRange() {
		s.setRange(v, s.values[1])
	} else {
		s.setSingle(v)
	}
	s.sync()
}

// SetRange moves both handles. On a single-handle widget only low is used.
// It does not trigger change.
func (s *Slider) SetRange(low, high float64) {
	if s.IsRange() {
		s.setRange(low, high)
	} else {
		s.setSingle(low)
	}
	s.sync()
}

// Drag simulates a user moving the handles and triggers change on the input.
func (s *Slider) Drag(values ...float64) {
	switch len(values) {
	case 0:
		return
	case 1:
		s.SetValue(values[0])
	default:
		s.SetRange(values[0], values[1])
	}
	s.input.Trigger("change")
}

// Format renders v the way handle labels show it.
func (s *Slider) Format(v float64) string {
	return FormatValue(v, s.settings.Format, s.settings.Dimension)
}

func (s *Slider) setSingle(v float64) {
	s.values[0] = s.settings.normalize(v)
}

func (s *Slider) setRange(low, high float64) {
	low = s.settings.normalize(low)
	high = s.settings.normalize(high)
	if low > high {
		low, high = high, low
	}
	s.values[0], s.values[1] = low, high
}

// sync mirrors the value into the input's value attribute and redraws the
// widget markup.
func (s *Slider) sync() {
	s.input.SetAttr("value", s.Value())
	if s.markup == nil {
		return
	}
	doc := s.input.Document()
	span := doc.CreateElement("span").AddClass("jslider-bg")
	s.markup.SetTextContent("")
	s.markup.AppendChild(span)

	limits := doc.CreateElement("span").AddClass("jslider-label")
	limits.SetTextContent(s.Format(s.settings.From))
	s.markup.AppendChild(limits)
	limitsTo := doc.CreateElement("span").AddClass("jslider-label", "jslider-label-to")
	limitsTo.SetTextContent(s.Format(s.settings.To))
	s.markup.AppendChild(limitsTo)

	for i, v := range s.values {
		pct := s.percent(v)
		pointer := doc.CreateElement("a").AddClass("jslider-pointer")
		if i == 1 {
			pointer.AddClass("jslider-pointer-to")
		}
		pointer.SetStyle("left", strconv.FormatFloat(pct, 'f', -1, 64)+"%")
		label := doc.CreateElement("span").AddClass("jslider-value")
		label.SetStyle("left", strconv.FormatFloat(pct, 'f', -1, 64)+"%")
		label.SetTextContent(s.Format(v))
		s.markup.AppendChild(pointer).AppendChild(label)
	}
}

func (s *Slider) percent(v float64) float64 {
	span := s.settings.To - s.settings.From
	if span == 0 {
		return 0
	}
	return math.Round((v-s.settings.From)/span*10000) / 100
}
