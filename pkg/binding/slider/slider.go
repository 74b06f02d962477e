// Package slider binds jslider range slider widgets to the host framework's
// input protocol.
package slider

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/sliderbind/pkg/binding"
	"github.com/vango-dev/sliderbind/pkg/dom"
	"github.com/vango-dev/sliderbind/pkg/jslider"
)

// Name is the registry name of the binding.
const Name = "shiny.sliderBS2Input"

// Selector matches the inputs this binding handles.
const Selector = "input.jslider"

// DebounceDelay is the rate policy delay for slider changes.
const DebounceDelay = 250 * time.Millisecond

var inputSelector, _ = dom.ParseSelector(Selector)

// Binding adapts jslider widgets to binding.InputBinding.
type Binding struct {
	logger *slog.Logger
}

var _ binding.InputBinding = (*Binding)(nil)

// New creates the slider binding. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Binding {
	if logger == nil {
		logger = slog.Default()
	}
	return &Binding{logger: logger.With("binding", Name)}
}

// Register adds the slider binding to reg.
func Register(reg *binding.Registry, logger *slog.Logger) error {
	return reg.Register(Name, New(logger), 0)
}

// Find returns the slider inputs under scope. It returns nothing when the
// jslider library is not loaded on the scope's document.
func (b *Binding) Find(scope *dom.Element) []*dom.Element {
	if scope == nil || !jslider.Loaded(scope.Document()) {
		return nil
	}
	return scope.FindSelector(inputSelector)
}

// ID returns data-input-id when set, else the element id.
func (b *Binding) ID(el *dom.Element) string {
	if id, ok := el.Attr("data-input-id"); ok && id != "" {
		return id
	}
	return el.ID()
}

// Type reports no coercion: slider values pass through as numbers.
func (b *Binding) Type(*dom.Element) (string, bool) {
	return "", false
}

// Initialize sets up the widget and applies data-width to its markup.
func (b *Binding) Initialize(el *dom.Element) error {
	if _, err := jslider.Setup(el); err != nil {
		return err
	}
	width, ok := el.Data("width")
	if !ok || width == nil {
		return nil
	}
	if next := el.Next(); next != nil && next.Tag == "span" && next.HasClass("jslider") {
		next.SetStyle("width", cssLength(width))
	}
	return nil
}

// Value reads the widget value: a pair when it contains the ";" delimiter,
// otherwise a single number.
func (b *Binding) Value(el *dom.Element) binding.Value {
	raw := mustSlider(el).Value()
	if strings.Contains(raw, jslider.Delimiter) {
		parts := strings.SplitN(raw, jslider.Delimiter, 2)
		return binding.Pair(jslider.ParseNumber(parts[0]), jslider.ParseNumber(parts[1]))
	}
	return binding.Single(jslider.ParseNumber(raw))
}

// SetValue writes v to the widget without triggering change.
func (b *Binding) SetValue(el *dom.Element, v binding.Value) {
	s := mustSlider(el)
	if v.IsPair() {
		lo, hi := v.Bounds()
		s.SetRange(lo, hi)
		return
	}
	s.SetValue(v.Float())
}

// Subscribe calls cb on every change event. The argument is false while the
// element is flagged as animating.
func (b *Binding) Subscribe(el *dom.Element, cb func(allowDeferred bool)) binding.Subscription {
	h := el.On("change", func(*dom.Event) {
		animating, _ := el.Data("animating")
		cb(!dom.Truthy(animating))
	})
	return binding.NewSubscription(h)
}

// Unsubscribe removes the listeners attached by Subscribe.
func (b *Binding) Unsubscribe(el *dom.Element, sub binding.Subscription) {
	for _, h := range sub.Handles() {
		el.Off(h)
	}
}

// ReceiveMessage applies a value and/or label update and then triggers
// change so subscribers see the new state.
func (b *Binding) ReceiveMessage(el *dom.Element, msg binding.Message) {
	if msg.Value != nil {
		b.SetValue(el, *msg.Value)
	}
	if msg.Label != nil {
		if label := b.label(el); label != nil {
			label.SetTextContent(*msg.Label)
		}
	}
	if len(msg.Unsupported) > 0 {
		// jslider settings are fixed after setup.
		b.logger.Debug("ignoring unsupported slider properties",
			"input", b.ID(el), "keys", msg.Unsupported)
	}
	el.Trigger("change")
}

// RatePolicy debounces slider changes.
func (b *Binding) RatePolicy() binding.RatePolicy {
	return binding.RatePolicy{Policy: binding.PolicyDebounce, Delay: DebounceDelay}
}

// State returns the label, value and widget settings of el.
func (b *Binding) State(el *dom.Element) binding.State {
	s := mustSlider(el)
	settings := s.Settings()

	var text string
	if label := b.label(el); label != nil {
		text = label.TextContent()
	}
	return binding.State{
		Label:  text,
		Value:  b.Value(el),
		Min:    settings.From,
		Max:    settings.To,
		Step:   settings.Step,
		Round:  settings.Round,
		Format: settings.Format.Format,
		Locale: settings.Format.Locale,
	}
}

// label finds the <label for=id> among the element's parent's descendants.
func (b *Binding) label(el *dom.Element) *dom.Element {
	parent := el.Parent()
	if parent == nil {
		return nil
	}
	matches, err := parent.Find(`label[for="` + dom.EscapeSelector(el.ID()) + `"]`)
	if err != nil {
		b.logger.Warn("label lookup failed", "input", el.ID(), "error", err)
		return nil
	}
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

func mustSlider(el *dom.Element) *jslider.Slider {
	s := jslider.Of(el)
	if s == nil {
		panic(fmt.Sprintf("slider: element %q has no jslider widget", el.ID()))
	}
	return s
}

// cssLength renders a data-width value as a CSS length; bare numbers are
// pixels.
func cssLength(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64) + "px"
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
