package jslider

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vango-dev/sliderbind/pkg/dom"
)

var (
	// ErrNotLoaded is returned by Setup when the library is not installed on
	// the element's document.
	ErrNotLoaded = errors.New("jslider: library not loaded")

	// ErrNotInput is returned by Setup for elements other than <input>.
	ErrNotInput = errors.New("jslider: element is not an input")

	// ErrInvalidSetting is returned when a data-* setting cannot be parsed.
	ErrInvalidSetting = errors.New("jslider: invalid setting")
)

// Default settings, used when the input does not carry the data attribute.
const (
	DefaultFrom   = 1
	DefaultTo     = 10
	DefaultStep   = 1
	DefaultFormat = "#,##0.##"
	DefaultLocale = "us"
)

// Format is the display format of handle labels.
type Format struct {
	Format string `json:"format"`
	Locale string `json:"locale"`
}

// Settings is the widget configuration. It is fixed after Setup.
type Settings struct {
	From      float64 `json:"from"`
	To        float64 `json:"to"`
	Step      float64 `json:"step"`
	Round     int     `json:"round"` // decimal places kept after snapping
	Format    Format  `json:"format"`
	Dimension string  `json:"dimension,omitempty"`
}

// DefaultSettings returns the library defaults.
func DefaultSettings() Settings {
	return Settings{
		From:   DefaultFrom,
		To:     DefaultTo,
		Step:   DefaultStep,
		Round:  0,
		Format: Format{Format: DefaultFormat, Locale: DefaultLocale},
	}
}

// settingsFromElement reads data-from, data-to, data-step, data-round,
// data-format, data-locale and data-dimension.
func settingsFromElement(el *dom.Element) (Settings, error) {
	s := DefaultSettings()

	var err error
	if s.From, err = floatAttr(el, "data-from", s.From); err != nil {
		return s, err
	}
	if s.To, err = floatAttr(el, "data-to", s.To); err != nil {
		return s, err
	}
	if s.Step, err = floatAttr(el, "data-step", s.Step); err != nil {
		return s, err
	}
	if s.To < s.From {
		return s, fmt.Errorf("%w: data-to %g is below data-from %g", ErrInvalidSetting, s.To, s.From)
	}
	if s.Step < 0 {
		return s, fmt.Errorf("%w: negative data-step %g", ErrInvalidSetting, s.Step)
	}

	if raw, ok := el.Attr("data-round"); ok {
		r, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || r < 0 {
			return s, fmt.Errorf("%w: data-round %q", ErrInvalidSetting, raw)
		}
		s.Round = r
	} else {
		s.Round = decimals(s.Step)
	}

	s.Format.Format = el.AttrOr("data-format", s.Format.Format)
	s.Format.Locale = el.AttrOr("data-locale", s.Format.Locale)
	s.Dimension = el.AttrOr("data-dimension", "")
	return s, nil
}

func floatAttr(el *dom.Element, name string, def float64) (float64, error) {
	raw, ok := el.Attr(name)
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def, fmt.Errorf("%w: %s %q", ErrInvalidSetting, name, raw)
	}
	return f, nil
}

// decimals returns the number of decimal places needed to represent step.
func decimals(step float64) int {
	s := strconv.FormatFloat(step, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

// normalize clamps v into [From, To], snaps it to Step and rounds it to
// Round decimal places.
func (s Settings) normalize(v float64) float64 {
	if math.IsNaN(v) {
		return s.From
	}
	v = clamp(v, s.From, s.To)
	if s.Step > 0 {
		v = s.From + math.Round((v-s.From)/s.Step)*s.Step
		v = clamp(v, s.From, s.To)
	}
	p := math.Pow(10, float64(s.Round))
	return clamp(math.Round(v*p)/p, s.From, s.To)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
