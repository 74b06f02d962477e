// Package jslider is the range slider widget library bindings drive.
//
// The library must be installed on a document before widgets can be set up,
// the way a page loads the script:
//
//	jslider.Install(doc)
//	s, err := jslider.Setup(input)
//
// A widget is configured from the input's data attributes (data-from,
// data-to, data-step, data-round, data-format, data-locale, data-dimension)
// and holds either one value or a low/high pair. Its string representation
// joins the pair with ";" ("2;7"). Values are clamped into [from, to],
// snapped to step and rounded to round decimal places.
package jslider
