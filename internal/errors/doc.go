// Package errors provides coded, actionable errors for the sliderbind
// command line and configuration layer.
//
// Each error has a code (e.g. "SB101") registered with a category, a
// short message and a longer detail. Callers attach the underlying error
// and an optional hint:
//
//	err := errors.New("SB101").
//	    Wrap(cause).
//	    WithSuggestion("Run `sliderbind init` to write a default config file")
//
//	errors.Fprint(os.Stderr, err)
//	// ERROR SB101: Config file could not be parsed
//	//
//	//   The file is not valid JSON or YAML for its extension.
//	//
//	//   Hint: Run `sliderbind init` to write a default config file
package errors
