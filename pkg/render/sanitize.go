package render

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	rawPolicyOnce sync.Once
	rawPolicy     *bluemonday.Policy
)

// sanitizeRaw strips scripts, event handler attributes and unsafe URLs
// from a raw HTML fragment.
func sanitizeRaw(html string) string {
	rawPolicyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").Globally()
		rawPolicy = p
	})
	return rawPolicy.Sanitize(html)
}
