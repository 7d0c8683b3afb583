package schema

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	displayPolicyOnce sync.Once
	displayPolicy     *bluemonday.Policy
)

// sanitizeDisplay strips any markup from schema-supplied display strings.
// Labels, placeholders, and error messages end up in host UIs verbatim, so
// the document is never trusted to carry HTML.
func sanitizeDisplay(raw string) string {
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "<") {
		// Plain text stays byte-for-byte intact; running it through the
		// policy would entity-escape characters like '&'.
		return raw
	}
	displayPolicyOnce.Do(func() {
		displayPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(displayPolicy.Sanitize(raw))
}
