// Package htmlsanitize strips markup from user-supplied text before it is
// stored or relayed to other clients.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every tag and attribute. Chat messages, notes and task
// text are plain text; anything that looks like markup is dropped.
var strict = bluemonday.StrictPolicy()

// maxPasses bounds how many layers of entity encoding Text unwraps.
const maxPasses = 4

// Text removes all HTML from s and trims surrounding whitespace. Entity
// encoded markup is decoded before sanitizing, so "&lt;script&gt;" is
// removed like "<script>". The result is decoded text: "a & b" survives
// unchanged. Input that is still changing after maxPasses comes back in
// bluemonday's escaped form.
func Text(s string) string {
	s = strings.TrimSpace(s)
	for range maxPasses {
		plain := strings.TrimSpace(html.UnescapeString(strict.Sanitize(html.UnescapeString(s))))
		if plain == s {
			return s
		}
		s = plain
	}
	return strings.TrimSpace(strict.Sanitize(s))
}
