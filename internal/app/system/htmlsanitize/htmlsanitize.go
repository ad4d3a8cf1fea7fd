// Package htmlsanitize cleans admin-authored opportunity and program text
// before it is stored.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy  = newRichPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("dir").Matching(bluemonday.Direction).Globally()
	p.AllowAttrs("lang").Globally()
	return p
}

// Sanitize keeps formatting markup (paragraphs, lists, links, headings,
// dir/lang for mixed Arabic and English text) and strips scripts, event
// handlers and embedded frames.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return richPolicy.Sanitize(s)
}

// StripTags removes all markup, for fields rendered as plain text such as
// titles and short descriptions.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(plainPolicy.Sanitize(s))
}
