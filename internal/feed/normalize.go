package feed

import (
	"regexp"
	"strings"
)

// maxDescriptionLen caps normalized description text.
const maxDescriptionLen = 180

var (
	blockRe   = regexp.MustCompile(`(?is)<(style|script)\b[^>]*>.*?</(style|script)>`)
	tagRe     = regexp.MustCompile(`<[^>]*>`)
	bareURLRe = regexp.MustCompile(`https?://\S+`)
)

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&#8216;", "'",
	"&#8217;", "'",
	"&#8220;", `"`,
	"&#8221;", `"`,
	"&lsquo;", "'",
	"&rsquo;", "'",
	"&ldquo;", `"`,
	"&rdquo;", `"`,
	"&nbsp;", " ",
	"&amp;", "&",
)

// CleanText strips markup from raw feed text: style/script blocks, all
// remaining tags, the minimal entity set, and bare URLs. Whitespace is
// collapsed to single spaces.
func CleanText(raw string) string {
	s := blockRe.ReplaceAllString(raw, " ")
	s = tagRe.ReplaceAllString(s, " ")
	s = entityReplacer.Replace(s)
	s = bareURLRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// Normalize cleans raw text and truncates it to the description cap,
// appending an ellipsis when truncated.
func Normalize(raw string) string {
	s := CleanText(raw)
	runes := []rune(s)
	if len(runes) <= maxDescriptionLen {
		return s
	}
	return strings.TrimSpace(string(runes[:maxDescriptionLen])) + "…"
}
