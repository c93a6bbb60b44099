package chatnoir

import (
	"strings"

	"golang.org/x/net/html"
)

// StripMarkup returns the text content of an HTML fragment with entities
// unescaped and whitespace runs collapsed to single spaces.
func StripMarkup(markup string) string {
	if !strings.ContainsAny(markup, "<&") {
		return collapseSpace(markup)
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(markup))
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return collapseSpace(b.String())
		case html.StartTagToken:
			if isInvisible(z) {
				skip++
			}
		case html.EndTagToken:
			if skip > 0 && isInvisible(z) {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isInvisible(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
