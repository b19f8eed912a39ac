package util

import (
	"strings"

	"golang.org/x/net/html"
)

// StripTags flattens a markup fragment to its text content. PubMed titles
// and abstracts may carry inline markup (<i>, <sup>, MathML); only the
// text survives into records and prompts.
func StripTags(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return strings.TrimSpace(html.UnescapeString(fragment))
	}

	tok := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch tok.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(tok.Text())
		}
	}
}

// CollapseSpace normalizes runs of whitespace to single spaces
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
