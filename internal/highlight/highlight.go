// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package highlight marks query terms inside retrieved passages.
//
// Highlighting is a pure text transform: the input is HTML-escaped first so
// markup arriving from retrieved content is neutralized, then each query
// term is wrapped in <mark> tags. The renderer maps the tags to a terminal
// style; they never reach a browser.
package highlight

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// MinTermLength is the minimum rune length for a term to be marked.
	// Shorter terms ("a", "is", "to") would over-mark common words.
	MinTermLength = 3

	markOpen  = "<mark>"
	markClose = "</mark>"
)

// escaper neutralizes angle brackets before any marking happens, so marker
// tags added afterwards are the only markup in the output.
var escaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// Casers for the capitalized variant: first letter upper-cased, remainder
// lower-cased. cases.Title is not used because it also capitalizes after
// intra-word punctuation ("foo-bar" -> "Foo-Bar").
var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
)

// Highlight escapes text and wraps every literal occurrence of each query
// term, and of its capitalized variant, in <mark> tags.
//
// Matching is literal substring replacement, case-sensitive per variant
// tried. It will mark inside larger words ("cat" marks "category"); that is
// a known limitation of the approach, kept deliberately.
func Highlight(text string, terms []string) string {
	out := escaper.Replace(text)

	for _, term := range terms {
		if utf8.RuneCountInString(term) < MinTermLength {
			continue
		}
		// Terms typed by the user may themselves contain angle brackets;
		// they have to be matched against the escaped text.
		term = escaper.Replace(term)

		out = strings.ReplaceAll(out, term, markOpen+term+markClose)

		cap := Capitalize(term)
		if cap != term {
			out = strings.ReplaceAll(out, cap, markOpen+cap+markClose)
		}
	}

	return out
}

// Capitalize returns the term with its first letter upper-cased and the
// remainder lower-cased.
func Capitalize(term string) string {
	_, size := utf8.DecodeRuneInString(term)
	if size == 0 {
		return term
	}
	return upperCaser.String(term[:size]) + lowerCaser.String(term[size:])
}
