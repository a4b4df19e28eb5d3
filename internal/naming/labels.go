package naming

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var genericTitles = map[string]struct{}{
	"overview":          {},
	"index":             {},
	"readme":            {},
	"introduction":      {},
	"intro":             {},
	"table of contents": {},
	"table-of-contents": {},
	"toc":               {},
}

// IsGenericTitle reports whether title carries no information beyond "this is
// the landing page", so a folder-derived label should be preferred.
func IsGenericTitle(title string) bool {
	_, ok := genericTitles[strings.ToLower(strings.TrimSpace(title))]
	return ok
}

// Humanize turns a slug or file name into a display label: "api-reference"
// becomes "Api Reference".
func Humanize(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '-' || r == '_' {
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	return cases.Title(language.Und).String(s)
}

// Label prefers an explicit title unless it is empty or generic, falling back
// to the humanized slug.
func Label(title, slug string) string {
	if t := strings.TrimSpace(title); t != "" && !IsGenericTitle(t) {
		return t
	}
	if h := Humanize(slug); h != "" {
		return h
	}
	return strings.TrimSpace(title)
}

// collate.Collator keeps internal buffers and is not safe for concurrent use.
var collators = sync.Pool{
	New: func() any {
		return collate.New(language.Und, collate.Numeric, collate.IgnoreCase, collate.IgnoreWidth)
	},
}

// CompareNatural orders strings case-insensitively with digit runs compared
// numerically, so "Step 2" sorts before "Step 10".
func CompareNatural(a, b string) int {
	c := collators.Get().(*collate.Collator)
	defer collators.Put(c)
	if r := c.CompareString(a, b); r != 0 {
		return r
	}
	return strings.Compare(a, b)
}
