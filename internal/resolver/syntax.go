package resolver

import (
	"regexp"
	"strings"
)

var (
	// [[target#heading|alias]]; target and heading exclude the other delimiters.
	wikilinkPattern = regexp.MustCompile(`\[\[([^\]|#\n]*)(#[^\]|\n]*)?(?:\|([^\]\n]*))?\]\]`)
	// ![[target#heading|alias]]
	embedPattern = regexp.MustCompile(`!\[\[([^\]|#\n]*)(?:#([^\]|\n]*))?(?:\|([^\]\n]*))?\]\]`)
)

// Wikilink is one parsed [[...]] occurrence.
type Wikilink struct {
	Raw     string // literal text including brackets
	Target  string // trimmed; empty for in-page links
	Heading string // without the leading '#'; keeps a leading '^' for block refs
	Alias   string
	HasHead bool
}

func parseWikilink(src []byte, m []int) Wikilink {
	w := Wikilink{
		Raw:    string(src[m[0]:m[1]]),
		Target: strings.TrimSpace(string(src[m[2]:m[3]])),
	}
	if m[4] >= 0 {
		w.HasHead = true
		w.Heading = strings.TrimSpace(strings.TrimLeft(string(src[m[4]:m[5]]), "#"))
	}
	if m[6] >= 0 {
		w.Alias = strings.TrimSpace(string(src[m[6]:m[7]]))
	}
	return w
}

// Inner is the link text without the surrounding brackets.
func (w Wikilink) Inner() string {
	return strings.TrimSuffix(strings.TrimPrefix(w.Raw, "[["), "]]")
}

// Embed is one parsed ![[...]] occurrence.
type Embed struct {
	Raw     string
	Target  string // empty for a self-embed
	Heading string
	Alias   string
}

func parseEmbed(src []byte, m []int) Embed {
	e := Embed{
		Raw:    string(src[m[0]:m[1]]),
		Target: strings.TrimSpace(string(src[m[2]:m[3]])),
	}
	if m[4] >= 0 {
		e.Heading = strings.TrimSpace(string(src[m[4]:m[5]]))
	}
	if m[6] >= 0 {
		e.Alias = strings.TrimSpace(string(src[m[6]:m[7]]))
	}
	return e
}

// display names the embed in placeholders and log lines.
func (e Embed) display() string {
	if e.Heading == "" {
		return e.Target
	}
	return e.Target + "#" + e.Heading
}

var linkTextEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`)

func markdownLink(text, url string) string {
	return "[" + linkTextEscaper.Replace(text) + "](" + destination(url) + ")"
}

func markdownImage(alt, url string) string {
	return "![" + linkTextEscaper.Replace(alt) + "](" + destination(url) + ")"
}

// destination wraps link targets containing spaces or parentheses in angle
// brackets so they stay a single CommonMark destination.
func destination(url string) string {
	if strings.ContainsAny(url, " ()<>") {
		return "<" + strings.NewReplacer("<", "%3C", ">", "%3E").Replace(url) + ">"
	}
	return url
}
