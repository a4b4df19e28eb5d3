// Package resolver rewrites wikilinks and expands embeds.
//
// Targets resolve against an index.Index with a fixed fallback order: path
// suffix for path-like targets, then file name, title, slug and finally the
// slugified target. Embeds are expanded first, as plain text splicing, so
// that links inside embedded content are rewritten along with the rest of
// the document. Code spans, code blocks and raw HTML are never touched.
package resolver
