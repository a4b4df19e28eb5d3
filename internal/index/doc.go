// Package index walks a notes vault once and produces the Index every later
// stage reads: file and folder records with their derived destination
// identity, plus the lookup maps used for wikilink resolution.
//
// The Index is read-only after Build returns. The only mutable state is the
// per-file reference counter, which is atomic.
package index
