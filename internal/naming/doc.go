// Package naming holds the pure identity helpers shared by the index builder,
// the navigation generator and the link resolver: slugs, path normalization,
// extension stripping, canonical document ids, heading anchors and labels.
//
// Every function here is pure and safe for concurrent use.
package naming
