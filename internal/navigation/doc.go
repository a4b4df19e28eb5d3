// Package navigation derives Docusaurus sidebars from an index.Index.
//
// The vault root becomes one group holding the root-level documents plus any
// configured crosslinks. Every immediate child folder of the root becomes its
// own group, with nested folders rendered as categories. Groups are rendered
// as a sidebars.ts module, an optional JSON file, plain debug trees and a
// navbarItems.ts module.
package navigation
