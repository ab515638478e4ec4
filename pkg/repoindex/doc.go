// Package repoindex generates the community package index from a
// srcpkgs source tree.
//
// The tree is laid out as <srcpkgs>/<category>/<name>/template. Every
// parsable template becomes one index entry carrying its category,
// full version, buildable architectures and per-arch binary repository
// URLs. Unparsable templates are logged and skipped so one broken
// recipe cannot take down index publishing.
//
// Output is deterministic: categories, packages and architectures are
// sorted, so regenerating an unchanged tree is byte-identical.
package repoindex
