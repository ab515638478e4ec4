// Package resolve turns a package name into the inputs of an
// installation plan: which packages to install as binaries, which to
// build from source, which are already satisfied, and which cannot be
// found anywhere.
//
// # Classification
//
// Every package name is attributed to exactly one source, tried in
// strict priority order:
//
//  1. Already installed on the system.
//  2. Community repository, prebuilt binary for the detected
//     architecture.
//  3. Stock XBPS repositories.
//  4. Community repository, source build (an index entry with no
//     binary for this architecture).
//  5. Unresolved.
//
// # Traversal
//
// Resolve walks the dependency graph breadth first starting from the
// requested target. Community packages are expanded by fetching and
// parsing their build template; their runtime dependencies are visited
// one level deeper. A visited set guarantees each name is classified
// once, so cycles and diamonds terminate naturally.
//
// Unresolvable names never abort a run. They are collected in
// Resolution.Missing together with a Diagnostic, and the walk
// continues. The only fatal failures are architecture detection and
// broken system probes.
//
// # Wiring
//
// The resolver talks to its surroundings through three small
// interfaces: SystemProbe (implemented by xbps.Runner), IndexLookup
// (implemented by vup.Index), and TemplateFetcher (implemented by
// vup.TemplateClient). Tests substitute in-memory fakes.
package resolve
