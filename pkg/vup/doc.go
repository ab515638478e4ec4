// Package vup provides clients for the VUP community package repository:
// the published package index and the raw build templates behind it.
//
// # Overview
//
// VUP layers a community binary repository on top of XBPS. Its index is a
// single JSON document mapping package names to metadata (category, version,
// per-architecture repository URLs). Build templates live as raw files in
// the community source tree, one per package.
//
// # Usage
//
//	idx, err := vup.NewIndexClient("", cacheDir, 0, nil).Load(ctx, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if pkg, ok := idx.Lookup("htop"); ok {
//	    fmt.Println(pkg.Name, pkg.Version)
//	}
//
// # Index caching
//
// [IndexClient.Load] keeps an on-disk copy of the index next to an
// index.json.etag sidecar. A copy younger than the TTL is served without
// touching the network; after that the client revalidates with
// If-None-Match, so an unchanged index costs a single 304 round trip.
// When the network is down a stale copy is still served rather than
// failing the whole operation.
//
// # Templates
//
// [TemplateClient.Fetch] retrieves the raw template text for one package;
// [TemplateClient.FetchParsed] additionally parses it. Responses are cached
// through the configured backend so repeated resolutions do not hammer the
// raw content host.
package vup
