package vup

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/vup-linux/vuru/pkg/errors"
)

// PackageMetadata is one community package entry from the index.
//
// Version carries the full pkgver suffix (e.g. "3.3.0_1"). RepoURLs maps an
// XBPS architecture string to the binary repository serving that
// architecture; a package built from source only may have none.
//
// Entries are immutable once the index is loaded and safe for concurrent
// reads.
type PackageMetadata struct {
	Name     string            `json:"-"`
	Category string            `json:"category"`
	Version  string            `json:"version"`
	Archs    []string          `json:"archs,omitempty"`
	RepoURLs map[string]string `json:"repo_urls,omitempty"`
}

// URLFor returns the binary repository URL serving arch, if the package
// publishes binaries for it.
func (p PackageMetadata) URLFor(arch string) (string, bool) {
	url, ok := p.RepoURLs[arch]
	return url, ok && url != ""
}

// Meta is the provenance block of an index document.
type Meta struct {
	Sources map[string]SourceInfo `json:"sources,omitempty"`
}

// SourceInfo describes one repository backend named in the index.
type SourceInfo struct {
	Description string `json:"description,omitempty"`
	BaseURL     string `json:"base_url,omitempty"`
}

// Index is a loaded community package index. Safe for concurrent reads
// after construction.
type Index struct {
	Meta Meta

	packages map[string]PackageMetadata
}

// indexDocument is the wrapped on-the-wire form of the index.
type indexDocument struct {
	Meta     *Meta                      `json:"_meta"`
	Packages map[string]PackageMetadata `json:"packages"`
}

// DecodeIndex parses an index document. Both published shapes are accepted:
// the wrapped form {"_meta": ..., "packages": {...}} and the legacy flat
// map of name to entry.
func DecodeIndex(data []byte) (*Index, error) {
	var doc indexDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidIndex, err, "parsing index")
	}

	if doc.Packages == nil {
		var flat map[string]PackageMetadata
		if err := json.Unmarshal(data, &flat); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidIndex, err, "parsing index")
		}
		delete(flat, "_meta")
		doc.Packages = flat
	}

	idx := &Index{packages: doc.Packages}
	if doc.Meta != nil {
		idx.Meta = *doc.Meta
	}
	for name, p := range idx.packages {
		p.Name = name
		idx.packages[name] = p
	}
	return idx, nil
}

// Len returns the number of packages in the index.
func (ix *Index) Len() int {
	return len(ix.packages)
}

// Lookup returns the metadata for an exact package name.
func (ix *Index) Lookup(name string) (PackageMetadata, bool) {
	p, ok := ix.packages[name]
	return p, ok
}

// Names returns all package names in sorted order.
func (ix *Index) Names() []string {
	names := make([]string, 0, len(ix.packages))
	for name := range ix.packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Search returns all packages whose name contains term (case-insensitive)
// or whose category matches it exactly, sorted by name.
func (ix *Index) Search(term string) []PackageMetadata {
	term = strings.ToLower(term)

	var out []PackageMetadata
	for name, p := range ix.packages {
		if strings.Contains(strings.ToLower(name), term) || p.Category == term {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
