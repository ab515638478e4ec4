package resolve

import (
	"context"

	"github.com/vup-linux/vuru/pkg/template"
	"github.com/vup-linux/vuru/pkg/vup"
)

// SystemProbe answers read-only questions about the local XBPS state.
// xbps.Runner implements it.
type SystemProbe interface {
	// DetectArch reports the package architecture of the running
	// system, for example "x86_64" or "x86_64-musl".
	DetectArch(ctx context.Context) (string, error)

	// IsInstalled reports whether name is currently installed.
	IsInstalled(ctx context.Context, name string) (bool, error)

	// SystemRepoVersion reports the version the stock repositories
	// offer for name, and whether they carry it at all.
	SystemRepoVersion(ctx context.Context, name string) (string, bool, error)
}

// IndexLookup answers membership questions against the community
// package index. vup.Index implements it.
type IndexLookup interface {
	Lookup(name string) (vup.PackageMetadata, bool)
}

// TemplateFetcher retrieves parsed build templates for community
// packages. vup.TemplateClient implements it.
type TemplateFetcher interface {
	FetchParsed(ctx context.Context, category, name string, refresh bool) (*template.Template, error)
}

// Classifier attributes a package name to the source it should come
// from.
type Classifier struct {
	system SystemProbe
	index  IndexLookup
}

// NewClassifier returns a Classifier backed by the given probes.
func NewClassifier(system SystemProbe, index IndexLookup) *Classifier {
	return &Classifier{system: system, index: index}
}

// Classify decides where one package comes from. Sources are tried in
// strict priority order: an installed package wins over a community
// binary, a community binary over the stock repositories, the stock
// repositories over a local source build. Names satisfied by no source
// come back as SourceUnresolved with a nil error.
//
// All probes are read-only, so classifying the same name twice against
// unchanged system state yields the same result.
func (c *Classifier) Classify(ctx context.Context, name, arch string) (ResolvedPackage, error) {
	installed, err := c.system.IsInstalled(ctx, name)
	if err != nil {
		return ResolvedPackage{}, err
	}
	if installed {
		return ResolvedPackage{Name: name, Source: SourceAlreadyInstalled}, nil
	}

	meta, inIndex := c.index.Lookup(name)
	if inIndex {
		if url, ok := meta.URLFor(arch); ok {
			return ResolvedPackage{
				Name:     name,
				Version:  meta.Version,
				Source:   SourceCommunityBinary,
				RepoURL:  url,
				Category: meta.Category,
			}, nil
		}
	}

	version, ok, err := c.system.SystemRepoVersion(ctx, name)
	if err != nil {
		return ResolvedPackage{}, err
	}
	if ok {
		return ResolvedPackage{Name: name, Version: version, Source: SourceSystemRepo}, nil
	}

	if inIndex {
		return ResolvedPackage{
			Name:     name,
			Version:  meta.Version,
			Source:   SourceCommunitySource,
			Category: meta.Category,
		}, nil
	}

	return ResolvedPackage{Name: name, Source: SourceUnresolved}, nil
}
