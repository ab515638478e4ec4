package resolve

import (
	"fmt"

	"github.com/vup-linux/vuru/pkg/errors"
)

// SourceKind identifies where a resolved package will come from.
type SourceKind string

const (
	// SourceAlreadyInstalled marks a package that is present on the
	// system. Nothing needs to happen for it.
	SourceAlreadyInstalled SourceKind = "installed"

	// SourceCommunityBinary marks a package served as a prebuilt binary
	// from the community repository for the detected architecture.
	SourceCommunityBinary SourceKind = "community"

	// SourceCommunitySource marks a community package with no prebuilt
	// binary for the detected architecture. It has to be built locally.
	SourceCommunitySource SourceKind = "community-source"

	// SourceSystemRepo marks a package available from the stock XBPS
	// repositories.
	SourceSystemRepo SourceKind = "system"

	// SourceUnresolved marks a package found in no source.
	SourceUnresolved SourceKind = "unresolved"
)

// ResolvedPackage describes one package discovered during resolution.
type ResolvedPackage struct {
	Name     string
	Version  string // empty for SourceAlreadyInstalled and SourceUnresolved
	Source   SourceKind
	RepoURL  string // set only for SourceCommunityBinary
	Category string // set only for community packages
	Depth    int    // 0 is the requested target, 1 its direct dependencies
}

// Diagnostic is one structured failure accumulated during a resolution
// run. Diagnostics never abort the walk; they are reported together
// once it finishes.
type Diagnostic struct {
	Name string      // package the failure refers to
	Code errors.Code // machine-readable failure class
	Err  error       // underlying cause, may be nil
}

func (d Diagnostic) String() string {
	if d.Err != nil {
		return fmt.Sprintf("%s: %s: %v", d.Name, d.Code, d.Err)
	}
	return fmt.Sprintf("%s: %s", d.Name, d.Code)
}

// Edge records one dependency relationship discovered while expanding
// templates. From depends on To.
type Edge struct {
	From string
	To   string
}

// Resolution is the complete result of expanding one target package.
//
// ToInstall and ToBuild preserve discovery order: the target first,
// then dependencies in the order they were first reached. Callers that
// want dependencies-before-dependents ordering can feed Edges to a
// topological sort.
type Resolution struct {
	Target string
	Arch   string

	ToInstall []ResolvedPackage // prebuilt binaries, community or system
	ToBuild   []ResolvedPackage // community packages built locally
	Satisfied []string          // already installed
	Missing   []string          // found in no source
	Edges     []Edge

	Diagnostics []Diagnostic
}

// Complete reports whether every reachable package was attributed to a
// source. Planning refuses incomplete resolutions.
func (r *Resolution) Complete() bool {
	return len(r.Missing) == 0
}

// Packages returns everything scheduled for action, installs before
// builds, each in discovery order.
func (r *Resolution) Packages() []ResolvedPackage {
	out := make([]ResolvedPackage, 0, len(r.ToInstall)+len(r.ToBuild))
	out = append(out, r.ToInstall...)
	out = append(out, r.ToBuild...)
	return out
}
