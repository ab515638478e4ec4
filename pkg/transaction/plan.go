package transaction

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vup-linux/vuru/pkg/depgraph"
	"github.com/vup-linux/vuru/pkg/errors"
	"github.com/vup-linux/vuru/pkg/resolve"
)

// Op identifies what has to happen for one plan item.
type Op string

const (
	// OpInstallCommunity installs a prebuilt binary from a community
	// repository URL.
	OpInstallCommunity Op = "install-community"

	// OpInstallSystem installs a binary from the stock XBPS
	// repositories.
	OpInstallSystem Op = "install-system"

	// OpBuildInstall builds the package locally from its template and
	// installs the result.
	OpBuildInstall Op = "build-install"
)

// Reason records why an item is part of the plan.
type Reason string

const (
	// ReasonExplicit marks the package the user asked for.
	ReasonExplicit Reason = "explicit"

	// ReasonDependency marks a package pulled in to satisfy another.
	ReasonDependency Reason = "dependency"
)

// Item is one step of a plan.
type Item struct {
	Op      Op
	Package resolve.ResolvedPackage
	Reason  Reason
}

// Describe returns a short human-readable account of the step.
func (i Item) Describe() string {
	label := i.Package.Name
	if i.Package.Version != "" {
		label = i.Package.Name + "-" + i.Package.Version
	}
	switch i.Op {
	case OpInstallCommunity:
		return fmt.Sprintf("install %s from community repository", label)
	case OpInstallSystem:
		return fmt.Sprintf("install %s from system repository", label)
	case OpBuildInstall:
		return fmt.Sprintf("build %s from source and install it", label)
	default:
		return fmt.Sprintf("%s %s", i.Op, label)
	}
}

// Plan is an ordered set of operations produced from one resolution.
type Plan struct {
	ID        string
	Target    string
	Arch      string
	CreatedAt time.Time
	Items     []Item
	Satisfied []string // already installed, listed for display only

	// TopoSorted reports whether items were reordered topologically.
	// It stays false when sorting was not requested or the graph has a
	// cycle, in which case items keep discovery order.
	TopoSorted bool
}

// PlanOptions configure plan construction.
type PlanOptions struct {
	// TopoSort reorders items so dependencies install before their
	// dependents. Cyclic graphs fall back to discovery order.
	TopoSort bool
}

// NewPlan builds a plan from a resolution. A resolution with missing
// packages is rejected with ErrCodeUnresolved and nothing is planned.
func NewPlan(res *resolve.Resolution, opts PlanOptions) (*Plan, error) {
	if !res.Complete() {
		return nil, errors.New(errors.ErrCodeUnresolved,
			"cannot plan %s: %d package(s) not found in any source: %s",
			res.Target, len(res.Missing), strings.Join(res.Missing, ", "))
	}

	items := make([]Item, 0, len(res.ToInstall)+len(res.ToBuild))
	for _, pkg := range res.ToInstall {
		op := OpInstallCommunity
		if pkg.Source == resolve.SourceSystemRepo {
			op = OpInstallSystem
		}
		items = append(items, Item{Op: op, Package: pkg, Reason: reasonFor(pkg)})
	}
	for _, pkg := range res.ToBuild {
		items = append(items, Item{Op: OpBuildInstall, Package: pkg, Reason: reasonFor(pkg)})
	}

	plan := &Plan{
		ID:        uuid.NewString(),
		Target:    res.Target,
		Arch:      res.Arch,
		CreatedAt: time.Now().UTC(),
		Items:     items,
		Satisfied: slices.Clone(res.Satisfied),
	}

	if opts.TopoSort {
		plan.TopoSorted = sortTopologically(plan, res)
	}
	return plan, nil
}

func reasonFor(pkg resolve.ResolvedPackage) Reason {
	if pkg.Depth == 0 {
		return ReasonExplicit
	}
	return ReasonDependency
}

// sortTopologically reorders plan items so dependencies come first.
// Reports whether the reorder was applied; cyclic graphs leave the
// plan untouched.
func sortTopologically(plan *Plan, res *resolve.Resolution) bool {
	g, err := depgraph.FromResolution(res)
	if err != nil {
		return false
	}
	order, err := g.TopoSort()
	if err != nil {
		return false
	}
	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	slices.SortStableFunc(plan.Items, func(a, b Item) int {
		return pos[a.Package.Name] - pos[b.Package.Name]
	})
	return true
}

// IsEmpty reports whether the plan has nothing to do, which happens
// when every resolved package is already installed.
func (p *Plan) IsEmpty() bool { return len(p.Items) == 0 }

// Summary counts the plan items per operation.
func (p *Plan) Summary() (community, system, builds int) {
	for _, it := range p.Items {
		switch it.Op {
		case OpInstallCommunity:
			community++
		case OpInstallSystem:
			system++
		case OpBuildInstall:
			builds++
		}
	}
	return community, system, builds
}
