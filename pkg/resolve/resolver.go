package resolve

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/vup-linux/vuru/pkg/errors"
	"github.com/vup-linux/vuru/pkg/observability"
)

// Options configure a single Resolve run.
type Options struct {
	// IncludeBuildDeps expands makedepends and hostmakedepends in
	// addition to runtime depends.
	IncludeBuildDeps bool

	// Refresh bypasses cached templates during expansion.
	Refresh bool

	// Workers caps how many packages of one depth level are classified
	// at once. Values below 2 select the serial path. The resolution is
	// identical either way; only wall-clock time differs.
	Workers int
}

// Resolver expands a target package into a full Resolution by walking
// its dependency graph breadth first.
type Resolver struct {
	classifier *Classifier
	system     SystemProbe
	templates  TemplateFetcher
	logger     *log.Logger
}

// NewResolver wires a Resolver from its collaborators. A nil logger
// falls back to the package default.
func NewResolver(system SystemProbe, index IndexLookup, templates TemplateFetcher, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{
		classifier: NewClassifier(system, index),
		system:     system,
		templates:  templates,
		logger:     logger,
	}
}

// work ties a package name to the depth it was first discovered at.
type work struct {
	name  string
	depth int
}

// outcome carries everything process learned about one work item.
type outcome struct {
	pkg     ResolvedPackage
	deps    []string // names to enqueue one level deeper
	diagErr error    // cause to attach when pkg is unresolved
	tplErr  error    // template fetch failure, never fatal
	err     error    // infrastructure failure, aborts the run
}

// Resolve expands target and attributes every reachable package to a
// source. Unresolvable names land in Resolution.Missing instead of
// aborting the walk. Architecture detection and system probe failures
// are fatal and return an error with a nil Resolution.
func (r *Resolver) Resolve(ctx context.Context, target string, opts Options) (*Resolution, error) {
	start := time.Now()

	arch, err := r.system.DetectArch(ctx)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("resolving", "target", target, "arch", arch)

	res := &Resolution{Target: target, Arch: arch}
	visited := map[string]bool{target: true}
	queue := []work{{name: target, depth: 0}}

	for len(queue) > 0 {
		level := queue
		queue = nil

		for i, out := range r.processLevel(ctx, level, arch, opts) {
			if out.err != nil {
				return nil, out.err
			}
			item := level[i]
			r.record(res, item, out)
			for _, dep := range out.deps {
				res.Edges = append(res.Edges, Edge{From: item.name, To: dep})
				if visited[dep] {
					continue
				}
				visited[dep] = true
				queue = append(queue, work{name: dep, depth: item.depth + 1})
			}
		}
	}

	took := time.Since(start)
	observability.Resolver().OnComplete(ctx, target,
		len(res.ToInstall)+len(res.ToBuild)+len(res.Satisfied), len(res.Missing), took)
	r.logger.Debug("resolution finished",
		"target", target,
		"install", len(res.ToInstall),
		"build", len(res.ToBuild),
		"satisfied", len(res.Satisfied),
		"missing", len(res.Missing),
		"took", took)

	return res, nil
}

// processLevel classifies every work item of one depth level. With
// Workers above 1 the items run concurrently. Outcomes keep the slot
// order of level, so callers observe the same sequence either way.
func (r *Resolver) processLevel(ctx context.Context, level []work, arch string, opts Options) []outcome {
	outcomes := make([]outcome, len(level))

	if opts.Workers < 2 || len(level) == 1 {
		for i, item := range level {
			outcomes[i] = r.process(ctx, item, arch, opts)
		}
		return outcomes
	}

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, item := range level {
		g.Go(func() error {
			outcomes[i] = r.process(ctx, item, arch, opts)
			return nil
		})
	}
	// Failures ride in the outcome slots, not the group error, so they
	// are attributed to the same item as on the serial path.
	_ = g.Wait()
	return outcomes
}

// process classifies one package and, for community packages, expands
// its template into dependency names.
func (r *Resolver) process(ctx context.Context, item work, arch string, opts Options) outcome {
	if err := errors.ValidatePackageName(item.name); err != nil {
		return outcome{
			pkg:     ResolvedPackage{Name: item.name, Source: SourceUnresolved, Depth: item.depth},
			diagErr: err,
		}
	}

	pkg, err := r.classifier.Classify(ctx, item.name, arch)
	if err != nil {
		return outcome{err: err}
	}
	pkg.Depth = item.depth
	observability.Resolver().OnClassify(ctx, item.name, string(pkg.Source), item.depth)

	out := outcome{pkg: pkg}
	if pkg.Source != SourceCommunityBinary && pkg.Source != SourceCommunitySource {
		return out
	}

	tpl, err := r.templates.FetchParsed(ctx, pkg.Category, pkg.Name, opts.Refresh)
	if err != nil {
		out.tplErr = err
		return out
	}

	out.deps = append(out.deps, tpl.Depends...)
	if opts.IncludeBuildDeps {
		out.deps = append(out.deps, tpl.BuildDepends()...)
	}
	observability.Resolver().OnExpand(ctx, item.name, len(out.deps))
	return out
}

// record folds one outcome into the resolution.
func (r *Resolver) record(res *Resolution, item work, out outcome) {
	pkg := out.pkg

	switch pkg.Source {
	case SourceAlreadyInstalled:
		res.Satisfied = append(res.Satisfied, pkg.Name)

	case SourceCommunityBinary, SourceSystemRepo:
		res.ToInstall = append(res.ToInstall, pkg)

	case SourceCommunitySource:
		res.ToBuild = append(res.ToBuild, pkg)

	case SourceUnresolved:
		code := errors.ErrCodeDependencyNotFound
		if item.depth == 0 {
			code = errors.ErrCodePackageNotFound
		}
		res.Missing = append(res.Missing, pkg.Name)
		res.Diagnostics = append(res.Diagnostics, Diagnostic{Name: pkg.Name, Code: code, Err: out.diagErr})
		r.logger.Debug("package not found in any source", "package", pkg.Name, "depth", item.depth)
	}

	if out.tplErr != nil {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Name: pkg.Name,
			Code: errors.ErrCodeTemplateUnavailable,
			Err:  out.tplErr,
		})
		r.logger.Warn("template unavailable, dependencies not expanded",
			"package", pkg.Name, "error", out.tplErr)
	}
}
