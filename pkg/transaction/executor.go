package transaction

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vup-linux/vuru/pkg/errors"
)

// Installer applies binary installs. xbps.Runner implements it.
type Installer interface {
	InstallFromRepo(ctx context.Context, repoURL, name string, yes bool) error
	InstallFromSystem(ctx context.Context, name string, yes bool) error
}

// Builder compiles a community package locally and installs the
// result. build.Builder implements it.
type Builder interface {
	BuildAndInstall(ctx context.Context, category, name string, yes bool) error
}

// ItemStatus is the outcome of one plan item after execution.
type ItemStatus string

const (
	StatusPending ItemStatus = "pending"
	StatusDone    ItemStatus = "done"
	StatusFailed  ItemStatus = "failed"
	StatusSkipped ItemStatus = "skipped"
)

// Result reports what happened to each plan item. Statuses is aligned
// with Plan.Items.
type Result struct {
	PlanID   string
	Statuses []ItemStatus
	Took     time.Duration
}

// Done counts items that completed successfully.
func (r *Result) Done() int {
	n := 0
	for _, s := range r.Statuses {
		if s == StatusDone {
			n++
		}
	}
	return n
}

// Executor applies plans against the package manager.
type Executor struct {
	installer Installer
	builder   Builder
	logger    *log.Logger
}

// NewExecutor wires an Executor. The builder may be nil, in which case
// build items fail with a configuration error. A nil logger falls back
// to the package default.
func NewExecutor(installer Installer, builder Builder, logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{installer: installer, builder: builder, logger: logger}
}

// Execute runs the plan strictly in item order and halts at the first
// failure. Completed items are not rolled back. The result is returned
// alongside any error so callers can record partial progress.
//
// yes is forwarded to the underlying package manager commands and
// suppresses their own confirmation prompts.
func (e *Executor) Execute(ctx context.Context, plan *Plan, yes bool) (*Result, error) {
	start := time.Now()
	res := &Result{PlanID: plan.ID, Statuses: make([]ItemStatus, len(plan.Items))}
	for i := range res.Statuses {
		res.Statuses[i] = StatusPending
	}

	for i, item := range plan.Items {
		e.logger.Info("applying",
			"step", i+1,
			"of", len(plan.Items),
			"op", string(item.Op),
			"package", item.Package.Name)

		if err := e.apply(ctx, item, yes); err != nil {
			res.Statuses[i] = StatusFailed
			for j := i + 1; j < len(plan.Items); j++ {
				res.Statuses[j] = StatusSkipped
			}
			res.Took = time.Since(start)
			return res, errors.Wrap(errors.ErrCodeTransactionFailed, err,
				"step %d/%d (%s) failed", i+1, len(plan.Items), item.Describe())
		}
		res.Statuses[i] = StatusDone
	}

	res.Took = time.Since(start)
	return res, nil
}

func (e *Executor) apply(ctx context.Context, item Item, yes bool) error {
	switch item.Op {
	case OpInstallCommunity:
		return e.installer.InstallFromRepo(ctx, item.Package.RepoURL, item.Package.Name, yes)
	case OpInstallSystem:
		return e.installer.InstallFromSystem(ctx, item.Package.Name, yes)
	case OpBuildInstall:
		if e.builder == nil {
			return errors.New(errors.ErrCodeUnsupported,
				"%s needs a local build but no build root is configured", item.Package.Name)
		}
		return e.builder.BuildAndInstall(ctx, item.Package.Category, item.Package.Name, yes)
	default:
		return errors.New(errors.ErrCodeInternal, "unknown operation %q", item.Op)
	}
}
