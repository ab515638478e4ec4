package review

import (
	"github.com/charmbracelet/log"

	"github.com/vup-linux/vuru/pkg/errors"
)

// Change classifies a fetched template against the accepted copy.
type Change string

const (
	// ChangeNew marks a template that was never accepted before.
	ChangeNew Change = "new"

	// ChangeUnchanged marks a template identical to the accepted copy.
	ChangeUnchanged Change = "unchanged"

	// ChangeModified marks a template that differs from the accepted
	// copy.
	ChangeModified Change = "modified"
)

// Report describes how a fetched template relates to the last copy the
// user accepted.
type Report struct {
	Name    string
	Change  Change
	Current string // full template text as fetched
	Diff    string // unified diff, set only for modified templates
}

// Reviewer builds review reports and records accepted copies.
type Reviewer struct {
	store  *Store
	logger *log.Logger
}

// NewReviewer wires a reviewer to its template store. A nil logger
// falls back to the package default.
func NewReviewer(store *Store, logger *log.Logger) *Reviewer {
	if logger == nil {
		logger = log.Default()
	}
	return &Reviewer{store: store, logger: logger}
}

// Inspect compares a fetched template against the accepted copy. An
// unreadable copy is treated as absent so review never blocks on a
// damaged cache.
func (r *Reviewer) Inspect(name, current string) (*Report, error) {
	previous, ok, err := r.store.Last(name)
	if err != nil {
		if errors.Is(err, errors.ErrCodeInvalidPackage) {
			return nil, err
		}
		r.logger.Warn("accepted template unreadable, treating as new",
			"package", name, "error", err)
		ok = false
	}

	rep := &Report{Name: name, Current: current}
	switch {
	case !ok:
		rep.Change = ChangeNew
	case previous == current:
		rep.Change = ChangeUnchanged
	default:
		rep.Change = ChangeModified
		rep.Diff = LineDiff(previous, current)
	}
	return rep, nil
}

// Accept records the template as reviewed so the next install diffs
// against it.
func (r *Reviewer) Accept(name, current string) error {
	return r.store.Save(name, current)
}
