package history

import (
	"context"
	"errors"
	"time"

	"github.com/vup-linux/vuru/pkg/transaction"
)

// ErrNotFound is returned when no record matches an ID prefix.
var ErrNotFound = errors.New("record not found")

// Transaction kinds recorded in the log.
const (
	KindInstall = "install"
	KindRemove  = "remove"
	KindUpdate  = "update"
)

// ItemRecord is the logged outcome of one plan item.
type ItemRecord struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Op      string `json:"op"`
	Reason  string `json:"reason,omitempty"`
	Status  string `json:"status"`
}

// Record describes one executed transaction.
type Record struct {
	ID         string       `json:"id"`
	Kind       string       `json:"kind"`
	Target     string       `json:"target"`
	Arch       string       `json:"arch,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Success    bool         `json:"success"`
	Error      string       `json:"error,omitempty"`
	Items      []ItemRecord `json:"items,omitempty"`
}

// Store persists transaction records.
type Store interface {
	// Append adds one record to the log.
	Append(ctx context.Context, rec *Record) error

	// List returns up to limit records, newest first. A non-positive
	// limit returns everything.
	List(ctx context.Context, limit int) ([]Record, error)

	// Get returns the newest record whose ID starts with idPrefix, or
	// ErrNotFound.
	Get(ctx context.Context, idPrefix string) (*Record, error)

	Close() error
}

// NullStore discards all records. It stands in when history is
// disabled or the state directory is unavailable.
type NullStore struct{}

func (NullStore) Append(context.Context, *Record) error        { return nil }
func (NullStore) List(context.Context, int) ([]Record, error)  { return nil, nil }
func (NullStore) Get(context.Context, string) (*Record, error) { return nil, ErrNotFound }
func (NullStore) Close() error                                 { return nil }

var _ Store = NullStore{}

// FromExecution builds a record from a plan and its execution result.
// The result may be nil when execution never started; items are then
// logged as pending.
func FromExecution(plan *transaction.Plan, res *transaction.Result, execErr error, started time.Time) *Record {
	rec := &Record{
		ID:         plan.ID,
		Kind:       KindInstall,
		Target:     plan.Target,
		Arch:       plan.Arch,
		StartedAt:  started.UTC(),
		FinishedAt: time.Now().UTC(),
		Success:    execErr == nil,
	}
	if execErr != nil {
		rec.Error = execErr.Error()
	}
	for i, item := range plan.Items {
		ir := ItemRecord{
			Name:    item.Package.Name,
			Version: item.Package.Version,
			Op:      string(item.Op),
			Reason:  string(item.Reason),
			Status:  string(transaction.StatusPending),
		}
		if res != nil && i < len(res.Statuses) {
			ir.Status = string(res.Statuses[i])
		}
		rec.Items = append(rec.Items, ir)
	}
	return rec
}
