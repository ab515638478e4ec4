package history

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/adrg/xdg"
)

const logFileName = "history.jsonl"

// FileStore appends records to a JSON lines log. Appends are
// serialized with a mutex, one line per record.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed history log under baseDir. An
// empty baseDir defaults to the vuru state directory.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		baseDir = filepath.Join(xdg.StateHome, "vuru")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &FileStore{path: filepath.Join(baseDir, logFileName)}, nil
}

// Append writes one record as a single JSON line.
func (s *FileStore) Append(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open history log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append history record: %w", err)
	}
	return nil
}

// List returns up to limit records, newest first. Corrupt lines are
// skipped. A non-positive limit returns everything.
func (s *FileStore) List(_ context.Context, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history log: %w", err)
	}
	defer f.Close()

	var records []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read history log: %w", err)
	}

	slices.Reverse(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Get returns the newest record whose ID starts with idPrefix.
func (s *FileStore) Get(ctx context.Context, idPrefix string) (*Record, error) {
	records, err := s.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if strings.HasPrefix(records[i].ID, idPrefix) {
			return &records[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, idPrefix)
}

func (s *FileStore) Close() error { return nil }

// Path returns the log file location.
func (s *FileStore) Path() string { return s.path }

var _ Store = (*FileStore)(nil)
