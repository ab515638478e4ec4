package review

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/vup-linux/vuru/pkg/errors"
)

const storeDirName = "templates"

// Store keeps the last-accepted template text per package, one plain
// file per package name.
type Store struct {
	dir string
}

// NewStore creates a template store under baseDir. An empty baseDir
// defaults to the vuru cache directory.
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		baseDir = filepath.Join(xdg.CacheHome, "vuru")
	}
	dir := filepath.Join(baseDir, storeDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create template store: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Last returns the last-accepted template for a package. ok is false
// when no copy has been accepted yet.
func (s *Store) Last(name string) (text string, ok bool, err error) {
	if err := errors.ValidatePackageName(name); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read accepted template: %w", err)
	}
	return string(data), true, nil
}

// Save records a template as accepted.
func (s *Store) Save(name, text string) error {
	if err := errors.ValidatePackageName(name); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(text), 0o644); err != nil {
		return fmt.Errorf("save accepted template: %w", err)
	}
	return nil
}

// Dir returns the store location.
func (s *Store) Dir() string { return s.dir }
