package repoindex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/vup-linux/vuru/pkg/errors"
	"github.com/vup-linux/vuru/pkg/template"
	"github.com/vup-linux/vuru/pkg/vup"
)

// DefaultBaseURL is the release-download root binary packages are
// published under.
const DefaultBaseURL = "https://github.com/VUP-Linux/vup/releases/download"

// DefaultSupportedArchs is assumed for templates that name no archs.
var DefaultSupportedArchs = []string{"x86_64"}

// Options configure index generation.
type Options struct {
	// SrcpkgsDir is the root of the community source tree, holding
	// <category>/<name>/template below it.
	SrcpkgsDir string

	// BaseURL is the release-download root; a package's per-arch binary
	// repository is <BaseURL>/<category>-<arch>-current. Empty selects
	// DefaultBaseURL.
	BaseURL string

	// SupportedArchs is the build farm's architecture set, used for
	// templates that name no archs. Empty selects DefaultSupportedArchs.
	SupportedArchs []string
}

// Document is the wrapped index form served to clients.
type Document struct {
	Meta     vup.Meta                       `json:"_meta"`
	Packages map[string]vup.PackageMetadata `json:"packages"`
}

// Encode renders the document as indented JSON with a trailing newline.
// Map keys sort during encoding, so equal documents encode identically.
func (d *Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encoding index")
	}
	return append(data, '\n'), nil
}

// Generator walks a srcpkgs tree and produces the community index.
type Generator struct {
	opts   Options
	logger *log.Logger
}

// NewGenerator validates the options and creates a generator. A nil
// logger falls back to the package default.
func NewGenerator(opts Options, logger *log.Logger) (*Generator, error) {
	if opts.SrcpkgsDir == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "index generation requires a srcpkgs directory")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if err := errors.ValidateURL(opts.BaseURL); err != nil {
		return nil, err
	}
	if len(opts.SupportedArchs) == 0 {
		opts.SupportedArchs = DefaultSupportedArchs
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{opts: opts, logger: logger}, nil
}

// Generate scans the tree and builds the index document.
func (g *Generator) Generate() (*Document, error) {
	categories, err := subdirs(g.opts.SrcpkgsDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "reading srcpkgs dir %s", g.opts.SrcpkgsDir)
	}

	doc := &Document{
		Meta: vup.Meta{Sources: map[string]vup.SourceInfo{
			"github": {
				Description: "GitHub Releases (repodata + packages)",
				BaseURL:     g.opts.BaseURL,
			},
		}},
		Packages: make(map[string]vup.PackageMetadata),
	}

	for _, category := range categories {
		packages, err := subdirs(filepath.Join(g.opts.SrcpkgsDir, category))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "reading category %s", category)
		}
		for _, name := range packages {
			entry, ok := g.indexPackage(category, name)
			if ok {
				doc.Packages[name] = entry
			}
		}
	}

	g.logger.Info("index generated",
		"categories", len(categories), "packages", len(doc.Packages))
	return doc, nil
}

// WriteFile generates the index and writes it to path, creating parent
// directories as needed.
func (g *Generator) WriteFile(path string) error {
	doc, err := g.Generate()
	if err != nil {
		return err
	}
	data, err := doc.Encode()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "creating output dir %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "writing index to %s", path)
	}
	return nil
}

// indexPackage builds the entry for one package directory. ok is false
// when the directory has no usable template.
func (g *Generator) indexPackage(category, name string) (vup.PackageMetadata, bool) {
	path := filepath.Join(g.opts.SrcpkgsDir, category, name, "template")
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			g.logger.Warn("skipping unreadable template", "package", name, "error", err)
		}
		return vup.PackageMetadata{}, false
	}
	defer f.Close()

	tpl, err := template.Parse(f)
	if err != nil {
		g.logger.Warn("skipping unparsable template",
			"package", name, "category", category, "error", err)
		return vup.PackageMetadata{}, false
	}
	if tpl.Revision == 0 {
		g.logger.Warn("skipping template without revision",
			"package", name, "category", category)
		return vup.PackageMetadata{}, false
	}

	archs := PositiveArchs(tpl.Archs)
	if len(archs) == 0 {
		archs = slices.Clone(g.opts.SupportedArchs)
	}
	sort.Strings(archs)

	urls := make(map[string]string, len(archs))
	for _, arch := range archs {
		urls[arch] = fmt.Sprintf("%s/%s-%s-current", g.opts.BaseURL, category, arch)
	}

	return vup.PackageMetadata{
		Name:     name,
		Category: category,
		Version:  tpl.FullVersion(),
		Archs:    archs,
		RepoURLs: urls,
	}, true
}

// PositiveArchs drops "~arch" exclusions from a template archs list.
// Exclusions are relative to the full architecture set, which only the
// build farm knows; callers fall back to the supported set when nothing
// positive remains.
func PositiveArchs(archs []string) []string {
	var out []string
	for _, a := range archs {
		if a != "" && !strings.HasPrefix(a, "~") {
			out = append(out, a)
		}
	}
	return out
}

// subdirs lists the directory names under dir in sorted order.
func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
