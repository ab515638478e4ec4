// Package template parses build templates from the community repository.
//
// A template is a shell-style sequence of variable assignments describing a
// buildable package: its identity (pkgname, version, revision), descriptive
// metadata, and its runtime and build dependencies. Values may be unquoted,
// single-quoted, double-quoted, or double-quoted across several lines.
//
// The parser is deliberately naive: it reads assignments line by line and
// ignores everything else (shell functions, conditionals, unknown keys), the
// same way the repository's own indexing tooling does. It does not evaluate
// variable expansions.
package template

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/vup-linux/vuru/pkg/errors"
)

// Template holds the parsed fields of a package build template.
type Template struct {
	Name       string // pkgname
	Version    string
	Revision   int
	ShortDesc  string
	Maintainer string
	License    string
	Homepage   string
	BuildStyle string

	// Archs restricts the architectures the package builds for.
	// Entries prefixed with "~" are exclusions.
	Archs []string

	Depends         []string // runtime dependencies
	MakeDepends     []string // build dependencies
	HostMakeDepends []string // host tools needed to build
	CheckDepends    []string // test-time dependencies

	Restricted   bool
	NoStrip      bool
	NoPIE        bool
	CreateWrkSrc bool
}

// BuildDepends returns make and host dependencies as one list, the set a
// resolver expands when build dependencies are requested.
func (t *Template) BuildDepends() []string {
	out := make([]string, 0, len(t.MakeDepends)+len(t.HostMakeDepends))
	out = append(out, t.MakeDepends...)
	out = append(out, t.HostMakeDepends...)
	return out
}

// PkgVer returns the canonical "name-version_revision" form.
func (t *Template) PkgVer() string {
	return t.Name + "-" + t.FullVersion()
}

// FullVersion returns "version_revision".
func (t *Template) FullVersion() string {
	return t.Version + "_" + strconv.Itoa(t.Revision)
}

// ParseString parses a template from a string.
func ParseString(s string) (*Template, error) {
	return Parse(strings.NewReader(s))
}

// Parse reads a template and returns its structured form.
//
// Parsing is all-or-nothing: a template whose pkgname or version is missing
// or empty cannot identify a package, so Parse fails entirely rather than
// returning a partial result.
func Parse(r io.Reader) (*Template, error) {
	var t Template

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, raw, ok := splitAssignment(line)
		if !ok {
			continue
		}

		value, err := readValue(raw, sc)
		if err != nil {
			return nil, err
		}
		t.apply(key, value)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "reading template")
	}

	if t.Name == "" {
		return nil, errors.New(errors.ErrCodeInvalidTemplate, "template has no pkgname")
	}
	if t.Version == "" {
		return nil, errors.New(errors.ErrCodeInvalidTemplate, "template %q has no version", t.Name)
	}
	return &t, nil
}

// splitAssignment splits "key=value" and reports whether the line looks
// like a variable assignment at all. Lines inside shell functions that do
// not match (commands, braces) are skipped by the caller.
func splitAssignment(line string) (key, value string, ok bool) {
	eq := strings.IndexByte(line, '=')
	if eq <= 0 {
		return "", "", false
	}
	key = line[:eq]
	for _, r := range key {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return "", "", false
		}
	}
	return key, line[eq+1:], true
}

// readValue interprets the raw right-hand side of an assignment.
// A double-quoted value without a closing quote on its line continues on
// subsequent lines, joined with single spaces, until a closing quote is
// found; the remainder of that final line is discarded.
func readValue(raw string, sc *bufio.Scanner) (string, error) {
	raw = strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(raw, `'`):
		rest := raw[1:]
		if end := strings.IndexByte(rest, '\''); end >= 0 {
			return rest[:end], nil
		}
		// Unterminated single quote: take the rest of the line.
		return rest, nil

	case strings.HasPrefix(raw, `"`):
		rest := raw[1:]
		if end := strings.IndexByte(rest, '"'); end >= 0 {
			return rest[:end], nil
		}

		parts := []string{strings.TrimSpace(rest)}
		for sc.Scan() {
			line := sc.Text()
			if end := strings.IndexByte(line, '"'); end >= 0 {
				if chunk := strings.TrimSpace(line[:end]); chunk != "" {
					parts = append(parts, chunk)
				}
				return strings.Join(nonEmpty(parts), " "), nil
			}
			if chunk := strings.TrimSpace(line); chunk != "" {
				parts = append(parts, chunk)
			}
		}
		// EOF before the closing quote: keep what was accumulated.
		return strings.Join(nonEmpty(parts), " "), nil

	default:
		return raw, nil
	}
}

func (t *Template) apply(key, value string) {
	switch key {
	case "pkgname":
		t.Name = value
	case "version":
		t.Version = value
	case "revision":
		t.Revision = leadingInt(value)
	case "short_desc":
		t.ShortDesc = value
	case "maintainer":
		t.Maintainer = value
	case "license":
		t.License = value
	case "homepage":
		t.Homepage = value
	case "build_style":
		t.BuildStyle = value
	case "archs":
		t.Archs = strings.Fields(value)
	case "depends":
		t.Depends = strings.Fields(value)
	case "makedepends":
		t.MakeDepends = strings.Fields(value)
	case "hostmakedepends":
		t.HostMakeDepends = strings.Fields(value)
	case "checkdepends":
		t.CheckDepends = strings.Fields(value)
	case "restricted":
		t.Restricted = value == "yes"
	case "nostrip":
		t.NoStrip = value == "yes"
	case "nopie":
		t.NoPIE = value == "yes"
	case "create_wrksrc":
		t.CreateWrkSrc = value == "yes"
	}
	// Unknown keys are ignored for forward compatibility.
}

// leadingInt parses the integer prefix of s, ignoring any trailing
// non-digit suffix ("2ubuntu" parses as 2). Returns 0 when s has no
// digit prefix.
func leadingInt(s string) int {
	n := 0
	seen := false
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		seen = true
		n = n*10 + int(r-'0')
	}
	if !seen {
		return 0
	}
	return n
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
