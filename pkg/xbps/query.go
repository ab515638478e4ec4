package xbps

import (
	"context"
	"os"
	"strings"

	"github.com/vup-linux/vuru/pkg/errors"
)

// InstalledPackage is one entry from the local package database.
type InstalledPackage struct {
	Name    string
	Version string // full version with revision, e.g. "3.3.0_1"
}

// DetectArch reports the XBPS architecture of this machine.
//
// The XBPS_ARCH environment variable takes priority (matching XBPS's own
// behavior for musl and cross setups), then xbps-uhelper arch, then
// uname -m as a last resort. Failure to detect is fatal for resolution,
// since no package can be classified without an architecture.
func (r *Runner) DetectArch(ctx context.Context) (string, error) {
	if arch := os.Getenv("XBPS_ARCH"); arch != "" {
		if err := errors.ValidateArch(arch); err != nil {
			return "", errors.Wrap(errors.ErrCodeArchDetection, err, "invalid XBPS_ARCH")
		}
		return arch, nil
	}

	if res, err := r.query(ctx, "xbps-uhelper", "arch"); err == nil && res.Code == 0 {
		if arch := strings.TrimSpace(res.Stdout); arch != "" {
			return arch, nil
		}
	}

	res, err := r.query(ctx, "uname", "-m")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeArchDetection, err, "failed to detect architecture")
	}
	arch := strings.TrimSpace(res.Stdout)
	if res.Code != 0 || arch == "" {
		return "", errors.New(errors.ErrCodeArchDetection, "failed to detect architecture")
	}
	return arch, nil
}

// IsInstalled reports whether a package is present in the local package
// database.
func (r *Runner) IsInstalled(ctx context.Context, name string) (bool, error) {
	if err := errors.ValidatePackageName(name); err != nil {
		return false, err
	}
	res, err := r.query(ctx, "xbps-query", name)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeCommandFailed, err, "xbps-query %s", name)
	}
	return res.Code == 0, nil
}

// InstalledVersion returns the installed version of a package, reporting
// ok=false when the package is not installed.
func (r *Runner) InstalledVersion(ctx context.Context, name string) (string, bool, error) {
	if err := errors.ValidatePackageName(name); err != nil {
		return "", false, err
	}
	res, err := r.query(ctx, "xbps-query", name)
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeCommandFailed, err, "xbps-query %s", name)
	}
	if res.Code != 0 {
		return "", false, nil
	}

	for _, line := range strings.Split(res.Stdout, "\n") {
		if !strings.HasPrefix(line, "pkgver:") {
			continue
		}
		pkgver := strings.TrimSpace(strings.TrimPrefix(line, "pkgver:"))
		if _, version, ok := SplitPkgVer(pkgver); ok {
			return version, true, nil
		}
	}
	return "", false, nil
}

// SystemRepoVersion returns the version a package has in the configured
// system repositories, reporting ok=false when no repository carries it.
func (r *Runner) SystemRepoVersion(ctx context.Context, name string) (string, bool, error) {
	if err := errors.ValidatePackageName(name); err != nil {
		return "", false, err
	}
	res, err := r.query(ctx, "xbps-query", "-R", "-p", "pkgver", name)
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeCommandFailed, err, "xbps-query -R %s", name)
	}
	if res.Code != 0 {
		return "", false, nil
	}

	pkgver := strings.TrimSpace(res.Stdout)
	if _, version, ok := SplitPkgVer(pkgver); ok {
		return version, true, nil
	}
	return "", false, nil
}

// ListInstalled returns every package in the local package database.
func (r *Runner) ListInstalled(ctx context.Context) ([]InstalledPackage, error) {
	res, err := r.query(ctx, "xbps-query", "-l")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCommandFailed, err, "xbps-query -l")
	}
	if res.Code != 0 {
		return nil, errors.New(errors.ErrCodeCommandFailed, "xbps-query -l exited %d: %s", res.Code, strings.TrimSpace(res.Stderr))
	}

	var pkgs []InstalledPackage
	for _, line := range strings.Split(res.Stdout, "\n") {
		// Lines look like "ii htop-3.3.0_1  Interactive process viewer".
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name, version, ok := SplitPkgVer(fields[1])
		if !ok {
			continue
		}
		pkgs = append(pkgs, InstalledPackage{Name: name, Version: version})
	}
	return pkgs, nil
}

// CompareVersions compares two XBPS version strings using xbps-uhelper
// cmpver. It returns -1, 0, or 1 when a is older than, equal to, or newer
// than b.
func (r *Runner) CompareVersions(ctx context.Context, a, b string) (int, error) {
	res, err := r.query(ctx, "xbps-uhelper", "cmpver", a, b)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeCommandFailed, err, "xbps-uhelper cmpver")
	}
	switch res.Code {
	case 0:
		return 0, nil
	case 1:
		return 1, nil
	case 255:
		return -1, nil
	}
	return 0, errors.New(errors.ErrCodeCommandFailed, "xbps-uhelper cmpver exited %d", res.Code)
}

// SplitPkgVer splits a pkgver string ("htop-3.3.0_1") into its name and
// version. The version starts after the last dash, so package names
// containing dashes are handled.
func SplitPkgVer(pkgver string) (name, version string, ok bool) {
	i := strings.LastIndexByte(pkgver, '-')
	if i <= 0 || i == len(pkgver)-1 {
		return "", "", false
	}
	return pkgver[:i], pkgver[i+1:], true
}
