package build

import (
	"context"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vup-linux/vuru/pkg/errors"
	"github.com/vup-linux/vuru/pkg/transaction"
)

// CommandFunc runs an external command in dir with output wired to the
// caller's terminal. It returns the exit status; the error is reserved
// for commands that could not run at all.
type CommandFunc func(ctx context.Context, dir, name string, args ...string) (int, error)

// ExecCommand is the default CommandFunc, backed by os/exec.
func ExecCommand(ctx context.Context, dir, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return 0, err
	}
	return 0, nil
}

// Config locates the trees a source build needs.
type Config struct {
	// VoidPackagesDir is a void-packages checkout with a bootstrapped
	// masterdir. xbps-src runs from its root.
	VoidPackagesDir string

	// VupCheckoutDir is a community source checkout holding
	// vup/srcpkgs/<category>/<name> template directories.
	VupCheckoutDir string

	// Arch is the target architecture. A build cross-compiles when it
	// differs from NativeArch.
	Arch string

	// NativeArch is the architecture of the build host.
	NativeArch string
}

// LocalInstaller installs a package from a local binary repository.
// *xbps.Runner implements it.
type LocalInstaller interface {
	InstallLocal(ctx context.Context, repoDir, name string, yes bool) error
}

// Builder builds community packages in a void-packages checkout.
type Builder struct {
	cfg       Config
	exec      CommandFunc
	installer LocalInstaller
	logger    *log.Logger
}

var _ transaction.Builder = (*Builder)(nil)

// NewBuilder creates a builder for the given checkouts. If run is nil,
// [ExecCommand] is used. If logger is nil, the default logger is used.
func NewBuilder(cfg Config, installer LocalInstaller, run CommandFunc, logger *log.Logger) (*Builder, error) {
	if cfg.VoidPackagesDir == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "build requires a void-packages checkout (build.void_packages)")
	}
	if cfg.VupCheckoutDir == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "build requires a community source checkout (build.vup_checkout)")
	}
	if run == nil {
		run = ExecCommand
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{cfg: cfg, exec: run, installer: installer, logger: logger}, nil
}

// Build compiles one community package and returns the local binary
// repository directory holding the result.
func (b *Builder) Build(ctx context.Context, category, name string) (string, error) {
	if err := errors.ValidateCategory(category); err != nil {
		return "", err
	}
	if err := errors.ValidatePackageName(name); err != nil {
		return "", err
	}

	src := filepath.Join(b.cfg.VupCheckoutDir, "vup", "srcpkgs", category, name)
	if _, err := os.Stat(src); err != nil {
		return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "no template directory for %s/%s", category, name)
	}

	dest := filepath.Join(b.cfg.VoidPackagesDir, "srcpkgs", name)
	if err := b.overlay(src, dest); err != nil {
		return "", err
	}
	defer b.removeOverlay(dest)

	args := []string{"pkg", name}
	if b.cfg.Arch != "" && b.cfg.Arch != b.cfg.NativeArch {
		args = append([]string{"-a", b.cfg.Arch}, args...)
	}

	b.logger.Info("building from source", "package", name, "category", category)
	start := time.Now()
	code, err := b.exec(ctx, b.cfg.VoidPackagesDir, "./xbps-src", args...)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeCommandFailed, err, "xbps-src pkg %s", name)
	}
	if code != 0 {
		return "", errors.New(errors.ErrCodeBuildFailed, "xbps-src pkg %s exited %d", name, code)
	}
	b.logger.Info("build finished", "package", name, "took", time.Since(start))

	return b.binpkgRepo(name)
}

// BuildAndInstall builds a package and installs the result from the
// local binary repository.
func (b *Builder) BuildAndInstall(ctx context.Context, category, name string, yes bool) error {
	repoDir, err := b.Build(ctx, category, name)
	if err != nil {
		return err
	}
	if b.installer == nil {
		return errors.New(errors.ErrCodeUnsupported, "no installer configured for built packages")
	}
	return b.installer.InstallLocal(ctx, repoDir, name, yes)
}

// overlay copies the template directory into the void-packages tree,
// replacing any stale copy from an earlier run.
func (b *Builder) overlay(src, dest string) error {
	if err := os.RemoveAll(dest); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "clean build overlay %s", dest)
	}
	if err := os.CopyFS(dest, os.DirFS(src)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "overlay template into %s", dest)
	}
	return nil
}

func (b *Builder) removeOverlay(dest string) {
	if err := os.RemoveAll(dest); err != nil {
		b.logger.Warn("could not remove build overlay", "path", dest, "error", err)
	}
}

// binpkgRepo locates the repository directory holding the freshly built
// package. Restricted builds land in subdirectories of binpkgs, so the
// tree is searched for a <name>-*.xbps file.
func (b *Builder) binpkgRepo(name string) (string, error) {
	root := filepath.Join(b.cfg.VoidPackagesDir, "hostdir", "binpkgs")
	prefix := name + "-"

	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), prefix) && strings.HasSuffix(d.Name(), ".xbps") {
			found = filepath.Dir(path)
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "scan binpkgs for %s", name)
	}
	if found == "" {
		return "", errors.New(errors.ErrCodeBuildFailed, "build of %s produced no binary package under %s", name, root)
	}
	return found, nil
}
