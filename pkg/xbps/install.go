package xbps

import (
	"context"
	"strings"

	"github.com/vup-linux/vuru/pkg/errors"
)

// InstallFromRepo installs a package from an explicit binary repository,
// syncing that repository's data first (xbps-install -R <url> -S).
func (r *Runner) InstallFromRepo(ctx context.Context, repoURL, name string, yes bool) error {
	if err := errors.ValidateURL(repoURL); err != nil {
		return err
	}
	if err := errors.ValidatePackageName(name); err != nil {
		return err
	}

	args := []string{"-R", repoURL, "-S"}
	if yes {
		args = append(args, "-y")
	}
	args = append(args, name)
	return r.runInstall(ctx, "xbps-install", args, name)
}

// InstallFromSystem installs a package from the configured system
// repositories (xbps-install -S).
func (r *Runner) InstallFromSystem(ctx context.Context, name string, yes bool) error {
	if err := errors.ValidatePackageName(name); err != nil {
		return err
	}

	args := []string{"-S"}
	if yes {
		args = append(args, "-y")
	}
	args = append(args, name)
	return r.runInstall(ctx, "xbps-install", args, name)
}

// InstallLocal installs a locally built package from a binpkgs directory
// (xbps-install --repository <dir>).
func (r *Runner) InstallLocal(ctx context.Context, repoDir, name string, yes bool) error {
	if err := errors.ValidatePackageName(name); err != nil {
		return err
	}

	args := []string{"--repository", repoDir}
	if yes {
		args = append(args, "-y")
	}
	args = append(args, name)
	return r.runInstall(ctx, "xbps-install", args, name)
}

// Upgrade updates one package from an explicit binary repository
// (xbps-install -R <url> -Su <pkg>).
func (r *Runner) Upgrade(ctx context.Context, repoURL, name string, yes bool) error {
	if err := errors.ValidateURL(repoURL); err != nil {
		return err
	}
	if err := errors.ValidatePackageName(name); err != nil {
		return err
	}

	args := []string{"-R", repoURL, "-Su"}
	if yes {
		args = append(args, "-y")
	}
	args = append(args, name)
	return r.runInstall(ctx, "xbps-install", args, name)
}

// SyncAndUpgrade performs a full system update (xbps-install -Su).
func (r *Runner) SyncAndUpgrade(ctx context.Context, yes bool) error {
	args := []string{"-Su"}
	if yes {
		args = append(args, "-y")
	}
	res, err := r.mutate(ctx, "xbps-install", args...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCommandFailed, err, "xbps-install -Su")
	}
	if res.Code != 0 {
		return errors.New(errors.ErrCodeTransactionFailed, "system update exited %d", res.Code)
	}
	return nil
}

// Remove removes a package together with its now-unneeded dependencies
// (xbps-remove -R).
func (r *Runner) Remove(ctx context.Context, name string, yes bool) error {
	if err := errors.ValidatePackageName(name); err != nil {
		return err
	}

	args := []string{"-R"}
	if yes {
		args = append(args, "-y")
	}
	args = append(args, name)

	res, err := r.mutate(ctx, "xbps-remove", args...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCommandFailed, err, "xbps-remove %s", name)
	}
	if res.Code != 0 {
		return errors.New(errors.ErrCodeTransactionFailed, "failed to remove %s (exit %d)", name, res.Code)
	}
	return nil
}

func (r *Runner) runInstall(ctx context.Context, cmd string, args []string, name string) error {
	res, err := r.mutate(ctx, cmd, args...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCommandFailed, err, "%s %s", cmd, strings.Join(args, " "))
	}
	if res.Code != 0 {
		return errors.New(errors.ErrCodeTransactionFailed, "failed to install %s (exit %d)", name, res.Code)
	}
	return nil
}
