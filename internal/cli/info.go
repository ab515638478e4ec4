package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vup-linux/vuru/pkg/errors"
)

func (c *CLI) infoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <package>",
		Short: "Show details for a community package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := c.toolchain(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer tc.Close()
			return c.printPackageInfo(cmd.Context(), tc, args[0])
		},
	}
	return cmd
}

// printPackageInfo shows index metadata, the locally installed version
// and what the maintainer template declares. A missing template only
// trims the output, since the index entry alone is still useful.
func (c *CLI) printPackageInfo(ctx context.Context, tc *toolchain, name string) error {
	if err := errors.ValidatePackageName(name); err != nil {
		return err
	}
	meta, ok := tc.index.Lookup(name)
	if !ok {
		return errors.New(errors.ErrCodePackageNotFound, "%s is not in the community index", name)
	}

	printKeyValue("Package", meta.Name)
	printKeyValue("Category", meta.Category)
	printKeyValue("Version", meta.Version)

	version, installed, err := tc.runner.InstalledVersion(ctx, name)
	if err != nil {
		return err
	}
	if installed {
		printKeyValue("Installed", version)
	} else {
		printKeyValue("Installed", "no")
	}

	if len(meta.Archs) > 0 {
		printKeyValue("Archs", strings.Join(meta.Archs, ", "))
	}
	if url, ok := meta.URLFor(tc.arch); ok {
		printKeyValue("Repository", StyleLink.Render(url))
	}

	tpl, err := tc.templates.FetchParsed(ctx, meta.Category, name, false)
	if err != nil {
		c.Logger.Warn("template unavailable", "package", name, "error", err)
		return nil
	}
	if tpl.ShortDesc != "" {
		printKeyValue("Description", tpl.ShortDesc)
	}
	if tpl.License != "" {
		printKeyValue("License", tpl.License)
	}
	if tpl.Homepage != "" {
		printKeyValue("Homepage", StyleLink.Render(tpl.Homepage))
	}
	if tpl.Maintainer != "" {
		printKeyValue("Maintainer", tpl.Maintainer)
	}
	if len(tpl.Depends) > 0 {
		printKeyValue("Depends", strings.Join(tpl.Depends, " "))
	}
	if deps := tpl.BuildDepends(); len(deps) > 0 {
		printKeyValue("Build deps", strings.Join(deps, " "))
	}
	return nil
}
