package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vup-linux/vuru/pkg/errors"
	"github.com/vup-linux/vuru/pkg/history"
	"github.com/vup-linux/vuru/pkg/review"
	"github.com/vup-linux/vuru/pkg/vup"
	"github.com/vup-linux/vuru/pkg/xbps"
)

func (c *CLI) updateCommand() *cobra.Command {
	var (
		yes     bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "update [package]...",
		Short: "Upgrade community packages, then the rest of the system",
		Long: `Update refreshes the community index, finds installed packages the
community publishes a newer version of and reinstalls them from their
binary repositories. Template changes since the last review are shown
in one batch before anything runs. Without arguments the stock XBPS
repositories are upgraded afterwards via xbps-install -Su; with
arguments only the named packages are considered.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runUpdate(cmd.Context(), args, yes, refresh)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip template review and confirmation prompts")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "force a fresh template fetch during review")

	return cmd
}

func (c *CLI) runUpdate(ctx context.Context, names []string, yes, refresh bool) error {
	for _, name := range names {
		if err := errors.ValidatePackageName(name); err != nil {
			return err
		}
	}

	// A stale index would miss published upgrades, so update always
	// refetches it.
	tc, err := c.toolchain(ctx, true)
	if err != nil {
		return err
	}
	defer tc.Close()

	spin := newSpinnerWithContext(ctx, "Checking installed packages...")
	spin.Start()
	installed, err := tc.runner.ListInstalled(ctx)
	if err != nil {
		spin.Stop()
		return err
	}
	ups, err := upgradeCandidates(ctx, tc.runner, tc.index, installed, tc.arch, names)
	spin.Stop()
	if err != nil {
		return err
	}

	reportSkipped(tc, installed, ups, names)

	var failed error
	if len(ups) == 0 {
		printSuccess("All community packages are up to date")
	} else {
		failed = c.runUpgrades(ctx, tc, ups, yes, refresh)
	}

	// Explicit targets leave the rest of the system alone.
	if failed == nil && len(names) == 0 {
		printInfo("Updating system packages...")
		failed = tc.runner.SyncAndUpgrade(ctx, yes)
	}
	return failed
}

// runUpgrades reviews and applies the pending community upgrades. The
// template batch is fetched and shown unless yes is set; the accepted
// copy is recorded only after its package upgraded successfully.
func (c *CLI) runUpgrades(ctx context.Context, tc *toolchain, ups []upgrade, yes, refresh bool) error {
	reports := make([]*review.Report, len(ups))
	if !yes {
		spin := newSpinnerWithContext(ctx, fmt.Sprintf("Fetching %d template(s)...", len(ups)))
		spin.Start()
		for i, up := range ups {
			text, err := tc.templates.Fetch(ctx, up.Category, up.Name, refresh)
			if err != nil {
				c.Logger.Warn("template unavailable", "package", up.Name, "error", err)
				continue
			}
			rep, err := tc.reviewer.Inspect(up.Name, text)
			if err != nil {
				spin.Stop()
				return err
			}
			reports[i] = rep
		}
		spin.Stop()

		fmt.Print(upgradeDocument(ups, reports))
		printNewline()
		if !c.confirm(fmt.Sprintf("Proceed with %d upgrade(s)? [Y/n] ", len(ups))) {
			printInfo("Update aborted")
			return nil
		}
	}

	rec := &history.Record{
		ID:        uuid.NewString(),
		Kind:      history.KindUpdate,
		Target:    fmt.Sprintf("%d package(s)", len(ups)),
		Arch:      tc.arch,
		StartedAt: time.Now().UTC(),
	}

	var failed error
	for i, up := range ups {
		if err := tc.runner.Upgrade(ctx, up.RepoURL, up.Name, true); err != nil {
			rec.Items = append(rec.Items, history.ItemRecord{Name: up.Name, Version: up.Next, Op: "upgrade", Status: "failed"})
			failed = err
			break
		}
		rec.Items = append(rec.Items, history.ItemRecord{Name: up.Name, Version: up.Next, Op: "upgrade", Status: "done"})
		printSuccess("Upgraded %s %s %s %s", up.Name, up.Installed, iconArrow, up.Next)

		// The new template becomes the review baseline only once the
		// upgrade it belongs to actually landed.
		if rep := reports[i]; rep != nil {
			if err := tc.reviewer.Accept(up.Name, rep.Current); err != nil {
				c.Logger.Warn("could not record reviewed template", "package", up.Name, "error", err)
			}
		}
	}

	rec.FinishedAt = time.Now().UTC()
	rec.Success = failed == nil
	if failed != nil {
		rec.Error = failed.Error()
	}
	if err := tc.journal.Append(ctx, rec); err != nil {
		c.Logger.Warn("could not record transaction", "error", err)
	}
	return failed
}

// reportSkipped explains why explicitly requested packages are not in
// the upgrade set.
func reportSkipped(tc *toolchain, installed []xbps.InstalledPackage, ups []upgrade, names []string) {
	if len(names) == 0 {
		return
	}
	pending := make(map[string]bool, len(ups))
	for _, up := range ups {
		pending[up.Name] = true
	}
	byName := make(map[string]string, len(installed))
	for _, pkg := range installed {
		byName[pkg.Name] = pkg.Version
	}
	for _, name := range names {
		if pending[name] {
			continue
		}
		if _, ok := byName[name]; !ok {
			printWarning("%s is not installed", name)
		} else if _, ok := tc.index.Lookup(name); !ok {
			printWarning("%s is not in the community index", name)
		} else {
			printInfo("%s is up to date", name)
		}
	}
}

// versionComparer reports xbps-uhelper cmpver semantics: positive when
// a is newer than b.
type versionComparer interface {
	CompareVersions(ctx context.Context, a, b string) (int, error)
}

// upgrade pairs an installed package with the newer community version.
type upgrade struct {
	Name      string
	Installed string
	Next      string
	Category  string
	RepoURL   string
}

// upgradeCandidates selects the installed packages the index publishes
// a newer version of for arch. Packages missing from the index or
// without a binary for arch are skipped. A non-empty only list
// restricts the scan to those names.
func upgradeCandidates(ctx context.Context, cmp versionComparer, idx *vup.Index, installed []xbps.InstalledPackage, arch string, only []string) ([]upgrade, error) {
	wanted := make(map[string]bool, len(only))
	for _, name := range only {
		wanted[name] = true
	}

	var ups []upgrade
	for _, pkg := range installed {
		if len(wanted) > 0 && !wanted[pkg.Name] {
			continue
		}
		meta, ok := idx.Lookup(pkg.Name)
		if !ok {
			continue
		}
		url, ok := meta.URLFor(arch)
		if !ok {
			continue
		}
		newer, err := cmp.CompareVersions(ctx, meta.Version, pkg.Version)
		if err != nil {
			return nil, err
		}
		if newer <= 0 {
			continue
		}
		ups = append(ups, upgrade{
			Name:      pkg.Name,
			Installed: pkg.Version,
			Next:      meta.Version,
			Category:  meta.Category,
			RepoURL:   url,
		})
	}
	return ups, nil
}

// upgradeDocument renders the batch review document: a numbered summary
// followed by one framed section per package showing the template diff
// since the last accepted copy.
func upgradeDocument(ups []upgrade, reports []*review.Report) string {
	bar := strings.Repeat("━", 60)

	var b strings.Builder
	b.WriteString("VUP Package Upgrade Review\n")
	b.WriteString("==========================\n\n")
	fmt.Fprintf(&b, "%d package(s) to upgrade:\n\n", len(ups))
	for i, up := range ups {
		fmt.Fprintf(&b, "  [%d] %s: %s -> %s\n", i+1, up.Name, up.Installed, up.Next)
	}

	for i, up := range ups {
		b.WriteString("\n")
		b.WriteString(bar)
		b.WriteString("\n")
		fmt.Fprintf(&b, "[%d/%d] %s: %s -> %s\n", i+1, len(ups), up.Name, up.Installed, up.Next)
		b.WriteString(bar)
		b.WriteString("\n")

		rep := reports[i]
		switch {
		case rep == nil:
			b.WriteString("(Template unavailable - upgrading without review)\n")
		case rep.Change == review.ChangeNew:
			b.WriteString("(New package - showing full template)\n\n")
			b.WriteString(strings.TrimRight(rep.Current, "\n"))
			b.WriteString("\n")
		case rep.Change == review.ChangeUnchanged:
			b.WriteString("(Template unchanged since last review)\n")
		default:
			b.WriteString(strings.TrimRight(rep.Diff, "\n"))
			b.WriteString("\n")
		}
	}
	return b.String()
}
