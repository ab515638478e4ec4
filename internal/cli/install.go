package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vup-linux/vuru/pkg/history"
	"github.com/vup-linux/vuru/pkg/resolve"
	"github.com/vup-linux/vuru/pkg/transaction"
)

// installOptions collects the install command's flags.
type installOptions struct {
	yes       bool
	buildDeps bool
	dryRun    bool
	refresh   bool
	topo      bool
}

func (c *CLI) installCommand() *cobra.Command {
	var opts installOptions

	cmd := &cobra.Command{
		Use:   "install <package>...",
		Short: "Install packages from the community or system repositories",
		Long: `Install resolves each package across the community index and the stock
XBPS repositories, prints the resulting plan, shows the community
templates involved and asks once before running anything. Templates are
remembered after review, so later installs only show what changed.`,
		Example: `  vuru install htop
  vuru install htop wget --yes
  vuru install somepkg --with-build-deps --topo`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := c.toolchain(cmd.Context(), opts.refresh)
			if err != nil {
				return err
			}
			defer tc.Close()

			for _, target := range args {
				if err := c.installOne(cmd.Context(), tc, target, opts); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "skip template review and confirmation prompts")
	cmd.Flags().BoolVar(&opts.buildDeps, "with-build-deps", false, "resolve build dependencies of source builds")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "resolve and show the plan without executing it")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "force a fresh index and template fetch")
	cmd.Flags().BoolVar(&opts.topo, "topo", false, "order steps dependencies before dependents")

	return cmd
}

// installOne resolves, plans, reviews and executes a single target.
func (c *CLI) installOne(ctx context.Context, tc *toolchain, target string, opts installOptions) error {
	spin := newSpinnerWithContext(ctx, fmt.Sprintf("Resolving %s...", target))
	spin.Start()
	res, err := tc.resolver.Resolve(ctx, target, resolve.Options{
		IncludeBuildDeps: opts.buildDeps,
		Refresh:          opts.refresh,
		Workers:          c.cfg.Resolver.Workers,
	})
	if err != nil {
		spin.StopWithError(fmt.Sprintf("Could not resolve %s", target))
		return err
	}
	spin.Stop()

	printDiagnostics(res.Diagnostics)

	plan, err := transaction.NewPlan(res, transaction.PlanOptions{TopoSort: opts.topo})
	if err != nil {
		return err
	}

	printPlan(plan)
	if plan.IsEmpty() {
		printSuccess("%s is already installed, nothing to do", target)
		return nil
	}
	if opts.dryRun {
		printInfo("Dry run, no changes made")
		return nil
	}

	reviewed, err := c.reviewTemplates(ctx, tc, plan, opts)
	if err != nil {
		return err
	}

	if !opts.yes && !c.confirm("Proceed with installation? [Y/n] ") {
		printInfo("Installation aborted")
		return nil
	}

	// The copies become the baseline future reviews diff against, so
	// they are recorded only once the user has accepted them.
	for _, tpl := range reviewed {
		if err := tc.reviewer.Accept(tpl.name, tpl.text); err != nil {
			c.Logger.Warn("could not record reviewed template", "package", tpl.name, "error", err)
		}
	}

	started := time.Now()
	executor := transaction.NewExecutor(tc.runner, tc.builder, c.Logger)
	result, execErr := executor.Execute(ctx, plan, true)

	if err := tc.journal.Append(ctx, history.FromExecution(plan, result, execErr, started)); err != nil {
		c.Logger.Warn("could not record transaction", "error", err)
	}
	if execErr != nil {
		return execErr
	}
	printSuccess("Installed %s (%d step(s) in %s)", target, result.Done(), result.Took.Round(time.Millisecond))
	return nil
}

// reviewedTemplate pairs a community package with the template text the
// user saw.
type reviewedTemplate struct {
	name string
	text string
}

// reviewTemplates fetches the template behind every community or build
// step and shows what changed since the last accepted copy. With yes
// the display is skipped, but the fetched text is still returned so
// accepted copies stay current. A template that cannot be fetched is
// logged and skipped rather than blocking the transaction.
func (c *CLI) reviewTemplates(ctx context.Context, tc *toolchain, plan *transaction.Plan, opts installOptions) ([]reviewedTemplate, error) {
	var reviewed []reviewedTemplate
	for _, item := range plan.Items {
		if item.Op == transaction.OpInstallSystem {
			continue
		}
		pkg := item.Package
		text, err := tc.templates.Fetch(ctx, pkg.Category, pkg.Name, opts.refresh)
		if err != nil {
			c.Logger.Warn("template unavailable, skipping review", "package", pkg.Name, "error", err)
			continue
		}
		reviewed = append(reviewed, reviewedTemplate{name: pkg.Name, text: text})
		if opts.yes {
			continue
		}
		report, err := tc.reviewer.Inspect(pkg.Name, text)
		if err != nil {
			return nil, err
		}
		printReport(report)
	}
	return reviewed, nil
}
