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
	"github.com/vup-linux/vuru/pkg/xbps"
)

func (c *CLI) removeCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <package>...",
		Short: "Remove installed packages",
		Long: `Remove uninstalls packages through xbps-remove along with their
orphaned dependencies. Reviewed template copies are kept, so a later
reinstall still diffs against what was accepted before.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRemove(cmd.Context(), args, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func (c *CLI) runRemove(ctx context.Context, names []string, yes bool) error {
	runner := xbps.NewRunner(nil, c.Logger)

	var targets []string
	for _, name := range names {
		if err := errors.ValidatePackageName(name); err != nil {
			return err
		}
		installed, err := runner.IsInstalled(ctx, name)
		if err != nil {
			return err
		}
		if !installed {
			printWarning("%s is not installed", name)
			continue
		}
		targets = append(targets, name)
	}
	if len(targets) == 0 {
		printInfo("Nothing to remove")
		return nil
	}

	printInfo("Removing: %s", strings.Join(targets, ", "))
	if !yes && !c.confirm(fmt.Sprintf("Remove %d package(s)? [Y/n] ", len(targets))) {
		printInfo("Removal aborted")
		return nil
	}

	rec := &history.Record{
		ID:        uuid.NewString(),
		Kind:      history.KindRemove,
		Target:    strings.Join(targets, ", "),
		StartedAt: time.Now().UTC(),
	}
	var failed error
	for _, name := range targets {
		if err := runner.Remove(ctx, name, true); err != nil {
			rec.Items = append(rec.Items, history.ItemRecord{Name: name, Op: "remove", Status: "failed"})
			failed = err
			break
		}
		rec.Items = append(rec.Items, history.ItemRecord{Name: name, Op: "remove", Status: "done"})
	}
	rec.FinishedAt = time.Now().UTC()
	rec.Success = failed == nil
	if failed != nil {
		rec.Error = failed.Error()
	}

	journal := c.journal()
	defer journal.Close()
	if err := journal.Append(ctx, rec); err != nil {
		c.Logger.Warn("could not record transaction", "error", err)
	}

	if failed != nil {
		return failed
	}
	printSuccess("Removed %d package(s)", len(targets))
	return nil
}
