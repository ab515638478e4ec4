package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/vup-linux/vuru/pkg/errors"
)

func (c *CLI) searchCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search the community package index",
		Long: `Search matches term against the package names in the community index.
With --interactive a picker opens and the selected package's details
are shown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSearch(cmd.Context(), args[0], interactive)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick a match interactively")

	return cmd
}

func (c *CLI) runSearch(ctx context.Context, term string, interactive bool) error {
	tc, err := c.toolchain(ctx, false)
	if err != nil {
		return err
	}
	defer tc.Close()

	matches := tc.index.Search(term)
	if len(matches) == 0 {
		printInfo("No packages match %q", term)
		return nil
	}

	rows := make([]packageRow, 0, len(matches))
	for _, meta := range matches {
		installed, err := tc.runner.IsInstalled(ctx, meta.Name)
		if err != nil {
			return err
		}
		rows = append(rows, packageRow{Meta: meta, Installed: installed})
	}

	if interactive {
		if !stdoutIsTerminal() {
			return errors.New(errors.ErrCodeInvalidInput, "interactive search needs a terminal")
		}
		final, err := tea.NewProgram(newPackageListModel(rows)).Run()
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "interactive picker")
		}
		model, ok := final.(PackageListModel)
		if !ok || model.Selected == nil {
			return nil
		}
		printNewline()
		return c.printPackageInfo(ctx, tc, model.Selected.Meta.Name)
	}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		installed := ""
		if r.Installed {
			installed = iconSuccess
		}
		cells = append(cells, []string{r.Meta.Name, r.Meta.Category, r.Meta.Version, installed})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Package", "Category", "Version", "Installed").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			switch col {
			case 1:
				return StyleDim
			case 3:
				return StyleSuccess
			default:
				return lipgloss.NewStyle()
			}
		})
	fmt.Println(t.Render())
	printDetail("%d package(s) found", len(rows))

	return nil
}
