package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vup-linux/vuru/pkg/history"
	"github.com/vup-linux/vuru/pkg/resolve"
	"github.com/vup-linux/vuru/pkg/review"
	"github.com/vup-linux/vuru/pkg/transaction"
)

var tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

// =============================================================================
// Plans
// =============================================================================

// printPlan renders the transaction as a table of steps plus a summary
// line. Already-installed packages are listed separately since they
// need no step.
func printPlan(plan *transaction.Plan) {
	if len(plan.Satisfied) > 0 {
		printDetail("already installed: %s", strings.Join(plan.Satisfied, ", "))
	}
	if plan.IsEmpty() {
		return
	}

	rows := make([][]string, 0, len(plan.Items))
	for _, item := range plan.Items {
		version := item.Package.Version
		if version == "" {
			version = "—"
		}
		rows = append(rows, []string{item.Package.Name, version, opLabel(item.Op), string(item.Reason)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Package", "Version", "Action", "Reason").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			if row >= len(plan.Items) {
				return lipgloss.NewStyle()
			}
			switch col {
			case 2:
				return opStyle(plan.Items[row].Op)
			case 3:
				return StyleDim
			default:
				return lipgloss.NewStyle()
			}
		})
	fmt.Println(t.Render())

	community, system, builds := plan.Summary()
	var parts []string
	if community > 0 {
		parts = append(parts, fmt.Sprintf("%d from community repository", community))
	}
	if system > 0 {
		parts = append(parts, fmt.Sprintf("%d from system repositories", system))
	}
	if builds > 0 {
		parts = append(parts, fmt.Sprintf("%d built from source", builds))
	}
	printDetail("%s", strings.Join(parts, ", "))
}

// opLabel shortens an operation for table cells. Item.Describe is the
// long form used in logs.
func opLabel(op transaction.Op) string {
	switch op {
	case transaction.OpInstallCommunity:
		return "install (community)"
	case transaction.OpInstallSystem:
		return "install (system)"
	case transaction.OpBuildInstall:
		return "build from source"
	default:
		return string(op)
	}
}

func opStyle(op transaction.Op) lipgloss.Style {
	switch op {
	case transaction.OpInstallCommunity:
		return StyleHighlight
	case transaction.OpInstallSystem:
		return lipgloss.NewStyle().Foreground(colorBlue)
	case transaction.OpBuildInstall:
		return StyleWarning
	default:
		return lipgloss.NewStyle()
	}
}

// printDiagnostics lists the problems resolution collected. They are
// warnings here; whether they block anything is the planner's call.
func printDiagnostics(diags []resolve.Diagnostic) {
	for _, d := range diags {
		printWarning("%s", d.String())
	}
}

// =============================================================================
// Template Review
// =============================================================================

// printReport shows a template review: nothing dramatic for an
// unchanged template, a colored diff for a modified one, the full
// template for a first install.
func printReport(rep *review.Report) {
	switch rep.Change {
	case review.ChangeUnchanged:
		printInfo("Template for %s unchanged since last review", rep.Name)
	case review.ChangeModified:
		printNewline()
		fmt.Println(StyleTitle.Render(fmt.Sprintf("Template changes for %s", rep.Name)))
		fmt.Println(renderDiff(rep.Diff))
		printNewline()
	case review.ChangeNew:
		printNewline()
		fmt.Println(StyleTitle.Render(fmt.Sprintf("Template for %s (never reviewed)", rep.Name)))
		fmt.Println(renderTemplate(rep.Current))
		printNewline()
	}
}

// renderDiff colors a unified diff line by line.
func renderDiff(diff string) string {
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			b.WriteString(StyleDim.Render(line))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(styleDiffHunk.Render(line))
		case strings.HasPrefix(line, "+"):
			b.WriteString(styleDiffAdd.Render(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(styleDiffDel.Render(line))
		default:
			b.WriteString(line)
		}
	}
	return b.String()
}

// renderTemplate indents a full template body so it reads as a quoted
// block.
func renderTemplate(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("  ")
		b.WriteString(line)
	}
	return b.String()
}

// =============================================================================
// History
// =============================================================================

// printHistoryList renders one row per recorded transaction.
func printHistoryList(recs []history.Record) {
	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		status := iconSuccess
		if !rec.Success {
			status = iconError
		}
		rows = append(rows, []string{
			shortID(rec.ID),
			rec.StartedAt.Local().Format("2006-01-02 15:04"),
			rec.Kind,
			rec.Target,
			status,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "When", "Kind", "Target", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			if row >= len(recs) {
				return lipgloss.NewStyle()
			}
			switch col {
			case 0, 1:
				return StyleDim
			case 4:
				if recs[row].Success {
					return StyleSuccess
				}
				return lipgloss.NewStyle().Foreground(colorRed)
			default:
				return lipgloss.NewStyle()
			}
		})
	fmt.Println(t.Render())
}

// printHistoryRecord renders one transaction in full.
func printHistoryRecord(rec *history.Record) {
	printKeyValue("ID", rec.ID)
	printKeyValue("Kind", rec.Kind)
	printKeyValue("Target", rec.Target)
	if rec.Arch != "" {
		printKeyValue("Arch", rec.Arch)
	}
	printKeyValue("Started", rec.StartedAt.Local().Format(time.RFC1123))
	printKeyValue("Duration", rec.FinishedAt.Sub(rec.StartedAt).Round(time.Millisecond).String())
	if rec.Success {
		printKeyValue("Status", "ok")
	} else {
		printKeyValue("Status", "failed")
	}
	if rec.Error != "" {
		printKeyValue("Error", rec.Error)
	}
	if len(rec.Items) == 0 {
		return
	}

	printNewline()
	rows := make([][]string, 0, len(rec.Items))
	for _, item := range rec.Items {
		version := item.Version
		if version == "" {
			version = "—"
		}
		rows = append(rows, []string{item.Name, version, item.Op, item.Status})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Package", "Version", "Op", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			if row >= len(rec.Items) || col != 3 {
				return lipgloss.NewStyle()
			}
			switch rec.Items[row].Status {
			case "done":
				return StyleSuccess
			case "failed":
				return lipgloss.NewStyle().Foreground(colorRed)
			default:
				return StyleDim
			}
		})
	fmt.Println(t.Render())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
