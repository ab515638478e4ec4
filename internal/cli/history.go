package cli

import (
	"github.com/spf13/cobra"

	"github.com/vup-linux/vuru/pkg/history"
)

func (c *CLI) historyCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past transactions",
		Long: `History lists the transactions vuru has executed, newest first. Use
"history show <id>" for the full record; a unique prefix of the ID is
enough.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, err := history.NewFileStore("")
			if err != nil {
				return err
			}
			defer journal.Close()

			recs, err := journal.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				printInfo("No transactions recorded yet")
				return nil
			}
			printHistoryList(recs)
			printNextStep("Inspect a record", "vuru history show <id>")
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most this many records")

	cmd.AddCommand(c.historyShowCommand())

	return cmd
}

func (c *CLI) historyShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one transaction in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, err := history.NewFileStore("")
			if err != nil {
				return err
			}
			defer journal.Close()

			rec, err := journal.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printHistoryRecord(rec)
			return nil
		},
	}
}
