package cli

import (
	"github.com/spf13/cobra"

	"github.com/vup-linux/vuru/pkg/vup"
)

func (c *CLI) syncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Force a fresh fetch of the community package index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := vup.NewIndexClient(c.cfg.IndexURL, c.cfg.Cache.Dir, c.cfg.Cache.TTL.Duration, c.Logger)

			spin := newSpinnerWithContext(ctx, "Refreshing package index...")
			spin.Start()
			idx, err := client.Load(ctx, true)
			if err != nil {
				spin.StopWithError("Could not refresh the index")
				return err
			}
			spin.StopWithSuccess("Index synchronized")

			printDetail("%d package(s) available", idx.Len())
			if etag := client.ETag(); etag != "" {
				printDetail("validator %s", etag)
			}
			return nil
		},
	}
	return cmd
}
