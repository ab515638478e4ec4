package cli

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vup-linux/vuru/internal/server"
	"github.com/vup-linux/vuru/pkg/cache"
	"github.com/vup-linux/vuru/pkg/errors"
	"github.com/vup-linux/vuru/pkg/repoindex"
)

// serveOptions collects the serve command's flags.
type serveOptions struct {
	srcpkgs string
	addr    string
	baseURL string
	watch   bool
	redis   string
	out     string
}

func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Generate and serve the community package index",
		Long: `Serve scans a srcpkgs template tree, generates the repository index and
serves it over HTTP along with the raw templates. It is the maintainer
side of vuru. With --watch the index is rebuilt whenever a template
changes; with --out the index is written to a file instead of served.`,
		Example: `  vuru serve --srcpkgs ./vup/srcpkgs
  vuru serve --srcpkgs ./vup/srcpkgs --watch --addr :8080
  vuru serve --srcpkgs ./vup/srcpkgs --out index.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.srcpkgs, "srcpkgs", "", "template tree to index (required unless configured)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default \":8373\")")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "base URL for published binary repositories")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "rebuild the index when templates change")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "publish the index to this Redis address for other instances")
	cmd.Flags().StringVar(&opts.out, "out", "", "write the index to a file and exit")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOptions) error {
	if opts.srcpkgs == "" {
		opts.srcpkgs = c.cfg.Server.Srcpkgs
	}
	if opts.srcpkgs == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "serve needs a template tree: pass --srcpkgs or set server.srcpkgs")
	}
	if opts.baseURL == "" {
		opts.baseURL = c.cfg.Server.BaseURL
	}
	if opts.addr == "" {
		opts.addr = c.cfg.Server.Addr
	}

	if opts.out != "" {
		gen, err := repoindex.NewGenerator(repoindex.Options{
			SrcpkgsDir: opts.srcpkgs,
			BaseURL:    opts.baseURL,
		}, c.Logger)
		if err != nil {
			return err
		}
		p := newProgress(c.Logger)
		if err := gen.WriteFile(opts.out); err != nil {
			return err
		}
		p.done("Index generated")
		printSuccess("Index written")
		printFile(opts.out)
		return nil
	}

	var shared cache.Cache
	if opts.redis != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: opts.redis})
		if err != nil {
			return err
		}
		defer rc.Close()
		shared = rc
	}

	srv, err := server.New(ctx, server.Options{
		SrcpkgsDir: opts.srcpkgs,
		BaseURL:    opts.baseURL,
		Cache:      shared,
		CacheTTL:   c.cfg.Cache.TTL.Duration,
		Logger:     c.Logger,
	})
	if err != nil {
		return err
	}

	if opts.watch {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.Watch(gctx) })
		g.Go(func() error { return srv.Run(gctx, opts.addr) })
		return g.Wait()
	}
	return srv.Run(ctx, opts.addr)
}
