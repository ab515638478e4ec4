package cli

import (
	"context"

	"github.com/vup-linux/vuru/pkg/build"
	"github.com/vup-linux/vuru/pkg/cache"
	"github.com/vup-linux/vuru/pkg/history"
	"github.com/vup-linux/vuru/pkg/resolve"
	"github.com/vup-linux/vuru/pkg/review"
	"github.com/vup-linux/vuru/pkg/transaction"
	"github.com/vup-linux/vuru/pkg/vup"
	"github.com/vup-linux/vuru/pkg/xbps"
)

// toolchain bundles what most commands need: the XBPS runner, the
// loaded community index, template access, the resolver wired on top,
// the template review store and the transaction journal.
type toolchain struct {
	arch      string
	runner    *xbps.Runner
	index     *vup.Index
	templates *vup.TemplateClient
	resolver  *resolve.Resolver
	reviewer  *review.Reviewer
	builder   transaction.Builder
	journal   history.Store
	store     cache.Cache
}

// Close releases the cache backend and the journal.
func (t *toolchain) Close() {
	_ = t.store.Close()
	_ = t.journal.Close()
}

// forcedArch pins the architecture and delegates the other probes.
// The toolchain detects the architecture once up front, so resolution
// never shells out for it again.
type forcedArch struct {
	resolve.SystemProbe
	arch string
}

func (p forcedArch) DetectArch(ctx context.Context) (string, error) {
	return p.arch, nil
}

// toolchain wires the shared components from the loaded config.
// refresh forces a fresh index fetch regardless of cache age.
func (c *CLI) toolchain(ctx context.Context, refresh bool) (*toolchain, error) {
	cfg := c.cfg
	runner := xbps.NewRunner(nil, c.Logger)

	arch := cfg.Arch
	if arch == "" {
		detected, err := runner.DetectArch(ctx)
		if err != nil {
			return nil, err
		}
		arch = detected
	}

	store, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}

	spin := newSpinnerWithContext(ctx, "Loading package index...")
	spin.Start()
	indexClient := vup.NewIndexClient(cfg.IndexURL, cfg.Cache.Dir, cfg.Cache.TTL.Duration, c.Logger)
	index, err := indexClient.Load(ctx, refresh || cfg.Cache.Disabled)
	spin.Stop()
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("index loaded", "packages", index.Len(), "arch", arch)

	templates := vup.NewTemplateClient(store, cfg.Cache.TTL.Duration)
	templates.SetBaseURL(cfg.TemplateBase)

	reviews, err := review.NewStore(cfg.Cache.Dir)
	if err != nil {
		return nil, err
	}

	probe := forcedArch{SystemProbe: runner, arch: arch}
	resolver := resolve.NewResolver(probe, index, templates, c.Logger)

	return &toolchain{
		arch:      arch,
		runner:    runner,
		index:     index,
		templates: templates,
		resolver:  resolver,
		reviewer:  review.NewReviewer(reviews, c.Logger),
		builder:   c.newBuilder(ctx, runner, arch),
		journal:   c.journal(),
		store:     store,
	}, nil
}

// newCache picks the cache backend: a no-op when caching is disabled,
// Redis when configured, files under the cache dir otherwise.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if addr := c.cfg.Cache.Redis.Addr; addr != "" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     addr,
			Password: c.cfg.Cache.Redis.Password,
			DB:       c.cfg.Cache.Redis.DB,
		})
	}
	return cache.NewFileCache(c.cfg.Cache.Dir)
}

// newBuilder returns the source builder when both checkouts are
// configured, nil otherwise. Plans without build steps never need one;
// plans with build steps fail their build items cleanly on nil.
func (c *CLI) newBuilder(ctx context.Context, runner *xbps.Runner, arch string) transaction.Builder {
	if c.cfg.Build.VoidPackages == "" || c.cfg.Build.VupCheckout == "" {
		return nil
	}

	native := arch
	if c.cfg.Arch != "" {
		detected, err := runner.DetectArch(ctx)
		if err != nil {
			c.Logger.Warn("could not detect host architecture, assuming native build", "error", err)
			detected = c.cfg.Arch
		}
		native = detected
	}

	b, err := build.NewBuilder(build.Config{
		VoidPackagesDir: c.cfg.Build.VoidPackages,
		VupCheckoutDir:  c.cfg.Build.VupCheckout,
		Arch:            c.cfg.Arch,
		NativeArch:      native,
	}, runner, nil, c.Logger)
	if err != nil {
		c.Logger.Warn("source build support unavailable", "error", err)
		return nil
	}
	return b
}

// journal opens the transaction history, falling back to a discard
// store when the state directory is not writable.
func (c *CLI) journal() history.Store {
	store, err := history.NewFileStore("")
	if err != nil {
		c.Logger.Warn("transaction history unavailable", "error", err)
		return history.NullStore{}
	}
	return store
}
