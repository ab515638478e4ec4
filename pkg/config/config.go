package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"

	"github.com/vup-linux/vuru/pkg/errors"
	"github.com/vup-linux/vuru/pkg/vup"
)

// Environment variable names. Each overrides the corresponding config
// file setting.
const (
	// EnvConfig points at an alternate config file.
	EnvConfig = "VURU_CONFIG"

	// EnvIndexURL overrides the community index document URL.
	EnvIndexURL = "VURU_INDEX_URL"

	// EnvTemplateBase overrides the raw template content root.
	EnvTemplateBase = "VURU_TEMPLATE_BASE"

	// EnvArch forces the package architecture instead of probing.
	EnvArch = "VURU_ARCH"

	// EnvCacheDir overrides the cache directory.
	EnvCacheDir = "VURU_CACHE_DIR"

	// EnvCacheTTL overrides the cache lifetime, as a Go duration
	// string such as "15m".
	EnvCacheTTL = "VURU_CACHE_TTL"

	// EnvNoCache disables caching when set to a true-ish value.
	EnvNoCache = "VURU_NO_CACHE"

	// EnvRedisAddr selects a Redis cache backend.
	EnvRedisAddr = "VURU_REDIS_ADDR"

	// EnvWorkers overrides the resolver worker count.
	EnvWorkers = "VURU_WORKERS"

	// EnvVoidPackages overrides the void-packages checkout used for
	// source builds.
	EnvVoidPackages = "VURU_VOID_PACKAGES"

	// EnvVupCheckout overrides the community source checkout used for
	// source builds.
	EnvVupCheckout = "VURU_VUP_CHECKOUT"
)

const (
	appDir         = "vuru"
	configFileName = "config.toml"

	// DefaultServerAddr is the listen address "vuru serve" binds when
	// none is configured.
	DefaultServerAddr = ":8373"

	// DefaultWorkers is how many packages of one resolution level are
	// classified concurrently.
	DefaultWorkers = 4
)

// Config is the resolved vuru configuration.
type Config struct {
	// IndexURL is the published community index document.
	IndexURL string `toml:"index_url"`

	// TemplateBase is the raw content root where community build
	// templates are published.
	TemplateBase string `toml:"template_base"`

	// Arch forces the package architecture. Empty means probe the
	// system with xbps-uhelper.
	Arch string `toml:"arch"`

	Cache    Cache    `toml:"cache"`
	Resolver Resolver `toml:"resolver"`
	Build    Build    `toml:"build"`
	Server   Server   `toml:"server"`
}

// Cache controls the local cache shared by index and template fetches.
// Accepted template copies also live under Dir.
type Cache struct {
	// Dir is the cache root.
	Dir string `toml:"dir"`

	// TTL bounds how long cached fetches are served before they are
	// refreshed.
	TTL Duration `toml:"ttl"`

	// Disabled bypasses the cache entirely.
	Disabled bool `toml:"disabled"`

	// Redis selects a Redis backend instead of the on-disk cache when
	// Addr is set.
	Redis Redis `toml:"redis"`
}

// Redis holds connection settings for the optional Redis cache.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Resolver tunes dependency resolution.
type Resolver struct {
	// Workers caps how many packages of one depth level are
	// classified at once. Values below 2 resolve serially.
	Workers int `toml:"workers"`

	// IncludeBuildDeps also walks makedepends and hostmakedepends.
	IncludeBuildDeps bool `toml:"include_build_deps"`
}

// Build locates the checkouts needed to build community packages from
// source with xbps-src.
type Build struct {
	// VoidPackages is a void-packages checkout with a working
	// xbps-src.
	VoidPackages string `toml:"void_packages"`

	// VupCheckout is a community source checkout holding vup/srcpkgs.
	VupCheckout string `toml:"vup_checkout"`
}

// Server configures "vuru serve".
type Server struct {
	// Addr is the listen address.
	Addr string `toml:"addr"`

	// Srcpkgs is the template tree the served index is generated
	// from.
	Srcpkgs string `toml:"srcpkgs"`

	// BaseURL prefixes repository URLs in the generated index.
	BaseURL string `toml:"base_url"`
}

// Duration is a time.Duration that unmarshals from a TOML string such
// as "15m" or "1h30m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// DefaultPath returns the config file location used when no explicit
// path is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appDir, configFileName)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		IndexURL:     vup.DefaultIndexURL,
		TemplateBase: vup.DefaultTemplateBase,
		Cache: Cache{
			Dir: filepath.Join(xdg.CacheHome, appDir),
			TTL: Duration{vup.DefaultIndexTTL},
		},
		Resolver: Resolver{Workers: DefaultWorkers},
		Server:   Server{Addr: DefaultServerAddr},
	}
}

// Load resolves the configuration. When path is empty it falls back to
// $VURU_CONFIG and then to DefaultPath. An explicitly named file must
// exist; a missing file at the default location yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if env := os.Getenv(EnvConfig); env != "" {
			path = env
			explicit = true
		} else {
			path = DefaultPath()
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file, defaults apply.
	default:
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers VURU_* overrides onto cfg.
func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvIndexURL); v != "" {
		cfg.IndexURL = v
	}
	if v := os.Getenv(EnvTemplateBase); v != "" {
		cfg.TemplateBase = v
	}
	if v := os.Getenv(EnvArch); v != "" {
		cfg.Arch = v
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv(EnvCacheTTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", EnvCacheTTL)
		}
		cfg.Cache.TTL = Duration{d}
	}
	if v := os.Getenv(EnvNoCache); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", EnvNoCache)
		}
		cfg.Cache.Disabled = b
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", EnvWorkers)
		}
		cfg.Resolver.Workers = n
	}
	if v := os.Getenv(EnvVoidPackages); v != "" {
		cfg.Build.VoidPackages = v
	}
	if v := os.Getenv(EnvVupCheckout); v != "" {
		cfg.Build.VupCheckout = v
	}
	return nil
}

// validate rejects settings no command could run with.
func (c *Config) validate() error {
	if err := errors.ValidateURL(c.IndexURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "index_url")
	}
	if err := errors.ValidateURL(c.TemplateBase); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "template_base")
	}
	if c.Arch != "" {
		if err := errors.ValidateArch(c.Arch); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "arch")
		}
	}
	if c.Resolver.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "resolver.workers must not be negative, got %d", c.Resolver.Workers)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	if c.Server.BaseURL != "" {
		if err := errors.ValidateURL(c.Server.BaseURL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "server.base_url")
		}
	}
	return nil
}
