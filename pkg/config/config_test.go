package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"

	"github.com/vup-linux/vuru/pkg/errors"
	"github.com/vup-linux/vuru/pkg/vup"
)

// setConfigHome points XDG_CONFIG_HOME at a fresh temp dir so tests
// never read a real user config. The cleanup reload runs after the
// env restore, putting the package globals back.
func setConfigHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_CONFIG_HOME", dir)
	xdg.Reload()
	return dir
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.IndexURL != vup.DefaultIndexURL {
		t.Errorf("IndexURL = %q, want %q", cfg.IndexURL, vup.DefaultIndexURL)
	}
	if cfg.TemplateBase != vup.DefaultTemplateBase {
		t.Errorf("TemplateBase = %q, want %q", cfg.TemplateBase, vup.DefaultTemplateBase)
	}
	if cfg.Cache.TTL.Duration != vup.DefaultIndexTTL {
		t.Errorf("Cache.TTL = %s, want %s", cfg.Cache.TTL, vup.DefaultIndexTTL)
	}
	if cfg.Cache.Dir == "" {
		t.Error("Cache.Dir is empty")
	}
	if cfg.Resolver.Workers != DefaultWorkers {
		t.Errorf("Resolver.Workers = %d, want %d", cfg.Resolver.Workers, DefaultWorkers)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultServerAddr)
	}
	if cfg.Arch != "" {
		t.Errorf("Arch = %q, want probe default", cfg.Arch)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
index_url = "https://mirror.example.org/index.json"
arch = "aarch64"

[cache]
dir = "/var/cache/vuru"
ttl = "1h"
disabled = true

[cache.redis]
addr = "localhost:6379"
db = 2

[resolver]
workers = 8
include_build_deps = true

[build]
void_packages = "/src/void-packages"
vup_checkout = "/src/vup"

[server]
addr = ":9000"
srcpkgs = "/src/vup/vup/srcpkgs"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.IndexURL != "https://mirror.example.org/index.json" {
		t.Errorf("IndexURL = %q", cfg.IndexURL)
	}
	if cfg.TemplateBase != vup.DefaultTemplateBase {
		t.Errorf("TemplateBase = %q, want default kept", cfg.TemplateBase)
	}
	if cfg.Arch != "aarch64" {
		t.Errorf("Arch = %q", cfg.Arch)
	}
	if cfg.Cache.Dir != "/var/cache/vuru" {
		t.Errorf("Cache.Dir = %q", cfg.Cache.Dir)
	}
	if cfg.Cache.TTL.Duration != time.Hour {
		t.Errorf("Cache.TTL = %s, want 1h", cfg.Cache.TTL)
	}
	if !cfg.Cache.Disabled {
		t.Error("Cache.Disabled = false, want true")
	}
	if cfg.Cache.Redis.Addr != "localhost:6379" || cfg.Cache.Redis.DB != 2 {
		t.Errorf("Cache.Redis = %+v", cfg.Cache.Redis)
	}
	if cfg.Resolver.Workers != 8 {
		t.Errorf("Resolver.Workers = %d", cfg.Resolver.Workers)
	}
	if !cfg.Resolver.IncludeBuildDeps {
		t.Error("Resolver.IncludeBuildDeps = false, want true")
	}
	if cfg.Build.VoidPackages != "/src/void-packages" {
		t.Errorf("Build.VoidPackages = %q", cfg.Build.VoidPackages)
	}
	if cfg.Build.VupCheckout != "/src/vup" {
		t.Errorf("Build.VupCheckout = %q", cfg.Build.VupCheckout)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.Srcpkgs != "/src/vup/vup/srcpkgs" {
		t.Errorf("Server.Srcpkgs = %q", cfg.Server.Srcpkgs)
	}
}

func TestLoadMissingDefaultPath(t *testing.T) {
	setConfigHome(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IndexURL != vup.DefaultIndexURL {
		t.Errorf("IndexURL = %q, want default", cfg.IndexURL)
	}
}

func TestLoadDefaultPath(t *testing.T) {
	home := setConfigHome(t)

	path := filepath.Join(home, appDir, configFileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("arch = \"x86_64\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Arch != "x86_64" {
		t.Errorf("Arch = %q, want x86_64", cfg.Arch)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Fatalf("Load error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadBadTOML(t *testing.T) {
	path := writeConfig(t, "index_url = [broken\n")

	_, err := Load(path)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("Load error = %v, want INVALID_CONFIG", err)
	}
}

func TestLoadEnvConfigPath(t *testing.T) {
	path := writeConfig(t, "arch = \"armv7l\"\n")
	t.Setenv(EnvConfig, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Arch != "armv7l" {
		t.Errorf("Arch = %q, want armv7l", cfg.Arch)
	}
}

func TestLoadEnvConfigPathMissing(t *testing.T) {
	t.Setenv(EnvConfig, filepath.Join(t.TempDir(), "absent.toml"))

	_, err := Load("")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Fatalf("Load error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
index_url = "https://mirror.example.org/index.json"

[cache]
ttl = "1h"

[resolver]
workers = 8
`)

	t.Setenv(EnvIndexURL, "https://other.example.org/index.json")
	t.Setenv(EnvTemplateBase, "https://other.example.org/srcpkgs")
	t.Setenv(EnvArch, "aarch64")
	t.Setenv(EnvCacheDir, "/tmp/vuru-cache")
	t.Setenv(EnvCacheTTL, "30m")
	t.Setenv(EnvNoCache, "1")
	t.Setenv(EnvRedisAddr, "redis:6379")
	t.Setenv(EnvWorkers, "2")
	t.Setenv(EnvVoidPackages, "/env/void-packages")
	t.Setenv(EnvVupCheckout, "/env/vup")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.IndexURL != "https://other.example.org/index.json" {
		t.Errorf("IndexURL = %q", cfg.IndexURL)
	}
	if cfg.TemplateBase != "https://other.example.org/srcpkgs" {
		t.Errorf("TemplateBase = %q", cfg.TemplateBase)
	}
	if cfg.Arch != "aarch64" {
		t.Errorf("Arch = %q", cfg.Arch)
	}
	if cfg.Cache.Dir != "/tmp/vuru-cache" {
		t.Errorf("Cache.Dir = %q", cfg.Cache.Dir)
	}
	if cfg.Cache.TTL.Duration != 30*time.Minute {
		t.Errorf("Cache.TTL = %s, want 30m", cfg.Cache.TTL)
	}
	if !cfg.Cache.Disabled {
		t.Error("Cache.Disabled = false, want true")
	}
	if cfg.Cache.Redis.Addr != "redis:6379" {
		t.Errorf("Cache.Redis.Addr = %q", cfg.Cache.Redis.Addr)
	}
	if cfg.Resolver.Workers != 2 {
		t.Errorf("Resolver.Workers = %d, want 2", cfg.Resolver.Workers)
	}
	if cfg.Build.VoidPackages != "/env/void-packages" {
		t.Errorf("Build.VoidPackages = %q", cfg.Build.VoidPackages)
	}
	if cfg.Build.VupCheckout != "/env/vup" {
		t.Errorf("Build.VupCheckout = %q", cfg.Build.VupCheckout)
	}
}

func TestEnvBadValues(t *testing.T) {
	setConfigHome(t)

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"workers", EnvWorkers, "many"},
		{"ttl", EnvCacheTTL, "soon"},
		{"no-cache", EnvNoCache, "perhaps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load("")
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("Load error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad index scheme", "index_url = \"ftp://mirror.example.org/index.json\"\n"},
		{"bad template base", "template_base = \"mirror.example.org/srcpkgs\"\n"},
		{"bad arch", "arch = \"x86 64\"\n"},
		{"negative workers", "[resolver]\nworkers = -1\n"},
		{"negative ttl", "[cache]\nttl = \"-5m\"\n"},
		{"bad server base url", "[server]\nbase_url = \"repo.example.org\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("Load error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestDurationUnmarshalText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("90s")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if d.Duration != 90*time.Second {
		t.Errorf("Duration = %s, want 90s", d)
	}
	if err := d.UnmarshalText([]byte("never")); err == nil {
		t.Error("UnmarshalText accepted a malformed duration")
	}
}
