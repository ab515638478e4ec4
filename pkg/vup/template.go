package vup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vup-linux/vuru/pkg/cache"
	"github.com/vup-linux/vuru/pkg/errors"
	"github.com/vup-linux/vuru/pkg/httputil"
	"github.com/vup-linux/vuru/pkg/template"
)

// DefaultTemplateBase is the raw content root where community build
// templates are published. A template lives at
// <base>/<category>/<name>/template.
const DefaultTemplateBase = "https://raw.githubusercontent.com/VUP-Linux/vup/main/vup/srcpkgs"

// TemplateClient fetches raw build templates from the community source
// tree.
//
// All methods are safe for concurrent use.
type TemplateClient struct {
	http    *httputil.Client
	baseURL string
}

// NewTemplateClient creates a template client with the given cache backend.
// Pass a nil backend to disable caching.
func NewTemplateClient(backend cache.Cache, ttl time.Duration) *TemplateClient {
	return &TemplateClient{
		http:    httputil.NewClient(cache.NewScoped(backend, "template:"), ttl, nil),
		baseURL: DefaultTemplateBase,
	}
}

// SetBaseURL points the client at a different template root, such as a
// mirror or a local index server. The default is DefaultTemplateBase.
func (c *TemplateClient) SetBaseURL(base string) {
	if base != "" {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// URL returns the raw template location for a community package.
func (c *TemplateClient) URL(category, name string) string {
	return fmt.Sprintf("%s/%s/%s/template", c.baseURL, category, name)
}

// Fetch retrieves the raw template text for a community package.
//
// If refresh is true, the cache is bypassed and a fresh fetch is made.
// Returns [httputil.ErrNotFound] when the source tree has no such template.
func (c *TemplateClient) Fetch(ctx context.Context, category, name string, refresh bool) (string, error) {
	if err := errors.ValidateCategory(category); err != nil {
		return "", err
	}
	if err := errors.ValidatePackageName(name); err != nil {
		return "", err
	}

	key := cache.Key("tpl", category, name)
	return c.http.CachedText(ctx, key, refresh, func() (string, error) {
		return c.http.GetText(ctx, c.URL(category, name))
	})
}

// FetchParsed retrieves and parses a community package template.
func (c *TemplateClient) FetchParsed(ctx context.Context, category, name string, refresh bool) (*template.Template, error) {
	text, err := c.Fetch(ctx, category, name, refresh)
	if err != nil {
		return nil, err
	}
	return template.ParseString(text)
}
