package vup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vup-linux/vuru/pkg/errors"
	"github.com/vup-linux/vuru/pkg/httputil"
)

const (
	// DefaultIndexURL is the published community index document.
	DefaultIndexURL = "https://vup-linux.github.io/vup/index.json"

	// DefaultIndexTTL bounds how long an on-disk index copy is served
	// without asking the server whether it changed.
	DefaultIndexTTL = 15 * time.Minute

	indexFileName = "index.json"
)

// IndexClient downloads the community index and keeps an on-disk copy at
// <dir>/index.json with an index.json.etag sidecar for conditional refresh.
//
// All methods are safe for concurrent use.
type IndexClient struct {
	http   *httputil.Client
	url    string
	dir    string
	ttl    time.Duration
	logger *log.Logger
}

// NewIndexClient creates a client for the index document at url, caching it
// under dir. Empty url, non-positive ttl, and nil logger select the
// defaults.
func NewIndexClient(url, dir string, ttl time.Duration, logger *log.Logger) *IndexClient {
	if url == "" {
		url = DefaultIndexURL
	}
	if ttl <= 0 {
		ttl = DefaultIndexTTL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IndexClient{
		http:   httputil.NewClient(nil, 0, nil),
		url:    url,
		dir:    dir,
		ttl:    ttl,
		logger: logger,
	}
}

// Load returns the community index, preferring the on-disk copy.
//
// A copy younger than the TTL is returned without network access unless
// refresh is true. Otherwise the index URL is fetched with If-None-Match
// from the etag sidecar: a 304 revalidates the copy, a 200 replaces it
// atomically. If the fetch fails and a copy exists, the stale copy is
// returned; with no copy at all the fetch error is reported.
func (c *IndexClient) Load(ctx context.Context, refresh bool) (*Index, error) {
	path := c.indexPath()

	if !refresh {
		if idx, ok := c.loadFresh(path); ok {
			return idx, nil
		}
	}

	res, err := c.http.GetConditional(ctx, c.url, c.readETag(path))
	if err != nil {
		idx, lerr := c.loadFile(path)
		if lerr != nil {
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "failed to fetch index")
		}
		c.logger.Warn("index fetch failed, using cached copy", "error", err)
		return idx, nil
	}

	if res.NotModified {
		if idx, lerr := c.loadFile(path); lerr == nil {
			now := time.Now()
			_ = os.Chtimes(path, now, now)
			return idx, nil
		}
		// The sidecar matched but the copy is unreadable. Refetch for real.
		res, err = c.http.GetConditional(ctx, c.url, "")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "failed to fetch index")
		}
	}

	idx, err := DecodeIndex(res.Body)
	if err != nil {
		return nil, err
	}
	if err := c.store(path, res.Body, res.ETag); err != nil {
		c.logger.Warn("could not persist index", "error", err)
	}
	return idx, nil
}

// ETag reports the validator stored alongside the on-disk copy, or ""
// when no usable copy exists.
func (c *IndexClient) ETag() string {
	return c.readETag(c.indexPath())
}

func (c *IndexClient) indexPath() string { return filepath.Join(c.dir, indexFileName) }
func (c *IndexClient) etagPath() string  { return c.indexPath() + ".etag" }

// loadFresh returns the on-disk copy when it is younger than the TTL.
func (c *IndexClient) loadFresh(path string) (*Index, bool) {
	fi, err := os.Stat(path)
	if err != nil || time.Since(fi.ModTime()) >= c.ttl {
		return nil, false
	}
	idx, err := c.loadFile(path)
	if err != nil {
		return nil, false
	}
	return idx, true
}

func (c *IndexClient) loadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeIndex(data)
}

// readETag returns the stored validator. An etag is only usable while the
// body it validates is still present.
func (c *IndexClient) readETag(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	data, err := os.ReadFile(c.etagPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// store atomically replaces the on-disk copy and its etag sidecar.
func (c *IndexClient) store(path string, body []byte, etag string) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	if etag == "" {
		// A leftover sidecar must not validate a body it does not match.
		if err := os.Remove(c.etagPath()); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return os.WriteFile(c.etagPath(), []byte(etag), 0644)
}
