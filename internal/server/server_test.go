package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/vup-linux/vuru/pkg/cache"
	"github.com/vup-linux/vuru/pkg/vup"
)

const htopTemplate = "pkgname=htop\nversion=3.2.2\nrevision=1\nshort_desc=\"Interactive process viewer\"\n"

func writeTemplate(t *testing.T, dir, category, name, content string) {
	t.Helper()
	pkgDir := filepath.Join(dir, category, name)
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", pkgDir, err)
	}
	if err := os.WriteFile(filepath.Join(pkgDir, "template"), []byte(content), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
}

func testTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTemplate(t, dir, "apps", "htop", htopTemplate)
	return dir
}

func testServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	s, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func get(t *testing.T, h http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := testServer(t, Options{SrcpkgsDir: testTree(t)})

	rec := get(t, s.Handler(), "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok\n" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "ok\n")
	}
}

func TestIndexDocument(t *testing.T) {
	s := testServer(t, Options{SrcpkgsDir: testTree(t)})

	rec := get(t, s.Handler(), "/index.json", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("missing ETag header")
	}

	idx, err := vup.DecodeIndex(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("DecodeIndex: %v", err)
	}
	meta, ok := idx.Lookup("htop")
	if !ok {
		t.Fatal("htop missing from served index")
	}
	if meta.Version != "3.2.2_1" {
		t.Errorf("htop version = %q, want 3.2.2_1", meta.Version)
	}
}

func TestIndexNotModified(t *testing.T) {
	s := testServer(t, Options{SrcpkgsDir: testTree(t)})
	h := s.Handler()

	first := get(t, h, "/index.json", nil)
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag header")
	}

	second := get(t, h, "/index.json", map[string]string{"If-None-Match": etag})
	if second.Code != http.StatusNotModified {
		t.Fatalf("status = %d, want 304", second.Code)
	}
	if second.Body.Len() != 0 {
		t.Errorf("304 carried a body of %d bytes", second.Body.Len())
	}
}

func TestTemplateEndpoint(t *testing.T) {
	s := testServer(t, Options{SrcpkgsDir: testTree(t)})

	rec := get(t, s.Handler(), "/srcpkgs/apps/htop/template", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != htopTemplate {
		t.Errorf("body = %q, want the template text", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestTemplateNotFound(t *testing.T) {
	s := testServer(t, Options{SrcpkgsDir: testTree(t)})

	rec := get(t, s.Handler(), "/srcpkgs/apps/absent/template", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestTemplateRejectsTraversal(t *testing.T) {
	dir := testTree(t)
	if err := os.WriteFile(filepath.Join(dir, "secret"), []byte("keep out"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := testServer(t, Options{SrcpkgsDir: dir})
	h := s.Handler()

	for _, path := range []string{
		"/srcpkgs/apps/../template",
		"/srcpkgs/../apps/template",
		"/srcpkgs/apps/.hidden/template",
	} {
		rec := get(t, h, path, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, rec.Code)
		}
	}
}

func TestRebuildPicksUpNewTemplate(t *testing.T) {
	ctx := context.Background()
	dir := testTree(t)
	s := testServer(t, Options{SrcpkgsDir: dir})
	h := s.Handler()

	writeTemplate(t, dir, "apps", "wget",
		"pkgname=wget\nversion=1.24\nrevision=1\n")
	if err := s.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	rec := get(t, h, "/index.json", nil)
	idx, err := vup.DecodeIndex(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("DecodeIndex: %v", err)
	}
	if _, ok := idx.Lookup("wget"); !ok {
		t.Error("wget missing after rebuild")
	}
}

func TestSharedCachePublish(t *testing.T) {
	ctx := context.Background()
	shared, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	testServer(t, Options{SrcpkgsDir: testTree(t), Cache: shared})

	data, ok, err := shared.Get(ctx, indexCacheKey)
	if err != nil || !ok {
		t.Fatalf("shared cache Get: ok=%v err=%v", ok, err)
	}
	idx, err := vup.DecodeIndex(data)
	if err != nil {
		t.Fatalf("DecodeIndex: %v", err)
	}
	if _, ok := idx.Lookup("htop"); !ok {
		t.Error("htop missing from published index")
	}
}

func TestSharedCachePreferred(t *testing.T) {
	ctx := context.Background()
	shared, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	s := testServer(t, Options{SrcpkgsDir: testTree(t), Cache: shared})

	// Another instance rebuilt and published a newer document.
	foreign := []byte(`{"rsync":{"category":"apps","version":"3.3.0_1"}}`)
	if err := shared.Set(ctx, indexCacheKey, foreign, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	rec := get(t, s.Handler(), "/index.json", nil)
	if rec.Body.String() != string(foreign) {
		t.Errorf("body = %q, want the shared copy", rec.Body.String())
	}
}
