package review

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	vuerrors "github.com/vup-linux/vuru/pkg/errors"
)

const (
	tmplV1 = "pkgname=htop\nversion=3.2.1\nrevision=1\n"
	tmplV2 = "pkgname=htop\nversion=3.2.2\nrevision=1\n"
)

func testReviewer(t *testing.T) *Reviewer {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return NewReviewer(store, log.New(io.Discard))
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if _, ok, err := store.Last("htop"); err != nil || ok {
		t.Fatalf("Last before save: ok=%v err=%v, want miss", ok, err)
	}
	if err := store.Save("htop", tmplV1); err != nil {
		t.Fatalf("Save: %v", err)
	}
	text, ok, err := store.Last("htop")
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if !ok || text != tmplV1 {
		t.Errorf("Last = %q, ok=%v, want stored template", text, ok)
	}
}

func TestStoreRejectsInvalidName(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	for _, name := range []string{"", ".hidden", "a/../b", "pkg name"} {
		if err := store.Save(name, "x"); !vuerrors.Is(err, vuerrors.ErrCodeInvalidPackage) {
			t.Errorf("Save(%q) error = %v, want invalid package", name, err)
		}
		if _, _, err := store.Last(name); !vuerrors.Is(err, vuerrors.ErrCodeInvalidPackage) {
			t.Errorf("Last(%q) error = %v, want invalid package", name, err)
		}
	}
}

func TestInspectNew(t *testing.T) {
	r := testReviewer(t)

	rep, err := r.Inspect("htop", tmplV1)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if rep.Change != ChangeNew {
		t.Errorf("Change = %q, want %q", rep.Change, ChangeNew)
	}
	if rep.Diff != "" {
		t.Errorf("Diff = %q, want empty for new template", rep.Diff)
	}
	if rep.Current != tmplV1 {
		t.Errorf("Current = %q, want full template", rep.Current)
	}
}

func TestInspectUnchangedAfterAccept(t *testing.T) {
	r := testReviewer(t)

	if err := r.Accept("htop", tmplV1); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	rep, err := r.Inspect("htop", tmplV1)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if rep.Change != ChangeUnchanged {
		t.Errorf("Change = %q, want %q", rep.Change, ChangeUnchanged)
	}
	if rep.Diff != "" {
		t.Errorf("Diff = %q, want empty for unchanged template", rep.Diff)
	}
}

func TestInspectModified(t *testing.T) {
	r := testReviewer(t)

	if err := r.Accept("htop", tmplV1); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	rep, err := r.Inspect("htop", tmplV2)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if rep.Change != ChangeModified {
		t.Errorf("Change = %q, want %q", rep.Change, ChangeModified)
	}
	if !strings.Contains(rep.Diff, "-version=3.2.1") || !strings.Contains(rep.Diff, "+version=3.2.2") {
		t.Errorf("Diff missing version change:\n%s", rep.Diff)
	}
}

func TestInspectInvalidName(t *testing.T) {
	r := testReviewer(t)

	if _, err := r.Inspect("a/../b", tmplV1); !vuerrors.Is(err, vuerrors.ErrCodeInvalidPackage) {
		t.Errorf("Inspect error = %v, want invalid package", err)
	}
}

func TestAcceptThenUnchanged(t *testing.T) {
	r := testReviewer(t)

	rep, err := r.Inspect("wget", tmplV1)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if rep.Change != ChangeNew {
		t.Fatalf("Change = %q, want %q", rep.Change, ChangeNew)
	}
	if err := r.Accept("wget", tmplV1); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	rep, err = r.Inspect("wget", tmplV1)
	if err != nil {
		t.Fatalf("Inspect after accept: %v", err)
	}
	if rep.Change != ChangeUnchanged {
		t.Errorf("Change = %q, want %q", rep.Change, ChangeUnchanged)
	}
}
