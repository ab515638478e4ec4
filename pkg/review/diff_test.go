package review

import (
	"fmt"
	"strings"
	"testing"
)

func TestLineDiffIdentical(t *testing.T) {
	if d := LineDiff(tmplV1, tmplV1); d != "" {
		t.Errorf("LineDiff = %q, want empty", d)
	}
}

func TestLineDiffSingleLine(t *testing.T) {
	got := LineDiff("a\n", "b\n")
	want := "@@ -1 +1 @@\n-a\n+b\n"
	if got != want {
		t.Errorf("LineDiff = %q, want %q", got, want)
	}
}

func TestLineDiffFromEmpty(t *testing.T) {
	got := LineDiff("", "a\nb\n")
	want := "@@ -0,0 +1,2 @@\n+a\n+b\n"
	if got != want {
		t.Errorf("LineDiff = %q, want %q", got, want)
	}
}

func TestLineDiffSingleHunk(t *testing.T) {
	previous := "pkgname=htop\n" +
		"version=3.2.1\n" +
		"revision=1\n" +
		"short_desc=\"Interactive process viewer\"\n" +
		"license=\"GPL-2.0-or-later\"\n"
	current := "pkgname=htop\n" +
		"version=3.2.2\n" +
		"revision=1\n" +
		"short_desc=\"Interactive process viewer\"\n" +
		"license=\"GPL-2.0-or-later\"\n" +
		"maintainer=\"Orphaned <orphan@vup-linux.org>\"\n"

	want := "@@ -1,5 +1,6 @@\n" +
		" pkgname=htop\n" +
		"-version=3.2.1\n" +
		"+version=3.2.2\n" +
		" revision=1\n" +
		" short_desc=\"Interactive process viewer\"\n" +
		" license=\"GPL-2.0-or-later\"\n" +
		"+maintainer=\"Orphaned <orphan@vup-linux.org>\"\n"

	if got := LineDiff(previous, current); got != want {
		t.Errorf("LineDiff:\n got %q\nwant %q", got, want)
	}
}

func TestLineDiffSplitsDistantChanges(t *testing.T) {
	oldLines := numberedLines(20)
	newLines := numberedLines(20)
	newLines[1] = "line02 changed"
	newLines[17] = "line18 changed"

	got := LineDiff(strings.Join(oldLines, "\n")+"\n", strings.Join(newLines, "\n")+"\n")

	want := "@@ -1,5 +1,5 @@\n" +
		" line01\n" +
		"-line02\n" +
		"+line02 changed\n" +
		" line03\n" +
		" line04\n" +
		" line05\n" +
		"@@ -15,6 +15,6 @@\n" +
		" line15\n" +
		" line16\n" +
		" line17\n" +
		"-line18\n" +
		"+line18 changed\n" +
		" line19\n" +
		" line20\n"

	if got != want {
		t.Errorf("LineDiff:\n got %q\nwant %q", got, want)
	}
}

func numberedLines(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line%02d", i+1)
	}
	return lines
}
