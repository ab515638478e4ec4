package review

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is how many unchanged lines surround each hunk.
const contextLines = 3

type diffLine struct {
	op   diffmatchpatch.Operation
	text string
}

// LineDiff renders a unified line diff between two template versions.
// It returns the empty string when the inputs are identical.
func LineDiff(previous, current string) string {
	if previous == current {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(previous, current)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var stream []diffLine
	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			stream = append(stream, diffLine{d.Type, text})
		}
	}
	return renderHunks(stream)
}

func renderHunks(stream []diffLine) string {
	// A hunk spans from contextLines before the first changed line to
	// contextLines after the last; touching hunks merge.
	type span struct{ start, end int }
	var spans []span
	for i, l := range stream {
		if l.op == diffmatchpatch.DiffEqual {
			continue
		}
		start := max(i-contextLines, 0)
		end := min(i+contextLines+1, len(stream))
		if n := len(spans); n > 0 && start <= spans[n-1].end {
			spans[n-1].end = end
		} else {
			spans = append(spans, span{start, end})
		}
	}

	var buf strings.Builder
	oldLine, newLine := 1, 1
	next := 0
	for _, sp := range spans {
		for ; next < sp.start; next++ {
			switch stream[next].op {
			case diffmatchpatch.DiffDelete:
				oldLine++
			case diffmatchpatch.DiffInsert:
				newLine++
			default:
				oldLine++
				newLine++
			}
		}

		oldStart, newStart := oldLine, newLine
		oldCount, newCount := 0, 0
		var body strings.Builder
		for ; next < sp.end; next++ {
			l := stream[next]
			switch l.op {
			case diffmatchpatch.DiffDelete:
				body.WriteByte('-')
				oldCount++
				oldLine++
			case diffmatchpatch.DiffInsert:
				body.WriteByte('+')
				newCount++
				newLine++
			default:
				body.WriteByte(' ')
				oldCount++
				newCount++
				oldLine++
				newLine++
			}
			body.WriteString(l.text)
			body.WriteByte('\n')
		}
		fmt.Fprintf(&buf, "@@ -%s +%s @@\n", hunkRange(oldStart, oldCount), hunkRange(newStart, newCount))
		buf.WriteString(body.String())
	}
	return buf.String()
}

// hunkRange formats one side of a hunk header. An empty range points
// at the line before the hunk, following unified diff conventions.
func hunkRange(start, count int) string {
	switch count {
	case 0:
		return fmt.Sprintf("%d,0", start-1)
	case 1:
		return fmt.Sprintf("%d", start)
	default:
		return fmt.Sprintf("%d,%d", start, count)
	}
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
