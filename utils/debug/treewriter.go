// Package debug renders indented text dumps of books, location tables and
// chapter ranges for troubleshooting.
package debug

import (
	"fmt"
	"strconv"
	"strings"

	"pagesync/chapters"
)

type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Field writes "label: value", strings are quoted.
func (tw TreeWriter) Field(depth int, label string, value any) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	if s, ok := value.(string); ok {
		tw.w.WriteString(encodeText(s))
	} else {
		fmt.Fprint(tw.w, value)
	}
	tw.w.WriteByte('\n')
}

// TOC writes table of contents with nesting preserved.
func (tw TreeWriter) TOC(depth int, entries []chapters.TOCEntry) {
	for _, e := range entries {
		tw.Line(depth, "%s %s -> %s", e.ID, encodeText(e.Label), e.Target)
		tw.TOC(depth+1, e.Children)
	}
}

// Ranges writes chapter ranges as 1-based page spans.
func (tw TreeWriter) Ranges(depth int, x *chapters.Index) {
	for _, r := range x.Ranges() {
		tw.Line(depth, "pages %d-%d (%d) %s", r.Start+1, r.End+1, r.End-r.Start+1, encodeText(r.Label))
	}
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
