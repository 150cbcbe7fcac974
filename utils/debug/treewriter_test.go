package debug

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"pagesync/chapters"
	"pagesync/renderer"
)

func TestTreeWriterLineAndField(t *testing.T) {
	tests := []struct {
		name  string
		write func(tw *TreeWriter)
		want  string
	}{
		{"line", func(tw *TreeWriter) { tw.Line(0, "total %d", 3) }, "total 3\n"},
		{"indented line", func(tw *TreeWriter) { tw.Line(2, "deep") }, "    deep\n"},
		{"string field", func(tw *TreeWriter) { tw.Field(1, "title", "A \"B\"") }, "  title: \"A \\\"B\\\"\"\n"},
		{"empty string field", func(tw *TreeWriter) { tw.Field(0, "title", "") }, "title: \n"},
		{"number field", func(tw *TreeWriter) { tw.Field(0, "pages", 42) }, "pages: 42\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tt.write(tw)
			if got := tw.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

type fixedResolver map[renderer.Fragment]int

func (r fixedResolver) Resolve(f renderer.Fragment) (int, error) { return r[f], nil }
func (r fixedResolver) Total() int { return 10 }

func TestTreeWriterTOCAndRanges(t *testing.T) {
	toc := []chapters.TOCEntry{
		{ID: "c1", Label: "One", Target: "/0:0", Children: []chapters.TOCEntry{
			{ID: "c1a", Label: "Inner", Target: "/0:5"},
		}},
		{ID: "c2", Label: "Two", Target: "/1:0"},
	}
	tw := NewTreeWriter()
	tw.TOC(0, toc)
	want := "c1 \"One\" -> /0:0\n  c1a \"Inner\" -> /0:5\nc2 \"Two\" -> /1:0\n"
	if got := tw.String(); got != want {
		t.Errorf("TOC() = %q, want %q", got, want)
	}

	x := chapters.Build(toc, fixedResolver{"/0:0": 0, "/0:5": 2, "/1:0": 6}, zaptest.NewLogger(t))
	tw = NewTreeWriter()
	tw.Ranges(1, x)
	want = "  pages 1-2 (2) \"One\"\n  pages 3-6 (4) \"Inner\"\n  pages 7-10 (4) \"Two\"\n"
	if got := tw.String(); got != want {
		t.Errorf("Ranges() = %q, want %q", got, want)
	}
}
