package chapters

import (
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"pagesync/renderer"
)

type mapResolver struct {
	targets map[renderer.Fragment]int
	total   int
}

func (m mapResolver) Resolve(target renderer.Fragment) (int, error) {
	if i, ok := m.targets[target]; ok {
		return i, nil
	}
	return 0, errors.New("unresolvable")
}

func (m mapResolver) Total() int { return m.total }

func TestBuildTwoChapters(t *testing.T) {
	toc := []TOCEntry{
		{ID: "c1", Label: "Ch1", Target: "#c1"},
		{ID: "c2", Label: "Ch2", Target: "#c2"},
	}
	res := mapResolver{targets: map[renderer.Fragment]int{"#c1": 0, "#c2": 50}, total: 100}
	x := Build(toc, res, zaptest.NewLogger(t))

	if x.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", x.Len())
	}
	tests := []struct {
		loc       int
		label     string
		pagesLeft int
	}{
		{0, "Ch1", 49},
		{49, "Ch1", 0},
		{50, "Ch2", 49},
		{99, "Ch2", 0},
	}
	for _, tt := range tests {
		r, ok := x.Lookup(tt.loc)
		if !ok {
			t.Errorf("Lookup(%d) found nothing", tt.loc)
			continue
		}
		if r.Label != tt.label || r.PagesLeft(tt.loc) != tt.pagesLeft {
			t.Errorf("Lookup(%d) = %s/%d, want %s/%d", tt.loc, r.Label, r.PagesLeft(tt.loc), tt.label, tt.pagesLeft)
		}
	}
	if _, ok := x.Lookup(100); ok {
		t.Error("Lookup(100) must be out of range")
	}
}

func TestBuildNested(t *testing.T) {
	toc := []TOCEntry{
		{Label: "Part One", Target: "p1", Children: []TOCEntry{
			{Label: "Chapter 1", Target: "c1"},
			{Label: "Chapter 2", Target: "c2"},
		}},
		{Label: "Part Two", Target: "p2"},
	}
	res := mapResolver{targets: map[renderer.Fragment]int{"p1": 0, "c1": 2, "c2": 10, "p2": 20}, total: 30}
	ranges := Build(toc, res, zaptest.NewLogger(t)).Ranges()

	want := []Range{
		{TOCEntryID: "toc-0-part-one", Label: "Part One", Start: 0, End: 1},
		{TOCEntryID: "toc-1-chapter-1", Label: "Chapter 1", Start: 2, End: 9},
		{TOCEntryID: "toc-2-chapter-2", Label: "Chapter 2", Start: 10, End: 19},
		{TOCEntryID: "toc-3-part-two", Label: "Part Two", Start: 20, End: 29},
	}
	if len(ranges) != len(want) {
		t.Fatalf("got %d ranges, want %d", len(ranges), len(want))
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("range %d = %+v, want %+v", i, ranges[i], want[i])
		}
	}
}

func TestBuildSkipsUnresolved(t *testing.T) {
	toc := []TOCEntry{
		{ID: "a", Label: "A", Target: "a"},
		{ID: "lost", Label: "Lost", Target: "missing"},
		{ID: "b", Label: "B", Target: "b"},
	}
	res := mapResolver{targets: map[renderer.Fragment]int{"a": 0, "b": 5}, total: 10}
	ranges := Build(toc, res, zaptest.NewLogger(t)).Ranges()
	if len(ranges) != 2 || ranges[0].End != 4 || ranges[1].TOCEntryID != "b" {
		t.Errorf("unexpected ranges %+v", ranges)
	}
}

func TestBuildOutOfOrder(t *testing.T) {
	toc := []TOCEntry{
		{ID: "a", Label: "A", Target: "a"},
		{ID: "b", Label: "B", Target: "b"},
		{ID: "c", Label: "C", Target: "c"},
		{ID: "d", Label: "D", Target: "d"},
	}
	// c goes backwards into a
	res := mapResolver{targets: map[renderer.Fragment]int{"a": 10, "b": 20, "c": 3, "d": 30}, total: 40}
	ranges := Build(toc, res, zaptest.NewLogger(t)).Ranges()

	want := []Range{
		{TOCEntryID: "a", Label: "A", Start: 10, End: 19},
		{TOCEntryID: "b", Label: "B", Start: 20, End: 29},
		{TOCEntryID: "d", Label: "D", Start: 30, End: 39},
	}
	if len(ranges) != len(want) {
		t.Fatalf("got %+v", ranges)
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("range %d = %+v, want %+v", i, ranges[i], want[i])
		}
	}
}

func TestBuildParentSharesStart(t *testing.T) {
	toc := []TOCEntry{
		{ID: "p1", Label: "Part One", Target: "p1", Children: []TOCEntry{
			{ID: "c1", Label: "Chapter 1", Target: "c1"},
			{ID: "c2", Label: "Chapter 2", Target: "c2"},
		}},
	}
	res := mapResolver{targets: map[renderer.Fragment]int{"p1": 0, "c1": 0, "c2": 8}, total: 20}
	x := Build(toc, res, zaptest.NewLogger(t))

	if x.Len() != 2 {
		t.Fatalf("got %+v", x.Ranges())
	}
	for loc := range 20 {
		var n int
		for _, r := range x.Ranges() {
			if r.Contains(loc) {
				n++
			}
		}
		if n != 1 {
			t.Errorf("location %d is in %d ranges", loc, n)
		}
	}
	if r, _ := x.Lookup(0); r.TOCEntryID != "c1" || r.End != 7 {
		t.Errorf("Lookup(0) = %+v", r)
	}
}

func TestLookupNilIndex(t *testing.T) {
	var x *Index
	if _, ok := x.Lookup(0); ok || x.Len() != 0 || x.Ranges() != nil {
		t.Error("nil index must be empty")
	}
}
