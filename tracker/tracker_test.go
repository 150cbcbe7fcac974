package tracker

import (
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap/zaptest"

	"pagesync/chapters"
	"pagesync/common"
	"pagesync/locations"
	"pagesync/renderer"
)

func frag(i int) renderer.Fragment {
	return renderer.Fragment(fmt.Sprintf("/loc:%d", i))
}

func readyTable(t *testing.T, total int) *locations.Table {
	t.Helper()
	fragments := make([]renderer.Fragment, total)
	for i := range total {
		fragments[i] = frag(i)
	}
	x, err := locations.NewIndex(fragments, nil)
	if err != nil {
		t.Fatal(err)
	}
	var tbl locations.Table
	tbl.SetReady(x)
	return &tbl
}

func twoChapters(t *testing.T, tbl *locations.Table) *chapters.Index {
	t.Helper()
	return chapters.Build([]chapters.TOCEntry{
		{ID: "c1", Label: "Ch1", Target: frag(0)},
		{ID: "c2", Label: "Ch2", Target: frag(50)},
	}, tbl, zaptest.NewLogger(t))
}

type relocations struct {
	seq uint64
}

func (r *relocations) at(start, end int) renderer.Relocation {
	r.seq++
	return renderer.Relocation{
		Seq:           r.seq,
		StartFragment: frag(start),
		EndFragment:   frag(end),
		StartIndex:    renderer.Index(start),
		EndIndex:      renderer.Index(end),
	}
}

func (r *relocations) fragmentsOnly(start, end int) renderer.Relocation {
	r.seq++
	return renderer.Relocation{Seq: r.seq, StartFragment: frag(start), EndFragment: frag(end)}
}

func TestColdStart(t *testing.T) {
	var tbl locations.Table
	tr := New(&tbl, zaptest.NewLogger(t))
	if s := tr.Snapshot(); s.State != common.TrackerStateUninitialized || s.Page != 1 || s.HasViewport {
		t.Fatalf("initial snapshot %+v", s)
	}

	var r relocations
	// nothing resolvable before locations are ready
	u, err := tr.Relocated(r.fragmentsOnly(3, 4))
	if err != nil {
		t.Fatal(err)
	}
	s := tr.Snapshot()
	if u.Page != 1 || s.Viewport != (Viewport{0, 0}) || !s.HasViewport || s.State != common.TrackerStateSettled {
		t.Errorf("first relocation without locations: %+v", s)
	}
	if s.Resume != frag(3) {
		t.Errorf("Resume = %q, want %q", s.Resume, frag(3))
	}

	// renderer supplied indices are used even when table is pending
	u, _ = tr.Relocated(r.at(7, 8))
	if u.Page != 8 {
		t.Errorf("Page = %d, want 8", u.Page)
	}

	// last known viewport end when nothing else is available
	u, _ = tr.Relocated(r.fragmentsOnly(20, 21))
	if u.Page != 9 || tr.Snapshot().Viewport != (Viewport{8, 8}) {
		t.Errorf("fallback relocation: page %d viewport %+v", u.Page, tr.Snapshot().Viewport)
	}
}

func TestResolveThroughLocationIndex(t *testing.T) {
	tbl := readyTable(t, 100)
	tr := New(tbl, zaptest.NewLogger(t))
	var r relocations

	u, err := tr.Relocated(r.fragmentsOnly(41, 42))
	if err != nil {
		t.Fatal(err)
	}
	if u.Page != 42 || tr.Snapshot().Viewport != (Viewport{41, 42}) {
		t.Errorf("page %d viewport %+v", u.Page, tr.Snapshot().Viewport)
	}

	// indices beyond the table are clamped
	u, _ = tr.Relocated(r.at(150, 160))
	if u.Page != 100 || tr.Snapshot().Viewport != (Viewport{99, 99}) {
		t.Errorf("page %d viewport %+v", u.Page, tr.Snapshot().Viewport)
	}
}

func TestChapterBoundary(t *testing.T) {
	tbl := readyTable(t, 100)
	tr := New(tbl, zaptest.NewLogger(t))
	tr.SetChapters(twoChapters(t, tbl))
	var r relocations

	tests := []struct {
		start     int
		label     string
		pagesLeft int
	}{
		{49, "Ch1", 0},
		{50, "Ch2", 49},
	}
	for _, tt := range tests {
		if _, err := tr.Relocated(r.at(tt.start, tt.start)); err != nil {
			t.Fatal(err)
		}
		s := tr.Snapshot()
		if s.Chapter == nil || s.PagesLeft == nil {
			t.Fatalf("start %d: no chapter", tt.start)
		}
		if s.Chapter.Label != tt.label || *s.PagesLeft != tt.pagesLeft {
			t.Errorf("start %d: %s/%d, want %s/%d", tt.start, s.Chapter.Label, *s.PagesLeft, tt.label, tt.pagesLeft)
		}
	}
}

func TestFrontMatterHasNoChapter(t *testing.T) {
	tbl := readyTable(t, 100)
	tr := New(tbl, zaptest.NewLogger(t))
	tr.SetChapters(chapters.Build([]chapters.TOCEntry{{ID: "c1", Label: "Ch1", Target: frag(10)}}, tbl, zaptest.NewLogger(t)))
	var r relocations
	tr.Relocated(r.at(3, 4))
	if s := tr.Snapshot(); s.Chapter != nil || s.PagesLeft != nil {
		t.Errorf("front matter chapter %+v", s.Chapter)
	}
}

func TestStuckDetection(t *testing.T) {
	tbl := readyTable(t, 100)
	tr := New(tbl, zaptest.NewLogger(t))
	var r relocations

	if _, err := tr.Relocated(r.at(55, 58)); err != nil {
		t.Fatal(err)
	}
	tr.BeginNavigation(common.NavDirectionNext, 60)
	if !tr.InFlight() {
		t.Fatal("navigation must be in flight")
	}
	u, err := tr.Relocated(r.at(55, 58))
	if err != nil {
		t.Fatal(err)
	}
	s := tr.Snapshot()
	if !u.Stuck || !s.Stuck {
		t.Error("stuck flag not set")
	}
	if s.Page != 56 {
		t.Errorf("Page = %d, want 56", s.Page)
	}
	if tr.InFlight() {
		t.Error("navigation must settle after relocation")
	}

	// progress clears the flag
	tr.BeginNavigation(common.NavDirectionNext, tr.Target(common.NavDirectionNext))
	u, _ = tr.Relocated(r.at(59, 62))
	if u.Stuck || u.Page != 60 {
		t.Errorf("update %+v", u)
	}
}

func TestSameViewportWithoutNavigationIsNotStuck(t *testing.T) {
	tr := New(readyTable(t, 100), zaptest.NewLogger(t))
	var r relocations
	tr.Relocated(r.at(10, 12))
	if u, _ := tr.Relocated(r.at(10, 12)); u.Stuck {
		t.Error("repeated relocation outside navigation flagged stuck")
	}
	// going back to the same place is not a failure either
	tr.BeginNavigation(common.NavDirectionPrev, 5)
	if u, _ := tr.Relocated(r.at(10, 12)); u.Stuck {
		t.Error("prev navigation flagged stuck")
	}
}

func TestErrorsKeepState(t *testing.T) {
	tr := New(readyTable(t, 100), zaptest.NewLogger(t))
	var r relocations
	tr.Relocated(r.at(20, 21))
	before := tr.Snapshot()

	bad := r.at(0, 0)
	bad.StartIndex = renderer.Index(-5)
	if _, err := tr.Relocated(bad); !errors.Is(err, ErrBadIndex) {
		t.Errorf("error = %v, want ErrBadIndex", err)
	}
	late := r.at(30, 31)
	late.Seq = 1
	if _, err := tr.Relocated(late); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("error = %v, want ErrOutOfOrder", err)
	}
	if after := tr.Snapshot(); after != before {
		t.Errorf("state changed after errors: %+v -> %+v", before, after)
	}
}

func TestIdempotentDisplay(t *testing.T) {
	tr := New(readyTable(t, 100), zaptest.NewLogger(t))
	var r relocations
	tr.Relocated(r.fragmentsOnly(33, 35))
	page, resume := tr.Page(), tr.Resume()

	// surface displays the fragment it reported and relocates to the same place
	u, _ := tr.Relocated(renderer.Relocation{Seq: 99, StartFragment: resume, EndFragment: frag(35)})
	if u.Page != page {
		t.Errorf("Page = %d, want %d", u.Page, page)
	}
}

func TestSectionPages(t *testing.T) {
	tr := New(readyTable(t, 100), zaptest.NewLogger(t))
	var r relocations

	if _, err := tr.SetSectionPage(2); !errors.Is(err, ErrNoSection) {
		t.Errorf("error = %v, want ErrNoSection", err)
	}

	ev := r.at(10, 10)
	ev.DisplayedTotal = renderer.Index(3)
	tr.Relocated(ev)
	if s := tr.Section(); s != (Section{Page: 1, Total: 3, StartGlobal: 11}) {
		t.Fatalf("Section() = %+v", s)
	}
	for n, want := range map[int]int{2: 12, 3: 13, 1: 11} {
		got, err := tr.SetSectionPage(n)
		if err != nil || got != want {
			t.Errorf("SetSectionPage(%d) = %d, %v, want %d", n, got, err, want)
		}
	}
	if _, err := tr.SetSectionPage(4); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("error = %v, want ErrPageOutOfRange", err)
	}

	tr.SetSectionPage(3)
	tr.ResetSectionPage()
	if tr.Section().Page != 1 {
		t.Error("ResetSectionPage did not reset")
	}
}

func TestAbandonNavigation(t *testing.T) {
	tr := New(readyTable(t, 10), zaptest.NewLogger(t))
	tr.BeginNavigation(common.NavDirectionNext, tr.Target(common.NavDirectionNext))
	tr.AbandonNavigation()
	if s := tr.Snapshot(); s.State != common.TrackerStateUninitialized {
		t.Errorf("State = %s, want uninitialized", s.State)
	}

	var r relocations
	tr.Relocated(r.at(2, 3))
	tr.BeginNavigation(common.NavDirectionPrev, tr.Target(common.NavDirectionPrev))
	tr.AbandonNavigation()
	if tr.InFlight() || tr.Snapshot().State != common.TrackerStateSettled {
		t.Error("navigation still in flight")
	}
}

func TestRefreshResolvesPendingViewport(t *testing.T) {
	var tbl locations.Table
	tr := New(&tbl, zaptest.NewLogger(t))
	var r relocations
	tr.Relocated(r.fragmentsOnly(33, 35))
	if tr.Page() != 1 {
		t.Fatalf("Page() = %d before locations", tr.Page())
	}

	ready := readyTable(t, 100)
	tbl.SetReady(ready.Index())
	tr.SetChapters(twoChapters(t, &tbl))
	tr.Refresh()

	s := tr.Snapshot()
	if s.Page != 34 || s.Viewport != (Viewport{33, 35}) {
		t.Errorf("after refresh page %d viewport %+v", s.Page, s.Viewport)
	}
	if s.Chapter == nil || s.Chapter.Label != "Ch1" || *s.PagesLeft != 16 {
		t.Errorf("chapter %+v", s.Chapter)
	}
}

func TestNoStuckAtEndOfBook(t *testing.T) {
	tr := New(readyTable(t, 100), zaptest.NewLogger(t))
	var r relocations
	tr.Relocated(r.at(98, 99))
	tr.BeginNavigation(common.NavDirectionNext, tr.Target(common.NavDirectionNext))
	if u, _ := tr.Relocated(r.at(98, 99)); u.Stuck {
		t.Error("end of book flagged stuck")
	}
}

func TestGuessedViewportIsNotStuck(t *testing.T) {
	var tbl locations.Table
	tr := New(&tbl, zaptest.NewLogger(t))
	var r relocations

	tr.Relocated(r.fragmentsOnly(0, 1))
	tr.BeginNavigation(common.NavDirectionNext, tr.Target(common.NavDirectionNext))
	u, err := tr.Relocated(r.fragmentsOnly(2, 3))
	if err != nil {
		t.Fatal(err)
	}
	if u.Stuck {
		t.Error("content moved but relocation flagged stuck")
	}
	if tr.Resume() != frag(2) {
		t.Errorf("Resume = %q, want %q", tr.Resume(), frag(2))
	}

	// same fragments reported again after navigation
	tr.BeginNavigation(common.NavDirectionNext, tr.Target(common.NavDirectionNext))
	if u, _ = tr.Relocated(r.fragmentsOnly(2, 3)); !u.Stuck {
		t.Error("repeated fragments not flagged stuck")
	}

	ready := readyTable(t, 100)
	tbl.SetReady(ready.Index())
	tr.Refresh()
	if s := tr.Snapshot(); s.Page != 3 || s.Viewport != (Viewport{2, 3}) {
		t.Errorf("after refresh page %d viewport %+v", s.Page, s.Viewport)
	}
}
