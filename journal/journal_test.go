package journal

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"pagesync/chapters"
	"pagesync/common"
	"pagesync/renderer"
)

func sampleJournal() *Journal {
	frags := make([]renderer.Fragment, 100)
	for i := range frags {
		frags[i] = renderer.Fragment(fmt.Sprintf("/loc:%d", i))
	}
	j := New("urn:book:1", "The Sample Book", "run-1", []chapters.TOCEntry{
		{ID: "c1", Label: "Ch1", Target: "/loc:0"},
		{ID: "c2", Label: "Ch2", Target: "/loc:50"},
	})
	reloc := func(seq uint64, start, end int) *renderer.Relocation {
		return &renderer.Relocation{Seq: seq, StartFragment: frags[start], EndFragment: frags[end]}
	}
	j.Record(Entry{Kind: KindRelocated, Relocation: &renderer.Relocation{Seq: 1, StartFragment: "/loc:3"}, Page: 1})
	j.Record(Entry{Kind: KindLocations, Locations: frags})
	j.Record(Entry{Kind: KindRelocated, Relocation: reloc(2, 49, 49), Page: 50})
	j.Record(NavigateEntry(common.NavDirectionNext, 50))
	j.Record(Entry{Kind: KindRelocated, Relocation: reloc(3, 50, 51), Page: 51})
	j.Record(NavigateEntry(common.NavDirectionNext, 52))
	j.Record(Entry{Kind: KindRelocated, Relocation: reloc(4, 50, 51), Page: 51, Stuck: true})
	j.Record(Entry{Kind: KindInput, Verdict: "debounced"})
	return j
}

func TestReplay(t *testing.T) {
	steps, err := Replay(sampleJournal(), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if len(steps) != 7 {
		t.Fatalf("got %d steps, want 7", len(steps))
	}
	for _, st := range steps {
		if st.Mismatch {
			t.Errorf("step %d (%s) mismatch: page %d recorded %d", st.Index, st.Kind, st.Page, st.Recorded)
		}
	}

	boundary := steps[2]
	if boundary.Chapter != "Ch1" || boundary.PagesLeft == nil || *boundary.PagesLeft != 0 {
		t.Errorf("boundary step %+v", boundary)
	}
	next := steps[4]
	if next.Chapter != "Ch2" || *next.PagesLeft != 49 {
		t.Errorf("next chapter step %+v", next)
	}
	if last := steps[6]; !last.Stuck || last.Page != 51 {
		t.Errorf("stuck step %+v", last)
	}
}

func TestReplayDetectsMismatch(t *testing.T) {
	j := sampleJournal()
	j.Entries[2].Page = 7
	steps, err := Replay(j, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	if !steps[2].Mismatch {
		t.Error("wrong recorded page not detected")
	}
}

func TestEncodeDecodeReplay(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleJournal().Encode(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "kind: relocated") {
		t.Errorf("unexpected encoding:\n%s", buf.String())
	}
	j, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if j.Book != "urn:book:1" || len(j.TOC) != 2 || j.Len() != 8 {
		t.Fatalf("decoded journal %s, %d entries", j.Book, j.Len())
	}
	steps, err := Replay(j, zaptest.NewLogger(t))
	if err != nil || len(steps) != 7 || !steps[6].Stuck {
		t.Errorf("replay of decoded journal: %v", err)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	if _, err := Decode(strings.NewReader("book: x\nunknown: 1\n")); err == nil {
		t.Error("unknown field accepted")
	}
}

func TestReplayBadDirection(t *testing.T) {
	j := New("b", "", "", nil)
	j.Record(Entry{Kind: KindNavigate, Direction: "sideways"})
	if _, err := Replay(j, zaptest.NewLogger(t)); err == nil {
		t.Error("bad direction accepted")
	}
}

func TestName(t *testing.T) {
	if n := New("urn:x", "The Sample Book: Part 2", "", nil).Name(); n != "journal/the-sample-book-part-2.yaml" {
		t.Errorf("Name() = %q", n)
	}
	if n := New("", "", "", nil).Name(); n != "journal/book.yaml" {
		t.Errorf("Name() = %q", n)
	}
}

// inUnit resolves "/in:N" fragments, pointing inside location N.
type inUnit struct{}

func (inUnit) GenerateLocations(context.Context, int) ([]renderer.Fragment, error) {
	return nil, nil
}

func (inUnit) LocationIndexOf(target renderer.Fragment) (int, error) {
	var i int
	if _, err := fmt.Sscanf(string(target), "/in:%d", &i); err != nil {
		return 0, err
	}
	return i, nil
}

func (inUnit) FragmentCount() int {
	return 0
}

func TestReplayUsesRecordedLookups(t *testing.T) {
	j := sampleJournal()
	j.TOC = append(j.TOC, chapters.TOCEntry{ID: "c3", Label: "Ch3", Target: "/in:70"})

	loc := j.Locator(inUnit{})
	for _, f := range []renderer.Fragment{"/in:70", "/in:72", "/in:73"} {
		if _, err := loc.LocationIndexOf(f); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := loc.LocationIndexOf("/elsewhere"); err == nil {
		t.Fatal("bad fragment resolved")
	}
	if len(j.Lookups) != 3 {
		t.Fatalf("recorded lookups %v", j.Lookups)
	}
	j.Record(Entry{Kind: KindRelocated, Relocation: &renderer.Relocation{Seq: 5, StartFragment: "/in:72", EndFragment: "/in:73"}, Page: 73})

	var buf bytes.Buffer
	if err := j.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	steps, err := Replay(decoded, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	last := steps[len(steps)-1]
	if last.Mismatch || last.Page != 73 || last.Chapter != "Ch3" || *last.PagesLeft != 27 {
		t.Errorf("last step %+v", last)
	}
}
