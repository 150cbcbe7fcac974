// Package textsurface is a character cell rendering surface for books loaded
// by package book. It is used by the terminal reader and as a realistic
// surface in tests.
//
// Regular surface turns one screen per command and reports exact location
// indexes once locations are generated. Broken surface models renderers
// with per-section page counters: commands jump whole sections, relocation
// is reported only on section entry and screens inside section are reached
// by shifting content horizontally.
package textsurface

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"pagesync/renderer"
	"pagesync/renderer/textsurface/book"
)

var (
	ErrBoundary    = errors.New("no section in this direction")
	ErrNoLocations = errors.New("locations are not generated")
)

const (
	minColumns = 10
	minRows    = 1
)

type Options struct {
	Columns int
	Rows    int
	Broken  bool
	// Latency delays every command, zero means commands complete at once.
	Latency time.Duration
}

type line struct {
	text       string
	start, end int
}

type screen struct {
	start, end int
	lines      []line
}

type Surface struct {
	log     *zap.Logger
	book    *book.Book
	broken  bool
	latency time.Duration
	split   *splitter

	mu       sync.Mutex
	cols     int
	rows     int
	screens  [][]screen
	sec      int
	scr      int
	shift    int
	locs     []book.Position
	sinks    map[int]renderer.EventSink
	nextSink int
}

func New(b *book.Book, opts Options, log *zap.Logger) *Surface {
	s := &Surface{
		log:     log.Named("surface"),
		book:    b,
		broken:  opts.Broken,
		latency: opts.Latency,
		cols:    max(opts.Columns, minColumns),
		rows:    max(opts.Rows, minRows),
		sinks:   make(map[int]renderer.EventSink),
	}
	s.split = newSplitter(b.Lang, s.log)
	s.layout()
	return s
}

func (s *Surface) Book() *book.Book {
	return s.book
}

func (s *Surface) Attach(sink renderer.EventSink) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSink
	s.nextSink++
	s.sinks[id] = sink
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.sinks, id)
	}
}

func (s *Surface) Display(ctx context.Context, target renderer.Fragment) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	var pos book.Position
	if target != "" {
		p, err := s.book.Resolve(target)
		if err != nil {
			return fmt.Errorf("unable to display: %w", err)
		}
		pos = p
	}

	s.mu.Lock()
	s.sec = pos.Section
	if s.broken {
		s.scr, s.shift = 0, 0
	} else {
		s.scr = screenAt(s.screens[s.sec], pos.Offset)
	}
	r := s.relocation()
	s.mu.Unlock()

	s.emit(func(k renderer.EventSink) { k.Rendered() })
	s.emit(func(k renderer.EventSink) { k.Relocated(r) })
	return nil
}

// AdvanceSection turns one screen forward, broken surface turns to the next
// section. Regular surface at the end of the book stays and reports the
// same viewport again.
func (s *Surface) AdvanceSection(ctx context.Context) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	switch {
	case !s.broken && s.scr+1 < len(s.screens[s.sec]):
		s.scr++
	case s.sec+1 < len(s.screens):
		s.sec++
		s.scr, s.shift = 0, 0
	case s.broken:
		s.mu.Unlock()
		return ErrBoundary
	}
	r := s.relocation()
	s.mu.Unlock()

	s.emit(func(k renderer.EventSink) { k.Relocated(r) })
	return nil
}

// RetreatSection turns one screen back, broken surface opens the previous
// section on its first screen.
func (s *Surface) RetreatSection(ctx context.Context) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	switch {
	case !s.broken && s.scr > 0:
		s.scr--
	case s.sec > 0:
		s.sec--
		if s.broken {
			s.scr, s.shift = 0, 0
		} else {
			s.scr = len(s.screens[s.sec]) - 1
		}
	case s.broken:
		s.mu.Unlock()
		return ErrBoundary
	}
	r := s.relocation()
	s.mu.Unlock()

	s.emit(func(k renderer.EventSink) { k.Relocated(r) })
	return nil
}

// Resize lays book out again for width columns and height rows keeping
// the first visible character on screen.
func (s *Surface) Resize(ctx context.Context, width, height int) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	offset := s.screens[s.sec][s.scr].start
	s.cols, s.rows = max(width, minColumns), max(height, minRows)
	s.layout()
	if s.broken {
		s.scr, s.shift = 0, 0
	} else {
		s.scr = screenAt(s.screens[s.sec], offset)
	}
	r := s.relocation()
	s.mu.Unlock()

	s.log.Debug("Resized", zap.Int("columns", width), zap.Int("rows", height))
	s.emit(func(k renderer.EventSink) { k.Relocated(r) })
	return nil
}

// Translate shows screen of the current section offsetX columns to the
// right of the first one.
func (s *Surface) Translate(offsetX float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int(math.Round(offsetX / float64(s.cols)))
	s.shift = min(max(n, 0), len(s.screens[s.sec])-1)
}

// GenerateLocations samples book every sampleSize characters, locations
// never cross section boundaries.
func (s *Surface) GenerateLocations(ctx context.Context, sampleSize int) ([]renderer.Fragment, error) {
	if sampleSize <= 0 {
		return nil, fmt.Errorf("bad location sample size %d", sampleSize)
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	var locs []book.Position
	for i, sec := range s.book.Sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for off := 0; off < len(sec.Text); off += sampleSize {
			locs = append(locs, book.Position{Section: i, Offset: off})
		}
	}
	out := make([]renderer.Fragment, len(locs))
	for i, p := range locs {
		out[i] = p.Fragment()
	}

	s.mu.Lock()
	s.locs = locs
	s.mu.Unlock()

	s.log.Debug("Locations generated", zap.Int("count", len(locs)), zap.Int("sample", sampleSize))
	return out, nil
}

// LocationIndexOf returns index of the last location at or before fragment.
func (s *Surface) LocationIndexOf(f renderer.Fragment) (int, error) {
	p, err := s.book.Resolve(f)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.locs) == 0 {
		return 0, ErrNoLocations
	}
	return s.indexOf(p), nil
}

func (s *Surface) FragmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locs)
}

// Lines returns visible text.
func (s *Surface) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := s.visible()
	out := make([]string, len(sc.lines))
	for i, l := range sc.lines {
		out[i] = l.text
	}
	return out
}

func (s *Surface) Render() string {
	return strings.Join(s.Lines(), "\n")
}

// Tap reports pointer input at column x of row y.
func (s *Surface) Tap(x, y float64, link string) {
	s.mu.Lock()
	t := renderer.Tap{X: x, Y: y, Width: float64(s.cols), Link: link, At: time.Now()}
	s.mu.Unlock()
	s.emit(func(k renderer.EventSink) { k.Tapped(t) })
}

// Select reports selection of sentence starting at visible line n, whole
// line is selected when no sentence model is available. Out of range n
// clears selection.
func (s *Surface) Select(n int) {
	var (
		r    renderer.FragmentRange
		text string
	)
	s.mu.Lock()
	if sc := s.visible(); n >= 0 && n < len(sc.lines) {
		start, end := sc.lines[n].start, sc.lines[n].end
		if s.split != nil {
			start, end = s.sentence(start)
		}
		r = renderer.FragmentRange{
			Start: book.Position{Section: s.sec, Offset: start}.Fragment(),
			End:   book.Position{Section: s.sec, Offset: max(end-1, start)}.Fragment(),
		}
		text = string(s.book.Sections[s.sec].Text[start:end])
	}
	s.mu.Unlock()
	s.emit(func(k renderer.EventSink) { k.Selected(r, text) })
}

// sentence finds sentence containing offset of the current section.
func (s *Surface) sentence(offset int) (start, end int) {
	text := s.book.Sections[s.sec].Text
	ps, pe := offset, offset
	for ps > 0 && text[ps-1] != '\n' {
		ps--
	}
	for pe < len(text) && text[pe] != '\n' {
		pe++
	}
	start, end = s.split.around(text[ps:pe], offset-ps)
	return ps + start, ps + end
}

func (s *Surface) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Surface) emit(fn func(renderer.EventSink)) {
	s.mu.Lock()
	sinks := slices.Collect(maps.Values(s.sinks))
	s.mu.Unlock()
	for _, k := range sinks {
		fn(k)
	}
}

func (s *Surface) layout() {
	s.screens = make([][]screen, len(s.book.Sections))
	for i, sec := range s.book.Sections {
		s.screens[i] = paginate(wrap(sec.Text, s.cols), s.rows)
	}
}

func (s *Surface) visible() screen {
	screens := s.screens[s.sec]
	return screens[min(s.scr+s.shift, len(screens)-1)]
}

// relocation describes current viewport, must be called with lock held.
func (s *Surface) relocation() renderer.Relocation {
	sc := s.screens[s.sec][s.scr]
	start := book.Position{Section: s.sec, Offset: sc.start}
	end := book.Position{Section: s.sec, Offset: max(sc.end-1, sc.start)}
	r := renderer.Relocation{
		StartFragment: start.Fragment(),
		EndFragment:   end.Fragment(),
	}
	if s.broken {
		r.DisplayedPage = renderer.Index(1)
		r.DisplayedTotal = renderer.Index(len(s.screens[s.sec]))
		return r
	}
	if len(s.locs) > 0 {
		r.StartIndex = renderer.Index(s.indexOf(start))
		r.EndIndex = renderer.Index(s.indexOf(end))
	}
	return r
}

func (s *Surface) indexOf(p book.Position) int {
	i := sort.Search(len(s.locs), func(i int) bool { return p.Less(s.locs[i]) })
	return max(i-1, 0)
}

func screenAt(screens []screen, offset int) int {
	i := sort.Search(len(screens), func(i int) bool { return screens[i].start > offset })
	return max(i-1, 0)
}

// wrap breaks paragraphs (separated by new lines) into lines of at most cols
// characters, on spaces when possible.
func wrap(text []rune, cols int) []line {
	var out []line
	for start := 0; start < len(text); {
		end := start
		for end < len(text) && text[end] != '\n' {
			end++
		}
		for ls := start; ls < end; {
			le := min(ls+cols, end)
			if le < end {
				if sp := lastSpace(text[ls : le+1]); sp > 0 {
					le = ls + sp
				}
			}
			out = append(out, line{text: string(text[ls:le]), start: ls, end: le})
			ls = le
			for ls < end && text[ls] == ' ' {
				ls++
			}
		}
		start = end + 1
	}
	return out
}

func lastSpace(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == ' ' {
			return i
		}
	}
	return -1
}

func paginate(lines []line, rows int) []screen {
	var out []screen
	for chunk := range slices.Chunk(lines, rows) {
		out = append(out, screen{start: chunk[0].start, end: chunk[len(chunk)-1].end, lines: chunk})
	}
	return out
}
