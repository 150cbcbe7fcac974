// Package tracker owns viewport and section state of the open book. State
// changes only in reaction to relocation events reported by the rendering
// surface, everything else reads it through Snapshot.
package tracker

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pagesync/chapters"
	"pagesync/common"
	"pagesync/locations"
	"pagesync/renderer"
)

var (
	ErrOutOfOrder     = errors.New("relocation delivered out of order")
	ErrBadIndex       = errors.New("relocation carries negative location index")
	ErrNoSection      = errors.New("section page count is unknown")
	ErrPageOutOfRange = errors.New("section page out of range")
)

// Viewport is location span currently visible, Start <= End.
type Viewport struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Section keeps locally numbered pages of the currently loaded section. Zero
// Total means surface did not report page count for it.
type Section struct {
	Page        int `yaml:"page"`
	Total       int `yaml:"total"`
	StartGlobal int `yaml:"start_global"`
}

// GlobalPage is book-wide page number of current section page.
func (s Section) GlobalPage() int {
	return s.StartGlobal + s.Page - 1
}

// Known reports whether section page count was supplied.
func (s Section) Known() bool {
	return s.Total > 0
}

// Snapshot is read-only copy of tracker state.
type Snapshot struct {
	State       common.TrackerState
	Seq         uint64
	Viewport    Viewport
	HasViewport bool
	Page        int
	Section     Section
	Chapter     *chapters.Range
	PagesLeft   *int
	Resume      renderer.Fragment
	Stuck       bool
}

// Update is result of processing single relocation.
type Update struct {
	Seq   uint64
	Page  int
	Stuck bool
}

const noTarget = -1

// Tracker is not safe for concurrent use, all calls must come from the
// engine dispatch path.
type Tracker struct {
	log   *zap.Logger
	locs  *locations.Table
	chaps *chapters.Index

	state       common.TrackerState
	seq         uint64
	viewport    Viewport
	hasViewport bool
	loc         int
	page        int
	section     Section
	chapter     *chapters.Range
	resume      renderer.Fragment
	stuck       bool
	last        renderer.Relocation

	target    int
	direction common.NavDirection
}

func New(locs *locations.Table, log *zap.Logger) *Tracker {
	return &Tracker{
		log:    log.Named("tracker"),
		locs:   locs,
		page:   1,
		target: noTarget,
	}
}

// SetChapters installs chapter index once it is built.
func (t *Tracker) SetChapters(x *chapters.Index) {
	t.chaps = x
	t.Refresh()
}

// Refresh recomputes derived values after location or chapter index became
// available. Viewport which surface reported only as fragments is resolved
// again through the location index.
func (t *Tracker) Refresh() {
	if t.locs.Ready() {
		if t.hasViewport && t.last.StartIndex == nil {
			if vp, _, err := t.resolve(t.last); err == nil {
				t.viewport, t.loc, t.page = vp, vp.Start, max(1, vp.Start+1)
				if t.section.Known() {
					t.section.StartGlobal = vp.Start + 1
					t.page = t.section.GlobalPage()
					t.loc = t.page - 1
				}
			}
		}
		t.page = min(t.page, t.locs.Total())
		t.loc = t.locs.Clamp(t.loc)
	}
	t.updateChapter()
}

// Relocated processes relocation reported by the surface. On error tracker
// keeps its previous state.
func (t *Tracker) Relocated(ev renderer.Relocation) (Update, error) {
	if t.seq != 0 && ev.Seq <= t.seq {
		return Update{}, fmt.Errorf("%w: seq %d after %d", ErrOutOfOrder, ev.Seq, t.seq)
	}

	vp, exact, err := t.resolve(ev)
	if err != nil {
		return Update{}, err
	}
	// surface reported the very place it showed before
	same := t.hasViewport && ev.StartFragment != "" &&
		ev.StartFragment == t.last.StartFragment &&
		ev.EndFragment == t.last.EndFragment
	if same && !exact {
		vp = t.viewport
	}

	// viewport guessed from previous one says nothing about movement
	stuck := t.state == common.TrackerStateNavigating &&
		t.target != noTarget &&
		t.hasViewport &&
		(exact || same) &&
		vp == t.viewport &&
		t.target > t.viewport.End

	if stuck {
		t.log.Warn("Surface did not move to requested location",
			zap.Uint64("seq", ev.Seq),
			zap.Int("requested", t.target),
			zap.Int("start", vp.Start),
			zap.Int("end", vp.End),
			zap.Stringer("direction", t.direction))
	} else {
		t.page = max(1, vp.Start+1)
		t.loc = vp.Start
	}

	if ev.DisplayedTotal != nil && *ev.DisplayedTotal > 0 {
		t.section = Section{Page: 1, Total: *ev.DisplayedTotal, StartGlobal: vp.Start + 1}
	}

	t.seq, t.last = ev.Seq, ev
	t.viewport, t.hasViewport = vp, true
	t.stuck = stuck
	if ev.StartFragment != "" {
		t.resume = ev.StartFragment
	}
	t.state = common.TrackerStateSettled
	t.target, t.direction = noTarget, common.NavDirectionNone
	t.updateChapter()

	t.log.Debug("Relocated",
		zap.Uint64("seq", ev.Seq),
		zap.Int("start", vp.Start),
		zap.Int("end", vp.End),
		zap.Int("page", t.page),
		zap.Bool("stuck", stuck))

	return Update{Seq: ev.Seq, Page: t.page, Stuck: stuck}, nil
}

// resolve picks viewport boundaries: values supplied by the surface, then
// location index lookup, then last known viewport end, then beginning of the
// book. Exact is false when start had to be guessed.
func (t *Tracker) resolve(ev renderer.Relocation) (vp Viewport, exact bool, err error) {
	start, exact, err := t.resolveOne(ev.StartIndex, ev.StartFragment)
	if err != nil {
		return Viewport{}, false, err
	}
	if !exact {
		if t.hasViewport {
			start = t.viewport.End
		} else {
			start = 0
		}
	}

	end, ok, err := t.resolveOne(ev.EndIndex, ev.EndFragment)
	if err != nil {
		return Viewport{}, false, err
	}
	if !ok || end < start {
		end = start
	}

	if t.locs.Ready() {
		start, end = t.locs.Clamp(start), t.locs.Clamp(end)
	}
	return Viewport{Start: start, End: end}, exact, nil
}

func (t *Tracker) resolveOne(supplied *int, fragment renderer.Fragment) (int, bool, error) {
	if supplied != nil {
		if *supplied < 0 {
			return 0, false, fmt.Errorf("%w: %d", ErrBadIndex, *supplied)
		}
		return *supplied, true, nil
	}
	if fragment == "" || !t.locs.Ready() {
		return 0, false, nil
	}
	idx, err := t.locs.Resolve(fragment)
	if err != nil {
		t.log.Debug("Unable to resolve fragment", zap.String("fragment", string(fragment)), zap.Error(err))
		return 0, false, nil
	}
	return idx, true, nil
}

func (t *Tracker) updateChapter() {
	t.chapter = nil
	if r, ok := t.chaps.Lookup(t.loc); ok {
		t.chapter = &r
	}
}

// BeginNavigation records that navigation command is about to be issued.
// Target is requested location index, negative when unknown.
func (t *Tracker) BeginNavigation(dir common.NavDirection, target int) {
	t.state = common.TrackerStateNavigating
	t.direction = dir
	t.target = max(target, noTarget)
}

// AbandonNavigation returns tracker to settled state when navigation
// command failed or relocation never came.
func (t *Tracker) AbandonNavigation() {
	if t.state != common.TrackerStateNavigating {
		return
	}
	t.log.Debug("Navigation abandoned", zap.Stringer("direction", t.direction), zap.Int("requested", t.target))
	if t.hasViewport {
		t.state = common.TrackerStateSettled
	} else {
		t.state = common.TrackerStateUninitialized
	}
	t.target, t.direction = noTarget, common.NavDirectionNone
}

// InFlight reports whether navigation awaits its relocation.
func (t *Tracker) InFlight() bool {
	return t.state == common.TrackerStateNavigating
}

// SetSectionPage moves to page n of current section and returns new global
// page. Viewport stays as reported by the last relocation.
func (t *Tracker) SetSectionPage(n int) (int, error) {
	if !t.section.Known() {
		return 0, ErrNoSection
	}
	if n < 1 || n > t.section.Total {
		return 0, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, n, t.section.Total)
	}
	t.section.Page = n
	t.page = t.section.GlobalPage()
	if t.locs.Ready() {
		t.page = min(t.page, t.locs.Total())
	}
	t.loc = t.page - 1
	t.updateChapter()
	return t.page, nil
}

// ResetSectionPage is used after crossing section boundary, next relocation
// supplies new page count.
func (t *Tracker) ResetSectionPage() {
	t.section.Page = 1
}

// Target returns location index navigation should reach for the direction,
// negative when nothing is known yet.
func (t *Tracker) Target(dir common.NavDirection) int {
	if !t.hasViewport {
		return noTarget
	}
	switch dir {
	case common.NavDirectionNext:
		// nothing to request past the end of the book
		return t.locs.Clamp(t.viewport.End + 1)
	case common.NavDirectionPrev:
		return max(0, t.viewport.Start-1)
	}
	return noTarget
}

func (t *Tracker) Page() int {
	return t.page
}

func (t *Tracker) Section() Section {
	return t.section
}

// Resume returns the fragment to hand to storage as resume point.
func (t *Tracker) Resume() renderer.Fragment {
	return t.resume
}

func (t *Tracker) Snapshot() Snapshot {
	s := Snapshot{
		State:       t.state,
		Seq:         t.seq,
		Viewport:    t.viewport,
		HasViewport: t.hasViewport,
		Page:        t.page,
		Section:     t.section,
		Resume:      t.resume,
		Stuck:       t.stuck,
	}
	if t.chapter != nil {
		r := *t.chapter
		left := r.PagesLeft(t.loc)
		s.Chapter, s.PagesLeft = &r, &left
	}
	return s
}
