// Package engine keeps reading position of an open book in sync with the
// rendering surface. All state lives on single dispatch loop, surface
// commands run off the loop and report back through it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"pagesync/chapters"
	"pagesync/common"
	"pagesync/config"
	"pagesync/frame"
	"pagesync/indicator"
	"pagesync/input"
	"pagesync/journal"
	"pagesync/locations"
	"pagesync/loop"
	"pagesync/paging"
	"pagesync/renderer"
	"pagesync/store"
	"pagesync/tracker"
)

var (
	ErrClosed     = errors.New("reader is closed")
	ErrNoBook     = errors.New("no book is open")
	ErrNoPosition = errors.New("current position is not known yet")
	ErrNoStore    = errors.New("no bookmark storage configured")
)

// Book describes what is being opened. ID is the key for persisted state.
type Book struct {
	ID    string
	Title string
	TOC   []chapters.TOCEntry
}

type Selection struct {
	Text  string
	Range renderer.FragmentRange
}

// View is what host UI shows. TotalPages is 0 while pagination is unknown,
// PagesLeftInChapter is nil outside of chapters or before chapters are built.
type View struct {
	Ready              bool
	Status             common.LocationsStatus
	CurrentPage        int
	TotalPages         int
	PagesLeftInChapter *int
	ChapterLabel       string
	IndicatorVisible   bool
	Selection          *Selection
	Stuck              bool
	Resume             renderer.Fragment
	// Indicator is status line rendered from configured template.
	Indicator string
}

func (v View) TotalKnown() bool {
	return v.TotalPages > 0
}

// Store receives positions engine wants persisted.
type Store interface {
	SaveResume(ctx context.Context, book string, f renderer.Fragment) error
	AddBookmark(ctx context.Context, b store.Bookmark) (store.Bookmark, error)
}

type Option func(*Engine)

// WithStore enables resume point persistence and bookmarks.
func WithStore(s Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithObserver installs function called on the dispatch loop every time
// view changes. It must not call back into engine synchronously.
func WithObserver(fn func(View)) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// WithControls installs function called when host should show its controls.
func WithControls(fn func()) Option {
	return func(e *Engine) {
		e.controls = fn
	}
}

// WithJournal enables event journal, fn receives finished journal when book
// is closed.
func WithJournal(fn func(*journal.Journal)) Option {
	return func(e *Engine) {
		e.journalDone = fn
	}
}

type Engine struct {
	log  *zap.Logger
	cfg  config.ReaderConfig
	loop *loop.Loop

	store       Store
	observer    func(View)
	controls    func()
	journalDone func(*journal.Journal)

	// owned by loop
	input   *input.Classifier
	ind     *indicator.Controller
	line    *indicator.Line
	overlay bool
	token   uint64
	s       *session
	closed  bool

	mu sync.Mutex
	// saves of already closed books which failed, reported by Close
	lost error
}

type session struct {
	token   uint64
	id      string
	book    Book
	surface renderer.Surface
	detach  func()
	ctx     context.Context
	cancel  context.CancelFunc

	locs      locations.Table
	tracker   *tracker.Tracker
	pager     *paging.Pager
	frame     *frame.Coalescer
	journal   *journal.Journal
	seq       uint64
	shownPage int
	selection *Selection
	cancelNav func()

	saving  bool
	pending renderer.Fragment
	gone    atomic.Bool
}

func New(cfg config.ReaderConfig, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		log: log.Named("engine"),
		cfg: cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.loop = loop.New(log)
	e.input = input.New(cfg.PrevZone, cfg.NextZone, cfg.Debounce, log)
	e.ind = indicator.New(e.loop, cfg.IndicatorTimeout, func(bool) { e.publish() })

	var err error
	if e.line, err = indicator.NewLine(string(config.IndicatorTemplateFieldName), cfg.IndicatorTemplate); err != nil {
		e.log.Warn("Using default indicator line", zap.Error(err))
		e.line, _ = indicator.NewLine("default", indicator.DefaultLine)
	}
	return e
}

// Open closes current book, if any, attaches to surface and displays resume
// point (or beginning of the book when resume point cannot be displayed).
// Location table is generated in background afterwards.
func (e *Engine) Open(ctx context.Context, surface renderer.Surface, book Book, resume renderer.Fragment) error {
	var (
		s   *session
		err error
	)
	if serr := e.loop.Sync(func() {
		if e.closed {
			err = ErrClosed
			return
		}
		e.teardown()
		s = e.newSession(ctx, surface, book)
	}); serr != nil {
		return ErrClosed
	}
	if err != nil {
		return err
	}

	e.log.Info("Opening book", zap.String("id", book.ID), zap.String("title", book.Title), zap.String("resume", string(resume)))

	if err := surface.Display(s.ctx, resume); err != nil {
		if resume == "" {
			return fmt.Errorf("unable to display book: %w", err)
		}
		e.log.Warn("Unable to display resume point, starting from beginning", zap.String("resume", string(resume)), zap.Error(err))
		if err := surface.Display(s.ctx, ""); err != nil {
			return fmt.Errorf("unable to display book: %w", err)
		}
	}

	e.loop.Post(func() {
		if !e.current(s) {
			return
		}
		e.generate(s)
		e.ind.Poke()
	})
	return nil
}

func (e *Engine) newSession(ctx context.Context, surface renderer.Surface, book Book) *session {
	e.token++
	s := &session{
		token:     e.token,
		id:        uuid.NewString(),
		book:      book,
		surface:   surface,
		shownPage: 1,
	}
	// session must outlive Open call, only values are inherited
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.tracker = tracker.New(&s.locs, e.log)
	s.frame = frame.NewCoalescer(e.loop, e.cfg.FrameInterval, func(page int) {
		s.shownPage = page
		e.publish()
	})
	s.pager = paging.New(e.cfg.Paging, surface, s.tracker, e.loop, func(page int) {
		e.record(s, journal.Entry{Kind: journal.KindSubPage, SectionPage: s.tracker.Section().Page, Page: page})
		s.frame.Set(page)
	}, e.cfg.RetreatCheckDelay, e.log)
	if e.journalDone != nil {
		s.journal = journal.New(book.ID, book.Title, s.id, book.TOC)
	}
	s.detach = surface.Attach(&sink{e: e, token: s.token})
	e.s = s
	return s
}

// teardown releases current session: latest resume point is handed to
// store, generation task is cancelled, timers stopped and surface detached.
// Late results of the session are dropped by token check. When engine is
// closing final save is left to Close.
func (e *Engine) teardown() {
	s := e.s
	if s == nil {
		return
	}
	if !e.closed {
		e.flushResume(s)
	}
	s.gone.Store(true)
	s.cancel()
	s.detach()
	s.frame.Stop()
	s.pager.Stop()
	e.stopNavTimer(s)
	e.ind.Stop()
	e.input.Reset()
	e.s = nil

	if s.journal != nil && e.journalDone != nil {
		e.journalDone(s.journal)
	}
	e.log.Debug("Book closed", zap.String("id", s.book.ID), zap.Uint64("relocations", s.seq))
}

func (e *Engine) current(s *session) bool {
	return e.s != nil && e.s == s
}

func (e *Engine) record(s *session, entry journal.Entry) {
	s.journal.Record(entry)
}

func (e *Engine) generate(s *session) {
	var (
		x     *locations.Index
		chaps *chapters.Index
	)
	b := locations.NewBuilder(s.journal.Locator(s.surface), e.cfg.LocationSampleSize, e.log)
	e.loop.Go(func() error {
		var err error
		if x, err = b.Generate(s.ctx); err != nil {
			return err
		}
		var tbl locations.Table
		tbl.SetReady(x)
		chaps = chapters.Build(s.book.TOC, &tbl, e.log)
		return nil
	}, func(err error) {
		if !e.current(s) || s.ctx.Err() != nil {
			e.log.Debug("Discarding locations of closed book", zap.String("id", s.book.ID))
			return
		}
		if err != nil {
			e.log.Warn("Location generation failed, pagination is unavailable", zap.Error(err))
			s.locs.SetFailed(err)
			e.record(s, journal.Entry{Kind: journal.KindGenFailure, Err: err.Error()})
			e.publish()
			return
		}
		s.locs.SetReady(x)
		e.record(s, journal.Entry{Kind: journal.KindLocations, Locations: s.locs.Index().Fragments()})
		s.tracker.Refresh()
		s.tracker.SetChapters(chaps)
		e.log.Info("Pagination ready", zap.Int("pages", x.Total()), zap.Int("chapters", chaps.Len()))
		s.frame.Set(s.tracker.Page())
		e.publish()
	})
}

// Close closes current book saving its resume point and stops the engine.
func (e *Engine) Close() error {
	var (
		book   string
		resume renderer.Fragment
	)
	if err := e.loop.Sync(func() {
		if e.closed {
			return
		}
		e.closed = true
		if s := e.s; s != nil {
			book, resume = s.book.ID, s.tracker.Resume()
		}
		e.teardown()
	}); err != nil {
		return nil
	}
	// waits for saves still in flight, final one must land last
	e.loop.Stop()

	e.mu.Lock()
	err := e.lost
	e.mu.Unlock()
	if e.store != nil && resume != "" {
		if serr := e.store.SaveResume(context.Background(), book, resume); serr != nil {
			err = multierr.Append(err, fmt.Errorf("unable to save resume point of %s: %w", book, serr))
		}
	}
	return err
}

// Next and Prev are keyboard navigation.
func (e *Engine) Next() {
	e.request(common.NavDirectionNext, time.Now())
}

func (e *Engine) Prev() {
	e.request(common.NavDirectionPrev, time.Now())
}

func (e *Engine) request(dir common.NavDirection, at time.Time) {
	e.loop.Post(func() {
		s := e.s
		if s == nil {
			return
		}
		d := e.input.Admit(input.NavigationRequest{Direction: dir, At: at}, s.tracker.InFlight())
		e.apply(s, d)
	})
}

// Tap handles pointer input delivered by host instead of surface.
func (e *Engine) Tap(t renderer.Tap) {
	if t.At.IsZero() {
		t.At = time.Now()
	}
	e.loop.Post(func() {
		if s := e.s; s != nil {
			e.tapped(s, t)
		}
	})
}

func (e *Engine) tapped(s *session, t renderer.Tap) {
	cond := input.Conditions{
		OverlayOpen:  e.overlay,
		HasSelection: s.selection != nil,
		InFlight:     s.tracker.InFlight(),
	}
	e.apply(s, e.input.Classify(t, cond))
}

func (e *Engine) apply(s *session, d input.Decision) {
	if d.ShowControls && e.controls != nil {
		e.controls()
	}
	if d.ShowIndicator {
		e.ind.Poke()
	}
	if !d.Navigate() {
		e.record(s, journal.Entry{Kind: journal.KindInput, Verdict: d.Verdict.String()})
		return
	}

	target := s.tracker.Target(d.Direction)
	done := func(err error) {
		if err != nil {
			e.stopNavTimer(s)
			e.record(s, journal.Entry{Kind: journal.KindAbandon, Err: err.Error()})
			e.publish()
		}
	}

	var move paging.Move
	switch d.Direction {
	case common.NavDirectionNext:
		move = s.pager.Advance(s.ctx, done)
	case common.NavDirectionPrev:
		move = s.pager.Retreat(s.ctx, done)
	default:
		return
	}
	if move == paging.MoveSurface {
		e.record(s, journal.NavigateEntry(d.Direction, target))
		e.armNavTimer(s)
	}
}

// armNavTimer releases single-flight guard if relocation never arrives.
func (e *Engine) armNavTimer(s *session) {
	e.stopNavTimer(s)
	s.cancelNav = e.loop.AfterFunc(e.cfg.NavigationTimeout, func() {
		s.cancelNav = nil
		if !e.current(s) || !s.tracker.InFlight() {
			return
		}
		e.log.Warn("No relocation after navigation, releasing", zap.Duration("timeout", e.cfg.NavigationTimeout))
		s.tracker.AbandonNavigation()
		e.record(s, journal.Entry{Kind: journal.KindAbandon, Err: "timeout"})
		e.publish()
	})
}

func (e *Engine) stopNavTimer(s *session) {
	if s.cancelNav != nil {
		s.cancelNav()
		s.cancelNav = nil
	}
}

// GoTo displays position addressed by fragment, usually a bookmark.
func (e *Engine) GoTo(ctx context.Context, target renderer.Fragment) error {
	var (
		s   *session
		err error
	)
	if serr := e.loop.Sync(func() {
		if s = e.s; s == nil {
			err = ErrNoBook
			return
		}
		idx := -1
		if i, rerr := s.locs.Resolve(target); rerr == nil {
			idx = i
		}
		s.tracker.BeginNavigation(common.NavDirectionNone, idx)
		e.record(s, journal.NavigateEntry(common.NavDirectionNone, idx))
		e.armNavTimer(s)
	}); serr != nil {
		return ErrClosed
	}
	if err != nil {
		return err
	}

	if err := s.surface.Display(ctx, target); err != nil {
		e.loop.Post(func() {
			if e.current(s) {
				e.stopNavTimer(s)
				s.tracker.AbandonNavigation()
				e.record(s, journal.Entry{Kind: journal.KindAbandon, Err: err.Error()})
			}
		})
		return fmt.Errorf("unable to display %s: %w", target, err)
	}
	return nil
}

// Resize forwards new viewport size to the surface.
func (e *Engine) Resize(ctx context.Context, width, height int) error {
	var s *session
	if err := e.loop.Sync(func() {
		if s = e.s; s != nil {
			s.pager.SetWidth(float64(width))
		}
	}); err != nil {
		return ErrClosed
	}
	if s == nil {
		return ErrNoBook
	}
	if err := s.surface.Resize(ctx, width, height); err != nil {
		return fmt.Errorf("unable to resize surface: %w", err)
	}
	return nil
}

// SetOverlay tells engine whether modal overlay covers the content.
func (e *Engine) SetOverlay(open bool) {
	e.loop.Post(func() {
		e.overlay = open
	})
}

func (e *Engine) ClearSelection() {
	e.loop.Post(func() {
		if s := e.s; s != nil && s.selection != nil {
			s.selection = nil
			e.publish()
		}
	})
}

// AddBookmark saves current position. Empty label is replaced by chapter
// label and page number.
func (e *Engine) AddBookmark(ctx context.Context, label string) (store.Bookmark, error) {
	if e.store == nil {
		return store.Bookmark{}, ErrNoStore
	}
	var (
		b   store.Bookmark
		err error
	)
	if serr := e.loop.Sync(func() {
		s := e.s
		if s == nil {
			err = ErrNoBook
			return
		}
		snap := s.tracker.Snapshot()
		if snap.Resume == "" {
			err = ErrNoPosition
			return
		}
		if label == "" {
			label = fmt.Sprintf("p. %d", snap.Page)
			if snap.Chapter != nil && snap.Chapter.Label != "" {
				label = snap.Chapter.Label + ", " + label
			}
		}
		b = store.Bookmark{Book: s.book.ID, Fragment: snap.Resume, Label: label}
	}); serr != nil {
		return store.Bookmark{}, ErrClosed
	}
	if err != nil {
		return store.Bookmark{}, err
	}
	return e.store.AddBookmark(ctx, b)
}

// View returns current host view.
func (e *Engine) View() (View, error) {
	var v View
	if err := e.loop.Sync(func() { v = e.view() }); err != nil {
		return View{}, ErrClosed
	}
	return v, nil
}

func (e *Engine) view() View {
	v := View{IndicatorVisible: e.ind.Visible(), CurrentPage: 1}
	s := e.s
	if s == nil {
		return v
	}
	snap := s.tracker.Snapshot()
	v.Ready, v.Status = s.locs.Ready(), s.locs.Status()
	v.CurrentPage = s.shownPage
	v.TotalPages = s.locs.Total()
	if snap.Chapter != nil {
		v.ChapterLabel = snap.Chapter.Label
		left := *snap.PagesLeft
		v.PagesLeftInChapter = &left
	}
	if s.selection != nil {
		sel := *s.selection
		v.Selection = &sel
	}
	v.Stuck = snap.Stuck
	v.Resume = snap.Resume
	v.Indicator = e.indicatorLine(v)
	return v
}

func (e *Engine) indicatorLine(v View) string {
	vals := indicator.Values{
		Ready:   v.Ready,
		Page:    v.CurrentPage,
		Total:   v.TotalPages,
		Chapter: v.ChapterLabel,
		Stuck:   v.Stuck,
	}
	if v.PagesLeftInChapter != nil {
		vals.PagesLeft, vals.HasPagesLeft = *v.PagesLeftInChapter, true
	}
	text, err := e.line.Render(vals)
	if err != nil {
		e.log.Debug("Unable to render indicator line", zap.Error(err))
		return strconv.Itoa(v.CurrentPage)
	}
	return text
}

func (e *Engine) publish() {
	if e.observer != nil {
		e.observer(e.view())
	}
}

func (e *Engine) relocated(s *session, r renderer.Relocation) {
	s.seq++
	r.Seq, r.At = s.seq, time.Now()

	u, err := s.tracker.Relocated(r)
	entry := journal.Entry{Kind: journal.KindRelocated, Relocation: &r, Page: s.tracker.Page(), Stuck: u.Stuck}
	if err != nil {
		e.log.Warn("Unable to process relocation", zap.Uint64("seq", r.Seq), zap.Error(err))
		entry.Err = err.Error()
		e.record(s, entry)
		return
	}
	e.record(s, entry)
	e.stopNavTimer(s)
	s.frame.Set(u.Page)
	e.ind.Poke()
	e.saveResume(s, s.tracker.Resume())
}

// saveResume hands resume point to store off the loop. Only one save runs at
// a time, positions arriving meanwhile collapse into the latest one.
func (e *Engine) saveResume(s *session, f renderer.Fragment) {
	if e.store == nil || f == "" {
		return
	}
	if s.saving {
		s.pending = f
		return
	}
	s.saving, s.pending = true, ""
	// closing the book must not interrupt the save
	ctx := context.WithoutCancel(s.ctx)
	e.loop.Go(func() error {
		err := e.store.SaveResume(ctx, s.book.ID, f)
		if err != nil && s.gone.Load() {
			// nobody but Close is left to report it
			e.mu.Lock()
			e.lost = multierr.Append(e.lost, fmt.Errorf("unable to save resume point of %s: %w", s.book.ID, err))
			e.mu.Unlock()
		}
		return err
	}, func(err error) {
		s.saving = false
		if err != nil {
			e.log.Warn("Unable to save resume point", zap.String("book", s.book.ID), zap.Error(err))
		}
		// failed save of the same position is tried once more
		if next := s.pending; next != "" && (next != f || err != nil) {
			e.saveResume(s, next)
		}
	})
}

// flushResume makes sure the latest resume point of the session reaches the
// store even though session is going away.
func (e *Engine) flushResume(s *session) {
	f := s.tracker.Resume()
	if e.store == nil || f == "" {
		return
	}
	if s.saving {
		s.pending = f
		return
	}
	e.saveResume(s, f)
}

func (e *Engine) selected(s *session, r renderer.FragmentRange, text string) {
	if text == "" {
		s.selection = nil
	} else {
		s.selection = &Selection{Text: text, Range: r}
	}
	e.publish()
}

// sink forwards surface events to the loop, events of detached session are
// dropped.
type sink struct {
	e     *Engine
	token uint64
}

func (k *sink) post(fn func(s *session)) {
	k.e.loop.Post(func() {
		s := k.e.s
		if s == nil || s.token != k.token {
			k.e.log.Debug("Dropping event of detached surface", zap.Uint64("token", k.token))
			return
		}
		fn(s)
	})
}

func (k *sink) Rendered() {
	k.post(func(s *session) {
		k.e.log.Debug("Rendered", zap.String("book", s.book.ID))
	})
}

func (k *sink) Relocated(r renderer.Relocation) {
	k.post(func(s *session) { k.e.relocated(s, r) })
}

func (k *sink) Selected(r renderer.FragmentRange, text string) {
	k.post(func(s *session) { k.e.selected(s, r, text) })
}

func (k *sink) Tapped(t renderer.Tap) {
	if t.At.IsZero() {
		t.At = time.Now()
	}
	k.post(func(s *session) { k.e.tapped(s, t) })
}
