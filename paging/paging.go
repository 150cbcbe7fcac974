// Package paging moves reader one page forward or back. With native paging
// every move is surface "next"/"prev". With transform paging section already
// laid out by the surface is sliced into screen-wide sub-pages by shifting
// it horizontally and surface is asked to change section only at section
// edges.
package paging

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pagesync/common"
	"pagesync/renderer"
	"pagesync/tracker"
)

// Dispatcher runs slow work off the dispatch path and schedules callbacks
// on it.
type Dispatcher interface {
	Go(work func() error, done func(error))
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

// Positions is the part of relocation tracker pager works with.
type Positions interface {
	Section() tracker.Section
	SetSectionPage(n int) (int, error)
	ResetSectionPage()
	BeginNavigation(dir common.NavDirection, target int)
	AbandonNavigation()
	Target(dir common.NavDirection) int
}

// Sections is the part of rendering surface pager drives.
type Sections interface {
	AdvanceSection(ctx context.Context) error
	RetreatSection(ctx context.Context) error
}

// Move describes what step did.
type Move int

const (
	// MoveLocal means sub-page changed without surface involvement.
	MoveLocal Move = iota
	// MoveSurface means surface command was issued and relocation is expected.
	MoveSurface
)

type Pager struct {
	log          *zap.Logger
	mode         common.PagingMode
	surface      Sections
	translator   renderer.Translator
	pos          Positions
	disp         Dispatcher
	setPage      func(page int)
	retreatDelay time.Duration

	width         float64
	offset        float64
	cancelRetreat func()
}

// New creates pager. Transform mode silently degrades to native when surface
// does not implement renderer.Translator. SetPage receives global page
// numbers produced by sub-page moves.
func New(mode common.PagingMode, surface Sections, pos Positions, disp Dispatcher, setPage func(page int), retreatDelay time.Duration, log *zap.Logger) *Pager {
	p := &Pager{
		log:          log.Named("paging"),
		mode:         mode,
		surface:      surface,
		pos:          pos,
		disp:         disp,
		setPage:      setPage,
		retreatDelay: retreatDelay,
	}
	if mode.UsesTransform() {
		if tr, ok := surface.(renderer.Translator); ok {
			p.translator = tr
		} else {
			p.log.Warn("Surface cannot shift content, using native paging")
			p.mode = common.PagingModeNative
		}
	}
	return p
}

func (p *Pager) Mode() common.PagingMode {
	return p.mode
}

// SetWidth sets measured viewport width used for sub-page offsets.
func (p *Pager) SetWidth(w float64) {
	p.width = w
	if p.translator != nil {
		p.ApplyOffset(p.pos.Section().Page)
	}
}

// Offset returns current horizontal translation.
func (p *Pager) Offset() float64 {
	return p.offset
}

// ApplyOffset shifts rendered content to show sub-page page.
func (p *Pager) ApplyOffset(page int) {
	if p.translator == nil {
		return
	}
	p.offset = float64(max(page, 1)-1) * p.width
	p.translator.Translate(p.offset)
}

// Advance moves one page forward. Done is called on the dispatch path once
// surface command completes, it is not called for local moves.
func (p *Pager) Advance(ctx context.Context, done func(error)) Move {
	p.stopRetreatCheck()
	s := p.pos.Section()
	if p.translator != nil && s.Known() && s.Page < s.Total {
		p.step(s.Page + 1)
		return MoveLocal
	}
	p.cross(ctx, common.NavDirectionNext, p.surface.AdvanceSection, func() {
		p.pos.ResetSectionPage()
		p.ApplyOffset(1)
	}, done)
	return MoveSurface
}

// Retreat moves one page back. When leaving section in transform mode the
// new section is opened on its last sub-page once surface reports page count.
func (p *Pager) Retreat(ctx context.Context, done func(error)) Move {
	p.stopRetreatCheck()
	s := p.pos.Section()
	if p.translator != nil && s.Known() && s.Page > 1 {
		p.step(s.Page - 1)
		return MoveLocal
	}
	p.cross(ctx, common.NavDirectionPrev, p.surface.RetreatSection, func() {
		p.pos.ResetSectionPage()
		p.ApplyOffset(1)
		if p.translator != nil {
			p.scheduleRetreatCheck(s)
		}
	}, done)
	return MoveSurface
}

// Stop cancels deferred work.
func (p *Pager) Stop() {
	p.stopRetreatCheck()
}

func (p *Pager) step(n int) {
	page, err := p.pos.SetSectionPage(n)
	if err != nil {
		p.log.Warn("Unable to change section page", zap.Int("page", n), zap.Error(err))
		return
	}
	p.ApplyOffset(n)
	p.setPage(page)
}

func (p *Pager) cross(ctx context.Context, dir common.NavDirection, cmd func(context.Context) error, after func(), done func(error)) {
	p.pos.BeginNavigation(dir, p.pos.Target(dir))
	p.disp.Go(func() error {
		return cmd(ctx)
	}, func(err error) {
		if err != nil {
			p.log.Warn("Surface navigation failed", zap.Stringer("direction", dir), zap.Error(err))
			p.pos.AbandonNavigation()
		} else {
			after()
		}
		if done != nil {
			done(err)
		}
	})
}

// scheduleRetreatCheck jumps to the last sub-page of section entered
// backwards. Surface may need a tick to report the new section, check is
// skipped if section did not change by then.
func (p *Pager) scheduleRetreatCheck(left tracker.Section) {
	p.cancelRetreat = p.disp.AfterFunc(p.retreatDelay, func() {
		p.cancelRetreat = nil
		s := p.pos.Section()
		if s == left || !s.Known() {
			p.log.Debug("Section did not change after retreat", zap.Int("start", s.StartGlobal), zap.Int("total", s.Total))
			return
		}
		if s.Total > 1 {
			p.step(s.Total)
		}
	})
}

func (p *Pager) stopRetreatCheck() {
	if p.cancelRetreat != nil {
		p.cancelRetreat()
		p.cancelRetreat = nil
	}
}
