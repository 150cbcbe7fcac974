// Package locations builds book-wide position table. Document is sampled by
// the rendering surface into units of fixed content length, unit number is
// canonical coarse position used for page numbers and chapter progress.
package locations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pagesync/common"
	"pagesync/renderer"
)

var (
	ErrNotReady = errors.New("location index is not ready")
	ErrEmpty    = errors.New("rendering surface produced no locations")
	ErrUnknown  = errors.New("fragment does not belong to any location")
)

// Locator is the part of rendering surface used to sample the document.
type Locator interface {
	GenerateLocations(ctx context.Context, sampleSize int) ([]renderer.Fragment, error)
	LocationIndexOf(target renderer.Fragment) (int, error)
	FragmentCount() int
}

// Index maps fragments to location indexes and back. It is immutable once built.
type Index struct {
	fragments  []renderer.Fragment
	byFragment map[renderer.Fragment]int
	locator    Locator
}

// NewIndex creates index from ordered unit start fragments. Locator, if not
// nil, resolves fragments pointing inside units.
func NewIndex(fragments []renderer.Fragment, locator Locator) (*Index, error) {
	if len(fragments) == 0 {
		return nil, ErrEmpty
	}
	x := &Index{
		fragments:  fragments,
		byFragment: make(map[renderer.Fragment]int, len(fragments)),
		locator:    locator,
	}
	for i, f := range fragments {
		if _, exists := x.byFragment[f]; !exists {
			x.byFragment[f] = i
		}
	}
	return x, nil
}

// Total is number of locations, always at least 1.
func (x *Index) Total() int {
	return len(x.fragments)
}

// Fragments returns copy of unit start fragments in document order.
func (x *Index) Fragments() []renderer.Fragment {
	return append([]renderer.Fragment(nil), x.fragments...)
}

// FragmentAt returns start fragment of location i.
func (x *Index) FragmentAt(i int) (renderer.Fragment, bool) {
	if i < 0 || i >= len(x.fragments) {
		return "", false
	}
	return x.fragments[i], true
}

// Resolve returns location index containing fragment.
func (x *Index) Resolve(target renderer.Fragment) (int, error) {
	if target == "" {
		return 0, ErrUnknown
	}
	if i, ok := x.byFragment[target]; ok {
		return i, nil
	}
	if x.locator == nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknown, target)
	}
	i, err := x.locator.LocationIndexOf(target)
	if err != nil {
		return 0, fmt.Errorf("unable to resolve %s: %w", target, err)
	}
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknown, target)
	}
	return x.Clamp(i), nil
}

// Clamp limits i to valid location range.
func (x *Index) Clamp(i int) int {
	return min(max(i, 0), len(x.fragments)-1)
}

// Builder asks the rendering surface to sample the document.
type Builder struct {
	locator    Locator
	sampleSize int
	log        *zap.Logger
}

func NewBuilder(locator Locator, sampleSize int, log *zap.Logger) *Builder {
	return &Builder{locator: locator, sampleSize: sampleSize, log: log.Named("locations")}
}

// Generate may take several seconds for large books and must not be called
// on the engine dispatch path. Cancelled context means the result is no
// longer wanted.
func (b *Builder) Generate(ctx context.Context) (*Index, error) {
	start := time.Now()

	fragments, err := b.locator.GenerateLocations(ctx, b.sampleSize)
	if err != nil {
		return nil, fmt.Errorf("unable to generate locations: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if count := b.locator.FragmentCount(); count != len(fragments) {
		b.log.Warn("Surface reports different number of locations, using generated table",
			zap.Int("reported", count), zap.Int("generated", len(fragments)))
	}

	x, err := NewIndex(fragments, b.locator)
	if err != nil {
		return nil, err
	}
	b.log.Debug("Locations generated", zap.Int("total", x.Total()), zap.Int("sample", b.sampleSize), zap.Duration("elapsed", time.Since(start)))
	return x, nil
}

// Table tracks location index of the current book session. Until index is
// ready pagination is unknown, navigation keeps working.
type Table struct {
	status common.LocationsStatus
	index  *Index
	err    error
}

func (t *Table) Status() common.LocationsStatus {
	return t.status
}

func (t *Table) Ready() bool {
	return t.status == common.LocationsStatusReady
}

// Err returns generation failure if any.
func (t *Table) Err() error {
	return t.err
}

// Index returns built index or nil when not ready.
func (t *Table) Index() *Index {
	return t.index
}

// SetReady installs built index.
func (t *Table) SetReady(x *Index) {
	t.status, t.index, t.err = common.LocationsStatusReady, x, nil
}

// SetFailed marks table permanently degraded for the session. There is no retry.
func (t *Table) SetFailed(err error) {
	t.status, t.index, t.err = common.LocationsStatusFailed, nil, err
}

// Total returns number of locations, 0 when not ready.
func (t *Table) Total() int {
	if !t.Ready() {
		return 0
	}
	return t.index.Total()
}

// Resolve returns location index of fragment.
func (t *Table) Resolve(target renderer.Fragment) (int, error) {
	if !t.Ready() {
		return 0, ErrNotReady
	}
	return t.index.Resolve(target)
}

// Clamp limits i to valid location range, unchanged when not ready.
func (t *Table) Clamp(i int) int {
	if !t.Ready() {
		return i
	}
	return t.index.Clamp(i)
}
