// Package renderer describes the capability boundary between the reading
// engine and a document rendering surface. Surface is a black box: it lays
// out content, turns pages, samples the document into locations and reports
// what happened through EventSink. Engine never looks inside fragment
// identifiers, it only compares and passes them back.
package renderer

import (
	"context"
	"time"
)

// Fragment is an opaque position token produced and consumed by the surface.
type Fragment string

// FragmentRange addresses selected content.
type FragmentRange struct {
	Start Fragment `yaml:"start"`
	End   Fragment `yaml:"end"`
}

// Relocation is the payload of relocated event. Optional values are nil when
// the surface could not supply them, which is normal before locations are
// generated or for surfaces without per-section page counters.
type Relocation struct {
	// Seq and At are assigned by the engine when the event is delivered and
	// define processing order.
	Seq uint64    `yaml:"seq"`
	At  time.Time `yaml:"at"`

	StartFragment  Fragment `yaml:"start"`
	EndFragment    Fragment `yaml:"end"`
	StartIndex     *int     `yaml:"start_index,omitempty"`
	EndIndex       *int     `yaml:"end_index,omitempty"`
	DisplayedPage  *int     `yaml:"displayed_page,omitempty"`
	DisplayedTotal *int     `yaml:"displayed_total,omitempty"`
}

// Tap is raw pointer input on rendered content. Link is set when the tap
// landed on a document-internal hyperlink.
type Tap struct {
	X     float64   `yaml:"x"`
	Y     float64   `yaml:"y"`
	Width float64   `yaml:"width"`
	Link  string    `yaml:"link,omitempty"`
	At    time.Time `yaml:"at"`
}

// EventSink receives surface events. Calls may come from any goroutine.
type EventSink interface {
	Rendered()
	Relocated(Relocation)
	Selected(FragmentRange, string)
	Tapped(Tap)
}

// Surface is the set of commands engine issues to the rendering surface.
// Every command may be slow, callers must not hold engine state while waiting.
type Surface interface {
	// Display shows position addressed by fragment, empty fragment shows
	// beginning of the document.
	Display(ctx context.Context, target Fragment) error
	// AdvanceSection and RetreatSection are native "next" and "prev". On
	// hosts where native pagination works they move by one screen, otherwise
	// they move by the whole section.
	AdvanceSection(ctx context.Context) error
	RetreatSection(ctx context.Context) error
	Resize(ctx context.Context, width, height int) error
	// GenerateLocations samples the whole document into units of sampleSize
	// characters and returns fragment of every unit start in document order.
	GenerateLocations(ctx context.Context, sampleSize int) ([]Fragment, error)
	// LocationIndexOf returns index of location containing fragment. Only
	// valid after locations were generated.
	LocationIndexOf(target Fragment) (int, error)
	FragmentCount() int
	// Attach subscribes sink to surface events, returned function detaches it.
	Attach(sink EventSink) (detach func())
}

// Translator is implemented by surfaces which can shift rendered content
// horizontally without new layout. Content moves left by offsetX, surface
// position does not change.
type Translator interface {
	Translate(offsetX float64)
}

// Index returns pointer to v, convenient for filling optional values.
func Index(v int) *int {
	return &v
}
