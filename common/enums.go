// Package common keeps enums shared by the engine components, configuration
// and tools, so that none of them has to import the others just to name a
// value.
package common

// Paging strategy used for within-section navigation.
// ENUM(native, transform)
type PagingMode int

// UsesTransform reports whether section pages are produced by visual offset
// instead of the renderer.
func (p PagingMode) UsesTransform() bool {
	return p == PagingModeTransform
}

// Direction of requested navigation.
// ENUM(none, prev, next)
type NavDirection int

// State of the relocation tracker.
// ENUM(uninitialized, settled, navigating)
type TrackerState int

// State of on-screen page and chapter indicators.
// ENUM(visible, hidden)
type IndicatorState int

// Status of book-wide location table.
// ENUM(pending, ready, failed)
type LocationsStatus int

// Outcome of tap classification, first matching rule wins.
// ENUM(accepted, link, overlay, selection, center, debounced, in-flight)
type TapVerdict int
