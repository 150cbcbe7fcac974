// Package input turns taps on rendered content and keyboard requests into
// navigation intents.
package input

import (
	"time"

	"go.uber.org/zap"

	"pagesync/common"
	"pagesync/renderer"
)

// NavigationRequest is produced by keyboard or tap and is never persisted.
type NavigationRequest struct {
	Direction common.NavDirection
	At        time.Time
}

// Conditions describe host state at the moment of input.
type Conditions struct {
	OverlayOpen  bool
	HasSelection bool
	InFlight     bool
}

// Decision is outcome of classification. Direction is set only when
// navigation was accepted.
type Decision struct {
	Verdict       common.TapVerdict
	Direction     common.NavDirection
	ShowControls  bool
	ShowIndicator bool
}

func (d Decision) Navigate() bool {
	return d.Verdict == common.TapVerdictAccepted
}

// Classifier is owned by the dispatch path.
type Classifier struct {
	log      *zap.Logger
	prevZone float64
	nextZone float64
	debounce time.Duration

	lastAccepted time.Time
}

func New(prevZone, nextZone float64, debounce time.Duration, log *zap.Logger) *Classifier {
	return &Classifier{
		log:      log.Named("input"),
		prevZone: prevZone,
		nextZone: nextZone,
		debounce: debounce,
	}
}

// Classify applies tap rules in order, first matching rule wins.
func (c *Classifier) Classify(tap renderer.Tap, cond Conditions) Decision {
	switch {
	case tap.Link != "":
		return c.reject(Decision{Verdict: common.TapVerdictLink})
	case cond.OverlayOpen:
		return c.reject(Decision{Verdict: common.TapVerdictOverlay, ShowControls: true})
	case cond.HasSelection:
		return c.reject(Decision{Verdict: common.TapVerdictSelection})
	}

	dir := c.Zone(tap.X, tap.Width)
	if dir == common.NavDirectionNone {
		return c.reject(Decision{Verdict: common.TapVerdictCenter, ShowIndicator: true})
	}
	return c.Admit(NavigationRequest{Direction: dir, At: tap.At}, cond.InFlight)
}

// Zone classifies horizontal position as fraction of viewport width.
func (c *Classifier) Zone(x, width float64) common.NavDirection {
	if width <= 0 {
		return common.NavDirectionNone
	}
	switch frac := x / width; {
	case frac < c.prevZone:
		return common.NavDirectionPrev
	case frac > c.nextZone:
		return common.NavDirectionNext
	}
	return common.NavDirectionNone
}

// Admit applies debounce window and single-flight rules to navigation
// request. Window is measured from the last accepted request.
func (c *Classifier) Admit(req NavigationRequest, inFlight bool) Decision {
	if !c.lastAccepted.IsZero() && req.At.Sub(c.lastAccepted) < c.debounce {
		return c.reject(Decision{Verdict: common.TapVerdictDebounced})
	}
	if inFlight {
		return c.reject(Decision{Verdict: common.TapVerdictInFlight})
	}
	c.lastAccepted = req.At
	return Decision{Verdict: common.TapVerdictAccepted, Direction: req.Direction, ShowIndicator: true}
}

// Reset forgets last accepted request, used when new book is opened.
func (c *Classifier) Reset() {
	c.lastAccepted = time.Time{}
}

func (c *Classifier) reject(d Decision) Decision {
	c.log.Debug("Input ignored", zap.Stringer("verdict", d.Verdict))
	return d
}
