// Package indicator hides page and chapter indicators after period of
// inactivity. Every component showing indicators goes through one
// Controller so there is exactly one timer.
package indicator

import (
	"time"

	"pagesync/common"
)

// Scheduler calls fn on the dispatch path after d.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

type Controller struct {
	sched    Scheduler
	timeout  time.Duration
	onChange func(visible bool)

	state  common.IndicatorState
	gen    uint64
	cancel func()
}

// New creates controller in hidden state. OnChange may be nil.
func New(sched Scheduler, timeout time.Duration, onChange func(visible bool)) *Controller {
	return &Controller{
		sched:    sched,
		timeout:  timeout,
		onChange: onChange,
		state:    common.IndicatorStateHidden,
	}
}

// Poke registers activity: indicators become visible and inactivity timer
// restarts.
func (c *Controller) Poke() {
	c.stopTimer()
	c.gen++
	gen := c.gen
	c.cancel = c.sched.AfterFunc(c.timeout, func() {
		if gen != c.gen {
			return
		}
		c.cancel = nil
		c.set(common.IndicatorStateHidden)
	})
	c.set(common.IndicatorStateVisible)
}

func (c *Controller) State() common.IndicatorState {
	return c.state
}

func (c *Controller) Visible() bool {
	return c.state == common.IndicatorStateVisible
}

// Stop cancels timer leaving state as is.
func (c *Controller) Stop() {
	c.stopTimer()
	c.gen++
}

func (c *Controller) stopTimer() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) set(s common.IndicatorState) {
	if c.state == s {
		return
	}
	c.state = s
	if c.onChange != nil {
		c.onChange(s == common.IndicatorStateVisible)
	}
}
