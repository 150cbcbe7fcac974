// Package frame coalesces page number updates so that only the latest value
// reaches the host at the next paint opportunity.
package frame

import "time"

// Scheduler calls fn on the dispatch path after d.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

// Coalescer is owned by the dispatch path and is not safe for concurrent use.
type Coalescer struct {
	sched    Scheduler
	interval time.Duration
	apply    func(page int)

	pending   int
	scheduled bool
	cancel    func()
	flushes   int
}

func NewCoalescer(sched Scheduler, interval time.Duration, apply func(page int)) *Coalescer {
	return &Coalescer{sched: sched, interval: interval, apply: apply}
}

// Set records page value, intermediate values set before flush are dropped.
func (c *Coalescer) Set(page int) {
	c.pending = page
	if c.scheduled {
		return
	}
	c.scheduled = true
	c.cancel = c.sched.AfterFunc(c.interval, c.flush)
}

// Pending reports value waiting for flush.
func (c *Coalescer) Pending() (int, bool) {
	return c.pending, c.scheduled
}

// Flushes returns number of values delivered to host so far.
func (c *Coalescer) Flushes() int {
	return c.flushes
}

// Stop cancels pending flush.
func (c *Coalescer) Stop() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.scheduled = false
}

func (c *Coalescer) flush() {
	if !c.scheduled {
		return
	}
	c.scheduled, c.cancel = false, nil
	c.flushes++
	c.apply(c.pending)
}
