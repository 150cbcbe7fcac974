// Package loop provides single dispatch path for engine state. All state
// mutations are posted here and executed one at a time in posting order,
// slow work runs on worker goroutines and reports back through the loop.
package loop

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var ErrStopped = errors.New("dispatch loop is stopped")

type Loop struct {
	log *zap.Logger

	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake    chan struct{}
	quit    chan struct{}
	done    chan struct{}
	workers sync.WaitGroup
}

// New creates and starts dispatch loop.
func New(log *zap.Logger) *Loop {
	l := &Loop{
		log:  log.Named("loop"),
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post queues fn for execution on the loop. Returns false if loop is stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Sync runs fn on the loop and waits for it to finish. Must not be called
// from the loop itself.
func (l *Loop) Sync(fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		// loop may have exited after running fn
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Go runs work on separate goroutine and then posts done with its result
// back to the loop. Done is dropped when loop was stopped meanwhile.
func (l *Loop) Go(work func() error, done func(error)) {
	l.workers.Add(1)
	go func() {
		defer l.workers.Done()
		err := l.protect(work)
		if done == nil {
			return
		}
		if !l.Post(func() { done(err) }) {
			l.log.Debug("Dropping completion, loop stopped", zap.Error(err))
		}
	}()
}

// AfterFunc posts fn to the loop after d. Calling returned function prevents
// fn from running if it has not started yet.
func (l *Loop) AfterFunc(d time.Duration, fn func()) (cancel func()) {
	var cancelled atomic.Bool
	t := time.AfterFunc(d, func() {
		l.Post(func() {
			if !cancelled.Load() {
				fn()
			}
		})
	})
	return func() {
		cancelled.Store(true)
		t.Stop()
	}
}

// Stop rejects new work, waits for queued functions and then for workers.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.stopped = true
	l.mu.Unlock()

	close(l.quit)
	<-l.done
	l.workers.Wait()
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.wake:
			l.drain()
		case <-l.quit:
			l.drain()
			return
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.exec(fn)
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("Recovered from panic on dispatch path", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	fn()
}

func (l *Loop) protect(work func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("Recovered from panic in worker", zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	return work()
}
