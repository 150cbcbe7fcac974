package loop

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestPostOrder(t *testing.T) {
	l := New(zaptest.NewLogger(t))
	defer l.Stop()

	var got []int
	for i := range 100 {
		l.Post(func() { got = append(got, i) })
	}
	if err := l.Sync(func() {}); err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d] = %d", i, v)
		}
	}
	if len(got) != 100 {
		t.Errorf("executed %d, want 100", len(got))
	}
}

func TestPanicDoesNotStopLoop(t *testing.T) {
	l := New(zaptest.NewLogger(t))
	defer l.Stop()

	l.Post(func() { panic("boom") })
	ran := false
	if err := l.Sync(func() { ran = true }); err != nil || !ran {
		t.Errorf("loop stopped after panic: %v", err)
	}
}

func TestGo(t *testing.T) {
	l := New(zaptest.NewLogger(t))
	defer l.Stop()

	want := errors.New("surface failed")
	result := make(chan error, 2)
	l.Go(func() error { return want }, func(err error) { result <- err })
	l.Go(func() error { panic("worker") }, func(err error) { result <- err })

	for range 2 {
		select {
		case err := <-result:
			if err == nil {
				t.Error("expected error")
			}
		case <-time.After(5 * time.Second):
			t.Fatal("completion never delivered")
		}
	}
}

func TestAfterFunc(t *testing.T) {
	l := New(zaptest.NewLogger(t))
	defer l.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	l.AfterFunc(time.Millisecond, wg.Done)
	wg.Wait()

	fired := false
	cancel := l.AfterFunc(20*time.Millisecond, func() { fired = true })
	cancel()
	time.Sleep(50 * time.Millisecond)
	l.Sync(func() {
		if fired {
			t.Error("cancelled function fired")
		}
	})
}

func TestStop(t *testing.T) {
	l := New(zaptest.NewLogger(t))
	ran := false
	l.Post(func() { ran = true })
	l.Stop()
	if !ran {
		t.Error("queued work lost on stop")
	}
	if l.Post(func() {}) {
		t.Error("post accepted after stop")
	}
	if err := l.Sync(func() {}); !errors.Is(err, ErrStopped) {
		t.Errorf("Sync() error = %v, want ErrStopped", err)
	}
	l.Stop()
}
