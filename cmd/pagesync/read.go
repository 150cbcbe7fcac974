package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/term"

	"pagesync/common"
	"pagesync/engine"
	"pagesync/journal"
	"pagesync/renderer"
	"pagesync/renderer/textsurface"
	"pagesync/state"
	"pagesync/store"
)

const sizePollInterval = 500 * time.Millisecond

func runRead(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("read")

	b, err := loadBook(cmd, env)
	if err != nil {
		return err
	}

	cfg := env.Cfg.Reader
	if name := cmd.String("paging"); len(name) > 0 {
		if cfg.Paging, err = common.ParsePagingMode(name); err != nil {
			return fmt.Errorf("unable to use paging mode: %w", err)
		}
	}

	in, out := int(os.Stdin.Fd()), int(os.Stdout.Fd())
	if !term.IsTerminal(in) || !term.IsTerminal(out) {
		return errors.New("read requires interactive terminal")
	}
	cols, rows, err := term.GetSize(out)
	if err != nil {
		return fmt.Errorf("unable to get terminal size: %w", err)
	}

	st, err := store.Open(&env.Cfg.Storage, env.Log)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, st.Close())
		if er := env.Rpt.StoreCopy("storage/"+filepath.Base(env.Cfg.Storage.Database), env.Cfg.Storage.Database); er != nil {
			log.Warn("Unable to put database into report", zap.Error(er))
		}
	}()

	resume := renderer.Fragment(cmd.String("at"))
	if len(resume) == 0 {
		f, er := st.Resume(ctx, b.ID)
		switch {
		case er == nil:
			resume = f
		case !errors.Is(er, store.ErrNotFound):
			return er
		}
	}

	surf := textsurface.New(b, textsurface.Options{
		Columns: cols,
		Rows:    rows - 1,
		Broken:  cmd.Bool("broken"),
		Latency: cmd.Duration("latency"),
	}, env.Log)

	scr := &screen{out: os.Stdout, surf: surf, rows: max(rows-1, 1)}
	views := make(chan engine.View, 1)
	e := engine.New(cfg, env.Log,
		engine.WithStore(st),
		engine.WithObserver(func(v engine.View) {
			// keep only the latest view, observer must never block
			select {
			case <-views:
			default:
			}
			views <- v
		}),
		engine.WithControls(func() { scr.controls.Store(true) }),
		engine.WithJournal(func(j *journal.Journal) {
			if er := j.Store(env.Rpt); er != nil {
				log.Warn("Unable to store journal", zap.Error(er))
			}
		}),
	)
	defer func() {
		err = multierr.Append(err, e.Close())
	}()

	old, err := term.MakeRaw(in)
	if err != nil {
		return fmt.Errorf("unable to switch terminal to raw mode: %w", err)
	}
	defer func() {
		scr.clear()
		if er := term.Restore(in, old); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to restore terminal: %w", er))
		}
	}()

	if err := e.Open(ctx, surf, engineBook(b), resume); err != nil {
		return err
	}
	log.Info("Book opened", zap.String("id", b.ID), zap.String("title", b.Title), zap.String("resume", string(resume)))

	done := make(chan struct{})
	defer close(done)
	keys := readKeys(os.Stdin, done)

	ticker := time.NewTicker(sizePollInterval)
	defer ticker.Stop()

	var (
		overlay bool
		last    engine.View
	)
	for {
		select {
		case <-ctx.Done():
			return nil

		case v := <-views:
			last = v
			scr.draw(last)

		case <-ticker.C:
			c, r, er := term.GetSize(out)
			if er != nil || (c == cols && r == rows) {
				continue
			}
			cols, rows = c, r
			scr.rows = max(rows-1, 1)
			if er := e.Resize(ctx, cols, rows-1); er != nil {
				log.Warn("Unable to resize", zap.Error(er))
			}

		case buf, ok := <-keys:
			if !ok {
				return nil
			}
			scr.controls.Store(false)
			scr.message = ""

			k, n := parseKey(buf)
			switch k {
			case keyQuit:
				return nil
			case keyNext:
				e.Next()
			case keyPrev:
				e.Prev()
			case keyIndicator:
				surf.Tap(float64(cols)/2, float64(rows)/2, "")
			case keyOverlay:
				overlay = !overlay
				e.SetOverlay(overlay)
				scr.overlay = overlay
			case keySelect:
				surf.Select(0)
			case keyClear:
				e.ClearSelection()
			case keyBookmark:
				bm, er := e.AddBookmark(ctx, "")
				if er != nil {
					scr.message = "unable to add bookmark: " + er.Error()
				} else {
					scr.message = "bookmark added: " + bm.Label
				}
			case keyChapter:
				if n > len(b.TOC) {
					scr.message = fmt.Sprintf("no chapter %d", n)
					break
				}
				if er := e.GoTo(ctx, b.TOC[n-1].Target); er != nil {
					scr.message = "unable to go to chapter: " + er.Error()
				}
			}
			scr.draw(last)
		}
	}
}

// readKeys delivers raw reads from terminal until read fails or done is
// closed.
func readKeys(r io.Reader, done <-chan struct{}) <-chan []byte {
	keys := make(chan []byte)
	go func() {
		defer close(keys)
		buf := make([]byte, 16)
		for {
			n, err := r.Read(buf)
			if err != nil {
				return
			}
			select {
			case keys <- append([]byte(nil), buf[:n]...):
			case <-done:
				return
			}
		}
	}()
	return keys
}

type screen struct {
	out      io.Writer
	surf     *textsurface.Surface
	rows     int
	controls atomic.Bool
	overlay  bool
	message  string
}

func (s *screen) draw(v engine.View) {
	var sb strings.Builder
	sb.WriteString("\x1b[H\x1b[2J")
	lines := s.surf.Lines()
	for i := range s.rows {
		if i < len(lines) {
			sb.WriteString(lines[i])
		}
		sb.WriteString("\r\n")
	}

	var status []string
	if v.IndicatorVisible || s.controls.Load() {
		status = append(status, v.Indicator)
	}
	if s.overlay {
		status = append(status, "[overlay]")
	}
	if v.Stuck {
		status = append(status, "[stuck]")
	}
	if v.Selection != nil {
		status = append(status, fmt.Sprintf("[selected %q]", v.Selection.Text))
	}
	if len(s.message) > 0 {
		status = append(status, s.message)
	}
	sb.WriteString(strings.Join(status, "  "))
	_, _ = io.WriteString(s.out, sb.String())
}

func (s *screen) clear() {
	_, _ = io.WriteString(s.out, "\x1b[H\x1b[2J")
}
