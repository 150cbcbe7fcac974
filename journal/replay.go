package journal

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"go.uber.org/zap"

	"pagesync/chapters"
	"pagesync/common"
	"pagesync/locations"
	"pagesync/renderer"
	"pagesync/tracker"
)

// Step is result of replaying single journal entry.
type Step struct {
	Index     int
	Kind      Kind
	Seq       uint64
	Page      int
	Recorded  int
	Chapter   string
	PagesLeft *int
	Stuck     bool
	Err       error
	// Mismatch is set when replayed outcome differs from recorded one.
	Mismatch bool
}

var errNoSurface = errors.New("no rendering surface during replay")

// recorded answers fragment lookups with what surface returned in the live
// session.
type recorded map[renderer.Fragment]int

func (r recorded) GenerateLocations(context.Context, int) ([]renderer.Fragment, error) {
	return nil, errNoSurface
}

func (r recorded) LocationIndexOf(target renderer.Fragment) (int, error) {
	i, ok := r[target]
	if !ok {
		return 0, fmt.Errorf("%w: %s", locations.ErrUnknown, target)
	}
	return i, nil
}

func (r recorded) FragmentCount() int {
	return 0
}

// Replay feeds journal through a fresh tracker. Location table, chapters and
// fragment lookups are rebuilt from the journal itself, so no rendering
// surface is needed.
func Replay(j *Journal, log *zap.Logger) ([]Step, error) {
	var (
		tbl   locations.Table
		steps []Step
	)
	tr := tracker.New(&tbl, log)

	j.mu.Lock()
	lookups := make(recorded, len(j.Lookups))
	maps.Copy(lookups, j.Lookups)
	j.mu.Unlock()

	for i, e := range j.Entries {
		st := Step{Index: i, Kind: e.Kind, Recorded: e.Page}

		switch e.Kind {
		case KindLocations:
			x, err := locations.NewIndex(e.Locations, lookups)
			if err != nil {
				return steps, fmt.Errorf("entry %d: %w", i, err)
			}
			tbl.SetReady(x)
			tr.Refresh()
			tr.SetChapters(chapters.Build(j.TOC, &tbl, log))

		case KindGenFailure:
			tbl.SetFailed(errors.New(e.Err))

		case KindNavigate:
			dir, err := common.ParseNavDirection(e.Direction)
			if err != nil {
				return steps, fmt.Errorf("entry %d: %w", i, err)
			}
			target := -1
			if e.Target != nil {
				target = *e.Target
			}
			tr.BeginNavigation(dir, target)

		case KindAbandon:
			tr.AbandonNavigation()

		case KindSubPage:
			if _, err := tr.SetSectionPage(e.SectionPage); err != nil {
				st.Err = err
			}

		case KindRelocated:
			if e.Relocation == nil {
				return steps, fmt.Errorf("entry %d: relocation without payload", i)
			}
			st.Seq = e.Relocation.Seq
			u, err := tr.Relocated(*e.Relocation)
			st.Err = err
			st.Mismatch = (err != nil) != (e.Err != "") || (err == nil && (u.Stuck != e.Stuck))

		default:
			continue
		}

		snap := tr.Snapshot()
		st.Page, st.Stuck = snap.Page, snap.Stuck
		if snap.Chapter != nil {
			st.Chapter, st.PagesLeft = snap.Chapter.Label, snap.PagesLeft
		}
		if e.Page != 0 && e.Page != st.Page {
			st.Mismatch = true
		}
		steps = append(steps, st)
	}
	return steps, nil
}
