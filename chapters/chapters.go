// Package chapters turns table of contents into contiguous ranges of
// location indexes so the engine can name current chapter and count pages
// left in it.
package chapters

import (
	"fmt"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"pagesync/renderer"
)

// TOCEntry is one node of book table of contents.
type TOCEntry struct {
	ID       string            `yaml:"id"`
	Label    string            `yaml:"label"`
	Target   renderer.Fragment `yaml:"target"`
	Children []TOCEntry        `yaml:"children,omitempty"`
}

// Range covers locations [Start, End], inclusive on both ends.
type Range struct {
	TOCEntryID string
	Label      string
	Start      int
	End        int
}

func (r Range) Contains(loc int) bool {
	return loc >= r.Start && loc <= r.End
}

// PagesLeft is number of locations remaining in range after loc.
func (r Range) PagesLeft(loc int) int {
	return r.End - loc
}

// Resolver maps TOC targets to location indexes.
type Resolver interface {
	Resolve(target renderer.Fragment) (int, error)
	Total() int
}

// Flatten walks TOC depth first producing entries in document order. Entries
// without ID get one derived from position and label.
func Flatten(toc []TOCEntry) []TOCEntry {
	var (
		out  []TOCEntry
		walk func(entries []TOCEntry)
	)
	walk = func(entries []TOCEntry) {
		for _, e := range entries {
			if e.ID == "" {
				e.ID = fmt.Sprintf("toc-%d", len(out))
				if s := slug.Make(e.Label); s != "" {
					e.ID += "-" + s
				}
			}
			children := e.Children
			e.Children = nil
			out = append(out, e)
			walk(children)
		}
	}
	walk(toc)
	return out
}

// Index is ordered list of chapter ranges.
type Index struct {
	ranges []Range
}

// Build resolves every flattened TOC entry. Entries which could not be
// resolved are logged and skipped. Range ends where next one starts, last
// range extends to the end of the book. Starts must grow strictly so no
// location belongs to two ranges: of entries sharing a start the innermost
// (last listed) one is kept, entries going backwards are dropped.
func Build(toc []TOCEntry, res Resolver, log *zap.Logger) *Index {
	log = log.Named("chapters")

	type resolved struct {
		entry TOCEntry
		start int
	}
	var items []resolved
	for _, e := range Flatten(toc) {
		idx, err := res.Resolve(e.Target)
		if err != nil {
			log.Warn("Unable to resolve TOC entry, skipping", zap.String("id", e.ID), zap.String("label", e.Label), zap.Error(err))
			continue
		}
		switch n := len(items); {
		case n > 0 && idx == items[n-1].start:
			log.Debug("TOC entry shares start with previous one, replacing", zap.String("id", e.ID), zap.String("previous", items[n-1].entry.ID), zap.Int("start", idx))
			items[n-1] = resolved{entry: e, start: idx}
		case n > 0 && idx < items[n-1].start:
			log.Warn("TOC entry is out of document order, skipping", zap.String("id", e.ID), zap.String("label", e.Label), zap.Int("start", idx))
		default:
			items = append(items, resolved{entry: e, start: idx})
		}
	}

	last := res.Total() - 1
	x := &Index{ranges: make([]Range, 0, len(items))}
	for i, it := range items {
		end := last
		if i+1 < len(items) {
			end = items[i+1].start - 1
		}
		x.ranges = append(x.ranges, Range{
			TOCEntryID: it.entry.ID,
			Label:      it.entry.Label,
			Start:      it.start,
			End:        end,
		})
	}
	log.Debug("Chapter index built", zap.Int("entries", len(items)), zap.Int("locations", last+1))
	return x
}

// Len returns number of ranges.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.ranges)
}

// Ranges returns copy of all ranges in document order.
func (x *Index) Ranges() []Range {
	if x == nil {
		return nil
	}
	return append([]Range(nil), x.ranges...)
}

// Lookup returns range containing loc.
func (x *Index) Lookup(loc int) (Range, bool) {
	if x == nil {
		return Range{}, false
	}
	for _, r := range x.ranges {
		if r.Contains(loc) {
			return r, true
		}
	}
	return Range{}, false
}
