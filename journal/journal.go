// Package journal records what happened during reading session: relocations
// with their sequence numbers, navigation requests, sub-page moves and
// location table. Journal can be stored in debug report and replayed later
// through a fresh tracker to investigate page number problems.
package journal

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gosimple/slug"
	yaml "gopkg.in/yaml.v3"

	"pagesync/chapters"
	"pagesync/common"
	"pagesync/config"
	"pagesync/locations"
	"pagesync/renderer"
)

type Kind string

const (
	KindLocations  Kind = "locations"
	KindRelocated  Kind = "relocated"
	KindNavigate   Kind = "navigate"
	KindAbandon    Kind = "abandon"
	KindSubPage    Kind = "subpage"
	KindInput      Kind = "input"
	KindGenFailure Kind = "locations-failed"
)

type Entry struct {
	Kind       Kind                 `yaml:"kind"`
	At         time.Time            `yaml:"at"`
	Relocation *renderer.Relocation `yaml:"relocation,omitempty"`
	Direction  string               `yaml:"direction,omitempty"`
	Target     *int                 `yaml:"target,omitempty"`
	Verdict    string               `yaml:"verdict,omitempty"`
	// Page is page number observed right after the entry was processed.
	Page        int                 `yaml:"page,omitempty"`
	SectionPage int                 `yaml:"section_page,omitempty"`
	Stuck       bool                `yaml:"stuck,omitempty"`
	Locations   []renderer.Fragment `yaml:"locations,omitempty"`
	Err         string              `yaml:"error,omitempty"`
}

type Journal struct {
	Book    string              `yaml:"book"`
	Title   string              `yaml:"title,omitempty"`
	Session string              `yaml:"session,omitempty"`
	TOC     []chapters.TOCEntry `yaml:"toc,omitempty"`
	// Lookups are fragments surface resolved to locations during session.
	Lookups map[renderer.Fragment]int `yaml:"lookups,omitempty"`
	Entries []Entry                   `yaml:"entries"`

	mu sync.Mutex
}

func New(book, title, session string, toc []chapters.TOCEntry) *Journal {
	return &Journal{Book: book, Title: title, Session: session, TOC: toc}
}

// Record appends entry, safe for concurrent use.
func (j *Journal) Record(e Entry) {
	if j == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	j.mu.Lock()
	j.Entries = append(j.Entries, e)
	j.mu.Unlock()
}

// RecordLookup remembers location surface returned for fragment, safe for
// concurrent use.
func (j *Journal) RecordLookup(f renderer.Fragment, i int) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Lookups == nil {
		j.Lookups = make(map[renderer.Fragment]int)
	}
	j.Lookups[f] = i
}

// Locator returns l recording its fragment lookups in the journal.
func (j *Journal) Locator(l locations.Locator) locations.Locator {
	if j == nil {
		return l
	}
	return &lookupRecorder{Locator: l, j: j}
}

type lookupRecorder struct {
	locations.Locator
	j *Journal
}

func (r *lookupRecorder) LocationIndexOf(target renderer.Fragment) (int, error) {
	i, err := r.Locator.LocationIndexOf(target)
	if err == nil {
		r.j.RecordLookup(target, i)
	}
	return i, err
}

func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.Entries)
}

// Name returns archive entry name for the journal.
func (j *Journal) Name() string {
	name := slug.Make(j.Title)
	if name == "" {
		name = slug.Make(j.Book)
	}
	if name == "" {
		name = "book"
	}
	return "journal/" + name + ".yaml"
}

func (j *Journal) Encode(w io.Writer) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(j); err != nil {
		return fmt.Errorf("unable to encode journal: %w", err)
	}
	return enc.Close()
}

// Store puts journal into debug report, does nothing when there is no report.
func (j *Journal) Store(rpt *config.Report) error {
	if rpt == nil || j == nil {
		return nil
	}
	var buf bytes.Buffer
	if err := j.Encode(&buf); err != nil {
		return err
	}
	rpt.StoreData(j.Name(), buf.Bytes())
	return nil
}

// Decode reads journal, unknown fields are rejected.
func Decode(r io.Reader) (*Journal, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	j := &Journal{}
	if err := dec.Decode(j); err != nil {
		return nil, fmt.Errorf("unable to decode journal: %w", err)
	}
	return j, nil
}

// NavigateEntry is a shortcut for navigation record.
func NavigateEntry(dir common.NavDirection, target int) Entry {
	e := Entry{Kind: KindNavigate, Direction: dir.String()}
	if target >= 0 {
		e.Target = &target
	}
	return e
}
