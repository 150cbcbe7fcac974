// Package book loads documents into plain text sections for the reference
// text surface. Supported are FB2 (optionally zipped), HTML and plain text.
package book

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gosimple/slug"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"pagesync/archive"
	"pagesync/chapters"
	"pagesync/renderer"
)

// maximum size of book packed into archive
const maxUnpacked = 256 << 20

var ErrUnsupported = errors.New("unsupported book format")

type Format string

const (
	FormatFB2  Format = "fb2"
	FormatHTML Format = "html"
	FormatText Format = "text"
)

// Position addresses a character inside section.
type Position struct {
	Section int
	Offset  int
}

// Fragment encodes position into fragment identifier.
func (p Position) Fragment() renderer.Fragment {
	return renderer.Fragment(fmt.Sprintf("/%d:%d", p.Section, p.Offset))
}

// Less reports whether p is before o in document order.
func (p Position) Less(o Position) bool {
	if p.Section != o.Section {
		return p.Section < o.Section
	}
	return p.Offset < o.Offset
}

// Section is one document unit, paragraphs are separated by new lines.
type Section struct {
	Title string
	Text  []rune
}

type Book struct {
	ID       string
	Title    string
	Lang     language.Tag
	Format   Format
	Sections []Section
	TOC      []chapters.TOCEntry

	anchors map[string]Position
}

// Resolve turns fragment into position. Besides own "/section:offset" form
// document anchors ("#id") are accepted.
func (b *Book) Resolve(f renderer.Fragment) (Position, error) {
	s := string(f)
	if id, ok := strings.CutPrefix(s, "#"); ok {
		if p, ok := b.anchors[id]; ok {
			return p, nil
		}
		return Position{}, fmt.Errorf("unknown anchor %q", id)
	}
	var p Position
	if _, err := fmt.Sscanf(s, "/%d:%d", &p.Section, &p.Offset); err != nil {
		return Position{}, fmt.Errorf("malformed fragment %q: %w", s, err)
	}
	if p.Section < 0 || p.Section >= len(b.Sections) || p.Offset < 0 {
		return Position{}, fmt.Errorf("fragment %q is out of book", s)
	}
	p.Offset = min(p.Offset, max(len(b.Sections[p.Section].Text)-1, 0))
	return p, nil
}

// Runes returns total length of book text.
func (b *Book) Runes() int {
	n := 0
	for _, s := range b.Sections {
		n += len(s.Text)
	}
	return n
}

// Load reads book from file. Zip archives are searched for the first book
// inside.
func Load(path string, log *zap.Logger) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read book: %w", err)
	}
	name := filepath.Base(path)
	if filetype.Is(data, "zip") {
		inner, content, err := archive.First(path, archive.Extensions(".fb2", ".html", ".htm", ".xhtml", ".txt"), maxUnpacked)
		if err != nil {
			return nil, fmt.Errorf("unable to find book in archive '%s': %w", path, err)
		}
		log.Debug("Found book in archive", zap.String("archive", path), zap.String("entry", inner))
		name, data = inner, content
	}
	return Parse(data, name, log)
}

// Parse detects format by content (and name as a hint) and builds book.
func Parse(data []byte, name string, log *zap.Logger) (*Book, error) {
	var (
		b   *Book
		err error
	)
	switch detect(data, name) {
	case FormatFB2:
		b, err = parseFB2(data, log)
	case FormatHTML:
		b, err = parseHTML(data, log)
	case FormatText:
		b, err = parseText(data, log)
	default:
		kind, _ := filetype.Match(data)
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, kind.MIME.Value)
	}
	if err != nil {
		return nil, err
	}
	if len(b.Sections) == 0 {
		return nil, fmt.Errorf("book '%s' has no text", name)
	}
	if b.Title == "" {
		b.Title = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	if b.ID == "" {
		b.ID = slug.Make(b.Title)
	}
	log.Debug("Book loaded",
		zap.String("id", b.ID),
		zap.String("title", b.Title),
		zap.String("format", string(b.Format)),
		zap.Stringer("lang", b.Lang),
		zap.Int("sections", len(b.Sections)),
		zap.Int("runes", b.Runes()))
	return b, nil
}

func detect(data []byte, name string) Format {
	head := strings.ToLower(string(data[:min(len(data), 1024)]))
	switch ext := strings.ToLower(filepath.Ext(name)); {
	case strings.Contains(head, "<fictionbook") || ext == ".fb2":
		return FormatFB2
	case strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html") ||
		ext == ".html" || ext == ".htm" || ext == ".xhtml":
		return FormatHTML
	}
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return ""
	}
	return FormatText
}

func parseLang(s string, log *zap.Logger) language.Tag {
	s = strings.TrimSpace(s)
	if s == "" {
		return language.Und
	}
	tag, err := language.Parse(s)
	if err != nil {
		log.Warn("Unable to parse book language", zap.String("lang", s))
		return language.Und
	}
	return tag
}

// builder accumulates sections and records positions.
type builder struct {
	b *Book
}

func newBuilder(f Format) *builder {
	return &builder{b: &Book{Format: f, Lang: language.Und, anchors: make(map[string]Position)}}
}

func (bl *builder) section(title string) {
	bl.b.Sections = append(bl.b.Sections, Section{Title: title})
}

func (bl *builder) ensureSection() {
	if len(bl.b.Sections) == 0 {
		bl.section("")
	}
}

// pos returns position where next paragraph starts.
func (bl *builder) pos() Position {
	bl.ensureSection()
	last := len(bl.b.Sections) - 1
	return Position{Section: last, Offset: len(bl.b.Sections[last].Text)}
}

func (bl *builder) paragraph(text string) {
	text = clean(text)
	if text == "" {
		return
	}
	bl.ensureSection()
	s := &bl.b.Sections[len(bl.b.Sections)-1]
	s.Text = append(s.Text, []rune(text)...)
	s.Text = append(s.Text, '\n')
}

func (bl *builder) anchor(id string) {
	if id == "" {
		return
	}
	if _, exists := bl.b.anchors[id]; !exists {
		bl.b.anchors[id] = bl.pos()
	}
}

// finish drops empty sections keeping TOC targets valid.
func (bl *builder) finish() *Book {
	b := bl.b
	remap := make([]int, len(b.Sections))
	kept := b.Sections[:0]
	for i, s := range b.Sections {
		remap[i] = len(kept)
		if len(s.Text) > 0 {
			kept = append(kept, s)
		}
	}
	b.Sections = kept
	if len(kept) == 0 {
		return b
	}

	// positions inside dropped section move to the start of the next one
	move := func(p Position) Position {
		n := remap[p.Section]
		if n >= len(kept) {
			n = len(kept) - 1
			return Position{Section: n, Offset: max(len(kept[n].Text)-1, 0)}
		}
		return Position{Section: n, Offset: p.Offset}
	}
	for id, p := range b.anchors {
		b.anchors[id] = move(p)
	}
	var fix func(entries []chapters.TOCEntry)
	fix = func(entries []chapters.TOCEntry) {
		for i := range entries {
			if p, err := parsePosition(entries[i].Target); err == nil {
				entries[i].Target = move(p).Fragment()
			}
			fix(entries[i].Children)
		}
	}
	fix(b.TOC)
	return b
}

func parsePosition(f renderer.Fragment) (Position, error) {
	var p Position
	_, err := fmt.Sscanf(string(f), "/%d:%d", &p.Section, &p.Offset)
	return p, err
}

// clean collapses white space and normalizes text to NFC.
func clean(s string) string {
	return norm.NFC.String(strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " "))
}
