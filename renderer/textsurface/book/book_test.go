package book

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"pagesync/chapters"
	"pagesync/renderer"
)

const sampleFB2 = `<?xml version="1.0" encoding="utf-8"?>
<FictionBook xmlns="http://www.gribuser.ru/xml/fictionbook/2.0">
<description>
  <title-info><book-title>Sample</book-title><lang>en</lang></title-info>
  <document-info><id>abc-1</id></document-info>
</description>
<body>
  <title><p>Sample</p></title>
  <section id="c1">
    <title><p>Chapter 1</p></title>
    <p>First   paragraph.</p>
    <section id="c1a"><title><p>Part A</p></title><p>Inner.</p></section>
  </section>
  <section id="pic"><image/></section>
  <section id="c2"><title><p>Chapter 2</p></title><p>Second.</p></section>
</body>
<body name="notes"><section id="n1"><p>Note</p></section></body>
</FictionBook>`

func labels(entries []chapters.TOCEntry) []string {
	var out []string
	for _, e := range chapters.Flatten(entries) {
		out = append(out, e.Label)
	}
	return out
}

func TestParseFB2(t *testing.T) {
	b, err := Parse([]byte(sampleFB2), "sample.fb2", zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if b.Format != FormatFB2 || b.Title != "Sample" || b.ID != "abc-1" || b.Lang.String() != "en" {
		t.Errorf("metadata = %s %q %q %s", b.Format, b.Title, b.ID, b.Lang)
	}
	// front matter, chapter 1 and chapter 2, empty picture section dropped
	if len(b.Sections) != 3 {
		t.Fatalf("len(Sections) = %d, want 3", len(b.Sections))
	}
	if got := string(b.Sections[1].Text); got != "Chapter 1\nFirst paragraph.\nPart A\nInner.\n" {
		t.Errorf("section 1 = %q", got)
	}
	if b.Sections[1].Title != "Chapter 1" {
		t.Errorf("section 1 title = %q", b.Sections[1].Title)
	}

	if len(b.TOC) != 3 {
		t.Fatalf("len(TOC) = %d, want 3", len(b.TOC))
	}
	if b.TOC[0].Target != "/1:0" || b.TOC[2].Target != "/2:0" {
		t.Errorf("targets = %s, %s", b.TOC[0].Target, b.TOC[2].Target)
	}
	if len(b.TOC[0].Children) != 1 || b.TOC[0].Children[0].Target != "/1:27" {
		t.Errorf("nested = %+v", b.TOC[0].Children)
	}

	for _, tt := range []struct {
		f    renderer.Fragment
		want Position
	}{
		{"#c1a", Position{1, 27}},
		{"#c2", Position{2, 0}},
		{"/2:3", Position{2, 3}},
		{"/2:1000", Position{2, len(b.Sections[2].Text) - 1}},
	} {
		p, err := b.Resolve(tt.f)
		if err != nil || p != tt.want {
			t.Errorf("Resolve(%s) = %v, %v; want %v", tt.f, p, err, tt.want)
		}
	}
	for _, f := range []renderer.Fragment{"#n1", "/9:0", "garbage"} {
		if _, err := b.Resolve(f); err == nil {
			t.Errorf("Resolve(%s) expected error", f)
		}
	}
}

func TestParseHTML(t *testing.T) {
	doc := `<!DOCTYPE html><html lang="de"><head><title>Probe</title><style>p{}</style></head><body>
<p>Intro text.</p>
<h1 id="one">One</h1><p>Alpha <b>bold</b> beta.</p><h3 id="sub">Sub</h3><p>Gamma.</p>
<h2 id="two">Two</h2><div><p id="deep">Delta.</p><p style="color: red; DISPLAY: none">Secret.</p></div><div hidden><p>Hidden.</p></div><script>var x;</script>
</body></html>`
	b, err := Parse([]byte(doc), "probe.html", zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if b.Format != FormatHTML || b.Title != "Probe" || b.Lang.String() != "de" || b.ID != "probe" {
		t.Errorf("metadata = %s %q %s %q", b.Format, b.Title, b.Lang, b.ID)
	}
	if len(b.Sections) != 3 {
		t.Fatalf("len(Sections) = %d, want 3", len(b.Sections))
	}
	if got := string(b.Sections[2].Text); got != "Two\nDelta.\n" {
		t.Errorf("section 2 = %q", got)
	}
	got := labels(b.TOC)
	want := []string{"One", "Sub", "Two"}
	if len(got) != len(want) {
		t.Fatalf("labels = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("labels[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if b.TOC[0].Children[0].Target != "/1:21" {
		t.Errorf("sub target = %s", b.TOC[0].Children[0].Target)
	}
	if p, err := b.Resolve("#deep"); err != nil || p != (Position{2, 4}) {
		t.Errorf("Resolve(#deep) = %v, %v", p, err)
	}
}

func TestHiddenStyle(t *testing.T) {
	for style, want := range map[string]bool{
		"":                          false,
		"display:none":              true,
		"color: red; display: none": true,
		"visibility: hidden":        true,
		"display: block":            false,
		"font-weight: bold":         false,
	} {
		if got := hidden(style); got != want {
			t.Errorf("hidden(%q) = %v, want %v", style, got, want)
		}
	}
}

func TestParseText(t *testing.T) {
	text := "My Novel\n\nSome opening words\nwrapped here.\n\nChapter 1\n\nIt begins.\n\nCHAPTER 2: End\nIt ends.\n"
	b, err := Parse([]byte(text), "novel.txt", zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if b.Format != FormatText || b.Title != "My Novel" {
		t.Errorf("metadata = %s %q", b.Format, b.Title)
	}
	if len(b.Sections) != 3 {
		t.Fatalf("len(Sections) = %d, want 3", len(b.Sections))
	}
	if got := string(b.Sections[0].Text); got != "My Novel\nSome opening words wrapped here.\n" {
		t.Errorf("section 0 = %q", got)
	}
	if len(b.TOC) != 2 || b.TOC[0].Label != "Chapter 1" || b.TOC[1].Target != "/2:0" {
		t.Errorf("TOC = %+v", b.TOC)
	}
}

func TestParseTextLegacyCharset(t *testing.T) {
	b, err := Parse([]byte{'C', 'a', 'f', 0xe9}, "cafe.txt", zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := string(b.Sections[0].Text); got != "Café\n" {
		t.Errorf("text = %q", got)
	}
}

func TestParseUnsupported(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	if _, err := Parse(png, "cover.png", zaptest.NewLogger(t)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Parse(png) error = %v, want ErrUnsupported", err)
	}
	if _, err := Parse([]byte("\n\n  \n"), "empty.txt", zaptest.NewLogger(t)); err == nil {
		t.Error("Parse(empty) expected error")
	}
}

func TestLoadZipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.fb2.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	for name, content := range map[string]string{"cover.jpg": "nope", "sample.fb2": sampleFB2} {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	b, err := Load(path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b.ID != "abc-1" || len(b.Sections) != 3 {
		t.Errorf("loaded %q with %d sections", b.ID, len(b.Sections))
	}
}
