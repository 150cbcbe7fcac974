package book

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"pagesync/chapters"
)

// every top level section of the main body becomes surface section, nested
// sections become TOC children pointing inside it
func parseFB2(data []byte, log *zap.Logger) (*Book, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Permissive:    true,
	}
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("unable to read FB2: %w", err)
	}
	root := doc.SelectElement("FictionBook")
	if root == nil {
		return nil, fmt.Errorf("unable to read FB2: no FictionBook element")
	}

	bl := newBuilder(FormatFB2)
	if ti := root.FindElement("./description/title-info"); ti != nil {
		if el := ti.SelectElement("book-title"); el != nil {
			bl.b.Title = clean(extractText(el))
		}
		if el := ti.SelectElement("lang"); el != nil {
			bl.b.Lang = parseLang(el.Text(), log)
		}
	}
	if el := root.FindElement("./description/document-info/id"); el != nil {
		bl.b.ID = strings.TrimSpace(el.Text())
	}

	var body *etree.Element
	for _, el := range root.SelectElements("body") {
		// named bodies keep notes and comments
		if el.SelectAttrValue("name", "") == "" {
			body = el
			break
		}
	}
	if body == nil {
		return nil, fmt.Errorf("unable to read FB2: no main body")
	}

	for _, child := range body.ChildElements() {
		switch child.Tag {
		case "section":
			bl.section("")
			entry := fb2Section(bl, child, log)
			bl.b.Sections[len(bl.b.Sections)-1].Title = entry.Label
			bl.b.TOC = append(bl.b.TOC, entry)
		case "image":
		default:
			// body title and epigraphs go to front matter
			fb2Blocks(bl, child, log)
		}
	}
	return bl.finish(), nil
}

func fb2Section(bl *builder, el *etree.Element, log *zap.Logger) chapters.TOCEntry {
	entry := chapters.TOCEntry{
		ID:     el.SelectAttrValue("id", ""),
		Target: bl.pos().Fragment(),
	}
	bl.anchor(entry.ID)
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "title":
			if entry.Label == "" {
				entry.Label = clean(extractText(child))
			}
			fb2Blocks(bl, child, log)
		case "section":
			entry.Children = append(entry.Children, fb2Section(bl, child, log))
		default:
			fb2Blocks(bl, child, log)
		}
	}
	return entry
}

// fb2Blocks adds paragraphs of block element, containers are walked down to
// their paragraphs.
func fb2Blocks(bl *builder, el *etree.Element, log *zap.Logger) {
	bl.anchor(el.SelectAttrValue("id", ""))
	switch el.Tag {
	case "p", "v", "subtitle", "text-author", "date", "td", "th":
		bl.paragraph(extractText(el))
	case "title", "epigraph", "poem", "stanza", "cite", "annotation", "table", "tr":
		for _, child := range el.ChildElements() {
			fb2Blocks(bl, child, log)
		}
	case "empty-line", "image":
	default:
		log.Debug("Unexpected FB2 element, using its text", zap.String("tag", el.Tag))
		bl.paragraph(extractText(el))
	}
}

func extractText(el *etree.Element) string {
	var text strings.Builder
	for _, node := range el.Child {
		switch token := node.(type) {
		case *etree.CharData:
			text.WriteString(token.Data)
		case *etree.Element:
			text.WriteString(extractText(token))
		}
	}
	return text.String()
}
