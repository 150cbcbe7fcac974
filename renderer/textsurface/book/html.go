package book

import (
	"bytes"
	"fmt"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"pagesync/chapters"
)

// h1 and h2 start new sections, lower headings become TOC children of the
// current section
func parseHTML(data []byte, log *zap.Logger) (*Book, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to read HTML: %w", err)
	}

	bl := newBuilder(FormatHTML)
	if el := findElement(doc, atom.Title); el != nil {
		bl.b.Title = clean(nodeText(el))
	}
	if el := findElement(doc, atom.Html); el != nil {
		bl.b.Lang = parseLang(attr(el, "lang"), log)
	}
	body := findElement(doc, atom.Body)
	if body == nil {
		return nil, fmt.Errorf("unable to read HTML: no body")
	}

	h := &htmlWalker{bl: bl, current: -1}
	h.walk(body)
	return bl.finish(), nil
}

type htmlWalker struct {
	bl      *builder
	current int
}

func (h *htmlWalker) walk(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			h.bl.paragraph(c.Data)
			continue
		case html.ElementNode:
			if hasAttr(c, "hidden") || hidden(attr(c, "style")) {
				continue
			}
		default:
			continue
		}

		switch c.DataAtom {
		case atom.Script, atom.Style, atom.Head:
		case atom.H1, atom.H2:
			label := clean(nodeText(c))
			h.bl.section(label)
			h.bl.anchor(attr(c, "id"))
			h.bl.b.TOC = append(h.bl.b.TOC, chapters.TOCEntry{ID: attr(c, "id"), Label: label, Target: h.bl.pos().Fragment()})
			h.current = len(h.bl.b.TOC) - 1
			h.bl.paragraph(label)
		case atom.H3, atom.H4, atom.H5, atom.H6:
			label := clean(nodeText(c))
			h.bl.anchor(attr(c, "id"))
			entry := chapters.TOCEntry{ID: attr(c, "id"), Label: label, Target: h.bl.pos().Fragment()}
			if h.current < 0 {
				h.bl.b.TOC = append(h.bl.b.TOC, entry)
			} else {
				h.bl.b.TOC[h.current].Children = append(h.bl.b.TOC[h.current].Children, entry)
			}
			h.bl.paragraph(label)
		case atom.P, atom.Li, atom.Pre, atom.Dt, atom.Dd, atom.Td, atom.Th, atom.Figcaption, atom.Caption:
			h.bl.anchor(attr(c, "id"))
			h.bl.paragraph(nodeText(c))
		default:
			h.bl.anchor(attr(c, "id"))
			h.walk(c)
		}
	}
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findElement(c, a); result != nil {
			return result
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Br {
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// hidden reports whether inline style removes element from rendering.
func hidden(style string) bool {
	if len(style) == 0 {
		return false
	}
	parser := css.NewParser(parse.NewInput(strings.NewReader(style)), true)
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return false
		case css.DeclarationGrammar:
			prop := strings.ToLower(string(data))
			for _, v := range parser.Values() {
				if v.TokenType != css.IdentToken {
					continue
				}
				switch kw := strings.ToLower(string(v.Data)); {
				case prop == "display" && kw == "none", prop == "visibility" && kw == "hidden":
					return true
				}
			}
		}
	}
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
