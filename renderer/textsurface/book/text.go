package book

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"pagesync/chapters"
)

var headingRe = regexp.MustCompile(`(?i)^(chapter|part|book|prologue|epilogue)\b`)

// blank lines separate paragraphs, short lines starting with usual heading
// words start new sections
func parseText(data []byte, log *zap.Logger) (*Book, error) {
	if !utf8.Valid(data) {
		enc, name, _ := charset.DetermineEncoding(data, "text/plain")
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("unable to decode text as %s: %w", name, err)
		}
		log.Debug("Text decoded", zap.String("charset", name))
		data = decoded
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	bl := newBuilder(FormatText)
	var para []string
	flush := func() {
		if len(para) > 0 {
			bl.paragraph(strings.Join(para, " "))
			para = para[:0]
		}
	}
	for line := range strings.Lines(string(data)) {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			flush()
		case len(para) == 0 && utf8.RuneCountInString(line) <= 80 && headingRe.MatchString(line):
			label := clean(line)
			bl.section(label)
			bl.b.TOC = append(bl.b.TOC, chapters.TOCEntry{Label: label, Target: bl.pos().Fragment()})
			bl.paragraph(label)
		default:
			if bl.b.Title == "" && len(bl.b.Sections) == 0 && len(para) == 0 {
				bl.b.Title = clean(line)
			}
			para = append(para, line)
		}
	}
	flush()
	return bl.finish(), nil
}
