package textsurface

import (
	"unicode"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// splitter extends selection to sentence boundaries. Only English model is
// built into tokenizer package, other languages select whole lines.
type splitter struct {
	tok *sentences.DefaultSentenceTokenizer
}

func newSplitter(lang language.Tag, log *zap.Logger) *splitter {
	if base, _ := lang.Base(); lang != language.Und && base.String() != "en" {
		log.Debug("No sentence model for language, selecting lines", zap.Stringer("language", lang))
		return nil
	}
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		log.Warn("Unable to load sentences tokenizer data", zap.Error(err))
		return nil
	}
	return &splitter{tok: tok}
}

// around returns rune span of sentence in para containing offset at, white
// space around sentence is not included.
func (s *splitter) around(para []rune, at int) (start, end int) {
	pos := 0
	for _, sent := range s.tok.Tokenize(string(para)) {
		n := utf8.RuneCountInString(sent.Text)
		if at < pos+n {
			start, end = pos, pos+n
			break
		}
		pos += n
	}
	if end == 0 {
		start, end = 0, len(para)
	}
	for start < end && unicode.IsSpace(para[start]) {
		start++
	}
	for end > start && unicode.IsSpace(para[end-1]) {
		end--
	}
	return start, end
}
