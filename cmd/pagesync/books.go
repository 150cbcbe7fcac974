package main

import (
	"errors"
	"fmt"
	"path/filepath"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"pagesync/engine"
	"pagesync/renderer/textsurface/book"
	"pagesync/state"
)

func loadBook(cmd *cli.Command, env *state.LocalEnv) (*book.Book, error) {
	if cmd.Args().Len() == 0 {
		return nil, errors.New("no book specified")
	}
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many books", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}
	path := cmd.Args().First()
	b, err := book.Load(path, env.Log)
	if err != nil {
		return nil, fmt.Errorf("unable to open book '%s': %w", path, err)
	}
	env.Rpt.Store("book/"+filepath.Base(path), path)
	return b, nil
}

func engineBook(b *book.Book) engine.Book {
	return engine.Book{ID: b.ID, Title: b.Title, TOC: b.TOC}
}
