package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"pagesync/journal"
	"pagesync/state"
	"pagesync/utils/debug"
)

func runReplay(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	path := cmd.Args().First()
	if len(path) == 0 {
		return errors.New("no journal specified")
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open journal: %w", err)
	}
	defer f.Close()

	j, err := journal.Decode(f)
	if err != nil {
		return err
	}
	steps, err := journal.Replay(j, env.Log)
	if err != nil {
		return fmt.Errorf("unable to replay '%s': %w", path, err)
	}

	tw := debug.NewTreeWriter()
	tw.Field(0, "book", j.Book)
	tw.Field(1, "title", j.Title)
	tw.Field(1, "session", j.Session)
	tw.Field(1, "entries", len(j.Entries))
	tw.Line(0, "steps:")
	mismatches := 0
	for _, st := range steps {
		left := "-"
		if st.PagesLeft != nil {
			left = strconv.Itoa(*st.PagesLeft)
		}
		line := fmt.Sprintf("%4d %-16s seq=%d page=%d chapter=%q left=%s", st.Index, st.Kind, st.Seq, st.Page, st.Chapter, left)
		if st.Stuck {
			line += " STUCK"
		}
		if st.Err != nil {
			line += " error=" + strconv.Quote(st.Err.Error())
		}
		if st.Mismatch {
			mismatches++
			line += fmt.Sprintf(" MISMATCH recorded=%d", st.Recorded)
		}
		tw.Line(1, "%s", line)
	}
	if _, err := fmt.Fprint(os.Stdout, tw.String()); err != nil {
		return fmt.Errorf("unable to write replay: %w", err)
	}

	env.Log.Debug("Journal replayed", zap.String("journal", path), zap.Int("steps", len(steps)), zap.Int("mismatches", mismatches))
	if mismatches > 0 {
		return fmt.Errorf("%d replayed entries differ from recorded ones", mismatches)
	}
	return nil
}
