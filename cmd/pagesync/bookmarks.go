package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"pagesync/state"
	"pagesync/store"
	"pagesync/utils/debug"
)

func runBookmarks(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	st, err := store.Open(&env.Cfg.Storage, env.Log)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, st.Close())
	}()

	if id := cmd.String("delete"); len(id) > 0 {
		if err := st.DeleteBookmark(ctx, id); err != nil {
			return fmt.Errorf("unable to delete bookmark '%s': %w", id, err)
		}
		env.Log.Info("Bookmark deleted", zap.String("id", id))
		return nil
	}

	books := cmd.Args().Slice()
	if len(books) == 0 {
		if books, err = st.Books(ctx); err != nil {
			return err
		}
	}

	tw := debug.NewTreeWriter()
	for _, id := range books {
		tw.Line(0, "%s", id)
		f, err := st.Resume(ctx, id)
		switch {
		case err == nil:
			tw.Field(1, "resume", string(f))
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		bms, err := st.Bookmarks(ctx, id)
		if err != nil {
			return err
		}
		for _, bm := range bms {
			tw.Line(1, "%s %s %s %q", bm.Created.Local().Format(time.DateTime), bm.ID, bm.Fragment, bm.Label)
		}
	}
	if _, err := fmt.Fprint(os.Stdout, tw.String()); err != nil {
		return fmt.Errorf("unable to write bookmarks: %w", err)
	}
	return nil
}
