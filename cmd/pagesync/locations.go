package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gosimple/slug"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"pagesync/chapters"
	"pagesync/locations"
	"pagesync/renderer/textsurface"
	"pagesync/state"
	"pagesync/utils/debug"
)

func runLocations(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	b, err := loadBook(cmd, env)
	if err != nil {
		return err
	}

	size := env.Cfg.Reader.LocationSampleSize
	if cmd.IsSet("sample") {
		size = cmd.Int("sample")
	}
	if size <= 0 {
		return fmt.Errorf("bad location sample size %d", size)
	}

	surf := textsurface.New(b, textsurface.Options{}, env.Log)
	x, err := locations.NewBuilder(surf, size, env.Log).Generate(ctx)
	if err != nil {
		return err
	}
	chaps := chapters.Build(b.TOC, x, env.Log)

	tw := debug.NewTreeWriter()
	tw.Field(0, "book", b.Title)
	tw.Field(1, "id", b.ID)
	tw.Field(1, "format", string(b.Format))
	tw.Field(1, "language", b.Lang.String())
	tw.Field(1, "sections", len(b.Sections))
	tw.Field(1, "characters", b.Runes())
	tw.Field(1, "sample size", size)
	tw.Field(1, "locations", x.Total())
	if len(b.TOC) > 0 {
		tw.Line(0, "toc:")
		tw.TOC(1, b.TOC)
	}
	if chaps.Len() > 0 {
		tw.Line(0, "chapters:")
		tw.Ranges(1, chaps)
	}
	if cmd.Bool("all") {
		tw.Line(0, "locations:")
		for i, f := range x.Fragments() {
			tw.Line(1, "%d %s", i+1, f)
		}
	}

	env.Rpt.StoreData("locations/"+slug.Make(b.ID)+".txt", []byte(tw.String()))
	if _, err := fmt.Fprint(os.Stdout, tw.String()); err != nil {
		return fmt.Errorf("unable to write locations: %w", err)
	}
	env.Log.Debug("Locations printed", zap.String("book", b.ID), zap.Int("locations", x.Total()), zap.Int("chapters", chaps.Len()))
	return nil
}
