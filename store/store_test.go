package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"pagesync/config"
	"pagesync/renderer"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	cfg := &config.StorageConfig{
		Database:    filepath.Join(t.TempDir(), "pagesync.db"),
		BusyRetries: 3,
		BusyDelay:   time.Millisecond,
	}
	s, err := Open(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestResume(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.Resume(ctx, "book"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resume() error = %v, want ErrNotFound", err)
	}
	for _, f := range []string{"/1:0", "/3:1200"} {
		if err := s.SaveResume(ctx, "book", rendererFragment(f)); err != nil {
			t.Fatalf("SaveResume() error = %v", err)
		}
	}
	got, err := s.Resume(ctx, "book")
	if err != nil || got != "/3:1200" {
		t.Errorf("Resume() = %q, %v", got, err)
	}
}

func TestBookmarks(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	first, err := s.AddBookmark(ctx, Bookmark{Book: "book", Fragment: "/2:0", Label: "Chapter 2, p. 17", Created: base})
	if err != nil {
		t.Fatalf("AddBookmark() error = %v", err)
	}
	if first.ID == "" {
		t.Error("bookmark id not assigned")
	}
	if _, err := s.AddBookmark(ctx, Bookmark{Book: "book", Fragment: "/5:300", Label: "later", Created: base.Add(time.Minute)}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddBookmark(ctx, Bookmark{Book: "other", Fragment: "/0:0", Label: "elsewhere"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddBookmark(ctx, first); err == nil {
		t.Error("duplicate bookmark id accepted")
	}

	list, err := s.Bookmarks(ctx, "book")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[1].Label != "later" {
		t.Fatalf("Bookmarks() = %+v", list)
	}
	if !list[0].Created.Equal(base) || list[0].Fragment != "/2:0" {
		t.Errorf("first bookmark %+v", list[0])
	}

	if err := s.DeleteBookmark(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteBookmark(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteBookmark() error = %v, want ErrNotFound", err)
	}
	if list, _ = s.Bookmarks(ctx, "book"); len(list) != 1 {
		t.Errorf("bookmarks after delete %d", len(list))
	}
}

func TestBooksNaturalOrder(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	for _, b := range []string{"vol10", "vol2", "vol1"} {
		if err := s.SaveResume(ctx, b, "/0:0"); err != nil {
			t.Fatal(err)
		}
	}
	s.AddBookmark(ctx, Bookmark{Book: "vol2", Fragment: "/0:0", Label: "x"})
	books, err := s.Books(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"vol1", "vol2", "vol10"}
	if len(books) != len(want) {
		t.Fatalf("Books() = %v", books)
	}
	for i := range want {
		if books[i] != want[i] {
			t.Errorf("Books() = %v, want %v", books, want)
			break
		}
	}
}

func TestClosed(t *testing.T) {
	s := openStore(t)
	s.Close()
	if err := s.SaveResume(context.Background(), "book", "/0:0"); err == nil {
		t.Error("closed store accepted write")
	}
}

func rendererFragment(s string) renderer.Fragment {
	return renderer.Fragment(s)
}
