// Package store keeps resume points and bookmarks in local sqlite database.
// Engine itself never persists anything, it hands positions over to store.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/maruel/natural"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"pagesync/config"
	"pagesync/renderer"
)

var ErrNotFound = errors.New("not found")

// Bookmark is saved position with user label.
type Bookmark struct {
	ID       string            `yaml:"id"`
	Book     string            `yaml:"book"`
	Fragment renderer.Fragment `yaml:"fragment"`
	Label    string            `yaml:"label"`
	Created  time.Time         `yaml:"created"`
}

const schema = `
CREATE TABLE IF NOT EXISTS resume (
	book     TEXT PRIMARY KEY,
	fragment TEXT NOT NULL,
	updated  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS bookmarks (
	id       TEXT PRIMARY KEY,
	book     TEXT NOT NULL,
	fragment TEXT NOT NULL,
	label    TEXT NOT NULL,
	created  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS bookmarks_book ON bookmarks(book, created);
`

// Store serializes access to single connection.
type Store struct {
	log     *zap.Logger
	retries uint
	delay   time.Duration

	mu   sync.Mutex
	conn *sqlite.Conn
}

// Open opens (creating if necessary) database file from configuration.
func Open(cfg *config.StorageConfig, log *zap.Logger) (*Store, error) {
	conn, err := sqlite.OpenConn(cfg.Database, sqlite.OpenReadWrite, sqlite.OpenCreate)
	if err != nil {
		return nil, fmt.Errorf("unable to open database '%s': %w", cfg.Database, err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare database '%s': %w", cfg.Database, err)
	}
	s := &Store{
		log:     log.Named("store"),
		retries: max(cfg.BusyRetries, 1),
		delay:   cfg.BusyDelay,
		conn:    conn,
	}
	s.log.Debug("Database opened", zap.String("path", cfg.Database))
	return s, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func busy(err error) bool {
	switch sqlite.ErrCode(err).ToPrimary() {
	case sqlite.ResultBusy, sqlite.ResultLocked:
		return true
	}
	return false
}

// do runs fn holding connection, retrying while database is locked by
// another process.
func (s *Store) do(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return errors.New("store is closed")
	}
	s.conn.SetInterrupt(ctx.Done())
	defer s.conn.SetInterrupt(nil)

	return retry.Do(
		func() error {
			return fn(s.conn)
		},
		retry.Context(ctx),
		retry.Attempts(s.retries),
		retry.Delay(s.delay),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(busy),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.log.Debug("Database busy, retrying", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
}

// SaveResume records last position of the book.
func (s *Store) SaveResume(ctx context.Context, book string, f renderer.Fragment) error {
	return s.do(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`INSERT INTO resume(book, fragment, updated) VALUES (?, ?, ?)
			 ON CONFLICT(book) DO UPDATE SET fragment = excluded.fragment, updated = excluded.updated`,
			&sqlitex.ExecOptions{Args: []any{book, string(f), time.Now().UnixMilli()}})
	})
}

// Resume returns saved position of the book, ErrNotFound if there is none.
func (s *Store) Resume(ctx context.Context, book string) (renderer.Fragment, error) {
	var (
		f     renderer.Fragment
		found bool
	)
	err := s.do(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT fragment FROM resume WHERE book = ?`,
			&sqlitex.ExecOptions{
				Args: []any{book},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					f, found = renderer.Fragment(stmt.ColumnText(0)), true
					return nil
				},
			})
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNotFound
	}
	return f, nil
}

// AddBookmark stores bookmark assigning ID and creation time when missing.
func (s *Store) AddBookmark(ctx context.Context, b Bookmark) (Bookmark, error) {
	if b.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return Bookmark{}, fmt.Errorf("unable to generate bookmark id: %w", err)
		}
		b.ID = id.String()
	}
	if b.Created.IsZero() {
		b.Created = time.Now()
	}
	err := s.do(ctx, func(conn *sqlite.Conn) (err error) {
		defer sqlitex.Save(conn)(&err)
		return sqlitex.Execute(conn,
			`INSERT INTO bookmarks(id, book, fragment, label, created) VALUES (?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{b.ID, b.Book, string(b.Fragment), b.Label, b.Created.UnixMilli()}})
	})
	if err != nil {
		return Bookmark{}, fmt.Errorf("unable to store bookmark: %w", err)
	}
	return b, nil
}

// Bookmarks lists bookmarks of the book in creation order.
func (s *Store) Bookmarks(ctx context.Context, book string) ([]Bookmark, error) {
	var out []Bookmark
	err := s.do(ctx, func(conn *sqlite.Conn) error {
		out = out[:0]
		return sqlitex.Execute(conn,
			`SELECT id, fragment, label, created FROM bookmarks WHERE book = ? ORDER BY created, id`,
			&sqlitex.ExecOptions{
				Args: []any{book},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					out = append(out, Bookmark{
						ID:       stmt.ColumnText(0),
						Book:     book,
						Fragment: renderer.Fragment(stmt.ColumnText(1)),
						Label:    stmt.ColumnText(2),
						Created:  time.UnixMilli(stmt.ColumnInt64(3)),
					})
					return nil
				},
			})
	})
	return out, err
}

// DeleteBookmark removes bookmark by ID.
func (s *Store) DeleteBookmark(ctx context.Context, id string) error {
	return s.do(ctx, func(conn *sqlite.Conn) error {
		if err := sqlitex.Execute(conn, `DELETE FROM bookmarks WHERE id = ?`, &sqlitex.ExecOptions{Args: []any{id}}); err != nil {
			return err
		}
		if conn.Changes() == 0 {
			return fmt.Errorf("bookmark %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// Books lists every book known to the store in natural order.
func (s *Store) Books(ctx context.Context) ([]string, error) {
	var books []string
	err := s.do(ctx, func(conn *sqlite.Conn) error {
		books = books[:0]
		return sqlitex.Execute(conn,
			`SELECT book FROM resume UNION SELECT book FROM bookmarks`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					books = append(books, stmt.ColumnText(0))
					return nil
				},
			})
	})
	if err != nil {
		return nil, err
	}
	sort.Sort(natural.StringSlice(books))
	return books, nil
}
