// Package archive finds book files packed into zip archives.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrStop may be returned by WalkFunc to end walking without error.
var ErrStop = errors.New("stop walking")

// ErrNoMatch is returned by First when nothing in archive matched.
var ErrNoMatch = errors.New("no matching file in archive")

// WalkFunc is called for every matching file, archive is the path passed to
// Walk.
type WalkFunc func(archive string, file *zip.File) error

// Walk visits files of the archive accepted by match in archive order.
// Entries escaping extraction directory (absolute or with "..") fail the
// walk.
func Walk(archive string, match func(name string) bool, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || (match != nil && !match(name)) {
			continue
		}
		if err := walkFn(archive, f); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Extensions returns matcher accepting names with any of the extensions,
// case is ignored.
func Extensions(exts ...string) func(string) bool {
	return func(name string) bool {
		ext := strings.ToLower(path.Ext(name))
		for _, e := range exts {
			if ext == strings.ToLower(e) {
				return true
			}
		}
		return false
	}
}

// First reads first file accepted by match, at most limit bytes of it.
func First(archive string, match func(name string) bool, limit int64) (string, []byte, error) {
	var (
		name string
		data []byte
	)
	err := Walk(archive, match, func(_ string, f *zip.File) error {
		if f.UncompressedSize64 > uint64(limit) {
			return fmt.Errorf("zip entry %q is too large (%d bytes)", f.Name, f.UncompressedSize64)
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("zip entry %q: %w", f.Name, err)
		}
		defer rc.Close()
		if data, err = io.ReadAll(io.LimitReader(rc, limit)); err != nil {
			return fmt.Errorf("zip entry %q: %w", f.Name, err)
		}
		name = f.Name
		return ErrStop
	})
	if err != nil {
		return "", nil, err
	}
	if name == "" {
		return "", nil, ErrNoMatch
	}
	return name, data, nil
}

func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
