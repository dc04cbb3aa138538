// Package storage implements the on-disk envelope of the database file:
// plain or gzip-compressed content, atomic replace on save, and the
// writability check used when a load failure degrades to an empty library.
// All access goes through a billy.Filesystem so the engine runs unchanged
// against the real disk (osfs) and in-memory filesystems in tests.
package storage

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"
)

// Open opens the database file for reading, transparently decompressing
// gzip content (detected by magic bytes, not configuration, so a database
// saved with compression on can be reopened with it off).
func Open(fsys billy.Filesystem, path string) (io.ReadCloser, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database file: %w", err)
	}

	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("gzip header of %s: %w", path, err)
		}
		return &stackedCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
	}

	return &stackedCloser{Reader: br, closers: []io.Closer{f}}, nil
}

// WriteAtomic writes the file produced by write to path, replacing any
// previous file only on success. Content goes through a temp file in the
// same directory and a buffered writer, with an optional gzip stage
// between buffer and file. On any failure the temp file is removed and
// the previous file, if any, stays untouched.
func WriteAtomic(fsys billy.Filesystem, path string, compress bool, write func(io.Writer) error) error {
	tmp, err := fsys.TempFile(filepath.Dir(path), ".songdb-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	discard := func(err error) error {
		_ = tmp.Close()
		_ = fsys.Remove(tmpName)
		return err
	}

	var base io.Writer = tmp
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(tmp)
		base = gz
	}

	bw := bufio.NewWriter(base)
	if err := write(bw); err != nil {
		return discard(err)
	}
	if err := bw.Flush(); err != nil {
		return discard(fmt.Errorf("flush: %w", err))
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return discard(fmt.Errorf("close gzip stream: %w", err))
		}
	}
	if err := tmp.Close(); err != nil {
		_ = fsys.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := fsys.Rename(tmpName, path); err != nil {
		_ = fsys.Remove(tmpName)
		return fmt.Errorf("commit %s: %w", path, err)
	}
	return nil
}

// Check verifies that path is usable for a future save: an existing file
// must be regular and read/writable; a missing file needs a parent that is
// a writable directory. Permission checks use the owner bits of the stat
// mode, which is what both osfs and memfs report.
func Check(fsys billy.Filesystem, path string) error {
	fi, err := fsys.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("stat database file: %w", err)
		}

		dir := filepath.Dir(path)
		dfi, err := fsys.Stat(dir)
		if err != nil {
			return fmt.Errorf("on parent directory of database file: %w", err)
		}
		if !dfi.IsDir() {
			return fmt.Errorf("cannot create database file %q: parent is not a directory", path)
		}
		if dfi.Mode().Perm()&0o300 != 0o300 {
			return fmt.Errorf("cannot create database file in %q: %w", dir, os.ErrPermission)
		}
		return nil
	}

	if !fi.Mode().IsRegular() {
		return fmt.Errorf("database file %q is not a regular file", path)
	}
	if fi.Mode().Perm()&0o600 != 0o600 {
		return fmt.Errorf("cannot open database file %q for reading/writing: %w", path, os.ErrPermission)
	}
	return nil
}

// stackedCloser reads from Reader and closes the underlying stages in
// order (decompressor before file).
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
