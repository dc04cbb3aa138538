// Package dbformat is the line-based serialization of a directory tree.
// The database core treats it as an opaque codec behind db.Codec; nothing
// outside this package depends on the grammar.
//
// Mounted subtrees are not serialized: a mount is runtime composition and
// the mounted instance persists in its own file.
package dbformat

import (
	"fmt"
	"io"

	"github.com/agentic-research/songdb/internal/db"
)

const formatVersion = 1

// Codec implements db.Codec.
type Codec struct{}

// New returns the codec.
func New() Codec { return Codec{} }

var _ db.Codec = Codec{}

// Encode writes the tree rooted at root.
func (Codec) Encode(w io.Writer, root *db.Directory) error {
	ew := &errWriter{w: w}
	ew.printf("songdb_format: %d\n", formatVersion)
	encodeContents(ew, root)
	return ew.err
}

func encodeContents(ew *errWriter, d *db.Directory) {
	if !d.Mtime().IsZero() {
		ew.printf("mtime: %d\n", d.Mtime().Unix())
	}

	for _, s := range d.Songs() {
		encodeSong(ew, s)
	}

	for _, p := range d.Playlists() {
		ew.printf("playlist: %d %s\n", p.Mtime.Unix(), p.Name)
	}

	for _, c := range d.Children() {
		if c.IsMount() {
			continue
		}
		ew.printf("directory_begin: %s\n", c.Name())
		encodeContents(ew, c)
		ew.printf("directory_end\n")
	}
}

func encodeSong(ew *errWriter, s *db.Song) {
	ew.printf("song_begin: %s\n", s.Name)
	if s.Target != "" {
		ew.printf("target: %s\n", s.Target)
	}
	if !s.Mtime.IsZero() {
		ew.printf("mtime: %d\n", s.Mtime.Unix())
	}
	if s.Tag != nil {
		if s.Tag.Duration > 0 {
			ew.printf("duration: %.3f\n", s.Tag.Duration.Seconds())
		}
		for _, it := range s.Tag.Items {
			ew.printf("tag_%s: %s\n", it.Type, it.Value)
		}
	}
	ew.printf("song_end\n")
}

// errWriter latches the first write error so the encoder body stays free
// of error plumbing.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
