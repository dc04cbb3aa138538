package db

import (
	"fmt"
	"io"

	"github.com/agentic-research/songdb/internal/tag"
)

// stubDatabase is a minimal Database used to mark mount points and to
// observe lifecycle calls.
type stubDatabase struct {
	opened   bool
	closed   bool
	closeErr error
}

func (s *stubDatabase) Open() error  { s.opened = true; return nil }
func (s *stubDatabase) Close() error { s.closed = true; return s.closeErr }

func (s *stubDatabase) GetSong(uri string) (*LightSong, error) {
	return nil, notFound("no such song")
}

func (s *stubDatabase) ReturnSong(*LightSong) {}

func (s *stubDatabase) Visit(Selection, VisitDirectory, VisitSong, VisitPlaylist) error {
	return nil
}

func (s *stubDatabase) VisitUniqueTags(Selection, tag.Type, VisitTag) error {
	return nil
}

func (s *stubDatabase) Stats(Selection) (Stats, error) {
	return Stats{}, nil
}

// staticCodec decodes by building a fixed tree and encodes a flat listing
// of directory paths, enough to observe prune/sort results.
type staticCodec struct {
	build     func(root *Directory)
	decodeErr error
}

func (c staticCodec) Decode(r io.Reader, root *Directory) error {
	if c.decodeErr != nil {
		return c.decodeErr
	}
	if c.build != nil {
		c.build(root)
	}
	return nil
}

func (c staticCodec) Encode(w io.Writer, root *Directory) error {
	var walk func(d *Directory) error
	walk = func(d *Directory) error {
		for _, child := range d.Children() {
			if _, err := fmt.Fprintln(w, child.Path()); err != nil {
				return err
			}
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root)
}
