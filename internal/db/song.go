package db

import (
	"time"

	"github.com/agentic-research/songdb/internal/tag"
)

// Song is one entry of a directory. Its name is the final path segment;
// Target is an opaque reference to the underlying storage location.
type Song struct {
	Name   string
	Tag    *tag.Tag
	Target string
	Mtime  time.Time
}

// Export projects the song into its externally visible light form, placed
// inside the given directory.
func (s *Song) Export(d *Directory) LightSong {
	return LightSong{
		Directory: d.Path(),
		Name:      s.Name,
		Tag:       s.Tag,
		Target:    s.Target,
		Mtime:     s.Mtime,
	}
}

// PlaylistInfo is an embedded playlist entry of a directory.
type PlaylistInfo struct {
	Name  string
	Mtime time.Time
}
