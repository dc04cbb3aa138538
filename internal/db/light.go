package db

import (
	"time"

	"github.com/agentic-research/songdb/internal/tag"
)

// LightSong is the externally visible, read-only projection of a song.
// Instances handed out by GetSong are borrowed: the caller owns nothing
// and must hand the exact pointer back via ReturnSong. Instances passed to
// visit callbacks are only valid for the duration of the callback.
type LightSong struct {
	// Directory is the URI of the containing directory, "" at the root.
	Directory string
	Name      string
	Tag       *tag.Tag
	Target    string
	Mtime     time.Time
}

// URI returns the full path of the song relative to the database root.
func (s *LightSong) URI() string {
	return joinURI(s.Directory, s.Name)
}

// LightDirectory is the read-only projection of a directory.
type LightDirectory struct {
	// URI relative to the database root; "" for the root itself.
	URI   string
	Mtime time.Time
}

// IsRoot reports whether this projection refers to a database root.
func (d LightDirectory) IsRoot() bool { return d.URI == "" }

// prefixSong copies a light song reported by a mounted instance so that it
// appears below the mount point of the host. The copy owns its own path
// strings; the tag payload is immutable and safely shared.
func prefixSong(s *LightSong, base string) LightSong {
	out := *s
	out.Directory = joinURI(base, s.Directory)
	return out
}

// joinURI concatenates two relative URIs, tolerating empty parts.
func joinURI(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "/" + b
}
