// Package db implements the hierarchical song metadata database: an
// in-memory directory tree that is loaded from and saved to a single file,
// queried by slash-separated URIs, and composable from mounted sub-database
// instances.
package db

import (
	"io"
	"time"

	"github.com/agentic-research/songdb/internal/tag"
)

// SongFilter decides whether a song takes part in a visit.
// A nil filter accepts everything.
type SongFilter func(*LightSong) bool

// Selection describes what a Visit call should traverse.
type Selection struct {
	// URI is the slash-separated path of the directory or song to visit,
	// relative to the database root ("" for the whole database).
	URI string

	// Recursive requests descent into subdirectories.
	Recursive bool

	Filter SongFilter
}

// Match applies the selection's filter to an exported song.
func (s Selection) Match(song *LightSong) bool {
	return s.Filter == nil || s.Filter(song)
}

// Visitor callbacks. Returning a non-nil error aborts the traversal and
// propagates out of Visit.
type (
	VisitDirectory func(LightDirectory) error
	VisitSong      func(*LightSong) error
	VisitPlaylist  func(PlaylistInfo, LightDirectory) error
	VisitTag       func(value string) error
)

// Stats is an aggregate over a selection.
type Stats struct {
	Songs         uint64
	Directories   uint64
	Playlists     uint64
	TotalDuration time.Duration
	Artists       uint64
	Albums        uint64
}

// Database is the mountable facade contract. Any implementation can be
// attached as a mount point of another database, including SimpleDB itself.
type Database interface {
	// Open brings the instance into a usable state (loading persistent
	// state if any). Close releases it; no borrowed songs may be
	// outstanding.
	Open() error
	Close() error

	// GetSong borrows the song at the given URI. The caller must pass the
	// returned value to ReturnSong exactly once before Close, and (for
	// songs that did not cross a mount boundary) before the next GetSong.
	GetSong(uri string) (*LightSong, error)
	ReturnSong(song *LightSong)

	// Visit walks the selection. Callbacks run while the shared tree lock
	// is held and must not call back into any Database instance.
	Visit(sel Selection, visitDir VisitDirectory, visitSong VisitSong, visitPlaylist VisitPlaylist) error

	// VisitUniqueTags calls visit once per distinct value of the given tag
	// type among songs matching the selection.
	VisitUniqueTags(sel Selection, tt tag.Type, visit VisitTag) error

	// Stats aggregates counts and durations over the selection.
	Stats(sel Selection) (Stats, error)
}

// Codec serializes a directory tree. The grammar is owned by the
// implementation; the database only cares that Encode/Decode round-trip.
type Codec interface {
	Encode(w io.Writer, root *Directory) error
	Decode(r io.Reader, root *Directory) error
}
