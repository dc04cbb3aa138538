// Package tag holds the in-memory tag payload attached to songs.
// It is plain data: extraction from audio formats happens elsewhere.
package tag

import "time"

// Type identifies a tag item kind.
type Type uint8

const (
	Artist Type = iota
	Album
	AlbumArtist
	Title
	Track
	Genre
	Date
	Composer
	Disc

	typeCount
)

var typeNames = [typeCount]string{
	Artist:      "Artist",
	Album:       "Album",
	AlbumArtist: "AlbumArtist",
	Title:       "Title",
	Track:       "Track",
	Genre:       "Genre",
	Date:        "Date",
	Composer:    "Composer",
	Disc:        "Disc",
}

func (t Type) String() string {
	if t >= typeCount {
		return "Unknown"
	}
	return typeNames[t]
}

// ParseType maps a tag name back to its Type. Used by the database codec.
func ParseType(name string) (Type, bool) {
	for i, n := range typeNames {
		if n == name {
			return Type(i), true
		}
	}
	return 0, false
}

// Types returns all known tag types in stable order.
func Types() []Type {
	out := make([]Type, typeCount)
	for i := range out {
		out[i] = Type(i)
	}
	return out
}

// Item is one tag value. A song may carry several items of the same type.
type Item struct {
	Type  Type
	Value string
}

// Tag is the immutable metadata payload of a song. Instances are shared
// between the tree and exported light songs; never mutate one after it has
// been attached to a song.
type Tag struct {
	Duration time.Duration
	Items    []Item
}

// First returns the first value of the given type, or "".
func (t *Tag) First(tt Type) string {
	if t == nil {
		return ""
	}
	for _, it := range t.Items {
		if it.Type == tt {
			return it.Value
		}
	}
	return ""
}

// Values returns every value of the given type, in item order.
func (t *Tag) Values(tt Type) []string {
	if t == nil {
		return nil
	}
	var out []string
	for _, it := range t.Items {
		if it.Type == tt {
			out = append(out, it.Value)
		}
	}
	return out
}

// Has reports whether the tag carries at least one item of the given type.
func (t *Tag) Has(tt Type) bool {
	return t != nil && t.First(tt) != ""
}

// Builder accumulates items while a song is being decoded.
type Builder struct {
	tag Tag
}

// Add appends one item.
func (b *Builder) Add(tt Type, value string) {
	b.tag.Items = append(b.tag.Items, Item{Type: tt, Value: value})
}

// SetDuration records the song duration.
func (b *Builder) SetDuration(d time.Duration) {
	b.tag.Duration = d
}

// Commit returns the built tag, or nil if nothing was recorded.
func (b *Builder) Commit() *Tag {
	if len(b.tag.Items) == 0 && b.tag.Duration == 0 {
		return nil
	}
	t := b.tag
	b.tag = Tag{}
	return &t
}
