package db

import (
	"sort"
	"strings"
	"time"
)

// Directory is one node of the tree. The tree is owned by exactly one
// SimpleDB instance and only touched under its TreeLock. A directory that
// carries a mounted database stands in for that entire instance and has no
// meaningful local children.
type Directory struct {
	name   string
	parent *Directory

	children  []*Directory
	songs     []*Song
	playlists []PlaylistInfo

	// mounted, when non-nil, is the sub-database this node stands in for.
	// The node owns the instance until it is unmounted.
	mounted Database

	mtime time.Time
}

// NewRootDirectory creates an empty root node.
func NewRootDirectory() *Directory {
	return &Directory{}
}

func (d *Directory) Name() string { return d.name }

// IsRoot reports whether this node has no parent.
func (d *Directory) IsRoot() bool { return d.parent == nil }

// IsMount reports whether this node is a mount point.
func (d *Directory) IsMount() bool { return d.mounted != nil }

// Mounted returns the mounted instance, or nil.
func (d *Directory) Mounted() Database { return d.mounted }

// AttachMount makes d stand in for the given database instance. The node
// owns the instance until DetachMount.
func (d *Directory) AttachMount(m Database) { d.mounted = m }

// DetachMount transfers ownership of the mounted instance back to the
// caller.
func (d *Directory) DetachMount() Database {
	m := d.mounted
	d.mounted = nil
	return m
}

func (d *Directory) Mtime() time.Time      { return d.mtime }
func (d *Directory) SetMtime(t time.Time)  { d.mtime = t }
func (d *Directory) Children() []*Directory { return d.children }
func (d *Directory) Songs() []*Song         { return d.songs }
func (d *Directory) Playlists() []PlaylistInfo { return d.playlists }

// Path returns the URI of this directory relative to its root ("" for the
// root itself).
func (d *Directory) Path() string {
	if d.parent == nil {
		return ""
	}
	return joinURI(d.parent.Path(), d.name)
}

// Export projects the directory into its light form.
func (d *Directory) Export() LightDirectory {
	return LightDirectory{URI: d.Path(), Mtime: d.mtime}
}

// FindChild returns the child directory with the given name, or nil.
func (d *Directory) FindChild(name string) *Directory {
	for _, c := range d.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// CreateChild adds a new empty child directory. The name must not already
// exist; callers check with FindChild first.
func (d *Directory) CreateChild(name string) *Directory {
	c := &Directory{name: name, parent: d}
	d.children = append(d.children, c)
	return c
}

// MakeChild returns the existing child of that name or creates it.
func (d *Directory) MakeChild(name string) *Directory {
	if c := d.FindChild(name); c != nil {
		return c
	}
	return d.CreateChild(name)
}

// FindSong returns the song with the given name, or nil.
func (d *Directory) FindSong(name string) *Song {
	for _, s := range d.songs {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// AddSong attaches a song to this directory, replacing any previous song
// of the same name.
func (d *Directory) AddSong(s *Song) {
	for i, old := range d.songs {
		if old.Name == s.Name {
			d.songs[i] = s
			return
		}
	}
	d.songs = append(d.songs, s)
}

// AddPlaylist attaches a playlist entry, replacing one of the same name.
func (d *Directory) AddPlaylist(p PlaylistInfo) {
	for i, old := range d.playlists {
		if old.Name == p.Name {
			d.playlists[i] = p
			return
		}
	}
	d.playlists = append(d.playlists, p)
}

// Delete removes this directory from its parent. Must not be called on a
// root.
func (d *Directory) Delete() {
	p := d.parent
	for i, c := range p.children {
		if c == d {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	d.parent = nil
}

// IsEmpty reports whether the directory holds nothing. A mount point is
// never empty: the mounted instance supersedes local content.
func (d *Directory) IsEmpty() bool {
	return !d.IsMount() &&
		len(d.children) == 0 &&
		len(d.songs) == 0 &&
		len(d.playlists) == 0
}

// PruneEmpty removes, transitively, all empty child directories.
func (d *Directory) PruneEmpty() {
	kept := d.children[:0]
	for _, c := range d.children {
		c.PruneEmpty()
		if c.IsEmpty() {
			c.parent = nil
			continue
		}
		kept = append(kept, c)
	}
	d.children = kept
}

// Sort orders children, songs and playlists by name, recursively, for
// deterministic serialization.
func (d *Directory) Sort() {
	sort.Slice(d.children, func(i, j int) bool {
		return d.children[i].name < d.children[j].name
	})
	sort.Slice(d.songs, func(i, j int) bool {
		return d.songs[i].Name < d.songs[j].Name
	})
	sort.Slice(d.playlists, func(i, j int) bool {
		return d.playlists[i].Name < d.playlists[j].Name
	})
	for _, c := range d.children {
		c.Sort()
	}
}

// lookupResult is the outcome of resolving a URI against a tree: the
// deepest directory reached and the unconsumed remainder ("" if the whole
// URI named a directory).
type lookupResult struct {
	directory *Directory
	rest      string
}

// Lookup resolves a slash-separated URI from this node. Segments are
// consumed as child directory names; resolution stops as soon as it enters
// a mount point, leaving the remainder for the caller to delegate. An
// empty URI resolves to the node itself with no remainder.
func (d *Directory) Lookup(uri string) lookupResult {
	cur, rest := d, uri
	for rest != "" && !cur.IsMount() {
		name, tail, _ := strings.Cut(rest, "/")
		child := cur.FindChild(name)
		if child == nil {
			break
		}
		cur, rest = child, tail
	}
	return lookupResult{directory: cur, rest: rest}
}
