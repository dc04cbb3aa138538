package db

import (
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"

	"github.com/agentic-research/songdb/internal/storage"
	"github.com/agentic-research/songdb/internal/tag"
)

// Config carries the persistent-storage settings of a SimpleDB.
type Config struct {
	// Path of the database file. Required.
	Path string

	// Compress enables gzip compression of the saved file.
	Compress bool

	// CacheDirectory, when set, enables storage-backed mounts: each mount
	// persists its own database file under this directory.
	CacheDirectory string
}

// SimpleDB is the Database implementation backed by an in-memory directory
// tree and a single on-disk file. Instances can be mounted into each other;
// everything in one mount graph shares one TreeLock.
type SimpleDB struct {
	fsys  billy.Filesystem
	codec Codec
	lock  *TreeLock

	path      string
	compress  bool
	cachePath string

	root  *Directory
	mtime time.Time

	// Borrow accounting for GetSong/ReturnSong. The direct case projects
	// into the single reusable slot; results that crossed a mount boundary
	// get their own heap copy, any number of which may be outstanding.
	light         LightSong
	lightBorrowed bool
	prefixed      map[*LightSong]struct{}
}

var _ Database = (*SimpleDB)(nil)

// New creates a closed SimpleDB. The lock handle is shared with every
// instance this one will delegate into; passing nil creates a fresh one
// (appropriate only for a top-level database).
func New(fsys billy.Filesystem, codec Codec, lock *TreeLock, cfg Config) (*SimpleDB, error) {
	if cfg.Path == "" {
		return nil, configError("no database path configured")
	}
	if lock == nil {
		lock = NewTreeLock()
	}
	return &SimpleDB{
		fsys:      fsys,
		codec:     codec,
		lock:      lock,
		path:      cfg.Path,
		compress:  cfg.Compress,
		cachePath: cfg.CacheDirectory,
		prefixed:  make(map[*LightSong]struct{}),
	}, nil
}

// Lock returns the shared tree lock handle.
func (db *SimpleDB) Lock() *TreeLock { return db.lock }

// Mtime returns the modification time recorded at the last successful
// load or save, zero if neither happened yet.
func (db *SimpleDB) Mtime() time.Time { return db.mtime }

// Open loads the database file into a fresh root. A load failure degrades
// to an empty library as long as the file location is verified writable;
// otherwise the verification error is returned and the instance stays
// closed.
func (db *SimpleDB) Open() error {
	db.root = NewRootDirectory()
	db.mtime = time.Time{}
	db.lightBorrowed = false
	clear(db.prefixed)

	if err := db.load(); err != nil {
		log.Printf("songdb: load %s: %v", db.path, err)

		if cerr := storage.Check(db.fsys, db.path); cerr != nil {
			db.root = nil
			return cerr
		}
		db.root = NewRootDirectory()
	}
	return nil
}

func (db *SimpleDB) load() error {
	r, err := storage.Open(db.fsys, db.path)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	if err := db.codec.Decode(r, db.root); err != nil {
		return err
	}

	if fi, err := db.fsys.Stat(db.path); err == nil {
		db.mtime = fi.ModTime()
	}
	return nil
}

// Close tears the tree down and closes every mounted instance. All
// borrowed songs must have been returned.
func (db *SimpleDB) Close() error {
	if db.root == nil {
		return nil
	}
	if db.lightBorrowed || len(db.prefixed) > 0 {
		panic("songdb: Close with borrowed songs outstanding")
	}

	err := closeMounts(db.root)
	db.root = nil
	return err
}

// closeMounts recursively closes mounted instances below d. Runs without
// the tree lock: the tree is no longer reachable by queries at this point,
// and Close of a mounted instance must not run under the shared lock.
func closeMounts(d *Directory) error {
	var first error
	if d.mounted != nil {
		mounted := d.mounted
		d.mounted = nil
		if err := mounted.Close(); err != nil && first == nil {
			first = err
		}
		return first
	}
	for _, c := range d.children {
		if err := closeMounts(c); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Save prunes empty directories, sorts the tree, and writes it out
// atomically. The lock is held only for the structural pass, not for the
// file write, so queries can proceed while bytes are flushed. Concurrent
// Save calls on the same instance are the caller's responsibility to
// serialize.
func (db *SimpleDB) Save() error {
	g := db.lock.acquire()
	db.root.PruneEmpty()
	db.root.Sort()
	g.release()

	err := storage.WriteAtomic(db.fsys, db.path, db.compress, func(w io.Writer) error {
		return db.codec.Encode(w, db.root)
	})
	if err != nil {
		return err
	}

	if fi, err := db.fsys.Stat(db.path); err == nil {
		db.mtime = fi.ModTime()
	}
	return nil
}

// GetSong borrows the song at uri. See Database for the borrow contract.
func (db *SimpleDB) GetSong(uri string) (*LightSong, error) {
	g := db.lock.acquire()
	defer g.release()

	r := db.root.Lookup(uri)

	if r.directory.IsMount() {
		// Delegate the remainder to the mounted instance; the shared lock
		// must be released before crossing.
		mounted := r.directory.mounted
		base := r.directory.Path()
		g.release()

		song, err := mounted.GetSong(r.rest)
		if err != nil {
			return nil, err
		}

		prefixed := new(LightSong)
		*prefixed = prefixSong(song, base)
		mounted.ReturnSong(song)

		db.prefixed[prefixed] = struct{}{}
		return prefixed, nil
	}

	if r.rest == "" || strings.Contains(r.rest, "/") {
		// A directory, or a path below a song.
		return nil, notFound("no such song")
	}

	song := r.directory.FindSong(r.rest)
	if song == nil {
		return nil, notFound("no such song")
	}
	exported := song.Export(r.directory)
	g.release()

	if db.lightBorrowed {
		panic("songdb: GetSong while previous result not returned")
	}
	db.light = exported
	db.lightBorrowed = true
	return &db.light, nil
}

// ReturnSong releases a song borrowed from GetSong. Passing a song that is
// not currently borrowed from this instance is a protocol violation.
func (db *SimpleDB) ReturnSong(song *LightSong) {
	if song == nil {
		panic("songdb: ReturnSong(nil)")
	}
	if _, ok := db.prefixed[song]; ok {
		delete(db.prefixed, song)
		return
	}
	if song == &db.light && db.lightBorrowed {
		db.lightBorrowed = false
		db.light = LightSong{}
		return
	}
	panic("songdb: ReturnSong of a song not borrowed from this database")
}

// Visit walks the selection. See Database for the callback contract.
func (db *SimpleDB) Visit(sel Selection, visitDir VisitDirectory, visitSong VisitSong, visitPlaylist VisitPlaylist) error {
	g := db.lock.acquire()
	defer g.release()

	r := db.root.Lookup(sel.URI)

	if r.directory.IsMount() {
		mounted := r.directory.mounted
		base := r.directory.Path()
		g.release()

		return walkMount(base, mounted, r.rest, sel.Recursive, sel.Filter,
			visitDir, visitSong, visitPlaylist)
	}

	if r.rest == "" {
		// The selection names a directory.
		if sel.Recursive && visitDir != nil {
			if err := visitDir(r.directory.Export()); err != nil {
				return err
			}
		}
		return r.directory.Walk(db.lock, sel.Recursive, sel.Filter,
			visitDir, visitSong, visitPlaylist)
	}

	if !strings.Contains(r.rest, "/") && visitSong != nil {
		if song := r.directory.FindSong(r.rest); song != nil {
			exported := song.Export(r.directory)
			if sel.Match(&exported) {
				return visitSong(&exported)
			}
			return nil
		}
	}

	return notFound("no such directory")
}

// Mount attaches an already-open database instance at uri. The mount point
// must not exist yet, but its parent must. On success the node owns the
// instance until Unmount.
func (db *SimpleDB) Mount(uri string, other Database) error {
	g := db.lock.acquire()
	defer g.release()

	r := db.root.Lookup(uri)
	if r.rest == "" {
		return conflict("mount point already exists")
	}
	if strings.Contains(r.rest, "/") {
		return notFound("mount parent not found")
	}

	r.directory.CreateChild(r.rest).AttachMount(other)
	return nil
}

// MountStorage mounts a database cached on behalf of a remote storage
// identifier. The backing file lives under the configured cache directory
// with a deterministically sanitized name; the new instance shares this
// one's lock, filesystem, codec and compression setting. No instance
// survives a failed mount attempt.
func (db *SimpleDB) MountStorage(localURI, storageURI string) error {
	if db.cachePath == "" {
		return &Error{Kind: ErrNotFound, Message: "no cache directory configured"}
	}

	sub, err := New(db.fsys, db.codec, db.lock, Config{
		Path:     filepath.Join(db.cachePath, SanitizeStorageName(storageURI)),
		Compress: db.compress,
	})
	if err != nil {
		return err
	}

	if err := sub.Open(); err != nil {
		return err
	}

	if err := db.Mount(localURI, sub); err != nil {
		if cerr := sub.Close(); cerr != nil {
			log.Printf("songdb: closing cache database after failed mount: %v", cerr)
		}
		return err
	}
	return nil
}

// Unmount detaches and closes the instance mounted at uri. Returns false
// if uri does not name a mount point; that is a no-op, not an error.
func (db *SimpleDB) Unmount(uri string) bool {
	mounted := db.lockUnmountSteal(uri)
	if mounted == nil {
		return false
	}

	// Close outside the lock: the instance's Close touches its own state
	// and may take its own locks.
	if err := mounted.Close(); err != nil {
		log.Printf("songdb: closing unmounted database at %q: %v", uri, err)
	}
	return true
}

// lockUnmountSteal detaches the mounted instance at uri under the lock and
// transfers ownership to the caller, deleting the now-plain node.
func (db *SimpleDB) lockUnmountSteal(uri string) Database {
	g := db.lock.acquire()
	defer g.release()

	r := db.root.Lookup(uri)
	if r.rest != "" || !r.directory.IsMount() {
		return nil
	}

	mounted := r.directory.DetachMount()
	r.directory.Delete()
	return mounted
}

// VisitUniqueTags implements Database by aggregating over Visit.
func (db *SimpleDB) VisitUniqueTags(sel Selection, tt tag.Type, visit VisitTag) error {
	return VisitUniqueTagsOf(db, sel, tt, visit)
}

// Stats implements Database by aggregating over Visit.
func (db *SimpleDB) Stats(sel Selection) (Stats, error) {
	return StatsOf(db, sel)
}

// SanitizeStorageName derives the on-disk cache file name for a storage
// identifier. Deterministic: every rune outside [A-Za-z0-9], '-', '_' and
// '%' maps to a single '_'.
func SanitizeStorageName(storageURI string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '%':
			return r
		default:
			return '_'
		}
	}, storageURI)
}
