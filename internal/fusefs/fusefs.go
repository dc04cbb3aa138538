// Package fusefs projects a song database as a read-only filesystem via
// cgofuse: directories browse like directories, and each song is a small
// text file rendering its tag payload.
package fusefs

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/winfsp/cgofuse/fuse"

	"github.com/agentic-research/songdb/internal/db"
)

// FS implements the FUSE interface from cgofuse.
type FS struct {
	fuse.FileSystemBase

	mu        sync.Mutex // serializes database access (borrow discipline)
	db        db.Database
	mountTime fuse.Timespec
}

func New(d db.Database) *FS {
	return &FS{
		db:        d,
		mountTime: fuse.NewTimespec(time.Now()),
	}
}

func uriOf(p string) string {
	return strings.Trim(p, "/")
}

// Getattr (stat).
func (fs *FS) Getattr(p string, stat *fuse.Stat_t, fh uint64) int {
	stat.Atim = fs.mountTime
	stat.Mtim = fs.mountTime
	stat.Ctim = fs.mountTime
	stat.Birthtim = fs.mountTime

	uri := uriOf(p)
	if uri == "" {
		stat.Mode = fuse.S_IFDIR | 0o555
		stat.Nlink = 2
		return 0
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if song, err := fs.db.GetSong(uri); err == nil {
		content := renderSong(song)
		if !song.Mtime.IsZero() {
			stat.Mtim = fuse.NewTimespec(song.Mtime)
		}
		fs.db.ReturnSong(song)

		stat.Mode = fuse.S_IFREG | 0o444
		stat.Nlink = 1
		stat.Size = int64(len(content))
		return 0
	}

	// Not a song; a URI that resolves as a directory visits cleanly.
	err := fs.db.Visit(db.Selection{URI: uri}, nil, nil, nil)
	if err == nil {
		stat.Mode = fuse.S_IFDIR | 0o555
		stat.Nlink = 2
		return 0
	}
	return fuse.ENOENT
}

// Readdir lists the directory's immediate children.
func (fs *FS) Readdir(p string,
	fill func(name string, stat *fuse.Stat_t, ofst int64) bool,
	ofst int64, fh uint64) int {

	fs.mu.Lock()
	defer fs.mu.Unlock()

	// Song files are not listable.
	if song, err := fs.db.GetSong(uriOf(p)); err == nil {
		fs.db.ReturnSong(song)
		return fuse.ENOTDIR
	}

	fill(".", nil, 0)
	fill("..", nil, 0)

	err := fs.db.Visit(db.Selection{URI: uriOf(p)},
		func(dir db.LightDirectory) error {
			fill(path.Base(dir.URI), nil, 0)
			return nil
		},
		func(song *db.LightSong) error {
			fill(song.Name, nil, 0)
			return nil
		},
		func(pl db.PlaylistInfo, _ db.LightDirectory) error {
			fill(pl.Name, nil, 0)
			return nil
		})
	if err != nil {
		return fuse.ENOENT
	}
	return 0
}

// Open succeeds only for song files; the tree is read-only.
func (fs *FS) Open(p string, flags int) (int, uint64) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	song, err := fs.db.GetSong(uriOf(p))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fuse.ENOENT, 0
		}
		return fuse.EIO, 0
	}
	fs.db.ReturnSong(song)
	return 0, 0
}

// Read renders the song's tag payload and serves the requested window.
func (fs *FS) Read(p string, buff []byte, ofst int64, fh uint64) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	song, err := fs.db.GetSong(uriOf(p))
	if err != nil {
		return fuse.ENOENT
	}
	content := renderSong(song)
	fs.db.ReturnSong(song)

	if ofst >= int64(len(content)) {
		return 0
	}
	end := ofst + int64(len(buff))
	if end > int64(len(content)) {
		end = int64(len(content))
	}
	return copy(buff, content[ofst:end])
}

// renderSong formats the externally visible song as a text file.
func renderSong(s *db.LightSong) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "uri: %s\n", s.URI())
	if s.Target != "" {
		fmt.Fprintf(&b, "target: %s\n", s.Target)
	}
	if s.Tag != nil {
		if s.Tag.Duration > 0 {
			fmt.Fprintf(&b, "duration: %.3f\n", s.Tag.Duration.Seconds())
		}
		for _, it := range s.Tag.Items {
			fmt.Fprintf(&b, "%s: %s\n", it.Type, it.Value)
		}
	}
	return []byte(b.String())
}
