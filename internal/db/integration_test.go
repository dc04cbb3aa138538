package db_test

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/songdb/internal/db"
	"github.com/agentic-research/songdb/internal/dbformat"
	"github.com/agentic-research/songdb/internal/tag"
)

const seedLibrary = `songdb_format: 1
directory_begin: music
directory_begin: jazz
song_begin: take5.mp3
mtime: 1000
duration: 324.000
tag_Artist: Dave Brubeck
tag_Album: Time Out
tag_Title: Take Five
song_end
directory_end
directory_begin: rock
song_begin: one.mp3
duration: 271.000
tag_Artist: Metallica
tag_Album: ...And Justice for All
song_end
playlist: 3000 favorites.m3u
directory_end
directory_end
`

// The full lifecycle: load a file, query it, save it compressed, and
// reopen from the saved bytes.
func TestLifecycle_LoadQuerySaveReload(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("lib", 0o755))
	require.NoError(t, util.WriteFile(fs, "lib/db", []byte(seedLibrary), 0o644))

	d, err := db.New(fs, dbformat.New(), db.NewTreeLock(), db.Config{
		Path:     "lib/db",
		Compress: true,
	})
	require.NoError(t, err)
	require.NoError(t, d.Open())

	song, err := d.GetSong("music/jazz/take5.mp3")
	require.NoError(t, err)
	assert.Equal(t, "Take Five", song.Tag.First(tag.Title))
	assert.Equal(t, 324*time.Second, song.Tag.Duration)
	d.ReturnSong(song)

	stats, err := d.Stats(db.Selection{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.Songs)
	assert.Equal(t, uint64(1), stats.Playlists)
	assert.Equal(t, (324+271)*time.Second, stats.TotalDuration)
	assert.Equal(t, uint64(2), stats.Artists)

	// Save rewrites the file gzip-compressed; a fresh instance reads it
	// back transparently.
	require.NoError(t, d.Save())
	require.NoError(t, d.Close())

	raw, err := util.ReadFile(fs, "lib/db")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(raw), 2)
	assert.Equal(t, []byte{0x1f, 0x8b}, raw[:2], "saved file is gzip")

	reopened, err := db.New(fs, dbformat.New(), db.NewTreeLock(), db.Config{Path: "lib/db"})
	require.NoError(t, err)
	require.NoError(t, reopened.Open())
	defer func() { _ = reopened.Close() }()

	again, err := reopened.Stats(db.Selection{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, stats, again, "stats survive a save/reload cycle")
}

// A pruned, sorted tree serializes the same way every time.
func TestLifecycle_DoubleSaveIsByteIdentical(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("lib", 0o755))
	require.NoError(t, util.WriteFile(fs, "lib/db", []byte(seedLibrary), 0o644))

	d, err := db.New(fs, dbformat.New(), db.NewTreeLock(), db.Config{Path: "lib/db"})
	require.NoError(t, err)
	require.NoError(t, d.Open())
	defer func() { _ = d.Close() }()

	require.NoError(t, d.Save())
	first, err := util.ReadFile(fs, "lib/db")
	require.NoError(t, err)

	require.NoError(t, d.Save())
	second, err := util.ReadFile(fs, "lib/db")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLifecycle_MountedLibrariesCompose(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("lib", 0o755))
	require.NoError(t, util.WriteFile(fs, "lib/main", []byte(seedLibrary), 0o644))
	require.NoError(t, util.WriteFile(fs, "lib/extra", []byte(`songdb_format: 1
song_begin: bonus.mp3
tag_Artist: Someone Else
song_end
`), 0o644))

	lock := db.NewTreeLock()
	main, err := db.New(fs, dbformat.New(), lock, db.Config{Path: "lib/main"})
	require.NoError(t, err)
	require.NoError(t, main.Open())
	defer func() { _ = main.Close() }()

	extra, err := db.New(fs, dbformat.New(), lock, db.Config{Path: "lib/extra"})
	require.NoError(t, err)
	require.NoError(t, extra.Open())
	require.NoError(t, main.Mount("music/extra", extra))

	var songs []string
	err = main.Visit(db.Selection{Recursive: true}, nil, func(s *db.LightSong) error {
		songs = append(songs, s.URI())
		return nil
	}, nil)
	require.NoError(t, err)
	sort.Strings(songs)
	assert.Equal(t, []string{
		"music/extra/bonus.mp3",
		"music/jazz/take5.mp3",
		"music/rock/one.mp3",
	}, songs)

	var artists []string
	err = main.VisitUniqueTags(db.Selection{Recursive: true}, tag.Artist, func(v string) error {
		artists = append(artists, v)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, artists, 3, "tags aggregate across the mount boundary")

	// Saving the host does not serialize the mounted library.
	require.NoError(t, main.Save())
	require.True(t, main.Unmount("music/extra"))

	reopened, err := db.New(fs, dbformat.New(), db.NewTreeLock(), db.Config{Path: "lib/main"})
	require.NoError(t, err)
	require.NoError(t, reopened.Open())
	defer func() { _ = reopened.Close() }()

	_, err = reopened.GetSong("music/extra/bonus.mp3")
	assert.True(t, errors.Is(err, db.ErrNotFound))
}

func TestLifecycle_CacheMountPersistsItsOwnFile(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("lib/cache", 0o755))
	require.NoError(t, util.WriteFile(fs, "lib/main", []byte(seedLibrary), 0o644))

	d, err := db.New(fs, dbformat.New(), db.NewTreeLock(), db.Config{
		Path:           "lib/main",
		CacheDirectory: "lib/cache",
	})
	require.NoError(t, err)
	require.NoError(t, d.Open())
	defer func() { _ = d.Close() }()

	require.NoError(t, d.MountStorage("remote", "nfs://server/mp3s"))

	// The cache file name is derived from the storage identifier.
	err = d.Visit(db.Selection{URI: "remote", Recursive: true}, nil,
		func(*db.LightSong) error { return nil }, nil)
	require.NoError(t, err, "the mounted cache starts empty but browsable")

	require.True(t, d.Unmount("remote"))
}

func TestLifecycle_VisitAbortPropagates(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("lib", 0o755))
	require.NoError(t, util.WriteFile(fs, "lib/db", []byte(seedLibrary), 0o644))

	d, err := db.New(fs, dbformat.New(), db.NewTreeLock(), db.Config{Path: "lib/db"})
	require.NoError(t, err)
	require.NoError(t, d.Open())
	defer func() { _ = d.Close() }()

	stop := errors.New("stop")
	seen := 0
	err = d.Visit(db.Selection{Recursive: true}, nil, func(*db.LightSong) error {
		seen++
		return stop
	}, nil)
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
}
