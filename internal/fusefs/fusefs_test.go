package fusefs

import (
	"sort"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/winfsp/cgofuse/fuse"

	"github.com/agentic-research/songdb/internal/db"
	"github.com/agentic-research/songdb/internal/dbformat"
)

const libraryText = `songdb_format: 1
directory_begin: a
song_begin: b.mp3
mtime: 1000
duration: 180.000
tag_Artist: Ada
tag_Title: First Song
song_end
playlist: 2000 mix.m3u
directory_begin: c
song_begin: d.mp3
song_end
directory_end
directory_end
`

func newFS(t *testing.T) *FS {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("lib", 0o755))
	require.NoError(t, util.WriteFile(fs, "lib/db", []byte(libraryText), 0o644))

	d, err := db.New(fs, dbformat.New(), db.NewTreeLock(), db.Config{Path: "lib/db"})
	require.NoError(t, err)
	require.NoError(t, d.Open())
	t.Cleanup(func() { _ = d.Close() })
	return New(d)
}

func TestGetattr_Root(t *testing.T) {
	f := newFS(t)
	var stat fuse.Stat_t
	require.Zero(t, f.Getattr("/", &stat, 0))
	assert.Equal(t, uint32(fuse.S_IFDIR|0o555), stat.Mode)
}

func TestGetattr_Directory(t *testing.T) {
	f := newFS(t)
	var stat fuse.Stat_t
	require.Zero(t, f.Getattr("/a/c", &stat, 0))
	assert.Equal(t, uint32(fuse.S_IFDIR|0o555), stat.Mode)
}

func TestGetattr_SongFile(t *testing.T) {
	f := newFS(t)
	var stat fuse.Stat_t
	require.Zero(t, f.Getattr("/a/b.mp3", &stat, 0))
	assert.Equal(t, uint32(fuse.S_IFREG|0o444), stat.Mode)
	assert.Positive(t, stat.Size)
	assert.Equal(t, int64(1000), stat.Mtim.Sec)
}

func TestGetattr_Missing(t *testing.T) {
	f := newFS(t)
	var stat fuse.Stat_t
	assert.Equal(t, fuse.ENOENT, f.Getattr("/nope", &stat, 0))
	assert.Equal(t, fuse.ENOENT, f.Getattr("/a/nope.mp3", &stat, 0))
}

func TestReaddir(t *testing.T) {
	f := newFS(t)

	var names []string
	fill := func(name string, _ *fuse.Stat_t, _ int64) bool {
		names = append(names, name)
		return true
	}
	require.Zero(t, f.Readdir("/a", fill, 0, 0))

	sort.Strings(names)
	assert.Equal(t, []string{".", "..", "b.mp3", "c", "mix.m3u"}, names)
}

func TestReaddir_SongIsNotADirectory(t *testing.T) {
	f := newFS(t)
	var names []string
	fill := func(name string, _ *fuse.Stat_t, _ int64) bool {
		names = append(names, name)
		return true
	}
	assert.Equal(t, fuse.ENOTDIR, f.Readdir("/a/b.mp3", fill, 0, 0))
	assert.Empty(t, names)
}

func TestReaddir_Missing(t *testing.T) {
	f := newFS(t)
	fill := func(string, *fuse.Stat_t, int64) bool { return true }
	assert.Equal(t, fuse.ENOENT, f.Readdir("/nope", fill, 0, 0))
}

func TestOpenAndRead_Song(t *testing.T) {
	f := newFS(t)

	errc, _ := f.Open("/a/b.mp3", 0)
	require.Zero(t, errc)

	buf := make([]byte, 4096)
	n := f.Read("/a/b.mp3", buf, 0, 0)
	require.Positive(t, n)

	content := string(buf[:n])
	assert.Contains(t, content, "uri: a/b.mp3\n")
	assert.Contains(t, content, "duration: 180.000\n")
	assert.Contains(t, content, "Artist: Ada\n")
	assert.Contains(t, content, "Title: First Song\n")
}

func TestRead_WindowedAndPastEnd(t *testing.T) {
	f := newFS(t)

	whole := make([]byte, 4096)
	n := f.Read("/a/b.mp3", whole, 0, 0)
	require.Positive(t, n)

	// Read in two halves and reassemble.
	half := int64(n / 2)
	first := make([]byte, half)
	require.Equal(t, int(half), f.Read("/a/b.mp3", first, 0, 0))
	second := make([]byte, 4096)
	m := f.Read("/a/b.mp3", second, half, 0)

	joined := string(first) + string(second[:m])
	assert.Equal(t, string(whole[:n]), joined)

	// Offsets past the end read zero bytes.
	assert.Zero(t, f.Read("/a/b.mp3", whole, int64(n)+100, 0))
}

func TestOpen_Missing(t *testing.T) {
	f := newFS(t)
	errc, _ := f.Open("/a/nope.mp3", 0)
	assert.Equal(t, fuse.ENOENT, errc)
}

func TestRenderSong_MinimalSong(t *testing.T) {
	content := renderSong(&db.LightSong{Directory: "a/c", Name: "d.mp3"})
	assert.Equal(t, "uri: a/c/d.mp3\n", string(content))
	assert.False(t, strings.Contains(string(content), "duration"))
}
