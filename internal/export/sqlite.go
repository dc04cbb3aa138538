// Package export dumps a song database into a SQLite file so external
// tools can query the library with plain SQL. Alongside the relational
// tables it writes a tag_refs sidecar: one roaring bitmap of song ids per
// distinct (tag type, value) pair.
package export

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"

	"github.com/RoaringBitmap/roaring"
	_ "modernc.org/sqlite"

	"github.com/agentic-research/songdb/internal/db"
	"github.com/agentic-research/songdb/internal/tag"
)

const schema = `
CREATE TABLE IF NOT EXISTS songs (
	id INTEGER PRIMARY KEY,
	uri TEXT UNIQUE NOT NULL,
	target TEXT,
	duration REAL,
	mtime INTEGER
);
CREATE TABLE IF NOT EXISTS tags (
	song_id INTEGER NOT NULL,
	type TEXT NOT NULL,
	value TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tags_type_value ON tags(type, value);
CREATE TABLE IF NOT EXISTS playlists (
	uri TEXT PRIMARY KEY,
	mtime INTEGER
);
CREATE TABLE IF NOT EXISTS tag_refs (
	type TEXT NOT NULL,
	value TEXT NOT NULL,
	songs BLOB,
	PRIMARY KEY (type, value)
) WITHOUT ROWID;
`

// ToSQLite walks the selection of d and writes everything it reports into
// a fresh SQLite file at outPath. Any existing file is overwritten.
func ToSQLite(d db.Database, sel db.Selection, outPath string) error {
	_ = os.Remove(outPath)

	w, err := newWriter(outPath)
	if err != nil {
		return err
	}

	err = d.Visit(sel, nil, w.addSong, w.addPlaylist)
	if err != nil {
		_ = w.abort()
		return err
	}
	return w.close()
}

type writer struct {
	sqldb    *sql.DB
	tx       *sql.Tx
	stmtSong *sql.Stmt
	stmtTag  *sql.Stmt
	stmtList *sql.Stmt

	nextID uint32
	refs   map[refKey]*roaring.Bitmap
}

type refKey struct {
	tagType string
	value   string
}

func newWriter(path string) (*writer, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// Bulk-insert tuning; durability comes from the final commit.
	if _, err := sqldb.Exec("PRAGMA synchronous = OFF"); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	if _, err := sqldb.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		_ = sqldb.Close()
		return nil, err
	}

	if _, err := sqldb.Exec(schema); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	tx, err := sqldb.Begin()
	if err != nil {
		_ = sqldb.Close()
		return nil, err
	}

	w := &writer{
		sqldb: sqldb,
		tx:    tx,
		refs:  make(map[refKey]*roaring.Bitmap),
	}

	if w.stmtSong, err = tx.Prepare(
		"INSERT INTO songs (id, uri, target, duration, mtime) VALUES (?, ?, ?, ?, ?)"); err != nil {
		_ = w.abort()
		return nil, err
	}
	if w.stmtTag, err = tx.Prepare(
		"INSERT INTO tags (song_id, type, value) VALUES (?, ?, ?)"); err != nil {
		_ = w.abort()
		return nil, err
	}
	if w.stmtList, err = tx.Prepare(
		"INSERT OR REPLACE INTO playlists (uri, mtime) VALUES (?, ?)"); err != nil {
		_ = w.abort()
		return nil, err
	}
	return w, nil
}

func (w *writer) addSong(s *db.LightSong) error {
	id := w.nextID
	w.nextID++

	var duration float64
	var mtime int64
	if s.Tag != nil {
		duration = s.Tag.Duration.Seconds()
	}
	if !s.Mtime.IsZero() {
		mtime = s.Mtime.Unix()
	}

	if _, err := w.stmtSong.Exec(id, s.URI(), s.Target, duration, mtime); err != nil {
		return fmt.Errorf("insert song %s: %w", s.URI(), err)
	}

	if s.Tag != nil {
		for _, it := range s.Tag.Items {
			if _, err := w.stmtTag.Exec(id, it.Type.String(), it.Value); err != nil {
				return fmt.Errorf("insert tag for %s: %w", s.URI(), err)
			}
			w.addRef(it.Type, it.Value, id)
		}
	}
	return nil
}

func (w *writer) addPlaylist(p db.PlaylistInfo, dir db.LightDirectory) error {
	uri := p.Name
	if dir.URI != "" {
		uri = dir.URI + "/" + p.Name
	}
	var mtime int64
	if !p.Mtime.IsZero() {
		mtime = p.Mtime.Unix()
	}
	if _, err := w.stmtList.Exec(uri, mtime); err != nil {
		return fmt.Errorf("insert playlist %s: %w", uri, err)
	}
	return nil
}

func (w *writer) addRef(tt tag.Type, value string, songID uint32) {
	key := refKey{tagType: tt.String(), value: value}
	bm, ok := w.refs[key]
	if !ok {
		bm = roaring.New()
		w.refs[key] = bm
	}
	bm.Add(songID)
}

// flushRefs serializes the accumulated bitmaps into tag_refs.
func (w *writer) flushRefs() error {
	stmt, err := w.tx.Prepare(
		"INSERT OR REPLACE INTO tag_refs (type, value, songs) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	var buf bytes.Buffer
	for key, bm := range w.refs {
		buf.Reset()
		if _, err := bm.WriteTo(&buf); err != nil {
			return fmt.Errorf("serialize bitmap for %s=%s: %w", key.tagType, key.value, err)
		}
		if _, err := stmt.Exec(key.tagType, key.value, buf.Bytes()); err != nil {
			return fmt.Errorf("insert tag_refs %s=%s: %w", key.tagType, key.value, err)
		}
	}
	return nil
}

func (w *writer) close() error {
	if err := w.flushRefs(); err != nil {
		_ = w.abort()
		return err
	}

	w.closeStmts()
	if err := w.tx.Commit(); err != nil {
		_ = w.sqldb.Close()
		return fmt.Errorf("commit export: %w", err)
	}
	return w.sqldb.Close()
}

func (w *writer) abort() error {
	w.closeStmts()
	_ = w.tx.Rollback()
	return w.sqldb.Close()
}

func (w *writer) closeStmts() {
	for _, s := range []*sql.Stmt{w.stmtSong, w.stmtTag, w.stmtList} {
		if s != nil {
			_ = s.Close()
		}
	}
}
