package dbformat

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/agentic-research/songdb/internal/db"
	"github.com/agentic-research/songdb/internal/tag"
)

// Decode parses a serialized tree into root, which is expected to be a
// freshly created root directory. Any malformed line aborts with an error;
// the caller discards the partial tree.
func (Codec) Decode(r io.Reader, root *db.Directory) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		return fmt.Errorf("empty database file")
	}
	version, ok := strings.CutPrefix(sc.Text(), "songdb_format: ")
	if !ok {
		return fmt.Errorf("missing format header")
	}
	if v, err := strconv.Atoi(version); err != nil || v != formatVersion {
		return fmt.Errorf("unsupported database format %q", version)
	}

	d := &decoder{current: []*db.Directory{root}}
	line := 1
	for sc.Scan() {
		line++
		if err := d.consume(sc.Text()); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read database file: %w", err)
	}
	if len(d.current) != 1 {
		return fmt.Errorf("unterminated directory block")
	}
	if d.song != nil {
		return fmt.Errorf("unterminated song block")
	}
	return nil
}

type decoder struct {
	// current is the directory stack; the last element receives new
	// content.
	current []*db.Directory

	song    *db.Song
	builder tag.Builder
}

func (d *decoder) top() *db.Directory {
	return d.current[len(d.current)-1]
}

func (d *decoder) consume(line string) error {
	if d.song != nil {
		return d.consumeSong(line)
	}

	switch {
	case line == "directory_end":
		if len(d.current) == 1 {
			return fmt.Errorf("directory_end without directory_begin")
		}
		d.current = d.current[:len(d.current)-1]
		return nil

	case strings.HasPrefix(line, "directory_begin: "):
		name := line[len("directory_begin: "):]
		if name == "" {
			return fmt.Errorf("empty directory name")
		}
		d.current = append(d.current, d.top().MakeChild(name))
		return nil

	case strings.HasPrefix(line, "song_begin: "):
		name := line[len("song_begin: "):]
		if name == "" {
			return fmt.Errorf("empty song name")
		}
		d.song = &db.Song{Name: name}
		return nil

	case strings.HasPrefix(line, "playlist: "):
		rest := line[len("playlist: "):]
		sec, name, ok := strings.Cut(rest, " ")
		if !ok || name == "" {
			return fmt.Errorf("malformed playlist line")
		}
		mtime, err := strconv.ParseInt(sec, 10, 64)
		if err != nil {
			return fmt.Errorf("playlist mtime: %w", err)
		}
		d.top().AddPlaylist(db.PlaylistInfo{Name: name, Mtime: time.Unix(mtime, 0)})
		return nil

	case strings.HasPrefix(line, "mtime: "):
		mtime, err := strconv.ParseInt(line[len("mtime: "):], 10, 64)
		if err != nil {
			return fmt.Errorf("directory mtime: %w", err)
		}
		d.top().SetMtime(time.Unix(mtime, 0))
		return nil

	default:
		return fmt.Errorf("unrecognized line %q", line)
	}
}

func (d *decoder) consumeSong(line string) error {
	switch {
	case line == "song_end":
		d.song.Tag = d.builder.Commit()
		d.top().AddSong(d.song)
		d.song = nil
		return nil

	case strings.HasPrefix(line, "target: "):
		d.song.Target = line[len("target: "):]
		return nil

	case strings.HasPrefix(line, "mtime: "):
		mtime, err := strconv.ParseInt(line[len("mtime: "):], 10, 64)
		if err != nil {
			return fmt.Errorf("song mtime: %w", err)
		}
		d.song.Mtime = time.Unix(mtime, 0)
		return nil

	case strings.HasPrefix(line, "duration: "):
		sec, err := strconv.ParseFloat(line[len("duration: "):], 64)
		if err != nil {
			return fmt.Errorf("song duration: %w", err)
		}
		d.builder.SetDuration(time.Duration(sec * float64(time.Second)))
		return nil

	case strings.HasPrefix(line, "tag_"):
		name, value, ok := strings.Cut(line[len("tag_"):], ": ")
		if !ok {
			return fmt.Errorf("malformed tag line %q", line)
		}
		tt, ok := tag.ParseType(name)
		if !ok {
			return fmt.Errorf("unknown tag type %q", name)
		}
		d.builder.Add(tt, value)
		return nil

	default:
		return fmt.Errorf("unrecognized song line %q", line)
	}
}
