package db

import (
	"github.com/agentic-research/songdb/internal/tag"
	"github.com/agentic-research/songdb/internal/tagset"
)

// StatsOf aggregates counts, total duration and distinct artist/album
// counts over the selection. Works against any Database implementation;
// locking comes from Visit alone.
func StatsOf(d Database, sel Selection) (Stats, error) {
	var stats Stats
	artists := tagset.New()
	albums := tagset.New()

	err := d.Visit(sel,
		func(LightDirectory) error {
			stats.Directories++
			return nil
		},
		func(s *LightSong) error {
			stats.Songs++
			if s.Tag != nil {
				stats.TotalDuration += s.Tag.Duration
				artists.Add(s.Tag.First(tag.Artist))
				albums.Add(s.Tag.First(tag.Album))
			}
			return nil
		},
		func(PlaylistInfo, LightDirectory) error {
			stats.Playlists++
			return nil
		})
	if err != nil {
		return Stats{}, err
	}

	stats.Artists = artists.Len()
	stats.Albums = albums.Len()
	return stats, nil
}

// VisitUniqueTagsOf calls visit once per distinct value of the given tag
// type among the selection's songs, in first-seen order.
func VisitUniqueTagsOf(d Database, sel Selection, tt tag.Type, visit VisitTag) error {
	seen := tagset.New()

	err := d.Visit(sel, nil, func(s *LightSong) error {
		for _, v := range s.Tag.Values(tt) {
			seen.Add(v)
		}
		return nil
	}, nil)
	if err != nil {
		return err
	}

	for _, v := range seen.Values() {
		if err := visit(v); err != nil {
			return err
		}
	}
	return nil
}
