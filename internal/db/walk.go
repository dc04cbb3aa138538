package db

// Walk visits the contents of d: matching songs, playlists, then child
// directories (descending only when recursive). Runs with the tree lock
// held; crossing into a mounted instance suspends the lock around the
// delegated Visit call.
func (d *Directory) Walk(lock *TreeLock, recursive bool, filter SongFilter,
	visitDir VisitDirectory, visitSong VisitSong, visitPlaylist VisitPlaylist) error {

	if d.IsMount() {
		return lock.suspend(func() error {
			return walkMount(d.Path(), d.mounted, "", recursive, filter,
				visitDir, visitSong, visitPlaylist)
		})
	}

	if visitSong != nil {
		for _, s := range d.songs {
			song := s.Export(d)
			if filter == nil || filter(&song) {
				if err := visitSong(&song); err != nil {
					return err
				}
			}
		}
	}

	if visitPlaylist != nil {
		light := d.Export()
		for _, p := range d.playlists {
			if err := visitPlaylist(p, light); err != nil {
				return err
			}
		}
	}

	for _, child := range d.children {
		if visitDir != nil {
			if err := visitDir(child.Export()); err != nil {
				return err
			}
		}
		if recursive {
			if err := child.Walk(lock, recursive, filter,
				visitDir, visitSong, visitPlaylist); err != nil {
				return err
			}
		}
	}

	return nil
}

// walkMount delegates a visit into a mounted database and translates every
// reported path by prefixing it with the mount point's path. The mounted
// instance's own root directory is not reported; it is the mount point,
// which the host already reported. Must be called without the tree lock.
func walkMount(base string, mounted Database, uri string, recursive bool, filter SongFilter,
	visitDir VisitDirectory, visitSong VisitSong, visitPlaylist VisitPlaylist) error {

	var vd VisitDirectory
	if visitDir != nil {
		vd = func(dir LightDirectory) error {
			if dir.IsRoot() {
				return nil
			}
			return visitDir(LightDirectory{
				URI:   joinURI(base, dir.URI),
				Mtime: dir.Mtime,
			})
		}
	}

	var vs VisitSong
	if visitSong != nil {
		vs = func(song *LightSong) error {
			prefixed := prefixSong(song, base)
			return visitSong(&prefixed)
		}
	}

	var vp VisitPlaylist
	if visitPlaylist != nil {
		vp = func(p PlaylistInfo, dir LightDirectory) error {
			return visitPlaylist(p, LightDirectory{
				URI:   joinURI(base, dir.URI),
				Mtime: dir.Mtime,
			})
		}
	}

	return mounted.Visit(Selection{URI: uri, Recursive: recursive, Filter: filter}, vd, vs, vp)
}
