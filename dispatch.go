package spgo

import (
	"fmt"

	"github.com/obinnaokechukwu/spgo/backend"
	"github.com/obinnaokechukwu/spgo/host"
	"github.com/obinnaokechukwu/spgo/media"
)

// Completion handlers. Each one is called by the backend on its own thread
// with a borrowed handle and the token of the request it completes. The
// handle is referenced before anything else happens, so it is released on
// every path including a missing listener or a failed attach. The returned
// error is a status for the caller; it has already been logged.

// SearchComplete delivers a finished search to the search listener as
// searchCompleted(token, result).
func (b *Bridge) SearchComplete(search backend.Handle, token int32) error {
	return b.callback("search_complete", token, func(cb *callback) error {
		if err := cb.scope.acquire(search); err != nil {
			return err
		}
		reg, err := cb.listener(CategorySearch)
		if err != nil {
			return err
		}
		if err := cb.attach(); err != nil {
			return err
		}
		return b.deliverSearch(cb, reg, search)
	})
}

func (b *Bridge) deliverSearch(cb *callback, reg *registration, search backend.Handle) error {
	result, err := cb.newObject(media.ClassSearchResult)
	if err != nil {
		return err
	}
	return b.deliverSearchInto(cb, reg, search, result)
}

func (b *Bridge) deliverSearchInto(cb *callback, reg *registration, search backend.Handle, result host.Ref) error {
	if err := b.populateSearch(cb, search, result); err != nil {
		return err
	}
	_, err := b.invoke(cb, reg, "searchCompleted", cb.token, result)
	return err
}

// AlbumBrowseComplete delivers a finished album browse. album is a global
// reference to the managed Album being filled; the bridge takes ownership
// of it and unpins it before returning.
func (b *Bridge) AlbumBrowseComplete(browse backend.Handle, album host.Ref, token int32) error {
	return b.callback("albumbrowse_complete", token, func(cb *callback) error {
		cb.scope.adoptGlobal(album)
		if err := cb.scope.acquire(browse); err != nil {
			return err
		}
		reg, err := cb.listener(CategoryMediaLoaded)
		if err != nil {
			return err
		}
		if err := cb.attach(); err != nil {
			return err
		}
		return b.deliverAlbumBrowse(cb, reg, browse, album)
	})
}

func (b *Bridge) deliverAlbumBrowse(cb *callback, reg *registration, browse backend.Handle, album host.Ref) error {
	subject := b.be.BrowseSubject(browse)
	if err := cb.scope.acquire(subject); err != nil {
		cb.log.Error().Err(err).Msg("album browse carries no album")
		return err
	}
	if album.IsNil() {
		obj, err := cb.newObject(media.ClassAlbum)
		if err != nil {
			return err
		}
		album = obj
	}
	if err := b.populateAlbum(cb, subject, browse, album); err != nil {
		return err
	}
	_, err := b.invoke(cb, reg, "album", cb.token, album)
	return err
}

// ArtistBrowseComplete delivers a finished artist browse. artist follows
// the same ownership rule as the album of AlbumBrowseComplete.
func (b *Bridge) ArtistBrowseComplete(browse backend.Handle, artist host.Ref, token int32) error {
	return b.callback("artistbrowse_complete", token, func(cb *callback) error {
		cb.scope.adoptGlobal(artist)
		if err := cb.scope.acquire(browse); err != nil {
			return err
		}
		reg, err := cb.listener(CategoryMediaLoaded)
		if err != nil {
			return err
		}
		if err := cb.attach(); err != nil {
			return err
		}
		return b.deliverArtistBrowse(cb, reg, browse, artist)
	})
}

func (b *Bridge) deliverArtistBrowse(cb *callback, reg *registration, browse backend.Handle, artist host.Ref) error {
	subject := b.be.BrowseSubject(browse)
	if err := cb.scope.acquire(subject); err != nil {
		cb.log.Error().Err(err).Msg("artist browse carries no artist")
		return err
	}
	if artist.IsNil() {
		obj, err := cb.newObject(media.ClassArtist)
		if err != nil {
			return err
		}
		artist = obj
	}
	if err := b.populateArtist(cb, subject, browse, artist); err != nil {
		return err
	}
	_, err := b.invoke(cb, reg, "artist", cb.token, artist)
	return err
}

// PlaylistUpdated delivers a loaded playlist as playlist(token, link, name).
func (b *Bridge) PlaylistUpdated(playlist backend.Handle, token int32) error {
	return b.callback("playlist_updated", token, func(cb *callback) error {
		if err := cb.scope.acquire(playlist); err != nil {
			return err
		}
		reg, err := cb.listener(CategoryMediaLoaded)
		if err != nil {
			return err
		}
		if err := cb.attach(); err != nil {
			return err
		}
		return b.deliverPlaylist(cb, reg, playlist, 0)
	})
}

func (b *Bridge) deliverPlaylist(cb *callback, reg *registration, playlist backend.Handle, obj host.Ref) error {
	link, err := b.newLink(cb.scope, playlist)
	if err != nil {
		return err
	}
	if !obj.IsNil() {
		if err := b.populatePlaylist(cb, playlist, obj); err != nil {
			return err
		}
	}
	_, err = b.invoke(cb, reg, "playlist", cb.token, link, b.be.Name(playlist))
	return err
}

// ImageLoaded delivers a loaded image as image(token, link, size, bytes).
// img is an optional global reference to a managed Image to fill; the
// bridge takes ownership of it.
func (b *Bridge) ImageLoaded(image backend.Handle, img host.Ref, token int32, size backend.ImageSize) error {
	return b.callback("image_loaded", token, func(cb *callback) error {
		cb.scope.adoptGlobal(img)
		if err := cb.scope.acquire(image); err != nil {
			return err
		}
		reg, err := cb.listener(CategoryMediaLoaded)
		if err != nil {
			return err
		}
		if err := cb.attach(); err != nil {
			return err
		}
		return b.deliverImage(cb, reg, image, img, size)
	})
}

func (b *Bridge) deliverImage(cb *callback, reg *registration, image backend.Handle, img host.Ref, size backend.ImageSize) error {
	link, err := b.newLink(cb.scope, image)
	if err != nil {
		return err
	}
	data := b.be.ImageData(image)
	if !img.IsNil() {
		if err := b.populateImage(cb, image, img, size, data); err != nil {
			return err
		}
	}
	_, err = b.invoke(cb, reg, "image", cb.token, link, int32(size), data)
	return err
}

// deliverTrack hands a loaded track to the media listener as
// track(token, link), filling obj first when given.
func (b *Bridge) deliverTrack(cb *callback, reg *registration, track backend.Handle, obj host.Ref) error {
	link, err := b.newLink(cb.scope, track)
	if err != nil {
		return err
	}
	if !obj.IsNil() {
		if err := b.populateTrack(cb, track, obj); err != nil {
			return err
		}
	}
	_, err = b.invoke(cb, reg, "track", cb.token, link)
	return err
}

// Search starts an asynchronous search. The result reaches the search
// listener with token through SearchComplete. Zero counts in params mean
// DefaultSearchCount.
func (b *Bridge) Search(query string, params backend.SearchParams, token int32) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if b.req == nil {
		return ErrNoRequester
	}
	err := b.req.Search(query, params.Normalize(), func(search backend.Handle) {
		_ = b.SearchComplete(search, token)
	})
	if err != nil {
		b.log.Error().Err(err).Str("query", query).Int32("token", token).Msg("search request failed")
		return fmt.Errorf("spgo: search %q: %w", query, err)
	}
	return nil
}
