//go:build !ios && !android && (amd64 || arm64)

package libspotify

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/obinnaokechukwu/spgo/backend"
	"github.com/obinnaokechukwu/spgo/internal/bindings"
)

// sp_search_type
const (
	searchStandard = 0
	searchSuggest  = 1
)

// sp_artistbrowse_type
const artistBrowseFull = 0

// Backend talks to one libspotify session. All calls must come from the
// thread libspotify expects: the session's main loop or one of its
// callbacks.
type Backend struct {
	session uintptr
}

var (
	_ backend.Backend   = (*Backend)(nil)
	_ backend.Requester = (*Backend)(nil)
	_ backend.Watcher   = (*Backend)(nil)
)

// NewBackend wraps an sp_session created by the embedder.
func NewBackend(session uintptr) (*Backend, error) {
	if !bindingsRegistered {
		return nil, bindings.ErrNotLoaded
	}
	if session == 0 {
		return nil, errors.New("libspotify: nil session")
	}
	return &Backend{session: session}, nil
}

// Session returns the wrapped sp_session pointer.
func (b *Backend) Session() uintptr { return b.session }

type refFuncs struct {
	addRef   func(uintptr) int32
	release  func(uintptr) int32
	isLoaded func(uintptr) bool
}

func funcsFor(k backend.Kind) (refFuncs, bool) {
	switch k {
	case backend.KindTrack:
		return refFuncs{spTrackAddRef, spTrackRelease, spTrackIsLoaded}, true
	case backend.KindAlbum:
		return refFuncs{spAlbumAddRef, spAlbumRelease, spAlbumIsLoaded}, true
	case backend.KindArtist:
		return refFuncs{spArtistAddRef, spArtistRelease, spArtistIsLoaded}, true
	case backend.KindPlaylist:
		return refFuncs{spPlaylistAddRef, spPlaylistRelease, spPlaylistIsLoaded}, true
	case backend.KindImage:
		return refFuncs{spImageAddRef, spImageRelease, spImageIsLoaded}, true
	case backend.KindSearch:
		return refFuncs{spSearchAddRef, spSearchRelease, spSearchIsLoaded}, true
	case backend.KindAlbumBrowse:
		return refFuncs{spAlbumBrowseAddRef, spAlbumBrowseRelease, spAlbumBrowseIsLoaded}, true
	case backend.KindArtistBrowse:
		return refFuncs{spArtistBrowseAddRef, spArtistBrowseRelease, spArtistBrowseIsLoaded}, true
	case backend.KindLink:
		return refFuncs{spLinkAddRef, spLinkRelease, func(uintptr) bool { return true }}, true
	}
	return refFuncs{}, false
}

func unsupported(op string, h backend.Handle) error {
	return fmt.Errorf("libspotify: %s not supported for %s", op, h.Kind)
}

// AddRef implements backend.Backend.
func (b *Backend) AddRef(h backend.Handle) error {
	f, ok := funcsFor(h.Kind)
	if !ok || h.IsNil() {
		return unsupported("add_ref", h)
	}
	return newError(f.addRef(h.Ptr), "add_ref "+h.Kind.String())
}

// Release implements backend.Backend.
func (b *Backend) Release(h backend.Handle) error {
	f, ok := funcsFor(h.Kind)
	if !ok || h.IsNil() {
		return unsupported("release", h)
	}
	return newError(f.release(h.Ptr), "release "+h.Kind.String())
}

// IsLoaded implements backend.Backend.
func (b *Backend) IsLoaded(h backend.Handle) bool {
	f, ok := funcsFor(h.Kind)
	if !ok || h.IsNil() {
		return false
	}
	return f.isLoaded(h.Ptr)
}

// CreateLink implements backend.Backend.
func (b *Backend) CreateLink(h backend.Handle) (backend.Handle, error) {
	var link uintptr
	switch h.Kind {
	case backend.KindTrack:
		link = spLinkCreateFromTrack(h.Ptr, 0)
	case backend.KindAlbum:
		link = spLinkCreateFromAlbum(h.Ptr)
	case backend.KindArtist:
		link = spLinkCreateFromArtist(h.Ptr)
	case backend.KindPlaylist:
		link = spLinkCreateFromPlaylist(h.Ptr)
	case backend.KindImage:
		link = spLinkCreateFromImage(h.Ptr)
	default:
		return backend.Handle{}, unsupported("link", h)
	}
	if link == 0 {
		return backend.Handle{}, fmt.Errorf("libspotify: no link for %s", h)
	}
	return backend.Handle{Kind: backend.KindLink, Ptr: link}, nil
}

// LinkString implements backend.Backend.
func (b *Backend) LinkString(link backend.Handle) string {
	if link.Kind != backend.KindLink || link.IsNil() {
		return ""
	}
	buf := make([]byte, 256)
	for {
		n := int(spLinkAsString(link.Ptr, &buf[0], int32(len(buf))))
		if n < len(buf) {
			if n < 0 {
				return ""
			}
			return string(buf[:n])
		}
		buf = make([]byte, n+1)
	}
}

// Name implements backend.Backend.
func (b *Backend) Name(h backend.Handle) string {
	switch h.Kind {
	case backend.KindTrack:
		return goString(spTrackName(h.Ptr))
	case backend.KindAlbum:
		return goString(spAlbumName(h.Ptr))
	case backend.KindArtist:
		return goString(spArtistName(h.Ptr))
	case backend.KindPlaylist:
		return goString(spPlaylistName(h.Ptr))
	}
	return ""
}

// SearchNum implements backend.Backend.
func (b *Backend) SearchNum(search backend.Handle, kind backend.Kind) int {
	switch kind {
	case backend.KindTrack:
		return int(spSearchNumTracks(search.Ptr))
	case backend.KindAlbum:
		return int(spSearchNumAlbums(search.Ptr))
	case backend.KindArtist:
		return int(spSearchNumArtists(search.Ptr))
	}
	return 0
}

// SearchTotal implements backend.Backend.
func (b *Backend) SearchTotal(search backend.Handle, kind backend.Kind) int {
	switch kind {
	case backend.KindTrack:
		return int(spSearchTotalTracks(search.Ptr))
	case backend.KindAlbum:
		return int(spSearchTotalAlbums(search.Ptr))
	case backend.KindArtist:
		return int(spSearchTotalArtists(search.Ptr))
	}
	return 0
}

// SearchItem implements backend.Backend.
func (b *Backend) SearchItem(search backend.Handle, kind backend.Kind, i int) backend.Handle {
	var p uintptr
	switch kind {
	case backend.KindTrack:
		p = spSearchTrack(search.Ptr, int32(i))
	case backend.KindAlbum:
		p = spSearchAlbum(search.Ptr, int32(i))
	case backend.KindArtist:
		p = spSearchArtist(search.Ptr, int32(i))
	}
	return backend.Handle{Kind: kind, Ptr: p}
}

// SearchQuery implements backend.Backend.
func (b *Backend) SearchQuery(search backend.Handle) string {
	return goString(spSearchQuery(search.Ptr))
}

// SearchDidYouMean implements backend.Backend.
func (b *Backend) SearchDidYouMean(search backend.Handle) string {
	return goString(spSearchDidYouMean(search.Ptr))
}

// BrowseSubject implements backend.Backend.
func (b *Backend) BrowseSubject(browse backend.Handle) backend.Handle {
	switch browse.Kind {
	case backend.KindAlbumBrowse:
		return backend.Handle{Kind: backend.KindAlbum, Ptr: spAlbumBrowseAlbum(browse.Ptr)}
	case backend.KindArtistBrowse:
		return backend.Handle{Kind: backend.KindArtist, Ptr: spArtistBrowseArtist(browse.Ptr)}
	}
	return backend.Handle{}
}

// BrowseNum implements backend.Backend.
func (b *Backend) BrowseNum(browse backend.Handle, kind backend.Kind) int {
	switch {
	case browse.Kind == backend.KindAlbumBrowse && kind == backend.KindTrack:
		return int(spAlbumBrowseNumTracks(browse.Ptr))
	case browse.Kind == backend.KindArtistBrowse && kind == backend.KindTrack:
		return int(spArtistBrowseNumTracks(browse.Ptr))
	case browse.Kind == backend.KindArtistBrowse && kind == backend.KindAlbum:
		return int(spArtistBrowseNumAlbums(browse.Ptr))
	}
	return 0
}

// BrowseItem implements backend.Backend.
func (b *Backend) BrowseItem(browse backend.Handle, kind backend.Kind, i int) backend.Handle {
	var p uintptr
	switch {
	case browse.Kind == backend.KindAlbumBrowse && kind == backend.KindTrack:
		p = spAlbumBrowseTrack(browse.Ptr, int32(i))
	case browse.Kind == backend.KindArtistBrowse && kind == backend.KindTrack:
		p = spArtistBrowseTrack(browse.Ptr, int32(i))
	case browse.Kind == backend.KindArtistBrowse && kind == backend.KindAlbum:
		p = spArtistBrowseAlbum(browse.Ptr, int32(i))
	}
	return backend.Handle{Kind: kind, Ptr: p}
}

// ImageData implements backend.Backend.
func (b *Backend) ImageData(image backend.Handle) []byte {
	var size uintptr
	p := spImageData(image.Ptr, &size)
	if p == nil || size == 0 {
		return nil
	}
	return append([]byte(nil), unsafe.Slice((*byte)(p), size)...)
}

// Search implements backend.Requester.
func (b *Backend) Search(query string, p backend.SearchParams, done func(backend.Handle)) error {
	searchType := int32(searchStandard)
	if p.Suggest {
		searchType = searchSuggest
	}
	if err := initCallbacks(); err != nil {
		return err
	}
	id := requests.Register(&request{kind: backend.KindSearch, done: done})
	s := spSearchCreate(b.session, query,
		int32(p.TrackOffset), int32(p.TrackCount),
		int32(p.AlbumOffset), int32(p.AlbumCount),
		int32(p.ArtistOffset), int32(p.ArtistCount),
		int32(p.PlaylistOffset), int32(p.PlaylistCount),
		searchType, searchCompleteCallbackPtr, id)
	if s == 0 {
		requests.Unregister(id)
		return fmt.Errorf("libspotify: search %q could not be created", query)
	}
	return nil
}

// BrowseAlbum implements backend.Requester.
func (b *Backend) BrowseAlbum(album backend.Handle, done func(backend.Handle)) error {
	if err := initCallbacks(); err != nil {
		return err
	}
	id := requests.Register(&request{kind: backend.KindAlbumBrowse, done: done})
	if spAlbumBrowseCreate(b.session, album.Ptr, albumBrowseCallbackPtr, id) == 0 {
		requests.Unregister(id)
		return fmt.Errorf("libspotify: browse of %s could not be created", album)
	}
	return nil
}

// BrowseArtist implements backend.Requester.
func (b *Backend) BrowseArtist(artist backend.Handle, done func(backend.Handle)) error {
	if err := initCallbacks(); err != nil {
		return err
	}
	id := requests.Register(&request{kind: backend.KindArtistBrowse, done: done})
	if spArtistBrowseCreate(b.session, artist.Ptr, artistBrowseFull, artistBrowseCallbackPtr, id) == 0 {
		requests.Unregister(id)
		return fmt.Errorf("libspotify: browse of %s could not be created", artist)
	}
	return nil
}

// WatchImage calls done once image has loaded, with a borrowed handle. An
// image that is already loaded is reported before WatchImage returns.
func (b *Backend) WatchImage(image backend.Handle, done func(backend.Handle)) error {
	if image.Kind != backend.KindImage || image.IsNil() {
		return unsupported("watch", image)
	}
	if spImageIsLoaded(image.Ptr) {
		done(image)
		return nil
	}
	if err := initCallbacks(); err != nil {
		return err
	}
	id := requests.Register(&request{kind: backend.KindImage, done: done})
	if err := newError(spImageAddLoadCb(image.Ptr, imageLoadedCallbackPtr, id), "image_add_load_callback"); err != nil {
		requests.Unregister(id)
		return err
	}
	return nil
}

// WatchPlaylist implements backend.Watcher. updated runs on the libspotify
// thread when the playlist is renamed, changes state or has its metadata
// updated.
func (b *Backend) WatchPlaylist(playlist backend.Handle, updated func(backend.Handle)) (func(), error) {
	if playlist.Kind != backend.KindPlaylist || playlist.IsNil() {
		return nil, unsupported("watch", playlist)
	}
	if err := initPlaylistCallbacks(); err != nil {
		return nil, err
	}
	id := playlistWatches.Register(&playlistWatch{updated: updated})
	table := unsafe.Pointer(&playlistCallbacks)
	if err := newError(spPlaylistAddCallbacks(playlist.Ptr, table, id), "playlist_add_callbacks"); err != nil {
		playlistWatches.Unregister(id)
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			spPlaylistRemoveCallbacks(playlist.Ptr, table, id)
			playlistWatches.Unregister(id)
		})
	}, nil
}

// Resolve implements backend.Requester.
func (b *Backend) Resolve(uri string, kind backend.Kind) (backend.Handle, error) {
	link := spLinkCreateFromString(uri)
	if link == 0 {
		return backend.Handle{}, fmt.Errorf("libspotify: %q is not a spotify link", uri)
	}
	defer spLinkRelease(link)

	h := backend.Handle{Kind: kind}
	switch kind {
	case backend.KindTrack:
		h.Ptr = spLinkAsTrack(link)
	case backend.KindAlbum:
		h.Ptr = spLinkAsAlbum(link)
	case backend.KindArtist:
		h.Ptr = spLinkAsArtist(link)
	case backend.KindPlaylist:
		// Created with a reference owned by the caller.
		h.Ptr = spPlaylistCreate(b.session, link)
		if h.Ptr == 0 {
			return backend.Handle{}, fmt.Errorf("libspotify: %q is not a playlist", uri)
		}
		return h, nil
	case backend.KindImage:
		h.Ptr = spImageCreateLink(b.session, link)
		if h.Ptr == 0 {
			return backend.Handle{}, fmt.Errorf("libspotify: %q is not an image", uri)
		}
		return h, nil
	case backend.KindLink:
		if err := newError(spLinkAddRef(link), "link_add_ref"); err != nil {
			return backend.Handle{}, err
		}
		h.Ptr = link
		return h, nil
	default:
		return backend.Handle{}, fmt.Errorf("libspotify: cannot resolve %s", kind)
	}
	if h.Ptr == 0 {
		return backend.Handle{}, fmt.Errorf("libspotify: %q is not a %s link", uri, kind)
	}
	// Objects taken from a link are borrowed from it.
	if err := b.AddRef(h); err != nil {
		return backend.Handle{}, err
	}
	return h, nil
}

// Prefetch implements backend.Requester.
func (b *Backend) Prefetch(track backend.Handle) error {
	if track.Kind != backend.KindTrack {
		return unsupported("prefetch", track)
	}
	return newError(spSessionPlayerPrefetch(b.session, track.Ptr), "session_player_prefetch")
}
