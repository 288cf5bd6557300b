//go:build !ios && !android && (amd64 || arm64)

// Package libspotify binds the libspotify shared library with purego and
// exposes it as a backend.Backend, backend.Requester and backend.Watcher.
//
// Session creation and audio delivery stay with the embedder. The package
// supplies the callback table the embedder hands to sp_session_create (see
// SessionCallbacks) and routes those callbacks, together with search,
// browse and image completions and playlist updates, to a spgo.Bridge.
package libspotify

import (
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/obinnaokechukwu/spgo/internal/bindings"
)

// Function bindings
var (
	spErrorMessage func(code int32) unsafe.Pointer

	spTrackAddRef      func(track uintptr) int32
	spTrackRelease     func(track uintptr) int32
	spTrackIsLoaded    func(track uintptr) bool
	spTrackName        func(track uintptr) unsafe.Pointer
	spAlbumAddRef      func(album uintptr) int32
	spAlbumRelease     func(album uintptr) int32
	spAlbumIsLoaded    func(album uintptr) bool
	spAlbumName        func(album uintptr) unsafe.Pointer
	spArtistAddRef     func(artist uintptr) int32
	spArtistRelease    func(artist uintptr) int32
	spArtistIsLoaded   func(artist uintptr) bool
	spArtistName       func(artist uintptr) unsafe.Pointer
	spPlaylistAddRef   func(playlist uintptr) int32
	spPlaylistRelease  func(playlist uintptr) int32
	spPlaylistIsLoaded func(playlist uintptr) bool
	spPlaylistName     func(playlist uintptr) unsafe.Pointer
	spPlaylistCreate   func(session, link uintptr) uintptr

	spPlaylistAddCallbacks    func(playlist uintptr, callbacks unsafe.Pointer, userdata uintptr) int32
	spPlaylistRemoveCallbacks func(playlist uintptr, callbacks unsafe.Pointer, userdata uintptr) int32

	spImageAddRef       func(image uintptr) int32
	spImageRelease      func(image uintptr) int32
	spImageIsLoaded     func(image uintptr) bool
	spImageData         func(image uintptr, size *uintptr) unsafe.Pointer
	spImageCreateLink   func(session, link uintptr) uintptr
	spImageAddLoadCb    func(image, cb, userdata uintptr) int32
	spImageRemoveLoadCb func(image, cb, userdata uintptr) int32

	spSearchCreate       func(session uintptr, query string, trackOffset, trackCount, albumOffset, albumCount, artistOffset, artistCount, playlistOffset, playlistCount, searchType int32, cb, userdata uintptr) uintptr
	spSearchAddRef       func(search uintptr) int32
	spSearchRelease      func(search uintptr) int32
	spSearchIsLoaded     func(search uintptr) bool
	spSearchQuery        func(search uintptr) unsafe.Pointer
	spSearchDidYouMean   func(search uintptr) unsafe.Pointer
	spSearchNumTracks    func(search uintptr) int32
	spSearchNumAlbums    func(search uintptr) int32
	spSearchNumArtists   func(search uintptr) int32
	spSearchTotalTracks  func(search uintptr) int32
	spSearchTotalAlbums  func(search uintptr) int32
	spSearchTotalArtists func(search uintptr) int32
	spSearchTrack        func(search uintptr, index int32) uintptr
	spSearchAlbum        func(search uintptr, index int32) uintptr
	spSearchArtist       func(search uintptr, index int32) uintptr

	spAlbumBrowseCreate    func(session, album, cb, userdata uintptr) uintptr
	spAlbumBrowseAddRef    func(browse uintptr) int32
	spAlbumBrowseRelease   func(browse uintptr) int32
	spAlbumBrowseIsLoaded  func(browse uintptr) bool
	spAlbumBrowseAlbum     func(browse uintptr) uintptr
	spAlbumBrowseNumTracks func(browse uintptr) int32
	spAlbumBrowseTrack     func(browse uintptr, index int32) uintptr

	spArtistBrowseCreate    func(session, artist uintptr, browseType int32, cb, userdata uintptr) uintptr
	spArtistBrowseAddRef    func(browse uintptr) int32
	spArtistBrowseRelease   func(browse uintptr) int32
	spArtistBrowseIsLoaded  func(browse uintptr) bool
	spArtistBrowseArtist    func(browse uintptr) uintptr
	spArtistBrowseNumTracks func(browse uintptr) int32
	spArtistBrowseTrack     func(browse uintptr, index int32) uintptr
	spArtistBrowseNumAlbums func(browse uintptr) int32
	spArtistBrowseAlbum     func(browse uintptr, index int32) uintptr

	spLinkCreateFromString   func(uri string) uintptr
	spLinkCreateFromTrack    func(track uintptr, offset int32) uintptr
	spLinkCreateFromAlbum    func(album uintptr) uintptr
	spLinkCreateFromArtist   func(artist uintptr) uintptr
	spLinkCreateFromPlaylist func(playlist uintptr) uintptr
	spLinkCreateFromImage    func(image uintptr) uintptr
	spLinkAsString           func(link uintptr, buf *byte, size int32) int32
	spLinkAsTrack            func(link uintptr) uintptr
	spLinkAsAlbum            func(link uintptr) uintptr
	spLinkAsArtist           func(link uintptr) uintptr
	spLinkAddRef             func(link uintptr) int32
	spLinkRelease            func(link uintptr) int32

	spSessionUserdata        func(session uintptr) uintptr
	spSessionConnectionState func(session uintptr) int32
	spSessionPlayerPrefetch  func(session, track uintptr) int32

	bindingsRegistered bool
)

// Load opens libspotify, looking in dir first when it is not empty, and
// registers the functions this package calls. Only the first call searches;
// later calls return its result.
func Load(dir string) error {
	if dir != "" {
		bindings.SetLibraryDir(dir)
	}
	if err := bindings.Load(); err != nil {
		return err
	}
	registerBindings()
	return nil
}

// IsLoaded reports whether the library is open and bound.
func IsLoaded() bool {
	return bindingsRegistered
}

// BuildID returns the library's build identifier.
func BuildID() string {
	return bindings.BuildID()
}

func registerBindings() {
	if bindingsRegistered {
		return
	}
	if err := bindings.Load(); err != nil {
		return
	}
	lib := bindings.LibSpotify()
	if lib == 0 {
		return
	}

	purego.RegisterLibFunc(&spErrorMessage, lib, "sp_error_message")

	purego.RegisterLibFunc(&spTrackAddRef, lib, "sp_track_add_ref")
	purego.RegisterLibFunc(&spTrackRelease, lib, "sp_track_release")
	purego.RegisterLibFunc(&spTrackIsLoaded, lib, "sp_track_is_loaded")
	purego.RegisterLibFunc(&spTrackName, lib, "sp_track_name")
	purego.RegisterLibFunc(&spAlbumAddRef, lib, "sp_album_add_ref")
	purego.RegisterLibFunc(&spAlbumRelease, lib, "sp_album_release")
	purego.RegisterLibFunc(&spAlbumIsLoaded, lib, "sp_album_is_loaded")
	purego.RegisterLibFunc(&spAlbumName, lib, "sp_album_name")
	purego.RegisterLibFunc(&spArtistAddRef, lib, "sp_artist_add_ref")
	purego.RegisterLibFunc(&spArtistRelease, lib, "sp_artist_release")
	purego.RegisterLibFunc(&spArtistIsLoaded, lib, "sp_artist_is_loaded")
	purego.RegisterLibFunc(&spArtistName, lib, "sp_artist_name")
	purego.RegisterLibFunc(&spPlaylistAddRef, lib, "sp_playlist_add_ref")
	purego.RegisterLibFunc(&spPlaylistRelease, lib, "sp_playlist_release")
	purego.RegisterLibFunc(&spPlaylistIsLoaded, lib, "sp_playlist_is_loaded")
	purego.RegisterLibFunc(&spPlaylistName, lib, "sp_playlist_name")
	purego.RegisterLibFunc(&spPlaylistCreate, lib, "sp_playlist_create")
	purego.RegisterLibFunc(&spPlaylistAddCallbacks, lib, "sp_playlist_add_callbacks")
	purego.RegisterLibFunc(&spPlaylistRemoveCallbacks, lib, "sp_playlist_remove_callbacks")
	purego.RegisterLibFunc(&spImageAddRef, lib, "sp_image_add_ref")
	purego.RegisterLibFunc(&spImageRelease, lib, "sp_image_release")
	purego.RegisterLibFunc(&spImageIsLoaded, lib, "sp_image_is_loaded")
	purego.RegisterLibFunc(&spImageData, lib, "sp_image_data")
	purego.RegisterLibFunc(&spImageCreateLink, lib, "sp_image_create_from_link")
	purego.RegisterLibFunc(&spImageAddLoadCb, lib, "sp_image_add_load_callback")
	purego.RegisterLibFunc(&spImageRemoveLoadCb, lib, "sp_image_remove_load_callback")

	purego.RegisterLibFunc(&spSearchCreate, lib, "sp_search_create")
	purego.RegisterLibFunc(&spSearchAddRef, lib, "sp_search_add_ref")
	purego.RegisterLibFunc(&spSearchRelease, lib, "sp_search_release")
	purego.RegisterLibFunc(&spSearchIsLoaded, lib, "sp_search_is_loaded")
	purego.RegisterLibFunc(&spSearchQuery, lib, "sp_search_query")
	purego.RegisterLibFunc(&spSearchDidYouMean, lib, "sp_search_did_you_mean")
	purego.RegisterLibFunc(&spSearchNumTracks, lib, "sp_search_num_tracks")
	purego.RegisterLibFunc(&spSearchNumAlbums, lib, "sp_search_num_albums")
	purego.RegisterLibFunc(&spSearchNumArtists, lib, "sp_search_num_artists")
	purego.RegisterLibFunc(&spSearchTotalTracks, lib, "sp_search_total_tracks")
	purego.RegisterLibFunc(&spSearchTotalAlbums, lib, "sp_search_total_albums")
	purego.RegisterLibFunc(&spSearchTotalArtists, lib, "sp_search_total_artists")
	purego.RegisterLibFunc(&spSearchTrack, lib, "sp_search_track")
	purego.RegisterLibFunc(&spSearchAlbum, lib, "sp_search_album")
	purego.RegisterLibFunc(&spSearchArtist, lib, "sp_search_artist")

	purego.RegisterLibFunc(&spAlbumBrowseCreate, lib, "sp_albumbrowse_create")
	purego.RegisterLibFunc(&spAlbumBrowseAddRef, lib, "sp_albumbrowse_add_ref")
	purego.RegisterLibFunc(&spAlbumBrowseRelease, lib, "sp_albumbrowse_release")
	purego.RegisterLibFunc(&spAlbumBrowseIsLoaded, lib, "sp_albumbrowse_is_loaded")
	purego.RegisterLibFunc(&spAlbumBrowseAlbum, lib, "sp_albumbrowse_album")
	purego.RegisterLibFunc(&spAlbumBrowseNumTracks, lib, "sp_albumbrowse_num_tracks")
	purego.RegisterLibFunc(&spAlbumBrowseTrack, lib, "sp_albumbrowse_track")

	purego.RegisterLibFunc(&spArtistBrowseCreate, lib, "sp_artistbrowse_create")
	purego.RegisterLibFunc(&spArtistBrowseAddRef, lib, "sp_artistbrowse_add_ref")
	purego.RegisterLibFunc(&spArtistBrowseRelease, lib, "sp_artistbrowse_release")
	purego.RegisterLibFunc(&spArtistBrowseIsLoaded, lib, "sp_artistbrowse_is_loaded")
	purego.RegisterLibFunc(&spArtistBrowseArtist, lib, "sp_artistbrowse_artist")
	purego.RegisterLibFunc(&spArtistBrowseNumTracks, lib, "sp_artistbrowse_num_tracks")
	purego.RegisterLibFunc(&spArtistBrowseTrack, lib, "sp_artistbrowse_track")
	purego.RegisterLibFunc(&spArtistBrowseNumAlbums, lib, "sp_artistbrowse_num_albums")
	purego.RegisterLibFunc(&spArtistBrowseAlbum, lib, "sp_artistbrowse_album")

	purego.RegisterLibFunc(&spLinkCreateFromString, lib, "sp_link_create_from_string")
	purego.RegisterLibFunc(&spLinkCreateFromTrack, lib, "sp_link_create_from_track")
	purego.RegisterLibFunc(&spLinkCreateFromAlbum, lib, "sp_link_create_from_album")
	purego.RegisterLibFunc(&spLinkCreateFromArtist, lib, "sp_link_create_from_artist")
	purego.RegisterLibFunc(&spLinkCreateFromPlaylist, lib, "sp_link_create_from_playlist")
	purego.RegisterLibFunc(&spLinkCreateFromImage, lib, "sp_link_create_from_image")
	purego.RegisterLibFunc(&spLinkAsString, lib, "sp_link_as_string")
	purego.RegisterLibFunc(&spLinkAsTrack, lib, "sp_link_as_track")
	purego.RegisterLibFunc(&spLinkAsAlbum, lib, "sp_link_as_album")
	purego.RegisterLibFunc(&spLinkAsArtist, lib, "sp_link_as_artist")
	purego.RegisterLibFunc(&spLinkAddRef, lib, "sp_link_add_ref")
	purego.RegisterLibFunc(&spLinkRelease, lib, "sp_link_release")

	purego.RegisterLibFunc(&spSessionUserdata, lib, "sp_session_userdata")
	purego.RegisterLibFunc(&spSessionConnectionState, lib, "sp_session_connectionstate")
	purego.RegisterLibFunc(&spSessionPlayerPrefetch, lib, "sp_session_player_prefetch")

	bindingsRegistered = true
}

// goString copies a NUL-terminated C string.
func goString(ptr unsafe.Pointer) string {
	if ptr == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(ptr, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(ptr), n))
}
