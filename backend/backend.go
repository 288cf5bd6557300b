// Package backend describes the native streaming library as the bridge sees
// it: opaque reference-counted handles and the synchronous queries and
// asynchronous requests that can be made on them.
//
// Nothing in this package owns backend memory. A Handle is only a token that
// must be acquired (AddRef) before it is retained past the callback that
// delivered it, and released exactly once afterwards.
package backend

import "fmt"

// Kind tags a Handle with the resource type it refers to.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindTrack
	KindAlbum
	KindArtist
	KindImage
	KindPlaylist
	KindSearch
	KindAlbumBrowse
	KindArtistBrowse
	KindLink
)

var kindNames = [...]string{
	KindUnknown:      "unknown",
	KindTrack:        "track",
	KindAlbum:        "album",
	KindArtist:       "artist",
	KindImage:        "image",
	KindPlaylist:     "playlist",
	KindSearch:       "search",
	KindAlbumBrowse:  "albumbrowse",
	KindArtistBrowse: "artistbrowse",
	KindLink:         "link",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Handle is an opaque native resource. Ptr is the backend's pointer value and
// is never dereferenced on the Go side.
type Handle struct {
	Kind Kind
	Ptr  uintptr
}

// IsNil reports whether h refers to nothing.
func (h Handle) IsNil() bool { return h.Ptr == 0 }

func (h Handle) String() string {
	return fmt.Sprintf("%s@%#x", h.Kind, h.Ptr)
}

// ImageSize selects one of the backend's cover image sizes.
type ImageSize int32

const (
	ImageSizeNormal ImageSize = 0
	ImageSizeSmall  ImageSize = 1
	ImageSizeLarge  ImageSize = 2
)

// Backend is the synchronous surface of the native library.
//
// Every method may be called from the backend's callback thread or from the
// poller; implementations must be safe for that. Predicates must be
// idempotent: repeated calls return the same answer until the backend's own
// state changes.
type Backend interface {
	// AddRef takes an additional reference on h.
	AddRef(h Handle) error
	// Release drops one reference on h.
	Release(h Handle) error
	// IsLoaded reports whether h is fully populated.
	IsLoaded(h Handle) bool

	// CreateLink derives a link for a track, album, artist, playlist or
	// image. The returned link carries one reference owned by the caller.
	CreateLink(h Handle) (Handle, error)
	// LinkString renders a link as a URI.
	LinkString(link Handle) string
	// Name returns the display name of a track, album, artist or playlist.
	Name(h Handle) string

	// SearchNum returns how many results of kind are available in this page.
	SearchNum(search Handle, kind Kind) int
	// SearchTotal returns how many results of kind exist upstream.
	SearchTotal(search Handle, kind Kind) int
	// SearchItem returns a borrowed handle to result i of kind.
	SearchItem(search Handle, kind Kind, i int) Handle
	SearchQuery(search Handle) string
	SearchDidYouMean(search Handle) string

	// BrowseSubject returns the borrowed album of an album browse or the
	// borrowed artist of an artist browse.
	BrowseSubject(browse Handle) Handle
	// BrowseNum returns how many items of kind a browse result holds.
	BrowseNum(browse Handle, kind Kind) int
	// BrowseItem returns a borrowed handle to item i of kind.
	BrowseItem(browse Handle, kind Kind, i int) Handle

	// ImageData returns a copy of a loaded image's encoded bytes.
	ImageData(image Handle) []byte
}

// SearchParams pages a search request.
type SearchParams struct {
	TrackOffset, TrackCount       int
	AlbumOffset, AlbumCount       int
	ArtistOffset, ArtistCount     int
	PlaylistOffset, PlaylistCount int
	// Suggest asks for the backend's suggestion mode instead of a standard search.
	Suggest bool
}

// DefaultSearchCount is the per-kind page size used when a count is zero.
const DefaultSearchCount = 255

// Normalize fills zero counts with DefaultSearchCount.
func (p SearchParams) Normalize() SearchParams {
	for _, c := range []*int{&p.TrackCount, &p.AlbumCount, &p.ArtistCount, &p.PlaylistCount} {
		if *c <= 0 {
			*c = DefaultSearchCount
		}
	}
	return p
}

// Requester issues asynchronous requests. Each done callback receives a
// handle borrowed for the duration of the call; the requester keeps the
// creation reference and releases it after done returns.
type Requester interface {
	Search(query string, params SearchParams, done func(search Handle)) error
	BrowseAlbum(album Handle, done func(browse Handle)) error
	BrowseArtist(artist Handle, done func(browse Handle)) error
	// Resolve turns a URI into a handle of the given kind carrying one
	// reference owned by the caller.
	Resolve(uri string, kind Kind) (Handle, error)
	// Prefetch asks the player to start buffering track.
	Prefetch(track Handle) error
}

// Watcher reports events on individual handles. Callbacks receive a handle
// borrowed for the duration of the call.
type Watcher interface {
	// WatchImage calls done once image has loaded. It may call done before
	// returning when the image is already loaded. done is never called
	// when an error is returned.
	WatchImage(image Handle, done func(image Handle)) error
	// WatchPlaylist calls updated each time playlist changes, until stop
	// is called.
	WatchPlaylist(playlist Handle, updated func(playlist Handle)) (stop func(), err error)
}
