// Package media is the managed-side object model: the result objects the
// bridge populates and the listener interfaces it calls.
//
// Field tags name the fields the bridge sets through host.Env; runtimes that
// map fields by name (such as reflecthost) rely on them.
package media

import "fmt"

// Class names understood by runtimes that construct media objects.
const (
	ClassLink         = "media.Link"
	ClassTrack        = "media.Track"
	ClassAlbum        = "media.Album"
	ClassArtist       = "media.Artist"
	ClassPlaylist     = "media.Playlist"
	ClassImage        = "media.Image"
	ClassSearchResult = "media.SearchResult"
)

// Classes returns constructors for every media class, keyed by class name.
func Classes() map[string]func() any {
	return map[string]func() any{
		ClassLink:         func() any { return new(Link) },
		ClassTrack:        func() any { return new(Track) },
		ClassAlbum:        func() any { return new(Album) },
		ClassArtist:       func() any { return new(Artist) },
		ClassPlaylist:     func() any { return new(Playlist) },
		ClassImage:        func() any { return new(Image) },
		ClassSearchResult: func() any { return new(SearchResult) },
	}
}

// Link is a backend URI such as "spotify:track:...".
type Link struct {
	URI string `host:"uri"`
}

func (l *Link) String() string {
	if l == nil {
		return "<nil>"
	}
	return l.URI
}

// Track is a loaded track.
type Track struct {
	ID     *Link  `host:"id"`
	Title  string `host:"title"`
	Loaded bool   `host:"loaded"`
}

// Album is an album, optionally populated from a browse.
type Album struct {
	ID     *Link   `host:"id"`
	Name   string  `host:"name"`
	Tracks []*Link `host:"tracks"`
	Loaded bool    `host:"loaded"`
}

// Artist is an artist, optionally populated from a browse.
type Artist struct {
	ID     *Link   `host:"id"`
	Name   string  `host:"name"`
	Albums []*Link `host:"albums"`
	Tracks []*Link `host:"tracks"`
	Loaded bool    `host:"loaded"`
}

// Playlist is a playlist's identity.
type Playlist struct {
	ID     *Link  `host:"id"`
	Name   string `host:"name"`
	Loaded bool   `host:"loaded"`
}

// ImageSize mirrors backend.ImageSize on the managed side.
type ImageSize int32

const (
	ImageSizeNormal ImageSize = 0
	ImageSizeSmall  ImageSize = 1
	ImageSizeLarge  ImageSize = 2
)

func (s ImageSize) String() string {
	switch s {
	case ImageSizeNormal:
		return "normal"
	case ImageSizeSmall:
		return "small"
	case ImageSizeLarge:
		return "large"
	}
	return fmt.Sprintf("ImageSize(%d)", int32(s))
}

// Image is an encoded cover or portrait image.
type Image struct {
	ID     *Link     `host:"id"`
	Size   ImageSize `host:"size"`
	Bytes  []byte    `host:"bytes"`
	Loaded bool      `host:"loaded"`
}

// SearchResult is one page of a search. Offsets equal the number of results
// returned in this page; totals are what exists upstream.
type SearchResult struct {
	Query      string `host:"query"`
	DidYouMean string `host:"didYouMean"`

	TracksFound    []*Link `host:"tracksFound"`
	TotalNumTracks int32   `host:"totalNumTracks"`
	TrackOffset    int32   `host:"trackOffset"`

	AlbumsFound    []*Link `host:"albumsFound"`
	TotalNumAlbums int32   `host:"totalNumAlbums"`
	AlbumOffset    int32   `host:"albumOffset"`

	ArtistsFound    []*Link `host:"artistsFound"`
	TotalNumArtists int32   `host:"totalNumArtists"`
	ArtistOffset    int32   `host:"artistOffset"`
}
