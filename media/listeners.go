package media

// ConnectionListener receives session state changes.
type ConnectionListener interface {
	Connected()
	LoggedIn()
	Disconnected()
	LoggedOut()
}

// PlaybackListener receives player events.
type PlaybackListener interface {
	TrackStarted(uri string)
	TrackEnded(uri string, forced bool)
	PlayTokenLost()
	// NextTrackToPreload returns the URI to prefetch, or "" for none.
	NextTrackToPreload() string
}

// SearchListener receives search completions. token is the value passed
// when the search was issued.
type SearchListener interface {
	SearchCompleted(token int32, result *SearchResult)
}

// MediaLoadedListener receives media that finished loading.
type MediaLoadedListener interface {
	Track(token int32, link *Link)
	Album(token int32, album *Album)
	Artist(token int32, artist *Artist)
	Playlist(token int32, link *Link, name string)
	Image(token int32, link *Link, size ImageSize, data []byte)
}

// BaseConnectionListener implements ConnectionListener with no-ops, for
// embedding.
type BaseConnectionListener struct{}

func (BaseConnectionListener) Connected()    {}
func (BaseConnectionListener) LoggedIn()     {}
func (BaseConnectionListener) Disconnected() {}
func (BaseConnectionListener) LoggedOut()    {}

// BasePlaybackListener implements PlaybackListener with no-ops, for
// embedding.
type BasePlaybackListener struct{}

func (BasePlaybackListener) TrackStarted(string)        {}
func (BasePlaybackListener) TrackEnded(string, bool)    {}
func (BasePlaybackListener) PlayTokenLost()             {}
func (BasePlaybackListener) NextTrackToPreload() string { return "" }
