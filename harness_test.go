package spgo

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/spgo/backend/backendtest"
	"github.com/obinnaokechukwu/spgo/host/reflecthost"
	"github.com/obinnaokechukwu/spgo/media"
)

type imageEvent struct {
	link *media.Link
	size media.ImageSize
	data []byte
}

type playlistEvent struct {
	link *media.Link
	name string
}

// recorder implements every listener interface and records what it got.
type recorder struct {
	mu        sync.Mutex
	events    []string
	searches  map[int32]*media.SearchResult
	tracks    map[int32]*media.Link
	albums    map[int32]*media.Album
	artists   map[int32]*media.Artist
	playlists map[int32]playlistEvent
	images    map[int32]imageEvent
	order     []int32
	next      string
}

func newRecorder() *recorder {
	return &recorder{
		searches:  make(map[int32]*media.SearchResult),
		tracks:    make(map[int32]*media.Link),
		albums:    make(map[int32]*media.Album),
		artists:   make(map[int32]*media.Artist),
		playlists: make(map[int32]playlistEvent),
		images:    make(map[int32]imageEvent),
	}
}

var (
	_ media.ConnectionListener  = (*recorder)(nil)
	_ media.PlaybackListener    = (*recorder)(nil)
	_ media.SearchListener      = (*recorder)(nil)
	_ media.MediaLoadedListener = (*recorder)(nil)
)

func (r *recorder) add(ev string) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) Connected()    { r.add("connected") }
func (r *recorder) LoggedIn()     { r.add("loggedIn") }
func (r *recorder) Disconnected() { r.add("disconnected") }
func (r *recorder) LoggedOut()    { r.add("loggedOut") }

func (r *recorder) TrackStarted(uri string) { r.add("trackStarted " + uri) }

func (r *recorder) TrackEnded(uri string, forced bool) {
	if forced {
		r.add("trackEnded! " + uri)
		return
	}
	r.add("trackEnded " + uri)
}

func (r *recorder) PlayTokenLost() { r.add("playTokenLost") }

func (r *recorder) NextTrackToPreload() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next
}

func (r *recorder) SearchCompleted(token int32, result *media.SearchResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "search")
	r.searches[token] = result
	r.order = append(r.order, token)
}

func (r *recorder) Track(token int32, link *media.Link) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "track")
	r.tracks[token] = link
	r.order = append(r.order, token)
}

func (r *recorder) Album(token int32, album *media.Album) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "album")
	r.albums[token] = album
	r.order = append(r.order, token)
}

func (r *recorder) Artist(token int32, artist *media.Artist) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "artist")
	r.artists[token] = artist
	r.order = append(r.order, token)
}

func (r *recorder) Playlist(token int32, link *media.Link, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "playlist")
	r.playlists[token] = playlistEvent{link: link, name: name}
	r.order = append(r.order, token)
}

func (r *recorder) Image(token int32, link *media.Link, size media.ImageSize, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "image")
	r.images[token] = imageEvent{link: link, size: size, data: data}
	r.order = append(r.order, token)
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) Count(ev string) int {
	n := 0
	for _, e := range r.Events() {
		if e == ev {
			n++
		}
	}
	return n
}

func (r *recorder) Order() []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int32(nil), r.order...)
}

// failingListener raises from every search completion.
type failingListener struct{ calls atomic.Int32 }

func (f *failingListener) SearchCompleted(token int32, result *media.SearchResult) error {
	f.calls.Add(1)
	return errors.New("listener rejected result")
}

// panickingListener panics from every media event it implements.
type panickingListener struct{}

func (panickingListener) Track(token int32, link *media.Link) { panic("listener bug") }

// silentListener implements nothing.
type silentListener struct{}

type harness struct {
	fake *backendtest.Fake
	rt   *reflecthost.Runtime
	b    *Bridge
	rec  *recorder

	failAttach atomic.Bool
	// onAttach runs inside every attach, before it can fail.
	onAttach  atomic.Pointer[func()]
	listeners int
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{fake: backendtest.New(), rec: newRecorder()}
	h.rt = reflecthost.New(
		reflecthost.WithClasses(media.Classes()),
		reflecthost.WithAttachHook(func() error {
			if f := h.onAttach.Load(); f != nil {
				(*f)()
			}
			if h.failAttach.Load() {
				return errors.New("runtime unavailable")
			}
			return nil
		}),
	)
	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	b, err := New(h.fake, h.rt, opts...)
	require.NoError(t, err)
	h.b = b
	return h
}

// listen registers l for each category, or the recorder when l is nil.
func (h *harness) listen(t *testing.T, l any, cats ...Category) {
	t.Helper()
	if l == nil {
		l = h.rec
	}
	ref := h.rt.Pin(l)
	defer func() { require.NoError(t, h.rt.Unpin(ref)) }()
	for _, c := range cats {
		require.NoError(t, h.b.SetListener(c, ref))
		h.listeners++
	}
}

func (h *harness) listenAll(t *testing.T) {
	h.listen(t, nil, CategoryConnection, CategoryPlayback, CategorySearch, CategoryMediaLoaded)
}

// assertBalanced checks that every reference the bridge took has been
// given back.
func (h *harness) assertBalanced(t *testing.T) {
	t.Helper()
	assert.Zero(t, h.fake.Outstanding(), "native references still held")
	assert.Zero(t, h.fake.OverReleases(), "native references released twice")
	assert.Equal(t, h.listeners, h.rt.GlobalRefs(), "global references besides listeners")
	assert.Zero(t, h.rt.LocalRefs(), "local references left")
	assert.Zero(t, h.rt.Attached(), "threads left attached")
}
