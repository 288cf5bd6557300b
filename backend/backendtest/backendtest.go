// Package backendtest provides an in-memory backend.Backend,
// backend.Requester and backend.Watcher for tests.
//
// The fake tracks, per handle, how many references the caller currently owns
// (explicit AddRef, links from CreateLink, handles from Resolve) and flags any
// Release that would drop below zero. Outstanding and OverReleases are the
// two numbers a lifetime test asserts on.
package backendtest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/obinnaokechukwu/spgo/backend"
)

// ErrInjected is returned by operations a test asked to fail.
var ErrInjected = errors.New("backendtest: injected failure")

type object struct {
	kind   backend.Kind
	uri    string
	name   string
	loaded bool

	owned    int
	acquires int
	releases int

	items      map[backend.Kind][]uintptr
	totals     map[backend.Kind]int
	query      string
	didYouMean string
	subject    uintptr
	data       []byte

	failAddRef bool
}

type request struct {
	result backend.Handle
	done   func(backend.Handle)
}

// Fake is a thread-safe fake backend.
type Fake struct {
	mu           sync.Mutex
	objects      map[uintptr]*object
	next         uintptr
	overReleases int

	searches      map[string]backend.Handle
	browses       map[uintptr]backend.Handle
	requests      []request
	failRequests  bool
	failResolve   bool
	prefetched    []string
	searchHistory []backend.SearchParams

	imageWatches    map[uintptr][]func(backend.Handle)
	playlistWatches map[uintptr]map[int]func(backend.Handle)
	watchIDs        int
}

var (
	_ backend.Backend   = (*Fake)(nil)
	_ backend.Requester = (*Fake)(nil)
	_ backend.Watcher   = (*Fake)(nil)
)

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		objects:  make(map[uintptr]*object),
		next:     0x1000,
		searches: make(map[string]backend.Handle),
		browses:  make(map[uintptr]backend.Handle),

		imageWatches:    make(map[uintptr][]func(backend.Handle)),
		playlistWatches: make(map[uintptr]map[int]func(backend.Handle)),
	}
}

func (f *Fake) add(o *object) backend.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next += 0x10
	f.objects[f.next] = o
	return backend.Handle{Kind: o.kind, Ptr: f.next}
}

func (f *Fake) obj(h backend.Handle) *object {
	return f.objects[h.Ptr]
}

// NewTrack creates a loaded track.
func (f *Fake) NewTrack(uri, name string) backend.Handle {
	return f.add(&object{kind: backend.KindTrack, uri: uri, name: name, loaded: true})
}

// NewAlbum creates a loaded album.
func (f *Fake) NewAlbum(uri, name string) backend.Handle {
	return f.add(&object{kind: backend.KindAlbum, uri: uri, name: name, loaded: true})
}

// NewArtist creates a loaded artist.
func (f *Fake) NewArtist(uri, name string) backend.Handle {
	return f.add(&object{kind: backend.KindArtist, uri: uri, name: name, loaded: true})
}

// NewPlaylist creates a loaded playlist.
func (f *Fake) NewPlaylist(uri, name string) backend.Handle {
	return f.add(&object{kind: backend.KindPlaylist, uri: uri, name: name, loaded: true})
}

// NewImage creates a loaded image holding data.
func (f *Fake) NewImage(uri string, data []byte) backend.Handle {
	return f.add(&object{kind: backend.KindImage, uri: uri, loaded: true, data: append([]byte(nil), data...)})
}

// NewSearch creates a loaded, empty search result.
func (f *Fake) NewSearch(query, didYouMean string) backend.Handle {
	return f.add(&object{
		kind:       backend.KindSearch,
		loaded:     true,
		query:      query,
		didYouMean: didYouMean,
		items:      make(map[backend.Kind][]uintptr),
		totals:     make(map[backend.Kind]int),
	})
}

// NewAlbumBrowse creates a loaded browse of album holding items.
func (f *Fake) NewAlbumBrowse(album backend.Handle, items ...backend.Handle) backend.Handle {
	return f.newBrowse(backend.KindAlbumBrowse, album, items)
}

// NewArtistBrowse creates a loaded browse of artist holding items.
func (f *Fake) NewArtistBrowse(artist backend.Handle, items ...backend.Handle) backend.Handle {
	return f.newBrowse(backend.KindArtistBrowse, artist, items)
}

func (f *Fake) newBrowse(kind backend.Kind, subject backend.Handle, items []backend.Handle) backend.Handle {
	o := &object{kind: kind, loaded: true, subject: subject.Ptr, items: make(map[backend.Kind][]uintptr)}
	for _, it := range items {
		o.items[it.Kind] = append(o.items[it.Kind], it.Ptr)
	}
	return f.add(o)
}

// AddResult appends item to a search result and bumps its upstream total.
func (f *Fake) AddResult(search, item backend.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.obj(search)
	o.items[item.Kind] = append(o.items[item.Kind], item.Ptr)
	if o.totals[item.Kind] < len(o.items[item.Kind]) {
		o.totals[item.Kind] = len(o.items[item.Kind])
	}
}

// SetTotal overrides the upstream total of kind for a search.
func (f *Fake) SetTotal(search backend.Handle, kind backend.Kind, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.obj(search).totals[kind] = n
}

// SetLoaded flips the loaded predicate of h. Loading an image fires the
// WatchImage callbacks waiting on it.
func (f *Fake) SetLoaded(h backend.Handle, loaded bool) {
	f.mu.Lock()
	f.obj(h).loaded = loaded
	var fire []func(backend.Handle)
	if loaded {
		fire = f.imageWatches[h.Ptr]
		delete(f.imageWatches, h.Ptr)
	}
	f.mu.Unlock()

	for _, done := range fire {
		done(h)
	}
}

// FailAddRef makes AddRef on h fail.
func (f *Fake) FailAddRef(h backend.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.obj(h).failAddRef = true
}

// FailRequests makes every request method fail.
func (f *Fake) FailRequests(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failRequests = fail
}

// FailResolve makes Resolve fail.
func (f *Fake) FailResolve(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failResolve = fail
}

// SetSearchResult makes a Search for query complete with result.
func (f *Fake) SetSearchResult(query string, result backend.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches[query] = result
}

// SetBrowseResult makes a browse of subject complete with browse.
func (f *Fake) SetBrowseResult(subject, browse backend.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.browses[subject.Ptr] = browse
}

// Outstanding returns the number of caller-owned references still held
// across all handles.
func (f *Fake) Outstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, o := range f.objects {
		n += o.owned
	}
	return n
}

// Owned returns the caller-owned references currently held on h.
func (f *Fake) Owned(h backend.Handle) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.obj(h).owned
}

// Acquires returns how many times AddRef succeeded on h.
func (f *Fake) Acquires(h backend.Handle) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.obj(h).acquires
}

// Releases returns how many times Release succeeded on h.
func (f *Fake) Releases(h backend.Handle) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.obj(h).releases
}

// OverReleases counts Release calls on handles the caller did not own.
func (f *Fake) OverReleases() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overReleases
}

// Prefetched returns the URIs passed to Prefetch, in order.
func (f *Fake) Prefetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prefetched...)
}

// SearchHistory returns the params of every Search request, in order.
func (f *Fake) SearchHistory() []backend.SearchParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backend.SearchParams(nil), f.searchHistory...)
}

// AddRef implements backend.Backend.
func (f *Fake) AddRef(h backend.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.obj(h)
	if o == nil {
		return fmt.Errorf("backendtest: unknown handle %s", h)
	}
	if o.failAddRef {
		return ErrInjected
	}
	o.owned++
	o.acquires++
	return nil
}

// Release implements backend.Backend.
func (f *Fake) Release(h backend.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.obj(h)
	if o == nil {
		return fmt.Errorf("backendtest: unknown handle %s", h)
	}
	if o.owned == 0 {
		f.overReleases++
		return fmt.Errorf("backendtest: release of unowned handle %s", h)
	}
	o.owned--
	o.releases++
	return nil
}

// IsLoaded implements backend.Backend.
func (f *Fake) IsLoaded(h backend.Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.obj(h)
	return o != nil && o.loaded
}

// CreateLink implements backend.Backend.
func (f *Fake) CreateLink(h backend.Handle) (backend.Handle, error) {
	f.mu.Lock()
	o := f.obj(h)
	if o == nil || o.uri == "" {
		f.mu.Unlock()
		return backend.Handle{}, fmt.Errorf("backendtest: no link for %s", h)
	}
	uri := o.uri
	f.mu.Unlock()

	link := f.add(&object{kind: backend.KindLink, uri: uri, loaded: true})
	f.mu.Lock()
	f.obj(link).owned = 1
	f.mu.Unlock()
	return link, nil
}

// LinkString implements backend.Backend.
func (f *Fake) LinkString(link backend.Handle) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o := f.obj(link); o != nil {
		return o.uri
	}
	return ""
}

// Name implements backend.Backend.
func (f *Fake) Name(h backend.Handle) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o := f.obj(h); o != nil {
		return o.name
	}
	return ""
}

// SearchNum implements backend.Backend.
func (f *Fake) SearchNum(search backend.Handle, kind backend.Kind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.obj(search).items[kind])
}

// SearchTotal implements backend.Backend.
func (f *Fake) SearchTotal(search backend.Handle, kind backend.Kind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.obj(search).totals[kind]
}

// SearchItem implements backend.Backend.
func (f *Fake) SearchItem(search backend.Handle, kind backend.Kind, i int) backend.Handle {
	return f.item(search, kind, i)
}

// SearchQuery implements backend.Backend.
func (f *Fake) SearchQuery(search backend.Handle) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.obj(search).query
}

// SearchDidYouMean implements backend.Backend.
func (f *Fake) SearchDidYouMean(search backend.Handle) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.obj(search).didYouMean
}

// BrowseSubject implements backend.Backend.
func (f *Fake) BrowseSubject(browse backend.Handle) backend.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.obj(browse)
	if o == nil || o.subject == 0 {
		return backend.Handle{}
	}
	return backend.Handle{Kind: f.objects[o.subject].kind, Ptr: o.subject}
}

// BrowseNum implements backend.Backend.
func (f *Fake) BrowseNum(browse backend.Handle, kind backend.Kind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.obj(browse).items[kind])
}

// BrowseItem implements backend.Backend.
func (f *Fake) BrowseItem(browse backend.Handle, kind backend.Kind, i int) backend.Handle {
	return f.item(browse, kind, i)
}

func (f *Fake) item(parent backend.Handle, kind backend.Kind, i int) backend.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.obj(parent).items[kind]
	if i < 0 || i >= len(items) {
		return backend.Handle{}
	}
	return backend.Handle{Kind: kind, Ptr: items[i]}
}

// ImageData implements backend.Backend.
func (f *Fake) ImageData(image backend.Handle) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.obj(image).data...)
}

// Search implements backend.Requester. The request completes on
// CompleteRequests.
func (f *Fake) Search(query string, params backend.SearchParams, done func(backend.Handle)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRequests {
		return ErrInjected
	}
	f.searchHistory = append(f.searchHistory, params)
	res, ok := f.searches[query]
	if !ok {
		return fmt.Errorf("backendtest: no result for query %q", query)
	}
	f.requests = append(f.requests, request{result: res, done: done})
	return nil
}

// BrowseAlbum implements backend.Requester.
func (f *Fake) BrowseAlbum(album backend.Handle, done func(backend.Handle)) error {
	return f.browse(album, done)
}

// BrowseArtist implements backend.Requester.
func (f *Fake) BrowseArtist(artist backend.Handle, done func(backend.Handle)) error {
	return f.browse(artist, done)
}

func (f *Fake) browse(subject backend.Handle, done func(backend.Handle)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRequests {
		return ErrInjected
	}
	res, ok := f.browses[subject.Ptr]
	if !ok {
		return fmt.Errorf("backendtest: no browse for %s", subject)
	}
	f.requests = append(f.requests, request{result: res, done: done})
	return nil
}

// Resolve implements backend.Requester.
func (f *Fake) Resolve(uri string, kind backend.Kind) (backend.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failResolve {
		return backend.Handle{}, ErrInjected
	}
	for ptr, o := range f.objects {
		if o.uri == uri && o.kind == kind {
			o.owned++
			o.acquires++
			return backend.Handle{Kind: kind, Ptr: ptr}, nil
		}
	}
	return backend.Handle{}, fmt.Errorf("backendtest: cannot resolve %q as %s", uri, kind)
}

// Prefetch implements backend.Requester.
func (f *Fake) Prefetch(track backend.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.obj(track)
	if o == nil {
		return fmt.Errorf("backendtest: unknown handle %s", track)
	}
	f.prefetched = append(f.prefetched, o.uri)
	return nil
}

// PendingRequests returns the number of requests not yet completed.
func (f *Fake) PendingRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// CompleteRequests fires every queued request's done callback, oldest first.
func (f *Fake) CompleteRequests() {
	f.complete(false)
}

// CompleteRequestsReversed fires queued requests newest first.
func (f *Fake) CompleteRequestsReversed() {
	f.complete(true)
}

func (f *Fake) complete(reverse bool) {
	f.mu.Lock()
	reqs := f.requests
	f.requests = nil
	f.mu.Unlock()

	if reverse {
		for i, j := 0, len(reqs)-1; i < j; i, j = i+1, j-1 {
			reqs[i], reqs[j] = reqs[j], reqs[i]
		}
	}
	for _, r := range reqs {
		r.done(r.result)
	}
}

// WatchImage implements backend.Watcher. A loaded image is reported before
// WatchImage returns; otherwise done runs when SetLoaded loads it.
func (f *Fake) WatchImage(image backend.Handle, done func(backend.Handle)) error {
	f.mu.Lock()
	if f.failRequests {
		f.mu.Unlock()
		return ErrInjected
	}
	o := f.obj(image)
	if o == nil || o.kind != backend.KindImage {
		f.mu.Unlock()
		return fmt.Errorf("backendtest: %s is not an image", image)
	}
	if !o.loaded {
		f.imageWatches[image.Ptr] = append(f.imageWatches[image.Ptr], done)
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()
	done(image)
	return nil
}

// WatchPlaylist implements backend.Watcher. updated runs on every
// UpdatePlaylist until stop is called.
func (f *Fake) WatchPlaylist(playlist backend.Handle, updated func(backend.Handle)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRequests {
		return nil, ErrInjected
	}
	o := f.obj(playlist)
	if o == nil || o.kind != backend.KindPlaylist {
		return nil, fmt.Errorf("backendtest: %s is not a playlist", playlist)
	}
	f.watchIDs++
	id := f.watchIDs
	if f.playlistWatches[playlist.Ptr] == nil {
		f.playlistWatches[playlist.Ptr] = make(map[int]func(backend.Handle))
	}
	f.playlistWatches[playlist.Ptr][id] = updated
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.playlistWatches[playlist.Ptr], id)
	}, nil
}

// UpdatePlaylist renames playlist and fires its WatchPlaylist callbacks.
func (f *Fake) UpdatePlaylist(playlist backend.Handle, name string) {
	f.mu.Lock()
	f.obj(playlist).name = name
	var fire []func(backend.Handle)
	for _, fn := range f.playlistWatches[playlist.Ptr] {
		fire = append(fire, fn)
	}
	f.mu.Unlock()

	for _, fn := range fire {
		fn(playlist)
	}
}

// Watches returns the number of image and playlist watches still active.
func (f *Fake) Watches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, w := range f.imageWatches {
		n += len(w)
	}
	for _, w := range f.playlistWatches {
		n += len(w)
	}
	return n
}
