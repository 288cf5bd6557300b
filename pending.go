package spgo

import (
	"fmt"
	"sync"

	"github.com/obinnaokechukwu/spgo/backend"
	"github.com/obinnaokechukwu/spgo/host"
)

// LoadRequest asks the bridge to deliver an object once the backend has
// finished loading it.
type LoadRequest struct {
	// Handle is borrowed; the bridge takes its own reference.
	Handle backend.Handle
	// Object is the managed object to fill, if any. The bridge pins its own
	// global reference, so the caller keeps ownership of this one.
	// Albums, artists, searches and browses need one.
	Object host.Ref
	Token  int32
	// Browse asks for the album or artist to be browsed once loaded so its
	// track and album lists are filled too.
	Browse bool
	// ImageSize is reported back for images.
	ImageSize backend.ImageSize
}

type pendingEntry struct {
	handle    backend.Handle
	object    host.Ref // global, owned by the entry
	token     int32
	browse    bool
	imageSize backend.ImageSize
}

// pendingQueue holds entries in insertion order. It is shared by callback
// threads adding entries and the poller removing them.
type pendingQueue struct {
	mu      sync.Mutex
	entries []*pendingEntry
	closed  bool
}

// push appends e. It reports false once the queue is shut.
func (q *pendingQueue) push(e *pendingEntry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.entries = append(q.entries, e)
	pendingEntries.Set(float64(len(q.entries)))
	return true
}

// shut refuses further pushes and returns the number of queued entries.
func (q *pendingQueue) shut() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return len(q.entries)
}

// takeLoaded removes and returns the entries whose handle is loaded.
func (q *pendingQueue) takeLoaded(loaded func(backend.Handle) bool) []*pendingEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	var ready []*pendingEntry
	keep := q.entries[:0]
	for _, e := range q.entries {
		if loaded(e.handle) {
			ready = append(ready, e)
		} else {
			keep = append(keep, e)
		}
	}
	for i := len(keep); i < len(q.entries); i++ {
		q.entries[i] = nil
	}
	q.entries = keep
	pendingEntries.Set(float64(len(q.entries)))
	return ready
}

func (q *pendingQueue) takeAll() []*pendingEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	all := q.entries
	q.entries = nil
	pendingEntries.Set(0)
	return all
}

func (q *pendingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func needsObject(k backend.Kind) bool {
	switch k {
	case backend.KindAlbum, backend.KindArtist, backend.KindSearch,
		backend.KindAlbumBrowse, backend.KindArtistBrowse:
		return true
	}
	return false
}

func queueable(k backend.Kind) bool {
	switch k {
	case backend.KindTrack, backend.KindAlbum, backend.KindArtist, backend.KindPlaylist,
		backend.KindImage, backend.KindSearch, backend.KindAlbumBrowse, backend.KindArtistBrowse:
		return true
	}
	return false
}

// AddLoading queues req until its handle is loaded. On success the bridge
// holds one native reference and, if an object was given, one global
// reference, both given back when the entry is delivered. On failure it
// holds neither.
func (b *Bridge) AddLoading(req LoadRequest) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if req.Handle.IsNil() {
		return fmt.Errorf("%w: nil handle", ErrHandle)
	}
	if !queueable(req.Handle.Kind) {
		return fmt.Errorf("spgo: %s objects cannot be queued", req.Handle.Kind)
	}
	if req.Object.IsNil() && needsObject(req.Handle.Kind) {
		return fmt.Errorf("spgo: %s load needs an object to fill", req.Handle.Kind)
	}

	ctx, err := b.threads.enter()
	if err != nil {
		b.log.Error().Err(err).Int32("token", req.Token).Msg("cannot attach to queue load")
		return err
	}
	defer b.threads.exit(ctx)

	s := b.newScope(&b.log)
	s.env = ctx.env
	defer s.close()

	if err := s.acquire(req.Handle); err != nil {
		return err
	}
	var obj host.Ref
	if !req.Object.IsNil() {
		if obj, err = s.pin(req.Object); err != nil {
			return err
		}
	}
	queued := b.pending.push(&pendingEntry{
		handle:    req.Handle,
		object:    obj,
		token:     req.Token,
		browse:    req.Browse,
		imageSize: req.ImageSize,
	})
	if !queued {
		return ErrClosed
	}
	s.commit()
	b.log.Debug().
		Str("handle", req.Handle.String()).
		Int32("token", req.Token).
		Bool("browse", req.Browse).
		Msg("queued pending load")
	return nil
}

// Load resolves uri to an object of kind and queues it like AddLoading.
func (b *Bridge) Load(uri string, kind backend.Kind, obj host.Ref, token int32, browse bool) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if b.req == nil {
		return ErrNoRequester
	}
	h, err := b.req.Resolve(uri, kind)
	if err != nil {
		b.log.Warn().Err(err).Str("uri", uri).Msg("cannot resolve uri")
		return fmt.Errorf("%w: resolve %s: %v", ErrHandle, uri, err)
	}
	s := b.newScope(&b.log)
	s.adopt(h)
	defer s.close()

	return b.AddLoading(LoadRequest{Handle: h, Object: obj, Token: token, Browse: browse})
}

// Pending returns the number of queued entries.
func (b *Bridge) Pending() int {
	return b.pending.len()
}

// CheckLoaded delivers every queued entry whose handle is now loaded and
// removes it from the queue. Entries are delivered in insertion order, once
// each. It returns how many entries were delivered. If the thread cannot
// attach, nothing is removed.
func (b *Bridge) CheckLoaded() int {
	if b.pending.len() == 0 {
		return 0
	}
	ctx, err := b.threads.enter()
	if err != nil {
		b.log.Error().Err(err).Msg("cannot attach; pending loads stay queued")
		return 0
	}
	defer b.threads.exit(ctx)

	ready := b.pending.takeLoaded(b.be.IsLoaded)
	for _, e := range ready {
		_ = b.finishEntry(ctx, e)
	}
	return len(ready)
}

func (b *Bridge) finishEntry(ctx *callContext, e *pendingEntry) error {
	event := "loaded_" + e.handle.Kind.String()
	return b.callbackWith(ctx, event, e.token, func(cb *callback) error {
		cb.scope.adopt(e.handle)
		cb.scope.adoptGlobal(e.object)

		c := CategoryMediaLoaded
		if e.handle.Kind == backend.KindSearch {
			c = CategorySearch
		}
		reg, err := cb.listener(c)
		if err != nil {
			return err
		}

		switch e.handle.Kind {
		case backend.KindTrack:
			return b.deliverTrack(cb, reg, e.handle, e.object)
		case backend.KindAlbum, backend.KindArtist:
			if e.browse && b.startBrowse(cb, e) {
				return nil
			}
			if e.handle.Kind == backend.KindAlbum {
				if err := b.populateAlbum(cb, e.handle, backend.Handle{}, e.object); err != nil {
					return err
				}
				_, err := b.invoke(cb, reg, "album", cb.token, e.object)
				return err
			}
			if err := b.populateArtist(cb, e.handle, backend.Handle{}, e.object); err != nil {
				return err
			}
			_, err := b.invoke(cb, reg, "artist", cb.token, e.object)
			return err
		case backend.KindPlaylist:
			return b.deliverPlaylist(cb, reg, e.handle, e.object)
		case backend.KindImage:
			return b.deliverImage(cb, reg, e.handle, e.object, e.imageSize)
		case backend.KindSearch:
			return b.deliverSearchInto(cb, reg, e.handle, e.object)
		case backend.KindAlbumBrowse:
			return b.deliverAlbumBrowse(cb, reg, e.handle, e.object)
		case backend.KindArtistBrowse:
			return b.deliverArtistBrowse(cb, reg, e.handle, e.object)
		}
		return fmt.Errorf("spgo: unexpected pending %s", e.handle.Kind)
	})
}

// startBrowse hands the entry's object to a browse request. The browse
// completion then owns the global reference. It reports false, keeping the
// object with the entry, when no browse could be started.
func (b *Bridge) startBrowse(cb *callback, e *pendingEntry) bool {
	if b.req == nil {
		cb.log.Warn().Msg("browse requested without a requester; delivering unbrowsed")
		return false
	}
	obj, token := e.object, e.token
	if !cb.scope.disown(obj) {
		return false
	}

	var err error
	if e.handle.Kind == backend.KindAlbum {
		err = b.req.BrowseAlbum(e.handle, func(browse backend.Handle) {
			_ = b.AlbumBrowseComplete(browse, obj, token)
		})
	} else {
		err = b.req.BrowseArtist(e.handle, func(browse backend.Handle) {
			_ = b.ArtistBrowseComplete(browse, obj, token)
		})
	}
	if err != nil {
		cb.scope.adoptGlobal(obj)
		cb.log.Warn().Err(err).Msg("browse request failed; delivering unbrowsed")
		return false
	}
	cb.log.Debug().Msg("browse started")
	return true
}

// drainPending releases every queued entry without delivering it.
func (b *Bridge) drainPending(ctx *callContext) int {
	entries := b.pending.takeAll()
	s := b.newScope(&b.log)
	s.env = ctx.env
	for _, e := range entries {
		s.adopt(e.handle)
		s.adoptGlobal(e.object)
	}
	s.close()
	return len(entries)
}
