package spgo

import (
	"fmt"

	"github.com/obinnaokechukwu/spgo/backend"
	"github.com/obinnaokechukwu/spgo/host"
	"github.com/obinnaokechukwu/spgo/media"
)

// fieldWriter sets fields on one object and keeps the first failure.
type fieldWriter struct {
	env host.Env
	obj host.Ref
	err error
}

func (f *fieldWriter) str(name, v string) {
	if f.err == nil {
		f.err = f.env.SetString(f.obj, name, v)
	}
}

func (f *fieldWriter) boolean(name string, v bool) {
	if f.err == nil {
		f.err = f.env.SetBool(f.obj, name, v)
	}
}

func (f *fieldWriter) integer(name string, v int32) {
	if f.err == nil {
		f.err = f.env.SetInt(f.obj, name, v)
	}
}

func (f *fieldWriter) bytes(name string, v []byte) {
	if f.err == nil {
		f.err = f.env.SetBytes(f.obj, name, v)
	}
}

func (f *fieldWriter) object(name string, v host.Ref) {
	if f.err == nil {
		f.err = f.env.SetObject(f.obj, name, v)
	}
}

func (f *fieldWriter) done() error {
	if f.err != nil {
		return fmt.Errorf("%w: %v", ErrMarshal, f.err)
	}
	return nil
}

// newLink builds a managed Link for h. The native link it derives and the
// managed object are owned by s.
func (b *Bridge) newLink(s *refScope, h backend.Handle) (host.Ref, error) {
	link, err := s.link(h)
	if err != nil {
		return 0, err
	}
	obj, err := s.env.NewObject(media.ClassLink)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMarshal, media.ClassLink, err)
	}
	s.local(obj)
	f := fieldWriter{env: s.env, obj: obj}
	f.str("uri", b.be.LinkString(link))
	return obj, f.done()
}

// linkList builds a list of links to n items. Items that are missing or not
// loaded yet are left out with a warning; the list holds what was ready.
func (b *Bridge) linkList(cb *callback, kind backend.Kind, n int, item func(i int) backend.Handle) (host.Ref, error) {
	lst, err := cb.env().NewList()
	if err != nil {
		return 0, fmt.Errorf("%w: list: %v", ErrMarshal, err)
	}
	cb.scope.local(lst)
	for i := 0; i < n; i++ {
		if err := b.appendLink(cb, lst, kind, i, item(i)); err != nil {
			return 0, err
		}
	}
	return lst, nil
}

func (b *Bridge) appendLink(cb *callback, lst host.Ref, kind backend.Kind, i int, h backend.Handle) error {
	if h.IsNil() {
		omittedResults.WithLabelValues(kind.String()).Inc()
		cb.log.Warn().Str("kind", kind.String()).Int("index", i).Msg("result item missing; omitted")
		return nil
	}
	s := cb.scope.child()
	defer s.close()

	if err := s.acquire(h); err != nil {
		omittedResults.WithLabelValues(kind.String()).Inc()
		cb.log.Warn().Err(err).Str("kind", kind.String()).Int("index", i).Msg("cannot reference result item; omitted")
		return nil
	}
	if !b.be.IsLoaded(h) {
		omittedResults.WithLabelValues(kind.String()).Inc()
		cb.log.Warn().Str("kind", kind.String()).Int("index", i).Msg("result item not loaded yet; omitted")
		return nil
	}
	link, err := b.newLink(s, h)
	if err != nil {
		return err
	}
	if err := cb.env().Append(lst, link); err != nil {
		return fmt.Errorf("%w: append: %v", ErrMarshal, err)
	}
	return nil
}

var searchSections = []struct {
	kind                 backend.Kind
	found, total, offset string
}{
	{backend.KindTrack, "tracksFound", "totalNumTracks", "trackOffset"},
	{backend.KindAlbum, "albumsFound", "totalNumAlbums", "albumOffset"},
	{backend.KindArtist, "artistsFound", "totalNumArtists", "artistOffset"},
}

// populateSearch fills a SearchResult from a completed search. Each offset
// is the number of items the page held, so the caller can request the next
// page from there.
func (b *Bridge) populateSearch(cb *callback, search backend.Handle, obj host.Ref) error {
	f := fieldWriter{env: cb.env(), obj: obj}
	f.str("query", b.be.SearchQuery(search))
	f.str("didYouMean", b.be.SearchDidYouMean(search))
	for _, sec := range searchSections {
		n := b.be.SearchNum(search, sec.kind)
		kind := sec.kind
		lst, err := b.linkList(cb, kind, n, func(i int) backend.Handle {
			return b.be.SearchItem(search, kind, i)
		})
		if err != nil {
			return err
		}
		f.object(sec.found, lst)
		f.integer(sec.total, int32(b.be.SearchTotal(search, sec.kind)))
		f.integer(sec.offset, int32(n))
	}
	return f.done()
}

// populateIdentity sets the id link and, when nameField is set, the display name.
func (b *Bridge) populateIdentity(cb *callback, h backend.Handle, obj host.Ref, nameField string) (*fieldWriter, error) {
	link, err := b.newLink(cb.scope, h)
	if err != nil {
		return nil, err
	}
	f := &fieldWriter{env: cb.env(), obj: obj}
	f.object("id", link)
	if nameField != "" {
		f.str(nameField, b.be.Name(h))
	}
	return f, nil
}

func (b *Bridge) populateTrack(cb *callback, track backend.Handle, obj host.Ref) error {
	f, err := b.populateIdentity(cb, track, obj, "title")
	if err != nil {
		return err
	}
	f.boolean("loaded", true)
	return f.done()
}

func (b *Bridge) populatePlaylist(cb *callback, playlist backend.Handle, obj host.Ref) error {
	f, err := b.populateIdentity(cb, playlist, obj, "name")
	if err != nil {
		return err
	}
	f.boolean("loaded", true)
	return f.done()
}

// populateAlbum fills an Album. browse may be nil, in which case the track
// list is left as it was.
func (b *Bridge) populateAlbum(cb *callback, album, browse backend.Handle, obj host.Ref) error {
	f, err := b.populateIdentity(cb, album, obj, "name")
	if err != nil {
		return err
	}
	if !browse.IsNil() {
		tracks, err := b.browseList(cb, browse, backend.KindTrack)
		if err != nil {
			return err
		}
		f.object("tracks", tracks)
	}
	f.boolean("loaded", true)
	return f.done()
}

// populateArtist fills an Artist. browse may be nil.
func (b *Bridge) populateArtist(cb *callback, artist, browse backend.Handle, obj host.Ref) error {
	f, err := b.populateIdentity(cb, artist, obj, "name")
	if err != nil {
		return err
	}
	if !browse.IsNil() {
		albums, err := b.browseList(cb, browse, backend.KindAlbum)
		if err != nil {
			return err
		}
		tracks, err := b.browseList(cb, browse, backend.KindTrack)
		if err != nil {
			return err
		}
		f.object("albums", albums)
		f.object("tracks", tracks)
	}
	f.boolean("loaded", true)
	return f.done()
}

func (b *Bridge) browseList(cb *callback, browse backend.Handle, kind backend.Kind) (host.Ref, error) {
	return b.linkList(cb, kind, b.be.BrowseNum(browse, kind), func(i int) backend.Handle {
		return b.be.BrowseItem(browse, kind, i)
	})
}

func (b *Bridge) populateImage(cb *callback, image backend.Handle, obj host.Ref, size backend.ImageSize, data []byte) error {
	f, err := b.populateIdentity(cb, image, obj, "")
	if err != nil {
		return err
	}
	f.integer("size", int32(size))
	f.bytes("bytes", data)
	f.boolean("loaded", true)
	return f.done()
}
