package reflecthost

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/spgo/host"
	"github.com/obinnaokechukwu/spgo/media"
)

type recorder struct {
	media.BasePlaybackListener
	lastToken  int32
	lastResult *media.SearchResult
	size       media.ImageSize
	fail       error
}

func (r *recorder) SearchCompleted(token int32, res *media.SearchResult) {
	r.lastToken = token
	r.lastResult = res
}

func (r *recorder) Image(token int32, link *media.Link, size media.ImageSize, data []byte) {
	r.lastToken = token
	r.size = size
}

func (r *recorder) Failing() error { return r.fail }

func (r *recorder) Panicking() { panic("listener bug") }

func (r *recorder) NextTrackToPreload() string { return "spotify:track:next" }

func newAttached(t *testing.T, opts ...Option) (*Runtime, host.Env) {
	t.Helper()
	rt := New(append([]Option{WithClasses(media.Classes())}, opts...)...)
	env, err := rt.Attach()
	require.NoError(t, err)
	t.Cleanup(func() {
		if rt.Attached() > 0 {
			_ = rt.Detach(env)
		}
	})
	return rt, env
}

func TestNewObjectAndFields(t *testing.T) {
	rt, env := newAttached(t)

	obj, err := env.NewObject(media.ClassAlbum)
	require.NoError(t, err)

	require.NoError(t, env.SetString(obj, "name", "Blue Train"))
	require.NoError(t, env.SetBool(obj, "loaded", true))

	album, ok := rt.Value(obj).(*media.Album)
	require.True(t, ok)
	assert.Equal(t, "Blue Train", album.Name)
	assert.True(t, album.Loaded)
}

func TestFieldByGoName(t *testing.T) {
	rt, env := newAttached(t)
	obj, err := env.NewObject(media.ClassSearchResult)
	require.NoError(t, err)

	require.NoError(t, env.SetInt(obj, "TotalNumTracks", 99))
	assert.Equal(t, int32(99), rt.Value(obj).(*media.SearchResult).TotalNumTracks)
}

func TestFieldErrors(t *testing.T) {
	_, env := newAttached(t)
	obj, err := env.NewObject(media.ClassTrack)
	require.NoError(t, err)

	err = env.SetBool(obj, "title", true)
	assert.ErrorIs(t, err, host.ErrFieldType)

	err = env.SetString(obj, "nope", "x")
	assert.ErrorIs(t, err, host.ErrFieldNotFound)

	_, err = env.NewObject("media.Unknown")
	assert.ErrorIs(t, err, host.ErrClassNotFound)
}

func TestListIntoSliceField(t *testing.T) {
	rt, env := newAttached(t)
	res, err := env.NewObject(media.ClassSearchResult)
	require.NoError(t, err)

	lst, err := env.NewList()
	require.NoError(t, err)
	for _, uri := range []string{"spotify:track:a", "spotify:track:b"} {
		link, err := env.NewObject(media.ClassLink)
		require.NoError(t, err)
		require.NoError(t, env.SetString(link, "uri", uri))
		require.NoError(t, env.Append(lst, link))
	}
	require.NoError(t, env.SetObject(res, "tracksFound", lst))

	got := rt.Value(res).(*media.SearchResult).TracksFound
	require.Len(t, got, 2)
	assert.Equal(t, "spotify:track:b", got[1].URI)
}

func TestMethodResolution(t *testing.T) {
	rt, env := newAttached(t)
	ref := rt.Pin(&recorder{})
	defer rt.Unpin(ref)

	m, err := env.Method(ref, "searchCompleted", 2)
	require.NoError(t, err)
	assert.Equal(t, "searchCompleted", m.Name)

	_, err = env.Method(ref, "searchCompleted", 1)
	assert.ErrorIs(t, err, host.ErrMethodNotFound)

	_, err = env.Method(ref, "albumLoaded", 2)
	assert.ErrorIs(t, err, host.ErrMethodNotFound)
}

func TestCallWithRefAndConvertedArgs(t *testing.T) {
	rt, env := newAttached(t)
	rec := &recorder{}
	ref := rt.Pin(rec)
	defer rt.Unpin(ref)

	res, err := env.NewObject(media.ClassSearchResult)
	require.NoError(t, err)
	require.NoError(t, env.SetString(res, "query", "coltrane"))

	m, err := env.Method(ref, "searchCompleted", 2)
	require.NoError(t, err)
	_, err = env.Call(ref, m, int32(5), res)
	require.NoError(t, err)
	assert.Equal(t, int32(5), rec.lastToken)
	assert.Equal(t, "coltrane", rec.lastResult.Query)

	img, err := env.Method(ref, "image", 4)
	require.NoError(t, err)
	_, err = env.Call(ref, img, int32(1), host.Ref(0), int32(media.ImageSizeLarge), []byte{1})
	require.NoError(t, err)
	assert.Equal(t, media.ImageSizeLarge, rec.size)
}

func TestCallFailures(t *testing.T) {
	rt, env := newAttached(t)
	boom := errors.New("boom")
	ref := rt.Pin(&recorder{fail: boom})
	defer rt.Unpin(ref)

	m, err := env.Method(ref, "failing", 0)
	require.NoError(t, err)
	_, err = env.Call(ref, m)
	require.Error(t, err)
	assert.True(t, IsInvocation(err))
	assert.ErrorIs(t, err, boom)

	p, err := env.Method(ref, "panicking", 0)
	require.NoError(t, err)
	_, err = env.Call(ref, p)
	assert.True(t, IsInvocation(err))
}

func TestCallReturnsString(t *testing.T) {
	rt, env := newAttached(t)
	ref := rt.Pin(&recorder{})
	defer rt.Unpin(ref)

	m, err := env.Method(ref, "nextTrackToPreload", 0)
	require.NoError(t, err)
	out, err := env.Call(ref, m)
	require.NoError(t, err)
	assert.Equal(t, "spotify:track:next", out)
}

func TestGlobalRefLifecycle(t *testing.T) {
	rt, env := newAttached(t)
	obj, err := env.NewObject(media.ClassImage)
	require.NoError(t, err)

	g, err := env.NewGlobalRef(obj)
	require.NoError(t, err)
	assert.Equal(t, 1, rt.GlobalRefs())

	require.NoError(t, env.DeleteGlobalRef(g))
	assert.Equal(t, 0, rt.GlobalRefs())
	assert.ErrorIs(t, env.DeleteGlobalRef(g), host.ErrInvalidRef)

	// A local ref is not a global ref.
	assert.ErrorIs(t, env.DeleteGlobalRef(obj), host.ErrInvalidRef)
}

func TestLocalsFreedOnDetach(t *testing.T) {
	rt := New(WithClasses(media.Classes()))
	env, err := rt.Attach()
	require.NoError(t, err)

	obj, err := env.NewObject(media.ClassLink)
	require.NoError(t, err)
	_, err = env.NewList()
	require.NoError(t, err)
	assert.Equal(t, 2, rt.LocalRefs())

	require.NoError(t, rt.Detach(env))
	assert.Equal(t, 0, rt.LocalRefs())
	assert.Nil(t, rt.Value(obj))
	assert.Error(t, rt.Detach(env))
}

func TestLocalRefFromOtherContext(t *testing.T) {
	rt := New(WithClasses(media.Classes()))
	a, err := rt.Attach()
	require.NoError(t, err)
	b, err := rt.Attach()
	require.NoError(t, err)
	defer rt.Detach(a)
	defer rt.Detach(b)

	obj, err := a.NewObject(media.ClassLink)
	require.NoError(t, err)
	assert.ErrorIs(t, b.SetString(obj, "uri", "x"), host.ErrInvalidRef)
}

func TestAttachHookFailure(t *testing.T) {
	rt := New(WithAttachHook(func() error { return errors.New("vm gone") }))
	_, err := rt.Attach()
	assert.ErrorIs(t, err, host.ErrAttach)
	assert.Equal(t, 0, rt.Attached())
}
