package spgo

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/spgo/backend"
	"github.com/obinnaokechukwu/spgo/backend/backendtest"
	"github.com/obinnaokechukwu/spgo/host/reflecthost"
	"github.com/obinnaokechukwu/spgo/media"
)

func TestLoadImageDeliversOnLoad(t *testing.T) {
	h := newHarness(t)
	h.listenAll(t)

	image := h.fake.NewImage("spotify:image:1", []byte{0xff, 0xd8})
	h.fake.SetLoaded(image, false)
	obj := &media.Image{}
	ref := h.rt.Pin(obj)

	require.NoError(t, h.b.LoadImage(image, ref, 31, backend.ImageSizeNormal))
	require.NoError(t, h.rt.Unpin(ref))
	assert.Empty(t, h.rec.Events())
	assert.Equal(t, 1, h.fake.Watches())
	assert.Equal(t, 1, h.fake.Owned(image), "held while the watch is pending")

	h.fake.SetLoaded(image, true)
	assert.Equal(t, []string{"image"}, h.rec.Events())
	ev := h.rec.images[31]
	assert.Equal(t, "spotify:image:1", ev.link.URI)
	assert.Equal(t, media.ImageSizeNormal, ev.size)
	assert.Equal(t, []byte{0xff, 0xd8}, obj.Bytes)
	assert.True(t, obj.Loaded)
	assert.Zero(t, h.fake.Watches())
	h.assertBalanced(t)
}

func TestLoadImageAlreadyLoaded(t *testing.T) {
	h := newHarness(t)
	h.listenAll(t)

	image := h.fake.NewImage("spotify:image:1", []byte{1})
	require.NoError(t, h.b.LoadImage(image, 0, 32, backend.ImageSizeSmall))
	assert.Equal(t, media.ImageSizeSmall, h.rec.images[32].size)
	h.assertBalanced(t)
}

func TestLoadImageWithoutListener(t *testing.T) {
	h := newHarness(t)
	h.listen(t, nil, CategorySearch)

	image := h.fake.NewImage("spotify:image:1", []byte{1})
	h.fake.SetLoaded(image, false)
	ref := h.rt.Pin(&media.Image{})
	require.NoError(t, h.b.LoadImage(image, ref, 33, backend.ImageSizeSmall))
	require.NoError(t, h.rt.Unpin(ref))

	h.fake.SetLoaded(image, true)
	assert.Empty(t, h.rec.Events())
	h.assertBalanced(t)
}

func TestLoadImageWatchFailure(t *testing.T) {
	h := newHarness(t)
	h.listenAll(t)

	image := h.fake.NewImage("spotify:image:1", []byte{1})
	h.fake.SetLoaded(image, false)
	h.fake.FailRequests(true)
	ref := h.rt.Pin(&media.Image{})

	err := h.b.LoadImage(image, ref, 34, backend.ImageSizeSmall)
	assert.ErrorIs(t, err, ErrHandle)
	assert.ErrorIs(t, err, backendtest.ErrInjected)
	require.NoError(t, h.rt.Unpin(ref))
	h.assertBalanced(t)
}

func TestLoadImageRejects(t *testing.T) {
	h := newHarness(t)
	h.listenAll(t)

	track := h.fake.NewTrack("spotify:track:1", "")
	assert.ErrorIs(t, h.b.LoadImage(track, 0, 1, backend.ImageSizeSmall), ErrHandle)
	assert.ErrorIs(t, h.b.LoadImage(backend.Handle{Kind: backend.KindImage}, 0, 1, backend.ImageSizeSmall), ErrHandle)
	h.assertBalanced(t)
}

// plainBackend hides the fake's Watcher methods.
type plainBackend struct{ backend.Backend }

func TestWatchRequiresWatcher(t *testing.T) {
	fake := backendtest.New()
	b, err := New(plainBackend{fake}, reflecthost.New(), WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	image := fake.NewImage("spotify:image:1", nil)
	assert.ErrorIs(t, b.LoadImage(image, 0, 1, backend.ImageSizeSmall), ErrNoWatcher)
	_, err = b.WatchPlaylist(fake.NewPlaylist("spotify:playlist:1", ""), 1)
	assert.ErrorIs(t, err, ErrNoWatcher)

	b, err = New(plainBackend{fake}, reflecthost.New(), WithLogger(zerolog.Nop()), WithWatcher(fake))
	require.NoError(t, err)
	require.NoError(t, b.LoadImage(image, 0, 1, backend.ImageSizeSmall))
}

func TestWatchPlaylist(t *testing.T) {
	h := newHarness(t)
	h.listenAll(t)

	pl := h.fake.NewPlaylist("spotify:user:me:playlist:1", "Draft")
	stop, err := h.b.WatchPlaylist(pl, 41)
	require.NoError(t, err)
	assert.Equal(t, 1, h.fake.Owned(pl))

	h.fake.UpdatePlaylist(pl, "Late Night")
	require.Equal(t, 1, h.rec.Count("playlist"))
	assert.Equal(t, "Late Night", h.rec.playlists[41].name)
	assert.Equal(t, "spotify:user:me:playlist:1", h.rec.playlists[41].link.URI)

	h.fake.SetLoaded(pl, false)
	h.fake.UpdatePlaylist(pl, "Loading")
	assert.Equal(t, 1, h.rec.Count("playlist"), "unloaded updates are not delivered")

	h.fake.SetLoaded(pl, true)
	stop()
	stop()
	h.fake.UpdatePlaylist(pl, "After")
	assert.Equal(t, 1, h.rec.Count("playlist"))
	assert.Zero(t, h.fake.Watches())
	h.assertBalanced(t)
}

func TestWatchPlaylistFailure(t *testing.T) {
	h := newHarness(t)
	h.listenAll(t)

	pl := h.fake.NewPlaylist("spotify:playlist:1", "")
	h.fake.FailRequests(true)
	stop, err := h.b.WatchPlaylist(pl, 42)
	assert.ErrorIs(t, err, ErrHandle)
	assert.Nil(t, stop)

	_, err = h.b.WatchPlaylist(h.fake.NewTrack("spotify:track:1", ""), 42)
	assert.ErrorIs(t, err, ErrHandle)
	h.assertBalanced(t)
}
