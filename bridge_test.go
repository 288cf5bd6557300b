package spgo

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/spgo/backend"
	"github.com/obinnaokechukwu/spgo/backend/backendtest"
	"github.com/obinnaokechukwu/spgo/host/reflecthost"
)

func TestNewValidates(t *testing.T) {
	fake := backendtest.New()
	rt := reflecthost.New()

	_, err := New(nil, rt)
	assert.Error(t, err)
	_, err = New(fake, nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.PollInterval = 0
	_, err = New(fake, rt, WithConfig(cfg))
	assert.Error(t, err)

	b, err := New(fake, rt)
	require.NoError(t, err)
	assert.Same(t, fake, b.req, "backend doubles as requester")
	assert.Equal(t, DefaultPollInterval, b.Config().PollInterval)
}

func TestSetListenerOnce(t *testing.T) {
	h := newHarness(t)
	h.listen(t, nil, CategorySearch)
	assert.True(t, h.b.HasListener(CategorySearch))
	assert.False(t, h.b.HasListener(CategoryPlayback))

	other := h.rt.Pin(newRecorder())
	assert.ErrorIs(t, h.b.SetListener(CategorySearch, other), ErrListenerAlreadySet)
	require.NoError(t, h.rt.Unpin(other))

	stray := h.rt.Pin(h.rec)
	assert.Error(t, h.b.SetListener(Category(99), stray))
	assert.Error(t, h.b.SetListener(CategoryPlayback, 0))
	require.NoError(t, h.rt.Unpin(stray))
	assert.Equal(t, 1, h.rt.GlobalRefs())
}

func TestSetListenerAttachFailure(t *testing.T) {
	h := newHarness(t)
	h.failAttach.Store(true)

	ref := h.rt.Pin(h.rec)
	assert.ErrorIs(t, h.b.SetListener(CategorySearch, ref), ErrAttach)
	assert.False(t, h.b.HasListener(CategorySearch))
	require.NoError(t, h.rt.Unpin(ref))
	assert.Zero(t, h.rt.GlobalRefs())
}

func TestCloseUnpinsListeners(t *testing.T) {
	h := newHarness(t)
	h.listenAll(t)
	require.Equal(t, 4, h.rt.GlobalRefs())

	require.NoError(t, h.b.Close())
	assert.Zero(t, h.rt.GlobalRefs())
	assert.Zero(t, h.rt.Attached())
	assert.ErrorIs(t, h.b.Close(), ErrClosed)

	assert.ErrorIs(t, h.b.Search("q", backend.SearchParams{}, 1), ErrClosed)
	assert.ErrorIs(t, h.b.AddLoading(LoadRequest{Handle: h.fake.NewTrack("spotify:track:1", "")}), ErrClosed)
	assert.ErrorIs(t, h.b.SetListener(CategorySearch, 1), ErrClosed)

	search := h.fake.NewSearch("q", "")
	assert.ErrorIs(t, h.b.SearchComplete(search, 1), ErrNoListener)
	assert.Zero(t, h.fake.Outstanding())
}

func TestCloseAbandonsPendingByDefault(t *testing.T) {
	h := newHarness(t)
	h.listenAll(t)

	track := h.fake.NewTrack("spotify:track:1", "")
	h.fake.SetLoaded(track, false)
	require.NoError(t, h.b.AddLoading(LoadRequest{Handle: track}))

	require.NoError(t, h.b.Close())
	assert.Equal(t, 1, h.fake.Owned(track))
	assert.Equal(t, 1, h.b.Pending())
}

func TestCloseDrainsPending(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DrainOnClose = true
	h := newHarness(t, WithConfig(cfg))
	h.listenAll(t)

	track := h.fake.NewTrack("spotify:track:1", "")
	h.fake.SetLoaded(track, false)
	ref := h.rt.Pin(&struct{}{})
	require.NoError(t, h.b.AddLoading(LoadRequest{Handle: track, Object: ref}))
	require.NoError(t, h.rt.Unpin(ref))

	require.NoError(t, h.b.Close())
	assert.Zero(t, h.b.Pending())
	assert.Zero(t, h.fake.Outstanding())
	assert.Zero(t, h.rt.GlobalRefs())
	assert.Empty(t, h.rec.Events(), "drained entries are not delivered")
}

func TestCloseWhileAddLoadingIsAttaching(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DrainOnClose = true
	h := newHarness(t, WithConfig(cfg))
	h.listenAll(t)

	track := h.fake.NewTrack("spotify:track:1", "")
	h.fake.SetLoaded(track, false)

	var closing atomic.Bool
	closeOnce := func() {
		if closing.CompareAndSwap(false, true) {
			assert.NoError(t, h.b.Close())
		}
	}
	h.onAttach.Store(&closeOnce)

	err := h.b.AddLoading(LoadRequest{Handle: track})
	assert.ErrorIs(t, err, ErrClosed)
	assert.True(t, closing.Load())
	assert.Zero(t, h.b.Pending(), "nothing queued behind a finished close")
	assert.Zero(t, h.fake.Owned(track))
	assert.Zero(t, h.fake.OverReleases())
	assert.Zero(t, h.rt.GlobalRefs())
	assert.Zero(t, h.rt.Attached())
}

func TestPendingQueueShut(t *testing.T) {
	var q pendingQueue
	assert.True(t, q.push(&pendingEntry{}))
	assert.Equal(t, 1, q.shut())
	assert.False(t, q.push(&pendingEntry{}))
	assert.Equal(t, 1, q.len())
	assert.Len(t, q.takeAll(), 1)
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "search", CategorySearch.String())
	assert.Equal(t, "media_loaded", CategoryMediaLoaded.String())
	assert.Equal(t, "category(9)", Category(9).String())
}

func TestConfigOption(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PollInterval = 5 * time.Second
	cfg.EnablePreload = true
	h := newHarness(t, WithConfig(cfg))
	assert.Equal(t, cfg, h.b.Config())
}
