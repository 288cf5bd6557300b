package spgo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeCloseDeletesLocals(t *testing.T) {
	h := newHarness(t)
	ctx, err := h.b.threads.enter()
	require.NoError(t, err)
	defer h.b.threads.exit(ctx)

	s := h.b.newScope(&h.b.log)
	s.env = ctx.env
	for i := 0; i < 3; i++ {
		lst, err := ctx.env.NewList()
		require.NoError(t, err)
		s.local(lst)
	}
	require.Equal(t, 3, h.rt.LocalRefs())

	s.close()
	assert.Zero(t, h.rt.LocalRefs(), "locals dropped before the thread detaches")
	assert.Equal(t, 1, h.rt.Attached())
}

func TestScopeCloseReleasesEverything(t *testing.T) {
	h := newHarness(t)
	ctx, err := h.b.threads.enter()
	require.NoError(t, err)

	track := h.fake.NewTrack("spotify:track:1", "one")
	album := h.fake.NewAlbum("spotify:album:1", "two")
	s := h.b.newScope(&h.b.log)
	s.env = ctx.env
	require.NoError(t, s.acquire(track))
	require.NoError(t, s.acquire(album))
	g, err := s.pin(h.rt.Pin(&struct{}{}))
	require.NoError(t, err)
	assert.False(t, g.IsNil())
	assert.Equal(t, 2, h.fake.Outstanding())

	s.close()
	h.b.threads.exit(ctx)
	assert.Equal(t, 1, h.fake.Releases(track))
	assert.Equal(t, 1, h.fake.Releases(album))
	assert.Equal(t, 1, h.rt.GlobalRefs(), "only the caller's own pin is left")
	assert.Zero(t, h.fake.Outstanding())
	assert.Zero(t, h.fake.OverReleases())
}

func TestScopeCommitKeepsReferences(t *testing.T) {
	h := newHarness(t)
	ctx, err := h.b.threads.enter()
	require.NoError(t, err)
	defer h.b.threads.exit(ctx)

	track := h.fake.NewTrack("spotify:track:1", "")
	s := h.b.newScope(&h.b.log)
	s.env = ctx.env
	require.NoError(t, s.acquire(track))
	s.commit()
	s.close()
	assert.Equal(t, 1, h.fake.Owned(track))
	require.NoError(t, h.fake.Release(track))
}
