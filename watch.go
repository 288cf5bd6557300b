package spgo

import (
	"fmt"
	"sync"

	"github.com/obinnaokechukwu/spgo/backend"
	"github.com/obinnaokechukwu/spgo/host"
)

// LoadImage delivers image to the media listener through ImageLoaded once
// the backend reports it loaded. img is an optional managed Image to fill;
// the bridge pins its own global reference, so the caller keeps theirs.
func (b *Bridge) LoadImage(image backend.Handle, img host.Ref, token int32, size backend.ImageSize) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if b.watch == nil {
		return ErrNoWatcher
	}
	if image.Kind != backend.KindImage || image.IsNil() {
		return fmt.Errorf("%w: %s is not an image", ErrHandle, image)
	}

	ctx, err := b.threads.enter()
	if err != nil {
		b.log.Error().Err(err).Int32("token", token).Msg("cannot attach to watch image")
		return err
	}
	defer b.threads.exit(ctx)

	s := b.newScope(&b.log)
	s.env = ctx.env
	defer s.close()

	if err := s.acquire(image); err != nil {
		return err
	}
	var obj host.Ref
	if !img.IsNil() {
		if obj, err = s.pin(img); err != nil {
			return err
		}
	}

	// The watch owns both references from here; done may run before
	// WatchImage returns.
	s.commit()
	err = b.watch.WatchImage(image, func(loaded backend.Handle) {
		_ = b.ImageLoaded(loaded, obj, token, size)
		done := b.newScope(&b.log)
		done.restore(image, 0)
		done.close()
	})
	if err != nil {
		s.restore(image, obj)
		b.log.Warn().Err(err).Int32("token", token).Msg("cannot watch image")
		return fmt.Errorf("%w: watch %s: %v", ErrHandle, image, err)
	}
	return nil
}

// WatchPlaylist delivers playlist through PlaylistUpdated each time the
// backend reports a change while it is loaded. stop ends the watch and
// drops the bridge's reference; calling it again does nothing.
func (b *Bridge) WatchPlaylist(playlist backend.Handle, token int32) (stop func(), err error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	if b.watch == nil {
		return nil, ErrNoWatcher
	}
	if playlist.Kind != backend.KindPlaylist || playlist.IsNil() {
		return nil, fmt.Errorf("%w: %s is not a playlist", ErrHandle, playlist)
	}

	s := b.newScope(&b.log)
	if err := s.acquire(playlist); err != nil {
		s.close()
		return nil, err
	}
	s.commit()

	cancel, err := b.watch.WatchPlaylist(playlist, func(p backend.Handle) {
		if !b.be.IsLoaded(p) {
			return
		}
		_ = b.PlaylistUpdated(p, token)
	})
	if err != nil {
		s.restore(playlist, 0)
		s.close()
		b.log.Warn().Err(err).Int32("token", token).Msg("cannot watch playlist")
		return nil, fmt.Errorf("%w: watch %s: %v", ErrHandle, playlist, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			s.restore(playlist, 0)
			s.close()
		})
	}, nil
}
