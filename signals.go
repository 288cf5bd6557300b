package spgo

import (
	"fmt"

	"github.com/obinnaokechukwu/spgo/backend"
)

// signal invokes method on the listener for c with no native objects
// involved. It returns whatever the listener returned.
func (b *Bridge) signal(c Category, event, method string, args ...any) (any, error) {
	var out any
	err := b.callback(event, 0, func(cb *callback) error {
		reg, err := cb.listener(c)
		if err != nil {
			return err
		}
		if err := cb.attach(); err != nil {
			return err
		}
		out, err = b.invoke(cb, reg, method, args...)
		return err
	})
	return out, err
}

// Connected reports that the session reached the access point.
func (b *Bridge) Connected() error {
	_, err := b.signal(CategoryConnection, "connected", "connected")
	return err
}

// LoggedIn reports a successful login.
func (b *Bridge) LoggedIn() error {
	_, err := b.signal(CategoryConnection, "logged_in", "loggedIn")
	return err
}

// Disconnected reports that the connection to the access point was lost.
func (b *Bridge) Disconnected() error {
	_, err := b.signal(CategoryConnection, "disconnected", "disconnected")
	return err
}

// LoggedOut reports that the session logged out.
func (b *Bridge) LoggedOut() error {
	_, err := b.signal(CategoryConnection, "logged_out", "loggedOut")
	return err
}

// TrackStarted reports that playback of uri began. The bridge remembers it
// as the current track for EndOfTrack.
func (b *Bridge) TrackStarted(uri string) error {
	b.trackMu.Lock()
	b.current = uri
	b.trackMu.Unlock()
	_, err := b.signal(CategoryPlayback, "track_started", "trackStarted", uri)
	return err
}

// TrackEnded reports that playback of uri stopped. forced is set when the
// track was stopped before its end.
func (b *Bridge) TrackEnded(uri string, forced bool) error {
	b.trackMu.Lock()
	if b.current == uri {
		b.current = ""
	}
	b.trackMu.Unlock()
	_, err := b.signal(CategoryPlayback, "track_ended", "trackEnded", uri, forced)
	return err
}

// EndOfTrack is the backend's end-of-track notification. It is reported as
// an unforced end of the current track, and dropped when no track started.
func (b *Bridge) EndOfTrack() error {
	b.trackMu.Lock()
	uri := b.current
	b.trackMu.Unlock()
	if uri == "" {
		b.log.Debug().Msg("end of track with no current track")
		return nil
	}
	return b.TrackEnded(uri, false)
}

// CurrentTrack returns the URI of the track last reported as started.
func (b *Bridge) CurrentTrack() string {
	b.trackMu.Lock()
	defer b.trackMu.Unlock()
	return b.current
}

// PlayTokenLost reports that another client took over playback.
func (b *Bridge) PlayTokenLost() error {
	_, err := b.signal(CategoryPlayback, "play_token_lost", "playTokenLost")
	return err
}

// StartPlayback is the backend's start-playback notification. With preload
// enabled the playback listener is asked for the next track and that track
// is prefetched. Otherwise it does nothing.
func (b *Bridge) StartPlayback() error {
	if !b.cfg.EnablePreload {
		return nil
	}
	out, err := b.signal(CategoryPlayback, "start_playback", "nextTrackToPreload")
	if err != nil {
		return err
	}
	uri, _ := out.(string)
	if uri == "" {
		return nil
	}
	return b.prefetch(uri)
}

func (b *Bridge) prefetch(uri string) error {
	if b.req == nil {
		return ErrNoRequester
	}
	h, err := b.req.Resolve(uri, backend.KindTrack)
	if err != nil {
		b.log.Warn().Err(err).Str("uri", uri).Msg("cannot resolve track to preload")
		return fmt.Errorf("%w: resolve %s: %v", ErrHandle, uri, err)
	}
	s := b.newScope(&b.log)
	s.adopt(h)
	defer s.close()

	if err := b.req.Prefetch(h); err != nil {
		b.log.Warn().Err(err).Str("uri", uri).Msg("prefetch failed")
		return fmt.Errorf("spgo: prefetch %s: %w", uri, err)
	}
	b.log.Debug().Str("uri", uri).Msg("prefetching next track")
	return nil
}

// MetadataUpdated is the backend's metadata-changed notification. It wakes
// the poller so pending loads are checked without waiting for the next tick.
func (b *Bridge) MetadataUpdated() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}
