//go:build !ios && !android && (amd64 || arm64)

package libspotify

import (
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/rs/zerolog"

	"github.com/obinnaokechukwu/spgo/backend"
	"github.com/obinnaokechukwu/spgo/internal/bindings"
	"github.com/obinnaokechukwu/spgo/internal/handles"
)

// request is the userdata of an asynchronous request. done runs once, on
// the libspotify thread, with a handle borrowed for the call.
type request struct {
	kind backend.Kind
	done func(backend.Handle)
}

var requests = handles.NewTable()

// Pre-registered completion callbacks, shared by every request so the
// purego callback limit is never reached.
var (
	callbacksOnce             sync.Once
	callbacksErr              error
	searchCompleteCallbackPtr uintptr
	albumBrowseCallbackPtr    uintptr
	artistBrowseCallbackPtr   uintptr
	imageLoadedCallbackPtr    uintptr
)

func initCallbacks() error {
	callbacksOnce.Do(func() {
		if !bindingsRegistered {
			callbacksErr = bindings.ErrNotLoaded
			return
		}
		// void search_complete_cb(sp_search *result, void *userdata)
		searchCompleteCallbackPtr = purego.NewCallback(func(_ purego.CDecl, search, userdata uintptr) {
			complete(userdata, backend.Handle{Kind: backend.KindSearch, Ptr: search}, spSearchRelease)
		})
		// void albumbrowse_complete_cb(sp_albumbrowse *result, void *userdata)
		albumBrowseCallbackPtr = purego.NewCallback(func(_ purego.CDecl, browse, userdata uintptr) {
			complete(userdata, backend.Handle{Kind: backend.KindAlbumBrowse, Ptr: browse}, spAlbumBrowseRelease)
		})
		// void artistbrowse_complete_cb(sp_artistbrowse *result, void *userdata)
		artistBrowseCallbackPtr = purego.NewCallback(func(_ purego.CDecl, browse, userdata uintptr) {
			complete(userdata, backend.Handle{Kind: backend.KindArtistBrowse, Ptr: browse}, spArtistBrowseRelease)
		})
		// void image_loaded_cb(sp_image *image, void *userdata)
		imageLoadedCallbackPtr = purego.NewCallback(func(_ purego.CDecl, image, userdata uintptr) {
			spImageRemoveLoadCb(image, imageLoadedCallbackPtr, userdata)
			complete(userdata, backend.Handle{Kind: backend.KindImage, Ptr: image}, nil)
		})
	})
	return callbacksErr
}

// complete runs the request registered under userdata and then drops the
// creation reference with release, if any.
func complete(userdata uintptr, h backend.Handle, release func(uintptr) int32) {
	if release != nil {
		defer release(h.Ptr)
	}
	v, ok := requests.Take(userdata)
	if !ok {
		return
	}
	req := v.(*request)
	if req.done != nil {
		req.done(h)
	}
}

// playlistCallbackTable mirrors sp_playlist_callbacks for API 12.
type playlistCallbackTable struct {
	TracksAdded              uintptr
	TracksRemoved            uintptr
	TracksMoved              uintptr
	PlaylistRenamed          uintptr
	PlaylistStateChanged     uintptr
	PlaylistUpdateInProgress uintptr
	PlaylistMetadataUpdated  uintptr
	TrackCreatedChanged      uintptr
	TrackSeenChanged         uintptr
	DescriptionChanged       uintptr
	ImageChanged             uintptr
	TrackMessageChanged      uintptr
	SubscribersChanged       uintptr
}

type playlistWatch struct {
	updated func(backend.Handle)
}

var playlistWatches = handles.NewTable()

// playlistCallbacks is shared by every watch; libspotify keeps a pointer to
// it, so it lives in package memory.
var (
	playlistCallbacksOnce sync.Once
	playlistCallbacksErr  error
	playlistCallbacks     playlistCallbackTable
)

func initPlaylistCallbacks() error {
	playlistCallbacksOnce.Do(func() {
		if !bindingsRegistered {
			playlistCallbacksErr = bindings.ErrNotLoaded
			return
		}
		// void cb(sp_playlist *pl, void *userdata)
		changed := purego.NewCallback(func(_ purego.CDecl, playlist, userdata uintptr) {
			playlistChanged(playlist, userdata)
		})
		playlistCallbacks.PlaylistRenamed = changed
		playlistCallbacks.PlaylistStateChanged = changed
		playlistCallbacks.PlaylistMetadataUpdated = changed
	})
	return playlistCallbacksErr
}

// playlistChanged runs the watch registered under userdata, if it is still
// registered.
func playlistChanged(playlist, userdata uintptr) {
	w, ok := playlistWatches.Lookup(userdata).(*playlistWatch)
	if !ok || w.updated == nil {
		return
	}
	defer func() { _ = recover() }()
	w.updated(backend.Handle{Kind: backend.KindPlaylist, Ptr: playlist})
}

// EventSink receives session events. *spgo.Bridge implements it.
type EventSink interface {
	Connected() error
	LoggedIn() error
	Disconnected() error
	LoggedOut() error
	PlayTokenLost() error
	EndOfTrack() error
	StartPlayback() error
	MetadataUpdated()
	LogNative(line string)
}

type sessionEntry struct {
	sink EventSink
	log  zerolog.Logger
}

var sessions = handles.NewTable()

// RegisterSession returns the value to store in sp_session_config.userdata
// so the callbacks in SessionCallbacks reach sink.
func RegisterSession(sink EventSink, log zerolog.Logger) uintptr {
	return sessions.Register(&sessionEntry{
		sink: sink,
		log:  log.With().Str("component", "libspotify-session").Logger(),
	})
}

// UnregisterSession forgets a value returned by RegisterSession. Call it
// after sp_session_release.
func UnregisterSession(userdata uintptr) {
	sessions.Unregister(userdata)
}

func sessionFor(session uintptr) *sessionEntry {
	if session == 0 {
		return nil
	}
	e, _ := sessions.Lookup(spSessionUserdata(session)).(*sessionEntry)
	return e
}

// sp_connectionstate
const (
	connectionLoggedOut    = 0
	connectionLoggedIn     = 1
	connectionDisconnected = 2
	connectionUndefined    = 3
	connectionOffline      = 4
)

// SessionCallbacks mirrors sp_session_callbacks for API 12. A zero field is
// a callback libspotify will not call. NewSessionCallbacks fills the ones
// this package routes; embedders add the rest (MusicDelivery,
// NotifyMainThread) themselves. The struct must stay reachable for the
// life of the session.
type SessionCallbacks struct {
	LoggedIn                  uintptr
	LoggedOut                 uintptr
	MetadataUpdated           uintptr
	ConnectionError           uintptr
	MessageToUser             uintptr
	NotifyMainThread          uintptr
	MusicDelivery             uintptr
	PlayTokenLost             uintptr
	LogMessage                uintptr
	EndOfTrack                uintptr
	StreamingError            uintptr
	UserinfoUpdated           uintptr
	StartPlayback             uintptr
	StopPlayback              uintptr
	GetAudioBufferStats       uintptr
	OfflineStatusUpdated      uintptr
	OfflineError              uintptr
	CredentialsBlobUpdated    uintptr
	ConnectionstateUpdated    uintptr
	ScrobbleError             uintptr
	PrivateSessionModeChanged uintptr
}

// Pointer returns the address to store in sp_session_config.callbacks.
func (c *SessionCallbacks) Pointer() unsafe.Pointer {
	return unsafe.Pointer(c)
}

var (
	sessionCallbacksOnce sync.Once
	sessionCallbacksErr  error
	sessionCallbacks     SessionCallbacks
)

// guard keeps a panic from unwinding into libspotify.
func guard(e *sessionEntry, event string) {
	if p := recover(); p != nil && e != nil {
		e.log.Error().Interface("panic", p).Str("event", event).Msg("session callback panicked")
	}
}

func initSessionCallbacks() error {
	sessionCallbacksOnce.Do(func() {
		if !bindingsRegistered {
			sessionCallbacksErr = bindings.ErrNotLoaded
			return
		}
		// void logged_in(sp_session *session, sp_error error)
		sessionCallbacks.LoggedIn = purego.NewCallback(func(_ purego.CDecl, session uintptr, code int32) {
			e := sessionFor(session)
			if e == nil {
				return
			}
			defer guard(e, "logged_in")
			if err := newError(code, "login"); err != nil {
				e.log.Error().Err(err).Msg("login failed")
				return
			}
			_ = e.sink.LoggedIn()
		})
		// void logged_out(sp_session *session)
		sessionCallbacks.LoggedOut = purego.NewCallback(func(_ purego.CDecl, session uintptr) {
			if e := sessionFor(session); e != nil {
				defer guard(e, "logged_out")
				_ = e.sink.LoggedOut()
			}
		})
		// void metadata_updated(sp_session *session)
		sessionCallbacks.MetadataUpdated = purego.NewCallback(func(_ purego.CDecl, session uintptr) {
			if e := sessionFor(session); e != nil {
				e.sink.MetadataUpdated()
			}
		})
		// void connection_error(sp_session *session, sp_error error)
		sessionCallbacks.ConnectionError = purego.NewCallback(func(_ purego.CDecl, session uintptr, code int32) {
			if e := sessionFor(session); e != nil {
				e.log.Warn().Err(newError(code, "connection")).Msg("connection error")
			}
		})
		// void play_token_lost(sp_session *session)
		sessionCallbacks.PlayTokenLost = purego.NewCallback(func(_ purego.CDecl, session uintptr) {
			if e := sessionFor(session); e != nil {
				defer guard(e, "play_token_lost")
				_ = e.sink.PlayTokenLost()
			}
		})
		// void log_message(sp_session *session, const char *data)
		sessionCallbacks.LogMessage = purego.NewCallback(func(_ purego.CDecl, session uintptr, data unsafe.Pointer) {
			if e := sessionFor(session); e != nil {
				e.sink.LogNative(goString(data))
			}
		})
		// void end_of_track(sp_session *session)
		sessionCallbacks.EndOfTrack = purego.NewCallback(func(_ purego.CDecl, session uintptr) {
			if e := sessionFor(session); e != nil {
				defer guard(e, "end_of_track")
				_ = e.sink.EndOfTrack()
			}
		})
		// void streaming_error(sp_session *session, sp_error error)
		sessionCallbacks.StreamingError = purego.NewCallback(func(_ purego.CDecl, session uintptr, code int32) {
			if e := sessionFor(session); e != nil {
				e.log.Warn().Err(newError(code, "streaming")).Msg("streaming error")
			}
		})
		// void start_playback(sp_session *session)
		sessionCallbacks.StartPlayback = purego.NewCallback(func(_ purego.CDecl, session uintptr) {
			if e := sessionFor(session); e != nil {
				defer guard(e, "start_playback")
				_ = e.sink.StartPlayback()
			}
		})
		// void connectionstate_updated(sp_session *session)
		sessionCallbacks.ConnectionstateUpdated = purego.NewCallback(func(_ purego.CDecl, session uintptr) {
			e := sessionFor(session)
			if e == nil {
				return
			}
			defer guard(e, "connectionstate_updated")
			switch state := spSessionConnectionState(session); state {
			case connectionLoggedIn:
				_ = e.sink.Connected()
			case connectionDisconnected:
				_ = e.sink.Disconnected()
			default:
				e.log.Debug().Int32("state", state).Msg("connection state changed")
			}
		})
	})
	return sessionCallbacksErr
}

// NewSessionCallbacks returns a callback table routing session events to
// the sink registered for each session with RegisterSession.
func NewSessionCallbacks() (*SessionCallbacks, error) {
	if err := initSessionCallbacks(); err != nil {
		return nil, err
	}
	cb := sessionCallbacks
	return &cb, nil
}
