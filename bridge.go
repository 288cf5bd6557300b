package spgo

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/obinnaokechukwu/spgo/backend"
	"github.com/obinnaokechukwu/spgo/host"
)

// Bridge delivers backend events to managed listeners.
type Bridge struct {
	cfg   Config
	be    backend.Backend
	req   backend.Requester
	watch backend.Watcher
	rt    host.Runtime

	log       zerolog.Logger
	nativeLog zerolog.Logger
	logSet    bool

	threads   *threadAdapter
	listeners listenerRegistry
	pending   pendingQueue
	wake      chan struct{}
	closed    atomic.Bool

	trackMu sync.Mutex
	current string
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(b *Bridge) { b.cfg = cfg }
}

// WithLogger sets the logger. Without it the bridge logs JSON to stderr at
// the configured level.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Bridge) {
		b.log = l
		b.logSet = true
	}
}

// WithRequester sets the requester used by Search, Load, browsing and
// preload. It defaults to the backend when that implements Requester.
func WithRequester(r backend.Requester) Option {
	return func(b *Bridge) { b.req = r }
}

// WithWatcher sets the watcher used by LoadImage and WatchPlaylist. It
// defaults to the backend when that implements Watcher.
func WithWatcher(w backend.Watcher) Option {
	return func(b *Bridge) { b.watch = w }
}

// New returns a bridge between be and rt.
func New(be backend.Backend, rt host.Runtime, opts ...Option) (*Bridge, error) {
	if be == nil {
		return nil, errors.New("spgo: nil backend")
	}
	if rt == nil {
		return nil, errors.New("spgo: nil runtime")
	}
	b := &Bridge{
		cfg:  DefaultConfig(),
		be:   be,
		rt:   rt,
		wake: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	if b.req == nil {
		if r, ok := be.(backend.Requester); ok {
			b.req = r
		}
	}
	if b.watch == nil {
		if w, ok := be.(backend.Watcher); ok {
			b.watch = w
		}
	}
	if !b.logSet {
		b.log = NewLogger(nil, b.cfg.LogLevel)
	}
	base := b.log
	b.log = base.With().Str("component", "bridge").Logger()
	b.nativeLog = base.With().Str("component", "libspotify").Logger()
	b.threads = newThreadAdapter(rt, b.log)
	return b, nil
}

// Config returns the bridge's configuration.
func (b *Bridge) Config() Config { return b.cfg }

// Close unregisters the listeners and unpins them. Entries still pending
// are released when DrainOnClose is set and abandoned otherwise. Backend
// callbacks must have stopped before Close is called.
func (b *Bridge) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	n := b.pending.shut()
	ctx, err := b.threads.enter()
	if err != nil {
		b.log.Error().Err(err).Int("pending", n).Msg("cannot attach to close bridge; listener references leaked")
		return err
	}
	defer b.threads.exit(ctx)

	for c := Category(0); c < numCategories; c++ {
		if reg := b.listeners.take(c); reg != nil {
			b.deleteGlobal(ctx.env, reg.obj)
		}
	}

	if b.cfg.DrainOnClose {
		if n = b.drainPending(ctx); n > 0 {
			b.log.Info().Int("entries", n).Msg("released pending loads")
		}
	} else if n > 0 {
		b.log.Warn().Int("entries", n).Msg("abandoning pending loads")
	}
	b.log.Debug().Msg("bridge closed")
	return nil
}
