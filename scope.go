package spgo

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/obinnaokechukwu/spgo/backend"
	"github.com/obinnaokechukwu/spgo/host"
)

// refScope owns the native references and managed references taken while
// handling one event. close gives all of them back, newest first, whatever
// path the handler left by.
//
// A scope is used by one goroutine at a time.
type refScope struct {
	b   *Bridge
	log *zerolog.Logger
	env host.Env

	handles []backend.Handle
	globals []host.Ref
	locals  []host.Ref
}

func (b *Bridge) newScope(log *zerolog.Logger) *refScope {
	return &refScope{b: b, log: log}
}

// child returns a scope sharing s's context, for per-item cleanup.
func (s *refScope) child() *refScope {
	return &refScope{b: s.b, log: s.log, env: s.env}
}

// acquire takes a reference on a borrowed handle.
func (s *refScope) acquire(h backend.Handle) error {
	if h.IsNil() {
		return fmt.Errorf("%w: nil %s handle", ErrHandle, h.Kind)
	}
	if err := s.b.be.AddRef(h); err != nil {
		return fmt.Errorf("%w: add ref %s: %v", ErrHandle, h, err)
	}
	s.adopt(h)
	return nil
}

// adopt takes ownership of a reference the caller already holds.
func (s *refScope) adopt(h backend.Handle) {
	handleAcquires.WithLabelValues(h.Kind.String()).Inc()
	s.handles = append(s.handles, h)
}

// link creates an owned link for h.
func (s *refScope) link(h backend.Handle) (backend.Handle, error) {
	l, err := s.b.be.CreateLink(h)
	if err != nil {
		return backend.Handle{}, fmt.Errorf("%w: link for %s: %v", ErrHandle, h, err)
	}
	if l.IsNil() {
		return backend.Handle{}, fmt.Errorf("%w: no link for %s", ErrHandle, h)
	}
	s.adopt(l)
	return l, nil
}

// pin takes a global reference on ref.
func (s *refScope) pin(ref host.Ref) (host.Ref, error) {
	g, err := s.env.NewGlobalRef(ref)
	if err != nil {
		return 0, fmt.Errorf("spgo: pin object: %w", err)
	}
	globalPins.Inc()
	s.globals = append(s.globals, g)
	return g, nil
}

// adoptGlobal takes ownership of a global reference pinned earlier.
func (s *refScope) adoptGlobal(g host.Ref) {
	if !g.IsNil() {
		s.globals = append(s.globals, g)
	}
}

// restore takes back a handle and a global given away by commit.
func (s *refScope) restore(h backend.Handle, g host.Ref) {
	if !h.IsNil() {
		s.handles = append(s.handles, h)
	}
	s.adoptGlobal(g)
}

// disown hands g to someone else. It reports false if s did not own g.
func (s *refScope) disown(g host.Ref) bool {
	for i := len(s.globals) - 1; i >= 0; i-- {
		if s.globals[i] == g {
			s.globals = append(s.globals[:i], s.globals[i+1:]...)
			return true
		}
	}
	return false
}

// local records a local reference to drop on close.
func (s *refScope) local(ref host.Ref) {
	if !ref.IsNil() {
		s.locals = append(s.locals, ref)
	}
}

// commit gives up ownership of everything taken so far.
func (s *refScope) commit() {
	s.handles = nil
	s.globals = nil
	s.locals = nil
}

func (s *refScope) close() {
	if s.env != nil {
		for i := len(s.locals) - 1; i >= 0; i-- {
			s.env.DeleteLocalRef(s.locals[i])
		}
	}
	s.locals = nil

	if len(s.globals) > 0 {
		s.releaseGlobals()
	}

	for i := len(s.handles) - 1; i >= 0; i-- {
		h := s.handles[i]
		handleReleases.WithLabelValues(h.Kind.String()).Inc()
		if err := s.b.be.Release(h); err != nil {
			handleReleaseErrors.Inc()
			s.log.Error().Err(err).Str("handle", h.String()).Msg("native release failed")
		}
	}
	s.handles = nil
}

// releaseGlobals unpins owned global references. Without a context it
// attaches for the purpose; if that fails too the references leak.
func (s *refScope) releaseGlobals() {
	env := s.env
	if env == nil {
		ctx, err := s.b.threads.enter()
		if err != nil {
			globalLeaks.Add(float64(len(s.globals)))
			s.log.Error().Err(err).Int("refs", len(s.globals)).Msg("cannot attach to unpin objects; global references leaked")
			s.globals = nil
			return
		}
		defer s.b.threads.exit(ctx)
		env = ctx.env
	}
	for i := len(s.globals) - 1; i >= 0; i-- {
		s.b.deleteGlobal(env, s.globals[i])
	}
	s.globals = nil
}

func (b *Bridge) deleteGlobal(env host.Env, g host.Ref) {
	globalUnpins.Inc()
	if err := env.DeleteGlobalRef(g); err != nil {
		b.log.Error().Err(err).Msg("failed to delete global reference")
	}
}
