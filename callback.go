package spgo

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/obinnaokechukwu/spgo/host"
)

// callback carries the state of one event being handled: its scope, its
// thread context once attached and a logger tagged with event and token.
type callback struct {
	b     *Bridge
	event string
	token int32
	log   zerolog.Logger
	scope *refScope

	ctx      *callContext
	ownedCtx bool
}

// callback runs fn as the handler for event. Whatever fn returns or raises,
// the scope is closed and the thread detached before returning. A non-nil
// result is a *CallbackError.
func (b *Bridge) callback(event string, token int32, fn func(cb *callback) error) error {
	return b.run(nil, event, token, fn)
}

// callbackWith is callback on a thread that is already attached.
func (b *Bridge) callbackWith(ctx *callContext, event string, token int32, fn func(cb *callback) error) error {
	return b.run(ctx, event, token, fn)
}

func (b *Bridge) run(ctx *callContext, event string, token int32, fn func(cb *callback) error) (err error) {
	cb := &callback{
		b:     b,
		event: event,
		token: token,
		log:   b.log.With().Str("event", event).Int32("token", token).Logger(),
		ctx:   ctx,
	}
	cb.scope = b.newScope(&cb.log)
	if ctx != nil {
		cb.scope.env = ctx.env
	}

	defer func() {
		if p := recover(); p != nil {
			cb.log.Error().Interface("panic", p).Msg("handler panicked")
			err = fmt.Errorf("%w: panic: %v", ErrInvocation, p)
		}
		cb.finish()
		callbacksTotal.WithLabelValues(event, outcome(err)).Inc()
		if err != nil {
			err = &CallbackError{Event: event, Token: token, Err: err}
		}
	}()
	return fn(cb)
}

// listener returns the registration for c or ErrNoListener.
func (cb *callback) listener(c Category) (*registration, error) {
	reg := cb.b.listeners.get(c)
	if reg == nil {
		cb.log.Error().Str("listener", c.String()).Msg("no listener registered; event dropped")
		return nil, fmt.Errorf("%w: %s", ErrNoListener, c)
	}
	return reg, nil
}

// attach enters the host runtime unless the callback already has a context.
func (cb *callback) attach() error {
	if cb.ctx != nil {
		return nil
	}
	ctx, err := cb.b.threads.enter()
	if err != nil {
		cb.log.Error().Err(err).Msg("cannot attach thread; event dropped")
		return err
	}
	cb.ctx = ctx
	cb.ownedCtx = true
	cb.scope.env = ctx.env
	return nil
}

func (cb *callback) env() host.Env { return cb.ctx.env }

// newObject creates an instance of class that lives until the callback ends.
func (cb *callback) newObject(class string) (host.Ref, error) {
	obj, err := cb.env().NewObject(class)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMarshal, class, err)
	}
	cb.scope.local(obj)
	return obj, nil
}

func (cb *callback) finish() {
	cb.scope.close()
	if cb.ownedCtx {
		cb.b.threads.exit(cb.ctx)
		cb.ctx = nil
	}
}
