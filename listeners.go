package spgo

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/obinnaokechukwu/spgo/host"
)

// Category selects one of the listener slots.
type Category int

const (
	CategoryConnection Category = iota
	CategoryPlayback
	CategorySearch
	CategoryMediaLoaded

	numCategories
)

func (c Category) String() string {
	switch c {
	case CategoryConnection:
		return "connection"
	case CategoryPlayback:
		return "playback"
	case CategorySearch:
		return "search"
	case CategoryMediaLoaded:
		return "media_loaded"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// registration is an installed listener. obj is a global reference owned by
// the bridge until Close.
type registration struct {
	category Category
	obj      host.Ref

	// resolved methods by name
	methods sync.Map
}

func (r *registration) method(env host.Env, name string, arity int) (host.Method, error) {
	if m, ok := r.methods.Load(name); ok {
		return m.(host.Method), nil
	}
	m, err := env.Method(r.obj, name, arity)
	if err != nil {
		return host.Method{}, err
	}
	r.methods.Store(name, m)
	return m, nil
}

// listenerRegistry holds one listener per category. Each slot is written
// once and then only read, so lookups take no lock.
type listenerRegistry struct {
	slots [numCategories]atomic.Pointer[registration]
}

func (r *listenerRegistry) get(c Category) *registration {
	if c < 0 || c >= numCategories {
		return nil
	}
	return r.slots[c].Load()
}

func (r *listenerRegistry) set(reg *registration) bool {
	return r.slots[reg.category].CompareAndSwap(nil, reg)
}

func (r *listenerRegistry) take(c Category) *registration {
	return r.slots[c].Swap(nil)
}

// SetListener registers obj as the listener for c. The bridge pins its own
// global reference to obj, so the caller keeps ownership of the one passed
// in. Each category can be set once.
func (b *Bridge) SetListener(c Category, obj host.Ref) error {
	if c < 0 || c >= numCategories {
		return fmt.Errorf("spgo: unknown listener category %d", int(c))
	}
	if obj.IsNil() {
		return errors.New("spgo: nil listener")
	}
	if b.closed.Load() {
		return ErrClosed
	}
	if b.listeners.get(c) != nil {
		return ErrListenerAlreadySet
	}

	ctx, err := b.threads.enter()
	if err != nil {
		return err
	}
	defer b.threads.exit(ctx)

	g, err := ctx.env.NewGlobalRef(obj)
	if err != nil {
		return fmt.Errorf("spgo: pin %s listener: %w", c, err)
	}
	globalPins.Inc()
	if !b.listeners.set(&registration{category: c, obj: g}) {
		b.deleteGlobal(ctx.env, g)
		return ErrListenerAlreadySet
	}
	b.log.Debug().Str("listener", c.String()).Msg("listener registered")
	return nil
}

// HasListener reports whether a listener is registered for c.
func (b *Bridge) HasListener(c Category) bool {
	return b.listeners.get(c) != nil
}

// invoke calls name on the listener in reg. Failures are logged here, the
// returned error only carries the status.
func (b *Bridge) invoke(cb *callback, reg *registration, name string, args ...any) (any, error) {
	env := cb.ctx.env
	m, err := reg.method(env, name, len(args))
	if err != nil {
		cb.log.Error().Err(err).
			Str("listener", reg.category.String()).
			Str("method", name).
			Msg("listener does not implement the expected method")
		return nil, fmt.Errorf("%w: %s.%s: %v", ErrMethodLookup, reg.category, name, err)
	}
	out, err := env.Call(reg.obj, m, args...)
	if err != nil {
		cb.log.Error().Err(err).
			Str("listener", reg.category.String()).
			Str("method", name).
			Msg("listener raised while handling event")
		return nil, fmt.Errorf("%w: %s.%s: %w", ErrInvocation, reg.category, name, err)
	}
	return out, nil
}
