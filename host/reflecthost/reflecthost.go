// Package reflecthost is a host.Runtime for Go programs: managed objects are
// ordinary Go values and listener methods are ordinary Go methods.
//
// Fields are matched by their `host:"name"` tag, falling back to a
// case-insensitive match on the Go field name. Method names are matched
// after upper-casing the first letter, so "searchCompleted" resolves to
// SearchCompleted. A method whose last result is a non-nil error, or that
// panics, is reported as a *host.InvocationError.
package reflecthost

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"github.com/obinnaokechukwu/spgo/host"
	"github.com/obinnaokechukwu/spgo/internal/handles"
)

type entry struct {
	v      any
	global bool
	owner  *env
}

// list is the managed representation of a list under construction.
type list struct {
	items []any
}

// Runtime implements host.Runtime.
type Runtime struct {
	mu      sync.RWMutex
	classes map[string]func() any

	refs       *handles.Table
	globals    atomic.Int64
	attached   atomic.Int64
	attaches   atomic.Int64
	attachHook func() error

	fields sync.Map // fieldKey -> []int
}

type fieldKey struct {
	t    reflect.Type
	name string
}

var _ host.Runtime = (*Runtime)(nil)

// Option configures a Runtime.
type Option func(*Runtime)

// WithClasses registers class constructors.
func WithClasses(classes map[string]func() any) Option {
	return func(r *Runtime) {
		for name, ctor := range classes {
			r.classes[name] = ctor
		}
	}
}

// WithAttachHook runs fn on every Attach; a non-nil error fails the attach.
func WithAttachHook(fn func() error) Option {
	return func(r *Runtime) { r.attachHook = fn }
}

// New returns a runtime with no classes registered.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		classes: make(map[string]func() any),
		refs:    handles.NewTable(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterClass adds or replaces the constructor for class.
func (r *Runtime) RegisterClass(class string, ctor func() any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[class] = ctor
}

// Pin creates a global ref to v. Embedders use it to hand their own objects
// (listeners, objects to be loaded) to the bridge.
func (r *Runtime) Pin(v any) host.Ref {
	r.globals.Add(1)
	return host.Ref(r.refs.Register(&entry{v: v, global: true}))
}

// Unpin deletes a global ref created by Pin or NewGlobalRef.
func (r *Runtime) Unpin(ref host.Ref) error {
	return r.deleteGlobal(ref)
}

// Value returns the Go value behind any live ref, or nil.
func (r *Runtime) Value(ref host.Ref) any {
	if e, ok := r.refs.Lookup(uintptr(ref)).(*entry); ok {
		return e.v
	}
	return nil
}

// GlobalRefs returns the number of live global refs.
func (r *Runtime) GlobalRefs() int { return int(r.globals.Load()) }

// LocalRefs returns the number of live local refs across all contexts.
func (r *Runtime) LocalRefs() int { return r.refs.Count() - r.GlobalRefs() }

// Attached returns the number of contexts currently attached.
func (r *Runtime) Attached() int { return int(r.attached.Load()) }

// Attaches returns the total number of successful attaches.
func (r *Runtime) Attaches() int64 { return r.attaches.Load() }

// Attach implements host.Runtime.
func (r *Runtime) Attach() (host.Env, error) {
	if r.attachHook != nil {
		if err := r.attachHook(); err != nil {
			return nil, fmt.Errorf("%w: %v", host.ErrAttach, err)
		}
	}
	r.attached.Add(1)
	r.attaches.Add(1)
	return &env{rt: r, locals: make(map[host.Ref]struct{})}, nil
}

// Detach implements host.Runtime. Remaining local refs are freed.
func (r *Runtime) Detach(he host.Env) error {
	e, ok := he.(*env)
	if !ok || e.rt != r {
		return fmt.Errorf("%w: env not attached to this runtime", host.ErrInvalidRef)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return fmt.Errorf("%w: env already detached", host.ErrInvalidRef)
	}
	for ref := range e.locals {
		r.refs.Unregister(uintptr(ref))
	}
	e.locals = nil
	e.detached = true
	r.attached.Add(-1)
	return nil
}

func (r *Runtime) deleteGlobal(ref host.Ref) error {
	e, ok := r.refs.Lookup(uintptr(ref)).(*entry)
	if !ok || !e.global {
		return fmt.Errorf("%w: %d is not a global ref", host.ErrInvalidRef, ref)
	}
	if !r.refs.Unregister(uintptr(ref)) {
		return fmt.Errorf("%w: %d already deleted", host.ErrInvalidRef, ref)
	}
	r.globals.Add(-1)
	return nil
}

func (r *Runtime) fieldIndex(t reflect.Type, name string) ([]int, bool) {
	key := fieldKey{t, name}
	if idx, ok := r.fields.Load(key); ok {
		return idx.([]int), true
	}
	var found []int
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("host") == name {
			found = t.Field(i).Index
			break
		}
	}
	if found == nil {
		if f, ok := t.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) }); ok {
			found = f.Index
		}
	}
	if found == nil {
		return nil, false
	}
	r.fields.Store(key, found)
	return found, true
}

func exportedName(name string) string {
	first, size := utf8.DecodeRuneInString(name)
	if first == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(first)) + name[size:]
}
