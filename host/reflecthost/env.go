package reflecthost

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/obinnaokechukwu/spgo/host"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type env struct {
	rt       *Runtime
	mu       sync.Mutex
	locals   map[host.Ref]struct{}
	detached bool
}

var _ host.Env = (*env)(nil)

func (e *env) newLocal(v any) (host.Ref, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return 0, fmt.Errorf("%w: env detached", host.ErrInvalidRef)
	}
	ref := host.Ref(e.rt.refs.Register(&entry{v: v, owner: e}))
	e.locals[ref] = struct{}{}
	return ref, nil
}

func (e *env) value(ref host.Ref) (any, error) {
	ent, ok := e.rt.refs.Lookup(uintptr(ref)).(*entry)
	if !ok {
		return nil, fmt.Errorf("%w: %d", host.ErrInvalidRef, ref)
	}
	if !ent.global && ent.owner != e {
		return nil, fmt.Errorf("%w: local ref %d used outside its context", host.ErrInvalidRef, ref)
	}
	return ent.v, nil
}

func (e *env) NewObject(class string) (host.Ref, error) {
	e.rt.mu.RLock()
	ctor, ok := e.rt.classes[class]
	e.rt.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: %s", host.ErrClassNotFound, class)
	}
	return e.newLocal(ctor())
}

func (e *env) NewList() (host.Ref, error) {
	return e.newLocal(&list{})
}

func (e *env) Append(listRef, item host.Ref) error {
	lv, err := e.value(listRef)
	if err != nil {
		return err
	}
	l, ok := lv.(*list)
	if !ok {
		return fmt.Errorf("%w: %d is not a list", host.ErrInvalidRef, listRef)
	}
	iv, err := e.value(item)
	if err != nil {
		return err
	}
	l.items = append(l.items, iv)
	return nil
}

func (e *env) field(obj host.Ref, name string) (reflect.Value, error) {
	v, err := e.value(obj)
	if err != nil {
		return reflect.Value{}, err
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%w: %T has no fields", host.ErrFieldNotFound, v)
	}
	s := rv.Elem()
	idx, ok := e.rt.fieldIndex(s.Type(), name)
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w: %s.%s", host.ErrFieldNotFound, s.Type(), name)
	}
	f := s.FieldByIndex(idx)
	if !f.CanSet() {
		return reflect.Value{}, fmt.Errorf("%w: %s.%s is not settable", host.ErrFieldNotFound, s.Type(), name)
	}
	return f, nil
}

func mismatch(f reflect.Value, name, want string) error {
	return fmt.Errorf("%w: %s is %s, not %s", host.ErrFieldType, name, f.Type(), want)
}

func (e *env) SetString(obj host.Ref, name, value string) error {
	f, err := e.field(obj, name)
	if err != nil {
		return err
	}
	if f.Kind() != reflect.String {
		return mismatch(f, name, "string")
	}
	f.SetString(value)
	return nil
}

func (e *env) SetBool(obj host.Ref, name string, value bool) error {
	f, err := e.field(obj, name)
	if err != nil {
		return err
	}
	if f.Kind() != reflect.Bool {
		return mismatch(f, name, "bool")
	}
	f.SetBool(value)
	return nil
}

func (e *env) SetInt(obj host.Ref, name string, value int32) error {
	f, err := e.field(obj, name)
	if err != nil {
		return err
	}
	if !f.CanInt() {
		return mismatch(f, name, "int")
	}
	f.SetInt(int64(value))
	return nil
}

func (e *env) SetBytes(obj host.Ref, name string, value []byte) error {
	f, err := e.field(obj, name)
	if err != nil {
		return err
	}
	if f.Kind() != reflect.Slice || f.Type().Elem().Kind() != reflect.Uint8 {
		return mismatch(f, name, "[]byte")
	}
	f.SetBytes(append([]byte(nil), value...))
	return nil
}

func (e *env) SetObject(obj host.Ref, name string, value host.Ref) error {
	f, err := e.field(obj, name)
	if err != nil {
		return err
	}
	v, err := e.convertRef(value, f.Type())
	if err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}
	f.Set(v)
	return nil
}

// convertRef turns a ref into a value of type t. Lists become slices of t.
func (e *env) convertRef(ref host.Ref, t reflect.Type) (reflect.Value, error) {
	if ref.IsNil() {
		return reflect.Zero(t), nil
	}
	v, err := e.value(ref)
	if err != nil {
		return reflect.Value{}, err
	}
	if l, ok := v.(*list); ok {
		if t.Kind() != reflect.Slice {
			return reflect.Value{}, fmt.Errorf("%w: list into %s", host.ErrFieldType, t)
		}
		out := reflect.MakeSlice(t, 0, len(l.items))
		for _, it := range l.items {
			iv := reflect.ValueOf(it)
			if !iv.Type().AssignableTo(t.Elem()) {
				return reflect.Value{}, fmt.Errorf("%w: %s into []%s", host.ErrFieldType, iv.Type(), t.Elem())
			}
			out = reflect.Append(out, iv)
		}
		return out, nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%w: %s into %s", host.ErrFieldType, rv.Type(), t)
	}
	return rv, nil
}

func (e *env) Method(obj host.Ref, name string, arity int) (host.Method, error) {
	v, err := e.value(obj)
	if err != nil {
		return host.Method{}, err
	}
	t := reflect.TypeOf(v)
	m, ok := t.MethodByName(exportedName(name))
	if !ok {
		return host.Method{}, fmt.Errorf("%w: %s.%s", host.ErrMethodNotFound, t, name)
	}
	// m.Type includes the receiver.
	if got := m.Type.NumIn() - 1; got != arity {
		return host.Method{}, fmt.Errorf("%w: %s.%s takes %d arguments, want %d", host.ErrMethodNotFound, t, name, got, arity)
	}
	return host.Method{Name: name, Arity: arity, ID: m.Index}, nil
}

func (e *env) Call(obj host.Ref, m host.Method, args ...any) (any, error) {
	v, err := e.value(obj)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(v)
	if m.ID < 0 || m.ID >= rv.NumMethod() || rv.Type().Method(m.ID).Name != exportedName(m.Name) {
		return nil, fmt.Errorf("%w: stale method id for %s", host.ErrMethodNotFound, m.Name)
	}
	fn := rv.Method(m.ID)
	ft := fn.Type()
	if len(args) != ft.NumIn() {
		return nil, fmt.Errorf("%w: %s called with %d arguments, takes %d", host.ErrMethodNotFound, m.Name, len(args), ft.NumIn())
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		av, err := e.argValue(a, ft.In(i))
		if err != nil {
			return nil, fmt.Errorf("%s argument %d: %w", m.Name, i, err)
		}
		in[i] = av
	}

	out, err := invoke(fn, in, m.Name)
	if err != nil {
		return nil, err
	}
	return e.result(out, m.Name)
}

func (e *env) argValue(a any, t reflect.Type) (reflect.Value, error) {
	if ref, ok := a.(host.Ref); ok {
		return e.convertRef(ref, t)
	}
	if a == nil {
		return reflect.Zero(t), nil
	}
	av := reflect.ValueOf(a)
	switch {
	case av.Type().AssignableTo(t):
		return av, nil
	case av.Type().ConvertibleTo(t) && av.Kind() != reflect.String && t.Kind() != reflect.String:
		return av.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %s into %s", host.ErrFieldType, av.Type(), t)
}

func invoke(fn reflect.Value, in []reflect.Value, name string) (out []reflect.Value, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &host.InvocationError{Method: name, Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	return fn.Call(in), nil
}

func (e *env) result(out []reflect.Value, name string) (any, error) {
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if !out[n-1].IsNil() {
			return nil, &host.InvocationError{Method: name, Err: out[n-1].Interface().(error)}
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	r := out[0]
	switch r.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		if r.IsNil() {
			return nil, nil
		}
		return e.newLocal(r.Interface())
	case reflect.Struct:
		return e.newLocal(r.Interface())
	}
	return r.Interface(), nil
}

func (e *env) NewGlobalRef(ref host.Ref) (host.Ref, error) {
	v, err := e.value(ref)
	if err != nil {
		return 0, err
	}
	return e.rt.Pin(v), nil
}

func (e *env) DeleteGlobalRef(ref host.Ref) error {
	return e.rt.deleteGlobal(ref)
}

func (e *env) DeleteLocalRef(ref host.Ref) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.locals[ref]; !ok {
		return
	}
	delete(e.locals, ref)
	e.rt.refs.Unregister(uintptr(ref))
}

// IsInvocation reports whether err was raised by managed code.
func IsInvocation(err error) bool {
	var ie *host.InvocationError
	return errors.As(err, &ie)
}
