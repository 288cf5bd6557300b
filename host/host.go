// Package host defines the contract the bridge needs from the managed
// runtime that owns listener and result objects.
//
// The bridge never inspects managed objects. It constructs them by class
// name, sets named fields of a known semantic type, builds lists, resolves
// listener methods by name and arity, and invokes them. References come in
// two flavours: local refs are valid until the Env they were created in is
// detached, global refs stay valid until DeleteGlobalRef.
package host

import (
	"errors"
	"fmt"
)

// Ref is an opaque reference to a managed object. The zero Ref is null.
type Ref uintptr

// IsNil reports whether r is the null reference.
func (r Ref) IsNil() bool { return r == 0 }

// Method identifies a resolved listener method. IDs are only meaningful to
// the runtime that issued them but stay valid for the lifetime of the object
// they were resolved against.
type Method struct {
	Name  string
	Arity int
	ID    int
}

// Runtime attaches native threads to the managed runtime.
type Runtime interface {
	// Attach makes the calling OS thread usable by the runtime and returns
	// its execution context.
	Attach() (Env, error)
	// Detach releases a context obtained from Attach. Local refs created
	// through env become invalid.
	Detach(env Env) error
}

// Env is an attached execution context. An Env must only be used on the
// thread that attached it.
type Env interface {
	NewObject(class string) (Ref, error)
	NewList() (Ref, error)
	Append(list, item Ref) error

	SetString(obj Ref, field, value string) error
	SetBool(obj Ref, field string, value bool) error
	SetInt(obj Ref, field string, value int32) error
	SetBytes(obj Ref, field string, value []byte) error
	SetObject(obj Ref, field string, value Ref) error

	// Method resolves name with the given arity on obj.
	Method(obj Ref, name string, arity int) (Method, error)
	// Call invokes m on obj. Arguments are Refs or plain Go values
	// (string, bool, int32, []byte). A failure raised by the managed code
	// is returned as an *InvocationError.
	Call(obj Ref, m Method, args ...any) (any, error)

	NewGlobalRef(ref Ref) (Ref, error)
	DeleteGlobalRef(ref Ref) error
	DeleteLocalRef(ref Ref)
}

var (
	ErrClassNotFound  = errors.New("host: class not found")
	ErrFieldNotFound  = errors.New("host: field not found")
	ErrFieldType      = errors.New("host: field type mismatch")
	ErrMethodNotFound = errors.New("host: method not found")
	ErrInvalidRef     = errors.New("host: invalid reference")
	ErrAttach         = errors.New("host: attach failed")
)

// InvocationError is a failure raised by managed code during Call.
type InvocationError struct {
	Method string
	Err    error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("host: %s raised: %v", e.Method, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }
