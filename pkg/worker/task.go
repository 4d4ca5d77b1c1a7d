package worker

import (
	"reflect"

	"github.com/jzx17/pinpool/pkg/types"
)

// FuncTask calls Fn with Args and a pointer to caller-owned result storage.
// The caller keeps Result alive until the task has run and reads it after
// its own synchronization point (for example Pool.WaitAll).
type FuncTask[A, R any] struct {
	Fn     func(args A, result *R)
	Args   A
	Result *R
}

// NewTask creates a typed task
func NewTask[A, R any](fn func(args A, result *R), args A, result *R) *FuncTask[A, R] {
	return &FuncTask[A, R]{
		Fn:     fn,
		Args:   args,
		Result: result,
	}
}

// Execute executes the task
func (t *FuncTask[A, R]) Execute() {
	t.Fn(t.Args, t.Result)
}

// Validate checks that the function and result handles are present
func (t *FuncTask[A, R]) Validate() error {
	if t == nil {
		return types.Errorf(types.ErrInvalidArgument, "task is nil")
	}
	if t.Fn == nil {
		return types.Errorf(types.ErrInvalidArgument, "task has no function")
	}
	if t.Result == nil {
		return types.Errorf(types.ErrInvalidArgument, "task has no result storage")
	}
	if isNilHandle(t.Args) {
		return types.Errorf(types.ErrInvalidArgument, "task has no arguments")
	}
	return nil
}

// isNilHandle reports whether v is a nil pointer-like value. Value types
// such as ints and structs are always present.
func isNilHandle(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

// TaskFunc adapts a closure to the Task interface. The closure captures its
// own inputs and outputs.
type TaskFunc func()

// Execute executes the task
func (f TaskFunc) Execute() {
	f()
}

// Validate rejects a nil closure
func (f TaskFunc) Validate() error {
	if f == nil {
		return types.Errorf(types.ErrInvalidArgument, "task function is nil")
	}
	return nil
}
