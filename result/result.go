// Package result provides a two-variant Ok/Err container for chaining
// fallible pipeline steps without using panics as control flow.
package result

import "fmt"

// Result holds either a value or an error, never both.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err wraps a failure. A nil error is normalized to a non-nil one so the
// Err variant is always observable.
func Err[T any](err error) Result[T] {
	if err == nil {
		err = fmt.Errorf("unspecified error")
	}
	return Result[T]{err: err}
}

// Errf wraps a formatted failure.
func Errf[T any](format string, args ...any) Result[T] {
	return Err[T](fmt.Errorf(format, args...))
}

// IsOk reports whether the result holds a value.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Error returns the contained error, or nil for Ok.
func (r Result[T]) Error() error {
	return r.err
}

// Unpack returns the contained value and error in Go's usual shape.
func (r Result[T]) Unpack() (T, error) {
	return r.value, r.err
}

// Value returns the contained value. Only meaningful when IsOk.
func (r Result[T]) Value() T {
	return r.value
}

// Map applies f to the contained value and wraps the outcome in Ok. A panic
// inside f becomes an Err instead of unwinding the caller. On Err, f is
// never invoked and the error propagates unchanged.
func Map[T, U any](r Result[T], f func(T) U) (out Result[U]) {
	if r.err != nil {
		return Err[U](r.err)
	}
	defer func() {
		if p := recover(); p != nil {
			out = Errf[U]("recovered: %v", p)
		}
	}()
	return Ok(f(r.value))
}

// Bind chains a step that can itself fail. On Ok it returns f's result
// directly, with the same panic capture as Map. On Err, f is never invoked
// and the error propagates unchanged.
func Bind[T, U any](r Result[T], f func(T) Result[U]) (out Result[U]) {
	if r.err != nil {
		return Err[U](r.err)
	}
	defer func() {
		if p := recover(); p != nil {
			out = Errf[U]("recovered: %v", p)
		}
	}()
	return f(r.value)
}

// Then is Bind specialized to a same-typed step, usable in method position.
func (r Result[T]) Then(f func(T) Result[T]) Result[T] {
	return Bind(r, f)
}
