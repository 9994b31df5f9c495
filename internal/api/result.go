package api

// Result carries either a value or the error that prevented producing it.
// The client's lowest layer returns Results so that each public operation
// states its own policy: fall back to a default, or hand the error up.
type Result[T any] struct {
	value T
	err   error
}

func Success[T any](v T) Result[T] { return Result[T]{value: v} }

func Failure[T any](err error) Result[T] { return Result[T]{err: err} }

func (r Result[T]) Ok() bool { return r.err == nil }

func (r Result[T]) Err() error { return r.err }

func (r Result[T]) Unwrap() (T, error) { return r.value, r.err }

// OrElse returns the value, or def when the result holds an error.
func (r Result[T]) OrElse(def T) T {
	if r.err != nil {
		return def
	}
	return r.value
}

// Then feeds a successful value through f. Errors pass through untouched.
func Then[T, U any](r Result[T], f func(T) (U, error)) Result[U] {
	if r.err != nil {
		return Failure[U](r.err)
	}
	u, err := f(r.value)
	if err != nil {
		return Failure[U](err)
	}
	return Success(u)
}
