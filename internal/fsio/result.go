package fsio

// Result is the outcome of a single Resume call. It has one of three
// shapes: suspended (Io is set, resume again with the handled request),
// failed (Err is set) or done (Value holds the output).
type Result[T any] struct {
	Value T
	Err   error
	Io    Io
}

// Coroutine is a resumable operation producing a T. Resume is called
// with nil the first time and with the handled request after every
// suspension.
type Coroutine[T any] interface {
	Resume(arg Io) Result[T]
}

// Done returns a successful Result.
func Done[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail returns a failed Result.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Suspend returns a Result asking the caller to perform io.
func Suspend[T any](io Io) Result[T] {
	return Result[T]{Io: io}
}

// Suspended reports whether the coroutine is waiting for an Io reply.
func (r Result[T]) Suspended() bool {
	return r.Io != nil
}
