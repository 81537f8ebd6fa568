package fsio

import "context"

// Run drives co to completion: every emitted request is handled by exec
// and fed back until the coroutine is done or fails.
func Run[T any](ctx context.Context, exec Executor, co Coroutine[T]) (T, error) {
	var arg Io
	for {
		res := co.Resume(arg)
		if !res.Suspended() {
			return res.Value, res.Err
		}

		if err := exec.Handle(ctx, res.Io); err != nil {
			var zero T
			return zero, err
		}
		arg = res.Io
	}
}
