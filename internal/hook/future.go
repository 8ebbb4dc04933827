package hook

import (
	"context"
	"sync"
)

// Future is the eventual result of a dispatch started with Engine.Start.
type Future struct {
	done  chan struct{}
	mu    sync.Mutex
	res   Result
	thens []func(Result)
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(res Result) {
	f.mu.Lock()
	f.res = res
	thens := f.thens
	f.thens = nil
	close(f.done)
	f.mu.Unlock()

	for _, fn := range thens {
		fn(res)
	}
}

// Done is closed when the result is available.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the result is available.
func (f *Future) Wait() Result {
	<-f.done
	return f.res
}

// WaitContext is Wait bounded by ctx.
func (f *Future) WaitContext(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Then calls fn with the result. On a cooperative host fn runs on the
// scheduler, as the last step of the dispatch; if the dispatch already
// finished, fn runs right away on the caller.
func (f *Future) Then(fn func(Result)) {
	f.mu.Lock()
	select {
	case <-f.done:
		res := f.res
		f.mu.Unlock()
		fn(res)
		return
	default:
	}
	f.thens = append(f.thens, fn)
	f.mu.Unlock()
}
