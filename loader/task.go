package loader

import (
	"context"
	"sync/atomic"

	"github.com/scipunch/articleviewer/parser"
)

// Task is the pending result of a load running on its own goroutine
type Task[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	value  T
	err    error
}

// Go starts fn on a new goroutine. Canceling the task cancels the context
// passed to fn.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(t.done)
		defer cancel()
		t.value, t.err = fn(ctx)
	}()
	return t
}

// Done is closed once the result is available
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Result blocks until the task finishes
func (t *Task[T]) Result() (T, error) {
	<-t.done
	return t.value, t.err
}

// Wait blocks until the task finishes or ctx is done
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (t *Task[T]) Cancel() {
	t.cancel()
}

// Latest tells whether a result still belongs to the most recent request
// of its kind. Results of superseded requests are dropped by the caller.
type Latest struct {
	gen atomic.Uint64
}

// Next starts a new request and supersedes all earlier ones
func (l *Latest) Next() uint64 {
	return l.gen.Add(1)
}

func (l *Latest) IsCurrent(gen uint64) bool {
	return l.gen.Load() == gen
}

// Snapshot holds the list currently shown. Readers always see a complete
// list; a reload swaps in a new one.
type Snapshot struct {
	current atomic.Pointer[parser.List]
}

func (s *Snapshot) Load() parser.List {
	if l := s.current.Load(); l != nil {
		return *l
	}
	return parser.List{}
}

func (s *Snapshot) Replace(list parser.List) {
	s.current.Store(&list)
}
