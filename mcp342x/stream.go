package mcp342x

import (
	"context"
	"iter"
)

type Measurer[T any] interface {
	Measure(ctx context.Context) (T, error)
}

// Stream turns a Measurer into an endless sequence. Every pull performs
// exactly one Measure call; failures are yielded and the sequence goes on.
// It ends when the consumer stops pulling or once a pull was made after ctx
// ended.
func Stream[T any](ctx context.Context, m Measurer[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			v, err := m.Measure(ctx)
			if !yield(v, err) {
				return
			}
			if ctx.Err() != nil {
				return
			}
		}
	}
}
