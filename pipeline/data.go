package pipeline

import "context"

// Chunk is a contiguous span of bytes handed from one stage to the next.
// A Chunk must not be modified once emitted, and its producer must not reuse
// the backing array.
type Chunk []byte

// Emit hands a Chunk to the next stage. It blocks while the downstream buffer
// is full and returns an error once the pipeline has been cancelled.
type Emit func(Chunk) error

// InputFn produces chunks until its origin is exhausted.
type InputFn func(ctx context.Context, emit Emit) error

// ProcessFn consumes chunks from in until it is closed and emits the results.
// Any trailing state must be emitted before returning.
type ProcessFn func(ctx context.Context, in <-chan Chunk, emit Emit) error

// OutputFn consumes all chunks from in.
type OutputFn func(ctx context.Context, in <-chan Chunk) error

// Resource is an external handle owned by a Stage.
type Resource interface {
	// Start acquires the handle.
	Start() error
	// Stop releases the handle. It must be safe to call more than once.
	Stop() error
}
