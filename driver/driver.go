package driver

import (
	"context"

	"github.com/jbvmio/fstream/log"
	"github.com/jbvmio/fstream/pipeline"
)

// Boundary describes how a Driver depends on chunk boundaries.
type Boundary int

// Available Boundary contracts:
const (
	// Independent drivers map every chunk on its own. Output is identical
	// for any split of the stream and Flush never returns data.
	Independent Boundary = iota
	// Carry drivers may hold unresolved trailing bytes of a chunk in an
	// internal carry buffer until the next call. Flush emits what remains.
	Carry
)

var boundaryStrings = [...]string{
	`independent`,
	`carry`,
}

func (b Boundary) String() string {
	return boundaryStrings[b]
}

// Driver represents a chunk transformation.
type Driver interface {
	// Process transforms a chunk. The returned slice must not alias b.
	Process(b []byte) ([]byte, error)
	// Flush returns bytes held back at end-of-stream.
	Flush() ([]byte, error)
	// Boundary reports the chunk boundary contract of the Driver.
	Boundary() Boundary
}

// Stage adapts a Driver into a pipeline.ProcessFn.
func Stage(d Driver, l log.Logger) pipeline.ProcessFn {
	if l == nil {
		l = log.NewNoop()
	}
	return func(ctx context.Context, in <-chan pipeline.Chunk, emit pipeline.Emit) error {
		l.Debugf("driver running with %s boundary", d.Boundary())
		for c := range in {
			out, err := d.Process(c)
			if err != nil {
				return err
			}
			if err := emit(out); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		tail, err := d.Flush()
		if err != nil {
			return err
		}
		if len(tail) > 0 {
			l.Debugf("driver flushed %d carried byte(s)", len(tail))
		}
		return emit(tail)
	}
}
