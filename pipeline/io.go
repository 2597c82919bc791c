package pipeline

import (
	"context"
	"io"
)

// ChanReader adapts a Chunk channel to an io.Reader.
// Read returns io.EOF once the channel is closed and the context is still live.
type ChanReader struct {
	ctx context.Context
	in  <-chan Chunk
	cur Chunk
}

// NewChanReader returns a ChanReader consuming in.
func NewChanReader(ctx context.Context, in <-chan Chunk) *ChanReader {
	return &ChanReader{
		ctx: ctx,
		in:  in,
	}
}

// Read implements io.Reader.
func (r *ChanReader) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	for len(r.cur) == 0 {
		select {
		case <-r.ctx.Done():
			return 0, r.ctx.Err()
		case c, ok := <-r.in:
			if !ok {
				if err := r.ctx.Err(); err != nil {
					return 0, err
				}
				return 0, io.EOF
			}
			r.cur = c
		}
	}
	n := copy(b, r.cur)
	r.cur = r.cur[n:]
	return n, nil
}

// EmitWriter adapts an Emit to an io.Writer.
// Every Write is copied into new Chunks of at most max bytes, so callers may
// reuse their buffers. A max of zero leaves writes unsplit.
type EmitWriter struct {
	emit Emit
	max  int
}

// NewEmitWriter returns an EmitWriter handing writes to emit.
func NewEmitWriter(emit Emit, max int) *EmitWriter {
	return &EmitWriter{
		emit: emit,
		max:  max,
	}
}

// Write implements io.Writer.
func (w *EmitWriter) Write(b []byte) (int, error) {
	var written int
	for len(b) > 0 {
		n := len(b)
		if w.max > 0 && n > w.max {
			n = w.max
		}
		c := make(Chunk, n)
		copy(c, b[:n])
		if err := w.emit(c); err != nil {
			return written, err
		}
		written += n
		b = b[n:]
	}
	return written, nil
}
