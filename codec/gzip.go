// Package codec provides the gzip stages of a pipeline.
//
// Both stages stream: the decompressor emits output as soon as the decoder
// produces it and the compressor hands encoder output downstream in bounded
// chunks. Neither ever holds the whole payload.
package codec

import (
	"bufio"
	"context"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"github.com/jbvmio/fstream/log"
	"github.com/jbvmio/fstream/pipeline"
)

// Suffix is appended to output file names when compression is active.
const Suffix = `.gz`

// DefaultChunkSize is the largest chunk emitted by either stage.
const DefaultChunkSize = 64 * 1024

// Compression levels accepted by Compress.
const (
	DefaultCompression = gzip.DefaultCompression
	MinLevel           = gzip.StatelessCompression
	MaxLevel           = gzip.BestCompression
)

// Decompress returns a ProcessFn that decodes a gzip stream.
// Concatenated members decode as a single stream. An empty input decodes to
// an empty output. Malformed input fails with pipeline.ErrDecode.
func Decompress(chunkSize int, l log.Logger) pipeline.ProcessFn {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if l == nil {
		l = log.NewNoop()
	}
	return func(ctx context.Context, in <-chan pipeline.Chunk, emit pipeline.Emit) error {
		zr, err := gzip.NewReader(pipeline.NewChanReader(ctx, in))
		switch {
		case err == io.EOF:
			l.Debugf("gunzip received empty input")
			return ctx.Err()
		case err != nil:
			return decodeError(ctx, "header", err)
		}
		defer zr.Close()
		buf := make([]byte, chunkSize)
		for {
			n, err := zr.Read(buf)
			if err != nil && err != io.EOF {
				return decodeError(ctx, "read", err)
			}
			if n > 0 {
				if err := emit(buf[:n]); err != nil {
					return err
				}
				buf = make([]byte, chunkSize)
			}
			if err == io.EOF {
				return nil
			}
		}
	}
}

func decodeError(ctx context.Context, op string, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return pipeline.NewStageError(pipeline.ErrDecode, "gunzip "+op, "", err)
}

// Compress returns a ProcessFn that encodes the stream as gzip.
// The trailer is emitted once the upstream stage signals end-of-stream.
func Compress(level, chunkSize int, l log.Logger) (pipeline.ProcessFn, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if l == nil {
		l = log.NewNoop()
	}
	if level < MinLevel || level > MaxLevel {
		return nil, errors.Errorf("invalid compression level: %d", level)
	}
	return func(ctx context.Context, in <-chan pipeline.Chunk, emit pipeline.Emit) error {
		bw := bufio.NewWriterSize(pipeline.NewEmitWriter(emit, chunkSize), chunkSize)
		zw, err := gzip.NewWriterLevel(bw, level)
		if err != nil {
			return errors.Wrap(err, "could not create gzip writer")
		}
		for c := range in {
			if _, err := zw.Write(c); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
		l.Debugf("gzip trailer written")
		return bw.Flush()
	}, nil
}
