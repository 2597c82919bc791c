package osio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"

	"github.com/jbvmio/fstream/pipeline"
	"github.com/jbvmio/fstream/plugin"
	"github.com/nxadm/tail"
)

// DefaultChunkSize is the read size used by inputs.
const DefaultChunkSize = 64 * 1024

// FileInputConfig contains configuration details when using the FileInput Plugin.
type FileInputConfig struct {
	Path      string `yaml:"path" json:"path"`
	ChunkSize int    `yaml:"chunkSize" json:"chunkSize"`
}

// Configure attempts to configure the Config based on the details entered.
func (c *FileInputConfig) Configure(details map[string]interface{}) error {
	x, ok := details[`path`].(string)
	if !ok || x == "" {
		return errors.New("missing or invalid path for file input")
	}
	c.Path = x
	c.ChunkSize = DefaultChunkSize
	if b, ok := details[`chunkSize`].(int); ok && b > 0 {
		c.ChunkSize = b
	}
	return nil
}

// CreateInput creates an Input based on the Config.
func (c *FileInputConfig) CreateInput() (plugin.Input, error) {
	if c.Path == "" {
		return nil, errors.New("no path defined for file input")
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	return &FileInput{
		Path:      c.Path,
		ChunkSize: c.ChunkSize,
	}, nil
}

// FileInput reads a file once, from start to end.
type FileInput struct {
	Path      string `yaml:"path" json:"path"`
	ChunkSize int    `yaml:"chunkSize" json:"chunkSize"`
	f         *os.File
	closeOnce sync.Once
	closeErr  error
}

// Start opens the file.
func (in *FileInput) Start() error {
	f, err := os.Open(in.Path)
	if err != nil {
		return pipeline.NewStageError(pipeline.ErrSourceUnavailable, "open", in.Path, err)
	}
	fi, err := f.Stat()
	switch {
	case err != nil:
		f.Close()
		return pipeline.NewStageError(pipeline.ErrSourceUnavailable, "stat", in.Path, err)
	case fi.IsDir():
		f.Close()
		return pipeline.NewStageError(pipeline.ErrSourceUnavailable, "open", in.Path, errors.New("is a directory"))
	}
	in.f = f
	return nil
}

// Stop closes the file.
func (in *FileInput) Stop() error {
	if in.f == nil {
		return nil
	}
	in.closeOnce.Do(func() {
		in.closeErr = in.f.Close()
	})
	return in.closeErr
}

// Produce reads the file in chunks of at most ChunkSize bytes.
func (in *FileInput) Produce(ctx context.Context, emit pipeline.Emit) error {
	if in.f == nil {
		return pipeline.NewStageError(pipeline.ErrSourceUnavailable, "read", in.Path, os.ErrClosed)
	}
	return readChunks(ctx, in.f, in.ChunkSize, in.Path, emit)
}

// FollowInputConfig contains configuration details when using the FollowInput Plugin.
type FollowInputConfig struct {
	Path           string `yaml:"path" json:"path"`
	StartBeginning bool   `yaml:"startBeginning" json:"startBeginning"`
}

// Configure attempts to configure the Config based on the details entered.
func (c *FollowInputConfig) Configure(details map[string]interface{}) error {
	x, ok := details[`path`].(string)
	if !ok || x == "" {
		return errors.New("missing or invalid path for follow input")
	}
	c.Path = x
	c.StartBeginning = true
	if b, ok := details[`startBeginning`].(bool); ok {
		c.StartBeginning = b
	}
	return nil
}

// CreateInput creates an Input based on the Config.
func (c *FollowInputConfig) CreateInput() (plugin.Input, error) {
	if c.Path == "" {
		return nil, errors.New("no path defined for follow input")
	}
	return &FollowInput{
		Path:           c.Path,
		StartBeginning: c.StartBeginning,
	}, nil
}

// FollowInput keeps reading a file as it grows, one line per chunk,
// until the context is cancelled.
type FollowInput struct {
	Path           string `yaml:"path" json:"path"`
	StartBeginning bool   `yaml:"startBeginning" json:"startBeginning"`
	t              *tail.Tail
	stopOnce       sync.Once
}

// Start begins tailing the file.
func (in *FollowInput) Start() error {
	w := io.SeekEnd
	if in.StartBeginning {
		w = io.SeekStart
	}
	t, err := tail.TailFile(in.Path, tail.Config{
		Follow:    true,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
		Location:  &tail.SeekInfo{Whence: w},
	})
	if err != nil {
		return pipeline.NewStageError(pipeline.ErrSourceUnavailable, "tail", in.Path, err)
	}
	in.t = t
	return nil
}

// Stop stops tailing the file.
func (in *FollowInput) Stop() error {
	if in.t == nil {
		return nil
	}
	var err error
	in.stopOnce.Do(func() {
		err = in.t.Stop()
		in.t.Cleanup()
	})
	return err
}

// Produce emits every line of the file, newline included.
func (in *FollowInput) Produce(ctx context.Context, emit pipeline.Emit) error {
	if in.t == nil {
		return pipeline.NewStageError(pipeline.ErrSourceUnavailable, "tail", in.Path, os.ErrClosed)
	}
fileLoop:
	for {
		select {
		case <-ctx.Done():
			break fileLoop
		case line, ok := <-in.t.Lines:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := in.t.Err(); err != nil {
					return pipeline.NewStageError(pipeline.ErrSourceUnavailable, "tail", in.Path, err)
				}
				return nil
			}
			if line.Err != nil {
				return pipeline.NewStageError(pipeline.ErrSourceUnavailable, "tail", in.Path, line.Err)
			}
			if err := emit(pipeline.Chunk(line.Text + "\n")); err != nil {
				return err
			}
		}
	}
	return ctx.Err()
}

// FileOutputConfig contains configuration details when using the FileOutput Plugin.
type FileOutputConfig struct {
	Path string `yaml:"path" json:"path"`
}

// Configure attempts to configure the Config based on the details entered.
func (c *FileOutputConfig) Configure(details map[string]interface{}) error {
	x, ok := details[`path`].(string)
	if !ok || x == "" {
		return errors.New("missing or invalid path for file output")
	}
	c.Path = x
	return nil
}

// CreateOutput creates an Output based on the Config.
func (c *FileOutputConfig) CreateOutput() (plugin.Output, error) {
	if c.Path == "" {
		return nil, errors.New("no path defined for file output")
	}
	return &FileOutput{
		Path: c.Path,
	}, nil
}

// FileOutput writes to a newly created or truncated file.
type FileOutput struct {
	Path      string `yaml:"path" json:"path"`
	f         *os.File
	closeOnce sync.Once
	closeErr  error
}

// Start creates or truncates the file.
func (out *FileOutput) Start() error {
	f, err := os.OpenFile(out.Path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return pipeline.NewStageError(pipeline.ErrSinkUnavailable, "create", out.Path, err)
	}
	out.f = f
	return nil
}

// Stop syncs and closes the file.
func (out *FileOutput) Stop() error {
	if out.f == nil {
		return nil
	}
	out.closeOnce.Do(func() {
		if err := out.f.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) {
			out.closeErr = pipeline.NewStageError(pipeline.ErrSinkUnavailable, "sync", out.Path, err)
		}
		if err := out.f.Close(); err != nil && out.closeErr == nil {
			out.closeErr = pipeline.NewStageError(pipeline.ErrSinkUnavailable, "close", out.Path, err)
		}
	})
	return out.closeErr
}

// Consume writes each chunk to the file in order.
func (out *FileOutput) Consume(ctx context.Context, in <-chan pipeline.Chunk) error {
	if out.f == nil {
		return pipeline.NewStageError(pipeline.ErrSinkUnavailable, "write", out.Path, os.ErrClosed)
	}
	return writeChunks(ctx, out.f, out.Path, in)
}

func readChunks(ctx context.Context, r io.Reader, size int, path string, emit pipeline.Emit) error {
	if size <= 0 {
		size = DefaultChunkSize
	}
	buf := make([]byte, size)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if err := emit(buf[:n]); err != nil {
				return err
			}
			buf = make([]byte, size)
		}
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			return pipeline.NewStageError(pipeline.ErrSourceUnavailable, "read", path, err)
		}
	}
}

func writeChunks(ctx context.Context, w io.Writer, path string, in <-chan pipeline.Chunk) error {
	for c := range in {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := w.Write(c)
		if err == nil && n < len(c) {
			err = io.ErrShortWrite
		}
		if err != nil {
			return pipeline.NewStageError(pipeline.ErrSinkUnavailable, "write", path, fmt.Errorf("after %d of %d bytes: %w", n, len(c), err))
		}
	}
	return ctx.Err()
}
