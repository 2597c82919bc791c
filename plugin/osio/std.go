package osio

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/jbvmio/fstream/pipeline"
	"github.com/jbvmio/fstream/plugin"
)

const (
	stdinName  = `<stdin>`
	stdoutName = `<stdout>`
)

// StdInputConfig contains configuration details when using the StdInput Plugin.
type StdInputConfig struct {
	ChunkSize int `yaml:"chunkSize" json:"chunkSize"`
	// Reader replaces os.Stdin when set.
	Reader io.Reader `yaml:"-" json:"-"`
}

// Configure attempts to configure the Config based on the details entered.
func (c *StdInputConfig) Configure(details map[string]interface{}) error {
	c.ChunkSize = DefaultChunkSize
	if b, ok := details[`chunkSize`].(int); ok && b > 0 {
		c.ChunkSize = b
	}
	if r, ok := details[`reader`].(io.Reader); ok {
		c.Reader = r
	}
	return nil
}

// CreateInput creates an Input based on the Config.
func (c *StdInputConfig) CreateInput() (plugin.Input, error) {
	return &StdInput{
		Reader:    c.Reader,
		ChunkSize: c.ChunkSize,
	}, nil
}

// StdInput reads from stdin.
type StdInput struct {
	Reader    io.Reader
	ChunkSize int
	closeOnce sync.Once
}

// Start starts the plugin.
func (in *StdInput) Start() error {
	if in.Reader == nil {
		in.Reader = os.Stdin
	}
	return nil
}

// Stop closes the underlying reader if it can be closed.
func (in *StdInput) Stop() error {
	c, ok := in.Reader.(io.Closer)
	if !ok {
		return nil
	}
	var err error
	in.closeOnce.Do(func() {
		err = c.Close()
	})
	return err
}

// Produce reads stdin in chunks of at most ChunkSize bytes.
func (in *StdInput) Produce(ctx context.Context, emit pipeline.Emit) error {
	return readChunks(ctx, in.Reader, in.ChunkSize, stdinName, emit)
}

// StdOutputConfig contains configuration details when using the StdOutput Plugin.
type StdOutputConfig struct {
	// Writer replaces os.Stdout when set.
	Writer io.Writer `yaml:"-" json:"-"`
}

// Configure attempts to configure the Config based on the details entered.
func (c *StdOutputConfig) Configure(details map[string]interface{}) error {
	if w, ok := details[`writer`].(io.Writer); ok {
		c.Writer = w
	}
	return nil
}

// CreateOutput creates an Output based on the Config.
func (c *StdOutputConfig) CreateOutput() (plugin.Output, error) {
	return &StdOutput{
		Writer: c.Writer,
	}, nil
}

// StdOutput outputs to stdout. Stdout is never closed.
type StdOutput struct {
	Writer io.Writer
}

// Start starts the plugin.
func (out *StdOutput) Start() error {
	if out.Writer == nil {
		out.Writer = os.Stdout
	}
	return nil
}

// Stop stops the plugin.
func (out *StdOutput) Stop() error {
	return nil
}

// Consume writes each chunk to stdout in order.
func (out *StdOutput) Consume(ctx context.Context, in <-chan pipeline.Chunk) error {
	return writeChunks(ctx, out.Writer, stdoutName, in)
}
