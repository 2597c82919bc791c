package fstream

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/jbvmio/fstream/codec"
	"github.com/jbvmio/fstream/driver"
	"github.com/jbvmio/fstream/internal/drivers"
	"github.com/jbvmio/fstream/internal/plugins"
	"github.com/jbvmio/fstream/log"
	"github.com/jbvmio/fstream/pipeline"
)

// Slots of a built pipeline, in flow order.
const (
	SlotSource = iota
	SlotDecompress
	SlotTransform
	SlotCompress
	SlotSink
	numSlots
)

var slotNames = [...]string{
	`source`,
	`decompress`,
	`transform`,
	`compress`,
	`sink`,
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the Logger used by the pipeline and its stages.
func WithLogger(l log.Logger) Option {
	return func(b *Builder) {
		b.l = l
	}
}

// WithStdin replaces os.Stdin as the stdin input.
func WithStdin(r io.Reader) Option {
	return func(b *Builder) {
		b.stdin = r
	}
}

// WithStdout replaces os.Stdout as the stdout output.
func WithStdout(w io.Writer) Option {
	return func(b *Builder) {
		b.stdout = w
	}
}

// WithDriver replaces the uppercase Driver selected by the case mode.
func WithDriver(d driver.Driver) Option {
	return func(b *Builder) {
		b.d = d
	}
}

// Builder assembles a pipeline from a Configuration.
// The stages always follow the same fixed slots:
// source, [decompress], transform, [compress], sink.
type Builder struct {
	cfg    Configuration
	l      log.Logger
	stdin  io.Reader
	stdout io.Writer
	d      driver.Driver
	slots  [numSlots]*pipeline.Stage
}

// NewBuilder returns a Builder for cfg.
func NewBuilder(cfg Configuration, opts ...Option) *Builder {
	b := &Builder{
		cfg: cfg,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.l == nil {
		b.l = log.NewNoop()
	}
	return b
}

// Build fills the slots and returns the Assembled pipeline.
// Nothing is opened until the pipeline runs.
func (b *Builder) Build(ctx context.Context) (*pipeline.Pipeline, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	b.slots = [numSlots]*pipeline.Stage{}
	if err := b.source(); err != nil {
		return nil, err
	}
	if b.cfg.Decompress {
		b.slots[SlotDecompress] = b.stage(SlotDecompress, codec.Decompress(b.cfg.ChunkSize, b.logger(SlotDecompress)))
	}
	d := b.d
	if d == nil {
		var err error
		if d, err = drivers.LoadTransform(b.cfg.CaseMode); err != nil {
			return nil, err
		}
	}
	b.slots[SlotTransform] = b.stage(SlotTransform, driver.Stage(d, b.logger(SlotTransform)))
	if b.cfg.Compress {
		fn, err := codec.Compress(b.cfg.Level, b.cfg.ChunkSize, b.logger(SlotCompress))
		if err != nil {
			return nil, err
		}
		b.slots[SlotCompress] = b.stage(SlotCompress, fn)
	}
	if err := b.sink(); err != nil {
		return nil, err
	}

	p := pipeline.NewPipeline(ctx, log.Named(b.l, "pipeline"))
	if b.cfg.Buffer > 0 {
		p.Buffer = b.cfg.Buffer
	}
	for _, s := range b.slots {
		if s == nil {
			continue
		}
		if err := p.AddStages(s); err != nil {
			return nil, err
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	b.l.Infof("built pipeline with %d stage(s): input=%s decompress=%t compress=%t output=%s",
		len(p.Stages), b.cfg.Input, b.cfg.Decompress, b.cfg.Compress, b.cfg.Output)
	return p, nil
}

func (b *Builder) source() error {
	details := map[string]interface{}{
		`path`: b.cfg.FilePath,
	}
	if b.cfg.ChunkSize > 0 {
		details[`chunkSize`] = b.cfg.ChunkSize
	}
	if b.stdin != nil {
		details[`reader`] = b.stdin
	}
	in, err := plugins.LoadInput(b.cfg.Input, details)
	if err != nil {
		return errors.Wrap(err, "could not create source")
	}
	b.slots[SlotSource] = pipeline.NewInputStage(slotNames[SlotSource], in.Produce, in, b.logger(SlotSource))
	return nil
}

func (b *Builder) sink() error {
	details := map[string]interface{}{
		`path`: b.cfg.OutputPath,
	}
	if b.stdout != nil {
		details[`writer`] = b.stdout
	}
	out, err := plugins.LoadOutput(b.cfg.Output, details)
	if err != nil {
		return errors.Wrap(err, "could not create sink")
	}
	b.slots[SlotSink] = pipeline.NewOutputStage(slotNames[SlotSink], out.Consume, out, b.logger(SlotSink))
	return nil
}

func (b *Builder) stage(slot int, fn pipeline.ProcessFn) *pipeline.Stage {
	return pipeline.NewProcessStage(slotNames[slot], fn, b.logger(slot))
}

func (b *Builder) logger(slot int) log.Logger {
	return log.Named(b.l, slotNames[slot])
}

// Run builds the pipeline for cfg and runs it to completion.
func Run(ctx context.Context, cfg Configuration, opts ...Option) error {
	p, err := NewBuilder(cfg, opts...).Build(ctx)
	if err != nil {
		return err
	}
	return p.Run()
}
