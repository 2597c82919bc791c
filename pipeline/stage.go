package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jbvmio/fstream/log"
)

// Kind identifies the role of a Stage within a Pipeline.
type Kind int

// Available Stage kinds:
const (
	KindInput Kind = iota
	KindProcess
	KindOutput
)

var kindStrings = [...]string{
	`input`,
	`process`,
	`output`,
}

func (k Kind) String() string {
	return kindStrings[k]
}

// Stage represents a self contained step that produces, processes or consumes Chunks.
type Stage struct {
	Name      string
	kind      Kind
	inputFn   InputFn
	processFn ProcessFn
	outputFn  OutputFn
	resource  Resource
	in        chan Chunk
	out       chan Chunk
	closeOnce sync.Once
	stopOnce  sync.Once
	stopErr   error
	chunks    int64
	bytes     int64
	l         log.Logger
}

// NewInputStage returns a Stage producing Chunks with fn.
// The optional Resource is started before the Pipeline runs and stopped after.
func NewInputStage(name string, fn InputFn, r Resource, l log.Logger) *Stage {
	s := newStage(name, KindInput, r, l)
	s.inputFn = fn
	return s
}

// NewProcessStage returns a Stage transforming Chunks with fn.
func NewProcessStage(name string, fn ProcessFn, l log.Logger) *Stage {
	s := newStage(name, KindProcess, nil, l)
	s.processFn = fn
	return s
}

// NewOutputStage returns a Stage consuming Chunks with fn.
func NewOutputStage(name string, fn OutputFn, r Resource, l log.Logger) *Stage {
	s := newStage(name, KindOutput, r, l)
	s.outputFn = fn
	return s
}

func newStage(name string, kind Kind, r Resource, l log.Logger) *Stage {
	if l == nil {
		l = log.NewNoop()
	}
	return &Stage{
		Name:     name,
		kind:     kind,
		resource: r,
		l:        l,
	}
}

// Kind returns the role of the Stage.
func (s *Stage) Kind() Kind {
	return s.kind
}

// Stats reports the number of Chunks and bytes the Stage emitted.
func (s *Stage) Stats() StageStats {
	return StageStats{
		Name:   s.Name,
		Kind:   s.kind,
		Chunks: atomic.LoadInt64(&s.chunks),
		Bytes:  atomic.LoadInt64(&s.bytes),
	}
}

// StageStats holds the emission counters of a Stage.
type StageStats struct {
	Name   string
	Kind   Kind
	Chunks int64
	Bytes  int64
}

func (s *Stage) start() error {
	if s.resource == nil {
		return nil
	}
	s.l.Infof("starting %s resource", s.Name)
	return s.resource.Start()
}

func (s *Stage) stop() error {
	if s.resource == nil {
		return nil
	}
	s.stopOnce.Do(func() {
		s.l.Infof("stopping %s resource", s.Name)
		s.stopErr = s.resource.Stop()
	})
	return s.stopErr
}

func (s *Stage) run(ctx context.Context) error {
	s.l.Debugf("running %s stage %s", s.kind, s.Name)
	switch s.kind {
	case KindInput:
		return s.inputFn(ctx, s.emitter(ctx))
	case KindProcess:
		return s.processFn(ctx, s.in, s.emitter(ctx))
	default:
		return s.outputFn(ctx, s.in)
	}
}

// closeOut signals end-of-stream to the next Stage.
func (s *Stage) closeOut() {
	if s.out == nil {
		return
	}
	s.closeOnce.Do(func() {
		close(s.out)
	})
}

func (s *Stage) emitter(ctx context.Context) Emit {
	return func(c Chunk) error {
		if len(c) == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s.out <- c:
			atomic.AddInt64(&s.chunks, 1)
			atomic.AddInt64(&s.bytes, int64(len(c)))
			s.l.Debugf("%s emitted chunk of %d bytes", s.Name, len(c))
			return nil
		}
	}
}
