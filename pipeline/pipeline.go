package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jbvmio/fstream/log"
	"go.uber.org/multierr"
)

// State is the lifecycle state of a Pipeline.
type State int32

// Pipeline states:
const (
	Assembled State = iota
	Running
	Completed
	Failed
)

var stateStrings = [...]string{
	`assembled`,
	`running`,
	`completed`,
	`failed`,
}

func (s State) String() string {
	return stateStrings[s]
}

// DefaultBuffer is the channel capacity between two Stages.
const DefaultBuffer = 1

// Pipeline contains a linear chain of Stages, from one input to one output.
type Pipeline struct {
	CTX    context.Context
	Stages []*Stage
	// Buffer is the number of Chunks that may queue between two Stages
	// before the producer blocks.
	Buffer int
	state  int32
	mu     sync.Mutex
	err    error
	cancel context.CancelFunc
	halted bool
	l      log.Logger
}

// NewPipeline returns a new Pipeline in the Assembled state.
func NewPipeline(ctx context.Context, l log.Logger) *Pipeline {
	if l == nil {
		l = log.NewNoop()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &Pipeline{
		CTX:    ctx,
		Buffer: DefaultBuffer,
		l:      l,
	}
}

// AddStages adds 1 or more Stages to the Pipeline.
// Stages can only be added while the Pipeline is Assembled.
func (p *Pipeline) AddStages(stages ...*Stage) error {
	if p.State() != Assembled {
		return ErrNotAssembled
	}
	p.l.Infof("adding %d stage(s)", len(stages))
	p.Stages = append(p.Stages, stages...)
	return nil
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	return State(atomic.LoadInt32(&p.state))
}

// Err returns the terminal error of a Failed Pipeline.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Stats returns the emission counters of every Stage, in chain order.
func (p *Pipeline) Stats() []StageStats {
	stats := make([]StageStats, len(p.Stages))
	for i, s := range p.Stages {
		stats[i] = s.Stats()
	}
	return stats
}

// Validate checks that the Stages form a single chain from one input to one output.
func (p *Pipeline) Validate() error {
	n := len(p.Stages)
	if n < 2 {
		return fmt.Errorf("%w: need an input and an output, have %d stage(s)", ErrInvalidPipeline, n)
	}
	for i, s := range p.Stages {
		var want Kind
		switch i {
		case 0:
			want = KindInput
		case n - 1:
			want = KindOutput
		default:
			want = KindProcess
		}
		if s == nil {
			return fmt.Errorf("%w: stage %d is nil", ErrInvalidPipeline, i)
		}
		if s.kind != want {
			return fmt.Errorf("%w: stage %d (%s) is %s, expected %s", ErrInvalidPipeline, i, s.Name, s.kind, want)
		}
	}
	return nil
}

func (p *Pipeline) configure() {
	buffer := p.Buffer
	if buffer < 0 {
		buffer = 0
	}
	var linkedChan chan Chunk
	for i := 0; i < len(p.Stages); i++ {
		p.l.Debugf("configuring stage %d (%s)", i, p.Stages[i].Name)
		p.Stages[i].in = linkedChan
		if p.Stages[i].kind != KindOutput {
			p.Stages[i].out = make(chan Chunk, buffer)
		}
		linkedChan = p.Stages[i].out
	}
}

// Run drives the Pipeline to completion and returns its terminal error.
// Run can only be called once.
func (p *Pipeline) Run() error {
	if !atomic.CompareAndSwapInt32(&p.state, int32(Assembled), int32(Running)) {
		return ErrNotAssembled
	}
	p.l.Infof("pipeline running")
	if err := p.Validate(); err != nil {
		return p.finish(err)
	}
	p.configure()
	for i, s := range p.Stages {
		if err := s.start(); err != nil {
			p.l.Errorf("could not start %s: %v", s.Name, err)
			for j := i - 1; j >= 0; j-- {
				err = multierr.Append(err, p.Stages[j].stop())
			}
			return p.finish(tagStage(s, err))
		}
	}

	ctx, cancel := context.WithCancel(p.CTX)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	// closing the input on cancel unblocks readers that honour Close,
	// such as pipes and files opened by os. A blocking descriptor like a
	// terminal stdin is not released this way.
	release := context.AfterFunc(ctx, func() {
		p.Stages[0].stop()
	})

	var wg sync.WaitGroup
	for n, s := range p.Stages {
		p.l.Infof("running stage %d (%s)", n, s.Name)
		wg.Add(1)
		go func(s *Stage) {
			defer wg.Done()
			if err := s.run(ctx); err != nil {
				p.fail(s, err)
			}
			s.closeOut()
		}(s)
	}
	wg.Wait()
	release()
	cancel()

	// teardown runs from the output back to the input.
	var stopErr error
	for i := len(p.Stages) - 1; i >= 0; i-- {
		if err := p.Stages[i].stop(); err != nil {
			stopErr = multierr.Append(stopErr, tagStage(p.Stages[i], err))
		}
	}
	err := p.Err()
	if err == nil {
		err = stopErr
	} else if stopErr != nil {
		p.l.Warnf("errors during teardown: %v", stopErr)
	}
	for _, st := range p.Stats() {
		p.l.Infof("stage %s emitted %d chunk(s), %d byte(s)", st.Name, st.Chunks, st.Bytes)
	}
	return p.finish(err)
}

func (p *Pipeline) finish(err error) error {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
	if err != nil {
		atomic.StoreInt32(&p.state, int32(Failed))
		p.l.Errorf("pipeline failed: %v", err)
		return err
	}
	atomic.StoreInt32(&p.state, int32(Completed))
	p.l.Infof("pipeline completed")
	return nil
}

// fail records the first unrecoverable error and halts production.
// A cancellation error is replaced by the first real failure that follows it.
func (p *Pipeline) fail(s *Stage, err error) {
	err = tagStage(s, err)
	p.mu.Lock()
	if p.err == nil || (isCancel(p.err) && !isCancel(err)) {
		p.err = err
	}
	cancel := p.cancel
	halt := !p.halted
	p.halted = true
	p.mu.Unlock()
	if !isCancel(err) {
		p.l.Errorf("stage %s failed: %v", s.Name, err)
	}
	if cancel != nil {
		cancel()
	}
	if halt && len(p.Stages) > 0 {
		// releasing the input unblocks a pending read.
		p.Stages[0].stop()
	}
}

func tagStage(s *Stage, err error) error {
	var se *StageError
	if errors.As(err, &se) && se.Stage == "" {
		se.Stage = s.Name
	}
	return err
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
