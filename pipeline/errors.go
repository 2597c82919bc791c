package pipeline

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is(err, ErrXxx) to classify a pipeline failure.
var (
	// ErrSourceUnavailable indicates the input could not be opened or read.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrDecode indicates malformed compressed input.
	ErrDecode = errors.New("decode error")

	// ErrSinkUnavailable indicates the output could not be opened or written.
	ErrSinkUnavailable = errors.New("sink unavailable")

	// ErrNotAssembled is returned when Run is called on a pipeline that
	// already ran.
	ErrNotAssembled = errors.New("pipeline is not in the assembled state")

	// ErrInvalidPipeline indicates a stage list that is not a single linear
	// chain from one source to one output.
	ErrInvalidPipeline = errors.New("invalid pipeline")
)

// StageError classifies a failure raised by a stage.
// It keeps the underlying error in the chain for errors.As.
type StageError struct {
	// Kind is one of the error kind sentinels.
	Kind error
	// Stage is the name of the failing stage, set by the Pipeline.
	Stage string
	// Op is the operation that failed (e.g. "open", "read", "write").
	Op string
	// Path is the file involved, if any.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *StageError) Error() string {
	var prefix string
	if e.Stage != "" {
		prefix = e.Stage + ": "
	}
	if e.Path != "" {
		return fmt.Sprintf("%s%s %s: %v: %v", prefix, e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s%s: %v: %v", prefix, e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the error kind.
func (e *StageError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// NewStageError returns a classified stage error.
func NewStageError(kind error, op, path string, err error) *StageError {
	return &StageError{
		Kind: kind,
		Op:   op,
		Path: path,
		Err:  err,
	}
}
