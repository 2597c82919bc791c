package plugin

import (
	"context"

	"github.com/jbvmio/fstream/pipeline"
)

// TypeID are used to assign IDs to available Plugins.
type TypeID int

// Available PluginTypes:
const (
	TypeNone TypeID = iota
	TypeInputFile
	TypeInputStd
	TypeInputFollow
	TypeOutputFile
	TypeOutputStd
)

var idStrings = [...]string{
	`none`,
	`FileInput`,
	`StdInput`,
	`FollowInput`,
	`FileOutput`,
	`StdOutput`,
}

func (id TypeID) String() string {
	return idStrings[id]
}

// Plugin represents input or output plugins.
type Plugin interface {
	// Start should acquire the underlying handle, returning any errors if it is unavailable.
	Start() error
	// Stop should release the handle, returning any errors. It must be safe to call more than once.
	Stop() error
}

// Input works with sources of data.
type Input interface {
	Plugin
	// Produce emits the data in order until the source is exhausted.
	Produce(ctx context.Context, emit pipeline.Emit) error
}

// Output works with storing of data.
type Output interface {
	Plugin
	// Consume writes every chunk received on in, in order.
	Consume(ctx context.Context, in <-chan pipeline.Chunk) error
}
