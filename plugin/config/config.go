package config

import (
	"github.com/jbvmio/fstream/plugin"
	"github.com/jbvmio/fstream/plugin/osio"
	"github.com/pkg/errors"
)

// Config represents configuration details for a Input or Output Plugin.
type Config interface {
	Configure(map[string]interface{}) error
}

// InputConfig is a Config for an Input Plugin.
type InputConfig interface {
	Config
	CreateInput() (plugin.Input, error)
}

// OutputConfig is a Config for an Output Plugin.
type OutputConfig interface {
	Config
	CreateOutput() (plugin.Output, error)
}

// GetInputConfig returns an InputConfig based on the entered ID.
// Returns nil if TypeID is None an invalid ID is entered.
func GetInputConfig(i plugin.TypeID) InputConfig {
	switch i {
	case plugin.TypeNone:
		return nil
	case plugin.TypeInputFile:
		return &osio.FileInputConfig{}
	case plugin.TypeInputStd:
		return &osio.StdInputConfig{}
	case plugin.TypeInputFollow:
		return &osio.FollowInputConfig{}
	default:
		return nil
	}
}

// GetOutputConfig returns an Output based on the entered ID.
// Returns nil if TypeID is None an invalid ID is entered.
func GetOutputConfig(i plugin.TypeID) OutputConfig {
	switch i {
	case plugin.TypeNone:
		return nil
	case plugin.TypeOutputFile:
		return &osio.FileOutputConfig{}
	case plugin.TypeOutputStd:
		return &osio.StdOutputConfig{}
	default:
		return nil
	}
}

// CreateInput configures and creates the Input identified by i.
func CreateInput(i plugin.TypeID, details map[string]interface{}) (plugin.Input, error) {
	c := GetInputConfig(i)
	if c == nil {
		return nil, errInvalid(i)
	}
	if err := c.Configure(details); err != nil {
		return nil, err
	}
	return c.CreateInput()
}

// CreateOutput configures and creates the Output identified by i.
func CreateOutput(i plugin.TypeID, details map[string]interface{}) (plugin.Output, error) {
	c := GetOutputConfig(i)
	if c == nil {
		return nil, errInvalid(i)
	}
	if err := c.Configure(details); err != nil {
		return nil, err
	}
	return c.CreateOutput()
}

func errInvalid(i plugin.TypeID) error {
	if i < plugin.TypeNone || i > plugin.TypeOutputStd {
		return errors.Errorf("invalid plugin type id %d", int(i))
	}
	return errors.Errorf("invalid plugin %s entered", i)
}
