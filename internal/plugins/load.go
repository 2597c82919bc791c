package plugins

import (
	"fmt"

	"github.com/jbvmio/fstream/plugin"
	"github.com/jbvmio/fstream/plugin/config"
)

// LoadInput configures and creates the Input Plugin registered under name.
func LoadInput(name string, details map[string]interface{}) (plugin.Input, error) {
	var id plugin.TypeID
	switch name {
	case `file`:
		id = plugin.TypeInputFile
	case `stdin`:
		id = plugin.TypeInputStd
	case `follow`:
		id = plugin.TypeInputFollow
	default:
		return nil, fmt.Errorf("no defined input plugin named %s available", name)
	}
	in, err := config.CreateInput(id, details)
	if err != nil {
		return nil, fmt.Errorf("error configuring input: %v", err)
	}
	return in, nil
}

// LoadOutput configures and creates the Output Plugin registered under name.
func LoadOutput(name string, details map[string]interface{}) (plugin.Output, error) {
	var id plugin.TypeID
	switch name {
	case `file`:
		id = plugin.TypeOutputFile
	case `stdout`:
		id = plugin.TypeOutputStd
	default:
		return nil, fmt.Errorf("no defined output plugin named %s available", name)
	}
	out, err := config.CreateOutput(id, details)
	if err != nil {
		return nil, fmt.Errorf("error configuring output: %v", err)
	}
	return out, nil
}
