package drivers

import (
	"fmt"

	"github.com/jbvmio/fstream/driver"
	"github.com/jbvmio/fstream/driver/config"
)

// LoadTransform returns the uppercase Driver for the given case mode.
func LoadTransform(mode string) (driver.Driver, error) {
	d, err := config.FromConfig(map[string]interface{}{
		`driver`: `upper`,
		`mode`:   mode,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid configuration for transform: %v", err)
	}
	return d, nil
}
