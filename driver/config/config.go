package config

import (
	"github.com/jbvmio/fstream/driver"
	"github.com/jbvmio/fstream/driver/upper"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config represents configuration details for a Driver.
type Config interface {
	Configure(map[string]interface{}) error
}

// UpperConfig contains configuration details when using the upper Driver.
type UpperConfig struct {
	Mode string `yaml:"mode" json:"mode"`
}

// Configure attempts to configure the Config based on the details entered.
func (c *UpperConfig) Configure(details map[string]interface{}) error {
	d, err := yaml.Marshal(details)
	if err != nil {
		return errors.Wrap(err, "invalid configuration format")
	}
	var cfg UpperConfig
	if err := yaml.Unmarshal(d, &cfg); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	if _, ok := upper.New(cfg.Mode); !ok {
		return errors.Errorf("invalid mode for upper driver: %s", cfg.Mode)
	}
	*c = cfg
	return nil
}

// FromConfig attempts to Generate the appropriate Driver based on the details entered.
func FromConfig(details map[string]interface{}) (driver.Driver, error) {
	cfg, err := GetConfig(details)
	if err != nil {
		return nil, err
	}
	switch C := cfg.(type) {
	case *UpperConfig:
		d, _ := upper.New(C.Mode)
		return d, nil
	default:
		return nil, errors.Errorf("missing or invalid driver type: %T", cfg)
	}
}

// GetConfig attempts to Generate a Config based on the details entered.
// A missing driver defaults to upper.
func GetConfig(details map[string]interface{}) (Config, error) {
	var cfg Config
	d, _ := details[`driver`].(string)
	switch d {
	case ``, `upper`:
		C := &UpperConfig{}
		if err := C.Configure(details); err != nil {
			return nil, err
		}
		cfg = C
	default:
		return nil, errors.Errorf("invalid driver: %s", d)
	}
	return cfg, nil
}
