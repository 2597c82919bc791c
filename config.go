package fstream

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/jbvmio/fstream/codec"
	"github.com/jbvmio/fstream/driver/upper"
	"github.com/jbvmio/fstream/pipeline"
	"github.com/jbvmio/fstream/plugin/osio"
)

// ErrUsage is returned when neither a file nor stdin was chosen as the input.
var ErrUsage = errors.New("incorrect usage")

// Input kinds.
const (
	InputNone   = ``
	InputFile   = `file`
	InputStdin  = `stdin`
	InputFollow = `follow`
)

// Output kinds.
const (
	OutputFile   = `file`
	OutputStdout = `stdout`
)

// DefaultOutputName is the file written when no other output is chosen.
const DefaultOutputName = `out.txt`

// Configuration is the resolved description of a single run.
// It is built once before the pipeline and never changed afterward.
type Configuration struct {
	Input      string
	FilePath   string
	Decompress bool
	Compress   bool
	Output     string
	OutputPath string

	ChunkSize int
	Buffer    int
	Level     int
	CaseMode  string
}

// NewConfiguration returns a Configuration with default tuning values.
func NewConfiguration() Configuration {
	return Configuration{
		Output:    OutputFile,
		ChunkSize: osio.DefaultChunkSize,
		Buffer:    pipeline.DefaultBuffer,
		Level:     codec.DefaultCompression,
		CaseMode:  upper.ModeASCII,
	}
}

// DefaultOutputPath returns the output file under base, adding the gzip suffix
// when compress is set.
func DefaultOutputPath(base string, compress bool) string {
	name := DefaultOutputName
	if compress {
		name += codec.Suffix
	}
	return filepath.Join(base, name)
}

// Validate checks the Configuration is complete and consistent.
func (c Configuration) Validate() error {
	switch c.Input {
	case InputFile, InputFollow:
		if c.FilePath == "" {
			return errors.Errorf("no path defined for %s input", c.Input)
		}
	case InputStdin:
	case InputNone:
		return ErrUsage
	default:
		return errors.Errorf("invalid input: %s", c.Input)
	}
	switch c.Output {
	case OutputFile:
		if c.OutputPath == "" {
			return errors.New("no path defined for file output")
		}
	case OutputStdout:
	default:
		return errors.Errorf("invalid output: %s", c.Output)
	}
	switch {
	case c.ChunkSize < 0:
		return errors.Errorf("invalid chunk size: %d", c.ChunkSize)
	case c.Buffer < 0:
		return errors.Errorf("invalid buffer: %d", c.Buffer)
	case c.Compress && (c.Level < codec.MinLevel || c.Level > codec.MaxLevel):
		return errors.Errorf("invalid compression level: %d", c.Level)
	}
	if _, ok := upper.New(c.CaseMode); !ok {
		return errors.Errorf("invalid case mode: %s", c.CaseMode)
	}
	return nil
}

// Config is the optional tuning file.
type Config struct {
	ChunkSize int    `yaml:"chunkSize"`
	Buffer    int    `yaml:"buffer"`
	Level     *int   `yaml:"level"`
	CaseMode  string `yaml:"caseMode"`
	LogLevel  string `yaml:"logLevel"`
}

// ConfigFromFile loads and returns a Config from a local file.
func ConfigFromFile(path string) (cfg Config, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "could not read config")
	}
	if err := yaml.UnmarshalStrict(b, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Apply overlays the values set in the Config onto c.
func (cfg Config) Apply(c *Configuration) {
	if cfg.ChunkSize > 0 {
		c.ChunkSize = cfg.ChunkSize
	}
	if cfg.Buffer > 0 {
		c.Buffer = cfg.Buffer
	}
	if cfg.Level != nil {
		c.Level = *cfg.Level
	}
	if cfg.CaseMode != "" {
		c.CaseMode = cfg.CaseMode
	}
}
