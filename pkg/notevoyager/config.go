package notevoyager

import (
	"errors"
	"fmt"
	"os"

	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/game"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid engine config")

// EngineConfig is the tuning of every engine stage plus the lives budget.
type EngineConfig = game.Config

func DefaultEngineConfig() EngineConfig {
	return game.DefaultConfig()
}

type Config struct {
	DBPath     string
	TempDir    string
	SampleRate int
	FrameSize  int
	HopSize    int
	Engine     EngineConfig
	Logger     Logger
	Storage    Storage
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

// WithFrameSize sets the analysis window and the hop between windows, both
// in samples.
func WithFrameSize(size, hop int) Option {
	return func(c *Config) {
		c.FrameSize = size
		c.HopSize = hop
	}
}

func WithEngineConfig(engine EngineConfig) Option {
	return func(c *Config) {
		c.Engine = engine
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:     "notevoyager.sqlite3",
		TempDir:    os.TempDir(),
		SampleRate: 44100,
		FrameSize:  2048,
		HopSize:    1024,
		Engine:     DefaultEngineConfig(),
	}
}

type engineFile struct {
	EngineConfig `yaml:",inline"`
	Levels       []game.Level `yaml:"levels"`
}

// LoadEngineConfig reads a YAML tuning file. Keys left out keep their
// defaults; levels is nil when the file defines none.
func LoadEngineConfig(path string) (EngineConfig, []game.Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, nil, fmt.Errorf("reading engine config: %w", err)
	}
	return ParseEngineConfig(data)
}

func ParseEngineConfig(data []byte) (EngineConfig, []game.Level, error) {
	file := engineFile{EngineConfig: DefaultEngineConfig()}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return EngineConfig{}, nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := ValidateEngineConfig(file.EngineConfig); err != nil {
		return EngineConfig{}, nil, err
	}
	return file.EngineConfig, file.Levels, nil
}

func ValidateEngineConfig(c EngineConfig) error {
	switch {
	case c.Pitch.SilenceRMS < 0 || c.Pitch.TrimThreshold < 0:
		return fmt.Errorf("%w: pitch thresholds must be non-negative", ErrInvalidConfig)
	case c.Match.ToleranceCents < 0 || c.Match.ToleranceCents > 50:
		return fmt.Errorf("%w: tolerance_cents must be within [0, 50]", ErrInvalidConfig)
	case c.Match.SustainMs <= 0:
		return fmt.Errorf("%w: sustain_ms must be positive", ErrInvalidConfig)
	case c.Score.MinDurationMs < 0 || c.Score.MaxPerEvent <= 0:
		return fmt.Errorf("%w: score floor and cap must be positive", ErrInvalidConfig)
	case c.Lives <= 0:
		return fmt.Errorf("%w: lives must be positive", ErrInvalidConfig)
	}
	return nil
}
