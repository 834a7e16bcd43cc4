package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/gameoflife/game/engine"
	"github.com/wricardo/mcp-training/gameoflife/game/queue"
	"github.com/wricardo/mcp-training/gameoflife/game/service"
)

var ErrInvalidSettings = errors.New("invalid settings")

// Settings tunes the simulation components. Zero values in a YAML file keep
// the defaults.
type Settings struct {
	QueueCapacity int           `yaml:"queue_capacity"`
	TickInterval  time.Duration `yaml:"tick_interval"`
	TickBackoff   time.Duration `yaml:"tick_backoff"`
	MinSteps      int           `yaml:"min_steps"`
	MaxSteps      int           `yaml:"max_steps"`
	MinGridSize   int           `yaml:"min_grid_size"`
	MaxGridSize   int           `yaml:"max_grid_size"`
	DataDir       string        `yaml:"data_dir"`
	PatternsDir   string        `yaml:"patterns_dir"`
}

// DefaultSettings returns the built-in settings
func DefaultSettings() *Settings {
	return &Settings{
		QueueCapacity: queue.DefaultCapacity,
		TickInterval:  time.Second,
		TickBackoff:   3 * time.Second,
		MinSteps:      engine.MinSteps,
		MaxSteps:      engine.MaxSteps,
		MinGridSize:   engine.MinGridSize,
		MaxGridSize:   engine.MaxGridSize,
		DataDir:       "boards",
		PatternsDir:   "patterns",
	}
}

// LoadSettings reads defaults, then the YAML file at path (skipped when path
// is empty), then GOL_* environment overrides, and validates the result.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
		var file Settings
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse settings file: %w", err)
		}
		s.merge(&file)
	}

	if err := s.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) merge(o *Settings) {
	if o.QueueCapacity != 0 {
		s.QueueCapacity = o.QueueCapacity
	}
	if o.TickInterval != 0 {
		s.TickInterval = o.TickInterval
	}
	if o.TickBackoff != 0 {
		s.TickBackoff = o.TickBackoff
	}
	if o.MinSteps != 0 {
		s.MinSteps = o.MinSteps
	}
	if o.MaxSteps != 0 {
		s.MaxSteps = o.MaxSteps
	}
	if o.MinGridSize != 0 {
		s.MinGridSize = o.MinGridSize
	}
	if o.MaxGridSize != 0 {
		s.MaxGridSize = o.MaxGridSize
	}
	if o.DataDir != "" {
		s.DataDir = o.DataDir
	}
	if o.PatternsDir != "" {
		s.PatternsDir = o.PatternsDir
	}
}

// ApplyEnv overrides settings from environment variables found by lookup
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"GOL_QUEUE_CAPACITY", &s.QueueCapacity},
		{"GOL_MIN_STEPS", &s.MinSteps},
		{"GOL_MAX_STEPS", &s.MaxSteps},
		{"GOL_MIN_GRID_SIZE", &s.MinGridSize},
		{"GOL_MAX_GRID_SIZE", &s.MaxGridSize},
	}
	for _, v := range ints {
		raw, ok := lookup(v.key)
		if !ok || raw == "" {
			continue
		}
		n, err := cast.ToIntE(raw)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidSettings, v.key, raw, err)
		}
		*v.dst = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"GOL_TICK_INTERVAL", &s.TickInterval},
		{"GOL_TICK_BACKOFF", &s.TickBackoff},
	}
	for _, v := range durations {
		raw, ok := lookup(v.key)
		if !ok || raw == "" {
			continue
		}
		d, err := cast.ToDurationE(raw)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidSettings, v.key, raw, err)
		}
		*v.dst = d
	}

	if raw, ok := lookup("GOL_DATA_DIR"); ok && raw != "" {
		s.DataDir = raw
	}
	if raw, ok := lookup("GOL_PATTERNS_DIR"); ok && raw != "" {
		s.PatternsDir = raw
	}
	return nil
}

// Validate rejects settings the components cannot run with
func (s *Settings) Validate() error {
	switch {
	case s.QueueCapacity < 1:
		return fmt.Errorf("%w: queue_capacity must be positive, got %d", ErrInvalidSettings, s.QueueCapacity)
	case s.TickInterval <= 0:
		return fmt.Errorf("%w: tick_interval must be positive, got %s", ErrInvalidSettings, s.TickInterval)
	case s.TickBackoff <= 0:
		return fmt.Errorf("%w: tick_backoff must be positive, got %s", ErrInvalidSettings, s.TickBackoff)
	case s.MinSteps < 1 || s.MaxSteps < s.MinSteps:
		return fmt.Errorf("%w: steps range [%d, %d]", ErrInvalidSettings, s.MinSteps, s.MaxSteps)
	case s.MinGridSize < 1 || s.MaxGridSize < s.MinGridSize:
		return fmt.Errorf("%w: grid size range [%d, %d]", ErrInvalidSettings, s.MinGridSize, s.MaxGridSize)
	case s.DataDir == "":
		return fmt.Errorf("%w: data_dir is required", ErrInvalidSettings)
	}
	return nil
}

// Limits returns the request bounds for the board service
func (s *Settings) Limits() service.Limits {
	return service.Limits{
		MinSteps:    s.MinSteps,
		MaxSteps:    s.MaxSteps,
		MinGridSize: s.MinGridSize,
		MaxGridSize: s.MaxGridSize,
	}
}
