// Package config loads loop settings, group topology and logging options
// from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/plus3/frameloop/loop"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

type File struct {
	Settings SettingsConfig     `yaml:"settings"`
	Groups   []loop.GroupConfig `yaml:"groups"`
	Log      LogConfig          `yaml:"log"`
}

type SettingsConfig struct {
	TargetFrameRate     float64 `yaml:"target_frame_rate"`
	FixedTimeStep       float64 `yaml:"fixed_time_step"`
	MaxAllowedDeltaTime float64 `yaml:"max_allowed_delta_time"`
	UseFixedTimeStep    bool    `yaml:"use_fixed_time_step"`
	TimeScale           float64 `yaml:"time_scale"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given: default
// settings, a single Default group and info-level text logs.
func Default() *File {
	s := loop.DefaultSettings()
	return &File{
		Settings: SettingsConfig{
			TargetFrameRate:     s.TargetFrameRate,
			FixedTimeStep:       s.FixedTimeStep,
			MaxAllowedDeltaTime: s.MaxAllowedDeltaTime,
			UseFixedTimeStep:    s.UseFixedTimeStep,
			TimeScale:           1,
		},
		Groups: []loop.GroupConfig{{Name: loop.DefaultGroup, Order: 0}},
		Log:    LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// Load reads path and overlays it on Default.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse overlays data on Default and validates the result. A groups list in
// data replaces the default list rather than extending it.
func Parse(data []byte) (*File, error) {
	f := Default()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the settings, the topology and the log options.
func (f *File) Validate() error {
	if _, err := f.LoopSettings(); err != nil {
		return err
	}
	if f.Settings.TimeScale < 0 {
		return fmt.Errorf("%w: time scale must be >= 0, got %v", loop.ErrInvalidSettings, f.Settings.TimeScale)
	}
	if _, err := f.Topology(); err != nil {
		return err
	}
	switch f.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", loop.ErrConfig, f.Log.Level)
	}
	switch f.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", loop.ErrConfig, f.Log.Format)
	}
	return nil
}

// LoopSettings converts the settings section into validated loop.Settings.
func (f *File) LoopSettings() (loop.Settings, error) {
	return loop.NewSettings(
		f.Settings.TargetFrameRate,
		f.Settings.FixedTimeStep,
		f.Settings.MaxAllowedDeltaTime,
		f.Settings.UseFixedTimeStep,
	)
}

// Topology validates the groups section.
func (f *File) Topology() (*loop.Topology, error) {
	return loop.NewTopology(f.Groups...)
}
