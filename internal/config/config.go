package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/phypno/internal/simulate"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDataDir        = ".phypno"
	DefaultServerAddr     = ":8080"
	DefaultHP             = 0.5
	DefaultLP             = 45.0
	DefaultColor          = "#0000ff"
	DefaultScale          = 1.0
	DefaultWindowLength   = 30
	DefaultWindowStep     = 5
	DefaultTimestampSteps = 3600
	DefaultOverviewScale  = 30
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	DataDir    string           `yaml:"data_dir"`
	Freesurfer FreesurferConfig `yaml:"freesurfer"`
	Simulate   simulate.Options `yaml:"simulate"`
	Channels   ChannelsConfig   `yaml:"channels"`
	Overview   OverviewConfig   `yaml:"overview"`
	Server     ServerConfig     `yaml:"server"`
}

// FreesurferConfig replaces the FREESURFER_HOME environment lookup with
// explicit paths.
type FreesurferConfig struct {
	Home       string `yaml:"home"`
	LUT        string `yaml:"lut"`
	SubjectDir string `yaml:"subject_dir"`
}

// ChannelsConfig holds the defaults for new montage groups.
type ChannelsConfig struct {
	HP    float64 `yaml:"hp"`
	LP    float64 `yaml:"lp"`
	Color string  `yaml:"color"`
	Scale float64 `yaml:"scale"`
}

type OverviewConfig struct {
	WindowStart    float64 `yaml:"window_start"`
	WindowLength   float64 `yaml:"window_length"`
	WindowStep     float64 `yaml:"window_step"`
	TimestampSteps int     `yaml:"timestamp_steps"`
	OverviewScale  float64 `yaml:"overview_scale"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir,
		Simulate: simulate.Options{
			DataType:  string(simulate.DefaultDataType),
			NTrial:    simulate.DefaultNTrial,
			NChan:     simulate.DefaultNChan,
			SFreq:     simulate.DefaultSFreq,
			FreqStep:  simulate.DefaultFreqStep,
			Signal:    simulate.DefaultSignal,
			Amplitude: simulate.DefaultAmplitude,
			SineFreq:  simulate.DefaultSineFreq,
		},
		Channels: ChannelsConfig{
			HP:    DefaultHP,
			LP:    DefaultLP,
			Color: DefaultColor,
			Scale: DefaultScale,
		},
		Overview: OverviewConfig{
			WindowLength:   DefaultWindowLength,
			WindowStep:     DefaultWindowStep,
			TimestampSteps: DefaultTimestampSteps,
			OverviewScale:  DefaultOverviewScale,
		},
		Server: ServerConfig{Addr: DefaultServerAddr},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.Simulate.SFreq < 0:
		return fmt.Errorf("%w: simulate.s_freq %g", ErrInvalid, c.Simulate.SFreq)
	case c.Overview.WindowLength <= 0:
		return fmt.Errorf("%w: overview.window_length %g", ErrInvalid, c.Overview.WindowLength)
	case c.Overview.WindowStep <= 0:
		return fmt.Errorf("%w: overview.window_step %g", ErrInvalid, c.Overview.WindowStep)
	case c.Overview.OverviewScale <= 0:
		return fmt.Errorf("%w: overview.overview_scale %g", ErrInvalid, c.Overview.OverviewScale)
	case c.Overview.TimestampSteps <= 0:
		return fmt.Errorf("%w: overview.timestamp_steps %d", ErrInvalid, c.Overview.TimestampSteps)
	case c.Channels.HP < 0 || c.Channels.LP < 0 || c.Channels.Scale < 0:
		return fmt.Errorf("%w: negative channel default", ErrInvalid)
	}
	return nil
}
