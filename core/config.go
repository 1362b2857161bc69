// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"io"
	"time"

	"github.com/devblok/korures/loaders"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding the configuration file
const (
	EnvPoolName           = "KORU_POOL_NAME"
	EnvLogLevel           = "KORU_LOG_LEVEL"
	EnvStatisticsInterval = "KORU_STATS_INTERVAL"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time TimeConfiguration `yaml:"time"`
	Pool PoolConfiguration `yaml:"pool"`
	Log  LogConfiguration  `yaml:"log"`
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int `yaml:"framesPerSecond"`

	// EventPollDelay is the event loop period in milliseconds
	EventPollDelay int `yaml:"eventPollDelay"`

	// StatisticsInterval is the period pool statistics are logged at,
	// 0 disables periodic statistics
	StatisticsInterval time.Duration `yaml:"statisticsInterval"`
}

// PoolConfiguration is used to configure the resource pool
type PoolConfiguration struct {
	Name string `yaml:"name"`

	// Loaders are probed in the given order
	Loaders []loaders.Configuration `yaml:"loaders"`

	// Preload lists locations acquired at startup
	// and held until the engine is closed
	Preload []string `yaml:"preload"`
}

// LogConfiguration sets up logging
type LogConfiguration struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfiguration returns the settings used for anything
// a configuration file leaves out.
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 60,
			EventPollDelay:  10,
		},
		Pool: PoolConfiguration{
			Name: "default",
		},
		Log: LogConfiguration{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfiguration reads a YAML configuration file from fs on top of
// the defaults and applies environment overrides.
func LoadConfiguration(fs afero.Fs, path string) (Configuration, error) {
	cfg := DefaultConfiguration()

	f, err := fs.Open(path)
	if err != nil {
		return cfg, errors.Wrap(err, "opening configuration")
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
		return cfg, errors.Wrapf(err, "decoding %s", path)
	}

	if err := ApplyEnvironment(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnvironment overrides configuration values set in the environment.
func ApplyEnvironment(cfg *Configuration) error {
	cfg.Pool.Name = envy.Get(EnvPoolName, cfg.Pool.Name)
	cfg.Log.Level = envy.Get(EnvLogLevel, cfg.Log.Level)

	if interval := envy.Get(EnvStatisticsInterval, ""); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return errors.Wrapf(err, "parsing %s", EnvStatisticsInterval)
		}
		cfg.Time.StatisticsInterval = d
	}
	return nil
}

// LoadEnvironment loads variables from .env files into the process
// environment. Variables that are already set are kept.
func LoadEnvironment(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		return errors.Wrap(err, "loading environment")
	}
	envy.Reload()
	return nil
}
