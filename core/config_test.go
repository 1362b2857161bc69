// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devblok/korures/core"
	"github.com/gobuffalo/envy"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configFile = `
time:
  framesPerSecond: 30
  statisticsInterval: 5s
pool:
  name: assets
  loaders:
    - type: texture
      params:
        source:
          type: file
          params:
            root: assets
    - type: file
      params:
        root: assets
        extensions: [".txt"]
  preload:
    - notes.txt
log:
  level: debug
`

func TestLoadConfiguration(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "koru.yaml", []byte(configFile), 0644))

	cfg, err := core.LoadConfiguration(fs, "koru.yaml")
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Time.FramesPerSecond)
	assert.Equal(t, 10, cfg.Time.EventPollDelay)
	assert.Equal(t, 5*time.Second, cfg.Time.StatisticsInterval)
	assert.Equal(t, "assets", cfg.Pool.Name)
	assert.Equal(t, []string{"notes.txt"}, cfg.Pool.Preload)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)

	require.Len(t, cfg.Pool.Loaders, 2)
	assert.Equal(t, "texture", cfg.Pool.Loaders[0].Type)
	source, ok := cfg.Pool.Loaders[0].Params["source"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "file", source["type"])
	assert.Equal(t, "assets", cfg.Pool.Loaders[1].Params["root"])
}

func TestLoadConfigurationDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "empty.yaml", nil, 0644))

	cfg, err := core.LoadConfiguration(fs, "empty.yaml")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultConfiguration(), cfg)
}

func TestLoadConfigurationErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "typo.yaml", []byte("pool:\n  nmae: assets\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "broken.yaml", []byte("pool: [\n"), 0644))

	for _, name := range []string{"typo.yaml", "broken.yaml", "missing.yaml"} {
		_, err := core.LoadConfiguration(fs, name)
		assert.Error(t, err, name)
	}
}

func TestApplyEnvironment(t *testing.T) {
	envy.Temp(func() {
		envy.Set(core.EnvPoolName, "from-env")
		envy.Set(core.EnvLogLevel, "warn")
		envy.Set(core.EnvStatisticsInterval, "250ms")

		cfg := core.DefaultConfiguration()
		require.NoError(t, core.ApplyEnvironment(&cfg))
		assert.Equal(t, "from-env", cfg.Pool.Name)
		assert.Equal(t, "warn", cfg.Log.Level)
		assert.Equal(t, 250*time.Millisecond, cfg.Time.StatisticsInterval)

		envy.Set(core.EnvStatisticsInterval, "often")
		assert.Error(t, core.ApplyEnvironment(&cfg))
	})
}

func TestLoadEnvironment(t *testing.T) {
	const key = "KORU_TEST_GREETING"
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=hello\n"), 0644))
	defer os.Unsetenv(key)

	require.NoError(t, core.LoadEnvironment(path))
	assert.Equal(t, "hello", os.Getenv(key))
	assert.Equal(t, "hello", envy.Get(key, ""))

	assert.Error(t, core.LoadEnvironment(filepath.Join(t.TempDir(), "missing.env")))
}
