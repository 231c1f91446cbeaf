package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithNoConfigFile(t *testing.T) {
	v := viper.New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags, v)
	require.NoError(t, flags.Parse(nil))

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	snap, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, Default().Port, snap.Port)
	assert.Equal(t, Default().RDBEnabled, snap.RDBEnabled)
}

func TestLoadReadsExplicitConfigFile(t *testing.T) {
	v := viper.New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags, v)
	require.NoError(t, flags.Parse(nil))

	path := filepath.Join(t.TempDir(), "kvprotod.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 7000\nmax-memory-bytes: 1048576\n"), 0o644))

	snap, err := Load(v, path)
	require.NoError(t, err)
	assert.Equal(t, 7000, snap.Port)
	assert.Equal(t, int64(1048576), snap.MaxMemoryBytes)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	v := viper.New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags, v)
	require.NoError(t, flags.Parse(nil))

	path := filepath.Join(t.TempDir(), "kvprotod.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 70000\n"), 0o644))

	_, err := Load(v, path)
	assert.Error(t, err)
}

func TestWatchInvokesOnChange(t *testing.T) {
	v := viper.New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags, v)
	require.NoError(t, flags.Parse(nil))

	path := filepath.Join(t.TempDir(), "kvprotod.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 6379\n"), 0o644))
	_, err := Load(v, path)
	require.NoError(t, err)

	changed := make(chan Snapshot, 1)
	Watch(v, func(s Snapshot) { changed <- s }, func(error) {})

	require.NoError(t, os.WriteFile(path, []byte("port: 6380\n"), 0o644))

	select {
	case s := <-changed:
		assert.Equal(t, 6380, s.Port)
	case <-time.After(2 * time.Second):
		t.Fatal("config change was not observed")
	}
}
