package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/mentionserve/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRebuildConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("[server]\nmax_limit = 0\n"), 0644))

	require.NoError(t, run(options{configPath: path, rebuildConfig: true}))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}
