package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/photostory/internal/config"
)

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	run := func(args ...string) int {
		cmd := NewRootCommand("test", noServe)
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		return Execute(context.Background(), cmd)
	}

	require.Equal(t, ExitSuccess, run("config", "init", path))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, config.DriverMemory, cfg.Storage.Driver)

	assert.Equal(t, ExitCommandError, run("config", "init", path), "refuses to overwrite")
	assert.Equal(t, ExitSuccess, run("config", "init", "--force", path))
}
