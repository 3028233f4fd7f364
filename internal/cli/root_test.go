package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noServe(ctx context.Context, configPath string, debug bool) error { return nil }

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand("test", noServe)
	require.NotNil(t, cmd)
	assert.Equal(t, "photostory", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand("test", noServe)
	paths := [][]string{
		{"server"},
		{"chapters", "list"},
		{"chapters", "get"},
		{"chapters", "add"},
		{"chapters", "add-url"},
		{"export"},
		{"reset"},
		{"search"},
		{"config", "init"},
		{"version"},
	}
	for _, path := range paths {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand("test", noServe)

	server := cmd.PersistentFlags().Lookup("server")
	require.NotNil(t, server)
	assert.Equal(t, DefaultServerURL, server.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand("test", noServe)
	cmd.SetArgs([]string{"version", "--format", "yaml"})
	cmd.SetOut(&bytes.Buffer{})
	var stderr bytes.Buffer
	cmd.SetErr(&stderr)

	code := Execute(context.Background(), cmd)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr.String(), `invalid format "yaml"`)
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCommand("1.2.3", noServe)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.Equal(t, ExitSuccess, Execute(context.Background(), cmd))
	assert.Equal(t, "photostory version 1.2.3\n", out.String())
}

func TestServerCommandPassesFlags(t *testing.T) {
	var gotPath string
	var gotDebug bool
	cmd := NewRootCommand("test", func(ctx context.Context, configPath string, debug bool) error {
		gotPath, gotDebug = configPath, debug
		return nil
	})
	cmd.SetArgs([]string{"server", "--config", "/tmp/photostory.yaml", "--debug"})
	require.Equal(t, ExitSuccess, Execute(context.Background(), cmd))
	assert.Equal(t, "/tmp/photostory.yaml", gotPath)
	assert.True(t, gotDebug)
}

func TestBuildSearchQuery(t *testing.T) {
	assert.Equal(t, "cat on a mat", buildSearchQuery([]string{"cat", "on", "a", "mat"}))
	assert.Equal(t, "cat on a mat", buildSearchQuery([]string{"  cat on a mat "}))
	assert.Equal(t, "", buildSearchQuery([]string{" "}))
}
