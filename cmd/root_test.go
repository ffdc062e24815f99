package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRootCommandFlags checks that all expected CLI flags are registered.
func TestRootCommandFlags(t *testing.T) {
	for _, name := range []string{"config", "server", "log-level"} {
		flag := rootCmd.PersistentFlags().Lookup(name)
		assert.NotNil(t, flag, "missing persistent flag %q", name)
	}

	for _, name := range []string{"prompt", "project", "conversation", "temperature", "max-tokens", "rag"} {
		flag := rootCmd.Flags().Lookup(name)
		assert.NotNil(t, flag, "missing flag %q", name)
	}
}

func TestRootCommandDefaults(t *testing.T) {
	server := rootCmd.PersistentFlags().Lookup("server")
	require.NotNil(t, server)
	assert.Equal(t, "http://localhost:8000", server.DefValue)

	project := rootCmd.Flags().Lookup("project")
	require.NotNil(t, project)
	assert.Equal(t, "Default", project.DefValue)
}
