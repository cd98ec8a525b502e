package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand(t *testing.T) {
	assert.Equal(t, "run", runCmd.Use)
	assert.NotNil(t, runCmd.Flags().Lookup("listen"))
	assert.NotNil(t, runCmd.Flags().Lookup("log-level"))
	assert.NotNil(t, runCmd.Flags().Lookup("dry-run"))
}

// Configuration is a process-wide singleton, so this is the only test
// that goes through run.
func TestRunCommand_DryRun(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	out, err := executeCommand(t, "run", "--dry-run", "--listen", "127.0.0.1:0", "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Configuration valid")
}
