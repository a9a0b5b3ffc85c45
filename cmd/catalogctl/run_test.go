package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCommandForwardsFlags(t *testing.T) {
	var captured runOptions
	var capturedRoot *rootFlags

	original := runCmdRunner
	runCmdRunner = func(root *rootFlags, opts runOptions) error {
		capturedRoot = root
		captured = opts
		return nil
	}
	t.Cleanup(func() { runCmdRunner = original })

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "--config", "catalog.yaml", "--ids", "p1,p2", "--category", "earrings", "--limit", "10", "--dry-run"})

	require.NoError(t, cmd.Execute())
	require.Equal(t, "catalog.yaml", captured.ConfigPath)
	require.Equal(t, []string{"p1", "p2"}, captured.IDs)
	require.Equal(t, "earrings", captured.Category)
	require.Equal(t, 10, captured.Limit)
	require.True(t, capturedRoot.dryRun)
}

func TestRunCommandRequiresConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run"})

	require.Error(t, cmd.Execute())
}
