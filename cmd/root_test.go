package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"summary", "search", "compliance", "serve"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestSummaryFlags(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"summary"})
	require.NoError(t, err)
	assert.NotNil(t, cmd.Flags().Lookup("radius"))
}

func TestSearchFlags(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"search"})
	require.NoError(t, err)

	for _, flag := range []string{"name", "naics", "state", "zip", "city"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "missing flag %q", flag)
	}
}

func TestComplianceFlags(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"compliance"})
	require.NoError(t, err)
	assert.NotNil(t, cmd.Flags().Lookup("program"))
	assert.NotNil(t, cmd.Flags().Lookup("years"))
}
