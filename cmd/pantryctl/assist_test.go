package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadText(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("  2 milk\neggs  \n"))

	text, err := readText(cmd, []string{"rice 1kg"})
	require.NoError(t, err)
	assert.Equal(t, "rice 1kg", text)

	text, err = readText(cmd, []string{"-"})
	require.NoError(t, err)
	assert.Equal(t, "2 milk\neggs", text)
}

func TestRank_RequiresOwner(t *testing.T) {
	ownerID = ""
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"rank"})

	err := rootCmd.Execute()
	assert.EqualError(t, err, "--owner is required")
}
