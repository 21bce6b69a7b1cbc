// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "autolistctl", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"publish"}, {"sync"}, {"hide"}, {"eligible"}, {"tick"},
		{"taxonomy", "refresh"}, {"taxonomy", "match"},
		{"migrate", "up"}, {"migrate", "down"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		path     []string
		flag     string
		defValue string
	}{
		{[]string{"sync"}, "listing", ""},
		{[]string{"eligible"}, "limit", "20"},
		{[]string{"migrate", "down"}, "steps", "1"},
		{[]string{"taxonomy", "match"}, "feature", ""},
		{[]string{"taxonomy", "match"}, "text", ""},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			subCmd, _, err := NewRootCommand().Find(tt.path)
			require.NoError(t, err)

			flag := subCmd.Flags().Lookup(tt.flag)
			require.NotNil(t, flag)
			assert.Equal(t, tt.defValue, flag.DefValue)
		})
	}
}

// Argument errors surface before configuration is loaded.
func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"invalid format", []string{"eligible", "--format", "yaml"}},
		{"non numeric id", []string{"publish", "abc"}},
		{"zero id", []string{"sync", "0"}},
		{"unknown mode", []string{"tick", "nightly"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCommand()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"5012", "7"})
	require.NoError(t, err)
	assert.Equal(t, []int64{5012, 7}, ids)

	_, err = parseIDs([]string{"5012", "x"})
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
