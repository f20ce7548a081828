package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		expectedOutput string
		expectError    bool
	}{
		{name: "help flag", args: []string{"--help"}, expectedOutput: "Meetups server"},
		{name: "short help flag", args: []string{"-h"}, expectedOutput: "Meetups server"},
		{name: "invalid flag", args: []string{"--invalid-flag"}, expectedOutput: "unknown flag: --invalid-flag", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := execute(t, tt.args...)
			if tt.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Contains(t, output, tt.expectedOutput)
		})
	}
}

func TestRootCommandPersistentFlags(t *testing.T) {
	root := newRootCmd()
	for _, flag := range []string{"config", "log-level", "log-format"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %q", flag)
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]*cobra.Command{}
	for _, c := range root.Commands() {
		names[c.Name()] = c
	}
	for _, want := range []string{"serve", "migrate", "token", "version", "healthcheck"} {
		assert.Contains(t, names, want)
	}
	require.Contains(t, names, "migrate")
	var sub []string
	for _, c := range names["migrate"].Commands() {
		sub = append(sub, c.Name())
	}
	assert.ElementsMatch(t, []string{"up", "down"}, sub)
}

func TestLoadConfigAppliesLogFlags(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("JWT_SECRET", "test-secret")
	origLevel, origFormat, origPath := logLevel, logFormat, configPath
	t.Cleanup(func() { logLevel, logFormat, configPath = origLevel, origFormat, origPath })

	configPath = ""
	logLevel = "debug"
	logFormat = "console"

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "memory", cfg.Store)
}
