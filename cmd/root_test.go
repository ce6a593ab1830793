package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"bffgate/internal/config"
)

func TestSetVersion(t *testing.T) {
	original := rootCmd.Version
	defer func() { rootCmd.Version = original }()

	SetVersion("1.2.3-test")
	assert.Equal(t, "1.2.3-test", GetVersion())
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "bffgate", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)

	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "check", "keygen", "seal", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}

	flag := rootCmd.PersistentFlags().Lookup("config")
	if assert.NotNil(t, flag) {
		assert.Equal(t, config.DefaultConfigFile, flag.DefValue)
	}
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}
	testCmd.SetVersionTemplate(`{{printf "bffgate version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})

	assert.NoError(t, testCmd.Execute())
	assert.Equal(t, "bffgate version 1.0.0\n", buf.String())
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitCodeSuccess},
		{name: "generic", err: errors.New("boom"), want: ExitCodeError},
		{
			name: "configuration",
			err:  &config.ConfigurationError{ErrorType: "validation", Message: "bad"},
			want: ExitCodeConfigError,
		},
		{
			name: "wrapped configuration",
			err:  fmt.Errorf("failed to initialize application: %w", &config.ConfigurationError{ErrorType: "io"}),
			want: ExitCodeConfigError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}

func TestVersionCommandExecution(t *testing.T) {
	original := rootCmd.Version
	defer func() { rootCmd.Version = original }()
	rootCmd.Version = "1.2.3-test"

	versionCmd := newVersionCmd()
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, []string{})

	assert.Equal(t, "bffgate version 1.2.3-test\n", buf.String())
}
